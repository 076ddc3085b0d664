// Package cluster partitions recall results into labeled groups.
//
// Clusters are ephemeral: they are recomputed per call and never persisted.
package cluster

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dmfarland/recollect/internal/model"
)

// Cluster is one query-time grouping of recall results.
type Cluster struct {
	ID              string   `json:"id"`
	Summary         string   `json:"summary"`
	Members         []string `json:"members"`
	CommonQualities []string `json:"common_qualities,omitempty"`
	Size            int      `json:"size"`
}

// SimilarityGrouper is implemented by the embedding collaborator for
// semantic grouping. Each returned group is an ordered list of record ids.
type SimilarityGrouper interface {
	GroupBySimilarity(ctx context.Context, records []model.Experience) ([][]string, error)
}

// Keys supported by Build.
const (
	KeyNone        = "none"
	KeyWho         = "who"
	KeyDate        = "date"
	KeyQualities   = "qualities"
	KeyPerspective = "perspective"
	KeySimilarity  = "similarity"
)

// Build groups the (already filtered and ordered) records by the requested
// key. Records keep their incoming order within each cluster. who,
// perspective, and qualities clusters are ordered by descending size then
// label; date clusters chronologically ascending.
func Build(ctx context.Context, key string, records []model.Experience, sim SimilarityGrouper) ([]Cluster, error) {
	switch key {
	case "", KeyNone:
		return []Cluster{single(records)}, nil
	case KeyWho:
		return byLabel(records, func(e model.Experience) string { return e.Experiencer }), nil
	case KeyPerspective:
		return byLabel(records, func(e model.Experience) string { return e.Perspective }), nil
	case KeyDate:
		return byDay(records), nil
	case KeyQualities:
		return bySignature(records), nil
	case KeySimilarity:
		if sim == nil {
			return nil, fmt.Errorf("similarity grouping requires an embedding provider")
		}
		return bySimilarity(ctx, records, sim)
	default:
		return nil, fmt.Errorf("unknown group key %q", key)
	}
}

func single(records []model.Experience) Cluster {
	c := Cluster{
		ID:      "all",
		Summary: fmt.Sprintf("All results (%d experiences)", len(records)),
		Size:    len(records),
	}
	for _, e := range records {
		c.Members = append(c.Members, e.ID)
	}
	c.CommonQualities = commonLabels(records)
	return c
}

func byLabel(records []model.Experience, labelOf func(model.Experience) string) []Cluster {
	groups := map[string][]model.Experience{}
	for _, e := range records {
		label := labelOf(e)
		if label == "" {
			label = "(unknown)"
		}
		groups[label] = append(groups[label], e)
	}

	out := make([]Cluster, 0, len(groups))
	for label, members := range groups {
		out = append(out, Cluster{
			ID:              label,
			Summary:         fmt.Sprintf("%s (%d experiences)", label, len(members)),
			Members:         ids(members),
			CommonQualities: commonLabels(members),
			Size:            len(members),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size > out[j].Size
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func byDay(records []model.Experience) []Cluster {
	groups := map[string][]model.Experience{}
	for _, e := range records {
		day := e.Created.UTC().Format("2006-01-02")
		groups[day] = append(groups[day], e)
	}

	out := make([]Cluster, 0, len(groups))
	for day, members := range groups {
		out = append(out, Cluster{
			ID:              day,
			Summary:         fmt.Sprintf("%s (%d experiences)", day, len(members)),
			Members:         ids(members),
			CommonQualities: commonLabels(members),
			Size:            len(members),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func bySignature(records []model.Experience) []Cluster {
	groups := map[string][]model.Experience{}
	for _, e := range records {
		groups[e.Qualities.Signature()] = append(groups[e.Qualities.Signature()], e)
	}

	out := make([]Cluster, 0, len(groups))
	for sig, members := range groups {
		var labels []string
		if sig != "(none)" {
			labels = strings.Split(sig, ",")
		}
		out = append(out, Cluster{
			ID:              sig,
			Summary:         fmt.Sprintf("%s (%d experiences)", sig, len(members)),
			Members:         ids(members),
			CommonQualities: labels,
			Size:            len(members),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size > out[j].Size
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func bySimilarity(ctx context.Context, records []model.Experience, sim SimilarityGrouper) ([]Cluster, error) {
	groups, err := sim.GroupBySimilarity(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("similarity grouping: %w", err)
	}

	byID := make(map[string]model.Experience, len(records))
	for _, e := range records {
		byID[e.ID] = e
	}

	out := make([]Cluster, 0, len(groups))
	for i, group := range groups {
		var members []model.Experience
		for _, id := range group {
			if e, ok := byID[id]; ok {
				members = append(members, e)
			}
		}
		out = append(out, Cluster{
			ID:              fmt.Sprintf("similar-%d", i+1),
			Summary:         fmt.Sprintf("Similar experiences (%d)", len(members)),
			Members:         ids(members),
			CommonQualities: commonLabels(members),
			Size:            len(members),
		})
	}
	return out, nil
}

func ids(records []model.Experience) []string {
	out := make([]string, len(records))
	for i, e := range records {
		out[i] = e.ID
	}
	return out
}

// commonLabels returns the quality labels shared by every member.
func commonLabels(records []model.Experience) []string {
	if len(records) == 0 {
		return nil
	}
	counts := map[string]int{}
	for _, e := range records {
		for _, l := range e.Qualities.Labels() {
			counts[l]++
		}
	}
	var out []string
	for l, n := range counts {
		if n == len(records) {
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}
