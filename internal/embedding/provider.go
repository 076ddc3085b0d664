package embedding

import (
	"context"
	"fmt"

	"github.com/dmfarland/recollect/internal/model"
)

// VectorStore is the persistence surface the provider caches vectors in.
type VectorStore interface {
	Vectors(ctx context.Context, provider string) (map[string][]float32, error)
	PutVector(ctx context.Context, id, provider string, vec []float32) error
}

// DefaultGroupThreshold is the cosine similarity above which two records
// land in the same similarity cluster.
const DefaultGroupThreshold = 0.75

// Provider answers the recall engine's semantic queries from cached
// vectors. It also backs similarity grouping.
type Provider struct {
	embedder  Embedder
	vectors   VectorStore
	name      string
	threshold float64
}

// NewProvider wires an embedder to its vector cache. A zero threshold
// falls back to DefaultGroupThreshold.
func NewProvider(embedder Embedder, vectors VectorStore, name string, threshold float64) *Provider {
	if threshold == 0 {
		threshold = DefaultGroupThreshold
	}
	return &Provider{embedder: embedder, vectors: vectors, name: name, threshold: threshold}
}

// Index embeds any experience missing a cached vector. Safe to call on
// every capture and before every recall; hits are skipped.
func (p *Provider) Index(ctx context.Context, experiences []model.Experience) error {
	cached, err := p.vectors.Vectors(ctx, p.name)
	if err != nil {
		return fmt.Errorf("load vectors: %w", err)
	}
	for _, e := range experiences {
		if _, ok := cached[e.ID]; ok {
			continue
		}
		vec, err := p.embedder.Embed(ctx, e.Source)
		if err != nil {
			return fmt.Errorf("embed %s: %w", e.ID, err)
		}
		if err := p.vectors.PutVector(ctx, e.ID, p.name, vec); err != nil {
			return fmt.Errorf("cache vector for %s: %w", e.ID, err)
		}
	}
	return nil
}

// Similarity embeds the query and compares it to every cached vector.
// Scores are cosine similarity floored at 0; records without a cached
// vector are absent from the map.
func (p *Provider) Similarity(ctx context.Context, query string) (map[string]float64, error) {
	qv, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	cached, err := p.vectors.Vectors(ctx, p.name)
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	scores := make(map[string]float64, len(cached))
	for id, vec := range cached {
		sim := CosineSimilarity(qv, vec)
		if sim < 0 {
			sim = 0
		}
		scores[id] = sim
	}
	return scores, nil
}

// GroupBySimilarity partitions records greedily: each ungrouped record
// seeds a group and pulls in every later ungrouped record whose cosine
// similarity with the seed meets the threshold. Records without a cached
// vector become singleton groups.
func (p *Provider) GroupBySimilarity(ctx context.Context, experiences []model.Experience) ([][]string, error) {
	cached, err := p.vectors.Vectors(ctx, p.name)
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}

	grouped := make(map[string]bool, len(experiences))
	var groups [][]string
	for i, seed := range experiences {
		if grouped[seed.ID] {
			continue
		}
		group := []string{seed.ID}
		grouped[seed.ID] = true

		seedVec, ok := cached[seed.ID]
		if ok {
			for _, other := range experiences[i+1:] {
				if grouped[other.ID] {
					continue
				}
				otherVec, ok := cached[other.ID]
				if !ok {
					continue
				}
				if CosineSimilarity(seedVec, otherVec) >= p.threshold {
					group = append(group, other.ID)
					grouped[other.ID] = true
				}
			}
		}
		groups = append(groups, group)
	}
	return groups, nil
}
