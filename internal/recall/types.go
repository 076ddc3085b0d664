// Package recall composes filtering, scoring, sorting, pagination, and
// clustering into the journal's retrieval operation.
package recall

import (
	"context"
	"errors"

	"github.com/dmfarland/recollect/internal/cluster"
	"github.com/dmfarland/recollect/internal/model"
	"github.com/dmfarland/recollect/internal/scoring"
)

// SnapshotProvider returns the full record snapshot the engine operates on.
// Order is not significant; ids must be stable within a call.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) ([]model.Experience, error)
}

// SimilarityProvider maps a query string to per-record similarity scalars
// in [0,1]. Records without an entry score 0 on the semantic factor.
type SimilarityProvider interface {
	Similarity(ctx context.Context, query string) (map[string]float64, error)
}

// Structural failures of the two external inputs. These are surfaced as
// errors, never as empty successes.
var (
	ErrSnapshot   = errors.New("record snapshot unavailable")
	ErrSimilarity = errors.New("similarity provider failed")
)

// DateFilter constrains record creation times. A single expression in On
// means "created at or after"; a Start/End pair is inclusive on both
// endpoints (an end date at day granularity covers that whole day).
// Either endpoint may be omitted for an open-ended range.
type DateFilter struct {
	On    string `json:"on,omitempty"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Sort keys.
const (
	SortRelevance = "relevance"
	SortCreated   = "created"
)

// Query is one recall invocation.
type Query struct {
	// Search is a single free-text query. Quality terms inside it combine
	// with OR semantics on the pure-quality path.
	Search string
	// SearchTerms is the array form; quality terms combine with AND
	// semantics on the pure-quality path. Takes precedence over Search.
	SearchTerms []string

	// RawQualityFilter is the structured quality filter as received from
	// the caller. Malformed entries degrade to "no constraint".
	RawQualityFilter map[string]any

	// Hard filters, AND-ed before scoring.
	Who           string
	Perspective   string
	Processing    string
	HasReflection *bool
	ReflectedBy   string

	Created *DateFilter

	Sort    string // relevance (default) or created
	GroupBy string // cluster key, empty for none
	Limit   int
	Offset  int
}

// terms returns the raw query terms and whether they arrived as an array.
func (q Query) terms() ([]string, bool) {
	if len(q.SearchTerms) > 0 {
		return q.SearchTerms, true
	}
	if q.Search == "" {
		return nil, false
	}
	return splitWords(q.Search), false
}

// ScoredExperience is a record with its relevance breakdown.
type ScoredExperience struct {
	model.Experience
	Score   float64         `json:"score"`
	Factors scoring.Factors `json:"factors"`
	Weights scoring.Weights `json:"weights"`
}

// AppliedFilters echoes the filters a result was computed under.
type AppliedFilters struct {
	Who           string         `json:"who,omitempty"`
	Perspective   string         `json:"perspective,omitempty"`
	Processing    string         `json:"processing,omitempty"`
	HasReflection *bool          `json:"has_reflection,omitempty"`
	ReflectedBy   string         `json:"reflected_by,omitempty"`
	Created       *DateFilter    `json:"created,omitempty"`
	Qualities     map[string]any `json:"qualities,omitempty"`
}

// Result is the outcome of one recall invocation. Total counts all matches
// before pagination; Clusters, when grouping was requested, summarize the
// full filtered set rather than the returned page.
type Result struct {
	Experiences []ScoredExperience `json:"experiences"`
	Clusters    []cluster.Cluster  `json:"clusters,omitempty"`
	Total       int                `json:"total"`
	Query       []string           `json:"query,omitempty"`
	Filters     AppliedFilters     `json:"filters"`
}
