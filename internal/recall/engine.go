package recall

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmfarland/recollect/internal/cluster"
	"github.com/dmfarland/recollect/internal/model"
	"github.com/dmfarland/recollect/internal/quality"
	"github.com/dmfarland/recollect/internal/scoring"
	"github.com/dmfarland/recollect/internal/temporal"
)

// DefaultLimit bounds the page size when the caller supplies none.
const DefaultLimit = 20

// Options configures optional engine collaborators.
type Options struct {
	// Similarity supplies semantic scores; nil disables the factor.
	Similarity SimilarityProvider
	// Grouper backs group_by=similarity; nil disables that key.
	Grouper cluster.SimilarityGrouper
	// HalfLifeDays overrides the recency half-life; 0 uses the default.
	HalfLifeDays float64
	// DefaultLimit overrides the page size used when a query supplies
	// none; 0 uses DefaultLimit.
	DefaultLimit int
	// Diagnostics receives non-fatal anomalies; nil discards them.
	Diagnostics Diagnostics
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Engine is the recall orchestrator. One invocation is a pure synchronous
// computation over the snapshot and similarity map it is handed; the engine
// holds no locks and performs no I/O beyond its two providers.
type Engine struct {
	snapshot     SnapshotProvider
	similarity   SimilarityProvider
	grouper      cluster.SimilarityGrouper
	scorer       *scoring.Scorer
	diag         Diagnostics
	now          func() time.Time
	defaultLimit int
}

// New creates an engine over the given snapshot provider.
func New(snapshot SnapshotProvider, opts Options) *Engine {
	diag := opts.Diagnostics
	if diag == nil {
		diag = NopDiagnostics()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	defaultLimit := opts.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	return &Engine{
		snapshot:     snapshot,
		similarity:   opts.Similarity,
		grouper:      opts.Grouper,
		scorer:       scoring.NewScorer(opts.HalfLifeDays),
		diag:         diag,
		now:          now,
		defaultLimit: defaultLimit,
	}
}

// Recall runs the pipeline: hard filters, temporal filter, quality filter,
// score, sort, paginate, and optionally cluster. An unresolvable temporal
// expression yields an empty result; provider failures yield ErrSnapshot or
// ErrSimilarity. The call is all-or-nothing under the caller's context.
func (e *Engine) Recall(ctx context.Context, q Query) (*Result, error) {
	records, err := e.snapshot.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshot, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := e.now().UTC()
	echo := e.echoFilters(q)
	terms, arrayForm := q.terms()

	records = e.applyHardFilters(records, q)

	records, ok := e.applyTemporalFilter(records, q.Created, now)
	if !ok {
		return &Result{Experiences: []ScoredExperience{}, Total: 0, Query: terms, Filters: echo}, nil
	}

	records = e.applyQualityFilter(records, q.RawQualityFilter)

	// Legacy pure-quality path: a query made entirely of quality terms is
	// filter-only. OR across terms for a single string query, AND for the
	// array form.
	pureQuality := quality.AllQualityTerms(terms)
	if pureQuality {
		records = filterByQualityTerms(records, terms, arrayForm)
	}

	var simByID map[string]float64
	if e.similarity != nil && len(terms) > 0 && !pureQuality {
		simByID, err = e.similarity.Similarity(ctx, strings.Join(terms, " "))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSimilarity, err)
		}
	}

	sq := scoring.SplitQuery(terms)
	scored := make([]ScoredExperience, 0, len(records))
	for _, rec := range records {
		r := e.scorer.Score(rec, sq, simByID[rec.ID], now)
		scored = append(scored, ScoredExperience{
			Experience: rec,
			Score:      r.Score,
			Factors:    r.Factors,
			Weights:    r.Weights,
		})
	}

	sortScored(scored, q.Sort)

	total := len(scored)
	page := paginate(scored, q.Offset, q.Limit, e.defaultLimit)

	result := &Result{
		Experiences: page,
		Total:       total,
		Query:       terms,
		Filters:     echo,
	}

	if q.GroupBy != "" && q.GroupBy != cluster.KeyNone {
		// Clusters summarize the full filtered set, not only the page.
		full := make([]model.Experience, len(scored))
		for i, s := range scored {
			full[i] = s.Experience
		}
		clusters, err := cluster.Build(ctx, q.GroupBy, full, e.grouper)
		if err != nil {
			return nil, fmt.Errorf("group by %s: %w", q.GroupBy, err)
		}
		result.Clusters = clusters
	}

	return result, nil
}

func (e *Engine) applyHardFilters(records []model.Experience, q Query) []model.Experience {
	var reflected map[string]bool
	if q.HasReflection != nil {
		reflected = make(map[string]bool)
		for _, rec := range records {
			for _, id := range rec.Reflects {
				reflected[id] = true
			}
		}
	}
	var reflectsOf map[string]bool
	if q.ReflectedBy != "" {
		reflectsOf = make(map[string]bool)
		for _, rec := range records {
			if rec.ID == q.ReflectedBy {
				for _, id := range rec.Reflects {
					reflectsOf[id] = true
				}
			}
		}
	}

	out := records[:0:0]
	for _, rec := range records {
		if q.Who != "" && rec.Experiencer != q.Who {
			continue
		}
		if q.Perspective != "" && rec.Perspective != q.Perspective {
			continue
		}
		if q.Processing != "" && rec.Processing != q.Processing {
			continue
		}
		if q.HasReflection != nil && reflected[rec.ID] != *q.HasReflection {
			continue
		}
		if q.ReflectedBy != "" && !reflectsOf[rec.ID] {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// applyTemporalFilter returns ok=false when the expression is unresolvable,
// which the pipeline turns into an empty result rather than an unfiltered
// search.
func (e *Engine) applyTemporalFilter(records []model.Experience, df *DateFilter, now time.Time) ([]model.Experience, bool) {
	if df == nil || (df.On == "" && df.Start == "" && df.End == "") {
		return records, true
	}

	keep := func(t time.Time) bool { return true }

	if df.Start != "" || df.End != "" {
		// Either endpoint may be omitted for an open-ended range: a bare
		// start means created at or after it, a bare end means created
		// through the end of that day.
		afterStart := func(time.Time) bool { return true }
		beforeEnd := func(time.Time) bool { return true }
		if df.Start != "" {
			start, err := temporal.Resolve(df.Start, now)
			if err != nil || start.Kind != temporal.Interval {
				e.diag.Warnf("temporal range start %q rejected: %v", df.Start, err)
				return nil, false
			}
			afterStart = func(t time.Time) bool { return !t.Before(start.Start) }
		}
		if df.End != "" {
			end, err := temporal.Resolve(df.End, now)
			if err != nil || end.Kind != temporal.Interval {
				e.diag.Warnf("temporal range end %q rejected: %v", df.End, err)
				return nil, false
			}
			// Inclusive: the end window's own End already covers the
			// full end day.
			beforeEnd = func(t time.Time) bool { return t.Before(end.End) }
		}
		keep = func(t time.Time) bool { return afterStart(t) && beforeEnd(t) }
	} else {
		w, err := temporal.Resolve(df.On, now)
		if err != nil {
			e.diag.Warnf("temporal expression %q rejected: %v", df.On, err)
			return nil, false
		}
		if w.Kind == temporal.Interval {
			// A single date expression means created at or after.
			keep = func(t time.Time) bool { return !t.Before(w.Start) }
		} else {
			keep = w.Contains
		}
	}

	out := records[:0:0]
	for _, rec := range records {
		if keep(rec.Created.UTC()) {
			out = append(out, rec)
		}
	}
	return out, true
}

func (e *Engine) applyQualityFilter(records []model.Experience, raw map[string]any) []model.Experience {
	if len(raw) == 0 {
		return records
	}
	f, warnings := quality.ParseFilter(raw)
	for _, w := range warnings {
		e.diag.Warnf("quality filter: %s", w)
	}
	if f == nil {
		return records
	}
	out := records[:0:0]
	for _, rec := range records {
		if f.Matches(rec.Qualities) {
			out = append(out, rec)
		}
	}
	return out
}

func filterByQualityTerms(records []model.Experience, raw []string, arrayForm bool) []model.Experience {
	terms := make([]quality.Term, 0, len(raw))
	for _, r := range raw {
		if t, ok := quality.ParseTerm(r); ok {
			terms = append(terms, t)
		}
	}
	out := records[:0:0]
	for _, rec := range records {
		match := quality.MatchesAny(terms, rec.Qualities)
		if arrayForm {
			match = quality.MatchesAll(terms, rec.Qualities)
		}
		if match {
			out = append(out, rec)
		}
	}
	return out
}

func sortScored(scored []ScoredExperience, key string) {
	switch key {
	case SortCreated:
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].Created.After(scored[j].Created)
		})
	default:
		sort.SliceStable(scored, func(i, j int) bool {
			if scored[i].Score != scored[j].Score {
				return scored[i].Score > scored[j].Score
			}
			if !scored[i].Created.Equal(scored[j].Created) {
				return scored[i].Created.After(scored[j].Created)
			}
			return scored[i].ID < scored[j].ID
		})
	}
}

func paginate(scored []ScoredExperience, offset, limit, defaultLimit int) []ScoredExperience {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(scored) {
		return []ScoredExperience{}
	}
	end := offset + limit
	if end > len(scored) {
		end = len(scored)
	}
	return scored[offset:end]
}

func (e *Engine) echoFilters(q Query) AppliedFilters {
	return AppliedFilters{
		Who:           q.Who,
		Perspective:   q.Perspective,
		Processing:    q.Processing,
		HasReflection: q.HasReflection,
		ReflectedBy:   q.ReflectedBy,
		Created:       q.Created,
		Qualities:     q.RawQualityFilter,
	}
}

func splitWords(s string) []string {
	return strings.Fields(s)
}
