package recall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmfarland/recollect/internal/model"
)

var now = time.Date(2024, time.March, 13, 12, 0, 0, 0, time.UTC)

type fakeSnapshot struct {
	records []model.Experience
	err     error
}

func (f fakeSnapshot) Snapshot(context.Context) ([]model.Experience, error) {
	return f.records, f.err
}

type fakeSimilarity struct {
	scores map[string]float64
	err    error
}

func (f fakeSimilarity) Similarity(context.Context, string) (map[string]float64, error) {
	return f.scores, f.err
}

func exp(t *testing.T, id, source, who string, created time.Time, entries map[model.Dimension]string) model.Experience {
	t.Helper()
	var q model.QualityVector
	for d, s := range entries {
		if s == "" {
			q.Set(d, model.PresentValue())
			continue
		}
		v, err := model.SubtypeValue(d, s)
		if err != nil {
			t.Fatal(err)
		}
		q.Set(d, v)
	}
	return model.Experience{ID: id, Source: source, Experiencer: who, Created: created, Qualities: q}
}

func engine(records []model.Experience, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = func() time.Time { return now }
	}
	return New(fakeSnapshot{records: records}, opts)
}

func TestRecall_TextRelevanceRanking(t *testing.T) {
	records := []model.Experience{
		exp(t, "r2", "a completely different walk in the park", "", now.Add(-time.Hour),
			map[model.Dimension]string{model.DimMood: "open"}),
		exp(t, "r1", "spent the evening caught in anxiety and stress", "", now.Add(-time.Hour),
			map[model.Dimension]string{model.DimMood: "closed"}),
	}
	e := engine(records, Options{})

	res, err := e.Recall(context.Background(), Query{Search: "anxiety", Sort: SortRelevance})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Experiences) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res.Experiences))
	}
	top := res.Experiences[0]
	if top.ID != "r1" {
		t.Fatalf("expected r1 first, got %s", top.ID)
	}
	if top.Factors.Exact != 1.0 {
		t.Fatalf("exact factor = %f, want 1.0", top.Factors.Exact)
	}
	if top.Score <= 0.2 {
		t.Fatalf("score = %f, want > 0.2", top.Score)
	}
}

func TestRecall_WhoFilter(t *testing.T) {
	records := []model.Experience{
		exp(t, "a", "morning coffee on the porch", "Alice", now, nil),
		exp(t, "b", "morning run by the canal", "Bob", now, nil),
	}
	e := engine(records, Options{})

	res, err := e.Recall(context.Background(), Query{Who: "Alice"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Experiences) != 1 || res.Experiences[0].ID != "a" {
		t.Fatalf("who=Alice: got %+v", res.Experiences)
	}
	if res.Filters.Who != "Alice" {
		t.Fatalf("filters not echoed: %+v", res.Filters)
	}
}

func TestRecall_PureQualityQuery(t *testing.T) {
	records := []model.Experience{
		exp(t, "open", "felt the room soften", "", now, map[model.Dimension]string{model.DimMood: "open"}),
		exp(t, "closed", "felt the room soften", "", now, map[model.Dimension]string{model.DimMood: "closed"}),
		exp(t, "bare", "felt the room soften", "", now, map[model.Dimension]string{model.DimMood: ""}),
		exp(t, "none", "felt the room soften", "", now, nil),
	}
	sim := fakeSimilarity{err: errors.New("similarity must not be called for pure quality queries")}
	e := engine(records, Options{Similarity: sim})

	res, err := e.Recall(context.Background(), Query{Search: "mood.open"})
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]bool{}
	for _, r := range res.Experiences {
		got[r.ID] = true
	}
	// Exact subtype and bare-present match; the other subtype and absent
	// records are excluded even though the text is identical.
	if !got["open"] || !got["bare"] || got["closed"] || got["none"] {
		t.Fatalf("mood.open matches: %v", got)
	}
}

func TestRecall_PureQualityArrayIsAnd(t *testing.T) {
	records := []model.Experience{
		exp(t, "both", "", "", now, map[model.Dimension]string{model.DimMood: "open", model.DimFocus: "narrow"}),
		exp(t, "one", "", "", now, map[model.Dimension]string{model.DimMood: "open"}),
	}
	e := engine(records, Options{})

	res, err := e.Recall(context.Background(), Query{SearchTerms: []string{"mood.open", "focus.narrow"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Experiences) != 1 || res.Experiences[0].ID != "both" {
		t.Fatalf("array form should AND terms: %+v", res.Experiences)
	}

	// Single-string form ORs the same terms.
	res, err = e.Recall(context.Background(), Query{Search: "mood.open focus.narrow"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Experiences) != 2 {
		t.Fatalf("string form should OR terms: %+v", res.Experiences)
	}
}

func TestRecall_SameDayInclusiveRange(t *testing.T) {
	d := time.Date(2024, time.February, 10, 16, 45, 0, 0, time.UTC)
	records := []model.Experience{
		exp(t, "onday", "the harbor at dusk", "", d, nil),
		exp(t, "before", "x", "", d.AddDate(0, 0, -1), nil),
		exp(t, "after", "x", "", d.AddDate(0, 0, 1), nil),
	}
	e := engine(records, Options{})

	res, err := e.Recall(context.Background(), Query{
		Created: &DateFilter{Start: "2024-02-10", End: "2024-02-10"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Experiences) != 1 || res.Experiences[0].ID != "onday" {
		t.Fatalf("same-day range: got %+v", res.Experiences)
	}
}

func TestRecall_OpenEndedRanges(t *testing.T) {
	records := []model.Experience{
		exp(t, "old", "x", "", time.Date(2024, time.January, 5, 9, 0, 0, 0, time.UTC), nil),
		exp(t, "mid", "x", "", time.Date(2024, time.February, 5, 9, 0, 0, 0, time.UTC), nil),
		exp(t, "new", "x", "", time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC), nil),
	}
	e := engine(records, Options{})

	// Start only: created at or after, like the single-string form.
	res, err := e.Recall(context.Background(), Query{Created: &DateFilter{Start: "2024-02-01"}})
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]bool{}
	for _, r := range res.Experiences {
		got[r.ID] = true
	}
	if len(got) != 2 || !got["mid"] || !got["new"] {
		t.Fatalf("start-only range: %v", got)
	}

	// End only: created through the end of that day.
	res, err = e.Recall(context.Background(), Query{Created: &DateFilter{End: "2024-02-05"}})
	if err != nil {
		t.Fatal(err)
	}
	got = map[string]bool{}
	for _, r := range res.Experiences {
		got[r.ID] = true
	}
	if len(got) != 2 || !got["old"] || !got["mid"] {
		t.Fatalf("end-only range: %v", got)
	}
}

func TestRecall_ConfiguredDefaultLimit(t *testing.T) {
	var records []model.Experience
	for i := 0; i < 5; i++ {
		records = append(records, exp(t, string(rune('a'+i)), "x", "", now, nil))
	}
	e := engine(records, Options{DefaultLimit: 2})

	res, err := e.Recall(context.Background(), Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Experiences) != 2 || res.Total != 5 {
		t.Fatalf("configured default page size: got %d of %d", len(res.Experiences), res.Total)
	}

	// An explicit limit still wins.
	res, err = e.Recall(context.Background(), Query{Limit: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Experiences) != 4 {
		t.Fatalf("explicit limit: got %d", len(res.Experiences))
	}
}

func TestRecall_SingleDateMeansAtOrAfter(t *testing.T) {
	records := []model.Experience{
		exp(t, "old", "x", "", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), nil),
		exp(t, "new", "x", "", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), nil),
	}
	e := engine(records, Options{})

	res, err := e.Recall(context.Background(), Query{Created: &DateFilter{On: "2024-02-01"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Experiences) != 1 || res.Experiences[0].ID != "new" {
		t.Fatalf("at-or-after: got %+v", res.Experiences)
	}
}

func TestRecall_UnresolvableDateYieldsEmptySuccess(t *testing.T) {
	records := []model.Experience{exp(t, "a", "x", "", now, nil)}
	e := engine(records, Options{})

	for _, df := range []*DateFilter{
		{On: "2099-13"},
		{On: "whenever the mood struck"},
		{Start: "not a date", End: "2024-02-10"},
	} {
		res, err := e.Recall(context.Background(), Query{Created: df})
		if err != nil {
			t.Fatalf("%+v: unresolvable dates are not errors: %v", df, err)
		}
		if len(res.Experiences) != 0 || res.Total != 0 {
			t.Fatalf("%+v: expected empty result, got %+v", df, res.Experiences)
		}
	}
}

func TestRecall_MalformedQualityFilterDegrades(t *testing.T) {
	records := []model.Experience{
		exp(t, "a", "x", "", now, map[model.Dimension]string{model.DimMood: "open"}),
		exp(t, "b", "x", "", now, nil),
	}
	e := engine(records, Options{})

	res, err := e.Recall(context.Background(), Query{
		RawQualityFilter: map[string]any{"mood": 42.0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Experiences) != 2 {
		t.Fatalf("malformed filter should be unconstrained, got %d results", len(res.Experiences))
	}
}

func TestRecall_GroupByWho(t *testing.T) {
	records := []model.Experience{
		exp(t, "a1", "x", "Alice", now, nil),
		exp(t, "b1", "x", "Bob", now, nil),
		exp(t, "a2", "x", "Alice", now, nil),
		exp(t, "b2", "x", "Bob", now, nil),
	}
	e := engine(records, Options{})

	res, err := e.Recall(context.Background(), Query{GroupBy: "who"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(res.Clusters))
	}
	for _, c := range res.Clusters {
		if c.Size != 2 {
			t.Fatalf("cluster %s size %d, want 2", c.ID, c.Size)
		}
	}
}

func TestRecall_ClustersCoverFullFilteredSet(t *testing.T) {
	var records []model.Experience
	for _, id := range []string{"a", "b", "c", "d"} {
		records = append(records, exp(t, id, "x", "Alice", now, nil))
	}
	e := engine(records, Options{})

	res, err := e.Recall(context.Background(), Query{GroupBy: "who", Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Experiences) != 2 {
		t.Fatalf("page size: got %d", len(res.Experiences))
	}
	if res.Total != 4 {
		t.Fatalf("total: got %d", res.Total)
	}
	// Clustering summarizes all matches, not only the returned page.
	if len(res.Clusters) != 1 || res.Clusters[0].Size != 4 {
		t.Fatalf("clusters: %+v", res.Clusters)
	}
}

func TestRecall_Pagination(t *testing.T) {
	var records []model.Experience
	for i := 0; i < 5; i++ {
		records = append(records, exp(t, string(rune('a'+i)), "x", "", now.Add(time.Duration(-i)*time.Hour), nil))
	}
	e := engine(records, Options{})

	res, err := e.Recall(context.Background(), Query{Sort: SortCreated, Limit: 2, Offset: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Experiences) != 2 {
		t.Fatalf("expected 2, got %d", len(res.Experiences))
	}
	// created sort is descending; offset 2 skips the two newest.
	if res.Experiences[0].ID != "c" || res.Experiences[1].ID != "d" {
		t.Fatalf("page: %s, %s", res.Experiences[0].ID, res.Experiences[1].ID)
	}
	if res.Total != 5 {
		t.Fatalf("total: got %d", res.Total)
	}

	res, err = e.Recall(context.Background(), Query{Offset: 99})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Experiences) != 0 || res.Total != 5 {
		t.Fatalf("offset past end: %+v", res)
	}
}

func TestRecall_SemanticScores(t *testing.T) {
	records := []model.Experience{
		exp(t, "near", "the sea from the cliff path", "", now, nil),
		exp(t, "far", "a crowded subway platform", "", now, nil),
	}
	e := engine(records, Options{
		Similarity: fakeSimilarity{scores: map[string]float64{"near": 0.9}},
	})

	res, err := e.Recall(context.Background(), Query{Search: "ocean"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Experiences[0].ID != "near" {
		t.Fatalf("expected semantic ranking, got %s first", res.Experiences[0].ID)
	}
	if res.Experiences[1].Factors.Semantic != 0 {
		t.Fatalf("missing similarity entry should score 0, got %f", res.Experiences[1].Factors.Semantic)
	}
}

func TestRecall_ProviderFailures(t *testing.T) {
	boom := errors.New("boom")

	e := New(fakeSnapshot{err: boom}, Options{Now: func() time.Time { return now }})
	if _, err := e.Recall(context.Background(), Query{}); !errors.Is(err, ErrSnapshot) {
		t.Fatalf("expected ErrSnapshot, got %v", err)
	}

	e = engine([]model.Experience{exp(t, "a", "x", "", now, nil)}, Options{
		Similarity: fakeSimilarity{err: boom},
	})
	if _, err := e.Recall(context.Background(), Query{Search: "ocean"}); !errors.Is(err, ErrSimilarity) {
		t.Fatalf("expected ErrSimilarity, got %v", err)
	}
}

func TestRecall_ReflectionFilters(t *testing.T) {
	reflection := exp(t, "refl", "looking back on that morning", "", now, nil)
	reflection.Reflects = []string{"orig"}
	records := []model.Experience{
		exp(t, "orig", "the morning itself", "", now.AddDate(0, 0, -1), nil),
		exp(t, "other", "an unrelated evening", "", now, nil),
		reflection,
	}
	e := engine(records, Options{})

	yes := true
	res, err := e.Recall(context.Background(), Query{HasReflection: &yes})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Experiences) != 1 || res.Experiences[0].ID != "orig" {
		t.Fatalf("has-reflection: %+v", res.Experiences)
	}

	res, err = e.Recall(context.Background(), Query{ReflectedBy: "refl"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Experiences) != 1 || res.Experiences[0].ID != "orig" {
		t.Fatalf("reflected-by: %+v", res.Experiences)
	}
}
