package cluster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmfarland/recollect/internal/model"
)

func exp(t *testing.T, id, who string, created time.Time, entries map[model.Dimension]string) model.Experience {
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
	return model.Experience{ID: id, Experiencer: who, Created: created, Qualities: q}
}

var day = time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)

func TestBuild_None(t *testing.T) {
	records := []model.Experience{
		exp(t, "a", "Alice", day, nil),
		exp(t, "b", "Bob", day, nil),
	}
	clusters, err := Build(context.Background(), KeyNone, records, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 1 || clusters[0].Size != 2 {
		t.Fatalf("expected one cluster of 2, got %+v", clusters)
	}
	if clusters[0].Members[0] != "a" || clusters[0].Members[1] != "b" {
		t.Fatalf("member order not preserved: %v", clusters[0].Members)
	}
}

func TestBuild_Who(t *testing.T) {
	records := []model.Experience{
		exp(t, "a1", "Alice", day, nil),
		exp(t, "b1", "Bob", day, nil),
		exp(t, "a2", "Alice", day, nil),
		exp(t, "b2", "Bob", day, nil),
	}
	clusters, err := Build(context.Background(), KeyWho, records, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	// Equal sizes tie-break on label ascending.
	if clusters[0].ID != "Alice" || clusters[1].ID != "Bob" {
		t.Fatalf("cluster order: %s, %s", clusters[0].ID, clusters[1].ID)
	}
	for _, c := range clusters {
		if c.Size != 2 || len(c.Members) != 2 {
			t.Fatalf("cluster %s: %+v", c.ID, c)
		}
	}
	if clusters[0].Members[0] != "a1" || clusters[0].Members[1] != "a2" {
		t.Fatalf("Alice members: %v", clusters[0].Members)
	}
}

func TestBuild_DateChronological(t *testing.T) {
	records := []model.Experience{
		exp(t, "late", "x", day.AddDate(0, 0, 5), nil),
		exp(t, "early", "x", day, nil),
		exp(t, "late2", "x", day.AddDate(0, 0, 5).Add(2*time.Hour), nil),
	}
	clusters, err := Build(context.Background(), KeyDate, records, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 2 {
		t.Fatalf("expected 2 day clusters, got %d", len(clusters))
	}
	if clusters[0].ID != "2024-03-10" || clusters[1].ID != "2024-03-15" {
		t.Fatalf("date order: %s, %s", clusters[0].ID, clusters[1].ID)
	}
	if clusters[1].Size != 2 {
		t.Fatalf("same UTC day should share a cluster: %+v", clusters[1])
	}
}

func TestBuild_QualitySignature(t *testing.T) {
	moodOpen := map[model.Dimension]string{model.DimMood: "open"}
	records := []model.Experience{
		exp(t, "a", "x", day, moodOpen),
		exp(t, "b", "x", day, moodOpen),
		exp(t, "c", "x", day, map[model.Dimension]string{model.DimMood: "open", model.DimFocus: "narrow"}),
	}
	clusters, err := Build(context.Background(), KeyQualities, records, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 2 {
		t.Fatalf("expected 2 signature clusters, got %+v", clusters)
	}
	if clusters[0].ID != "mood.open" || clusters[0].Size != 2 {
		t.Fatalf("largest signature cluster: %+v", clusters[0])
	}
	if len(clusters[1].CommonQualities) != 2 {
		t.Fatalf("signature labels: %+v", clusters[1])
	}
}

type fakeGrouper struct {
	groups [][]string
	err    error
}

func (f fakeGrouper) GroupBySimilarity(context.Context, []model.Experience) ([][]string, error) {
	return f.groups, f.err
}

func TestBuild_Similarity(t *testing.T) {
	records := []model.Experience{
		exp(t, "a", "x", day, nil),
		exp(t, "b", "x", day, nil),
		exp(t, "c", "x", day, nil),
	}

	clusters, err := Build(context.Background(), KeySimilarity, records,
		fakeGrouper{groups: [][]string{{"a", "c"}, {"b"}}})
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 2 || clusters[0].Size != 2 || clusters[1].Size != 1 {
		t.Fatalf("similarity clusters: %+v", clusters)
	}

	if _, err := Build(context.Background(), KeySimilarity, records, nil); err == nil {
		t.Fatal("expected error without a grouper")
	}

	boom := errors.New("boom")
	if _, err := Build(context.Background(), KeySimilarity, records, fakeGrouper{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped grouper error, got %v", err)
	}
}

func TestBuild_CommonQualities(t *testing.T) {
	shared := map[model.Dimension]string{model.DimSpace: "here", model.DimMood: "open"}
	records := []model.Experience{
		exp(t, "a", "Alice", day, shared),
		exp(t, "b", "Alice", day, map[model.Dimension]string{model.DimSpace: "here"}),
	}
	clusters, err := Build(context.Background(), KeyWho, records, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if len(clusters[0].CommonQualities) != 1 || clusters[0].CommonQualities[0] != "space.here" {
		t.Fatalf("common qualities: %v", clusters[0].CommonQualities)
	}
}

func TestBuild_UnknownKey(t *testing.T) {
	if _, err := Build(context.Background(), "mood-ring", nil, nil); err == nil {
		t.Fatal("expected error for unknown key")
	}
}
