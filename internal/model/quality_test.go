package model

import (
	"encoding/json"
	"testing"
)

func TestQualityVector_JSON(t *testing.T) {
	q := QualityVector{}
	q.Set(DimMood, mustSubtype(t, DimMood, "open"))
	q.Set(DimEmbodied, PresentValue())

	b, err := json.Marshal(q)
	if err != nil {
		t.Fatal(err)
	}

	var back QualityVector
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back.Mood.Kind != WithSubtype || back.Mood.Subtype != "open" {
		t.Fatalf("mood round trip: got %+v", back.Mood)
	}
	if back.Embodied.Kind != Present {
		t.Fatalf("embodied round trip: got %+v", back.Embodied)
	}
	if back.Focus.IsPresent() {
		t.Fatal("focus should be absent")
	}
}

func TestQualityVector_ValidateRejectsUnknownSubtype(t *testing.T) {
	var q QualityVector
	if err := json.Unmarshal([]byte(`{"mood":"elated"}`), &q); err != nil {
		t.Fatal(err)
	}
	if err := q.Validate(); err == nil {
		t.Fatal("expected validation error for mood=elated")
	}
}

func TestSubtypeValue_Invalid(t *testing.T) {
	if _, err := SubtypeValue(DimEmbodied, "open"); err == nil {
		t.Fatal("expected error: open is not an embodied subtype")
	}
	if _, err := SubtypeValue("weather", "thinking"); err == nil {
		t.Fatal("expected error for unknown dimension")
	}
}

func TestQualityVector_LabelsAndSignature(t *testing.T) {
	var q QualityVector
	q.Set(DimMood, mustSubtype(t, DimMood, "closed"))
	q.Set(DimFocus, PresentValue())

	labels := q.Labels()
	if len(labels) != 2 {
		t.Fatalf("expected 2 labels, got %v", labels)
	}
	if labels[0] != "focus" || labels[1] != "mood.closed" {
		t.Fatalf("unexpected labels %v", labels)
	}

	if q.PresentCount() != 2 {
		t.Fatalf("expected 2 present, got %d", q.PresentCount())
	}

	if (QualityVector{}).Signature() != "(none)" {
		t.Fatal("empty vector signature should be (none)")
	}
	if q.Signature() != "focus,mood.closed" {
		t.Fatalf("signature: got %q", q.Signature())
	}
}

func TestQualityVectorFromMap(t *testing.T) {
	q, err := QualityVectorFromMap(map[string]any{
		"embodied": "sensing",
		"space":    true,
		"time":     false,
	})
	if err != nil {
		t.Fatal(err)
	}
	if q.Embodied.Subtype != "sensing" {
		t.Fatalf("embodied: got %+v", q.Embodied)
	}
	if !q.Space.IsPresent() || q.Time.IsPresent() {
		t.Fatalf("space/time: got %+v / %+v", q.Space, q.Time)
	}

	if _, err := QualityVectorFromMap(map[string]any{"mood": "upbeat"}); err == nil {
		t.Fatal("expected error for invalid subtype")
	}
	if _, err := QualityVectorFromMap(map[string]any{"vibe": true}); err == nil {
		t.Fatal("expected error for unknown dimension")
	}
}

func mustSubtype(t *testing.T, d Dimension, s string) QualityValue {
	t.Helper()
	v, err := SubtypeValue(d, s)
	if err != nil {
		t.Fatal(err)
	}
	return v
}
