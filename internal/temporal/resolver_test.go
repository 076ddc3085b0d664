package temporal

import (
	"errors"
	"testing"
	"time"
)

// Wednesday 2024-03-13 15:30 UTC.
var ref = time.Date(2024, time.March, 13, 15, 30, 0, 0, time.UTC)

func resolve(t *testing.T, expr string) Window {
	t.Helper()
	w, err := Resolve(expr, ref)
	if err != nil {
		t.Fatalf("Resolve(%q): %v", expr, err)
	}
	return w
}

func TestResolve_RelativeKeywords(t *testing.T) {
	day := time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		expr       string
		start, end time.Time
	}{
		{"today", day, day.AddDate(0, 0, 1)},
		{"yesterday", day.AddDate(0, 0, -1), day},
		{"tomorrow", day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)},
		// Weeks start Monday 00:00 UTC; 2024-03-11 was a Monday.
		{"this week", day.AddDate(0, 0, -2), day.AddDate(0, 0, 5)},
		{"last week", day.AddDate(0, 0, -9), day.AddDate(0, 0, -2)},
		{"this morning", day.Add(5 * time.Hour), day.Add(12 * time.Hour)},
		{"last night", day.Add(-2 * time.Hour), day.Add(5 * time.Hour)},
	}
	for _, tt := range tests {
		w := resolve(t, tt.expr)
		if w.Kind != Interval || !w.Start.Equal(tt.start) || !w.End.Equal(tt.end) {
			t.Errorf("%q: got [%v, %v), want [%v, %v)", tt.expr, w.Start, w.End, tt.start, tt.end)
		}
	}
}

func TestResolve_HalfOpenBoundaries(t *testing.T) {
	w := resolve(t, "today")
	if !w.Contains(w.Start) {
		t.Fatal("start instant must be included")
	}
	if w.Contains(w.End) {
		t.Fatal("end instant must be excluded")
	}
	if w.Contains(w.End.Add(-time.Nanosecond)) == false {
		t.Fatal("instant just before end must be included")
	}
}

func TestResolve_YearMonth(t *testing.T) {
	w := resolve(t, "2023-02")
	wantStart := time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC)
	if !w.Start.Equal(wantStart) || !w.End.Equal(wantStart.AddDate(0, 1, 0)) {
		t.Fatalf("2023-02: got [%v, %v)", w.Start, w.End)
	}

	// Invalid month is a rejection, not a fall-through to other rules.
	if _, err := Resolve("2099-13", ref); !errors.Is(err, ErrUnrecognized) {
		t.Fatalf("2099-13: expected ErrUnrecognized, got %v", err)
	}
}

func TestResolve_MonthDayRecurring(t *testing.T) {
	w := resolve(t, "July 4")
	if w.Kind != MonthDay {
		t.Fatalf("expected MonthDay, got kind %d", w.Kind)
	}
	if !w.Contains(time.Date(1999, time.July, 4, 8, 0, 0, 0, time.UTC)) {
		t.Fatal("should match July 4 in any year")
	}
	if !w.Contains(time.Date(2024, time.July, 4, 23, 59, 0, 0, time.UTC)) {
		t.Fatal("should match July 4 2024")
	}
	if w.Contains(time.Date(2024, time.July, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("should not match July 5")
	}

	if w := resolve(t, "dec 25th"); w.Month != time.December || w.Day != 25 {
		t.Fatalf("dec 25th: got %v %d", w.Month, w.Day)
	}
}

func TestResolve_ClockTime(t *testing.T) {
	tests := []struct {
		expr         string
		hour, minute int
	}{
		{"14:30", 14, 30},
		{"2:30pm", 14, 30},
		{"2:30 am", 2, 30},
		{"12:00am", 0, 0},
		{"12:15pm", 12, 15},
	}
	for _, tt := range tests {
		w := resolve(t, tt.expr)
		if w.Kind != Clock || w.Hour != tt.hour || w.Minute != tt.minute {
			t.Errorf("%q: got kind=%d %02d:%02d", tt.expr, w.Kind, w.Hour, w.Minute)
		}
	}

	w := resolve(t, "2:30pm")
	if !w.Contains(time.Date(2020, time.May, 1, 14, 30, 45, 0, time.UTC)) {
		t.Fatal("clock window matches any day at that minute")
	}
	if w.Contains(time.Date(2020, time.May, 1, 14, 31, 0, 0, time.UTC)) {
		t.Fatal("clock window is exact-minute")
	}
}

func TestResolve_HourBuckets(t *testing.T) {
	w := resolve(t, "night")
	if !w.Contains(time.Date(2024, time.January, 1, 23, 0, 0, 0, time.UTC)) {
		t.Fatal("23:00 is night")
	}
	if !w.Contains(time.Date(2024, time.January, 1, 3, 0, 0, 0, time.UTC)) {
		t.Fatal("03:00 is night (bucket wraps midnight)")
	}
	if w.Contains(time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatal("noon is not night")
	}

	m := resolve(t, "morning")
	if !m.Contains(time.Date(2024, time.January, 1, 5, 0, 0, 0, time.UTC)) ||
		m.Contains(time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatal("morning is [5, 12)")
	}
}

func TestResolve_BareYear(t *testing.T) {
	w := resolve(t, "2022")
	if !w.Start.Equal(time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("2022 start: %v", w.Start)
	}
	if !w.End.Equal(time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("2022 end: %v", w.End)
	}
}

func TestResolve_GeneralPhrase(t *testing.T) {
	// Date-only certainty produces a whole-day interval.
	w := resolve(t, "2023-06-15")
	if !w.Start.Equal(time.Date(2023, time.June, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date start: %v", w.Start)
	}
	if !w.End.Equal(w.Start.AddDate(0, 0, 1)) {
		t.Fatalf("date end: %v", w.End)
	}

	// Month-only certainty produces a whole-month interval.
	w = resolve(t, "June 2023")
	if !w.Start.Equal(time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)) ||
		!w.End.Equal(w.Start.AddDate(0, 1, 0)) {
		t.Fatalf("June 2023: got [%v, %v)", w.Start, w.End)
	}
}

func TestResolve_Unrecognized(t *testing.T) {
	for _, expr := range []string{"", "whenever", "the day I felt free", "??"} {
		if _, err := Resolve(expr, ref); !errors.Is(err, ErrUnrecognized) {
			t.Errorf("Resolve(%q): expected ErrUnrecognized, got %v", expr, err)
		}
	}
}
