// Package temporal resolves date/time expressions into matchable windows.
//
// Expressions resolve, in precedence order, to: relative-keyword intervals,
// partial ISO year-months, recurring month/day dates, exact clock times,
// hour-of-day buckets, general date phrases (delegated to
// github.com/araddon/dateparse), or bare years. Interval windows are
// half-open [start, end); recurring and clock windows match against every
// record regardless of calendar date. All computation is in UTC.
package temporal

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrUnrecognized signals that no rule matched the expression. Callers must
// treat it as "match nothing", not as an unfiltered search.
var ErrUnrecognized = errors.New("unrecognized time expression")

// Kind discriminates how a window matches timestamps.
type Kind int

const (
	// Interval matches timestamps in the half-open range [Start, End).
	Interval Kind = iota
	// MonthDay matches a month/day combination in any year.
	MonthDay
	// Clock matches an exact hour and minute in any day.
	Clock
	// HourBucket matches an hour-of-day range in any day; the range wraps
	// midnight when FromHour > ToHour.
	HourBucket
)

// Window is the resolved form of a temporal expression.
type Window struct {
	Kind  Kind
	Start time.Time
	End   time.Time

	Month time.Month
	Day   int

	Hour   int
	Minute int

	FromHour int
	ToHour   int
}

// Contains reports whether the window matches the given instant.
func (w Window) Contains(t time.Time) bool {
	t = t.UTC()
	switch w.Kind {
	case MonthDay:
		return t.Month() == w.Month && t.Day() == w.Day
	case Clock:
		return t.Hour() == w.Hour && t.Minute() == w.Minute
	case HourBucket:
		h := t.Hour()
		if w.FromHour <= w.ToHour {
			return h >= w.FromHour && h < w.ToHour
		}
		return h >= w.FromHour || h < w.ToHour
	default:
		if !w.Start.IsZero() && t.Before(w.Start) {
			return false
		}
		if !w.End.IsZero() && !t.Before(w.End) {
			return false
		}
		return true
	}
}

func interval(start, end time.Time) Window {
	return Window{Kind: Interval, Start: start, End: end}
}

var (
	yearMonthRe = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)
	monthDayRe  = regexp.MustCompile(`^([A-Za-z]+)\s+(\d{1,2})(?:st|nd|rd|th)?$`)
	clockRe     = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*([ap]m)?$`)
	monthYearRe = regexp.MustCompile(`^([A-Za-z]+)\s+(\d{4})$`)
	yearRe      = regexp.MustCompile(`^\d{4}$`)
)

var monthsByName = func() map[string]time.Month {
	m := make(map[string]time.Month, 24)
	for i := time.January; i <= time.December; i++ {
		m[strings.ToLower(i.String())] = i
		m[strings.ToLower(i.String()[:3])] = i
	}
	return m
}()

var hourBuckets = map[string][2]int{
	"morning":   {5, 12},
	"afternoon": {12, 17},
	"evening":   {17, 22},
	"night":     {22, 5},
}

// Resolve turns a date/time expression into a Window computed against the
// reference instant. It returns ErrUnrecognized when no rule matches.
func Resolve(expr string, ref time.Time) (Window, error) {
	expr = strings.ToLower(strings.TrimSpace(expr))
	if expr == "" {
		return Window{}, ErrUnrecognized
	}
	ref = ref.UTC()
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)

	// 1. Exact relative keywords.
	switch expr {
	case "today":
		return interval(day, day.AddDate(0, 0, 1)), nil
	case "yesterday":
		return interval(day.AddDate(0, 0, -1), day), nil
	case "tomorrow":
		return interval(day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)), nil
	case "this week":
		ws := weekStart(day)
		return interval(ws, ws.AddDate(0, 0, 7)), nil
	case "last week":
		ws := weekStart(day)
		return interval(ws.AddDate(0, 0, -7), ws), nil
	case "this morning":
		return interval(day.Add(5*time.Hour), day.Add(12*time.Hour)), nil
	case "last night":
		return interval(day.Add(-2*time.Hour), day.Add(5*time.Hour)), nil
	}

	// 2. Partial ISO year-month. A structurally matching expression with an
	// invalid month is a rejection, not a fall-through.
	if m := yearMonthRe.FindStringSubmatch(expr); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return Window{}, fmt.Errorf("%w: month out of range in %q", ErrUnrecognized, expr)
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return interval(start, start.AddDate(0, 1, 0)), nil
	}

	// 3. Year-less month and day: a recurring date across all years.
	if m := monthDayRe.FindStringSubmatch(expr); m != nil {
		if month, ok := monthsByName[m[1]]; ok {
			d, _ := strconv.Atoi(m[2])
			if d >= 1 && d <= 31 {
				return Window{Kind: MonthDay, Month: month, Day: d}, nil
			}
		}
	}

	// 4. Explicit clock time: exact hour/minute match.
	if m := clockRe.FindStringSubmatch(expr); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		switch m[3] {
		case "am":
			if hour == 12 {
				hour = 0
			}
		case "pm":
			if hour < 12 {
				hour += 12
			}
		}
		if hour <= 23 && minute <= 59 {
			return Window{Kind: Clock, Hour: hour, Minute: minute}, nil
		}
	}

	// 5. Fuzzy time-of-day bucket.
	if b, ok := hourBuckets[expr]; ok {
		return Window{Kind: HourBucket, FromHour: b[0], ToHour: b[1]}, nil
	}

	// 7 first: a bare four-digit year resolves identically through the
	// general parser but is ambiguous to it, so handle it before delegating.
	if yearRe.MatchString(expr) {
		year, _ := strconv.Atoi(expr)
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return interval(start, start.AddDate(1, 0, 0)), nil
	}

	// 6. General natural-language date parse.
	if w, ok := parsePhrase(expr); ok {
		return w, nil
	}

	return Window{}, fmt.Errorf("%w: %q", ErrUnrecognized, expr)
}

// parsePhrase delegates to dateparse and sizes the interval by the
// certainty of the detected layout: month-only, date-only, or timestamp.
func parsePhrase(expr string) (Window, bool) {
	// Month-year phrases ("june 2023") carry month-only certainty and are
	// ambiguous to the general parser, so resolve them directly.
	if m := monthYearRe.FindStringSubmatch(expr); m != nil {
		if month, ok := monthsByName[m[1]]; ok {
			year, _ := strconv.Atoi(m[2])
			start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
			return interval(start, start.AddDate(0, 1, 0)), true
		}
	}

	layout, err := dateparse.ParseFormat(expr)
	if err != nil {
		return Window{}, false
	}
	t, err := dateparse.ParseIn(expr, time.UTC)
	if err != nil {
		return Window{}, false
	}
	t = t.UTC()

	hasTime := strings.Contains(layout, "15") || strings.Contains(layout, "3:04")
	// Strip year and time tokens before probing for a day-of-month token.
	datePart := strings.ReplaceAll(layout, "2006", "")
	datePart = strings.ReplaceAll(datePart, "15", "")
	datePart = strings.ReplaceAll(datePart, "04", "")
	datePart = strings.ReplaceAll(datePart, "05", "")
	hasDay := strings.Contains(datePart, "2")

	switch {
	case hasTime:
		start := t.Truncate(time.Minute)
		if strings.Contains(layout, ":05") {
			return interval(t.Truncate(time.Second), t.Truncate(time.Second).Add(time.Second)), true
		}
		return interval(start, start.Add(time.Minute)), true
	case hasDay:
		start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return interval(start, start.AddDate(0, 0, 1)), true
	default:
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return interval(start, start.AddDate(0, 1, 0)), true
	}
}

// weekStart returns the Monday 00:00 UTC at or before day.
func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
