package quality

import (
	"strings"

	"github.com/dmfarland/recollect/internal/model"
)

// Term is a recognized quality query term: a bare dimension ("mood") or a
// dimension.subtype pair ("mood.open").
type Term struct {
	Dim     model.Dimension
	Subtype string // empty for a bare dimension term
}

// ParseTerm recognizes s as a quality term. It returns false for anything
// that is not a dimension name or a legal dimension.subtype pair.
func ParseTerm(s string) (Term, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if model.IsDimension(s) {
		return Term{Dim: model.Dimension(s)}, true
	}
	dim, sub, ok := strings.Cut(s, ".")
	if !ok {
		return Term{}, false
	}
	d := model.Dimension(dim)
	if !model.IsSubtype(d, sub) {
		return Term{}, false
	}
	return Term{Dim: d, Subtype: sub}, true
}

// IsQualityTerm reports whether s is a recognized quality name or subtype.
func IsQualityTerm(s string) bool {
	_, ok := ParseTerm(s)
	return ok
}

// AllQualityTerms reports whether every term is a recognized quality term.
// A query consisting only of such terms is treated as filter-only.
func AllQualityTerms(terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	for _, t := range terms {
		if !IsQualityTerm(t) {
			return false
		}
	}
	return true
}

// MatchScore grades a quality term against a record's vector:
// 1.0 for an exact label match, 0.5 for a base-dimension partial match
// (bare term against a subtype value, or subtype term against a bare
// present value), 0 otherwise. Distinct subtypes of the same dimension do
// not match each other.
func MatchScore(t Term, q model.QualityVector) float64 {
	v := q.Get(t.Dim)
	if !v.IsPresent() {
		return 0
	}
	if t.Subtype == "" {
		if v.Kind == model.Present {
			return 1.0
		}
		return 0.5
	}
	if v.Kind == model.WithSubtype {
		if v.Subtype == t.Subtype {
			return 1.0
		}
		return 0
	}
	return 0.5
}

// TermMatches applies filter semantics for the legacy pure-quality query
// path: exact and base-name partial matches both count.
func TermMatches(t Term, q model.QualityVector) bool {
	return MatchScore(t, q) > 0
}

// MatchesAny is the OR across terms used for single-value pure-quality
// queries.
func MatchesAny(terms []Term, q model.QualityVector) bool {
	for _, t := range terms {
		if TermMatches(t, q) {
			return true
		}
	}
	return false
}

// MatchesAll is the AND across terms used when the caller supplies the
// required qualities as an array.
func MatchesAll(terms []Term, q model.QualityVector) bool {
	for _, t := range terms {
		if !TermMatches(t, q) {
			return false
		}
	}
	return true
}
