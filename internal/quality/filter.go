// Package quality evaluates structured quality filters and quality query
// terms against experience records.
//
// Filter evaluation is advisory: malformed input for a dimension degrades
// to "no constraint" and is reported as a warning, never as an error.
package quality

import (
	"fmt"

	"github.com/dmfarland/recollect/internal/model"
)

// Predicate constrains a single dimension. Exactly one field is set.
type Predicate struct {
	// Present, when non-nil, tests presence (true) or absence (false).
	Present *bool
	// Exact, when non-empty, tests for an exact subtype; a value equal to
	// the dimension's own base name matches any present value.
	Exact string
	// AnyOf, when non-empty, matches if any element matches under the
	// Exact rule.
	AnyOf []string
}

// Filter is an AND of per-dimension predicates. Dimensions not mentioned
// are unconstrained.
type Filter map[model.Dimension]Predicate

// ParseFilter builds a Filter from a loosely typed map, as arrives from
// JSON tool arguments. Per-dimension shapes:
//
//	{"present": bool}   presence/absence test
//	bool                shorthand for the presence test
//	"subtype"           exact-subtype test
//	["a", "b"]          OR-set test
//
// Anything it cannot interpret is dropped from the filter and reported in
// the returned warnings.
func ParseFilter(raw map[string]any) (Filter, []string) {
	if len(raw) == 0 {
		return nil, nil
	}
	f := make(Filter, len(raw))
	var warnings []string

	for k, v := range raw {
		d := model.Dimension(k)
		if !model.IsDimension(k) {
			warnings = append(warnings, fmt.Sprintf("unknown dimension %q ignored", k))
			continue
		}
		switch t := v.(type) {
		case bool:
			b := t
			f[d] = Predicate{Present: &b}
		case string:
			f[d] = Predicate{Exact: t}
		case []any:
			var set []string
			for _, e := range t {
				s, ok := e.(string)
				if !ok {
					warnings = append(warnings, fmt.Sprintf("dimension %q: non-string OR-set element ignored", k))
					continue
				}
				set = append(set, s)
			}
			if len(set) == 0 {
				warnings = append(warnings, fmt.Sprintf("dimension %q: empty OR-set treated as unconstrained", k))
				continue
			}
			f[d] = Predicate{AnyOf: set}
		case map[string]any:
			b, ok := t["present"].(bool)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("dimension %q: malformed presence test treated as unconstrained", k))
				continue
			}
			f[d] = Predicate{Present: &b}
		default:
			warnings = append(warnings, fmt.Sprintf("dimension %q: unsupported filter value %T treated as unconstrained", k, v))
		}
	}

	if len(f) == 0 {
		f = nil
	}
	return f, warnings
}

// Matches evaluates the filter against a record's quality vector.
func (f Filter) Matches(q model.QualityVector) bool {
	for d, p := range f {
		v := q.Get(d)
		switch {
		case p.Present != nil:
			if v.IsPresent() != *p.Present {
				return false
			}
		case p.Exact != "":
			if !exactMatch(d, v, p.Exact) {
				return false
			}
		case len(p.AnyOf) > 0:
			hit := false
			for _, s := range p.AnyOf {
				if exactMatch(d, v, s) {
					hit = true
					break
				}
			}
			if !hit {
				return false
			}
		}
	}
	return true
}

// exactMatch implements the exact-subtype rule: value equals s, or s is the
// dimension's own base name and the value is present in any form.
func exactMatch(d model.Dimension, v model.QualityValue, s string) bool {
	if s == string(d) {
		return v.IsPresent()
	}
	return v.Kind == model.WithSubtype && v.Subtype == s
}
