package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Dimension is one of the seven fixed experiential axes.
type Dimension string

const (
	DimEmbodied Dimension = "embodied"
	DimFocus    Dimension = "focus"
	DimMood     Dimension = "mood"
	DimPurpose  Dimension = "purpose"
	DimSpace    Dimension = "space"
	DimTime     Dimension = "time"
	DimPresence Dimension = "presence"
)

// Dimensions lists all seven axes in canonical order.
var Dimensions = []Dimension{
	DimEmbodied, DimFocus, DimMood, DimPurpose, DimSpace, DimTime, DimPresence,
}

// Subtypes maps each dimension to its two legal subtype values.
var Subtypes = map[Dimension][2]string{
	DimEmbodied: {"thinking", "sensing"},
	DimFocus:    {"narrow", "broad"},
	DimMood:     {"open", "closed"},
	DimPurpose:  {"goal", "wander"},
	DimSpace:    {"here", "there"},
	DimTime:     {"past", "future"},
	DimPresence: {"individual", "collective"},
}

// IsDimension reports whether s names one of the seven axes.
func IsDimension(s string) bool {
	_, ok := Subtypes[Dimension(s)]
	return ok
}

// IsSubtype reports whether sub is a legal subtype of dimension d.
func IsSubtype(d Dimension, sub string) bool {
	pair, ok := Subtypes[d]
	return ok && (sub == pair[0] || sub == pair[1])
}

// ValueKind discriminates the three legal states of a quality value.
type ValueKind int

const (
	// Absent means the dimension was not part of the experience.
	Absent ValueKind = iota
	// Present means the dimension was noticed but not specified further.
	Present
	// WithSubtype means the dimension carries one of its two subtypes.
	WithSubtype
)

// QualityValue is a closed tagged variant: absent, present-unspecified,
// or present with one of the dimension's two subtypes. The JSON form is
// false | true | "subtype".
type QualityValue struct {
	Kind    ValueKind
	Subtype string
}

// AbsentValue returns the absent variant.
func AbsentValue() QualityValue { return QualityValue{Kind: Absent} }

// PresentValue returns the present-unspecified variant.
func PresentValue() QualityValue { return QualityValue{Kind: Present} }

// SubtypeValue returns the subtype variant for dimension d, validating sub
// against the dimension's legal subtype pair.
func SubtypeValue(d Dimension, sub string) (QualityValue, error) {
	if !IsSubtype(d, sub) {
		return QualityValue{}, fmt.Errorf("invalid subtype %q for dimension %q", sub, d)
	}
	return QualityValue{Kind: WithSubtype, Subtype: sub}, nil
}

// IsPresent reports whether the value is anything other than absent.
func (v QualityValue) IsPresent() bool { return v.Kind != Absent }

// MarshalJSON encodes the variant as false, true, or the subtype string.
func (v QualityValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case Present:
		return json.Marshal(true)
	case WithSubtype:
		return json.Marshal(v.Subtype)
	default:
		return json.Marshal(false)
	}
}

// UnmarshalJSON decodes false, true, or a subtype string. Subtype legality
// is checked at the vector level where the dimension is known.
func (v *QualityValue) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case bool:
		if t {
			*v = PresentValue()
		} else {
			*v = AbsentValue()
		}
		return nil
	case string:
		*v = QualityValue{Kind: WithSubtype, Subtype: t}
		return nil
	default:
		return fmt.Errorf("quality value must be bool or string, got %T", raw)
	}
}

// QualityVector holds one value per dimension. All seven keys are always
// present; a zero vector has every dimension absent.
type QualityVector struct {
	Embodied QualityValue `json:"embodied"`
	Focus    QualityValue `json:"focus"`
	Mood     QualityValue `json:"mood"`
	Purpose  QualityValue `json:"purpose"`
	Space    QualityValue `json:"space"`
	Time     QualityValue `json:"time"`
	Presence QualityValue `json:"presence"`
}

// Get returns the value for dimension d. Unknown dimensions read as absent.
func (q QualityVector) Get(d Dimension) QualityValue {
	switch d {
	case DimEmbodied:
		return q.Embodied
	case DimFocus:
		return q.Focus
	case DimMood:
		return q.Mood
	case DimPurpose:
		return q.Purpose
	case DimSpace:
		return q.Space
	case DimTime:
		return q.Time
	case DimPresence:
		return q.Presence
	}
	return AbsentValue()
}

// Set assigns the value for dimension d. Unknown dimensions are ignored.
func (q *QualityVector) Set(d Dimension, v QualityValue) {
	switch d {
	case DimEmbodied:
		q.Embodied = v
	case DimFocus:
		q.Focus = v
	case DimMood:
		q.Mood = v
	case DimPurpose:
		q.Purpose = v
	case DimSpace:
		q.Space = v
	case DimTime:
		q.Time = v
	case DimPresence:
		q.Presence = v
	}
}

// Validate checks every subtype value against its dimension's legal pair.
func (q QualityVector) Validate() error {
	for _, d := range Dimensions {
		v := q.Get(d)
		if v.Kind == WithSubtype && !IsSubtype(d, v.Subtype) {
			return fmt.Errorf("invalid subtype %q for dimension %q", v.Subtype, d)
		}
	}
	return nil
}

// PresentCount returns how many dimensions are present.
func (q QualityVector) PresentCount() int {
	n := 0
	for _, d := range Dimensions {
		if q.Get(d).IsPresent() {
			n++
		}
	}
	return n
}

// Labels returns the present entries as "dimension" or "dimension.subtype"
// strings in canonical dimension order.
func (q QualityVector) Labels() []string {
	var out []string
	for _, d := range Dimensions {
		v := q.Get(d)
		switch v.Kind {
		case Present:
			out = append(out, string(d))
		case WithSubtype:
			out = append(out, string(d)+"."+v.Subtype)
		}
	}
	return out
}

// Signature returns a stable identifier for the present-label set, used to
// group records that share the same quality shape.
func (q QualityVector) Signature() string {
	labels := q.Labels()
	sort.Strings(labels)
	if len(labels) == 0 {
		return "(none)"
	}
	sig := labels[0]
	for _, l := range labels[1:] {
		sig += "," + l
	}
	return sig
}

// QualityVectorFromMap builds a vector from a loosely typed map, as arrives
// from JSON tool arguments. Values must be bool or legal subtype strings.
func QualityVectorFromMap(m map[string]any) (QualityVector, error) {
	var q QualityVector
	for k, raw := range m {
		d := Dimension(k)
		if !IsDimension(k) {
			return q, fmt.Errorf("unknown quality dimension %q", k)
		}
		switch t := raw.(type) {
		case bool:
			if t {
				q.Set(d, PresentValue())
			}
		case string:
			v, err := SubtypeValue(d, t)
			if err != nil {
				return q, err
			}
			q.Set(d, v)
		default:
			return q, fmt.Errorf("dimension %q: value must be bool or string, got %T", k, raw)
		}
	}
	return q, nil
}
