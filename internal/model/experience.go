// Package model defines the core experience data types.
package model

import "time"

// Experience represents one captured first-person moment.
type Experience struct {
	ID          string        `json:"id"`
	Source      string        `json:"source"`
	Experiencer string        `json:"experiencer"`
	Perspective string        `json:"perspective,omitempty"`
	Processing  string        `json:"processing,omitempty"`
	Created     time.Time     `json:"created"`
	Qualities   QualityVector `json:"qualities"`
	Crafted     bool          `json:"crafted,omitempty"`
	Reflects    []string      `json:"reflects,omitempty"`
}

// ValidPerspectives are the allowed perspective tags.
var ValidPerspectives = map[string]bool{
	"I":    true,
	"we":   true,
	"you":  true,
	"they": true,
}

// ValidProcessing are the allowed processing-stage tags.
var ValidProcessing = map[string]bool{
	"during":      true,
	"right-after": true,
	"long-after":  true,
}
