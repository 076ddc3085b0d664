// Package store provides the experience storage interface and SQLite
// implementation.
package store

import (
	"context"
	"time"

	"github.com/dmfarland/recollect/internal/model"
)

// CaptureParams holds parameters for capturing an experience.
type CaptureParams struct {
	Source      string
	Experiencer string
	Perspective string
	Processing  string
	Qualities   model.QualityVector
	Crafted     bool
	Reflects    []string
	// Created overrides the capture timestamp when non-zero; imports use
	// this to preserve original creation times.
	Created time.Time
}

// ReconsiderParams holds the full replacement record for an experience.
// Every field is written as given; omitting one clears it.
type ReconsiderParams struct {
	ID          string
	Source      string
	Experiencer string
	Perspective string
	Processing  string
	Qualities   model.QualityVector
	Crafted     bool
	Reflects    []string
}

// Store defines the experience storage interface.
type Store interface {
	// Capture stores a new experience and returns it with its id.
	Capture(ctx context.Context, p CaptureParams) (*model.Experience, error)

	// Get retrieves an experience by id.
	Get(ctx context.Context, id string) (*model.Experience, error)

	// Snapshot returns all experiences with their reflections resolved.
	Snapshot(ctx context.Context) ([]model.Experience, error)

	// Reconsider replaces an experience wholesale, preserving its id and
	// creation time. The cached embedding vector is invalidated.
	Reconsider(ctx context.Context, p ReconsiderParams) (*model.Experience, error)

	// Release permanently deletes an experience and its reflections.
	Release(ctx context.Context, id string) error

	// Close closes the store.
	Close() error
}
