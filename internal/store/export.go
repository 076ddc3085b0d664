package store

import (
	"context"

	"github.com/dmfarland/recollect/internal/model"
)

// ExportAll returns every experience, oldest first, with reflections
// resolved. The result round-trips through Import.
func (s *SQLiteStore) ExportAll(ctx context.Context) ([]model.Experience, error) {
	experiences, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	// Snapshot is newest-first; exports read better chronologically.
	for i, j := 0, len(experiences)-1; i < j; i, j = i+1, j-1 {
		experiences[i], experiences[j] = experiences[j], experiences[i]
	}
	return experiences, nil
}

// Import captures experiences from an export, preserving creation times.
// Ids are reassigned, so reflections are remapped as records land; a
// reflection whose target is not part of the import is kept as-is.
func (s *SQLiteStore) Import(ctx context.Context, experiences []model.Experience) (int, error) {
	idMap := make(map[string]string, len(experiences))
	imported := 0
	for _, e := range experiences {
		reflects := make([]string, 0, len(e.Reflects))
		for _, to := range e.Reflects {
			if mapped, ok := idMap[to]; ok {
				to = mapped
			}
			reflects = append(reflects, to)
		}
		captured, err := s.Capture(ctx, CaptureParams{
			Source:      e.Source,
			Experiencer: e.Experiencer,
			Perspective: e.Perspective,
			Processing:  e.Processing,
			Qualities:   e.Qualities,
			Crafted:     e.Crafted,
			Reflects:    reflects,
			Created:     e.Created,
		})
		if err != nil {
			return imported, err
		}
		idMap[e.ID] = captured.ID
		imported++
	}
	return imported, nil
}
