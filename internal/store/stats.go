package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath           string             `json:"db_path"`
	DBSizeBytes      int64              `json:"db_size_bytes"`
	TotalExperiences int                `json:"total_experiences"`
	Reflections      int                `json:"reflections"`
	CachedVectors    int                `json:"cached_vectors"`
	Experiencers     []ExperiencerStats `json:"experiencers"`
}

// ExperiencerStats holds per-experiencer counts.
type ExperiencerStats struct {
	Experiencer string `json:"experiencer"`
	Count       int    `json:"count"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM experiences`).Scan(&st.TotalExperiences)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reflections`).Scan(&st.Reflections)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vectors`).Scan(&st.CachedVectors)

	rows, err := s.db.QueryContext(ctx, `
		SELECT experiencer, COUNT(*) as cnt
		FROM experiences
		GROUP BY experiencer ORDER BY cnt DESC, experiencer`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var es ExperiencerStats
		rows.Scan(&es.Experiencer, &es.Count)
		st.Experiencers = append(st.Experiencers, es)
	}

	return st, nil
}
