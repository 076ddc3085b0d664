package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/dmfarland/recollect/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS experiences (
		id          TEXT PRIMARY KEY,
		source      TEXT NOT NULL,
		experiencer TEXT NOT NULL,
		perspective TEXT,
		processing  TEXT,
		created     TEXT NOT NULL,
		qualities   TEXT NOT NULL,
		crafted     INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_experiences_experiencer ON experiences(experiencer);
	CREATE INDEX IF NOT EXISTS idx_experiences_created ON experiences(created DESC);

	CREATE TABLE IF NOT EXISTS reflections (
		from_id TEXT NOT NULL REFERENCES experiences(id) ON DELETE CASCADE,
		to_id   TEXT NOT NULL,
		PRIMARY KEY (from_id, to_id)
	);
	CREATE INDEX IF NOT EXISTS idx_reflections_to ON reflections(to_id);

	CREATE TABLE IF NOT EXISTS vectors (
		experience_id TEXT PRIMARY KEY REFERENCES experiences(id) ON DELETE CASCADE,
		provider      TEXT NOT NULL,
		vec           TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Capture(ctx context.Context, p CaptureParams) (*model.Experience, error) {
	if err := validateRecord(p.Source, p.Experiencer, p.Perspective, p.Processing, p.Qualities); err != nil {
		return nil, err
	}

	created := p.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}
	id := s.newID()

	qualJSON, err := json.Marshal(p.Qualities)
	if err != nil {
		return nil, fmt.Errorf("encode qualities: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO experiences (id, source, experiencer, perspective, processing, created, qualities, crafted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Source, p.Experiencer, nullable(p.Perspective), nullable(p.Processing),
		created.Format(time.RFC3339Nano), string(qualJSON), boolInt(p.Crafted))
	if err != nil {
		return nil, fmt.Errorf("insert experience: %w", err)
	}

	if err := insertReflections(ctx, tx, id, p.Reflects); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &model.Experience{
		ID:          id,
		Source:      p.Source,
		Experiencer: p.Experiencer,
		Perspective: p.Perspective,
		Processing:  p.Processing,
		Created:     created,
		Qualities:   p.Qualities,
		Crafted:     p.Crafted,
		Reflects:    p.Reflects,
	}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Experience, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, experiencer, perspective, processing, created, qualities, crafted
		 FROM experiences WHERE id = ?`, id)
	e, err := scanExperience(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("experience not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	reflects, err := s.reflectsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Reflects = reflects
	return &e, nil
}

func (s *SQLiteStore) Snapshot(ctx context.Context) ([]model.Experience, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, experiencer, perspective, processing, created, qualities, crafted
		 FROM experiences ORDER BY created DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var experiences []model.Experience
	index := map[string]int{}
	for rows.Next() {
		e, err := scanExperience(rows)
		if err != nil {
			return nil, err
		}
		index[e.ID] = len(experiences)
		experiences = append(experiences, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs, err := s.db.QueryContext(ctx, `SELECT from_id, to_id FROM reflections ORDER BY from_id, to_id`)
	if err != nil {
		return nil, err
	}
	defer refs.Close()
	for refs.Next() {
		var from, to string
		if err := refs.Scan(&from, &to); err != nil {
			return nil, err
		}
		if i, ok := index[from]; ok {
			experiences[i].Reflects = append(experiences[i].Reflects, to)
		}
	}
	return experiences, refs.Err()
}

func (s *SQLiteStore) Reconsider(ctx context.Context, p ReconsiderParams) (*model.Experience, error) {
	if err := validateRecord(p.Source, p.Experiencer, p.Perspective, p.Processing, p.Qualities); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	qualJSON, err := json.Marshal(p.Qualities)
	if err != nil {
		return nil, fmt.Errorf("encode qualities: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Full replace: drop the row and reinsert it with the original id and
	// creation time. The cascade clears reflections and the stale vector.
	if _, err := tx.ExecContext(ctx, `DELETE FROM experiences WHERE id = ?`, p.ID); err != nil {
		return nil, fmt.Errorf("delete experience: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO experiences (id, source, experiencer, perspective, processing, created, qualities, crafted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Source, p.Experiencer, nullable(p.Perspective), nullable(p.Processing),
		existing.Created.Format(time.RFC3339Nano), string(qualJSON), boolInt(p.Crafted))
	if err != nil {
		return nil, fmt.Errorf("insert experience: %w", err)
	}
	if err := insertReflections(ctx, tx, p.ID, p.Reflects); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &model.Experience{
		ID:          p.ID,
		Source:      p.Source,
		Experiencer: p.Experiencer,
		Perspective: p.Perspective,
		Processing:  p.Processing,
		Created:     existing.Created,
		Qualities:   p.Qualities,
		Crafted:     p.Crafted,
		Reflects:    p.Reflects,
	}, nil
}

func (s *SQLiteStore) Release(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM experiences WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("experience not found: %s", id)
	}
	return nil
}

// PutVector caches the embedding for an experience, replacing any previous
// one. The provider tag lets a provider switch invalidate the whole cache.
func (s *SQLiteStore) PutVector(ctx context.Context, id, provider string, vec []float32) error {
	b, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("encode vector: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO vectors (experience_id, provider, vec) VALUES (?, ?, ?)
		 ON CONFLICT(experience_id) DO UPDATE SET provider = excluded.provider, vec = excluded.vec`,
		id, provider, string(b))
	return err
}

// Vectors returns all cached embeddings for the given provider.
func (s *SQLiteStore) Vectors(ctx context.Context, provider string) (map[string][]float32, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT experience_id, vec FROM vectors WHERE provider = ?`, provider)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]float32)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
			return nil, fmt.Errorf("decode vector for %s: %w", id, err)
		}
		out[id] = vec
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func validateRecord(source, experiencer, perspective, processing string, q model.QualityVector) error {
	if source == "" {
		return fmt.Errorf("source is required")
	}
	if experiencer == "" {
		return fmt.Errorf("experiencer is required")
	}
	if perspective != "" && !model.ValidPerspectives[perspective] {
		return fmt.Errorf("invalid perspective %q", perspective)
	}
	if processing != "" && !model.ValidProcessing[processing] {
		return fmt.Errorf("invalid processing %q", processing)
	}
	return q.Validate()
}

func insertReflections(ctx context.Context, tx *sql.Tx, from string, reflects []string) error {
	for _, to := range reflects {
		if to == "" || to == from {
			return fmt.Errorf("invalid reflection target %q", to)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO reflections (from_id, to_id) VALUES (?, ?)`, from, to); err != nil {
			return fmt.Errorf("insert reflection: %w", err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExperience(row scanner) (model.Experience, error) {
	var e model.Experience
	var perspective, processing sql.NullString
	var created, qualities string
	var crafted int

	err := row.Scan(&e.ID, &e.Source, &e.Experiencer, &perspective, &processing, &created, &qualities, &crafted)
	if err != nil {
		return e, err
	}

	e.Created, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return e, fmt.Errorf("parse created for %s: %w", e.ID, err)
	}
	if perspective.Valid {
		e.Perspective = perspective.String
	}
	if processing.Valid {
		e.Processing = processing.String
	}
	if err := json.Unmarshal([]byte(qualities), &e.Qualities); err != nil {
		return e, fmt.Errorf("decode qualities for %s: %w", e.ID, err)
	}
	e.Crafted = crafted != 0
	return e, nil
}

func (s *SQLiteStore) reflectsOf(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT to_id FROM reflections WHERE from_id = ? ORDER BY to_id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var to string
		if err := rows.Scan(&to); err != nil {
			return nil, err
		}
		out = append(out, to)
	}
	return out, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
