// Package history keeps benchmark runs in a SQLite database so results can
// be compared across builds, boards and clock settings.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/weiihann/accelbench/harness"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Run is one invocation of the benchmark suite.
type Run struct {
	ID        string           `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Label     string           `json:"label,omitempty"`
	Results   []harness.Result `json:"results"`
}

// Store persists runs in SQLite.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default database path following the XDG spec.
func DefaultPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, "accelbench", "history.db")
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()

		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()

		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()

		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		label TEXT DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

	CREATE TABLE IF NOT EXISTS results (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		algorithm TEXT NOT NULL,
		kind TEXT NOT NULL,
		requested_size INTEGER NOT NULL,
		size INTEGER NOT NULL,
		iterations INTEGER NOT NULL,
		elapsed_ns INTEGER NOT NULL,
		throughput REAL NOT NULL DEFAULT 0,
		unit TEXT DEFAULT '',
		stats TEXT DEFAULT '',
		PRIMARY KEY (run_id, seq)
	);
	`

	_, err := s.db.Exec(schema)

	return err
}

// Save stores run and its results. A missing ID or timestamp is filled in.
func (s *Store) Save(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, label) VALUES (?, ?, ?)`,
		run.ID, run.Timestamp.UnixNano(), run.Label,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, r := range run.Results {
		stats := ""
		if r.Stats != nil {
			b, err := json.Marshal(r.Stats)
			if err != nil {
				return fmt.Errorf("encode stats: %w", err)
			}

			stats = string(b)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO results (run_id, seq, algorithm, kind, requested_size,
				size, iterations, elapsed_ns, throughput, unit, stats)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, r.Algorithm, r.Kind.String(), r.RequestedSize,
			r.Size, r.Iterations, int64(r.Elapsed), r.Throughput,
			string(r.Unit), stats,
		); err != nil {
			return fmt.Errorf("insert result %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Load returns the run with the given ID.
func (s *Store) Load(ctx context.Context, id string) (*Run, error) {
	run := &Run{ID: id}

	var createdAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, label FROM runs WHERE id = ?`, id,
	).Scan(&createdAt, &run.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}

	run.Timestamp = time.Unix(0, createdAt)

	run.Results, err = s.loadResults(ctx, id)
	if err != nil {
		return nil, err
	}

	return run, nil
}

func (s *Store) loadResults(ctx context.Context, id string) ([]harness.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT algorithm, kind, requested_size, size, iterations,
			elapsed_ns, throughput, unit, stats
		FROM results WHERE run_id = ? ORDER BY seq`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []harness.Result

	for rows.Next() {
		var (
			r         harness.Result
			kind      string
			elapsedNs int64
			unit      string
			stats     string
		)

		if err := rows.Scan(
			&r.Algorithm, &kind, &r.RequestedSize, &r.Size, &r.Iterations,
			&elapsedNs, &r.Throughput, &unit, &stats,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}

		r.Kind, err = harness.ParseKind(kind)
		if err != nil {
			return nil, err
		}

		r.Elapsed = time.Duration(elapsedNs)
		r.Unit = harness.Unit(unit)

		if stats != "" {
			r.Stats = &harness.Stats{}
			if err := json.Unmarshal([]byte(stats), r.Stats); err != nil {
				return nil, fmt.Errorf("decode stats: %w", err)
			}
		}

		results = append(results, r)
	}

	return results, rows.Err()
}

// List returns up to limit runs, newest first, without their results.
// A limit of zero or less lists every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, label FROM runs
		ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run

	for rows.Next() {
		var (
			run       Run
			createdAt int64
		)

		if err := rows.Scan(&run.ID, &createdAt, &run.Label); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		run.Timestamp = time.Unix(0, createdAt)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Latest returns the n newest runs with their results, oldest first.
func (s *Store) Latest(ctx context.Context, n int) ([]Run, error) {
	listed, err := s.List(ctx, n)
	if err != nil {
		return nil, err
	}

	runs := make([]Run, 0, len(listed))

	for i := len(listed) - 1; i >= 0; i-- {
		run, err := s.Load(ctx, listed[i].ID)
		if err != nil {
			return nil, err
		}

		runs = append(runs, *run)
	}

	return runs, nil
}
