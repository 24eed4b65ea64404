// Package history keeps a SQLite log of packaging runs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/fwpack/internal/foundation/errors"
	"git.home.luguber.info/inful/fwpack/internal/gitinfo"
	"git.home.luguber.info/inful/fwpack/internal/packager"
)

// ErrNotFound is returned by Get for unknown run ids.
var ErrNotFound = errors.New("run not found")

// Run is the persisted summary of one packaging run.
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Project   string
	Version   string
	Board     string
	Layout    string
	Failures  []string
	Files     []string
	Commit    string
}

// FromReport summarises a report for storage.
func FromReport(r *packager.Report, git *gitinfo.Info) Run {
	run := Run{
		ID:        r.RunID,
		StartedAt: r.StartedAt,
		Duration:  r.Duration,
		Project:   r.Plan.Config.Project,
		Version:   r.Plan.Config.Version,
		Board:     r.Plan.Config.Board,
		Layout:    string(r.Plan.Branch),
		Files:     []string{},
		Failures:  []string{},
	}
	for _, f := range r.Produced() {
		run.Files = append(run.Files, filepath.Base(f))
	}
	for _, f := range r.Failures() {
		run.Failures = append(run.Failures, f.Step)
	}
	if git != nil {
		run.Commit = git.Commit
	}
	return run
}

// Store persists runs in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the history database at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, ferrors.HistoryError("create history directory").WithCause(err).
				WithContext("path", path).Build()
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, ferrors.HistoryError("open history database").WithCause(err).
			WithContext("path", path).Build()
	}
	// a single connection keeps ":memory:" databases coherent
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.HistoryError("initialize history schema").WithCause(err).
			WithContext("path", path).Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		project TEXT NOT NULL,
		version TEXT NOT NULL,
		board TEXT NOT NULL,
		layout TEXT NOT NULL,
		failures TEXT NOT NULL,
		files TEXT NOT NULL,
		git_commit TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_project_version ON runs(project, version);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends a run.
func (s *Store) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	failures, err := json.Marshal(run.Failures)
	if err != nil {
		return fmt.Errorf("marshal failures: %w", err)
	}
	files, err := json.Marshal(run.Files)
	if err != nil {
		return fmt.Errorf("marshal files: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, duration_ms, project, version, board, layout, failures, files, git_commit)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixMilli(), run.Duration.Milliseconds(), run.Project, run.Version,
		run.Board, run.Layout, string(failures), string(files), run.Commit,
	)
	if err != nil {
		return ferrors.HistoryError("insert run").WithCause(err).
			WithContext("run_id", run.ID).Build()
	}
	return nil
}

const selectRuns = `SELECT id, started_at, duration_ms, project, version, board, layout, failures, files, git_commit FROM runs`

// List returns the most recent runs, newest first. limit <= 0 returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectRuns + ` ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ferrors.HistoryError("query runs").WithCause(err).Build()
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Get returns a single run by id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run        Run
		startedMS  int64
		durationMS int64
		failures   string
		files      string
		commit     sql.NullString
	)
	err := sc.Scan(&run.ID, &startedMS, &durationMS, &run.Project, &run.Version, &run.Board,
		&run.Layout, &failures, &files, &commit)
	if err != nil {
		return Run{}, err
	}
	run.StartedAt = time.UnixMilli(startedMS)
	run.Duration = time.Duration(durationMS) * time.Millisecond
	run.Commit = commit.String
	if err := json.Unmarshal([]byte(failures), &run.Failures); err != nil {
		return Run{}, fmt.Errorf("unmarshal failures: %w", err)
	}
	if err := json.Unmarshal([]byte(files), &run.Files); err != nil {
		return Run{}, fmt.Errorf("unmarshal files: %w", err)
	}
	return run, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
