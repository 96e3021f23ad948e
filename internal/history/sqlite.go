package history

import (
	"context"
	"database/sql"
	stderrors "errors"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and if needed creates) the history database.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "open history database").
			WithContext("path", dbPath).
			Build()
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.WrapError(err, errors.CategoryHistory, "initialize history schema").
			WithContext("path", dbPath).
			Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		build_id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		status TEXT NOT NULL,
		entries INTEGER NOT NULL DEFAULT 0,
		assets INTEGER NOT NULL DEFAULT 0,
		items INTEGER NOT NULL DEFAULT 0,
		output_dir TEXT,
		error TEXT,
		config_hash TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts run, replacing a previous record with the same build ID.
func (s *SQLiteStore) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs
			(build_id, started_at, duration_ms, status, entries, assets, items, output_dir, error, config_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.BuildID, run.StartedAt.UnixMilli(), run.Duration.Milliseconds(), run.Status,
		run.Entries, run.Assets, run.Items, run.OutputDir, run.Error, run.ConfigHash,
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryHistory, "insert build run").
			WithContext("build_id", run.BuildID).
			Build()
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT build_id, started_at, duration_ms, status, entries, assets, items, output_dir, error, config_hash
		FROM runs ORDER BY started_at DESC, build_id LIMIT ?`, limit)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "query build runs").Build()
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "iterate build runs").Build()
	}
	return runs, nil
}

// Get returns the run recorded under buildID.
func (s *SQLiteStore) Get(ctx context.Context, buildID string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT build_id, started_at, duration_ms, status, entries, assets, items, output_dir, error, config_hash
		FROM runs WHERE build_id = ?`, buildID)
	run, err := scanRun(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Run{}, errors.NewError(errors.CategoryNotFound, "build run not found").
			WithContext("build_id", buildID).
			Build()
	}
	return run, err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run        Run
		startedMS  int64
		durationMS int64
		outputDir  sql.NullString
		errText    sql.NullString
		configHash sql.NullString
	)
	err := row.Scan(&run.BuildID, &startedMS, &durationMS, &run.Status,
		&run.Entries, &run.Assets, &run.Items, &outputDir, &errText, &configHash)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, errors.WrapError(err, errors.CategoryHistory, "scan build run").Build()
	}
	run.StartedAt = time.UnixMilli(startedMS).UTC()
	run.Duration = time.Duration(durationMS) * time.Millisecond
	run.OutputDir = outputDir.String
	run.Error = errText.String
	run.ConfigHash = configHash.String
	return run, nil
}
