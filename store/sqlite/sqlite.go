/*
Package sqlite persists the boundary state of the upload surface.

PURPOSE:
  The reconciliation engine itself is stateless - one Run in, one Result
  out. What has to survive between user interactions is the boundary state:
  the six uploaded source files waiting for a run, and the finished runs
  (report bytes plus diagnostic log) available for download. This store
  keeps exactly that, nothing engine-internal.

KEY TABLES:
  source_files:  one row per source kind, replaced on re-upload
  runs:          finished runs with the rendered report workbook

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block
  while a run is being saved.

USAGE:
  store, err := sqlite.New("./data/audit.db")   // ":memory:" for tests
  if err != nil { ... }
  defer store.Close()

SEE ALSO:
  - api/handlers.go: the only consumer
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a requested source file or run does not exist.
var ErrNotFound = errors.New("not found")

// SourceFile is one uploaded source, identified by its kind.
type SourceFile struct {
	Kind       string
	Name       string
	Content    []byte
	UploadedAt time.Time
}

// Run is one finished reconciliation: the rendered workbook plus metadata.
type Run struct {
	ID          string
	PeriodStart string
	PeriodEnd   string
	FileName    string
	Report      []byte
	Logs        []string
	DetailRows  int
	SummaryRows int
	CreatedAt   time.Time
}

// Store implements the session store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Uploaded source files, one per kind, replaced on re-upload
	CREATE TABLE IF NOT EXISTS source_files (
		kind TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		content BLOB NOT NULL,
		uploaded_at TEXT NOT NULL
	);

	-- Finished reconciliation runs
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		file_name TEXT NOT NULL,
		report BLOB NOT NULL,
		logs_json TEXT NOT NULL,
		detail_rows INTEGER NOT NULL DEFAULT 0,
		summary_rows INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SOURCE FILES
// =============================================================================

// SaveSource stores (or replaces) the uploaded file for one source kind.
func (s *Store) SaveSource(ctx context.Context, file SourceFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO source_files (kind, name, content, uploaded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(kind) DO UPDATE SET
			name = excluded.name,
			content = excluded.content,
			uploaded_at = excluded.uploaded_at
	`
	_, err := s.db.ExecContext(ctx, query,
		file.Kind, file.Name, file.Content,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save source %s: %w", file.Kind, err)
	}
	return nil
}

// GetSource returns the uploaded file for one source kind.
func (s *Store) GetSource(ctx context.Context, kind string) (SourceFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var file SourceFile
	var uploadedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT kind, name, content, uploaded_at FROM source_files WHERE kind = ?`, kind,
	).Scan(&file.Kind, &file.Name, &file.Content, &uploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SourceFile{}, ErrNotFound
	}
	if err != nil {
		return SourceFile{}, fmt.Errorf("failed to load source %s: %w", kind, err)
	}
	file.UploadedAt, _ = time.Parse(time.RFC3339, uploadedAt)
	return file, nil
}

// ListSources returns all uploaded sources without their content.
func (s *Store) ListSources(ctx context.Context) ([]SourceFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, name, uploaded_at FROM source_files ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var files []SourceFile
	for rows.Next() {
		var file SourceFile
		var uploadedAt string
		if err := rows.Scan(&file.Kind, &file.Name, &uploadedAt); err != nil {
			return nil, err
		}
		file.UploadedAt, _ = time.Parse(time.RFC3339, uploadedAt)
		files = append(files, file)
	}
	return files, rows.Err()
}

// ClearSources removes every uploaded source.
func (s *Store) ClearSources(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM source_files`)
	if err != nil {
		return fmt.Errorf("failed to clear sources: %w", err)
	}
	return nil
}

// =============================================================================
// RUNS
// =============================================================================

// SaveRun stores a finished run.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logsJSON, _ := json.Marshal(run.Logs)
	query := `
		INSERT INTO runs
		(id, period_start, period_end, file_name, report, logs_json, detail_rows, summary_rows, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.PeriodStart, run.PeriodEnd, run.FileName,
		run.Report, string(logsJSON), run.DetailRows, run.SummaryRows,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun returns one run including its report bytes.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var run Run
	var logsJSON, createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, period_start, period_end, file_name, report, logs_json,
		       detail_rows, summary_rows, created_at
		FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.PeriodStart, &run.PeriodEnd, &run.FileName,
		&run.Report, &logsJSON, &run.DetailRows, &run.SummaryRows, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to load run: %w", err)
	}
	json.Unmarshal([]byte(logsJSON), &run.Logs)
	run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return run, nil
}

// ListRuns returns run metadata, newest first, without report bytes.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, period_start, period_end, file_name, detail_rows, summary_rows, created_at
		FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt string
		if err := rows.Scan(&run.ID, &run.PeriodStart, &run.PeriodEnd,
			&run.FileName, &run.DetailRows, &run.SummaryRows, &createdAt); err != nil {
			return nil, err
		}
		run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
