/*
Package sqlite provides SQLite-backed persistence for the workforce engine.

PURPOSE:
  Two concerns live here:
  1. The holiday table that feeds the working-day calendar, editable at
     runtime through the API.
  2. Completed analysis runs: each run's full result and warnings are
     stored as JSON so earlier runs can be listed, re-fetched, and
     re-exported without re-uploading the registers.

  The computation itself never touches the database - a run is pure and
  in-memory; persistence happens after the fact.

KEY TABLES:
  holidays:      id, jurisdiction, date, name
  analysis_runs: id, year, created_at, warning_count, result_json,
                 warnings_json

CONCURRENCY:
  sync.RWMutex around all access. SQLite is opened in WAL mode so
  readers do not block each other.

USAGE:
  store, err := sqlite.New("./data/workforce.db")   // or ":memory:"
  defer store.Close()

SEE ALSO:
  - calendar: consumes the holiday dates
  - api: saves and lists runs
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/workforce-engine/engine"
)

// Store implements holiday and analysis-run persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a store backed by the given database path. Use ":memory:" for
// an in-memory database. The schema is auto-migrated.
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
	-- Holidays feeding the working-day calendar
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		jurisdiction TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(jurisdiction, date, name)
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_jurisdiction
		ON holidays(jurisdiction, date);

	-- Completed analysis runs (result and warnings as JSON)
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id TEXT PRIMARY KEY,
		year INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		warning_count INTEGER NOT NULL DEFAULT 0,
		result_json TEXT NOT NULL,
		warnings_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_analysis_runs_created
		ON analysis_runs(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// Holiday is a stored holiday row.
type Holiday struct {
	ID           string
	Jurisdiction string
	Date         time.Time
	Name         string
}

// SaveHoliday inserts or refreshes a holiday.
func (s *Store) SaveHoliday(ctx context.Context, h Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, jurisdiction, date, name, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(jurisdiction, date, name) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		h.ID,
		h.Jurisdiction,
		h.Date.Format("2006-01-02"),
		h.Name,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	return err
}

// ListHolidays returns all holidays for a jurisdiction, date-ordered.
// An empty jurisdiction lists everything.
func (s *Store) ListHolidays(ctx context.Context, jurisdiction string) ([]Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, jurisdiction, date, name FROM holidays`
	args := []any{}
	if jurisdiction != "" {
		query += ` WHERE jurisdiction = ?`
		args = append(args, jurisdiction)
	}
	query += ` ORDER BY date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []Holiday
	for rows.Next() {
		var h Holiday
		var date string
		if err := rows.Scan(&h.ID, &h.Jurisdiction, &date, &h.Name); err != nil {
			return nil, err
		}
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue // Unparsable stored date, skip rather than fail the list
		}
		h.Date = parsed
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// HolidayDates returns the stored holiday dates for a jurisdiction in a
// given year, ready for calendar construction.
func (s *Store) HolidayDates(ctx context.Context, jurisdiction string, year int) ([]time.Time, error) {
	holidays, err := s.ListHolidays(ctx, jurisdiction)
	if err != nil {
		return nil, err
	}
	var dates []time.Time
	for _, h := range holidays {
		if h.Date.Year() == year {
			dates = append(dates, h.Date)
		}
	}
	return dates, nil
}

// =============================================================================
// ANALYSIS RUNS
// =============================================================================

// Run is a stored analysis run. Result is nil in listings.
type Run struct {
	ID           string
	Year         int
	CreatedAt    time.Time
	WarningCount int
	Result       *engine.Result
}

// SaveRun persists a completed run with its full result.
func (s *Store) SaveRun(ctx context.Context, id string, year int, result *engine.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	warningsJSON, err := json.Marshal(result.Warnings)
	if err != nil {
		return fmt.Errorf("failed to encode warnings: %w", err)
	}

	query := `
		INSERT INTO analysis_runs (id, year, created_at, warning_count, result_json, warnings_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		id,
		year,
		time.Now().UTC().Format(time.RFC3339),
		len(result.Warnings),
		string(resultJSON),
		string(warningsJSON),
	)
	return err
}

// GetRun returns one stored run with its full result, or nil when absent.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, year, created_at, warning_count, result_json
		FROM analysis_runs WHERE id = ?
	`
	var run Run
	var createdAt, resultJSON string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.Year, &createdAt, &run.WarningCount, &resultJSON,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	var result engine.Result
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to decode stored result: %w", err)
	}
	run.Result = &result
	return &run, nil
}

// ListRuns returns run metadata, newest first, without result payloads.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, year, created_at, warning_count
		FROM analysis_runs ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt string
		if err := rows.Scan(&run.ID, &run.Year, &createdAt, &run.WarningCount); err != nil {
			return nil, err
		}
		run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
