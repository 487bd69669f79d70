package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kunnath/RobotBrowser/pkg/models"
)

// SQLiteStore persists run history in a local SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
// WAL with a busy timeout keeps the CLI and a serving process from
// tripping over each other on the same file.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer avoids SQLITE_BUSY under concurrent access
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		url TEXT NOT NULL,
		task TEXT,
		status TEXT NOT NULL,
		mode TEXT,
		result TEXT,
		report_path TEXT,
		error TEXT,
		created_at DATETIME NOT NULL,
		started_at DATETIME,
		completed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_runs_run_id ON runs(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateRun inserts a run record
func (s *SQLiteStore) CreateRun(rec *models.RunRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, run_id, url, task, status, mode, result, report_path, error, created_at, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RunID, rec.URL, rec.Task, string(rec.Status), string(rec.Mode),
		rec.Result, rec.ReportPath, rec.Error, rec.CreatedAt, rec.StartedAt, rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// GetRun retrieves a run record by its record ID
func (s *SQLiteStore) GetRun(id string) (*models.RunRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, run_id, url, task, status, mode, result, report_path, error, created_at, started_at, completed_at
		FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// GetRunByRunID retrieves the most recent record with the given run
// identifier
func (s *SQLiteStore) GetRunByRunID(runID string) (*models.RunRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, run_id, url, task, status, mode, result, report_path, error, created_at, started_at, completed_at
		FROM runs WHERE run_id = ? ORDER BY created_at DESC LIMIT 1`, runID)
	return scanRun(row)
}

// ListRuns returns records newest-first, at most limit entries
// (all of them when limit <= 0)
func (s *SQLiteStore) ListRuns(limit int) ([]*models.RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, run_id, url, task, status, mode, result, report_path, error, created_at, started_at, completed_at
		FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []*models.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// FinishRun sets the terminal fields on the newest record matching the
// run identifier
func (s *SQLiteStore) FinishRun(update *models.RunRecord) error {
	res, err := s.db.Exec(`
		UPDATE runs SET status = ?, mode = ?, result = ?, report_path = ?, error = ?, completed_at = ?
		WHERE id = (SELECT id FROM runs WHERE run_id = ? ORDER BY created_at DESC LIMIT 1)`,
		string(update.Status), string(update.Mode), update.Result, update.ReportPath,
		update.Error, update.CompletedAt, update.RunID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// DeleteRun removes a record by its record ID
func (s *SQLiteStore) DeleteRun(id string) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// PruneBefore deletes records created before the cutoff
func (s *SQLiteStore) PruneBefore(cutoff time.Time) (int, error) {
	res, err := s.db.Exec(`DELETE FROM runs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Vacuum reclaims space after pruning
func (s *SQLiteStore) Vacuum() error {
	_, err := s.db.Exec(`VACUUM`)
	return err
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*models.RunRecord, error) {
	var rec models.RunRecord
	var mode, result, reportPath, errMsg, task sql.NullString
	var startedAt, completedAt sql.NullTime

	err := row.Scan(&rec.ID, &rec.RunID, &rec.URL, &task, (*string)(&rec.Status), &mode,
		&result, &reportPath, &errMsg, &rec.CreatedAt, &startedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	rec.Task = task.String
	rec.Mode = models.RunMode(mode.String)
	rec.Result = result.String
	rec.ReportPath = reportPath.String
	rec.Error = errMsg.String
	if startedAt.Valid {
		t := startedAt.Time
		rec.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		rec.CompletedAt = &t
	}
	return &rec, nil
}
