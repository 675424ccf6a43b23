package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"vidpress/internal/ffmpeg"
)

// ErrRecordNotFound is returned when a job ID has no history row.
var ErrRecordNotFound = errors.New("job record not found")

// Record is one row of job history.
type Record struct {
	ID         string
	InputPath  string
	OutputPath string
	Mode       ffmpeg.Mode
	Tier       ffmpeg.Tier
	Status     string
	Percent    int
	Kind       string
	ExitCode   int
	Detail     string
	CreatedAt  time.Time
	FinishedAt time.Time
}

// RecordStatusRunning marks a job whose worker has not yet reported an
// outcome.
const RecordStatusRunning = "running"

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id TEXT PRIMARY KEY,
    input_path TEXT NOT NULL,
    output_path TEXT NOT NULL,
    mode TEXT NOT NULL,
    tier TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    percent INTEGER NOT NULL DEFAULT 0,
    kind TEXT NOT NULL DEFAULT '',
    exit_code INTEGER NOT NULL DEFAULT 0,
    detail TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    finished_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
`

// Store persists job history in SQLite. A file lock on the state
// directory keeps concurrent vidpress processes from interleaving writes.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// OpenStore initializes or connects to the history database in stateDir.
func OpenStore(stateDir string) (*Store, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure state directory: %w", err)
	}

	lock := flock.New(filepath.Join(stateDir, "jobs.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire state lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another vidpress instance is using the job history")
	}

	dbPath := filepath.Join(stateDir, "jobs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: dbPath, lock: lock}, nil
}

// Close releases the database and the state lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var firstErr error
	if s.db != nil {
		firstErr = s.db.Close()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// RecordStart inserts a running row for a freshly started job.
func (s *Store) RecordStart(ctx context.Context, job Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, input_path, output_path, mode, tier, status, percent, created_at)
         VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		job.ID, job.InputPath, job.OutputPath, string(job.Mode), string(job.Tier),
		RecordStatusRunning, job.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// UpdateProgress persists the latest progress percentage for a running job.
func (s *Store) UpdateProgress(ctx context.Context, id string, percent int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE jobs SET percent = ? WHERE id = ?`, percent, id)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// RecordOutcome finalizes a job row with its terminal outcome.
func (s *Store) RecordOutcome(ctx context.Context, id string, outcome Outcome) error {
	percentExpr := "percent"
	if outcome.Status == StatusSucceeded {
		percentExpr = "100"
	}
	query := fmt.Sprintf(
		`UPDATE jobs SET status = ?, kind = ?, exit_code = ?, detail = ?, finished_at = ?, percent = %s WHERE id = ?`,
		percentExpr,
	)
	_, err := s.db.ExecContext(ctx, query,
		string(outcome.Status), string(outcome.Kind), outcome.ExitCode, outcome.Detail,
		time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// Get returns the history row for a job ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, input_path, output_path, mode, tier, status, percent, kind, exit_code, detail, created_at, finished_at
         FROM jobs WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Find resolves a full ID or a unique ID prefix to its history row.
func (s *Store) Find(ctx context.Context, idOrPrefix string) (*Record, error) {
	record, err := s.Get(ctx, idOrPrefix)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input_path, output_path, mode, tier, status, percent, kind, exit_code, detail, created_at, finished_at
         FROM jobs WHERE id LIKE ? || '%' LIMIT 2`, idOrPrefix)
	if err != nil {
		return nil, fmt.Errorf("find job: %w", err)
	}
	defer rows.Close()

	var matches []*Record
	for rows.Next() {
		match, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, ErrRecordNotFound
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("job id prefix %q is ambiguous", idOrPrefix)
	}
}

// List returns the most recent job rows, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input_path, output_path, mode, tier, status, percent, kind, exit_code, detail, created_at, finished_at
         FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// Clear deletes all finished rows, returning how many were removed.
// Running rows are preserved.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE status != ?`, RecordStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	return res.RowsAffected()
}

// Prune trims history to the newest keep finished rows.
func (s *Store) Prune(ctx context.Context, keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE status != ? AND id NOT IN (
            SELECT id FROM jobs WHERE status != ? ORDER BY created_at DESC LIMIT ?
         )`, RecordStatusRunning, RecordStatusRunning, keep)
	if err != nil {
		return fmt.Errorf("prune jobs: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var record Record
	var mode, tier, createdAt string
	var finishedAt sql.NullString
	err := row.Scan(&record.ID, &record.InputPath, &record.OutputPath, &mode, &tier,
		&record.Status, &record.Percent, &record.Kind, &record.ExitCode, &record.Detail,
		&createdAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	record.Mode = ffmpeg.Mode(mode)
	record.Tier = ffmpeg.Tier(tier)
	if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		record.CreatedAt = parsed
	}
	if finishedAt.Valid {
		if parsed, err := time.Parse(time.RFC3339Nano, finishedAt.String); err == nil {
			record.FinishedAt = parsed
		}
	}
	return &record, nil
}
