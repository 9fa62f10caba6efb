// Package store persists relay jobs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/httprelay/relaypoll/internal/types"
)

var (
	ErrNotFound       = errors.New("job not found")
	ErrAlreadyReplied = errors.New("job already has a reply")
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id         TEXT PRIMARY KEY,
	message    TEXT NOT NULL,
	reply      TEXT,
	created_at INTEGER NOT NULL,
	replied_at INTEGER
);
CREATE INDEX IF NOT EXISTS jobs_pending ON jobs(created_at) WHERE reply IS NULL;
`

// Store is a job table backed by one SQLite database file.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open job database: %w", err)
	}
	// SQLite allows one writer; a single connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create stores msg as a new job with a fresh id.
func (s *Store) Create(ctx context.Context, msg string) (types.Job, error) {
	job := types.Job{
		ID:        uuid.New().String(),
		Message:   msg,
		CreatedAt: s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, message, created_at) VALUES (?, ?, ?)`,
		job.ID, job.Message, job.CreatedAt.UnixNano())
	if err != nil {
		return types.Job{}, fmt.Errorf("failed to insert job: %w", err)
	}
	return job, nil
}

// Get loads one job.
func (s *Store) Get(ctx context.Context, id string) (types.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, message, reply, created_at, replied_at FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Job{}, ErrNotFound
	}
	if err != nil {
		return types.Job{}, fmt.Errorf("failed to load job %s: %w", id, err)
	}
	return job, nil
}

// Reply records the reply of a job. A job takes one reply.
func (s *Store) Reply(ctx context.Context, id string, reply string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET reply = ?, replied_at = ? WHERE id = ? AND reply IS NULL`,
		reply, s.now().UTC().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to store reply for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return ErrAlreadyReplied
}

// Pending returns the ids of jobs without a reply, oldest first.
func (s *Store) Pending(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM jobs WHERE reply IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// List returns every job, oldest first.
func (s *Store) List(ctx context.Context) ([]types.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message, reply, created_at, replied_at FROM jobs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []types.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (types.Job, error) {
	var (
		job       types.Job
		reply     sql.NullString
		created   int64
		repliedAt sql.NullInt64
	)
	if err := row.Scan(&job.ID, &job.Message, &reply, &created, &repliedAt); err != nil {
		return types.Job{}, err
	}
	job.CreatedAt = time.Unix(0, created).UTC()
	if reply.Valid {
		r := reply.String
		job.Reply = &r
	}
	if repliedAt.Valid {
		t := time.Unix(0, repliedAt.Int64).UTC()
		job.RepliedAt = &t
	}
	return job, nil
}
