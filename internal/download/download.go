// Package download runs a resolved batch of videos through a backend, one at a
// time, and records every job in the history database.
package download

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vmunix/streamgrab/internal/backend"
)

// Job is one video in one run.
type Job struct {
	ID               int64
	RunID            string
	Identifier       string
	Title            string
	OutputPath       string
	Backend          backend.Kind
	Status           Status
	Error            string
	AddedAt          time.Time
	FinishedAt       *time.Time
	LastTransitionAt time.Time

	// Progress is the last reported fraction. Not persisted.
	Progress float64
}

// Filter specifies criteria for listing jobs.
type Filter struct {
	RunID      *string
	Identifier *string
	Status     *Status
	Limit      int // 0 means no limit
}

// Store persists job records.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a job store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

const jobColumns = "id, run_id, identifier, title, output_path, backend, status, error, added_at, finished_at, last_transition_at"

// Add records a new job.
func (s *Store) Add(ctx context.Context, j *Job) error {
	now := s.now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (run_id, identifier, title, output_path, backend, status, error, added_at, finished_at, last_transition_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.RunID, j.Identifier, j.Title, j.OutputPath, string(j.Backend), string(j.Status), j.Error, now, j.FinishedAt, now,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	j.ID = id
	j.AddedAt = now
	j.LastTransitionAt = now
	return nil
}

// Get retrieves a job by ID.
// Returns ErrNotFound if the job does not exist.
func (s *Store) Get(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get job %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}
	return j, nil
}

// Transition changes a job's status with validation. A terminal status stamps
// finished_at; cause, when set, is stored as the job's error text.
func (s *Store) Transition(ctx context.Context, j *Job, to Status, cause error) error {
	if !j.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, to)
	}

	now := s.now()
	errText := j.Error
	if cause != nil {
		errText = cause.Error()
	}
	var finishedAt *time.Time
	if to.IsTerminal() {
		finishedAt = &now
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, finished_at = ?, last_transition_at = ?
		WHERE id = ?`,
		string(to), errText, finishedAt, now, j.ID,
	)
	if err != nil {
		return fmt.Errorf("update job %d: %w", j.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transition job %d: %w", j.ID, ErrNotFound)
	}

	applyTransition(j, to, errText, finishedAt, now)
	return nil
}

// List returns jobs matching the filter, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]*Job, error) {
	var conditions []string
	var args []any

	if f.RunID != nil {
		conditions = append(conditions, "run_id = ?")
		args = append(args, *f.RunID)
	}
	if f.Identifier != nil {
		conditions = append(conditions, "identifier = ?")
		args = append(args, *f.Identifier)
	}
	if f.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*f.Status))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := "SELECT " + jobColumns + " FROM jobs" + whereClause + " ORDER BY id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		results = append(results, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return results, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*Job, error) {
	j := &Job{}
	var kind, status string
	var finishedAt sql.NullTime
	if err := row.Scan(&j.ID, &j.RunID, &j.Identifier, &j.Title, &j.OutputPath, &kind, &status,
		&j.Error, &j.AddedAt, &finishedAt, &j.LastTransitionAt); err != nil {
		return nil, err
	}
	j.Backend = backend.Kind(kind)
	j.Status = Status(status)
	if finishedAt.Valid {
		t := finishedAt.Time
		j.FinishedAt = &t
	}
	return j, nil
}

func applyTransition(j *Job, to Status, errText string, finishedAt *time.Time, at time.Time) {
	j.Status = to
	j.Error = errText
	j.FinishedAt = finishedAt
	j.LastTransitionAt = at
}
