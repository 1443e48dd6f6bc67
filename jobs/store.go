package jobs

import (
	"database/sql"
	"time"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/errors"
)

// Store handles persistence of queued jobs
type Store struct {
	db *sql.DB
}

// NewStore creates a new job store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const jobSelectColumns = `
	id, handler_name, payload, source, status, error, retry_count,
	created_at, started_at, completed_at, updated_at`

// CreateJob inserts a new job into the database
func (s *Store) CreateJob(job *Job) error {
	query := `
		INSERT INTO sync_jobs (
			id, handler_name, payload, source, status, error, retry_count,
			created_at, started_at, completed_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	payload := sql.NullString{String: string(job.Payload), Valid: len(job.Payload) > 0}

	_, err := s.db.Exec(query,
		job.ID,
		job.HandlerName,
		payload,
		job.Source,
		job.Status,
		job.Error,
		job.RetryCount,
		job.CreatedAt,
		job.StartedAt,
		job.CompletedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create job")
	}

	return nil
}

// GetJob retrieves a job by ID
func (s *Store) GetJob(id string) (*Job, error) {
	query := `SELECT` + jobSelectColumns + ` FROM sync_jobs WHERE id = ?`

	job, err := scanJob(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("job %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get job")
	}

	return job, nil
}

// UpdateJob updates an existing job in the database
func (s *Store) UpdateJob(job *Job) error {
	query := `
		UPDATE sync_jobs
		SET handler_name = ?, payload = ?, source = ?, status = ?, error = ?,
		    retry_count = ?, started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`

	payload := sql.NullString{String: string(job.Payload), Valid: len(job.Payload) > 0}

	res, err := s.db.Exec(query,
		job.HandlerName,
		payload,
		job.Source,
		job.Status,
		job.Error,
		job.RetryCount,
		job.StartedAt,
		job.CompletedAt,
		job.UpdatedAt,
		job.ID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update job")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError("job %s", job.ID)
	}

	return nil
}

// ListJobs returns jobs ordered oldest-first, optionally filtered by status
func (s *Store) ListJobs(status *JobStatus, limit int) ([]*Job, error) {
	query := `SELECT` + jobSelectColumns + ` FROM sync_jobs`
	args := []interface{}{}

	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list jobs")
	}
	defer rows.Close()

	var result []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan job")
		}
		result = append(result, job)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate jobs")
	}

	return result, nil
}

// FindActiveJobBySourceAndHandler finds a queued or running job by source and
// handler name. Returns nil if no active job exists for this source.
func (s *Store) FindActiveJobBySourceAndHandler(source, handlerName string) (*Job, error) {
	query := `SELECT` + jobSelectColumns + ` FROM sync_jobs
		WHERE source = ? AND handler_name = ? AND status IN (?, ?)
		ORDER BY created_at ASC LIMIT 1`

	job, err := scanJob(s.db.QueryRow(query, source, handlerName, JobStatusQueued, JobStatusRunning))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find active job")
	}

	return job, nil
}

// CleanupOldJobs removes completed/failed/cancelled jobs older than the cutoff
func (s *Store) CleanupOldJobs(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	res, err := s.db.Exec(
		`DELETE FROM sync_jobs WHERE status IN (?, ?, ?) AND completed_at < ?`,
		JobStatusCompleted, JobStatusFailed, JobStatusCancelled, cutoff,
	)
	if err != nil {
		return 0, errors.Wrap(err, "failed to cleanup old jobs")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count cleaned jobs")
	}

	return int(n), nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanJob
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*Job, error) {
	var job Job
	var payload sql.NullString
	var jobErr sql.NullString
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&job.ID,
		&job.HandlerName,
		&payload,
		&job.Source,
		&job.Status,
		&jobErr,
		&job.RetryCount,
		&job.CreatedAt,
		&startedAt,
		&completedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if payload.Valid {
		job.Payload = []byte(payload.String)
	}
	if jobErr.Valid {
		job.Error = jobErr.String
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}

	return &job, nil
}
