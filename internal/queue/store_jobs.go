package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clipforge/internal/pipeline"
)

// ErrNotFound indicates the requested job does not exist.
var ErrNotFound = errors.New("job not found")

const jobColumns = `id, status, request_json, video_url, thumbnail_url,
    duration_seconds, images_used, error_message, progress_stage,
    created_at, updated_at`

// Add enqueues a new generation request.
func (s *Store) Add(ctx context.Context, req pipeline.Request) (*Job, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (status, request_json, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		StatusPending, string(encoded), timestamp, timestamp)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches one job.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return job, err
}

// List returns jobs newest-first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (?` + repeatPlaceholder(len(statuses)-1) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ClaimNextPending atomically transitions the oldest pending job to
// generating and returns it. A nil job means the queue is empty.
func (s *Store) ClaimNextPending(ctx context.Context) (*Job, error) {
	ctx = ensureContext(ctx)
	var claimedID int64
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		row := tx.QueryRowContext(ctx,
			`SELECT id FROM jobs WHERE status = ? ORDER BY id ASC LIMIT 1`, StatusPending)
		if err := row.Scan(&claimedID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				claimedID = 0
				return nil
			}
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`,
			StatusGenerating, time.Now().UTC().Format(time.RFC3339Nano), claimedID); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, fmt.Errorf("claim pending job: %w", err)
	}
	if claimedID == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, claimedID)
}

// SetProgress records the stage a generating job has reached.
func (s *Store) SetProgress(ctx context.Context, id int64, stage string) error {
	return s.touch(ctx, id, `UPDATE jobs SET progress_stage = ?, updated_at = ? WHERE id = ?`, stage)
}

// Complete stores a successful generation result and marks the job completed.
func (s *Store) Complete(ctx context.Context, id int64, result pipeline.Result) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, video_url = ?, thumbnail_url = ?,
            duration_seconds = ?, images_used = ?, error_message = '',
            progress_stage = '', updated_at = ?
         WHERE id = ?`,
		StatusCompleted, result.VideoURL, result.ThumbnailURL,
		result.DurationSeconds, result.ImagesUsed,
		time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return requireRow(res, id)
}

// Fail marks the job failed with the given message.
func (s *Store) Fail(ctx context.Context, id int64, message string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, error_message = ?, progress_stage = '', updated_at = ? WHERE id = ?`,
		StatusFailed, message, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return requireRow(res, id)
}

// Retry returns a failed job to the pending state.
func (s *Store) Retry(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, error_message = '', progress_stage = '', updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusPending, time.Now().UTC().Format(time.RFC3339Nano), id, StatusFailed)
	if err != nil {
		return fmt.Errorf("retry job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %d is not in a failed state", id)
	}
	return nil
}

// Clear deletes finished jobs. With no statuses it removes completed and
// failed jobs; explicit statuses narrow the sweep. It returns the number of
// deleted jobs.
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	if len(statuses) == 0 {
		statuses = []Status{StatusCompleted, StatusFailed}
	}
	query := `DELETE FROM jobs WHERE status IN (?` + repeatPlaceholder(len(statuses)-1) + `)`
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, status)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	return res.RowsAffected()
}

// ResetStuck returns generating jobs to pending, typically after an unclean
// worker shutdown. It returns the number of jobs reset.
func (s *Store) ResetStuck(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, updated_at = ? WHERE status = ?`,
		StatusPending, time.Now().UTC().Format(time.RFC3339Nano), StatusGenerating)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// Health aggregates job counts per lifecycle state.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("summarize jobs: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, err
		}
		summary.Total += count
		switch status {
		case StatusPending:
			summary.Pending = count
		case StatusGenerating:
			summary.Generating = count
		case StatusCompleted:
			summary.Completed = count
		case StatusFailed:
			summary.Failed = count
		}
	}
	return summary, rows.Err()
}

func (s *Store) touch(ctx context.Context, id int64, query string, value string) error {
	res, err := s.execWithRetry(ctx, query, value, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}

type scannable interface {
	Scan(dest ...any) error
}

func scanJob(row scannable) (*Job, error) {
	var job Job
	var status, createdAt, updatedAt string
	if err := row.Scan(
		&job.ID, &status, &job.RequestJSON, &job.VideoURL, &job.ThumbnailURL,
		&job.DurationSeconds, &job.ImagesUsed, &job.ErrorMessage, &job.ProgressStage,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	job.Status = Status(status)
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		job.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		job.UpdatedAt = ts
	}
	return &job, nil
}
