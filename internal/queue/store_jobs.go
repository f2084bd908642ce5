package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NewJob enqueues a verification request.
func (s *Store) NewJob(ctx context.Context, imageURL, claim string) (*Job, error) {
	return s.NewJobWithRequestID(ctx, imageURL, claim, "")
}

// NewJobWithRequestID enqueues a verification request tagged with a correlation id.
func (s *Store) NewJobWithRequestID(ctx context.Context, imageURL, claim, requestID string) (*Job, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, errors.New("image url is required")
	}
	now := formatTime(time.Now())
	res, err := s.exec(ctx,
		`INSERT INTO jobs (image_url, claim, status, request_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		imageURL, nullableString(strings.TrimSpace(claim)), StatusPending, nullableString(requestID), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a job by identifier. It returns nil, nil when the job does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Update persists changes to an existing job.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	job.UpdatedAt = time.Now().UTC()
	_, err := s.exec(ctx,
		`UPDATE jobs
         SET claim = ?, status = ?, verdict = ?, confidence = ?, explanation = ?,
             evidence_json = ?, real_context_json = ?, claim_context_json = ?, issues_json = ?,
             content_hash = ?, perceptual_hash = ?, cached = ?, error_message = ?,
             request_id = ?, attempts = ?, progress_stage = ?, updated_at = ?,
             last_heartbeat = ?, completed_at = ?
         WHERE id = ?`,
		nullableString(job.Claim),
		job.Status,
		nullableString(job.Verdict),
		job.Confidence,
		nullableString(job.Explanation),
		nullableString(job.EvidenceJSON),
		nullableString(job.RealContextJSON),
		nullableString(job.ClaimContextJSON),
		nullableString(job.IssuesJSON),
		nullableString(job.ContentHash),
		nullableString(job.PerceptualHash),
		boolToInt(job.Cached),
		nullableString(job.ErrorMessage),
		nullableString(job.RequestID),
		job.Attempts,
		nullableString(job.ProgressStage),
		formatTime(job.UpdatedAt),
		nullableTime(job.LastHeartbeat),
		nullableTime(job.CompletedAt),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// List returns jobs filtered by status (all jobs when none is given), newest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, statusArgs(statuses)...)
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

// Remove deletes a job by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	affected, err := s.execAffected(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	return affected > 0, nil
}
