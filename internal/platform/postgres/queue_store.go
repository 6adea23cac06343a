package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/beargallbladder/golfswarm/internal/domain"
	"github.com/beargallbladder/golfswarm/internal/platform/logger"
	"github.com/beargallbladder/golfswarm/internal/store"
)

// Queue job lifecycle states as persisted.
const (
	jobStatusPending    = "pending"
	jobStatusProcessing = "processing"
	jobStatusCompleted  = "completed"
	jobStatusFailed     = "failed"
)

// PostgresQueueStore persists queue jobs so the background lane survives
// restarts.
type PostgresQueueStore struct {
	db store.DBTX
}

// NewPostgresQueueStore creates a new PostgresQueueStore.
func NewPostgresQueueStore(db store.DBTX) *PostgresQueueStore {
	return &PostgresQueueStore{db: db}
}

// Save persists a newly enqueued job in pending state. A task may appear in
// multiple lanes; the (task_id, lane) pair is the identity.
func (s *PostgresQueueStore) Save(ctx context.Context, job *domain.QueueJob) error {
	log := logger.FromContext(ctx)

	taskJSON, err := json.Marshal(job.Task)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal task: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO queue_jobs (task_id, lane, task, priority, ready_at, attempts, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, query,
		job.Task.ID,
		string(job.Lane),
		taskJSON,
		job.Priority,
		job.ReadyAt(),
		job.Attempts,
		jobStatusPending,
		now,
	)
	if err != nil {
		log.Error("failed to save queue job",
			"task_id", job.Task.ID,
			"lane", job.Lane,
			"error", err)
		return MapError(err)
	}

	return nil
}

// MarkProcessing transitions a job to processing and bumps its attempt count.
func (s *PostgresQueueStore) MarkProcessing(ctx context.Context, taskID string, lane domain.Lane) error {
	return s.updateStatus(ctx, taskID, lane, jobStatusProcessing, "")
}

// MarkCompleted transitions a job to completed.
func (s *PostgresQueueStore) MarkCompleted(ctx context.Context, taskID string, lane domain.Lane) error {
	return s.updateStatus(ctx, taskID, lane, jobStatusCompleted, "")
}

// MarkFailed transitions a job to failed, recording the error message.
func (s *PostgresQueueStore) MarkFailed(ctx context.Context, taskID string, lane domain.Lane, errMsg string) error {
	return s.updateStatus(ctx, taskID, lane, jobStatusFailed, errMsg)
}

func (s *PostgresQueueStore) updateStatus(ctx context.Context, taskID string, lane domain.Lane, status, errMsg string) error {
	query := `
		UPDATE queue_jobs
		SET status = $1,
			last_error = NULLIF($2, ''),
			attempts = attempts + CASE WHEN $1 = 'processing' THEN 1 ELSE 0 END,
			updated_at = $3
		WHERE task_id = $4 AND lane = $5
	`

	result, err := s.db.ExecContext(ctx, query, status, errMsg, time.Now().UTC(), taskID, string(lane))
	if err != nil {
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrJobNotFound
	}

	return nil
}

// PendingJobs returns the lane's pending jobs in drain order (priority
// descending, then oldest first). Used to recover the background lane at
// startup.
func (s *PostgresQueueStore) PendingJobs(ctx context.Context, lane domain.Lane) ([]*domain.QueueJob, error) {
	query := `
		SELECT task, lane, priority, ready_at, attempts, created_at
		FROM queue_jobs
		WHERE lane = $1 AND status = $2
		ORDER BY priority DESC, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, string(lane), jobStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending jobs: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var jobs []*domain.QueueJob
	for rows.Next() {
		var (
			job      domain.QueueJob
			taskJSON []byte
			laneStr  string
			readyAt  time.Time
		)
		if err := rows.Scan(&taskJSON, &laneStr, &job.Priority, &readyAt, &job.Attempts, &job.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan queue job: %w", MapError(err))
		}
		if err := json.Unmarshal(taskJSON, &job.Task); err != nil {
			return nil, fmt.Errorf("%w: stored task payload: %v", domain.ErrInvalidJobPayload, err)
		}
		job.Lane = domain.Lane(laneStr)
		job.Delay = readyAt.Sub(job.CreatedAt)
		if job.Delay < 0 {
			job.Delay = 0
		}
		jobs = append(jobs, &job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue jobs: %w", MapError(err))
	}

	return jobs, nil
}
