package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askvideo/api/internal/model"
)

// PostgresStore implements JobStore on top of a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

const jobColumns = `id, status, video_url, video_id, video_title, video_channel,
	question, model, low_resolution, duration_seconds, result, error,
	processing_time, created_at, started_at, completed_at`

func (s *PostgresStore) Insert(ctx context.Context, job *model.Job) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, status, video_url, video_id, video_title, video_channel,
			question, model, low_resolution, duration_seconds, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		job.ID, job.Status, job.VideoURL, job.VideoID, job.VideoTitle, job.VideoChannel,
		job.Question, job.Model, job.LowResolution, job.DurationSeconds, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*model.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read job: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := []interface{}{}
	if filter.Status != nil {
		query += ` WHERE status = $1`
		args = append(args, *filter.Status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// MarkProcessing is the single-flight gate: the WHERE clause makes the
// transition a true compare-and-set, and the affected-row count tells the
// caller whether it won the race.
func (s *PostgresStore) MarkProcessing(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, started_at = $2 WHERE id = $3 AND status = $4`,
		model.JobStatusProcessing, startedAt, id, model.JobStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark job processing: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) MarkCompleted(ctx context.Context, id, result string, completedAt time.Time, processingTime int64) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, result = $2, completed_at = $3, processing_time = $4
		 WHERE id = $5 AND status = $6`,
		model.JobStatusCompleted, result, completedAt, processingTime,
		id, model.JobStatusProcessing,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark job completed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) MarkFailed(ctx context.Context, id, errMsg string, completedAt time.Time, processingTime int64) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, error = $2, completed_at = $3, processing_time = $4
		 WHERE id = $5 AND status = $6`,
		model.JobStatusFailed, errMsg, completedAt, processingTime,
		id, model.JobStatusProcessing,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark job failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanJob(row pgx.Row) (*model.Job, error) {
	var job model.Job
	var result *string
	err := row.Scan(
		&job.ID, &job.Status, &job.VideoURL, &job.VideoID, &job.VideoTitle,
		&job.VideoChannel, &job.Question, &job.Model, &job.LowResolution,
		&job.DurationSeconds, &result, &job.Error, &job.ProcessingTime,
		&job.CreatedAt, &job.StartedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if result != nil {
		job.Result = *result
	}
	return &job, nil
}
