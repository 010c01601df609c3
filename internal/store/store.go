// Package store persists analysis jobs. All status transitions go through the
// conditional updates below; there is no unconditional write path, so a lost
// race is always observable through the applied flag.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/askvideo/api/internal/model"
)

// ErrNotFound is returned when no job exists for the requested ID.
var ErrNotFound = errors.New("job not found")

// ListFilter narrows a job listing. A nil Status matches every job.
type ListFilter struct {
	Status *model.JobStatus
}

// JobStore is the persistence contract for analysis jobs.
type JobStore interface {
	Insert(ctx context.Context, job *model.Job) error
	GetByID(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*model.Job, error)

	// MarkProcessing transitions pending → processing and stamps startedAt.
	// applied is false when the stored status was not pending.
	MarkProcessing(ctx context.Context, id string, startedAt time.Time) (applied bool, err error)

	// MarkCompleted transitions processing → completed and records the result.
	// applied is false when the stored status was not processing.
	MarkCompleted(ctx context.Context, id, result string, completedAt time.Time, processingTime int64) (applied bool, err error)

	// MarkFailed transitions processing → failed and records the classified
	// error message. applied is false when the stored status was not processing.
	MarkFailed(ctx context.Context, id, errMsg string, completedAt time.Time, processingTime int64) (applied bool, err error)
}
