package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/askvideo/api/internal/analysis"
	"github.com/askvideo/api/internal/client"
	"github.com/askvideo/api/internal/model"
	"github.com/askvideo/api/internal/store"
)

const (
	// TaskTypeAnalysis is the asynq task type for analysis jobs.
	TaskTypeAnalysis = "analysis:process"

	// QueueAnalysis is the asynq queue analysis tasks are enqueued on.
	QueueAnalysis = "analysis"
)

// TaskPayload is the message body carried by a queue delivery. It references
// the job by ID only; the worker re-reads authoritative state from the store.
type TaskPayload struct {
	JobID string `json:"jobId"`
}

// Enqueuer is the slice of asynq.Client the service needs.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AnalyzeService creates analysis jobs and serves job reads.
type AnalyzeService struct {
	store        store.JobStore
	resolver     client.MetadataResolver
	enqueuer     Enqueuer
	defaultModel string
	maxRetry     int
	retention    time.Duration
}

// NewAnalyzeService creates a new analyze service.
func NewAnalyzeService(jobStore store.JobStore, resolver client.MetadataResolver, enqueuer Enqueuer, defaultModel string, maxRetry int, retention time.Duration) *AnalyzeService {
	return &AnalyzeService{
		store:        jobStore,
		resolver:     resolver,
		enqueuer:     enqueuer,
		defaultModel: defaultModel,
		maxRetry:     maxRetry,
		retention:    retention,
	}
}

// StartAnalysis validates the request, resolves video metadata, persists a
// pending job and enqueues it. Metadata failures are returned synchronously;
// no job record is created for them.
func (s *AnalyzeService) StartAnalysis(ctx context.Context, req *model.AnalyzeRequest) (*model.AnalyzeResponse, error) {
	meta, err := s.resolver.ResolveVideo(ctx, req.VideoURL)
	if err != nil {
		return nil, err
	}

	var duration int64
	if meta.DurationSeconds != nil {
		duration = *meta.DurationSeconds
	}
	lowRes := analysis.LowResolution(duration, req.ForceLowResolution)

	modelID := req.Model
	if modelID == "" {
		modelID = s.defaultModel
	}

	job := &model.Job{
		ID:              uuid.New().String(),
		Status:          model.JobStatusPending,
		VideoURL:        req.VideoURL,
		VideoID:         meta.ID,
		VideoTitle:      meta.Title,
		VideoChannel:    meta.Channel,
		Question:        req.Question,
		Model:           modelID,
		LowResolution:   lowRes,
		DurationSeconds: meta.DurationSeconds,
		CreatedAt:       time.Now(),
	}

	// The record must exist before the delivery can arrive.
	if err := s.store.Insert(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	task, err := newAnalysisTask(job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	_, err = s.enqueuer.Enqueue(task,
		asynq.Queue(QueueAnalysis),
		asynq.MaxRetry(s.maxRetry),
		asynq.Retention(s.retention),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &model.AnalyzeResponse{
		JobID:  job.ID,
		Status: job.Status,
		Video: model.VideoInfo{
			ID:              meta.ID,
			Title:           meta.Title,
			Channel:         meta.Channel,
			DurationSeconds: meta.DurationSeconds,
		},
		Model:         job.Model,
		LowResolution: job.LowResolution,
		CreatedAt:     job.CreatedAt,
	}, nil
}

// GetJob returns the current state of a job.
func (s *AnalyzeService) GetJob(ctx context.Context, jobID string) (*model.JobStatusResponse, error) {
	job, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	resp := model.NewJobStatusResponse(job)
	return &resp, nil
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ListJobs returns a bounded page of jobs, newest first, optionally filtered
// by status.
func (s *AnalyzeService) ListJobs(ctx context.Context, status *model.JobStatus, limit, offset int) (*model.JobListResponse, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	jobs, err := s.store.List(ctx, store.ListFilter{Status: status}, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	resp := &model.JobListResponse{
		Jobs:   make([]model.JobStatusResponse, 0, len(jobs)),
		Limit:  limit,
		Offset: offset,
	}
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, model.NewJobStatusResponse(job))
	}
	return resp, nil
}

func newAnalysisTask(jobID string) (*asynq.Task, error) {
	data, err := json.Marshal(TaskPayload{JobID: jobID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAnalysis, data), nil
}
