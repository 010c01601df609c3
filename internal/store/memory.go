package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/askvideo/api/internal/model"
)

// MemoryStore is an in-memory JobStore used by tests and local development.
// It honors the same conditional-update semantics as the Postgres store.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*model.Job)}
}

func (s *MemoryStore) Insert(_ context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *MemoryStore) List(_ context.Context, filter ListFilter, limit, offset int) ([]*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var jobs []*model.Job
	for _, job := range s.jobs {
		if filter.Status != nil && job.Status != *filter.Status {
			continue
		}
		copied := *job
		jobs = append(jobs, &copied)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	if offset >= len(jobs) {
		return nil, nil
	}
	jobs = jobs[offset:]
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (s *MemoryStore) MarkProcessing(_ context.Context, id string, startedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Status != model.JobStatusPending {
		return false, nil
	}
	job.Status = model.JobStatusProcessing
	job.StartedAt = &startedAt
	return true, nil
}

func (s *MemoryStore) MarkCompleted(_ context.Context, id, result string, completedAt time.Time, processingTime int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Status != model.JobStatusProcessing {
		return false, nil
	}
	job.Status = model.JobStatusCompleted
	job.Result = result
	job.CompletedAt = &completedAt
	job.ProcessingTime = &processingTime
	return true, nil
}

func (s *MemoryStore) MarkFailed(_ context.Context, id, errMsg string, completedAt time.Time, processingTime int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Status != model.JobStatusProcessing {
		return false, nil
	}
	job.Status = model.JobStatusFailed
	job.Error = &errMsg
	job.CompletedAt = &completedAt
	job.ProcessingTime = &processingTime
	return true, nil
}
