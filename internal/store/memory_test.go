package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askvideo/api/internal/model"
)

func newTestJob(id string) *model.Job {
	return &model.Job{
		ID:        id,
		Status:    model.JobStatusPending,
		VideoURL:  "https://www.youtube.com/watch?v=abc123",
		Question:  "what happens in this video?",
		Model:     "gemini-2.5-flash",
		CreatedAt: time.Now(),
	}
}

func TestMemoryStore_InsertAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, newTestJob("job-1")))

	job, err := s.GetByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, job.Status)

	_, err = s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, newTestJob("job-1")))

	job, err := s.GetByID(ctx, "job-1")
	require.NoError(t, err)
	job.Status = model.JobStatusCompleted

	stored, err := s.GetByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, stored.Status, "mutating a read copy must not touch stored state")
}

func TestMemoryStore_MarkProcessing(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, newTestJob("job-1")))

	started := time.Now()
	applied, err := s.MarkProcessing(ctx, "job-1", started)
	require.NoError(t, err)
	assert.True(t, applied)

	// Second attempt loses: status is no longer pending.
	applied, err = s.MarkProcessing(ctx, "job-1", time.Now())
	require.NoError(t, err)
	assert.False(t, applied)

	job, err := s.GetByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusProcessing, job.Status)
	require.NotNil(t, job.StartedAt)
	assert.True(t, job.StartedAt.Equal(started), "losing attempt must not overwrite started_at")
}

func TestMemoryStore_MarkProcessingConcurrent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, newTestJob("job-1")))

	const attempts = 16
	var wg sync.WaitGroup
	wins := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			applied, err := s.MarkProcessing(ctx, "job-1", time.Now())
			assert.NoError(t, err)
			wins <- applied
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for applied := range wins {
		if applied {
			won++
		}
	}
	assert.Equal(t, 1, won, "exactly one concurrent transition may apply")
}

func TestMemoryStore_TerminalTransitions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, newTestJob("job-1")))

	// Completing a pending job must not apply.
	applied, err := s.MarkCompleted(ctx, "job-1", "answer", time.Now(), 1)
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = s.MarkProcessing(ctx, "job-1", time.Now())
	require.NoError(t, err)

	completedAt := time.Now()
	applied, err = s.MarkCompleted(ctx, "job-1", "answer", completedAt, 7)
	require.NoError(t, err)
	assert.True(t, applied)

	// Terminal state rejects every further transition.
	applied, err = s.MarkFailed(ctx, "job-1", "boom", time.Now(), 9)
	require.NoError(t, err)
	assert.False(t, applied)

	job, err := s.GetByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, "answer", job.Result)
	assert.Nil(t, job.Error)
	require.NotNil(t, job.ProcessingTime)
	assert.Equal(t, int64(7), *job.ProcessingTime)
}

func TestMemoryStore_List(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		job := newTestJob(fmt.Sprintf("job-%d", i))
		job.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, s.Insert(ctx, job))
	}
	_, err := s.MarkProcessing(ctx, "job-4", time.Now())
	require.NoError(t, err)

	jobs, err := s.List(ctx, ListFilter{}, 3, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "job-4", jobs[0].ID, "newest first")

	pending := model.JobStatusPending
	jobs, err = s.List(ctx, ListFilter{Status: &pending}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, jobs, 4)

	jobs, err = s.List(ctx, ListFilter{}, 10, 4)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	jobs, err = s.List(ctx, ListFilter{}, 10, 99)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}
