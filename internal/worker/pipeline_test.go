package worker

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askvideo/api/internal/analysis"
	"github.com/askvideo/api/internal/client"
	"github.com/askvideo/api/internal/model"
	"github.com/askvideo/api/internal/service"
	"github.com/askvideo/api/internal/store"
)

// capturingEnqueuer hands enqueued tasks back to the test instead of Redis.
type capturingEnqueuer struct {
	tasks []*asynq.Task
}

func (e *capturingEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{}, nil
}

type pipelineResolver struct {
	duration *int64
}

func (r *pipelineResolver) ResolveVideo(ctx context.Context, videoURL string) (*client.VideoMetadata, error) {
	return &client.VideoMetadata{
		ID:              "dQw4w9WgXcQ",
		Title:           "Talk",
		Channel:         "ConfChannel",
		DurationSeconds: r.duration,
	}, nil
}

// pipeline wires a service, an in-memory store and a consumer together,
// simulating the queue transport with captured tasks.
type pipeline struct {
	svc     *service.AnalyzeService
	worker  *AnalyzeWorker
	created *model.AnalyzeResponse
	task    *asynq.Task
}

// runPipeline submits a job and plays the captured delivery through the
// consumer once.
func runPipeline(t *testing.T, duration int64, az client.VideoAnalyzer) *pipeline {
	t.Helper()
	ctx := context.Background()

	jobStore := store.NewMemoryStore()
	enq := &capturingEnqueuer{}
	svc := service.NewAnalyzeService(jobStore, &pipelineResolver{duration: &duration}, enq, "gemini-2.5-flash", 3, time.Hour)

	created, err := svc.StartAnalysis(ctx, &model.AnalyzeRequest{
		VideoURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Question: "summarize",
	})
	require.NoError(t, err)
	require.Len(t, enq.tasks, 1)

	w := NewAnalyzeWorker(NewProcessor(jobStore, az, nil))
	require.NoError(t, w.ProcessTask(ctx, enq.tasks[0]))

	return &pipeline{svc: svc, worker: w, created: created, task: enq.tasks[0]}
}

func TestPipeline_ShortVideoCompletes(t *testing.T) {
	az := &fakeAnalyzer{result: "The talk covers structured concurrency."}
	p := runPipeline(t, 300, az)

	assert.False(t, p.created.LowResolution)

	got, err := p.svc.GetJob(context.Background(), p.created.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, got.Status)
	assert.Equal(t, "The talk covers structured concurrency.", got.Result)
	assert.Nil(t, got.Error)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.CompletedAt)
	assert.False(t, got.StartedAt.After(*got.CompletedAt))
}

func TestPipeline_LongVideoWhitespaceResultFails(t *testing.T) {
	az := &fakeAnalyzer{result: "   \n  "}
	p := runPipeline(t, 5000, az)

	assert.True(t, p.created.LowResolution, "a 5000s video is downgraded to low resolution")

	got, err := p.svc.GetJob(context.Background(), p.created.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, got.Status)
	assert.Empty(t, got.Result)
	require.NotNil(t, got.Error)
	assert.Equal(t, analysis.NoAnalysisMessage, *got.Error)
}

func TestPipeline_RedeliveredTaskIsIdempotent(t *testing.T) {
	az := &fakeAnalyzer{result: "answer"}
	p := runPipeline(t, 300, az)

	before, err := p.svc.GetJob(context.Background(), p.created.JobID)
	require.NoError(t, err)
	require.Equal(t, model.JobStatusCompleted, before.Status)

	// Replay the same delivery after completion: acknowledged, not re-run.
	require.NoError(t, p.worker.ProcessTask(context.Background(), p.task))

	assert.Equal(t, int32(1), az.calls.Load(), "a redelivered task must not re-invoke the analyzer")

	after, err := p.svc.GetJob(context.Background(), p.created.JobID)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a redelivered task must not change a terminal job")
}
