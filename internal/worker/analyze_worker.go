package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/askvideo/api/internal/service"
)

// AnalyzeWorker is the queue-consumer side of the analysis pipeline. asynq
// invokes ProcessTask once per delivery, concurrently across deliveries; a
// nil return acknowledges the delivery, an error return requests redelivery.
type AnalyzeWorker struct {
	processor *Processor
}

// NewAnalyzeWorker creates a new analyze worker.
func NewAnalyzeWorker(processor *Processor) *AnalyzeWorker {
	return &AnalyzeWorker{processor: processor}
}

// ProcessTask handles one analysis task delivery.
func (w *AnalyzeWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload service.TaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// A malformed payload never becomes valid; fail without retry.
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.JobID == "" {
		return fmt.Errorf("task payload has no job ID: %w", asynq.SkipRetry)
	}

	return w.processor.Process(ctx, payload.JobID)
}
