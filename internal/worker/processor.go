package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/askvideo/api/internal/analysis"
	"github.com/askvideo/api/internal/client"
	"github.com/askvideo/api/internal/model"
	"github.com/askvideo/api/internal/store"
)

// Notifier pushes job state changes to subscribers. Implemented by the
// websocket hub; may be nil when push notifications are disabled.
type Notifier interface {
	BroadcastStatus(jobID string, status model.JobStatus)
	BroadcastComplete(jobID string, result string)
	BroadcastError(jobID, code, message string)
}

// Processor executes one analysis job end to end: it claims the job through
// the store's conditional pending→processing transition, runs the streaming
// analysis call, classifies the outcome and records exactly one terminal
// state.
//
// Process returns a non-nil error only for infrastructure faults (the store
// could not be read or written); the consumer translates that into a
// redelivery. A job that ends up failed is still a successful execution.
type Processor struct {
	store    store.JobStore
	analyzer client.VideoAnalyzer
	notifier Notifier
}

// NewProcessor creates a new job processor.
func NewProcessor(jobStore store.JobStore, analyzer client.VideoAnalyzer, notifier Notifier) *Processor {
	return &Processor{
		store:    jobStore,
		analyzer: analyzer,
		notifier: notifier,
	}
}

// Process handles one delivery for the given job ID. Deliveries are
// at-least-once: the same ID may arrive again, concurrently or later, and
// every path below that detects a duplicate returns nil so the delivery is
// acknowledged without re-running the analysis.
func (p *Processor) Process(ctx context.Context, jobID string) error {
	job, err := p.store.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The record is inserted before the task is enqueued, so a
			// missing record is permanent. Redelivery would not help.
			log.Printf("Job %s not found, dropping delivery", jobID)
			return nil
		}
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	if job.Status.Terminal() {
		log.Printf("Job %s already %s, duplicate delivery acknowledged", jobID, job.Status)
		return nil
	}
	if job.Status == model.JobStatusProcessing {
		log.Printf("Job %s already in flight, duplicate delivery acknowledged", jobID)
		return nil
	}

	// Single-flight gate: only the delivery that wins this compare-and-set
	// runs the analysis call.
	startedAt := time.Now()
	applied, err := p.store.MarkProcessing(ctx, jobID, startedAt)
	if err != nil {
		return fmt.Errorf("failed to claim job %s: %w", jobID, err)
	}
	if !applied {
		log.Printf("Job %s claimed by another delivery, acknowledging", jobID)
		return nil
	}
	p.broadcastStatus(jobID, model.JobStatusProcessing)

	log.Printf("Starting analysis job %s (model=%s lowRes=%t)", jobID, job.Model, job.LowResolution)

	text, err := p.analyzer.AnalyzeVideo(ctx, &client.AnalyzeVideoRequest{
		VideoURL:      job.VideoURL,
		Question:      job.Question,
		Model:         job.Model,
		LowResolution: job.LowResolution,
	})
	if err != nil {
		return p.finishFailed(ctx, jobID, startedAt, analysis.ClassifyProviderError(err.Error()))
	}
	if strings.TrimSpace(text) == "" {
		return p.finishFailed(ctx, jobID, startedAt, analysis.NoAnalysisMessage)
	}
	return p.finishCompleted(ctx, jobID, startedAt, text)
}

func (p *Processor) finishCompleted(ctx context.Context, jobID string, startedAt time.Time, result string) error {
	completedAt := time.Now()
	processingTime := int64(completedAt.Sub(startedAt).Seconds())

	applied, err := p.store.MarkCompleted(ctx, jobID, result, completedAt, processingTime)
	if err != nil {
		return fmt.Errorf("failed to record completion of job %s: %w", jobID, err)
	}
	if !applied {
		// Unreachable when the single-flight gate works; the stored state
		// is left untouched.
		log.Printf("Rejected out-of-order completion for job %s", jobID)
		return nil
	}

	p.broadcastComplete(jobID, result)
	log.Printf("Analysis job %s completed in %ds", jobID, processingTime)
	return nil
}

func (p *Processor) finishFailed(ctx context.Context, jobID string, startedAt time.Time, message string) error {
	completedAt := time.Now()
	processingTime := int64(completedAt.Sub(startedAt).Seconds())

	applied, err := p.store.MarkFailed(ctx, jobID, message, completedAt, processingTime)
	if err != nil {
		return fmt.Errorf("failed to record failure of job %s: %w", jobID, err)
	}
	if !applied {
		log.Printf("Rejected out-of-order failure for job %s", jobID)
		return nil
	}

	p.broadcastError(jobID, message)
	log.Printf("Analysis job %s failed: %s", jobID, message)
	return nil
}

func (p *Processor) broadcastStatus(jobID string, status model.JobStatus) {
	if p.notifier != nil {
		p.notifier.BroadcastStatus(jobID, status)
	}
}

func (p *Processor) broadcastComplete(jobID, result string) {
	if p.notifier != nil {
		p.notifier.BroadcastComplete(jobID, result)
	}
}

func (p *Processor) broadcastError(jobID, message string) {
	if p.notifier != nil {
		p.notifier.BroadcastError(jobID, "ANALYSIS_FAILED", message)
	}
}
