package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/automaton/pkg/persistence"
)

const (
	DefaultBatchSize            = 50
	DefaultBacklogWarnThreshold = 500
)

// TickResult summarizes one ticker pass.
type TickResult struct {
	Due       int
	Processed int
	Failed    int
}

// Ticker resumes due enrollments in batches. Run is meant to be called on a
// fixed cadence; one call processes at most BatchSize enrollments sequentially.
type Ticker struct {
	engine               *Engine
	enrollments          persistence.EnrollmentRepository
	logger               *slog.Logger
	batchSize            int
	backlogWarnThreshold int
}

// TickerOption configures a Ticker.
type TickerOption func(*Ticker)

func WithBatchSize(size int) TickerOption {
	return func(t *Ticker) {
		if size > 0 {
			t.batchSize = size
		}
	}
}

func WithBacklogWarnThreshold(threshold int) TickerOption {
	return func(t *Ticker) {
		if threshold > 0 {
			t.backlogWarnThreshold = threshold
		}
	}
}

// NewTicker creates a ticker stepping enrollments through engine.
func NewTicker(logger *slog.Logger, engine *Engine, opts ...TickerOption) *Ticker {
	t := &Ticker{
		engine:               engine,
		enrollments:          engine.enrollments,
		logger:               logger.With("module", "ticker"),
		batchSize:            DefaultBatchSize,
		backlogWarnThreshold: DefaultBacklogWarnThreshold,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Run processes one batch of due enrollments, earliest wake time first.
// Per-enrollment failures are logged and counted; only failures to query the
// backlog are returned.
func (t *Ticker) Run(ctx context.Context) (TickResult, error) {
	var result TickResult

	now := t.engine.now()

	due, err := t.enrollments.CountDue(ctx, now)
	if err != nil {
		return result, fmt.Errorf("failed to count due enrollments: %w", err)
	}

	result.Due = due

	if due == 0 {
		return result, nil
	}

	if due > t.backlogWarnThreshold {
		t.logger.WarnContext(ctx, "Enrollment backlog above threshold", "due", due, "threshold", t.backlogWarnThreshold)
	}

	batch, err := t.enrollments.Due(ctx, now, t.batchSize)
	if err != nil {
		return result, fmt.Errorf("failed to load due enrollments: %w", err)
	}

	started := time.Now()

	for _, enrollment := range batch {
		if ctx.Err() != nil {
			break
		}

		err := t.engine.ProcessEnrollment(ctx, enrollment.ID)
		if err != nil {
			result.Failed++

			t.logger.ErrorContext(ctx, "Failed to process enrollment", "enrollment_id", enrollment.ID, "error", err)

			continue
		}

		result.Processed++
	}

	t.logger.InfoContext(ctx, "Tick finished",
		"due", result.Due,
		"processed", result.Processed,
		"failed", result.Failed,
		"duration", time.Since(started),
	)

	return result, nil
}
