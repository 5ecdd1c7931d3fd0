package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/automaton/pkg/engine"
	"github.com/dukex/automaton/pkg/eventbus"
	"github.com/dukex/automaton/pkg/events"
	"github.com/dukex/automaton/pkg/otelhelper"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type WorkerManager struct {
	id       string
	logger   *slog.Logger
	engine   *engine.Engine
	ticker   *engine.Ticker
	eventBus eventbus.EventBus
	tracer   trace.Tracer
}

func NewWorkerManager(
	id string,
	logger *slog.Logger,
	automationEngine *engine.Engine,
	ticker *engine.Ticker,
	eventBus eventbus.EventBus,
) *WorkerManager {
	return &WorkerManager{
		id:       id,
		logger:   logger.With("module", "automaton-worker", "worker_id", id),
		engine:   automationEngine,
		ticker:   ticker,
		eventBus: eventBus,
		tracer:   otel.Tracer("automaton/worker"),
	}
}

// Start subscribes to trigger events and schedules the ticker every
// tickInterval. It blocks until ctx is done or the process is signalled.
func (w *WorkerManager) Start(ctx context.Context, tickInterval time.Duration) error {
	w.logger.InfoContext(ctx, "Starting worker manager", "tick_interval", tickInterval)

	err := w.eventBus.Handle(events.TriggerReceivedEvent, w.handleTriggerReceived)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	scheduler, err := w.schedule(ctx, tickInterval)
	if err != nil {
		return err
	}

	scheduler.Start()

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()
	w.logger.InfoContext(ctx, "Shutting down worker...")

	// Waits for a running tick to finish.
	<-scheduler.Stop().Done()

	return nil
}

// schedule registers the tick job. Overlapping ticks are skipped so one batch
// is never processed by two ticks of the same worker.
func (w *WorkerManager) schedule(ctx context.Context, tickInterval time.Duration) (*cron.Cron, error) {
	if tickInterval <= 0 {
		return nil, fmt.Errorf("tick interval must be positive, got %s", tickInterval)
	}

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(w.logger.Handler(), slog.LevelInfo))

	scheduler := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLogger),
		cron.Recover(cronLogger),
	))

	_, err := scheduler.AddFunc("@every "+tickInterval.String(), func() {
		w.tick(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule ticker: %w", err)
	}

	return scheduler, nil
}

func (w *WorkerManager) tick(ctx context.Context) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "worker.tick",
		attribute.String(otelhelper.WorkerIDKey, w.id),
	)
	defer span.End()

	result, err := w.ticker.Run(ctx)
	if err != nil {
		otelhelper.SetError(span, err)
		w.logger.ErrorContext(ctx, "Tick failed", "error", err)

		return
	}

	span.SetAttributes(
		attribute.Int("automaton.tick.due", result.Due),
		attribute.Int("automaton.tick.processed", result.Processed),
		attribute.Int("automaton.tick.failed", result.Failed),
	)

	if result.Failed > 0 {
		w.logger.WarnContext(ctx, "Tick finished with failures", "processed", result.Processed, "failed", result.Failed)
	}
}

// handleTriggerReceived enrolls the event subject. Failures are logged and the
// event is acknowledged: a redelivery would enroll again into the automations
// that already succeeded.
func (w *WorkerManager) handleTriggerReceived(ctx context.Context, event any) error {
	triggerEvent, ok := event.(*events.TriggerReceived)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for TriggerReceived")

		return nil
	}

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "worker.trigger_received",
		attribute.String(otelhelper.WorkerIDKey, w.id),
		attribute.String(otelhelper.EventIDKey, triggerEvent.ID),
		attribute.String(otelhelper.AccountIDKey, triggerEvent.AccountID),
		attribute.String(otelhelper.TriggerTypeKey, string(triggerEvent.TriggerType)),
	)
	defer span.End()

	logger := w.logger.With(
		"event_id", triggerEvent.ID,
		"account_id", triggerEvent.AccountID,
		"trigger_type", triggerEvent.TriggerType,
	)

	err := triggerEvent.Validate()
	if err != nil {
		logger.WarnContext(ctx, "Dropping invalid trigger event", "error", err)

		return nil
	}

	logger.InfoContext(ctx, "Processing trigger event")

	err = w.engine.ProcessTrigger(ctx, triggerEvent.AccountID, triggerEvent.TriggerType, triggerEvent.Data)
	if err != nil {
		otelhelper.SetError(span, err)
		logger.ErrorContext(ctx, "Failed to process trigger event", "error", err)
	}

	return nil
}
