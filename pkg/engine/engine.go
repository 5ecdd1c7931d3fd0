// Package engine runs automation flows for enrollments: it matches trigger
// events, creates enrollments and steps them through their flow graph.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/automaton/pkg/eventbus"
	"github.com/dukex/automaton/pkg/events"
	"github.com/dukex/automaton/pkg/flow"
	"github.com/dukex/automaton/pkg/lease"
	"github.com/dukex/automaton/pkg/models"
	"github.com/dukex/automaton/pkg/otelhelper"
	"github.com/dukex/automaton/pkg/persistence"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultMaxSteps = 20
	DefaultLeaseTTL = 5 * time.Minute
)

// Engine is the automation engine.
type Engine struct {
	logger      *slog.Logger
	automations persistence.AutomationRepository
	enrollments persistence.EnrollmentRepository
	executor    *Executor
	locker      lease.Locker
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	now         func() time.Time
	newID       func() string
	maxSteps    int
	leaseTTL    time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMaxSteps bounds the nodes executed by one ProcessEnrollment call.
func WithMaxSteps(maxSteps int) Option {
	return func(e *Engine) {
		if maxSteps > 0 {
			e.maxSteps = maxSteps
		}
	}
}

// WithLocker sets the lease used to keep enrollments single-stepped.
func WithLocker(locker lease.Locker) Option {
	return func(e *Engine) { e.locker = locker }
}

// WithLeaseTTL sets how long a claim on an enrollment lasts.
func WithLeaseTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.leaseTTL = ttl
		}
	}
}

// WithPublisher enables enrollment lifecycle events.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(e *Engine) { e.publisher = publisher }
}

// WithTracer replaces the global tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// WithIDGenerator replaces the enrollment id generator.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New creates an engine over p that drives collaborators for ACTION nodes.
func New(logger *slog.Logger, p persistence.Persistence, collaborators Collaborators, opts ...Option) *Engine {
	e := &Engine{
		logger:      logger.With("module", "engine"),
		automations: p.AutomationRepository(),
		enrollments: p.EnrollmentRepository(),
		tracer:      otel.Tracer("automaton/engine"),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
		maxSteps:    DefaultMaxSteps,
		leaseTTL:    DefaultLeaseTTL,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.locker == nil {
		e.locker = lease.NewMemory(e.now)
	}

	e.executor = NewExecutor(logger, e.enrollments, collaborators, e.now)
	e.executor.tracer = e.tracer

	return e
}

// ProcessTrigger enrolls the event subject into every active automation of the
// account that listens to triggerType and whose filters pass. A failing
// automation does not stop the others; their errors are joined.
func (e *Engine) ProcessTrigger(ctx context.Context, accountID string, triggerType models.TriggerType, data map[string]any) error {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.process_trigger",
		attribute.String(otelhelper.AccountIDKey, accountID),
		attribute.String(otelhelper.TriggerTypeKey, string(triggerType)),
	)
	defer span.End()

	logger := e.logger.With("account_id", accountID, "trigger_type", triggerType)

	automations, err := e.automations.ActiveByTrigger(ctx, accountID, triggerType)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to load automations: %w", err)
	}

	var errs []error

	for _, automation := range automations {
		if !MatchesTrigger(automation.TriggerConfig, data) {
			logger.DebugContext(ctx, "Trigger filters did not pass", "automation_id", automation.ID)

			continue
		}

		_, err := e.Enroll(ctx, automation, data)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to enroll", "automation_id", automation.ID, "error", err)
			errs = append(errs, fmt.Errorf("automation %s: %w", automation.ID, err))
		}
	}

	err = errors.Join(errs...)
	if err != nil {
		otelhelper.SetError(span, err)
	}

	return err
}

// Enroll creates an enrollment of automation positioned at its TRIGGER node and
// steps it right away. A payload without an email, or a flow without a TRIGGER
// node, enrolls nothing and returns a nil enrollment.
func (e *Engine) Enroll(ctx context.Context, automation *models.Automation, data map[string]any) (*models.Enrollment, error) {
	logger := e.logger.With("automation_id", automation.ID, "account_id", automation.AccountID)

	email := ResolveEmail(data)
	if email == "" {
		logger.WarnContext(ctx, "Skipping enrollment: no email in trigger data")

		return nil, nil
	}

	trigger, ok := automation.FlowDefinition.TriggerNode()
	if !ok {
		logger.WarnContext(ctx, "Skipping enrollment: automation has no TRIGGER node")

		return nil, nil
	}

	now := e.now()
	nodeID := trigger.ID
	contextData := SeedContext(automation.TriggerType, data, email)

	enrollment := &models.Enrollment{
		ID:            e.newID(),
		AutomationID:  automation.ID,
		AccountID:     automation.AccountID,
		Email:         email,
		ContextData:   contextData,
		Status:        models.EnrollmentStatusActive,
		CurrentNodeID: &nodeID,
		NextRunAt:     &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if contextData.CustomerID != "" {
		customerID := contextData.CustomerID
		enrollment.CustomerID = &customerID
	}

	err := e.enrollments.Create(ctx, enrollment)
	if err != nil {
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	logger.InfoContext(ctx, "Enrollment created", "enrollment_id", enrollment.ID)

	e.publish(ctx, enrollment.ID, events.NewEnrollmentStarted(automation.AccountID, automation.ID, enrollment.ID, email))

	err = e.ProcessEnrollment(ctx, enrollment.ID)
	if err != nil {
		return enrollment, err
	}

	return enrollment, nil
}

// ProcessEnrollment resumes an enrollment from its persisted pointer and runs
// nodes until it waits on a future wake time, completes, or reaches MaxSteps.
// Enrollments that are completed, not yet due, or leased elsewhere are left alone.
func (e *Engine) ProcessEnrollment(ctx context.Context, enrollmentID string) error {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.process_enrollment",
		attribute.String(otelhelper.EnrollmentIDKey, enrollmentID),
	)
	defer span.End()

	err := e.processEnrollment(ctx, enrollmentID)
	if err != nil {
		otelhelper.SetError(span, err)
	}

	return err
}

func (e *Engine) processEnrollment(ctx context.Context, enrollmentID string) error {
	logger := e.logger.With("enrollment_id", enrollmentID)

	release, ok, err := e.locker.Acquire(ctx, enrollmentID, e.leaseTTL)
	if err != nil {
		return fmt.Errorf("failed to lease enrollment: %w", err)
	}

	if !ok {
		logger.DebugContext(ctx, "Enrollment is leased by another worker")

		return nil
	}

	defer func() {
		releaseErr := release(context.WithoutCancel(ctx))
		if releaseErr != nil {
			logger.WarnContext(ctx, "Failed to release enrollment lease", "error", releaseErr)
		}
	}()

	enrollment, err := e.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return fmt.Errorf("failed to load enrollment: %w", err)
	}

	if !enrollment.IsDue(e.now()) {
		return nil
	}

	automation, err := e.automations.GetByID(ctx, enrollment.AutomationID)
	if err != nil {
		if persistence.IsAutomationNotFound(err) {
			logger.WarnContext(ctx, "Automation no longer exists, completing enrollment", "automation_id", enrollment.AutomationID)

			return e.complete(ctx, automation, enrollment, "")
		}

		return fmt.Errorf("failed to load automation: %w", err)
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String(otelhelper.AutomationIDKey, automation.ID),
		attribute.String(otelhelper.AccountIDKey, automation.AccountID),
	)

	definition := &automation.FlowDefinition

	for range e.maxSteps {
		node, ok := definition.Node(*enrollment.CurrentNodeID)
		if !ok {
			logger.InfoContext(ctx, "Current node no longer exists, completing enrollment", "node_id", *enrollment.CurrentNodeID)

			return e.complete(ctx, automation, enrollment, *enrollment.CurrentNodeID)
		}

		result, err := e.executor.Execute(ctx, automation, enrollment, node)
		if err != nil {
			return fmt.Errorf("failed to execute node %s: %w", node.ID, err)
		}

		if result.Action == ActionWait {
			return nil
		}

		nextID, ok := flow.FindNextNodeID(definition, node.ID, result.Outcome)
		if !ok {
			return e.complete(ctx, automation, enrollment, node.ID)
		}

		now := e.now()
		nextRunAt := now

		if next, exists := definition.Node(nextID); exists && next.IsDelay() {
			nextRunAt = now.Add(flow.CalculateDelayDuration(next.Data))
		}

		err = e.enrollments.UpdatePosition(ctx, enrollment.ID, nextID, &nextRunAt)
		if err != nil {
			return fmt.Errorf("failed to move enrollment to %s: %w", nextID, err)
		}

		enrollment.MoveTo(nextID, nextRunAt, now)

		if nextRunAt.After(now) {
			logger.DebugContext(ctx, "Enrollment waiting", "node_id", nextID, "next_run_at", nextRunAt)

			return nil
		}
	}

	logger.WarnContext(ctx, "Enrollment reached max steps in one run", "max_steps", e.maxSteps, "node_id", *enrollment.CurrentNodeID)

	return nil
}

func (e *Engine) complete(ctx context.Context, automation *models.Automation, enrollment *models.Enrollment, lastNodeID string) error {
	err := e.enrollments.Complete(ctx, enrollment.ID)
	if err != nil {
		return fmt.Errorf("failed to complete enrollment: %w", err)
	}

	enrollment.Complete(e.now())

	e.logger.InfoContext(ctx, "Enrollment completed", "enrollment_id", enrollment.ID, "automation_id", enrollment.AutomationID)

	accountID := enrollment.AccountID
	if automation != nil {
		accountID = automation.AccountID
	}

	e.publish(ctx, enrollment.ID, events.NewEnrollmentCompleted(accountID, enrollment.AutomationID, enrollment.ID, lastNodeID))

	return nil
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	err := e.publisher.Publish(ctx, key, event)
	if err != nil {
		e.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
