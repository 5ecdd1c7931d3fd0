package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/automaton/pkg/flow"
	"github.com/dukex/automaton/pkg/models"
	"github.com/dukex/automaton/pkg/otelhelper"
	"github.com/dukex/automaton/pkg/persistence"
	"github.com/dukex/automaton/pkg/protocol"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StepAction tells the stepper what to do after a node ran.
type StepAction string

const (
	ActionNext StepAction = "NEXT" // follow an outgoing edge now
	ActionWait StepAction = "WAIT" // state is persisted, stop until the next tick
)

// Result is the outcome of executing one node. Outcome labels the branch
// taken by CONDITION nodes and is empty otherwise.
type Result struct {
	Action  StepAction
	Outcome string
}

// Collaborators are the outbound services ACTION nodes drive.
// A nil collaborator makes its actions fail, which is logged and skipped.
type Collaborators struct {
	Email         protocol.EmailDispatcher
	Invoices      protocol.InvoiceRenderer
	Conversations protocol.ConversationStore
	SMS           protocol.SMSSender
}

// Executor runs a single node against an enrollment.
type Executor struct {
	logger        *slog.Logger
	enrollments   persistence.EnrollmentRepository
	collaborators Collaborators
	now           func() time.Time
	tracer        trace.Tracer
	handlers      map[models.ActionType]actionHandler
}

// NewExecutor creates an executor with one handler per known action type.
func NewExecutor(
	logger *slog.Logger,
	enrollments persistence.EnrollmentRepository,
	collaborators Collaborators,
	now func() time.Time,
) *Executor {
	x := &Executor{
		logger:        logger.With("module", "node_executor"),
		enrollments:   enrollments,
		collaborators: collaborators,
		now:           now,
		tracer:        otel.Tracer("automaton/engine"),
	}

	x.handlers = map[models.ActionType]actionHandler{
		models.ActionTypeSendEmail:          x.sendEmail,
		models.ActionTypeGenerateInvoice:    x.generateInvoice,
		models.ActionTypeAssignConversation: x.assignConversation,
		models.ActionTypeAddTag:             x.addTag,
		models.ActionTypeCloseConversation:  x.closeConversation,
		models.ActionTypeAddNote:            x.addNote,
		models.ActionTypeSendCannedResponse: x.sendCannedResponse,
		models.ActionTypeSendSMS:            x.sendSMS,
	}

	return x
}

// Handles reports whether actionType has a handler.
func (x *Executor) Handles(actionType models.ActionType) bool {
	_, ok := x.handlers[actionType]

	return ok
}

// Execute runs node for enrollment. Only storage failures are returned;
// ACTION failures are logged and the flow moves on.
func (x *Executor) Execute(
	ctx context.Context,
	automation *models.Automation,
	enrollment *models.Enrollment,
	node *models.FlowNode,
) (Result, error) {
	attrs := []attribute.KeyValue{
		attribute.String(otelhelper.EnrollmentIDKey, enrollment.ID),
		attribute.String(otelhelper.AutomationIDKey, automation.ID),
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
	}

	if node.Type == models.NodeTypeAction {
		attrs = append(attrs, attribute.String(otelhelper.ActionTypeKey, string(node.ActionType())))
	}

	ctx, span := otelhelper.StartSpan(ctx, x.tracer, "engine.execute_node", attrs...)
	defer span.End()

	result, err := x.execute(ctx, automation, enrollment, node)
	if err != nil {
		otelhelper.SetError(span, err)
	}

	return result, err
}

func (x *Executor) execute(
	ctx context.Context,
	automation *models.Automation,
	enrollment *models.Enrollment,
	node *models.FlowNode,
) (Result, error) {
	switch node.Type {
	case models.NodeTypeCondition:
		outcome := models.OutcomeFalse
		if flow.EvaluateCondition(node.Data, enrollment.ContextData.Map()) {
			outcome = models.OutcomeTrue
		}

		return Result{Action: ActionNext, Outcome: outcome}, nil

	case models.NodeTypeDelay:
		if enrollment.NextRunAt != nil {
			return Result{Action: ActionNext}, nil
		}

		// Reached without a wake time: schedule the delay from now.
		now := x.now()
		wake := now.Add(flow.CalculateDelayDuration(node.Data))

		err := x.enrollments.UpdatePosition(ctx, enrollment.ID, node.ID, &wake)
		if err != nil {
			return Result{}, fmt.Errorf("failed to schedule delay: %w", err)
		}

		enrollment.MoveTo(node.ID, wake, now)

		return Result{Action: ActionWait}, nil

	case models.NodeTypeAction:
		x.runAction(ctx, automation, enrollment, node)

		return Result{Action: ActionNext}, nil

	default:
		return Result{Action: ActionNext}, nil
	}
}

func (x *Executor) runAction(
	ctx context.Context,
	automation *models.Automation,
	enrollment *models.Enrollment,
	node *models.FlowNode,
) {
	actionType := node.ActionType()
	logger := x.logger.With(
		"enrollment_id", enrollment.ID,
		"automation_id", automation.ID,
		"node_id", node.ID,
		"action_type", actionType,
	)

	handler, ok := x.handlers[actionType]
	if !ok {
		logger.WarnContext(ctx, "Skipping unknown action type")

		return
	}

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Action panicked", "panic", r)
		}
	}()

	err := handler(ctx, &actionRun{
		automation: automation,
		enrollment: enrollment,
		node:       node,
		data:       node.Data,
		logger:     logger,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Action failed", "error", err)

		return
	}

	logger.DebugContext(ctx, "Action executed")
}

func (x *Executor) saveContext(ctx context.Context, enrollment *models.Enrollment) error {
	err := x.enrollments.UpdateContext(ctx, enrollment.ID, enrollment.ContextData)
	if err != nil {
		return fmt.Errorf("failed to persist context: %w", err)
	}

	return nil
}
