package engine_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/automaton/pkg/engine"
	"github.com/dukex/automaton/pkg/events"
	"github.com/dukex/automaton/pkg/lease"
	"github.com/dukex/automaton/pkg/mocks"
	"github.com/dukex/automaton/pkg/models"
	"github.com/dukex/automaton/pkg/otelhelper"
	"github.com/dukex/automaton/pkg/persistence"
	"github.com/dukex/automaton/pkg/persistence/file"
	"github.com/dukex/automaton/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type fixture struct {
	engine        *engine.Engine
	store         *file.Persistence
	clock         *clock
	email         *mocks.MockEmailDispatcher
	invoices      *mocks.MockInvoiceRenderer
	conversations *mocks.MockConversationStore
	sms           *mocks.MockSMSSender
}

func newFixture(t *testing.T, opts ...engine.Option) *fixture {
	t.Helper()

	f := &fixture{
		store:         file.NewPersistence(t.TempDir()),
		clock:         &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
		email:         &mocks.MockEmailDispatcher{},
		invoices:      &mocks.MockInvoiceRenderer{},
		conversations: &mocks.MockConversationStore{},
		sms:           &mocks.MockSMSSender{},
	}

	collaborators := engine.Collaborators{
		Email:         f.email,
		Invoices:      f.invoices,
		Conversations: f.conversations,
		SMS:           f.sms,
	}

	opts = append([]engine.Option{engine.WithClock(f.clock.Now)}, opts...)
	f.engine = engine.New(testLogger(), f.store, collaborators, opts...)

	t.Cleanup(func() {
		f.email.AssertExpectations(t)
		f.invoices.AssertExpectations(t)
		f.conversations.AssertExpectations(t)
		f.sms.AssertExpectations(t)
	})

	return f
}

func (f *fixture) save(t *testing.T, automation *models.Automation) {
	t.Helper()

	require.NoError(t, f.store.AutomationRepository().Save(t.Context(), automation))
}

func (f *fixture) enrollment(t *testing.T, id string) *models.Enrollment {
	t.Helper()

	enrollment, err := f.store.EnrollmentRepository().GetByID(t.Context(), id)
	require.NoError(t, err)

	return enrollment
}

// heldLocker behaves as if another worker always holds the lease.
type heldLocker struct {
	keys []string
}

func (l *heldLocker) Acquire(_ context.Context, key string, _ time.Duration) (lease.Release, bool, error) {
	l.keys = append(l.keys, key)

	return nil, false, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func fixedID(id string) engine.Option {
	return engine.WithIDGenerator(func() string { return id })
}

func automation(id string, nodes []*models.FlowNode, edges []*models.FlowEdge) *models.Automation {
	return &models.Automation{
		ID:             id,
		AccountID:      "acc-1",
		Name:           id,
		TriggerType:    models.TriggerOrderCreated,
		FlowDefinition: models.FlowDefinition{Nodes: nodes, Edges: edges},
		IsActive:       true,
	}
}

func chain(nodeIDs ...string) []*models.FlowEdge {
	edges := make([]*models.FlowEdge, 0, len(nodeIDs))

	for i := 1; i < len(nodeIDs); i++ {
		edges = append(edges, &models.FlowEdge{
			ID:     "e" + nodeIDs[i-1] + nodeIDs[i],
			Source: nodeIDs[i-1],
			Target: nodeIDs[i],
		})
	}

	return edges
}

func withSubject(subject string) any {
	return mock.MatchedBy(func(message protocol.EmailMessage) bool {
		return message.Subject == subject
	})
}

func orderPayload() map[string]any {
	return map[string]any{
		"id":       float64(1001),
		"email":    "ana@example.com",
		"total":    float64(150),
		"customer": map[string]any{"firstName": "Ana"},
	}
}

func TestEngine_LinearFlowWithDelay(t *testing.T) {
	f := newFixture(t, fixedID("enr-1"))
	ctx := t.Context()

	f.save(t, automation("welcome", []*models.FlowNode{
		{ID: "t1", Type: models.NodeTypeTrigger},
		{ID: "a1", Type: models.NodeTypeAction, Data: map[string]any{
			"actionType": "SEND_EMAIL", "emailAccountId": "ea-1",
			"subject": "Welcome {{customer.firstName}}", "body": "<p>Order {{orderId}}</p>",
		}},
		{ID: "d1", Type: models.NodeTypeDelay, Data: map[string]any{"value": "2", "unit": "days"}},
		{ID: "a2", Type: models.NodeTypeAction, Data: map[string]any{"subject": "Still there, {{customer.firstName}}?"}},
	}, chain("t1", "a1", "d1", "a2")))

	f.email.On("Send", mock.Anything, mock.MatchedBy(func(message protocol.EmailMessage) bool {
		return message.Subject == "Welcome Ana" &&
			message.HTML == "<p>Order 1001</p>" &&
			message.To == "ana@example.com" &&
			message.AccountID == "acc-1" &&
			message.EmailAccountID == "ea-1"
	})).Return("msg-1", nil).Once()

	require.NoError(t, f.engine.ProcessTrigger(ctx, "acc-1", models.TriggerOrderCreated, orderPayload()))

	enrollment := f.enrollment(t, "enr-1")
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.Equal(t, "d1", *enrollment.CurrentNodeID)
	assert.True(t, enrollment.NextRunAt.Equal(f.clock.now.Add(48*time.Hour)))
	assert.Equal(t, "msg-1", enrollment.ContextData.Extra[engine.ContextKeyLastMessageID])
	assert.Equal(t, "1001", enrollment.ContextData.OrderID)

	ticker := engine.NewTicker(testLogger(), f.engine)

	f.clock.Advance(47 * time.Hour)

	result, err := ticker.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.TickResult{}, result)

	require.NoError(t, f.engine.ProcessEnrollment(ctx, "enr-1"))
	assert.Equal(t, "d1", *f.enrollment(t, "enr-1").CurrentNodeID, "not due yet")

	f.email.On("Send", mock.Anything, withSubject("Still there, Ana?")).Return("msg-2", nil).Once()

	f.clock.Advance(time.Hour)

	result, err = ticker.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.TickResult{Due: 1, Processed: 1}, result)

	enrollment = f.enrollment(t, "enr-1")
	assert.Equal(t, models.EnrollmentStatusCompleted, enrollment.Status)
	assert.Nil(t, enrollment.CurrentNodeID)
	assert.Nil(t, enrollment.NextRunAt)

	// completed enrollments are never stepped again
	require.NoError(t, f.engine.ProcessEnrollment(ctx, "enr-1"))
}

func TestEngine_ConditionBranches(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	f.save(t, automation("vip", []*models.FlowNode{
		{ID: "t1", Type: models.NodeTypeTrigger},
		{ID: "c1", Type: models.NodeTypeCondition, Data: map[string]any{"field": "total", "operator": "gt", "value": 100}},
		{ID: "x", Type: models.NodeTypeAction, Data: map[string]any{"actionType": "ADD_TAG", "tag": "vip"}},
		{ID: "y", Type: models.NodeTypeAction, Data: map[string]any{"actionType": "ADD_TAG", "tag": "regular"}},
	}, []*models.FlowEdge{
		{ID: "e1", Source: "t1", Target: "c1"},
		{ID: "e2", Source: "c1", Target: "x", SourceHandle: "true"},
		{ID: "e3", Source: "c1", Target: "y", SourceHandle: "false"},
	}))

	f.conversations.On("AddTag", mock.Anything, "acc-1", "conv-1", "vip").Return(nil).Once()
	f.conversations.On("AddTag", mock.Anything, "acc-1", "conv-2", "regular").Return(nil).Once()

	require.NoError(t, f.engine.ProcessTrigger(ctx, "acc-1", models.TriggerOrderCreated, map[string]any{
		"email": "ana@example.com", "total": float64(150), "conversationId": "conv-1",
	}))
	require.NoError(t, f.engine.ProcessTrigger(ctx, "acc-1", models.TriggerOrderCreated, map[string]any{
		"email": "bia@example.com", "total": float64(50), "conversation_id": "conv-2",
	}))
}

func TestEngine_ActionFailuresDoNotStopTheFlow(t *testing.T) {
	f := newFixture(t, fixedID("enr-1"))
	ctx := t.Context()

	f.save(t, automation("fragile", []*models.FlowNode{
		{ID: "t1", Type: models.NodeTypeTrigger},
		{ID: "a1", Type: models.NodeTypeAction, Data: map[string]any{"subject": "Hi"}},
		{ID: "a2", Type: models.NodeTypeAction, Data: map[string]any{"actionType": "SEND_SMS", "message": "Hi", "to": "+351900000000"}},
		{ID: "a3", Type: models.NodeTypeAction, Data: map[string]any{"actionType": "NOT_A_THING"}},
		{ID: "a4", Type: models.NodeTypeAction, Data: map[string]any{"actionType": "ADD_NOTE", "content": "Total {{total}}"}},
	}, chain("t1", "a1", "a2", "a3", "a4")))

	f.email.On("Send", mock.Anything, mock.Anything).Return("", assert.AnError).Once()
	f.sms.On("Send", mock.Anything, "acc-1", "+351900000000", "Hi").
		Panic("sms provider exploded").Once()
	f.conversations.On("AddNote", mock.Anything, "acc-1", "conv-1", "Total 150").Return(nil).Once()

	payload := orderPayload()
	payload["conversationId"] = "conv-1"

	require.NoError(t, f.engine.ProcessTrigger(ctx, "acc-1", models.TriggerOrderCreated, payload))

	enrollment := f.enrollment(t, "enr-1")
	assert.Equal(t, models.EnrollmentStatusCompleted, enrollment.Status)
	assert.NotContains(t, enrollment.ContextData.Extra, engine.ContextKeyLastMessageID)
}

func TestEngine_InvoiceAttachedToLaterEmail(t *testing.T) {
	f := newFixture(t, fixedID("enr-1"))
	ctx := t.Context()

	f.save(t, automation("invoice", []*models.FlowNode{
		{ID: "t1", Type: models.NodeTypeTrigger},
		{ID: "inv", Type: models.NodeTypeAction, Data: map[string]any{"actionType": "GENERATE_INVOICE", "templateId": "tpl-1"}},
		{ID: "mail", Type: models.NodeTypeAction, Data: map[string]any{"actionType": "SEND_EMAIL", "subject": "Your invoice"}},
	}, chain("t1", "inv", "mail")))

	f.invoices.On("Generate", mock.Anything, "acc-1", "1001", "tpl-1").Return("https://files.example.com/inv-1001.pdf", nil).Once()
	f.email.On("Send", mock.Anything, mock.MatchedBy(func(message protocol.EmailMessage) bool {
		return len(message.Attachments) == 1 &&
			message.Attachments[0].URL == "https://files.example.com/inv-1001.pdf" &&
			message.Attachments[0].Filename == "invoice-1001.pdf"
	})).Return("msg-1", nil).Once()

	require.NoError(t, f.engine.ProcessTrigger(ctx, "acc-1", models.TriggerOrderCreated, orderPayload()))

	enrollment := f.enrollment(t, "enr-1")
	require.Len(t, enrollment.ContextData.Attachments, 1)
	assert.Equal(t, models.EnrollmentStatusCompleted, enrollment.Status)
}

func TestEngine_MaxStepsLeavesEnrollmentActive(t *testing.T) {
	f := newFixture(t, fixedID("enr-1"), engine.WithMaxSteps(2))
	ctx := t.Context()

	// ADD_TAG without a conversation id is skipped, so the chain has no side effects.
	tag := map[string]any{"actionType": "ADD_TAG", "tag": "seen"}
	f.save(t, automation("long", []*models.FlowNode{
		{ID: "t1", Type: models.NodeTypeTrigger},
		{ID: "a1", Type: models.NodeTypeAction, Data: tag},
		{ID: "a2", Type: models.NodeTypeAction, Data: tag},
		{ID: "a3", Type: models.NodeTypeAction, Data: tag},
	}, chain("t1", "a1", "a2", "a3")))

	require.NoError(t, f.engine.ProcessTrigger(ctx, "acc-1", models.TriggerOrderCreated, orderPayload()))

	enrollment := f.enrollment(t, "enr-1")
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.Equal(t, "a2", *enrollment.CurrentNodeID)

	require.NoError(t, f.engine.ProcessEnrollment(ctx, "enr-1"))
	assert.Equal(t, models.EnrollmentStatusCompleted, f.enrollment(t, "enr-1").Status)
}

func TestEngine_CycleIsBoundedByMaxSteps(t *testing.T) {
	f := newFixture(t, fixedID("enr-1"))
	ctx := t.Context()

	f.save(t, automation("loop", []*models.FlowNode{
		{ID: "t1", Type: models.NodeTypeTrigger},
		{ID: "c1", Type: models.NodeTypeCondition},
		{ID: "c2", Type: models.NodeTypeCondition},
	}, []*models.FlowEdge{
		{ID: "e1", Source: "t1", Target: "c1"},
		{ID: "e2", Source: "c1", Target: "c2"},
		{ID: "e3", Source: "c2", Target: "c1"},
	}))

	require.NoError(t, f.engine.ProcessTrigger(ctx, "acc-1", models.TriggerOrderCreated, orderPayload()))

	enrollment := f.enrollment(t, "enr-1")
	assert.True(t, enrollment.IsActive())
}

func TestEngine_SkipsWithoutEmail(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	f.save(t, automation("welcome", []*models.FlowNode{
		{ID: "t1", Type: models.NodeTypeTrigger},
		{ID: "a1", Type: models.NodeTypeAction, Data: map[string]any{"subject": "Hi"}},
	}, chain("t1", "a1")))

	require.NoError(t, f.engine.ProcessTrigger(ctx, "acc-1", models.TriggerOrderCreated, map[string]any{"total": float64(10)}))

	due, err := f.store.EnrollmentRepository().CountDue(ctx, f.clock.now.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, due)
}

func TestEngine_EnrollWithoutTriggerNode(t *testing.T) {
	f := newFixture(t)

	enrollment, err := f.engine.Enroll(t.Context(), automation("broken", []*models.FlowNode{
		{ID: "a1", Type: models.NodeTypeAction},
	}, nil), orderPayload())

	require.NoError(t, err)
	assert.Nil(t, enrollment)
}

func TestEngine_EnrollUsesBillingEmail(t *testing.T) {
	f := newFixture(t)

	f.email.On("Send", mock.Anything, mock.MatchedBy(func(message protocol.EmailMessage) bool {
		return message.To == "billing@example.com"
	})).Return("msg-1", nil).Once()

	welcome := automation("welcome", []*models.FlowNode{
		{ID: "t1", Type: models.NodeTypeTrigger},
		{ID: "a1", Type: models.NodeTypeAction, Data: map[string]any{"subject": "Hi"}},
	}, chain("t1", "a1"))
	f.save(t, welcome)

	enrollment, err := f.engine.Enroll(t.Context(), welcome, map[string]any{
		"customer_id": float64(77),
		"billing":     map[string]any{"email": "billing@example.com"},
	})

	require.NoError(t, err)
	require.NotNil(t, enrollment)
	assert.Equal(t, "billing@example.com", enrollment.Email)
	require.NotNil(t, enrollment.CustomerID)
	assert.Equal(t, "77", *enrollment.CustomerID)
}

func TestEngine_TriggerFiltersAndScope(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	minOrderValue := 100.0
	filtered := automation("big-orders", []*models.FlowNode{
		{ID: "t1", Type: models.NodeTypeTrigger},
		{ID: "a1", Type: models.NodeTypeAction, Data: map[string]any{"subject": "Big order"}},
	}, chain("t1", "a1"))
	filtered.TriggerConfig.MinOrderValue = &minOrderValue

	inactive := automation("inactive", []*models.FlowNode{
		{ID: "t1", Type: models.NodeTypeTrigger},
		{ID: "a1", Type: models.NodeTypeAction, Data: map[string]any{"subject": "Inactive"}},
	}, chain("t1", "a1"))
	inactive.IsActive = false

	otherAccount := automation("other-account", []*models.FlowNode{
		{ID: "t1", Type: models.NodeTypeTrigger},
		{ID: "a1", Type: models.NodeTypeAction, Data: map[string]any{"subject": "Other account"}},
	}, chain("t1", "a1"))
	otherAccount.AccountID = "acc-2"

	for _, a := range []*models.Automation{filtered, inactive, otherAccount} {
		f.save(t, a)
	}

	f.email.On("Send", mock.Anything, withSubject("Big order")).Return("msg-1", nil).Once()

	payload := orderPayload()
	payload["total"] = "99.99"
	require.NoError(t, f.engine.ProcessTrigger(ctx, "acc-1", models.TriggerOrderCreated, payload))

	payload["total"] = "100.00"
	require.NoError(t, f.engine.ProcessTrigger(ctx, "acc-1", models.TriggerOrderCreated, payload))

	require.NoError(t, f.engine.ProcessTrigger(ctx, "acc-1", models.TriggerAbandonedCart, payload))
}

func TestEngine_MissingCurrentNodeCompletes(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	f.save(t, automation("edited", []*models.FlowNode{
		{ID: "t1", Type: models.NodeTypeTrigger},
	}, nil))

	removed := "removed-node"
	now := f.clock.now
	require.NoError(t, f.store.EnrollmentRepository().Create(ctx, &models.Enrollment{
		ID:            "enr-1",
		AutomationID:  "edited",
		AccountID:     "acc-1",
		Email:         "ana@example.com",
		Status:        models.EnrollmentStatusActive,
		CurrentNodeID: &removed,
		NextRunAt:     &now,
	}))

	require.NoError(t, f.engine.ProcessEnrollment(ctx, "enr-1"))
	assert.Equal(t, models.EnrollmentStatusCompleted, f.enrollment(t, "enr-1").Status)
}

func TestEngine_MissingAutomationCompletes(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	node := "t1"
	now := f.clock.now
	require.NoError(t, f.store.EnrollmentRepository().Create(ctx, &models.Enrollment{
		ID:            "enr-1",
		AutomationID:  "deleted",
		AccountID:     "acc-1",
		Email:         "ana@example.com",
		Status:        models.EnrollmentStatusActive,
		CurrentNodeID: &node,
		NextRunAt:     &now,
	}))

	require.NoError(t, f.engine.ProcessEnrollment(ctx, "enr-1"))
	assert.Equal(t, models.EnrollmentStatusCompleted, f.enrollment(t, "enr-1").Status)
}

func TestEngine_UnknownEnrollment(t *testing.T) {
	f := newFixture(t)

	err := f.engine.ProcessEnrollment(t.Context(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsEnrollmentNotFound(err))
}

func TestEngine_LeasedEnrollmentIsSkipped(t *testing.T) {
	locker := &heldLocker{}
	f := newFixture(t, fixedID("enr-1"), engine.WithLocker(locker))

	f.save(t, automation("welcome", []*models.FlowNode{
		{ID: "t1", Type: models.NodeTypeTrigger},
		{ID: "a1", Type: models.NodeTypeAction, Data: map[string]any{"subject": "Hi"}},
	}, chain("t1", "a1")))

	require.NoError(t, f.engine.ProcessTrigger(t.Context(), "acc-1", models.TriggerOrderCreated, orderPayload()))

	enrollment := f.enrollment(t, "enr-1")
	assert.Equal(t, "t1", *enrollment.CurrentNodeID)
	assert.Equal(t, []string{"enr-1"}, locker.keys)
}

func TestEngine_PublishesLifecycleEvents(t *testing.T) {
	bus := &mocks.MockEventBus{}
	f := newFixture(t, fixedID("enr-1"), engine.WithPublisher(bus))

	f.save(t, automation("welcome", []*models.FlowNode{
		{ID: "t1", Type: models.NodeTypeTrigger},
	}, nil))

	bus.On("Publish", mock.Anything, "enr-1", mock.AnythingOfType("*events.EnrollmentStarted")).Return(nil).Once()
	bus.On("Publish", mock.Anything, "enr-1", mock.MatchedBy(func(event *events.EnrollmentCompleted) bool {
		return event.AutomationID == "welcome" && event.LastNodeID == "t1" && event.AccountID == "acc-1"
	})).Return(assert.AnError).Once()

	require.NoError(t, f.engine.ProcessTrigger(t.Context(), "acc-1", models.TriggerOrderCreated, orderPayload()))

	bus.AssertExpectations(t)
	assert.Equal(t, models.EnrollmentStatusCompleted, f.enrollment(t, "enr-1").Status)
}

func TestEngine_ProcessTriggerStorageError(t *testing.T) {
	store := mocks.NewMockPersistence()
	store.Automations.On("ActiveByTrigger", mock.Anything, "acc-1", models.TriggerOrderCreated).
		Return(nil, assert.AnError)

	e := engine.New(testLogger(), store, engine.Collaborators{})

	err := e.ProcessTrigger(t.Context(), "acc-1", models.TriggerOrderCreated, orderPayload())
	require.ErrorIs(t, err, assert.AnError)
}

func TestEngine_ProcessTriggerJoinsEnrollErrors(t *testing.T) {
	store := mocks.NewMockPersistence()
	store.Automations.On("ActiveByTrigger", mock.Anything, "acc-1", models.TriggerOrderCreated).
		Return([]*models.Automation{
			automation("first", []*models.FlowNode{{ID: "t1", Type: models.NodeTypeTrigger}}, nil),
			automation("second", []*models.FlowNode{{ID: "t1", Type: models.NodeTypeTrigger}}, nil),
		}, nil)
	store.Enrollments.On("Create", mock.Anything, mock.Anything).Return(assert.AnError).Twice()

	e := engine.New(testLogger(), store, engine.Collaborators{})

	err := e.ProcessTrigger(t.Context(), "acc-1", models.TriggerOrderCreated, orderPayload())
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "automation first")
	assert.Contains(t, err.Error(), "automation second")
	store.Enrollments.AssertExpectations(t)
}

func TestEngine_TracesEachNode(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	f := newFixture(t, fixedID("enr-1"), engine.WithTracer(provider.Tracer("test")))

	f.save(t, automation("tagger", []*models.FlowNode{
		{ID: "t1", Type: models.NodeTypeTrigger},
		{ID: "a1", Type: models.NodeTypeAction, Data: map[string]any{"actionType": "ADD_TAG", "tag": "vip"}},
	}, chain("t1", "a1")))

	require.NoError(t, f.engine.ProcessTrigger(t.Context(), "acc-1", models.TriggerOrderCreated, orderPayload()))

	var nodes []map[attribute.Key]string

	for _, span := range recorder.Ended() {
		if span.Name() != "engine.execute_node" {
			continue
		}

		attrs := make(map[attribute.Key]string)
		for _, kv := range span.Attributes() {
			attrs[kv.Key] = kv.Value.AsString()
		}

		nodes = append(nodes, attrs)
	}

	require.Len(t, nodes, 2)
	assert.Equal(t, "t1", nodes[0][otelhelper.NodeIDKey])
	assert.Equal(t, "TRIGGER", nodes[0][otelhelper.NodeTypeKey])
	assert.NotContains(t, nodes[0], attribute.Key(otelhelper.ActionTypeKey))
	assert.Equal(t, "a1", nodes[1][otelhelper.NodeIDKey])
	assert.Equal(t, "ADD_TAG", nodes[1][otelhelper.ActionTypeKey])
	assert.Equal(t, "enr-1", nodes[1][otelhelper.EnrollmentIDKey])
	assert.Equal(t, "tagger", nodes[1][otelhelper.AutomationIDKey])
}
