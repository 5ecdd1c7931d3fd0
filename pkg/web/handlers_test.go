package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/dukex/automaton/pkg/events"
	"github.com/dukex/automaton/pkg/mocks"
	"github.com/dukex/automaton/pkg/models"
	"github.com/dukex/automaton/pkg/persistence/file"
	"github.com/dukex/automaton/pkg/testutil"
	"github.com/dukex/automaton/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	app         *fiber.App
	bus         *mocks.MockEventBus
	persistence *file.Persistence
}

func setupTestApp(t *testing.T) *testAPI {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	persistence := file.NewPersistence(t.TempDir())
	bus := &mocks.MockEventBus{}

	handlers := web.NewAPIHandlers(logger, persistence, bus, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()
	handlers.Register(app)

	return &testAPI{app: app, bus: bus, persistence: persistence}
}

func (a *testAPI) do(t *testing.T, method, path string, body []byte) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.app.Test(req)
	require.NoError(t, err)

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, payload
}

func welcomeFlow() models.FlowDefinition {
	return testutil.Linear(
		testutil.TriggerNode("t1"),
		testutil.ActionNode("a1", models.ActionTypeSendEmail, map[string]any{"subject": "Hi"}),
	)
}

func TestAPIHandlers_ReceiveTrigger(t *testing.T) {
	api := setupTestApp(t)

	var published *events.TriggerReceived

	api.bus.On("Publish", mock.Anything, "acc-1", mock.AnythingOfType("*events.TriggerReceived")).
		Run(func(args mock.Arguments) {
			published = args.Get(2).(*events.TriggerReceived)
		}).
		Return(nil)

	resp, body := api.do(t, http.MethodPost, "/accounts/acc-1/triggers/ORDER_CREATED",
		[]byte(`{"id":"order-7","total":"150.00","billing":{"email":"ana@example.com"}}`))

	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))

	var accepted web.TriggerAccepted
	require.NoError(t, json.Unmarshal(body, &accepted))

	require.NotNil(t, published)
	assert.Equal(t, published.ID, accepted.EventID)
	assert.Equal(t, "acc-1", published.AccountID)
	assert.Equal(t, models.TriggerOrderCreated, published.TriggerType)
	assert.Equal(t, "order-7", published.Data["id"])
	assert.Equal(t, map[string]any{"email": "ana@example.com"}, published.Data["billing"])
}

func TestAPIHandlers_ReceiveTrigger_EmptyBody(t *testing.T) {
	api := setupTestApp(t)
	api.bus.On("Publish", mock.Anything, "acc-1", mock.MatchedBy(func(event *events.TriggerReceived) bool {
		return event.Data != nil && len(event.Data) == 0
	})).Return(nil)

	resp, _ := api.do(t, http.MethodPost, "/accounts/acc-1/triggers/CUSTOMER_CREATED", nil)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	api.bus.AssertExpectations(t)
}

func TestAPIHandlers_ReceiveTrigger_Rejected(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "unknown trigger type", path: "/accounts/acc-1/triggers/ORDER_SHIPPED", body: `{}`},
		{name: "payload is not an object", path: "/accounts/acc-1/triggers/ORDER_CREATED", body: `[1,2]`},
		{name: "invalid json", path: "/accounts/acc-1/triggers/ORDER_CREATED", body: `{"id":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := setupTestApp(t)

			resp, body := api.do(t, http.MethodPost, tt.path, []byte(tt.body))

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, string(body), "validation_error")
			api.bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAPIHandlers_ReceiveTrigger_BusUnavailable(t *testing.T) {
	api := setupTestApp(t)
	api.bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	resp, _ := api.do(t, http.MethodPost, "/accounts/acc-1/triggers/ORDER_CREATED", []byte(`{}`))

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAPIHandlers_GetEnrollment(t *testing.T) {
	api := setupTestApp(t)
	enrollment := testutil.NewEnrollment("enr-1", "auto-1", "a1", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	enrollment.ContextData.OrderID = "order-7"

	require.NoError(t, api.persistence.EnrollmentRepository().Create(context.Background(), enrollment))

	resp, body := api.do(t, http.MethodGet, "/enrollments/enr-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var response web.EnrollmentResponse
	require.NoError(t, json.Unmarshal(body, &response))
	assert.Equal(t, "enr-1", response.ID)
	assert.Equal(t, models.EnrollmentStatusActive, response.Status)
	require.NotNil(t, response.CurrentNodeID)
	assert.Equal(t, "a1", *response.CurrentNodeID)
	assert.Equal(t, "order-7", response.Context["orderId"])

	resp, body = api.do(t, http.MethodGet, "/enrollments/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "enrollment_not_found")
}

func TestAPIHandlers_SaveAutomation(t *testing.T) {
	api := setupTestApp(t)

	request, err := json.Marshal(web.SaveAutomationRequest{
		Name:           "Welcome",
		TriggerType:    models.TriggerOrderCreated,
		FlowDefinition: welcomeFlow(),
		IsActive:       true,
	})
	require.NoError(t, err)

	resp, body := api.do(t, http.MethodPut, "/accounts/acc-1/automations/auto-1", request)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, _ = api.do(t, http.MethodPut, "/accounts/acc-1/automations/auto-1", request)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = api.do(t, http.MethodGet, "/accounts/acc-1/automations/auto-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var automation models.Automation
	require.NoError(t, json.Unmarshal(body, &automation))
	assert.Equal(t, "acc-1", automation.AccountID)
	assert.Len(t, automation.FlowDefinition.Nodes, 2)

	active, err := api.persistence.AutomationRepository().ActiveByTrigger(context.Background(), "acc-1", models.TriggerOrderCreated)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	resp, _ = api.do(t, http.MethodGet, "/accounts/acc-2/automations/auto-1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = api.do(t, http.MethodPut, "/accounts/acc-2/automations/auto-1", request)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_SaveAutomation_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		request web.SaveAutomationRequest
	}{
		{
			name:    "missing name",
			request: web.SaveAutomationRequest{TriggerType: models.TriggerOrderCreated, FlowDefinition: welcomeFlow()},
		},
		{
			name: "flow without trigger",
			request: web.SaveAutomationRequest{
				Name:        "Broken",
				TriggerType: models.TriggerOrderCreated,
				FlowDefinition: models.FlowDefinition{
					Nodes: []*models.FlowNode{{ID: "a1", Type: models.NodeTypeAction}},
					Edges: []*models.FlowEdge{},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := setupTestApp(t)

			request, err := json.Marshal(tt.request)
			require.NoError(t, err)

			resp, body := api.do(t, http.MethodPut, "/accounts/acc-1/automations/auto-1", request)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
		})
	}
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	api := setupTestApp(t)

	resp, body := api.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "healthy")
}

func TestAPIHandlers_HealthCheck_Unhealthy(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	persistence := file.NewPersistence(t.TempDir() + "/missing")

	app := fiber.New()
	web.NewAPIHandlers(logger, persistence, &mocks.MockEventBus{}, validator.New()).Register(app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
