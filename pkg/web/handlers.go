package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukex/automaton/pkg/eventbus"
	"github.com/dukex/automaton/pkg/events"
	"github.com/dukex/automaton/pkg/models"
	"github.com/dukex/automaton/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewAPIHandlers(
	logger *slog.Logger,
	persistence persistence.Persistence,
	publisher eventbus.EventPublisher,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		persistence: persistence,
		publisher:   publisher,
		validator:   validator,
		logger:      logger.With("module", "api"),
	}
}

// ReceiveTrigger queues a domain event for the workers. Matching and
// enrollment happen asynchronously, so the response is 202.
func (h *APIHandlers) ReceiveTrigger(c fiber.Ctx) error {
	req := TriggerRequest{
		AccountID:   c.Params("accountId"),
		TriggerType: c.Params("triggerType"),
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	data := map[string]any{}

	if body := c.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &data); err != nil {
			return badRequest(c, "Invalid JSON format: payload must be an object")
		}
	}

	event := events.NewTriggerReceived(req.AccountID, models.TriggerType(req.TriggerType), data)

	err := h.publisher.Publish(c.Context(), req.AccountID, event)
	if err != nil {
		h.logger.ErrorContext(c.Context(), "Failed to publish trigger event",
			"account_id", req.AccountID,
			"trigger_type", req.TriggerType,
			"error", err)

		return unavailable(c, err)
	}

	h.logger.InfoContext(c.Context(), "Trigger event accepted",
		"event_id", event.ID,
		"account_id", req.AccountID,
		"trigger_type", req.TriggerType)

	return c.Status(fiber.StatusAccepted).JSON(TriggerAccepted{
		EventID:     event.ID,
		AccountID:   req.AccountID,
		TriggerType: event.TriggerType,
	})
}

func (h *APIHandlers) GetEnrollment(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Enrollment ID is required")
	}

	enrollment, err := h.persistence.EnrollmentRepository().GetByID(c.Context(), id)
	if err != nil {
		return handleStorageError(c, err)
	}

	return c.JSON(TransformEnrollmentResponse(enrollment))
}

func (h *APIHandlers) GetAutomation(c fiber.Ctx) error {
	accountID := c.Params("accountId")
	id := c.Params("id")

	automation, err := h.persistence.AutomationRepository().GetByID(c.Context(), id)
	if err != nil {
		return handleStorageError(c, err)
	}

	// Automations of other accounts are reported as missing.
	if automation.AccountID != accountID {
		return notFound(c, "automation_not_found", "automation not found")
	}

	return c.JSON(automation)
}

// SaveAutomation creates or replaces an automation. Enrollments already in
// flight keep running against whatever definition they load on their next step.
func (h *APIHandlers) SaveAutomation(c fiber.Ctx) error {
	accountID := c.Params("accountId")
	id := c.Params("id")

	var req SaveAutomationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	repository := h.persistence.AutomationRepository()
	now := time.Now().UTC()
	status := fiber.StatusCreated

	automation := &models.Automation{
		ID:             id,
		AccountID:      accountID,
		Name:           req.Name,
		TriggerType:    req.TriggerType,
		TriggerConfig:  req.TriggerConfig,
		FlowDefinition: req.FlowDefinition,
		IsActive:       req.IsActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	existing, err := repository.GetByID(c.Context(), id)

	switch {
	case err == nil:
		if existing.AccountID != accountID {
			return notFound(c, "automation_not_found", "automation not found")
		}

		automation.CreatedAt = existing.CreatedAt
		status = fiber.StatusOK
	case !persistence.IsAutomationNotFound(err):
		return internalError(c, err)
	}

	err = repository.Save(c.Context(), automation)
	if err != nil {
		return handleStorageError(c, err)
	}

	return c.Status(status).JSON(automation)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "Automaton API is healthy"
	repositoryCheck := "ok"
	httpStatus := http.StatusOK

	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		message = "Automaton API is unhealthy"
		repositoryCheck = err.Error()
		httpStatus = http.StatusServiceUnavailable
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// Register mounts the handlers on app.
func (h *APIHandlers) Register(app *fiber.App) {
	accounts := app.Group("/accounts/:accountId")
	accounts.Post("/triggers/:triggerType", h.ReceiveTrigger)
	accounts.Get("/automations/:id", h.GetAutomation)
	accounts.Put("/automations/:id", h.SaveAutomation)

	app.Get("/enrollments/:id", h.GetEnrollment)
	app.Get("/health", h.HealthCheck)
}
