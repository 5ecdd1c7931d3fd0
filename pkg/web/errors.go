package web

import (
	"errors"

	"github.com/dukex/automaton/pkg/flow"
	"github.com/dukex/automaton/pkg/persistence"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func unavailable(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(503).
		WithInstance(c.Path()).
		WithType("unavailable").
		WithError(err)

	return c.Status(fiber.StatusServiceUnavailable).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleStorageError maps persistence and validation errors to problem responses.
func handleStorageError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, flow.ErrInvalidDefinition):
		return badRequest(c, err.Error())
	case persistence.IsAutomationNotFound(err):
		return notFound(c, "automation_not_found", "automation not found")
	case persistence.IsEnrollmentNotFound(err):
		return notFound(c, "enrollment_not_found", "enrollment not found")
	default:
		return internalError(c, err)
	}
}
