package persistence_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dukex/automaton/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		automationErr := persistence.NewAutomationError("GetByID", "auto-123", persistence.ErrAutomationNotFound)
		enrollmentErr := persistence.NewEnrollmentError("UpdatePosition", "enr-456", persistence.ErrEnrollmentNotFound)

		assert.True(t, persistence.IsAutomationNotFound(automationErr))
		assert.True(t, persistence.IsEnrollmentNotFound(enrollmentErr))
		assert.False(t, persistence.IsAutomationNotFound(enrollmentErr))

		assert.True(t, errors.Is(automationErr, persistence.ErrAutomationNotFound))
		assert.True(t, errors.Is(enrollmentErr, persistence.ErrEnrollmentNotFound))
	})

	t.Run("wrapped errors are still recognised", func(t *testing.T) {
		err := fmt.Errorf("tick failed: %w", persistence.NewEnrollmentError("Complete", "enr-1", persistence.ErrEnrollmentNotFound))

		assert.True(t, persistence.IsEnrollmentNotFound(err))
	})

	t.Run("enrollment error contains context", func(t *testing.T) {
		err := persistence.NewEnrollmentError("UpdatePosition", "enr-456", persistence.ErrEnrollmentNotActive)

		assert.Contains(t, err.Error(), "UpdatePosition")
		assert.Contains(t, err.Error(), "enr-456")
		assert.Contains(t, err.Error(), "enrollment not active")
	})
}
