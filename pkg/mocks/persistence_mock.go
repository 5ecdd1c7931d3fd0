package mocks

import (
	"context"
	"time"

	"github.com/dukex/automaton/pkg/models"
	"github.com/dukex/automaton/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	Automations *MockAutomationRepository
	Enrollments *MockEnrollmentRepository
}

// NewMockPersistence wires fresh repository mocks.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		Automations: &MockAutomationRepository{},
		Enrollments: &MockEnrollmentRepository{},
	}
}

func (m *MockPersistence) AutomationRepository() persistence.AutomationRepository {
	return m.Automations
}

func (m *MockPersistence) EnrollmentRepository() persistence.EnrollmentRepository {
	return m.Enrollments
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockAutomationRepository is a mock implementation of persistence.AutomationRepository interface.
type MockAutomationRepository struct {
	mock.Mock
}

func (m *MockAutomationRepository) GetByID(ctx context.Context, id string) (*models.Automation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Automation), args.Error(1)
}

func (m *MockAutomationRepository) ActiveByTrigger(
	ctx context.Context,
	accountID string,
	triggerType models.TriggerType,
) ([]*models.Automation, error) {
	args := m.Called(ctx, accountID, triggerType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Automation), args.Error(1)
}

func (m *MockAutomationRepository) Save(ctx context.Context, automation *models.Automation) error {
	return m.Called(ctx, automation).Error(0)
}

// MockEnrollmentRepository is a mock implementation of persistence.EnrollmentRepository interface.
type MockEnrollmentRepository struct {
	mock.Mock
}

func (m *MockEnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return m.Called(ctx, enrollment).Error(0)
}

func (m *MockEnrollmentRepository) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Enrollment), args.Error(1)
}

func (m *MockEnrollmentRepository) UpdatePosition(ctx context.Context, id string, currentNodeID string, nextRunAt *time.Time) error {
	return m.Called(ctx, id, currentNodeID, nextRunAt).Error(0)
}

func (m *MockEnrollmentRepository) UpdateContext(ctx context.Context, id string, contextData models.ContextData) error {
	return m.Called(ctx, id, contextData).Error(0)
}

func (m *MockEnrollmentRepository) Complete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockEnrollmentRepository) CountDue(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)

	return args.Int(0), args.Error(1)
}

func (m *MockEnrollmentRepository) Due(ctx context.Context, now time.Time, limit int) ([]*models.Enrollment, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Enrollment), args.Error(1)
}
