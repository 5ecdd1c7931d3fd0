package mocks

import (
	"context"

	"github.com/dukex/automaton/pkg/protocol"
	"github.com/stretchr/testify/mock"
)

// MockEmailDispatcher is a mock implementation of protocol.EmailDispatcher interface.
type MockEmailDispatcher struct {
	mock.Mock
}

func (m *MockEmailDispatcher) Send(ctx context.Context, message protocol.EmailMessage) (string, error) {
	args := m.Called(ctx, message)

	return args.String(0), args.Error(1)
}

// MockInvoiceRenderer is a mock implementation of protocol.InvoiceRenderer interface.
type MockInvoiceRenderer struct {
	mock.Mock
}

func (m *MockInvoiceRenderer) Generate(ctx context.Context, accountID, orderID, templateID string) (string, error) {
	args := m.Called(ctx, accountID, orderID, templateID)

	return args.String(0), args.Error(1)
}

// MockConversationStore is a mock implementation of protocol.ConversationStore interface.
type MockConversationStore struct {
	mock.Mock
}

func (m *MockConversationStore) Assign(ctx context.Context, accountID, conversationID, userID string) error {
	return m.Called(ctx, accountID, conversationID, userID).Error(0)
}

func (m *MockConversationStore) AddTag(ctx context.Context, accountID, conversationID, tag string) error {
	return m.Called(ctx, accountID, conversationID, tag).Error(0)
}

func (m *MockConversationStore) Close(ctx context.Context, accountID, conversationID string) error {
	return m.Called(ctx, accountID, conversationID).Error(0)
}

func (m *MockConversationStore) AddNote(ctx context.Context, accountID, conversationID, content string) error {
	return m.Called(ctx, accountID, conversationID, content).Error(0)
}

func (m *MockConversationStore) SendCannedResponse(ctx context.Context, accountID, conversationID, cannedResponseID string) error {
	return m.Called(ctx, accountID, conversationID, cannedResponseID).Error(0)
}

// MockSMSSender is a mock implementation of protocol.SMSSender interface.
type MockSMSSender struct {
	mock.Mock
}

func (m *MockSMSSender) Send(ctx context.Context, accountID, to, body string) (string, error) {
	args := m.Called(ctx, accountID, to, body)

	return args.String(0), args.Error(1)
}
