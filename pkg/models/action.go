package models

// ActionType identifies the side effect an ACTION node performs.
type ActionType string

const (
	ActionTypeSendEmail          ActionType = "SEND_EMAIL"
	ActionTypeGenerateInvoice    ActionType = "GENERATE_INVOICE"
	ActionTypeAssignConversation ActionType = "ASSIGN_CONVERSATION"
	ActionTypeAddTag             ActionType = "ADD_TAG"
	ActionTypeCloseConversation  ActionType = "CLOSE_CONVERSATION"
	ActionTypeAddNote            ActionType = "ADD_NOTE"
	ActionTypeSendCannedResponse ActionType = "SEND_CANNED_RESPONSE"
	ActionTypeSendSMS            ActionType = "SEND_SMS"
)

// ActionTypes lists every known action type. Handler tables are checked against it.
func ActionTypes() []ActionType {
	return []ActionType{
		ActionTypeSendEmail,
		ActionTypeGenerateInvoice,
		ActionTypeAssignConversation,
		ActionTypeAddTag,
		ActionTypeCloseConversation,
		ActionTypeAddNote,
		ActionTypeSendCannedResponse,
		ActionTypeSendSMS,
	}
}

// IsValid checks if the action type is known.
func (a ActionType) IsValid() bool {
	for _, known := range ActionTypes() {
		if a == known {
			return true
		}
	}

	return false
}

// IsConversationAction reports whether the action operates on an inbox conversation.
func (a ActionType) IsConversationAction() bool {
	switch a {
	case ActionTypeAssignConversation, ActionTypeAddTag, ActionTypeCloseConversation,
		ActionTypeAddNote, ActionTypeSendCannedResponse:
		return true
	default:
		return false
	}
}
