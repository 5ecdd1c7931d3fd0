package models

// TriggerType is the domain event kind that starts enrollments.
type TriggerType string

// Built-in trigger types emitted by the store and inbox integrations.
const (
	TriggerOrderCreated        TriggerType = "ORDER_CREATED"
	TriggerOrderCompleted      TriggerType = "ORDER_COMPLETED"
	TriggerAbandonedCart       TriggerType = "ABANDONED_CART"
	TriggerCustomerCreated     TriggerType = "CUSTOMER_CREATED"
	TriggerReviewLeft          TriggerType = "REVIEW_LEFT"
	TriggerConversationCreated TriggerType = "CONVERSATION_CREATED"
	TriggerConversationClosed  TriggerType = "CONVERSATION_CLOSED"
)

// TriggerConfig holds trigger-level filters evaluated against the event payload.
// Nil or empty filters always pass.
type TriggerConfig struct {
	MinOrderValue      *float64 `json:"minOrderValue,omitempty"      validate:"omitempty,gte=0"`
	RequiredProductIDs []string `json:"requiredProductIds,omitempty"`
}

// IsOrderEvent reports whether the payload of this trigger describes an order,
// so a bare "id" in it is the order id.
func (t TriggerType) IsOrderEvent() bool {
	return t == TriggerOrderCreated || t == TriggerOrderCompleted
}
