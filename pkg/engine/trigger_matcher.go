package engine

import (
	"strconv"
	"strings"

	"github.com/dukex/automaton/pkg/models"
)

// MatchesTrigger evaluates the automation filters against a trigger payload.
// minOrderValue requires a numeric total at or above it; requiredProductIds
// requires at least one of the ids among line_items[].product_id.
func MatchesTrigger(config models.TriggerConfig, data map[string]any) bool {
	if config.MinOrderValue != nil {
		total, ok := toFloat(data["total"])
		if !ok || total < *config.MinOrderValue {
			return false
		}
	}

	if len(config.RequiredProductIDs) > 0 {
		products := productIDs(data)

		for _, required := range config.RequiredProductIDs {
			if products[required] {
				return true
			}
		}

		return false
	}

	return true
}

func productIDs(data map[string]any) map[string]bool {
	ids := make(map[string]bool)

	items, _ := data["line_items"].([]any)
	for _, item := range items {
		lineItem, ok := item.(map[string]any)
		if !ok {
			continue
		}

		if id := stringValue(lineItem, "product_id"); id != "" {
			ids[id] = true
		}
	}

	return ids
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)

		return f, err == nil
	default:
		return 0, false
	}
}

// ResolveEmail finds the subject email in data.email or data.billing.email.
func ResolveEmail(data map[string]any) string {
	if email := stringValue(data, "email"); email != "" {
		return email
	}

	billing, _ := data["billing"].(map[string]any)

	return stringValue(billing, "email")
}

// SeedContext builds the initial enrollment context from a trigger payload.
// A bare "id" is taken as the order id only for order triggers.
func SeedContext(triggerType models.TriggerType, data map[string]any, email string) models.ContextData {
	var contextData models.ContextData

	for key, value := range data {
		contextData.Set(key, value)
	}

	contextData.Email = email

	if contextData.CustomerID == "" {
		contextData.CustomerID = firstString(data, "customer_id")
	}

	if contextData.OrderID == "" {
		contextData.OrderID = firstString(data, "order_id")
	}

	if contextData.OrderID == "" && triggerType.IsOrderEvent() {
		contextData.OrderID = firstString(data, "id")
	}

	if contextData.ConversationID == "" {
		contextData.ConversationID = firstString(data, "conversation_id")
	}

	return contextData
}

func firstString(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if value := stringValue(data, key); value != "" {
			return value
		}
	}

	return ""
}
