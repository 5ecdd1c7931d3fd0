package models

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Keys of the fields the engine itself reads from the enrollment context.
const (
	ContextKeyEmail          = "email"
	ContextKeyCustomerID     = "customerId"
	ContextKeyOrderID        = "orderId"
	ContextKeyConversationID = "conversationId"
	ContextKeyAttachments    = "attachments"
)

// Attachment is a file reference carried between steps, e.g. a rendered invoice
// consumed by a later SEND_EMAIL step.
type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// ContextData is the accumulating state of an enrollment.
// Fields the engine reads are typed; everything else (the trigger payload and
// handler specific data) lives in Extra. The JSON form is one flat object.
type ContextData struct {
	Email          string
	CustomerID     string
	OrderID        string
	ConversationID string
	Attachments    []Attachment
	Extra          map[string]any
}

// Get returns a value from the merged view of the context.
func (c *ContextData) Get(key string) (any, bool) {
	value, ok := c.Map()[key]

	return value, ok
}

// Set stores handler specific data. Known keys are routed to their typed field.
// An attachments value that is not a list of {filename, url} objects stays in
// Extra untouched.
func (c *ContextData) Set(key string, value any) {
	switch key {
	case ContextKeyEmail:
		c.Email = stringify(value)
	case ContextKeyCustomerID:
		c.CustomerID = stringify(value)
	case ContextKeyOrderID:
		c.OrderID = stringify(value)
	case ContextKeyConversationID:
		c.ConversationID = stringify(value)
	case ContextKeyAttachments:
		if attachments, ok := decodeAttachments(value); ok {
			c.Attachments = attachments
			delete(c.Extra, key)

			return
		}

		c.setExtra(key, value)
	default:
		c.setExtra(key, value)
	}
}

func (c *ContextData) setExtra(key string, value any) {
	if c.Extra == nil {
		c.Extra = make(map[string]any)
	}

	c.Extra[key] = value
}

// decodeAttachments accepts []Attachment or a JSON-decoded list of objects that
// each carry a url.
func decodeAttachments(value any) ([]Attachment, bool) {
	switch v := value.(type) {
	case []Attachment:
		return v, true
	case []any:
		attachments := make([]Attachment, 0, len(v))

		for _, item := range v {
			object, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}

			url, _ := object["url"].(string)
			if url == "" {
				return nil, false
			}

			filename, _ := object["filename"].(string)
			attachments = append(attachments, Attachment{Filename: filename, URL: url})
		}

		return attachments, true
	default:
		return nil, false
	}
}

// AddAttachment appends an attachment for later steps.
func (c *ContextData) AddAttachment(attachment Attachment) {
	c.Attachments = append(c.Attachments, attachment)
}

// Map returns the merged view of the context used by templates and conditions.
func (c *ContextData) Map() map[string]any {
	merged := make(map[string]any, len(c.Extra)+5)
	maps.Copy(merged, c.Extra)

	setIfPresent(merged, ContextKeyEmail, c.Email)
	setIfPresent(merged, ContextKeyCustomerID, c.CustomerID)
	setIfPresent(merged, ContextKeyOrderID, c.OrderID)
	setIfPresent(merged, ContextKeyConversationID, c.ConversationID)

	if len(c.Attachments) > 0 {
		attachments := make([]any, 0, len(c.Attachments))
		for _, a := range c.Attachments {
			attachments = append(attachments, map[string]any{"filename": a.Filename, "url": a.URL})
		}

		merged[ContextKeyAttachments] = attachments
	}

	return merged
}

// MarshalJSON flattens the context into a single object.
func (c ContextData) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Map())
}

// UnmarshalJSON splits a flat object into typed fields and Extra.
func (c *ContextData) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("failed to unmarshal context data: %w", err)
	}

	*c = ContextData{Extra: make(map[string]any)}

	for key, value := range raw {
		var decoded any

		err := json.Unmarshal(value, &decoded)
		if err != nil {
			return fmt.Errorf("failed to unmarshal context key %s: %w", key, err)
		}

		c.Set(key, decoded)
	}

	return nil
}

func setIfPresent(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}

		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
