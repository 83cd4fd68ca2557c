package events

import "time"

type InboundMessageV1 struct {
	ProviderMessageID string    `json:"provider_message_id"`
	BusinessNumber    string    `json:"business_number"`
	From              string    `json:"from"`
	CustomerName      string    `json:"customer_name,omitempty"`
	Type              string    `json:"type"`
	Text              string    `json:"text,omitempty"`
	MediaURL          string    `json:"media_url,omitempty"`
	Caption           string    `json:"caption,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

func (m *InboundMessageV1) Validate() error {
	ve := &ValidationError{}

	if m.ProviderMessageID == "" {
		ve.add("provider_message_id", "required")
	}
	if m.BusinessNumber == "" {
		ve.add("business_number", "required")
	}
	if m.From == "" {
		ve.add("from", "required")
	}
	if m.Type == "" {
		ve.add("type", "required")
	}
	if m.Type == "text" && m.Text == "" {
		ve.add("text", "required for text")
	}

	return ve.orNil()
}
