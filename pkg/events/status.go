package events

import "time"

type StatusUpdateV1 struct {
	ProviderMessageID string    `json:"provider_message_id"`
	Status            string    `json:"status"`
	Timestamp         time.Time `json:"timestamp"`
	ErrorReason       string    `json:"error_reason,omitempty"`
}

func (s *StatusUpdateV1) Validate() error {
	ve := &ValidationError{}

	if s.ProviderMessageID == "" {
		ve.add("provider_message_id", "required")
	}

	switch s.Status {
	case "sent", "delivered", "read":
		if s.ErrorReason != "" {
			ve.add("error_reason", "only allowed for failed")
		}
	case "failed":
	case "":
		ve.add("status", "required")
	default:
		ve.add("status", "unknown")
	}

	return ve.orNil()
}
