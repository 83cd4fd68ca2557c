// Package events defines the queue contracts exchanged between webhook intake and
// the webhook worker.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	TypeInboundMessageV1 = "wa.inbound.v1"
	TypeStatusUpdateV1   = "wa.status.v1"

	Producer = "wa-inbox"
)

type Meta struct {
	// Unique event ID
	ID string `json:"id"`
	// Event name and version, e.g. wa.inbound.v1
	Type string `json:"type"`
	// Timestamp when the event was emitted
	Time time.Time `json:"time"`
	// Emitting service
	Producer string `json:"producer,omitempty"`
	// Webhook delivery the event was split from
	CorrelationID string `json:"correlation_id,omitempty"`
}

type Envelope[T any] struct {
	Meta Meta `json:"meta"`
	Data T    `json:"data"`
}

func NewMeta(eventType, correlationID string) Meta {
	return Meta{
		ID:            uuid.NewString(),
		Type:          eventType,
		Time:          time.Now().UTC(),
		Producer:      Producer,
		CorrelationID: correlationID,
	}
}

// Decode unmarshals body and checks the envelope type matches eventType.
func Decode[T any](body []byte, eventType string) (Envelope[T], error) {
	var envelope Envelope[T]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return envelope, fmt.Errorf("%w: %v", ErrInvalidContract, err)
	}

	if envelope.Meta.Type != eventType {
		return envelope, &ValidationError{Issues: []ValidationIssue{{Field: "meta.type", Reason: "expected " + eventType}}}
	}

	return envelope, nil
}
