package v1

import (
	"errors"
	"time"
)

var errInvalidID = errors.New("id must be a positive integer")

type IngestMessageRequest struct {
	ProviderMessageID string     `json:"provider_message_id"`
	BusinessNumber    string     `json:"business_number" validate:"required"`
	CounterpartNumber string     `json:"counterpart_number" validate:"required"`
	Direction         string     `json:"direction" validate:"required,oneof=inbound outbound"`
	Type              string     `json:"type" validate:"required"`
	Text              string     `json:"text"`
	TemplateName      string     `json:"template_name"`
	TemplateLanguage  string     `json:"template_language"`
	MediaURL          string     `json:"media_url"`
	Caption           string     `json:"caption"`
	Status            string     `json:"status"`
	ErrorReason       string     `json:"error_reason"`
	CustomerName      string     `json:"customer_name"`
	Timestamp         *time.Time `json:"timestamp"`
}

type SendMessageRequest struct {
	BusinessNumber    string `json:"business_number" validate:"required,phone"`
	CounterpartNumber string `json:"counterpart_number" validate:"required,phone"`
	Type              string `json:"type" validate:"omitempty,oneof=text template"`
	Text              string `json:"text"`
	TemplateName      string `json:"template_name"`
	TemplateLanguage  string `json:"template_language"`
}

type ApplyStatusRequest struct {
	ProviderMessageID string     `json:"provider_message_id" validate:"required"`
	Status            string     `json:"status" validate:"required"`
	ErrorReason       string     `json:"error_reason"`
	Timestamp         *time.Time `json:"timestamp"`
}

type AttachProviderMessageIDRequest struct {
	ProviderMessageID string `json:"provider_message_id" validate:"required"`
}

type GetMessagesRequest struct {
	BusinessNumber    string `query:"business_number" validate:"required"`
	CounterpartNumber string `query:"counterpart_number" validate:"required"`
	Limit             int    `query:"limit" validate:"gte=0"`
}

type GetConversationsRequest struct {
	BusinessNumber string `query:"business_number" validate:"required"`
	Status         string `query:"status"`
}

type GetAnalyticsRequest struct {
	BusinessNumber string `query:"business_number" validate:"required"`
	StartDate      string `query:"start_date" validate:"required"`
	EndDate        string `query:"end_date" validate:"required"`
}

type GetDashboardRequest struct {
	BusinessNumber string `query:"business_number" validate:"required"`
}

// ERPSendMessageRequest is the body ERP systems post to /api/erp/send-message.
type ERPSendMessageRequest struct {
	APIKey      string         `json:"apiKey"`
	To          string         `json:"to"`
	Message     string         `json:"message"`
	MessageType string         `json:"messageType"`
	Priority    string         `json:"priority"`
	Metadata    map[string]any `json:"metadata"`
}

type ERPTestRequest struct {
	APIKey   string `json:"apiKey"`
	To       string `json:"to"`
	TestType string `json:"testType"`
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
