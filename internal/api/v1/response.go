package v1

import (
	"time"

	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/service"
)

type MessageResponse struct {
	ID                int64      `json:"id"`
	ProviderMessageID string     `json:"provider_message_id,omitempty"`
	BusinessNumber    string     `json:"business_number"`
	CounterpartNumber string     `json:"counterpart_number"`
	Direction         string     `json:"direction"`
	Type              string     `json:"type"`
	Text              string     `json:"text,omitempty"`
	TemplateName      string     `json:"template_name,omitempty"`
	TemplateLanguage  string     `json:"template_language,omitempty"`
	MediaURL          string     `json:"media_url,omitempty"`
	Caption           string     `json:"caption,omitempty"`
	Status            string     `json:"status"`
	ErrorReason       string     `json:"error_reason,omitempty"`
	Timestamp         time.Time  `json:"timestamp"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
	ReadAt            *time.Time `json:"read_at,omitempty"`
}

type GetMessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
	Total    int               `json:"total"`
}

type ApplyStatusResponse struct {
	Applied bool            `json:"applied"`
	Message MessageResponse `json:"message"`
}

type ConversationResponse struct {
	ID                 int64     `json:"id"`
	BusinessNumber     string    `json:"business_number"`
	CounterpartNumber  string    `json:"counterpart_number"`
	CustomerName       string    `json:"customer_name,omitempty"`
	LastMessageAt      time.Time `json:"last_message_at"`
	LastMessagePreview string    `json:"last_message_preview"`
	UnreadCount        int       `json:"unread_count"`
	Status             string    `json:"status"`
}

type GetConversationsResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
	Total         int                    `json:"total"`
}

type DailyMetricsResponse struct {
	Day                 string    `json:"day"`
	TotalMessages       int64     `json:"total_messages"`
	InboundMessages     int64     `json:"inbound_messages"`
	OutboundMessages    int64     `json:"outbound_messages"`
	UniqueCustomers     int64     `json:"unique_customers"`
	AverageResponseTime float64   `json:"average_response_time"`
	MessagesByHour      [24]int64 `json:"messages_by_hour"`
}

type GetAnalyticsResponse struct {
	BusinessNumber string                 `json:"business_number"`
	Days           []DailyMetricsResponse `json:"days"`
}

type WebhookResponse struct {
	Received bool                  `json:"received"`
	Result   service.WebhookResult `json:"result"`
}

type ERPMessageResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Timestamp string `json:"timestamp"`
	To        string `json:"to"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

type ERPMessageStatusResponse struct {
	MessageID   string `json:"messageId"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	DeliveredAt string `json:"deliveredAt,omitempty"`
	ReadAt      string `json:"readAt,omitempty"`
	Error       string `json:"error,omitempty"`
}

type ERPCheck struct {
	Passed    bool   `json:"passed"`
	Message   string `json:"message"`
	MessageID string `json:"messageId,omitempty"`
}

type ERPTestResponse struct {
	Success bool                `json:"success"`
	Tests   map[string]ERPCheck `json:"tests"`
	// Milliseconds spent running the checks
	Duration  int64  `json:"duration"`
	Timestamp string `json:"timestamp"`
}

func toMessageResponse(m *model.Message) MessageResponse {
	response := MessageResponse{
		ID:                m.ID,
		BusinessNumber:    m.BusinessNumber,
		CounterpartNumber: m.CounterpartNumber,
		Direction:         string(m.Direction),
		Type:              string(m.Type),
		Text:              m.Text,
		TemplateName:      m.TemplateName,
		TemplateLanguage:  m.TemplateLanguage,
		MediaURL:          m.MediaURL,
		Caption:           m.Caption,
		Status:            string(m.Status),
		Timestamp:         m.Timestamp,
		DeliveredAt:       m.DeliveredAt,
		ReadAt:            m.ReadAt,
	}

	if m.ProviderMsgID != nil {
		response.ProviderMessageID = *m.ProviderMsgID
	}
	if m.ErrorReason != nil {
		response.ErrorReason = *m.ErrorReason
	}

	return response
}

func toConversationResponse(c *model.Conversation) ConversationResponse {
	response := ConversationResponse{
		ID:                 c.ID,
		BusinessNumber:     c.BusinessNumber,
		CounterpartNumber:  c.CounterpartNumber,
		LastMessageAt:      c.LastMessageAt,
		LastMessagePreview: c.LastMessagePreview,
		UnreadCount:        c.UnreadCount,
		Status:             string(c.Status),
	}

	if c.CustomerName != nil {
		response.CustomerName = *c.CustomerName
	}

	return response
}

func toDailyMetricsResponse(d model.DailyMetrics) DailyMetricsResponse {
	return DailyMetricsResponse{
		Day:                 d.Day,
		TotalMessages:       d.TotalMessages,
		InboundMessages:     d.InboundMessages,
		OutboundMessages:    d.OutboundMessages,
		UniqueCustomers:     d.UniqueCustomers,
		AverageResponseTime: d.AverageResponseTime,
		MessagesByHour:      d.MessagesByHour,
	}
}
