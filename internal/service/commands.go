package service

import (
	"time"

	"github.com/Behyna/wa-inbox/internal/model"
)

type IngestMessageCommand struct {
	ProviderMsgID     string
	BusinessNumber    string
	CounterpartNumber string
	Direction         model.Direction
	Type              model.MessageType
	Text              string
	TemplateName      string
	TemplateLanguage  string
	MediaURL          string
	Caption           string
	Status            model.MessageStatus
	ErrorReason       string
	CustomerName      string
	Timestamp         time.Time
}

type ApplyStatusCommand struct {
	ProviderMsgID string
	Status        model.MessageStatus
	Timestamp     time.Time
	ErrorReason   string
}

type AttachProviderMessageIDCommand struct {
	MessageID     int64
	ProviderMsgID string
}

type TouchConversationCommand struct {
	BusinessNumber    string
	CounterpartNumber string
	Direction         model.Direction
	Preview           string
	CustomerName      string
	Timestamp         time.Time
}

type RecordMessageCommand struct {
	BusinessNumber    string
	CounterpartNumber string
	Direction         model.Direction
	Status            model.MessageStatus
	Timestamp         time.Time
}

type GetMessagesQuery struct {
	BusinessNumber    string
	CounterpartNumber string
	Limit             int
}

type GetConversationsQuery struct {
	BusinessNumber string
	Status         string
}

type GetAnalyticsQuery struct {
	BusinessNumber string
	StartDate      string
	EndDate        string
}

type SendMessageCommand struct {
	BusinessNumber    string
	CounterpartNumber string
	Type              model.MessageType
	Text              string
	TemplateName      string
	TemplateLanguage  string
}
