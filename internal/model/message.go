package model

import (
	"time"
	"unicode/utf8"
)

type MessageStatus string

const (
	MessageStatusQueued    MessageStatus = "queued"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusFailed    MessageStatus = "failed"
)

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeTemplate MessageType = "template"
	MessageTypeImage    MessageType = "image"
	MessageTypeDocument MessageType = "document"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeVideo    MessageType = "video"
)

type Message struct {
	ID                int64         `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	ProviderMsgID     *string       `gorm:"column:provider_msg_id;size:191;uniqueIndex:idx_provider_msg"`
	BusinessNumber    string        `gorm:"column:business_number;size:32;not null;index:idx_pair_ts,priority:1"`
	CounterpartNumber string        `gorm:"column:counterpart_number;size:32;not null;index:idx_pair_ts,priority:2"`
	Direction         Direction     `gorm:"column:direction;size:16;not null"`
	Type              MessageType   `gorm:"column:type;size:16;not null"`
	Text              string        `gorm:"column:text;type:text"`
	TemplateName      string        `gorm:"column:template_name;size:255"`
	TemplateLanguage  string        `gorm:"column:template_language;size:16"`
	MediaURL          string        `gorm:"column:media_url;size:1024"`
	Caption           string        `gorm:"column:caption;type:text"`
	Status            MessageStatus `gorm:"column:status;size:16;not null"`
	ErrorReason       *string       `gorm:"column:error_reason;type:text"`
	Timestamp         time.Time     `gorm:"column:timestamp;not null;index:idx_pair_ts,priority:3"`
	DeliveredAt       *time.Time    `gorm:"column:delivered_at"`
	ReadAt            *time.Time    `gorm:"column:read_at"`
	CreatedAt         time.Time     `gorm:"column:created_at"`
	UpdatedAt         time.Time     `gorm:"column:updated_at"`
}

func (Message) TableName() string {
	return "messages"
}

var statusRank = map[MessageStatus]int{
	MessageStatusQueued:    0,
	MessageStatusSent:      1,
	MessageStatusDelivered: 2,
	MessageStatusRead:      3,
}

func (s MessageStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == MessageStatusFailed
}

// CanTransition reports whether a message in status s may move to next.
// Failed is terminal and reachable from every other status.
func (s MessageStatus) CanTransition(next MessageStatus) bool {
	if s == MessageStatusFailed || !next.Valid() {
		return false
	}

	if next == MessageStatusFailed {
		return true
	}

	return statusRank[next] > statusRank[s]
}

// Predecessors lists the statuses from which next is reachable.
func (s MessageStatus) Predecessors() []MessageStatus {
	all := []MessageStatus{MessageStatusQueued, MessageStatusSent, MessageStatusDelivered, MessageStatusRead}

	predecessors := make([]MessageStatus, 0, len(all))
	for _, status := range all {
		if status.CanTransition(s) {
			predecessors = append(predecessors, status)
		}
	}

	return predecessors
}

func (d Direction) Valid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeTemplate, MessageTypeImage, MessageTypeDocument,
		MessageTypeAudio, MessageTypeVideo:
		return true
	}
	return false
}

func (t MessageType) IsMedia() bool {
	switch t {
	case MessageTypeImage, MessageTypeDocument, MessageTypeAudio, MessageTypeVideo:
		return true
	}
	return false
}

// Preview renders the conversation list line for the message, truncated to
// PreviewMaxLength runes.
func (m *Message) Preview() string {
	var preview string

	switch {
	case m.Type == MessageTypeTemplate:
		preview = "[template: " + m.TemplateName + "]"
	case m.Type.IsMedia():
		preview = m.Caption
		if preview == "" {
			preview = "[" + string(m.Type) + "]"
		}
	default:
		preview = m.Text
	}

	return TruncateRunes(preview, PreviewMaxLength)
}

func TruncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	return string(runes[:limit])
}
