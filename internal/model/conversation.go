package model

import "time"

type ConversationStatus string

const (
	ConversationStatusActive   ConversationStatus = "active"
	ConversationStatusArchived ConversationStatus = "archived"
	ConversationStatusClosed   ConversationStatus = "closed"
)

const PreviewMaxLength = 100

type Conversation struct {
	ID                 int64              `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	BusinessNumber     string             `gorm:"column:business_number;size:32;not null;uniqueIndex:idx_conversation_pair,priority:1"`
	CounterpartNumber  string             `gorm:"column:counterpart_number;size:32;not null;uniqueIndex:idx_conversation_pair,priority:2"`
	CustomerName       *string            `gorm:"column:customer_name;size:255"`
	LastMessageAt      time.Time          `gorm:"column:last_message_at;index"`
	LastMessagePreview string             `gorm:"column:last_message_preview;size:512"`
	UnreadCount        int                `gorm:"column:unread_count;not null;default:0"`
	Status             ConversationStatus `gorm:"column:status;size:16;not null"`
	CreatedAt          time.Time          `gorm:"column:created_at"`
	UpdatedAt          time.Time          `gorm:"column:updated_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func (s ConversationStatus) Valid() bool {
	return s == ConversationStatusActive || s == ConversationStatusArchived || s == ConversationStatusClosed
}

var conversationTransitions = map[ConversationStatus][]ConversationStatus{
	ConversationStatusActive:   {ConversationStatusArchived, ConversationStatusClosed},
	ConversationStatusArchived: {ConversationStatusActive, ConversationStatusClosed},
}

func (s ConversationStatus) CanTransition(next ConversationStatus) bool {
	for _, allowed := range conversationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ConversationSources lists the statuses that may transition into next.
func ConversationSources(next ConversationStatus) []ConversationStatus {
	sources := make([]ConversationStatus, 0, 2)
	for from, targets := range conversationTransitions {
		for _, target := range targets {
			if target == next {
				sources = append(sources, from)
			}
		}
	}
	return sources
}
