package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Behyna/wa-inbox/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationRepository interface {
	Upsert(ctx context.Context, conversation *model.Conversation, unreadDelta int) error
	GetByID(ctx context.Context, id int64) (*model.Conversation, error)
	GetByPair(ctx context.Context, businessNumber, counterpartNumber string) (*model.Conversation, error)
	ResetUnread(ctx context.Context, id int64) error
	UpdateStatus(ctx context.Context, id int64, to model.ConversationStatus, from []model.ConversationStatus) error
	FindByBusiness(ctx context.Context, businessNumber string, statuses []model.ConversationStatus) ([]model.Conversation, error)
	CountByStatus(ctx context.Context, businessNumber string, status model.ConversationStatus) (int64, error)
}

type Conversation struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &Conversation{db: db}
}

// Upsert inserts the conversation or, when the pair already exists, adds unreadDelta to
// the unread counter and refreshes the customer name. Activity time and preview move only
// forward, so a late event for an older message never replaces a newer preview. Status is
// left untouched on update.
func (c *Conversation) Upsert(ctx context.Context, conversation *model.Conversation, unreadDelta int) error {
	conversation.UnreadCount = unreadDelta
	db := GetTx(ctx, c.db)

	incoming := func(column string) string { return "excluded." + column }
	if db.Dialector.Name() == "mysql" {
		incoming = func(column string) string { return "VALUES(" + column + ")" }
	}
	newer := incoming("last_message_at") + " >= conversations.last_message_at"

	// MySQL applies assignments left to right, so the preview is decided before
	// last_message_at changes.
	updates := clause.Set{
		{
			Column: clause.Column{Name: "last_message_preview"},
			Value: gorm.Expr("CASE WHEN " + newer + " THEN " + incoming("last_message_preview") +
				" ELSE conversations.last_message_preview END"),
		},
		{
			Column: clause.Column{Name: "last_message_at"},
			Value: gorm.Expr("CASE WHEN " + newer + " THEN " + incoming("last_message_at") +
				" ELSE conversations.last_message_at END"),
		},
		{Column: clause.Column{Name: "unread_count"}, Value: gorm.Expr("conversations.unread_count + ?", unreadDelta)},
		{Column: clause.Column{Name: "updated_at"}, Value: time.Now()},
	}
	if conversation.CustomerName != nil {
		updates = append(updates, clause.Assignment{Column: clause.Column{Name: "customer_name"},
			Value: *conversation.CustomerName})
	}

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "business_number"}, {Name: "counterpart_number"}},
		DoUpdates: updates,
	}).Create(conversation).Error
}

func (c *Conversation) GetByID(ctx context.Context, id int64) (*model.Conversation, error) {
	var conversation model.Conversation

	err := GetTx(ctx, c.db).Where("id = ?", id).First(&conversation).Error
	if err == nil {
		return &conversation, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}

	return nil, err
}

func (c *Conversation) GetByPair(ctx context.Context, businessNumber, counterpartNumber string) (
	*model.Conversation, error) {
	var conversation model.Conversation

	err := GetTx(ctx, c.db).
		Where("business_number = ? AND counterpart_number = ?", businessNumber, counterpartNumber).
		First(&conversation).Error
	if err == nil {
		return &conversation, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}

	return nil, err
}

func (c *Conversation) ResetUnread(ctx context.Context, id int64) error {
	return GetTx(ctx, c.db).Model(&model.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"unread_count": 0,
			"updated_at":   time.Now(),
		}).Error
}

func (c *Conversation) UpdateStatus(ctx context.Context, id int64, to model.ConversationStatus,
	from []model.ConversationStatus) error {
	result := GetTx(ctx, c.db).Model(&model.Conversation{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}

func (c *Conversation) FindByBusiness(ctx context.Context, businessNumber string,
	statuses []model.ConversationStatus) ([]model.Conversation, error) {
	var conversations []model.Conversation

	query := GetTx(ctx, c.db).Where("business_number = ?", businessNumber)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	err := query.Order("last_message_at DESC").Order("id DESC").Find(&conversations).Error
	if err != nil {
		return nil, err
	}

	return conversations, nil
}

func (c *Conversation) CountByStatus(ctx context.Context, businessNumber string,
	status model.ConversationStatus) (int64, error) {
	var count int64

	err := GetTx(ctx, c.db).Model(&model.Conversation{}).
		Where("business_number = ? AND status = ?", businessNumber, status).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
