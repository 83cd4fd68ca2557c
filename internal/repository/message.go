package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Behyna/wa-inbox/internal/model"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	GetByID(ctx context.Context, id int64) (*model.Message, error)
	GetByProviderMsgID(ctx context.Context, providerMsgID string) (*model.Message, error)
	UpdateStatus(ctx context.Context, message *model.Message, from []model.MessageStatus) error
	SetProviderMsgID(ctx context.Context, id int64, providerMsgID string) error
	FindByPair(ctx context.Context, businessNumber, counterpartNumber string, limit int) ([]model.Message, error)
}

type Message struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &Message{db: db}
}

func (m *Message) Create(ctx context.Context, message *model.Message) error {
	db := GetTx(ctx, m.db)
	err := db.Create(message).Error
	if err == nil {
		return nil
	}

	if isDuplicateKey(err) {
		return ErrMessageDuplicate
	}

	return err
}

func (m *Message) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	var message model.Message

	err := GetTx(ctx, m.db).Where("id = ?", id).First(&message).Error
	if err == nil {
		return &message, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}

	return nil, err
}

func (m *Message) GetByProviderMsgID(ctx context.Context, providerMsgID string) (*model.Message, error) {
	var message model.Message

	err := GetTx(ctx, m.db).Where("provider_msg_id = ?", providerMsgID).First(&message).Error
	if err == nil {
		return &message, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}

	return nil, err
}

// UpdateStatus moves the message to message.Status only while its stored status is one of from.
// Delivery and read timestamps keep the first value ever written.
func (m *Message) UpdateStatus(ctx context.Context, message *model.Message, from []model.MessageStatus) error {
	updates := map[string]interface{}{
		"status":     message.Status,
		"updated_at": message.UpdatedAt,
	}

	if message.DeliveredAt != nil {
		updates["delivered_at"] = gorm.Expr("COALESCE(delivered_at, ?)", *message.DeliveredAt)
	}

	if message.ReadAt != nil {
		updates["read_at"] = gorm.Expr("COALESCE(read_at, ?)", *message.ReadAt)
	}

	if message.ErrorReason != nil {
		updates["error_reason"] = *message.ErrorReason
	}

	result := GetTx(ctx, m.db).Model(&model.Message{}).
		Where("id = ? AND status IN ?", message.ID, from).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}

func (m *Message) SetProviderMsgID(ctx context.Context, id int64, providerMsgID string) error {
	result := GetTx(ctx, m.db).Model(&model.Message{}).
		Where("id = ? AND provider_msg_id IS NULL", id).
		Updates(map[string]interface{}{
			"provider_msg_id": providerMsgID,
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return ErrMessageDuplicate
		}
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}

func (m *Message) FindByPair(ctx context.Context, businessNumber, counterpartNumber string, limit int) (
	[]model.Message, error) {
	var messages []model.Message

	err := GetTx(ctx, m.db).
		Where("business_number = ? AND counterpart_number = ?", businessNumber, counterpartNumber).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}
