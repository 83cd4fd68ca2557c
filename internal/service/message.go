package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Behyna/wa-inbox/internal/constants"
	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/repository"
	"go.uber.org/zap"
)

const (
	DefaultMessagesLimit = 50
	MaxMessagesLimit     = 200
)

type MessageService interface {
	GetMessages(ctx context.Context, query GetMessagesQuery) ([]model.Message, error)
	GetMessage(ctx context.Context, messageID int64) (*model.Message, error)
	GetByProviderMessageID(ctx context.Context, providerMsgID string) (*model.Message, error)
}

type message struct {
	messageRepo repository.MessageRepository
	logger      *zap.Logger
}

func NewMessageService(messageRepo repository.MessageRepository, logger *zap.Logger) MessageService {
	return &message{messageRepo: messageRepo, logger: logger}
}

// GetMessages returns the pair's thread newest first.
func (m *message) GetMessages(ctx context.Context, query GetMessagesQuery) ([]model.Message, error) {
	if strings.TrimSpace(query.BusinessNumber) == "" || strings.TrimSpace(query.CounterpartNumber) == "" {
		return nil, validationError(errors.New("business and counterpart numbers are required"))
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultMessagesLimit
	}
	if limit > MaxMessagesLimit {
		limit = MaxMessagesLimit
	}

	messages, err := m.messageRepo.FindByPair(ctx, query.BusinessNumber, query.CounterpartNumber, limit)
	if err != nil {
		m.logger.Error("Failed to list messages",
			zap.String("businessNumber", query.BusinessNumber),
			zap.String("counterpartNumber", query.CounterpartNumber),
			zap.Error(err))
		return nil, storeError(err)
	}

	return messages, nil
}

func (m *message) GetMessage(ctx context.Context, messageID int64) (*model.Message, error) {
	msg, err := m.messageRepo.GetByID(ctx, messageID)
	return m.lookup(msg, err, zap.Int64("messageID", messageID))
}

func (m *message) GetByProviderMessageID(ctx context.Context, providerMsgID string) (*model.Message, error) {
	if strings.TrimSpace(providerMsgID) == "" {
		return nil, validationError(errors.New("provider message id is required"))
	}

	msg, err := m.messageRepo.GetByProviderMsgID(ctx, providerMsgID)
	return m.lookup(msg, err, zap.String("providerMessageID", providerMsgID))
}

func (m *message) lookup(msg *model.Message, err error, key zap.Field) (*model.Message, error) {
	if err == nil {
		return msg, nil
	}

	if errors.Is(err, repository.ErrMessageNotFound) {
		return nil, NewServiceError(constants.ErrCodeNotFound, ErrMessageNotFound)
	}

	m.logger.Error("Failed to load message", key, zap.Error(err))
	return nil, storeError(err)
}
