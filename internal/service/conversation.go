package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Behyna/wa-inbox/internal/constants"
	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/repository"
	"go.uber.org/zap"
)

const ConversationFilterAll = "all"

type ConversationService interface {
	Touch(ctx context.Context, cmd TouchConversationCommand) (*model.Conversation, error)
	MarkRead(ctx context.Context, conversationID int64) (*model.Conversation, error)
	Archive(ctx context.Context, conversationID int64) (*model.Conversation, error)
	Reopen(ctx context.Context, conversationID int64) (*model.Conversation, error)
	Close(ctx context.Context, conversationID int64) (*model.Conversation, error)
	GetConversation(ctx context.Context, conversationID int64) (*model.Conversation, error)
	GetConversations(ctx context.Context, query GetConversationsQuery) ([]model.Conversation, error)
}

type conversation struct {
	conversationRepo repository.ConversationRepository
	logger           *zap.Logger
}

func NewConversationService(conversationRepo repository.ConversationRepository,
	logger *zap.Logger) ConversationService {
	return &conversation{conversationRepo: conversationRepo, logger: logger}
}

// Touch creates the pair's conversation on first contact and otherwise refreshes its
// activity. Only inbound messages raise the unread counter.
func (c *conversation) Touch(ctx context.Context, cmd TouchConversationCommand) (*model.Conversation, error) {
	if cmd.BusinessNumber == "" || cmd.CounterpartNumber == "" {
		return nil, validationError(errors.New("business and counterpart numbers are required"))
	}

	if !cmd.Direction.Valid() {
		return nil, validationError(fmt.Errorf("unknown direction %q", cmd.Direction))
	}

	unreadDelta := 0
	if cmd.Direction == model.DirectionInbound {
		unreadDelta = 1
	}

	timestamp := cmd.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	timestamp = timestamp.UTC()

	conv := &model.Conversation{
		BusinessNumber:     cmd.BusinessNumber,
		CounterpartNumber:  cmd.CounterpartNumber,
		LastMessageAt:      timestamp,
		LastMessagePreview: model.TruncateRunes(cmd.Preview, model.PreviewMaxLength),
		Status:             model.ConversationStatusActive,
	}
	if cmd.CustomerName != "" {
		name := cmd.CustomerName
		conv.CustomerName = &name
	}

	if err := c.conversationRepo.Upsert(ctx, conv, unreadDelta); err != nil {
		c.logger.Error("Failed to upsert conversation",
			zap.String("businessNumber", cmd.BusinessNumber),
			zap.String("counterpartNumber", cmd.CounterpartNumber),
			zap.Error(err))
		return nil, storeError(err)
	}

	stored, err := c.conversationRepo.GetByPair(ctx, cmd.BusinessNumber, cmd.CounterpartNumber)
	if err != nil {
		c.logger.Error("Failed to read conversation after upsert",
			zap.String("businessNumber", cmd.BusinessNumber),
			zap.String("counterpartNumber", cmd.CounterpartNumber),
			zap.Error(err))
		return nil, storeError(err)
	}

	return stored, nil
}

func (c *conversation) MarkRead(ctx context.Context, conversationID int64) (*model.Conversation, error) {
	conv, err := c.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if err := c.conversationRepo.ResetUnread(ctx, conversationID); err != nil {
		c.logger.Error("Failed to reset unread counter",
			zap.Int64("conversationID", conversationID),
			zap.Error(err))
		return nil, storeError(err)
	}

	conv.UnreadCount = 0
	return conv, nil
}

func (c *conversation) Archive(ctx context.Context, conversationID int64) (*model.Conversation, error) {
	return c.transition(ctx, conversationID, model.ConversationStatusArchived)
}

func (c *conversation) Reopen(ctx context.Context, conversationID int64) (*model.Conversation, error) {
	return c.transition(ctx, conversationID, model.ConversationStatusActive)
}

func (c *conversation) Close(ctx context.Context, conversationID int64) (*model.Conversation, error) {
	return c.transition(ctx, conversationID, model.ConversationStatusClosed)
}

func (c *conversation) transition(ctx context.Context, conversationID int64,
	to model.ConversationStatus) (*model.Conversation, error) {
	conv, err := c.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if !conv.Status.CanTransition(to) {
		c.logger.Warn("Rejected conversation status transition",
			zap.Int64("conversationID", conversationID),
			zap.String("from", string(conv.Status)),
			zap.String("to", string(to)))
		return nil, NewServiceError(constants.ErrCodeConflict,
			fmt.Errorf("%w: %s to %s", ErrTransitionNotAllowed, conv.Status, to))
	}

	err = c.conversationRepo.UpdateStatus(ctx, conversationID, to, model.ConversationSources(to))
	if errors.Is(err, repository.ErrNoRowsAffected) {
		c.logger.Info("Conversation changed status concurrently",
			zap.Int64("conversationID", conversationID),
			zap.String("to", string(to)))
		return nil, NewServiceError(constants.ErrCodeConflict, ErrTransitionNotAllowed)
	}

	if err != nil {
		c.logger.Error("Failed to update conversation status",
			zap.Int64("conversationID", conversationID),
			zap.Error(err))
		return nil, storeError(err)
	}

	conv.Status = to
	return conv, nil
}

func (c *conversation) GetConversation(ctx context.Context, conversationID int64) (*model.Conversation, error) {
	conv, err := c.conversationRepo.GetByID(ctx, conversationID)
	if errors.Is(err, repository.ErrConversationNotFound) {
		return nil, NewServiceError(constants.ErrCodeNotFound, ErrConversationNotFound)
	}

	if err != nil {
		c.logger.Error("Failed to load conversation", zap.Int64("conversationID", conversationID), zap.Error(err))
		return nil, storeError(err)
	}

	return conv, nil
}

func (c *conversation) GetConversations(ctx context.Context, query GetConversationsQuery) (
	[]model.Conversation, error) {
	if query.BusinessNumber == "" {
		return nil, validationError(errors.New("business number is required"))
	}

	statuses, err := parseConversationFilter(query.Status)
	if err != nil {
		return nil, validationError(err)
	}

	conversations, err := c.conversationRepo.FindByBusiness(ctx, query.BusinessNumber, statuses)
	if err != nil {
		c.logger.Error("Failed to list conversations",
			zap.String("businessNumber", query.BusinessNumber),
			zap.Error(err))
		return nil, storeError(err)
	}

	return conversations, nil
}

// parseConversationFilter maps the list filter to statuses; a nil result means no filter.
func parseConversationFilter(filter string) ([]model.ConversationStatus, error) {
	filter = strings.ToLower(strings.TrimSpace(filter))

	switch filter {
	case "":
		return []model.ConversationStatus{model.ConversationStatusActive}, nil
	case ConversationFilterAll:
		return nil, nil
	}

	status := model.ConversationStatus(filter)
	if !status.Valid() {
		return nil, fmt.Errorf("unknown conversation status filter %q", filter)
	}

	return []model.ConversationStatus{status}, nil
}
