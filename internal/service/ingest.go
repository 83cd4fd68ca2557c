package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Behyna/wa-inbox/internal/constants"
	"github.com/Behyna/wa-inbox/internal/metrics"
	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/repository"
	"go.uber.org/zap"
)

type IngestService interface {
	Ingest(ctx context.Context, cmd IngestMessageCommand) (*model.Message, error)
}

type ingest struct {
	messageRepo  repository.MessageRepository
	txManager    repository.TxManager
	conversation ConversationService
	analytics    AnalyticsService
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

func NewIngestService(messageRepo repository.MessageRepository, txManager repository.TxManager,
	conversation ConversationService, analytics AnalyticsService, m *metrics.Metrics, logger *zap.Logger) IngestService {
	return &ingest{
		messageRepo:  messageRepo,
		txManager:    txManager,
		conversation: conversation,
		analytics:    analytics,
		metrics:      m,
		logger:       logger,
	}
}

// Ingest persists a message and applies its conversation and analytics side effects in
// one transaction. A provider message id already on record makes the call a no-op that
// returns the stored message.
func (i *ingest) Ingest(ctx context.Context, cmd IngestMessageCommand) (*model.Message, error) {
	msg, err := buildMessage(cmd)
	if err != nil {
		i.logger.Warn("Rejected message ingestion",
			zap.String("businessNumber", cmd.BusinessNumber),
			zap.String("counterpartNumber", cmd.CounterpartNumber),
			zap.String("providerMessageID", cmd.ProviderMsgID),
			zap.Error(err))
		return nil, validationError(err)
	}

	if msg.ProviderMsgID != nil {
		existing, err := i.messageRepo.GetByProviderMsgID(ctx, *msg.ProviderMsgID)
		if err == nil {
			return i.duplicate(existing, msg)
		}

		if !errors.Is(err, repository.ErrMessageNotFound) {
			i.logger.Error("Failed to look up provider message id",
				zap.String("providerMessageID", *msg.ProviderMsgID),
				zap.Error(err))
			return nil, storeError(err)
		}
	}

	err = i.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := i.messageRepo.Create(ctx, msg); err != nil {
			return err
		}

		_, err := i.conversation.Touch(ctx, TouchConversationCommand{
			BusinessNumber:    msg.BusinessNumber,
			CounterpartNumber: msg.CounterpartNumber,
			Direction:         msg.Direction,
			Preview:           msg.Preview(),
			CustomerName:      cmd.CustomerName,
			Timestamp:         msg.Timestamp,
		})
		if err != nil {
			return err
		}

		return i.analytics.RecordMessage(ctx, RecordMessageCommand{
			BusinessNumber:    msg.BusinessNumber,
			CounterpartNumber: msg.CounterpartNumber,
			Direction:         msg.Direction,
			Status:            msg.Status,
			Timestamp:         msg.Timestamp,
		})
	})

	if errors.Is(err, repository.ErrMessageDuplicate) && msg.ProviderMsgID != nil {
		// Lost an insert race on the provider id; the winner already applied the side effects.
		existing, readErr := i.messageRepo.GetByProviderMsgID(ctx, *msg.ProviderMsgID)
		if readErr != nil {
			i.logger.Error("Failed to re-read message after duplicate insert",
				zap.String("providerMessageID", *msg.ProviderMsgID),
				zap.Error(readErr))
			return nil, storeError(readErr)
		}
		return i.duplicate(existing, msg)
	}

	if err != nil {
		var serviceErr Error
		if errors.As(err, &serviceErr) {
			return nil, err
		}

		i.logger.Error("Message ingestion transaction failed",
			zap.String("businessNumber", msg.BusinessNumber),
			zap.String("counterpartNumber", msg.CounterpartNumber),
			zap.Error(err))
		return nil, storeError(err)
	}

	i.metrics.RecordMessageIngested(string(msg.Direction))
	i.logger.Info("Message ingested",
		zap.Int64("messageID", msg.ID),
		zap.String("direction", string(msg.Direction)),
		zap.String("businessNumber", msg.BusinessNumber),
		zap.String("counterpartNumber", msg.CounterpartNumber))

	return msg, nil
}

func (i *ingest) duplicate(existing, incoming *model.Message) (*model.Message, error) {
	if existing.BusinessNumber != incoming.BusinessNumber || existing.CounterpartNumber != incoming.CounterpartNumber {
		i.logger.Warn("Provider message id reused for another conversation",
			zap.String("providerMessageID", *incoming.ProviderMsgID),
			zap.Int64("messageID", existing.ID))
		return nil, NewServiceError(constants.ErrCodeConflict, ErrPairMismatch)
	}

	i.metrics.RecordDuplicateMessage()
	i.logger.Debug("Duplicate message ingestion absorbed",
		zap.String("providerMessageID", *incoming.ProviderMsgID),
		zap.Int64("messageID", existing.ID))

	return existing, nil
}

func buildMessage(cmd IngestMessageCommand) (*model.Message, error) {
	businessNumber := strings.TrimSpace(cmd.BusinessNumber)
	counterpartNumber := strings.TrimSpace(cmd.CounterpartNumber)
	providerMsgID := strings.TrimSpace(cmd.ProviderMsgID)

	if businessNumber == "" || counterpartNumber == "" {
		return nil, errors.New("business and counterpart numbers are required")
	}

	if !cmd.Direction.Valid() {
		return nil, fmt.Errorf("unknown direction %q", cmd.Direction)
	}

	msgType := cmd.Type
	if msgType == "" {
		msgType = model.MessageTypeText
	}
	if !msgType.Valid() {
		return nil, fmt.Errorf("unknown message type %q", cmd.Type)
	}

	timestamp := cmd.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	now := time.Now()
	msg := &model.Message{
		BusinessNumber:    businessNumber,
		CounterpartNumber: counterpartNumber,
		Direction:         cmd.Direction,
		Type:              msgType,
		Text:              cmd.Text,
		TemplateName:      cmd.TemplateName,
		TemplateLanguage:  cmd.TemplateLanguage,
		MediaURL:          cmd.MediaURL,
		Caption:           cmd.Caption,
		Timestamp:         timestamp,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if providerMsgID != "" {
		msg.ProviderMsgID = &providerMsgID
	}

	if cmd.Direction == model.DirectionInbound {
		if msg.ProviderMsgID == nil {
			return nil, errors.New("inbound messages require a provider message id")
		}
		msg.Status = model.MessageStatusDelivered
		msg.DeliveredAt = &timestamp
		return msg, nil
	}

	if err := validateOutboundContent(msg); err != nil {
		return nil, err
	}

	status, err := outboundStatus(cmd, msg.ProviderMsgID != nil)
	if err != nil {
		return nil, err
	}
	msg.Status = status

	if status == model.MessageStatusFailed {
		reason := cmd.ErrorReason
		if reason == "" {
			reason = "send failed"
		}
		msg.ErrorReason = &reason
	}

	return msg, nil
}

func validateOutboundContent(msg *model.Message) error {
	switch {
	case msg.Type == model.MessageTypeTemplate:
		if strings.TrimSpace(msg.TemplateName) == "" {
			return errors.New("template messages require a template name")
		}
	case msg.Type.IsMedia():
		if msg.MediaURL == "" && strings.TrimSpace(msg.Caption) == "" {
			return errors.New("media messages require a media url or caption")
		}
	default:
		if strings.TrimSpace(msg.Text) == "" {
			return errors.New("outbound text must not be empty")
		}
	}
	return nil
}

func outboundStatus(cmd IngestMessageCommand, hasProviderID bool) (model.MessageStatus, error) {
	switch cmd.Status {
	case "":
		if hasProviderID {
			return model.MessageStatusSent, nil
		}
		return model.MessageStatusQueued, nil
	case model.MessageStatusQueued, model.MessageStatusSent, model.MessageStatusFailed:
		return cmd.Status, nil
	default:
		return "", fmt.Errorf("outbound messages cannot be recorded as %q", cmd.Status)
	}
}
