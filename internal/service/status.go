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

const (
	statusResultApplied = "applied"
	statusResultDropped = "dropped"
	statusResultUnknown = "unknown_message"
)

type StatusService interface {
	ApplyStatus(ctx context.Context, cmd ApplyStatusCommand) (ApplyStatusResult, error)
	AttachProviderMessageID(ctx context.Context, cmd AttachProviderMessageIDCommand) (*model.Message, error)
}

type status struct {
	messageRepo repository.MessageRepository
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewStatusService(messageRepo repository.MessageRepository, m *metrics.Metrics, logger *zap.Logger) StatusService {
	return &status{messageRepo: messageRepo, metrics: m, logger: logger}
}

// ApplyStatus moves a message forward along queued < sent < delivered < read. Failed is
// reachable from any non-failed status and is terminal. Callbacks that would regress the
// status are dropped with Applied=false.
func (s *status) ApplyStatus(ctx context.Context, cmd ApplyStatusCommand) (ApplyStatusResult, error) {
	providerMsgID := strings.TrimSpace(cmd.ProviderMsgID)
	if providerMsgID == "" {
		return ApplyStatusResult{}, validationError(errors.New("provider message id is required"))
	}

	if !cmd.Status.Valid() {
		return ApplyStatusResult{}, validationError(fmt.Errorf("unknown message status %q", cmd.Status))
	}

	msg, err := s.messageRepo.GetByProviderMsgID(ctx, providerMsgID)
	if errors.Is(err, repository.ErrMessageNotFound) {
		s.metrics.RecordStatusUpdate(string(cmd.Status), statusResultUnknown)
		s.logger.Info("Status callback for unknown message",
			zap.String("providerMessageID", providerMsgID),
			zap.String("status", string(cmd.Status)))
		return ApplyStatusResult{}, NewServiceError(constants.ErrCodeNotFound, ErrMessageNotFound)
	}

	if err != nil {
		s.logger.Error("Failed to load message for status update",
			zap.String("providerMessageID", providerMsgID),
			zap.Error(err))
		return ApplyStatusResult{}, storeError(err)
	}

	if !msg.Status.CanTransition(cmd.Status) {
		return s.dropped(msg, cmd.Status), nil
	}

	occurredAt := cmd.Timestamp
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	update := &model.Message{ID: msg.ID, Status: cmd.Status, UpdatedAt: time.Now()}

	switch cmd.Status {
	case model.MessageStatusDelivered:
		update.DeliveredAt = &occurredAt
	case model.MessageStatusRead:
		update.DeliveredAt = &occurredAt
		update.ReadAt = &occurredAt
	case model.MessageStatusFailed:
		reason := cmd.ErrorReason
		if reason == "" {
			reason = "provider reported failure"
		}
		update.ErrorReason = &reason
	}

	err = s.messageRepo.UpdateStatus(ctx, update, cmd.Status.Predecessors())
	if errors.Is(err, repository.ErrNoRowsAffected) {
		// A concurrent callback moved the message past the allowed predecessors.
		current, readErr := s.messageRepo.GetByID(ctx, msg.ID)
		if readErr != nil {
			s.logger.Error("Failed to re-read message after lost status race",
				zap.Int64("messageID", msg.ID),
				zap.Error(readErr))
			return ApplyStatusResult{}, storeError(readErr)
		}
		return s.dropped(current, cmd.Status), nil
	}

	if err != nil {
		s.logger.Error("Failed to update message status",
			zap.Int64("messageID", msg.ID),
			zap.String("status", string(cmd.Status)),
			zap.Error(err))
		return ApplyStatusResult{}, storeError(err)
	}

	updated, err := s.messageRepo.GetByID(ctx, msg.ID)
	if err != nil {
		s.logger.Error("Failed to re-read message after status update", zap.Int64("messageID", msg.ID), zap.Error(err))
		return ApplyStatusResult{}, storeError(err)
	}

	s.metrics.RecordStatusUpdate(string(cmd.Status), statusResultApplied)
	s.logger.Debug("Message status applied",
		zap.Int64("messageID", msg.ID),
		zap.String("from", string(msg.Status)),
		zap.String("to", string(cmd.Status)))

	return ApplyStatusResult{Applied: true, Message: updated}, nil
}

func (s *status) dropped(msg *model.Message, requested model.MessageStatus) ApplyStatusResult {
	s.metrics.RecordStatusUpdate(string(requested), statusResultDropped)
	s.logger.Debug("Out of order status callback dropped",
		zap.Int64("messageID", msg.ID),
		zap.String("current", string(msg.Status)),
		zap.String("requested", string(requested)))

	return ApplyStatusResult{Applied: false, Message: msg}
}

// AttachProviderMessageID records the provider id of an outbound message that was stored
// before the provider answered. Re-attaching the same id is a no-op.
func (s *status) AttachProviderMessageID(ctx context.Context, cmd AttachProviderMessageIDCommand) (
	*model.Message, error) {
	providerMsgID := strings.TrimSpace(cmd.ProviderMsgID)
	if cmd.MessageID <= 0 || providerMsgID == "" {
		return nil, validationError(errors.New("message id and provider message id are required"))
	}

	msg, err := s.getMessage(ctx, cmd.MessageID)
	if err != nil {
		return nil, err
	}

	if msg.ProviderMsgID != nil {
		if *msg.ProviderMsgID == providerMsgID {
			return msg, nil
		}
		return nil, NewServiceError(constants.ErrCodeConflict, ErrProviderIDImmutable)
	}

	if msg.Direction != model.DirectionOutbound {
		return nil, validationError(errors.New("provider ids can only be attached to outbound messages"))
	}

	err = s.messageRepo.SetProviderMsgID(ctx, msg.ID, providerMsgID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrMessageDuplicate):
		return nil, NewServiceError(constants.ErrCodeConflict, ErrProviderIDTaken)
	case errors.Is(err, repository.ErrNoRowsAffected):
		// Someone attached an id concurrently; report based on what won.
		current, readErr := s.getMessage(ctx, msg.ID)
		if readErr != nil {
			return nil, readErr
		}
		if current.ProviderMsgID != nil && *current.ProviderMsgID == providerMsgID {
			return current, nil
		}
		return nil, NewServiceError(constants.ErrCodeConflict, ErrProviderIDImmutable)
	default:
		s.logger.Error("Failed to attach provider message id", zap.Int64("messageID", msg.ID), zap.Error(err))
		return nil, storeError(err)
	}

	msg.ProviderMsgID = &providerMsgID
	s.logger.Info("Provider message id attached",
		zap.Int64("messageID", msg.ID),
		zap.String("providerMessageID", providerMsgID))

	return msg, nil
}

func (s *status) getMessage(ctx context.Context, id int64) (*model.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrMessageNotFound) {
		return nil, NewServiceError(constants.ErrCodeNotFound, ErrMessageNotFound)
	}

	if err != nil {
		s.logger.Error("Failed to load message", zap.Int64("messageID", id), zap.Error(err))
		return nil, storeError(err)
	}

	return msg, nil
}
