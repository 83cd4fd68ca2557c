package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Behyna/wa-inbox/internal/config"
	"github.com/Behyna/wa-inbox/internal/constants"
	"github.com/Behyna/wa-inbox/internal/metrics"
	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/pkg/events"
	"github.com/Behyna/wa-inbox/pkg/whatsapp"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	webhookKindMessage = "message"
	webhookKindStatus  = "status"
)

var (
	ErrVerificationFailed = errors.New("webhook verification failed")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
)

// EventDispatcher hands webhook events to the engine, either in process or through a queue.
type EventDispatcher interface {
	DispatchInbound(ctx context.Context, event events.InboundMessageV1, correlationID string) error
	DispatchStatus(ctx context.Context, event events.StatusUpdateV1, correlationID string) error
}

type WebhookResult struct {
	Messages int `json:"messages"`
	Statuses int `json:"statuses"`
	Skipped  int `json:"skipped"`
}

type WebhookService interface {
	Verify(mode, token, challenge string) (string, error)
	Handle(ctx context.Context, body []byte, signature string) (WebhookResult, error)
}

type webhook struct {
	dispatcher EventDispatcher
	config     whatsapp.Config
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewWebhookService(dispatcher EventDispatcher, cfg *config.Config, m *metrics.Metrics,
	logger *zap.Logger) WebhookService {
	return &webhook{dispatcher: dispatcher, config: cfg.WhatsApp, metrics: m, logger: logger}
}

// Verify answers the subscription handshake Meta performs when the webhook is registered.
func (w *webhook) Verify(mode, token, challenge string) (string, error) {
	if mode != "subscribe" || w.config.VerifyToken == "" || token != w.config.VerifyToken {
		w.logger.Warn("Webhook verification rejected", zap.String("mode", mode))
		return "", NewServiceError(constants.ErrCodeUnauthorized, ErrVerificationFailed)
	}
	return challenge, nil
}

// Handle splits a Cloud API webhook delivery into inbound message and status events and
// dispatches them in payload order. Events the engine cannot represent are skipped.
func (w *webhook) Handle(ctx context.Context, body []byte, signature string) (WebhookResult, error) {
	if w.config.AppSecret != "" && !whatsapp.VerifySignature(w.config.AppSecret, body, signature) {
		w.logger.Warn("Webhook signature mismatch")
		return WebhookResult{}, NewServiceError(constants.ErrCodeUnauthorized, ErrInvalidSignature)
	}

	var payload whatsapp.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookResult{}, NewServiceError(constants.ErrCodeInvalidRequestBody, err)
	}

	correlationID := uuid.NewString()
	result := WebhookResult{}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}

			if err := w.handleChange(ctx, change.Value, correlationID, &result); err != nil {
				return result, err
			}
		}
	}

	w.logger.Info("Webhook delivery processed",
		zap.String("correlationID", correlationID),
		zap.Int("messages", result.Messages),
		zap.Int("statuses", result.Statuses),
		zap.Int("skipped", result.Skipped))

	return result, nil
}

func (w *webhook) handleChange(ctx context.Context, value whatsapp.ChangeValue, correlationID string,
	result *WebhookResult) error {
	businessNumber, ok := w.config.BusinessNumberFor(value.Metadata.PhoneNumberID)
	if !ok {
		businessNumber = NormalizeNumber(value.Metadata.DisplayPhoneNumber)
	}

	names := make(map[string]string, len(value.Contacts))
	for _, contact := range value.Contacts {
		names[contact.WaID] = contact.Profile.Name
	}

	for _, inbound := range value.Messages {
		event, ok := inboundEvent(businessNumber, inbound, names[inbound.From])
		if !ok {
			result.Skipped++
			w.metrics.RecordWebhookEvent(webhookKindMessage, "unsupported")
			w.logger.Debug("Unsupported inbound message type skipped",
				zap.String("type", inbound.Type), zap.String("providerMessageID", inbound.ID))
			continue
		}

		if err := w.dispatch(webhookKindMessage, w.dispatcher.DispatchInbound(ctx, event, correlationID)); err != nil {
			return err
		}
		result.Messages++
	}

	for _, update := range value.Statuses {
		event := statusEvent(update)
		if err := event.Validate(); err != nil {
			result.Skipped++
			w.metrics.RecordWebhookEvent(webhookKindStatus, "unsupported")
			w.logger.Debug("Unsupported status update skipped",
				zap.String("status", update.Status), zap.String("providerMessageID", update.ID))
			continue
		}

		if err := w.dispatch(webhookKindStatus, w.dispatcher.DispatchStatus(ctx, event, correlationID)); err != nil {
			return err
		}
		result.Statuses++
	}

	return nil
}

// dispatch decides which dispatcher errors abort the delivery. Only store outages and
// queue failures do, so the provider redelivers and idempotent ingestion absorbs repeats.
func (w *webhook) dispatch(kind string, err error) error {
	if err == nil {
		w.metrics.RecordWebhookEvent(kind, "dispatched")
		return nil
	}

	code := ErrorCode(err)
	switch code {
	case constants.ErrCodeStoreUnavailable, constants.ErrCodeInternalError:
		w.metrics.RecordWebhookEvent(kind, "failed")
		w.logger.Error("Webhook event dispatch failed", zap.String("kind", kind), zap.Error(err))
		return err
	default:
		w.metrics.RecordWebhookEvent(kind, strings.ToLower(code))
		w.logger.Warn("Webhook event rejected by engine", zap.String("kind", kind), zap.Error(err))
		return nil
	}
}

func inboundEvent(businessNumber string, inbound whatsapp.InboundMessage, customerName string) (
	events.InboundMessageV1, bool) {
	event := events.InboundMessageV1{
		ProviderMessageID: inbound.ID,
		BusinessNumber:    businessNumber,
		From:              NormalizeNumber(inbound.From),
		CustomerName:      customerName,
		Type:              inbound.Type,
		Timestamp:         whatsapp.ParseTimestamp(inbound.Timestamp),
	}

	switch {
	case inbound.Type == "text" && inbound.Text != nil:
		event.Text = inbound.Text.Body
	case inbound.Media() != nil:
		media := inbound.Media()
		event.Caption = media.Caption
		event.MediaURL = media.Link
		if event.MediaURL == "" {
			event.MediaURL = "media:" + media.ID
		}
	default:
		return events.InboundMessageV1{}, false
	}

	return event, event.Validate() == nil
}

func statusEvent(update whatsapp.StatusUpdate) events.StatusUpdateV1 {
	event := events.StatusUpdateV1{
		ProviderMessageID: update.ID,
		Status:            update.Status,
		Timestamp:         whatsapp.ParseTimestamp(update.Timestamp),
	}

	if update.Status == string(model.MessageStatusFailed) {
		reasons := make([]string, 0, len(update.Errors))
		for _, e := range update.Errors {
			reason := e.Title
			if e.Message != "" {
				reason = e.Message
			}
			reasons = append(reasons, fmt.Sprintf("%d: %s", e.Code, reason))
		}
		event.ErrorReason = strings.Join(reasons, "; ")
	}

	return event
}

// NormalizeNumber renders provider wa_ids in the "+<digits>" form used for business numbers.
func NormalizeNumber(number string) string {
	number = strings.TrimSpace(number)
	if number == "" || strings.HasPrefix(number, "+") {
		return number
	}
	return "+" + number
}

// DirectDispatcher applies webhook events to the engine in the request goroutine.
type DirectDispatcher struct {
	ingest IngestService
	status StatusService
}

func NewDirectDispatcher(ingest IngestService, status StatusService) *DirectDispatcher {
	return &DirectDispatcher{ingest: ingest, status: status}
}

func (d *DirectDispatcher) DispatchInbound(ctx context.Context, event events.InboundMessageV1, _ string) error {
	_, err := d.ingest.Ingest(ctx, InboundCommand(event))
	return err
}

func (d *DirectDispatcher) DispatchStatus(ctx context.Context, event events.StatusUpdateV1, _ string) error {
	_, err := d.status.ApplyStatus(ctx, StatusCommand(event))
	return err
}

func InboundCommand(event events.InboundMessageV1) IngestMessageCommand {
	return IngestMessageCommand{
		ProviderMsgID:     event.ProviderMessageID,
		BusinessNumber:    event.BusinessNumber,
		CounterpartNumber: event.From,
		Direction:         model.DirectionInbound,
		Type:              model.MessageType(event.Type),
		Text:              event.Text,
		MediaURL:          event.MediaURL,
		Caption:           event.Caption,
		CustomerName:      event.CustomerName,
		Timestamp:         event.Timestamp,
	}
}

func StatusCommand(event events.StatusUpdateV1) ApplyStatusCommand {
	return ApplyStatusCommand{
		ProviderMsgID: event.ProviderMessageID,
		Status:        model.MessageStatus(event.Status),
		Timestamp:     event.Timestamp,
		ErrorReason:   event.ErrorReason,
	}
}
