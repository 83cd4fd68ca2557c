package publishers

import (
	"context"
	"encoding/json"

	"github.com/Behyna/wa-inbox/internal/config"
	"github.com/Behyna/wa-inbox/internal/service"
	"github.com/Behyna/wa-inbox/pkg/events"
	"github.com/Behyna/wa-inbox/pkg/mq"
	"go.uber.org/zap"
)

// EventPublisher forwards webhook events to the worker queues instead of applying them inline.
type EventPublisher struct {
	publisher    mq.Publisher
	inboundQueue string
	statusQueue  string
	logger       *zap.Logger
}

var _ service.EventDispatcher = (*EventPublisher)(nil)

func NewEventPublisher(publisher mq.Publisher, cfg *config.Config, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{
		publisher:    publisher,
		inboundQueue: cfg.Webhook.InboundQueue,
		statusQueue:  cfg.Webhook.StatusQueue,
		logger:       logger,
	}
}

func (p *EventPublisher) DispatchInbound(ctx context.Context, event events.InboundMessageV1,
	correlationID string) error {
	envelope := events.Envelope[events.InboundMessageV1]{
		Meta: events.NewMeta(events.TypeInboundMessageV1, correlationID),
		Data: event,
	}

	return p.publish(ctx, p.inboundQueue, envelope.Meta, envelope, event.ProviderMessageID)
}

func (p *EventPublisher) DispatchStatus(ctx context.Context, event events.StatusUpdateV1,
	correlationID string) error {
	envelope := events.Envelope[events.StatusUpdateV1]{
		Meta: events.NewMeta(events.TypeStatusUpdateV1, correlationID),
		Data: event,
	}

	return p.publish(ctx, p.statusQueue, envelope.Meta, envelope, event.ProviderMessageID)
}

func (p *EventPublisher) publish(ctx context.Context, queue string, meta events.Meta, envelope any,
	providerMessageID string) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	err = p.publisher.Publish(ctx, "", queue, mq.Message{Body: body, Type: meta.Type, MessageID: meta.ID})
	if err != nil {
		p.logger.Error("Failed to publish webhook event",
			zap.Error(err),
			zap.String("queue", queue),
			zap.String("type", meta.Type),
			zap.String("providerMessageID", providerMessageID))
		return err
	}

	p.logger.Debug("Published webhook event",
		zap.String("queue", queue),
		zap.String("eventID", meta.ID),
		zap.String("correlationID", meta.CorrelationID))

	return nil
}
