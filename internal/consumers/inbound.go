package consumers

import (
	"context"

	"github.com/Behyna/wa-inbox/internal/config"
	"github.com/Behyna/wa-inbox/internal/constants"
	"github.com/Behyna/wa-inbox/internal/service"
	"github.com/Behyna/wa-inbox/pkg/events"
	"github.com/Behyna/wa-inbox/pkg/mq"
	"go.uber.org/zap"
)

type InboundConsumer interface {
	Consume(ctx context.Context) error
}

type inboundConsumer struct {
	service  service.IngestService
	consumer mq.Consumer
	queue    string
	prefetch int
	logger   *zap.Logger
}

func NewInboundConsumer(service service.IngestService, consumer mq.Consumer, cfg *config.Config,
	logger *zap.Logger) InboundConsumer {
	return &inboundConsumer{
		service:  service,
		consumer: consumer,
		queue:    cfg.Webhook.InboundQueue,
		prefetch: cfg.RabbitMQ.Prefetch,
		logger:   logger,
	}
}

func (c *inboundConsumer) Consume(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.prefetch, c.queue, c.handleMessage)
}

func (c *inboundConsumer) handleMessage(ctx context.Context, d mq.Delivery) error {
	envelope, err := events.Decode[events.InboundMessageV1](d.Body, events.TypeInboundMessageV1)
	if err == nil {
		err = envelope.Data.Validate()
	}
	if err != nil {
		c.logger.Warn("invalid inbound event", zap.String("messageID", d.MessageID), zap.Error(err))
		return err
	}

	result, err := c.service.Ingest(ctx, service.InboundCommand(envelope.Data))
	if err != nil {
		return classify(err)
	}

	c.logger.Debug("inbound event applied",
		zap.String("eventID", envelope.Meta.ID),
		zap.Int64("messageID", result.ID),
		zap.Bool("redelivered", d.Redelivered))

	return nil
}

// classify marks engine errors worth retrying as temporary so the delivery is requeued.
func classify(err error) error {
	switch service.ErrorCode(err) {
	case constants.ErrCodeStoreUnavailable, constants.ErrCodeInternalError:
		return mq.Temporary(err)
	}
	return err
}
