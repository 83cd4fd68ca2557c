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

type StatusConsumer interface {
	Consume(ctx context.Context) error
}

type statusConsumer struct {
	service  service.StatusService
	consumer mq.Consumer
	queue    string
	prefetch int
	logger   *zap.Logger
}

func NewStatusConsumer(service service.StatusService, consumer mq.Consumer, cfg *config.Config,
	logger *zap.Logger) StatusConsumer {
	return &statusConsumer{
		service:  service,
		consumer: consumer,
		queue:    cfg.Webhook.StatusQueue,
		prefetch: cfg.RabbitMQ.Prefetch,
		logger:   logger,
	}
}

func (c *statusConsumer) Consume(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.prefetch, c.queue, c.handleMessage)
}

// handleMessage applies one status callback. A callback that outruns the message it
// refers to is requeued once; a redelivered one for an unknown message is dropped.
func (c *statusConsumer) handleMessage(ctx context.Context, d mq.Delivery) error {
	envelope, err := events.Decode[events.StatusUpdateV1](d.Body, events.TypeStatusUpdateV1)
	if err == nil {
		err = envelope.Data.Validate()
	}
	if err != nil {
		c.logger.Warn("invalid status event", zap.String("messageID", d.MessageID), zap.Error(err))
		return err
	}

	result, err := c.service.ApplyStatus(ctx, service.StatusCommand(envelope.Data))
	if err != nil {
		if service.ErrorCode(err) == constants.ErrCodeNotFound {
			if d.Redelivered {
				c.logger.Info("status for unknown message dropped",
					zap.String("providerMessageID", envelope.Data.ProviderMessageID))
				return nil
			}
			return mq.Temporary(err)
		}
		return classify(err)
	}

	c.logger.Debug("status event processed",
		zap.String("eventID", envelope.Meta.ID),
		zap.String("status", envelope.Data.Status),
		zap.Bool("applied", result.Applied))

	return nil
}
