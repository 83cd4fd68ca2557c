package mq

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Delivery struct {
	Body        []byte
	Type        string
	MessageID   string
	Redelivered bool
}

type Handle func(ctx context.Context, d Delivery) error

type Consumer interface {
	Consume(ctx context.Context, prefetch int, queue string, handler Handle) error
}

type RabbitConsumer struct {
	ch     *amqp.Channel
	logger *zap.Logger
}

func NewRabbitConsumer(ch *amqp.Channel, logger *zap.Logger) Consumer {
	return &RabbitConsumer{ch: ch, logger: logger}
}

// Consume blocks until ctx is cancelled or the channel closes. Handler errors nack the
// delivery; only temporary errors requeue it.
func (c *RabbitConsumer) Consume(ctx context.Context, prefetch int, queue string, handler Handle) error {
	if prefetch <= 0 {
		prefetch = 1
	}

	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return err
	}

	deliveries, err := c.ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			_ = c.ch.Cancel("", false)
			time.Sleep(50 * time.Millisecond)
			return ctx.Err()

		case d, ok := <-deliveries:
			if !ok {
				return nil
			}

			err := handler(ctx, Delivery{
				Body:        d.Body,
				Type:        d.Type,
				MessageID:   d.MessageId,
				Redelivered: d.Redelivered,
			})
			if err == nil {
				_ = d.Ack(false)
				continue
			}

			requeue := IsTemporary(err)
			c.logger.Warn("Delivery rejected",
				zap.String("queue", queue),
				zap.String("type", d.Type),
				zap.String("messageID", d.MessageId),
				zap.Bool("requeue", requeue),
				zap.Error(err))

			_ = d.Nack(false, requeue)
		}
	}
}
