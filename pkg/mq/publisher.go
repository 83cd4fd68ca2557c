package mq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Message struct {
	Body      []byte
	Type      string
	MessageID string
}

type Publisher interface {
	Publish(ctx context.Context, exchange string, routingKey string, msg Message) error
}

type RabbitPublisher struct {
	ch *amqp.Channel
}

func NewRabbitPublisher(ch *amqp.Channel) Publisher { return &RabbitPublisher{ch: ch} }

func (r *RabbitPublisher) Publish(ctx context.Context, exchange string, routingKey string, msg Message) error {
	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         msg.Type,
		MessageId:    msg.MessageID,
		Body:         msg.Body,
	}

	return r.ch.PublishWithContext(ctx, exchange, routingKey, false, false, publishing)
}

func (r *RabbitPublisher) Close() error {
	if r.ch != nil {
		return r.ch.Close()
	}

	return nil
}
