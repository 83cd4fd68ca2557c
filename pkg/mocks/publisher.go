package mocks

import (
	"context"

	"github.com/Behyna/wa-inbox/pkg/mq"
	"github.com/stretchr/testify/mock"
)

var _ mq.Publisher = (*Publisher)(nil)

type Publisher struct {
	mock.Mock
}

func (_m *Publisher) Publish(ctx context.Context, exchange string, routingKey string, msg mq.Message) error {
	ret := _m.Called(ctx, exchange, routingKey, msg)
	return ret.Error(0)
}
