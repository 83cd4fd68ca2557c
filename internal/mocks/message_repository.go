package mocks

import (
	"context"

	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/repository"
	"github.com/stretchr/testify/mock"
)

var _ repository.MessageRepository = (*MessageRepository)(nil)

type MessageRepository struct {
	mock.Mock
}

func (m *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MessageRepository) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MessageRepository) GetByProviderMsgID(ctx context.Context, providerMsgID string) (*model.Message, error) {
	args := m.Called(ctx, providerMsgID)
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MessageRepository) UpdateStatus(ctx context.Context, message *model.Message, from []model.MessageStatus) error {
	args := m.Called(ctx, message, from)
	return args.Error(0)
}

func (m *MessageRepository) SetProviderMsgID(ctx context.Context, id int64, providerMsgID string) error {
	args := m.Called(ctx, id, providerMsgID)
	return args.Error(0)
}

func (m *MessageRepository) FindByPair(ctx context.Context, businessNumber, counterpartNumber string,
	limit int) ([]model.Message, error) {
	args := m.Called(ctx, businessNumber, counterpartNumber, limit)
	return args.Get(0).([]model.Message), args.Error(1)
}
