package mocks

import (
	"context"

	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/repository"
	"github.com/stretchr/testify/mock"
)

var _ repository.ConversationRepository = (*ConversationRepository)(nil)

type ConversationRepository struct {
	mock.Mock
}

func (m *ConversationRepository) Upsert(ctx context.Context, conversation *model.Conversation, unreadDelta int) error {
	args := m.Called(ctx, conversation, unreadDelta)
	return args.Error(0)
}

func (m *ConversationRepository) GetByID(ctx context.Context, id int64) (*model.Conversation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *ConversationRepository) GetByPair(ctx context.Context, businessNumber,
	counterpartNumber string) (*model.Conversation, error) {
	args := m.Called(ctx, businessNumber, counterpartNumber)
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *ConversationRepository) ResetUnread(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ConversationRepository) UpdateStatus(ctx context.Context, id int64, to model.ConversationStatus,
	from []model.ConversationStatus) error {
	args := m.Called(ctx, id, to, from)
	return args.Error(0)
}

func (m *ConversationRepository) FindByBusiness(ctx context.Context, businessNumber string,
	statuses []model.ConversationStatus) ([]model.Conversation, error) {
	args := m.Called(ctx, businessNumber, statuses)
	return args.Get(0).([]model.Conversation), args.Error(1)
}

func (m *ConversationRepository) CountByStatus(ctx context.Context, businessNumber string,
	status model.ConversationStatus) (int64, error) {
	args := m.Called(ctx, businessNumber, status)
	return args.Get(0).(int64), args.Error(1)
}
