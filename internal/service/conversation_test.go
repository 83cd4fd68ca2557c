package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Behyna/wa-inbox/internal/constants"
	"github.com/Behyna/wa-inbox/internal/mocks"
	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/repository"
	"github.com/Behyna/wa-inbox/internal/repository/memory"
	"github.com/Behyna/wa-inbox/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func touch(t *testing.T, conversations service.ConversationService, counterpart string, at time.Time) *model.Conversation {
	t.Helper()

	conv, err := conversations.Touch(context.Background(), service.TouchConversationCommand{
		BusinessNumber:    business,
		CounterpartNumber: counterpart,
		Direction:         model.DirectionInbound,
		Preview:           "hello",
		Timestamp:         at,
	})
	require.NoError(t, err)
	return conv
}

func TestConversation_Touch(t *testing.T) {
	ctx := context.Background()
	conversations := service.NewConversationService(memory.NewConversationRepository(memory.NewStore()), zap.NewNop())
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	created := touch(t, conversations, customer, t0)
	assert.Equal(t, model.ConversationStatusActive, created.Status)
	assert.Equal(t, 1, created.UnreadCount)

	updated, err := conversations.Touch(ctx, service.TouchConversationCommand{
		BusinessNumber:    business,
		CounterpartNumber: customer,
		Direction:         model.DirectionOutbound,
		Preview:           "reply",
		CustomerName:      "Sara",
		Timestamp:         t0.Add(time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 1, updated.UnreadCount)
	assert.Equal(t, "reply", updated.LastMessagePreview)
	require.NotNil(t, updated.CustomerName)
	assert.Equal(t, "Sara", *updated.CustomerName)

	_, err = conversations.Touch(ctx, service.TouchConversationCommand{BusinessNumber: business, Direction: model.DirectionInbound})
	assert.Equal(t, constants.ErrCodeValidation, service.ErrorCode(err))
}

func TestConversation_Transitions(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	t.Run("archive reopen close", func(t *testing.T) {
		conversations := service.NewConversationService(memory.NewConversationRepository(memory.NewStore()), zap.NewNop())
		conv := touch(t, conversations, customer, t0)

		archived, err := conversations.Archive(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ConversationStatusArchived, archived.Status)
		assert.Equal(t, conv.UnreadCount, archived.UnreadCount)
		assert.Equal(t, conv.LastMessagePreview, archived.LastMessagePreview)

		reopened, err := conversations.Reopen(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ConversationStatusActive, reopened.Status)

		closed, err := conversations.Close(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ConversationStatusClosed, closed.Status)

		_, err = conversations.Reopen(ctx, conv.ID)
		assert.Equal(t, constants.ErrCodeConflict, service.ErrorCode(err))

		_, err = conversations.Archive(ctx, conv.ID)
		assert.ErrorIs(t, err, service.ErrTransitionNotAllowed)
	})

	t.Run("active cannot be reopened", func(t *testing.T) {
		conversations := service.NewConversationService(memory.NewConversationRepository(memory.NewStore()), zap.NewNop())
		conv := touch(t, conversations, customer, t0)

		_, err := conversations.Reopen(ctx, conv.ID)
		assert.Equal(t, constants.ErrCodeConflict, service.ErrorCode(err))
	})

	t.Run("inbound keeps archived status", func(t *testing.T) {
		conversations := service.NewConversationService(memory.NewConversationRepository(memory.NewStore()), zap.NewNop())
		conv := touch(t, conversations, customer, t0)

		_, err := conversations.Archive(ctx, conv.ID)
		require.NoError(t, err)

		again := touch(t, conversations, customer, t0.Add(time.Hour))
		assert.Equal(t, model.ConversationStatusArchived, again.Status)
		assert.Equal(t, 2, again.UnreadCount)
	})

	t.Run("unknown conversation", func(t *testing.T) {
		conversations := service.NewConversationService(memory.NewConversationRepository(memory.NewStore()), zap.NewNop())

		_, err := conversations.MarkRead(ctx, 42)
		assert.Equal(t, constants.ErrCodeNotFound, service.ErrorCode(err))

		_, err = conversations.Close(ctx, 42)
		assert.Equal(t, constants.ErrCodeNotFound, service.ErrorCode(err))
	})

	t.Run("lost race conflicts", func(t *testing.T) {
		mockRepo := &mocks.ConversationRepository{}
		mockRepo.On("GetByID", mock.Anything, int64(5)).
			Return(&model.Conversation{ID: 5, Status: model.ConversationStatusActive}, nil)
		mockRepo.On("UpdateStatus", mock.Anything, int64(5), model.ConversationStatusArchived,
			model.ConversationSources(model.ConversationStatusArchived)).Return(repository.ErrNoRowsAffected)

		conversations := service.NewConversationService(mockRepo, zap.NewNop())
		_, err := conversations.Archive(ctx, 5)

		assert.Equal(t, constants.ErrCodeConflict, service.ErrorCode(err))
		mockRepo.AssertExpectations(t)
	})
}

func TestConversation_GetConversations(t *testing.T) {
	ctx := context.Background()
	conversations := service.NewConversationService(memory.NewConversationRepository(memory.NewStore()), zap.NewNop())
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	older := touch(t, conversations, "+15550000001", t0)
	newer := touch(t, conversations, "+15550000002", t0.Add(time.Hour))
	archived := touch(t, conversations, "+15550000003", t0.Add(2*time.Hour))
	_, err := conversations.Archive(ctx, archived.ID)
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter string
		ids    []int64
	}{
		{"default is active", "", []int64{newer.ID, older.ID}},
		{"archived", "archived", []int64{archived.ID}},
		{"closed", "closed", []int64{}},
		{"all", "all", []int64{archived.ID, newer.ID, older.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := conversations.GetConversations(ctx, service.GetConversationsQuery{BusinessNumber: business, Status: tt.filter})
			require.NoError(t, err)

			ids := make([]int64, 0, len(list))
			for _, c := range list {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}

	t.Run("unknown filter", func(t *testing.T) {
		_, err := conversations.GetConversations(ctx, service.GetConversationsQuery{BusinessNumber: business, Status: "spam"})
		assert.Equal(t, constants.ErrCodeValidation, service.ErrorCode(err))
	})

	t.Run("store failure", func(t *testing.T) {
		mockRepo := &mocks.ConversationRepository{}
		mockRepo.On("FindByBusiness", mock.Anything, business, mock.Anything).
			Return([]model.Conversation(nil), errors.New("timeout"))

		_, err := service.NewConversationService(mockRepo, zap.NewNop()).
			GetConversations(ctx, service.GetConversationsQuery{BusinessNumber: business})
		assert.Equal(t, constants.ErrCodeStoreUnavailable, service.ErrorCode(err))
	})
}
