package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/repository"
)

type ConversationRepository struct {
	store *Store
}

func NewConversationRepository(store *Store) repository.ConversationRepository {
	return &ConversationRepository{store: store}
}

func (r *ConversationRepository) Upsert(ctx context.Context, conversation *model.Conversation, unreadDelta int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now()
	key := pairKey{business: conversation.BusinessNumber, counterpart: conversation.CounterpartNumber}

	if id, ok := r.store.conversationPair[key]; ok {
		stored := r.store.conversations[id]
		if !conversation.LastMessageAt.Before(stored.LastMessageAt) {
			stored.LastMessageAt = conversation.LastMessageAt
			stored.LastMessagePreview = conversation.LastMessagePreview
		}
		stored.UnreadCount += unreadDelta
		if conversation.CustomerName != nil {
			name := *conversation.CustomerName
			stored.CustomerName = &name
		}
		stored.UpdatedAt = now
		return nil
	}

	r.store.nextConvID++
	conversation.ID = r.store.nextConvID
	conversation.UnreadCount = unreadDelta
	conversation.CreatedAt = now
	conversation.UpdatedAt = now

	r.store.conversations[conversation.ID] = copyConversation(conversation)
	r.store.conversationPair[key] = conversation.ID

	return nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, id int64) (*model.Conversation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	conversation, ok := r.store.conversations[id]
	if !ok {
		return nil, repository.ErrConversationNotFound
	}

	return copyConversation(conversation), nil
}

func (r *ConversationRepository) GetByPair(ctx context.Context, businessNumber, counterpartNumber string) (
	*model.Conversation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.conversationPair[pairKey{business: businessNumber, counterpart: counterpartNumber}]
	if !ok {
		return nil, repository.ErrConversationNotFound
	}

	return copyConversation(r.store.conversations[id]), nil
}

func (r *ConversationRepository) ResetUnread(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if conversation, ok := r.store.conversations[id]; ok {
		conversation.UnreadCount = 0
		conversation.UpdatedAt = time.Now()
	}

	return nil
}

func (r *ConversationRepository) UpdateStatus(ctx context.Context, id int64, to model.ConversationStatus,
	from []model.ConversationStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	conversation, ok := r.store.conversations[id]
	if !ok {
		return repository.ErrNoRowsAffected
	}

	for _, status := range from {
		if conversation.Status == status {
			conversation.Status = to
			conversation.UpdatedAt = time.Now()
			return nil
		}
	}

	return repository.ErrNoRowsAffected
}

func (r *ConversationRepository) FindByBusiness(ctx context.Context, businessNumber string,
	statuses []model.ConversationStatus) ([]model.Conversation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	conversations := make([]model.Conversation, 0)
	for _, conversation := range r.store.conversations {
		if conversation.BusinessNumber != businessNumber || !statusIn(conversation.Status, statuses) {
			continue
		}
		conversations = append(conversations, *conversation)
	}

	sort.Slice(conversations, func(i, j int) bool {
		if conversations[i].LastMessageAt.Equal(conversations[j].LastMessageAt) {
			return conversations[i].ID > conversations[j].ID
		}
		return conversations[i].LastMessageAt.After(conversations[j].LastMessageAt)
	})

	return conversations, nil
}

func (r *ConversationRepository) CountByStatus(ctx context.Context, businessNumber string,
	status model.ConversationStatus) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int64
	for _, conversation := range r.store.conversations {
		if conversation.BusinessNumber == businessNumber && conversation.Status == status {
			count++
		}
	}

	return count, nil
}

func statusIn(status model.ConversationStatus, statuses []model.ConversationStatus) bool {
	if len(statuses) == 0 {
		return true
	}

	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
