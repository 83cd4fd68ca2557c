package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/repository"
)

type MessageRepository struct {
	store *Store
}

func NewMessageRepository(store *Store) repository.MessageRepository {
	return &MessageRepository{store: store}
}

func (r *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if message.ProviderMsgID != nil {
		if _, exists := r.store.providerIndex[*message.ProviderMsgID]; exists {
			return repository.ErrMessageDuplicate
		}
	}

	now := time.Now()
	r.store.nextMessageID++
	message.ID = r.store.nextMessageID
	if message.CreatedAt.IsZero() {
		message.CreatedAt = now
	}
	if message.UpdatedAt.IsZero() {
		message.UpdatedAt = now
	}

	r.store.messages[message.ID] = copyMessage(message)
	if message.ProviderMsgID != nil {
		r.store.providerIndex[*message.ProviderMsgID] = message.ID
	}

	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	message, ok := r.store.messages[id]
	if !ok {
		return nil, repository.ErrMessageNotFound
	}

	return copyMessage(message), nil
}

func (r *MessageRepository) GetByProviderMsgID(ctx context.Context, providerMsgID string) (*model.Message, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.providerIndex[providerMsgID]
	if !ok {
		return nil, repository.ErrMessageNotFound
	}

	return copyMessage(r.store.messages[id]), nil
}

func (r *MessageRepository) UpdateStatus(ctx context.Context, message *model.Message, from []model.MessageStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.messages[message.ID]
	if !ok {
		return repository.ErrNoRowsAffected
	}

	allowed := false
	for _, status := range from {
		if stored.Status == status {
			allowed = true
			break
		}
	}

	if !allowed {
		return repository.ErrNoRowsAffected
	}

	stored.Status = message.Status
	stored.UpdatedAt = message.UpdatedAt
	if message.DeliveredAt != nil && stored.DeliveredAt == nil {
		at := *message.DeliveredAt
		stored.DeliveredAt = &at
	}
	if message.ReadAt != nil && stored.ReadAt == nil {
		at := *message.ReadAt
		stored.ReadAt = &at
	}
	if message.ErrorReason != nil {
		reason := *message.ErrorReason
		stored.ErrorReason = &reason
	}

	return nil
}

func (r *MessageRepository) SetProviderMsgID(ctx context.Context, id int64, providerMsgID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.messages[id]
	if !ok || stored.ProviderMsgID != nil {
		return repository.ErrNoRowsAffected
	}

	if _, exists := r.store.providerIndex[providerMsgID]; exists {
		return repository.ErrMessageDuplicate
	}

	stored.ProviderMsgID = &providerMsgID
	stored.UpdatedAt = time.Now()
	r.store.providerIndex[providerMsgID] = id

	return nil
}

func (r *MessageRepository) FindByPair(ctx context.Context, businessNumber, counterpartNumber string, limit int) (
	[]model.Message, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	messages := make([]model.Message, 0)
	for _, message := range r.store.messages {
		if message.BusinessNumber == businessNumber && message.CounterpartNumber == counterpartNumber {
			messages = append(messages, *copyMessage(message))
		}
	}

	sort.Slice(messages, func(i, j int) bool {
		if messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].ID > messages[j].ID
		}
		return messages[i].Timestamp.After(messages[j].Timestamp)
	})

	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}

	return messages, nil
}
