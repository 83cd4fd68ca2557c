// Package memory keeps every repository in process memory. It backs the "memory"
// database driver used for local development and the engine tests. A single mutex
// guards the whole store and TxManager serialises transactions, so counter updates
// never interleave.
package memory

import (
	"context"
	"sync"

	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/repository"
)

type pairKey struct {
	business    string
	counterpart string
}

type dayKey struct {
	business string
	day      string
}

type Store struct {
	mu sync.RWMutex

	messages         map[int64]*model.Message
	providerIndex    map[string]int64
	nextMessageID    int64
	conversations    map[int64]*model.Conversation
	conversationPair map[pairKey]int64
	nextConvID       int64
	daily            map[dayKey]*model.DailyMetrics
	nextDailyID      int64
	customers        map[dayKey]map[string]struct{}
	trackers         map[pairKey]*model.ResponseTracker

	txMu sync.Mutex
}

func NewStore() *Store {
	return &Store{
		messages:         make(map[int64]*model.Message),
		providerIndex:    make(map[string]int64),
		conversations:    make(map[int64]*model.Conversation),
		conversationPair: make(map[pairKey]int64),
		daily:            make(map[dayKey]*model.DailyMetrics),
		customers:        make(map[dayKey]map[string]struct{}),
		trackers:         make(map[pairKey]*model.ResponseTracker),
	}
}

type txMarker struct{}

// TxManager runs transactions one at a time. The store is snapshotted when the outermost
// transaction starts and restored when fn fails. Writes made outside a transaction while
// one is rolling back are lost with it.
type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) repository.TxManager {
	return &TxManager{store: store}
}

func (t *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}

	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	saved := t.store.snapshot()
	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		t.store.restore(saved)
		return err
	}

	return nil
}

type snapshot struct {
	messages         map[int64]*model.Message
	providerIndex    map[string]int64
	nextMessageID    int64
	conversations    map[int64]*model.Conversation
	conversationPair map[pairKey]int64
	nextConvID       int64
	daily            map[dayKey]*model.DailyMetrics
	nextDailyID      int64
	customers        map[dayKey]map[string]struct{}
	trackers         map[pairKey]*model.ResponseTracker
}

// snapshot copies every row. Repositories replace pointer fields instead of writing
// through them, so copying the structs is enough.
func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	saved := snapshot{
		messages:         make(map[int64]*model.Message, len(s.messages)),
		providerIndex:    make(map[string]int64, len(s.providerIndex)),
		nextMessageID:    s.nextMessageID,
		conversations:    make(map[int64]*model.Conversation, len(s.conversations)),
		conversationPair: make(map[pairKey]int64, len(s.conversationPair)),
		nextConvID:       s.nextConvID,
		daily:            make(map[dayKey]*model.DailyMetrics, len(s.daily)),
		nextDailyID:      s.nextDailyID,
		customers:        make(map[dayKey]map[string]struct{}, len(s.customers)),
		trackers:         make(map[pairKey]*model.ResponseTracker, len(s.trackers)),
	}

	for id, m := range s.messages {
		saved.messages[id] = copyMessage(m)
	}
	for k, v := range s.providerIndex {
		saved.providerIndex[k] = v
	}
	for id, c := range s.conversations {
		saved.conversations[id] = copyConversation(c)
	}
	for k, v := range s.conversationPair {
		saved.conversationPair[k] = v
	}
	for k, row := range s.daily {
		c := *row
		saved.daily[k] = &c
	}
	for k, seen := range s.customers {
		c := make(map[string]struct{}, len(seen))
		for n := range seen {
			c[n] = struct{}{}
		}
		saved.customers[k] = c
	}
	for k, tracker := range s.trackers {
		c := *tracker
		saved.trackers[k] = &c
	}

	return saved
}

func (s *Store) restore(saved snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = saved.messages
	s.providerIndex = saved.providerIndex
	s.nextMessageID = saved.nextMessageID
	s.conversations = saved.conversations
	s.conversationPair = saved.conversationPair
	s.nextConvID = saved.nextConvID
	s.daily = saved.daily
	s.nextDailyID = saved.nextDailyID
	s.customers = saved.customers
	s.trackers = saved.trackers
}

func copyMessage(m *model.Message) *model.Message {
	c := *m
	if m.ProviderMsgID != nil {
		id := *m.ProviderMsgID
		c.ProviderMsgID = &id
	}
	return &c
}

func copyConversation(c *model.Conversation) *model.Conversation {
	cc := *c
	return &cc
}
