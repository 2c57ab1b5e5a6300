package repo

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	gocache "github.com/patrickmn/go-cache"

	"github.com/intellistream/server/internal/agent/model"
)

// MemoryCheckpointRepository keeps thread history in process memory with TTL
// eviction, so idle threads do not accumulate forever. Suitable for tests and
// single-instance deployments without Redis.
type MemoryCheckpointRepository struct {
	mu    sync.Mutex
	store *gocache.Cache
	ttl   time.Duration
}

func NewMemoryCheckpointRepository(ttl time.Duration) *MemoryCheckpointRepository {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryCheckpointRepository{
		store: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (r *MemoryCheckpointRepository) AppendMessage(_ context.Context, threadID string, message *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var msgs []*schema.Message
	if v, ok := r.store.Get(threadID); ok {
		msgs = v.([]*schema.Message)
	}
	msgs = append(msgs, message)
	// SetDefault refreshes the TTL on every touch, matching the Redis repo.
	r.store.SetDefault(threadID, msgs)
	return nil
}

func (r *MemoryCheckpointRepository) LoadHistory(_ context.Context, threadID string) (*model.ThreadHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := &model.ThreadHistory{ThreadID: threadID, Messages: []*schema.Message{}}
	if v, ok := r.store.Get(threadID); ok {
		stored := v.([]*schema.Message)
		history.Messages = make([]*schema.Message, len(stored))
		copy(history.Messages, stored)
	}
	return history, nil
}

func (r *MemoryCheckpointRepository) ClearHistory(_ context.Context, threadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.Delete(threadID)
	return nil
}

func (r *MemoryCheckpointRepository) MessageCount(_ context.Context, threadID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.store.Get(threadID); ok {
		return len(v.([]*schema.Message)), nil
	}
	return 0, nil
}

var _ model.CheckpointRepository = (*MemoryCheckpointRepository)(nil)
