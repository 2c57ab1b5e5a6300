package retriever

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/intellistream/server/internal/agent/model"
	logx "github.com/intellistream/server/pkg/logger"
)

// DocumentStore is the hybrid similarity/keyword index the research stage
// queries. Implementations rank results and attach relevance scores in [0,1].
type DocumentStore interface {
	Retrieve(ctx context.Context, query string, topK int) ([]model.Document, error)
}

// CachedStore wraps a DocumentStore with a read-through result cache keyed by
// a hash of the query text. Concurrent reads and writes per key are safe; a
// racing pair of writers just stores the same result twice.
type CachedStore struct {
	inner DocumentStore
	cache *gocache.Cache
}

func NewCachedStore(inner DocumentStore, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedStore{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (s *CachedStore) Retrieve(ctx context.Context, query string, topK int) ([]model.Document, error) {
	key := cacheKey(query)
	if v, ok := s.cache.Get(key); ok {
		docs := v.([]model.Document)
		logx.Debug().Str("key", key).Int("docs", len(docs)).Msg("search cache hit")
		return clip(docs, topK), nil
	}

	docs, err := s.inner.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, docs)
	return docs, nil
}

func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return "search:" + hex.EncodeToString(sum[:])
}

func clip(docs []model.Document, topK int) []model.Document {
	if topK > 0 && len(docs) > topK {
		return docs[:topK]
	}
	return docs
}

var _ DocumentStore = (*CachedStore)(nil)
