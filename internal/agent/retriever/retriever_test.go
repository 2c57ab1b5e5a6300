package retriever

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intellistream/server/internal/agent/model"
)

type countingStore struct {
	docs  []model.Document
	err   error
	calls int
}

func (s *countingStore) Retrieve(_ context.Context, _ string, _ int) ([]model.Document, error) {
	s.calls++
	return s.docs, s.err
}

func TestCachedStore_ReadThrough(t *testing.T) {
	inner := &countingStore{docs: []model.Document{
		{ID: "1", Title: "A", Score: 0.9},
		{ID: "2", Title: "B", Score: 0.8},
	}}
	s := NewCachedStore(inner, time.Minute)

	first, err := s.Retrieve(context.Background(), "golang concurrency", 5)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, inner.calls)

	second, err := s.Retrieve(context.Background(), "golang concurrency", 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls, "the second lookup must come from cache")
}

func TestCachedStore_DistinctQueriesMiss(t *testing.T) {
	inner := &countingStore{}
	s := NewCachedStore(inner, time.Minute)

	_, err := s.Retrieve(context.Background(), "query one", 5)
	require.NoError(t, err)
	_, err = s.Retrieve(context.Background(), "query two", 5)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedStore_CachedResultsAreClipped(t *testing.T) {
	inner := &countingStore{docs: []model.Document{
		{ID: "1"}, {ID: "2"}, {ID: "3"},
	}}
	s := NewCachedStore(inner, time.Minute)

	_, err := s.Retrieve(context.Background(), "q", 3)
	require.NoError(t, err)

	clipped, err := s.Retrieve(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Len(t, clipped, 2)
}

func TestCachedStore_ErrorsAreNotCached(t *testing.T) {
	inner := &countingStore{err: errors.New("index offline")}
	s := NewCachedStore(inner, time.Minute)

	_, err := s.Retrieve(context.Background(), "q", 5)
	require.Error(t, err)

	inner.err = nil
	_, err = s.Retrieve(context.Background(), "q", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}
