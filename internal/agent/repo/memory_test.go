package repo

import (
	"context"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCheckpointRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryCheckpointRepository(time.Minute)

	require.NoError(t, r.AppendMessage(ctx, "thread-1", schema.UserMessage("hello")))
	require.NoError(t, r.AppendMessage(ctx, "thread-1", schema.AssistantMessage("hi!", nil)))

	history, err := r.LoadHistory(ctx, "thread-1")
	require.NoError(t, err)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "hello", history.Messages[0].Content)
	assert.Equal(t, schema.Assistant, history.Messages[1].Role)

	count, err := r.MessageCount(ctx, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemoryCheckpointRepository_ThreadsAreIsolated(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryCheckpointRepository(time.Minute)

	require.NoError(t, r.AppendMessage(ctx, "a", schema.UserMessage("for a")))

	history, err := r.LoadHistory(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, history.Messages)

	count, err := r.MessageCount(ctx, "b")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryCheckpointRepository_ClearHistory(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryCheckpointRepository(time.Minute)

	require.NoError(t, r.AppendMessage(ctx, "thread-1", schema.UserMessage("hello")))
	require.NoError(t, r.ClearHistory(ctx, "thread-1"))

	count, err := r.MessageCount(ctx, "thread-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryCheckpointRepository_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryCheckpointRepository(time.Minute)

	require.NoError(t, r.AppendMessage(ctx, "thread-1", schema.UserMessage("original")))

	history, err := r.LoadHistory(ctx, "thread-1")
	require.NoError(t, err)
	history.Messages[0] = schema.UserMessage("mutated")

	fresh, err := r.LoadHistory(ctx, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, "original", fresh.Messages[0].Content)
}
