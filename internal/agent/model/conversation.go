package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// CheckpointRepository persists thread history between turns so a later
// query can resume the conversation.
type CheckpointRepository interface {
	// AppendMessage adds a message to the history for the given thread.
	AppendMessage(ctx context.Context, threadID string, message *schema.Message) error

	// LoadHistory retrieves the thread history, oldest first.
	LoadHistory(ctx context.Context, threadID string) (*ThreadHistory, error)

	// ClearHistory removes all history for a thread.
	ClearHistory(ctx context.Context, threadID string) error

	// MessageCount returns the number of messages stored for the thread.
	MessageCount(ctx context.Context, threadID string) (int, error)
}

// ThreadHistory represents loaded thread data.
type ThreadHistory struct {
	ThreadID string
	Messages []*schema.Message
}
