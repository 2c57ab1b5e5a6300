package llm

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/intellistream/server/internal/core/error"
)

// fakeChatModel records the last input and plays back a canned reply.
type fakeChatModel struct {
	reply string
	err   error
	last  []*schema.Message
}

func (m *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.last = input
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	m.last = input
	return nil, m.err
}

func TestStripJSONFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripJSONFences(tt.in))
		})
	}
}

func TestChatGenerator_PicksModelAndPrependsSystemPrompt(t *testing.T) {
	fast := &fakeChatModel{reply: "RESEARCH"}
	deep := &fakeChatModel{reply: "a long answer"}
	g := NewChatGenerator(fast, deep)

	out, err := g.Generate(context.Background(), []*schema.Message{schema.UserMessage("route this")},
		GenerateOptions{Fast: true})
	require.NoError(t, err)
	assert.Equal(t, "RESEARCH", out)
	assert.Nil(t, deep.last)

	out, err = g.Generate(context.Background(), []*schema.Message{schema.UserMessage("answer this")},
		GenerateOptions{SystemPrompt: "be brief"})
	require.NoError(t, err)
	assert.Equal(t, "a long answer", out)
	require.Len(t, deep.last, 2)
	assert.Equal(t, schema.System, deep.last[0].Role)
	assert.Equal(t, "be brief", deep.last[0].Content)
}

func TestChatGenerator_TransportFailureIsWrapped(t *testing.T) {
	deep := &fakeChatModel{err: errors.New("connection refused")}
	g := NewChatGenerator(nil, deep)

	_, err := g.Generate(context.Background(), []*schema.Message{schema.UserMessage("q")}, GenerateOptions{})
	require.Error(t, err)

	var appErr *errx.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errx.InferenceErrorMessage, appErr.Message)
}

func TestChatGenerator_GenerateStructured(t *testing.T) {
	deep := &fakeChatModel{reply: "```json\n{\"overall\":\"positive\",\"confidence\":0.8}\n```"}
	g := NewChatGenerator(nil, deep)

	var out struct {
		Overall    string  `json:"overall"`
		Confidence float64 `json:"confidence"`
	}
	err := g.GenerateStructured(context.Background(), []*schema.Message{schema.UserMessage("analyze")},
		`{"overall":"...","confidence":0.0}`, &out)

	require.NoError(t, err)
	assert.Equal(t, "positive", out.Overall)
	assert.Equal(t, 0.8, out.Confidence)
	require.NotEmpty(t, deep.last)
	assert.Equal(t, schema.System, deep.last[0].Role, "structured calls carry the JSON-only system prompt")
}

func TestChatGenerator_MalformedStructuredOutput(t *testing.T) {
	deep := &fakeChatModel{reply: "I refuse to answer in JSON."}
	g := NewChatGenerator(nil, deep)

	var out map[string]any
	err := g.GenerateStructured(context.Background(), []*schema.Message{schema.UserMessage("analyze")}, "{}", &out)

	assert.ErrorIs(t, err, errx.ErrMalformedOutput)
}
