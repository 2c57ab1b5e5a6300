package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/intellistream/server/internal/agent/llm"
)

// stubGenerator is a scriptable llm.Generator. generate is matched against
// the last message content; unmatched prompts fall through to fallback.
type stubGenerator struct {
	generate   func(prompt string, opts llm.GenerateOptions) (string, error)
	structured func(prompt string, out any) error
	fallback   string

	prompts           []string
	structuredPrompts []string
}

func (g *stubGenerator) Generate(_ context.Context, messages []*schema.Message, opts llm.GenerateOptions) (string, error) {
	prompt := lastContent(messages)
	g.prompts = append(g.prompts, prompt)
	if g.generate != nil {
		return g.generate(prompt, opts)
	}
	return g.fallback, nil
}

func (g *stubGenerator) GenerateStructured(_ context.Context, messages []*schema.Message, _ string, out any) error {
	prompt := lastContent(messages)
	g.structuredPrompts = append(g.structuredPrompts, prompt)
	if g.structured != nil {
		return g.structured(prompt, out)
	}
	return json.Unmarshal([]byte(`{"entities":[],"sentiment":{"overall":"neutral","confidence":0.5},"key_facts":[]}`), out)
}

func lastContent(messages []*schema.Message) string {
	if len(messages) == 0 {
		return ""
	}
	return messages[len(messages)-1].Content
}

// scriptedGenerator answers routing, synthesis, critique and direct prompts
// with recognizable canned text, enough to drive full engine runs.
func scriptedGenerator(route string) *stubGenerator {
	return &stubGenerator{
		generate: func(prompt string, _ llm.GenerateOptions) (string, error) {
			switch {
			case strings.Contains(prompt, "query router"):
				return route, nil
			case strings.Contains(prompt, "Clarification question:"):
				return "Which aspect are you interested in?", nil
			case strings.Contains(prompt, "Retrieved Context:"):
				return "The draft answer [1].", nil
			case strings.Contains(prompt, "Draft Response:"):
				return "The improved answer [1].", nil
			default:
				return "A direct answer.", nil
			}
		},
	}
}

func weatherTurn() []*schema.Message {
	return []*schema.Message{
		schema.UserMessage("what's the weather in chicago?"),
		schema.AssistantMessage("It is 20°C in Chicago right now.", nil),
	}
}

func stockTurn() []*schema.Message {
	return []*schema.Message{
		schema.UserMessage("what is the MSFT stock price?"),
		schema.AssistantMessage("MSFT trades around $430.", nil),
	}
}
