package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	errx "github.com/intellistream/server/internal/core/error"
)

// GenerateOptions tunes a single inference call.
type GenerateOptions struct {
	// Fast selects the small routing model instead of the default one.
	Fast bool
	// Temperature overrides the model default when non-nil.
	Temperature *float32
	// MaxTokens caps the output length when > 0.
	MaxTokens int
	// SystemPrompt is prepended as a system message when non-empty.
	SystemPrompt string
}

// Temp is a convenience for building a temperature override.
func Temp(v float32) *float32 { return &v }

// Generator is the inference service the pipeline stages call. A transport
// failure surfaces as a wrapped errx inference error; GenerateStructured
// additionally reports unparseable output as errx.ErrMalformedOutput so the
// caller can tell the two kinds apart.
type Generator interface {
	Generate(ctx context.Context, messages []*schema.Message, opts GenerateOptions) (string, error)
	GenerateStructured(ctx context.Context, messages []*schema.Message, schemaDescription string, out any) error
}

// ChatGenerator implements Generator over two eino chat models: a fast one
// for routing/clarification and a default one for everything else.
type ChatGenerator struct {
	fast einomodel.BaseChatModel
	deep einomodel.BaseChatModel
}

func NewChatGenerator(fast, deep einomodel.BaseChatModel) *ChatGenerator {
	return &ChatGenerator{fast: fast, deep: deep}
}

func (g *ChatGenerator) pick(opts GenerateOptions) einomodel.BaseChatModel {
	if opts.Fast && g.fast != nil {
		return g.fast
	}
	return g.deep
}

func (g *ChatGenerator) Generate(ctx context.Context, messages []*schema.Message, opts GenerateOptions) (string, error) {
	cm := g.pick(opts)
	if cm == nil {
		return "", errx.WrapInference(fmt.Errorf("chat model not configured"))
	}

	full := make([]*schema.Message, 0, len(messages)+1)
	if opts.SystemPrompt != "" {
		full = append(full, schema.SystemMessage(opts.SystemPrompt))
	}
	full = append(full, messages...)

	var callOpts []einomodel.Option
	if opts.Temperature != nil {
		callOpts = append(callOpts, einomodel.WithTemperature(*opts.Temperature))
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, einomodel.WithMaxTokens(opts.MaxTokens))
	}

	out, err := cm.Generate(ctx, full, callOpts...)
	if err != nil {
		return "", errx.WrapInference(err)
	}
	if out == nil {
		return "", nil
	}
	return out.Content, nil
}

func (g *ChatGenerator) GenerateStructured(ctx context.Context, messages []*schema.Message, schemaDescription string, out any) error {
	system := fmt.Sprintf(`You are a helpful assistant that always responds with valid JSON.
Your response must match this schema:
%s

Respond ONLY with valid JSON, no markdown, no explanation.`, schemaDescription)

	raw, err := g.Generate(ctx, messages, GenerateOptions{
		Temperature:  Temp(0.3),
		SystemPrompt: system,
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(StripJSONFences(raw)), out); err != nil {
		return fmt.Errorf("%w: %v", errx.ErrMalformedOutput, err)
	}
	return nil
}

// StripJSONFences removes markdown code fences that models wrap around JSON.
func StripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}

var _ Generator = (*ChatGenerator)(nil)
