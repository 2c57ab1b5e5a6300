package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/intellistream/server/internal/agent/model"
	logx "github.com/intellistream/server/pkg/logger"
)

// GeminiConfig holds what is needed to build the two chat models.
type GeminiConfig struct {
	APIKey    string
	BaseURL   string
	Router    model.RouterModelConfig
	Synthesis model.SynthesisModelConfig
}

// NewGeminiGenerator creates a ChatGenerator backed by the Gemini API, with a
// fast model for routing and a stronger one for synthesis and critique.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*ChatGenerator, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	fast, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Router.Model,
		Temperature: &cfg.Router.Temperature,
		MaxTokens:   &cfg.Router.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating router model")
		return nil, fmt.Errorf("error creating router model: %w", err)
	}

	deep, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Synthesis.Model,
		Temperature: &cfg.Synthesis.Temperature,
		MaxTokens:   &cfg.Synthesis.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating synthesis model")
		return nil, fmt.Errorf("error creating synthesis model: %w", err)
	}

	return NewChatGenerator(fast, deep), nil
}
