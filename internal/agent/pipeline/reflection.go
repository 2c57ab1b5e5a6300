package pipeline

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/intellistream/server/internal/agent/llm"
	"github.com/intellistream/server/internal/agent/model"
	logx "github.com/intellistream/server/pkg/logger"
)

const (
	reflectionTemperature float32 = 0.3
	reflectionMaxTokens           = 2000
)

// Reflection critiques the draft against the cited sources and replaces it
// with the improved version. No draft means nothing to critique.
type Reflection struct {
	gen llm.Generator
}

func NewReflection(gen llm.Generator) *Reflection {
	return &Reflection{gen: gen}
}

func (r *Reflection) Name() string { return "reflection" }

func (r *Reflection) Run(ctx context.Context, s *model.State) *model.Delta {
	start := time.Now()

	draft := s.SynthesizedResponse
	if draft == "" {
		return &model.Delta{
			Trace: []model.TraceEntry{{
				Agent:  "reflection",
				Action: "skipped",
				Reason: "no_draft",
			}},
		}
	}

	prompt := renderReflectionPrompt(s.Query, draft, s.Sources)
	improved, err := r.gen.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)}, llm.GenerateOptions{
		Temperature: llm.Temp(reflectionTemperature),
		MaxTokens:   reflectionMaxTokens,
	})
	if err != nil || improved == "" {
		if err != nil {
			logx.Warn().Err(err).Msg("reflection failed, keeping draft")
		}
		return &model.Delta{
			Trace: []model.TraceEntry{{
				Agent:     "reflection",
				Action:    "skipped",
				Reason:    "critique_failed",
				LatencyMS: time.Since(start).Milliseconds(),
			}},
		}
	}

	return &model.Delta{
		SynthesizedResponse: model.StringPtr(improved),
		Trace: []model.TraceEntry{{
			Agent:          "reflection",
			Action:         "improved",
			OriginalLength: len(draft),
			ImprovedLength: len(improved),
			LatencyMS:      time.Since(start).Milliseconds(),
		}},
	}
}
