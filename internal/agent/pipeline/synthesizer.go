package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/intellistream/server/internal/agent/llm"
	"github.com/intellistream/server/internal/agent/model"
	logx "github.com/intellistream/server/pkg/logger"
)

// synthesisTemperature keeps drafts factual and grounded.
const synthesisTemperature float32 = 0.2

// Synthesizer drafts a grounded answer from the fused context and extracted
// facts. The token budget scales with query length so short questions get
// short answers.
type Synthesizer struct {
	gen llm.Generator
}

func NewSynthesizer(gen llm.Generator) *Synthesizer {
	return &Synthesizer{gen: gen}
}

func (s *Synthesizer) Name() string { return "synthesizer" }

// tokenBudget maps query length to a response token cap.
func tokenBudget(query string) int {
	switch words := len(strings.Fields(query)); {
	case words < 10:
		return 300
	case words < 25:
		return 600
	default:
		return 1000
	}
}

func (s *Synthesizer) Run(ctx context.Context, st *model.State) *model.Delta {
	start := time.Now()

	prompt := renderSynthesisPrompt(st.Query, st.Context, st.KeyFacts)
	draft, err := s.gen.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)}, llm.GenerateOptions{
		Temperature: llm.Temp(synthesisTemperature),
		MaxTokens:   tokenBudget(st.Query),
	})
	if err != nil {
		logx.Warn().Err(err).Msg("synthesis failed, leaving draft empty")
		draft = ""
	}

	return &model.Delta{
		SynthesizedResponse: model.StringPtr(draft),
		Trace: []model.TraceEntry{{
			Agent:        "synthesizer",
			Action:       "synthesized",
			OutputLength: len(draft),
			LatencyMS:    time.Since(start).Milliseconds(),
		}},
	}
}
