package pipeline

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/intellistream/server/internal/agent/llm"
	"github.com/intellistream/server/internal/agent/model"
	logx "github.com/intellistream/server/pkg/logger"
)

// analysisContextChars caps how much fused context the extraction prompt sees.
const analysisContextChars = 3000

// analysisResult mirrors the structured-output schema the model is held to.
type analysisResult struct {
	Entities  []model.Entity  `json:"entities"`
	Sentiment model.Sentiment `json:"sentiment"`
	KeyFacts  []string        `json:"key_facts"`
}

// Analysis extracts entities, sentiment and key facts from the fused context.
// With no context it returns neutral defaults without touching the model, and
// any inference or parse failure degrades to the same defaults.
type Analysis struct {
	gen llm.Generator
}

func NewAnalysis(gen llm.Generator) *Analysis {
	return &Analysis{gen: gen}
}

func (a *Analysis) Name() string { return "analysis" }

func (a *Analysis) Run(ctx context.Context, s *model.State) *model.Delta {
	start := time.Now()

	if s.Context == "" || s.Context == noDocumentsContext {
		neutral := model.NeutralSentiment()
		return &model.Delta{
			Entities:  []model.Entity{},
			Sentiment: &neutral,
			KeyFacts:  []string{},
			Trace: []model.TraceEntry{{
				Agent:  "analysis",
				Action: "skipped",
				Reason: "no_context",
			}},
		}
	}

	contextBlock := s.Context
	if len(contextBlock) > analysisContextChars {
		contextBlock = contextBlock[:analysisContextChars]
	}

	var result analysisResult
	err := a.gen.GenerateStructured(ctx, []*schema.Message{
		schema.UserMessage(renderAnalysisPrompt(contextBlock, s.Query)),
	}, analysisSchema, &result)
	if err != nil {
		logx.Warn().Err(err).Msg("analysis extraction failed, using neutral defaults")
		result = analysisResult{Sentiment: model.NeutralSentiment()}
	}
	if result.Sentiment.Overall == "" {
		result.Sentiment = model.NeutralSentiment()
	}
	if result.Entities == nil {
		result.Entities = []model.Entity{}
	}
	if result.KeyFacts == nil {
		result.KeyFacts = []string{}
	}

	sentiment := result.Sentiment
	return &model.Delta{
		Entities:  result.Entities,
		Sentiment: &sentiment,
		KeyFacts:  result.KeyFacts,
		Trace: []model.TraceEntry{{
			Agent:         "analysis",
			Action:        "analyzed",
			EntitiesFound: len(result.Entities),
			Sentiment:     sentiment.Overall,
			LatencyMS:     time.Since(start).Milliseconds(),
		}},
	}
}
