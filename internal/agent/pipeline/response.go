package pipeline

import (
	"context"
	"time"

	"github.com/intellistream/server/internal/agent/llm"
	"github.com/intellistream/server/internal/agent/model"
)

const (
	directTemperature float32 = 0.7

	fallbackClarification = "Could you please clarify your question?"
	fallbackNoInformation = "I couldn't find relevant information to answer your query."
)

// Responder finalizes the answer. Priority: critiqued draft, then a direct
// model answer over the full conversation, then the clarification question,
// then the no-information fallback. This is the only stage whose failure
// reaches the caller.
type Responder struct {
	gen llm.Generator
}

func NewResponder(gen llm.Generator) *Responder {
	return &Responder{gen: gen}
}

func (r *Responder) Name() string { return "response" }

func (r *Responder) Run(ctx context.Context, s *model.State) (*model.Delta, error) {
	start := time.Now()

	var final string
	switch {
	case s.SynthesizedResponse != "":
		final = s.SynthesizedResponse
	case s.RouteDecision == model.RouteDirect:
		answer, err := r.gen.Generate(ctx, s.Messages, llm.GenerateOptions{
			Temperature: llm.Temp(directTemperature),
		})
		if err != nil {
			return nil, err
		}
		final = answer
	case s.NeedsClarification:
		final = s.ClarificationQuestion
		if final == "" {
			final = fallbackClarification
		}
	default:
		final = fallbackNoInformation
	}

	latency := time.Since(start).Milliseconds()
	total := latency
	for _, entry := range s.AgentTrace {
		total += entry.LatencyMS
	}

	return &model.Delta{
		FinalResponse:  model.StringPtr(final),
		TotalLatencyMS: model.Int64Ptr(total),
		Trace: []model.TraceEntry{{
			Agent:          "response",
			Action:         "formatted",
			ResponseLength: len(final),
			LatencyMS:      latency,
		}},
	}, nil
}
