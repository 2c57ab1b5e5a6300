package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intellistream/server/internal/agent/llm"
	"github.com/intellistream/server/internal/agent/model"
)

func TestResponder_PrefersCritiquedDraft(t *testing.T) {
	gen := &stubGenerator{}
	r := NewResponder(gen)

	s := model.NewState("q", "t", "u", nil)
	s.RouteDecision = model.RouteResearch
	s.SynthesizedResponse = "The improved answer [1]."
	d, err := r.Run(context.Background(), s)

	require.NoError(t, err)
	require.NotNil(t, d.FinalResponse)
	assert.Equal(t, "The improved answer [1].", *d.FinalResponse)
	assert.Empty(t, gen.prompts, "a draft answer needs no extra model call")
	assert.Equal(t, "formatted", d.Trace[0].Action)
	assert.Equal(t, len("The improved answer [1]."), d.Trace[0].ResponseLength)
}

func TestResponder_DirectAnswerUsesConversation(t *testing.T) {
	var gotOpts llm.GenerateOptions
	gen := &stubGenerator{
		generate: func(_ string, opts llm.GenerateOptions) (string, error) {
			gotOpts = opts
			return "Hello! How can I help?", nil
		},
	}
	r := NewResponder(gen)

	s := model.NewState("hello there", "t", "u", nil)
	s.RouteDecision = model.RouteDirect
	d, err := r.Run(context.Background(), s)

	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help?", *d.FinalResponse)
	require.NotNil(t, gotOpts.Temperature)
	assert.InDelta(t, 0.7, float64(*gotOpts.Temperature), 1e-6)
	require.Len(t, gen.prompts, 1)
	assert.Equal(t, "hello there", gen.prompts[0])
}

func TestResponder_ClarificationFallbacks(t *testing.T) {
	r := NewResponder(&stubGenerator{})

	s := model.NewState("tell me about dekalb", "t", "u", nil)
	s.RouteDecision = model.RouteClarify
	s.NeedsClarification = true
	s.ClarificationQuestion = "Which Dekalb do you mean?"
	d, err := r.Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "Which Dekalb do you mean?", *d.FinalResponse)

	s = model.NewState("tell me about dekalb", "t", "u", nil)
	s.RouteDecision = model.RouteClarify
	s.NeedsClarification = true
	d, err = r.Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "Could you please clarify your question?", *d.FinalResponse)
}

func TestResponder_NoInformationFallback(t *testing.T) {
	r := NewResponder(&stubGenerator{})

	s := model.NewState("q", "t", "u", nil)
	s.RouteDecision = model.RouteResearch
	d, err := r.Run(context.Background(), s)

	require.NoError(t, err)
	assert.Equal(t, "I couldn't find relevant information to answer your query.", *d.FinalResponse)
}

func TestResponder_TotalLatencySumsTrace(t *testing.T) {
	r := NewResponder(&stubGenerator{})

	s := model.NewState("q", "t", "u", nil)
	s.RouteDecision = model.RouteResearch
	s.SynthesizedResponse = "answer"
	s.AgentTrace = []model.TraceEntry{
		{Agent: "router", LatencyMS: 12},
		{Agent: "research", LatencyMS: 30},
	}
	d, err := r.Run(context.Background(), s)

	require.NoError(t, err)
	require.NotNil(t, d.TotalLatencyMS)
	assert.Equal(t, int64(42)+d.Trace[0].LatencyMS, *d.TotalLatencyMS)
}

func TestResponder_DirectFailurePropagates(t *testing.T) {
	gen := &stubGenerator{
		generate: func(_ string, _ llm.GenerateOptions) (string, error) {
			return "", assert.AnError
		},
	}
	r := NewResponder(gen)

	s := model.NewState("hello", "t", "u", nil)
	s.RouteDecision = model.RouteDirect
	_, err := r.Run(context.Background(), s)

	assert.Error(t, err, "the finalizer is the one stage whose failure reaches the caller")
}
