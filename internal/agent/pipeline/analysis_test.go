package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/intellistream/server/internal/core/error"

	"github.com/intellistream/server/internal/agent/model"
)

func TestAnalysis_SkipsWithoutContext(t *testing.T) {
	tests := []struct {
		name    string
		context string
	}{
		{"empty context", ""},
		{"no-documents placeholder", "No relevant documents found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{}
			a := NewAnalysis(gen)

			s := model.NewState("anything", "t", "u", nil)
			s.Context = tt.context
			d := a.Run(context.Background(), s)

			assert.Empty(t, gen.structuredPrompts, "extractor must not call the model without context")
			require.NotNil(t, d.Sentiment)
			assert.Equal(t, "neutral", d.Sentiment.Overall)
			assert.Equal(t, 0.5, d.Sentiment.Confidence)
			assert.Empty(t, d.Entities)
			assert.Empty(t, d.KeyFacts)
			assert.Equal(t, "skipped", d.Trace[0].Action)
			assert.Equal(t, "no_context", d.Trace[0].Reason)
			assert.Zero(t, d.Trace[0].LatencyMS)
		})
	}
}

func TestAnalysis_ExtractsStructuredInsights(t *testing.T) {
	gen := &stubGenerator{
		structured: func(_ string, out any) error {
			r := out.(*analysisResult)
			r.Entities = []model.Entity{{Name: "Rome", Type: "location"}}
			r.Sentiment = model.Sentiment{Overall: "positive", Confidence: 0.8}
			r.KeyFacts = []string{"Rome fell in 476 AD"}
			return nil
		},
	}
	a := NewAnalysis(gen)

	s := model.NewState("history of rome", "t", "u", nil)
	s.Context = "[1] Rome\nThe empire lasted centuries."
	d := a.Run(context.Background(), s)

	require.Len(t, d.Entities, 1)
	assert.Equal(t, "Rome", d.Entities[0].Name)
	assert.Equal(t, []string{"Rome fell in 476 AD"}, d.KeyFacts)
	assert.Equal(t, "analyzed", d.Trace[0].Action)
	assert.Equal(t, 1, d.Trace[0].EntitiesFound)
	assert.Equal(t, "positive", d.Trace[0].Sentiment)
}

func TestAnalysis_MalformedOutputDegradesToNeutral(t *testing.T) {
	gen := &stubGenerator{
		structured: func(_ string, _ any) error {
			return fmt.Errorf("%w: unexpected token", errx.ErrMalformedOutput)
		},
	}
	a := NewAnalysis(gen)

	s := model.NewState("anything", "t", "u", nil)
	s.Context = "[1] Doc\nsome content"
	d := a.Run(context.Background(), s)

	require.NotNil(t, d.Sentiment)
	assert.Equal(t, "neutral", d.Sentiment.Overall)
	assert.Empty(t, d.Entities)
	assert.Empty(t, d.KeyFacts)
	assert.Equal(t, "analyzed", d.Trace[0].Action)
}

func TestAnalysis_TruncatesContextForPrompt(t *testing.T) {
	gen := &stubGenerator{}
	a := NewAnalysis(gen)

	s := model.NewState("anything", "t", "u", nil)
	s.Context = strings.Repeat("x", 5000)
	a.Run(context.Background(), s)

	require.Len(t, gen.structuredPrompts, 1)
	assert.NotContains(t, gen.structuredPrompts[0], strings.Repeat("x", 3001),
		"prompt must carry at most 3000 context characters")
}
