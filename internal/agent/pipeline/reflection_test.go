package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intellistream/server/internal/agent/llm"
	"github.com/intellistream/server/internal/agent/model"
)

func TestReflection_SkipsWithoutDraft(t *testing.T) {
	gen := &stubGenerator{}
	r := NewReflection(gen)

	d := r.Run(context.Background(), model.NewState("anything", "t", "u", nil))

	assert.Empty(t, gen.prompts)
	assert.Nil(t, d.SynthesizedResponse)
	assert.Equal(t, "skipped", d.Trace[0].Action)
	assert.Equal(t, "no_draft", d.Trace[0].Reason)
}

func TestReflection_RemovesUnsupportedClaim(t *testing.T) {
	draft := "Chicago is 21°C [1]. The city was founded in 1833 [2]."
	gen := &stubGenerator{
		generate: func(prompt string, _ llm.GenerateOptions) (string, error) {
			// The critic strips the claim not present in any source.
			require.Contains(t, prompt, draft)
			return "Chicago is 21°C [1].", nil
		},
	}
	r := NewReflection(gen)

	s := model.NewState("weather in chicago", "t", "u", nil)
	s.SynthesizedResponse = draft
	s.Sources = []model.Source{
		{ID: "[1]", Title: "Weather: Chicago", Snippet: "Temperature: 21.0°C"},
	}
	d := r.Run(context.Background(), s)

	require.NotNil(t, d.SynthesizedResponse)
	assert.Equal(t, "Chicago is 21°C [1].", *d.SynthesizedResponse)
	assert.NotContains(t, *d.SynthesizedResponse, "1833")

	assert.Equal(t, "improved", d.Trace[0].Action)
	assert.Equal(t, len(draft), d.Trace[0].OriginalLength)
	assert.Equal(t, len("Chicago is 21°C [1]."), d.Trace[0].ImprovedLength)
}

func TestReflection_PromptRendersSourcesWithClippedSnippets(t *testing.T) {
	gen := &stubGenerator{fallback: "fine"}
	r := NewReflection(gen)

	s := model.NewState("q", "t", "u", nil)
	s.SynthesizedResponse = "draft"
	s.Sources = []model.Source{
		{ID: "[1]", Title: "Long", Snippet: strings.Repeat("s", 200)},
	}
	r.Run(context.Background(), s)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "[1] Long: "+strings.Repeat("s", 100))
	assert.NotContains(t, gen.prompts[0], strings.Repeat("s", 101))
}

func TestReflection_FailureKeepsDraft(t *testing.T) {
	gen := &stubGenerator{
		generate: func(_ string, _ llm.GenerateOptions) (string, error) {
			return "", assert.AnError
		},
	}
	r := NewReflection(gen)

	s := model.NewState("q", "t", "u", nil)
	s.SynthesizedResponse = "the draft"
	d := r.Run(context.Background(), s)

	assert.Nil(t, d.SynthesizedResponse, "a failed critique must not touch the draft")
	assert.Equal(t, "skipped", d.Trace[0].Action)
	assert.Equal(t, "critique_failed", d.Trace[0].Reason)
}
