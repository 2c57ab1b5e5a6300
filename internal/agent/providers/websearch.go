package providers

import (
	"context"

	errx "github.com/intellistream/server/internal/core/error"
	"github.com/intellistream/server/internal/agent/model"
	logx "github.com/intellistream/server/pkg/logger"
)

// WebSearchConfig configures the Tavily adapter.
type WebSearchConfig struct {
	APIKey  string `envconfig:"TAVILY_API_KEY"`
	BaseURL string `envconfig:"TAVILY_BASE_URL" default:"https://api.tavily.com/search"`
	Depth   string `envconfig:"TAVILY_SEARCH_DEPTH" default:"basic"`
}

// WebSearchClient runs general web searches through Tavily. Fusion uses it
// only as a last resort when other sources came up short.
type WebSearchClient struct {
	cfg WebSearchConfig
}

func NewWebSearchClient(cfg WebSearchConfig) *WebSearchClient {
	return &WebSearchClient{cfg: cfg}
}

func (c *WebSearchClient) IsConfigured() bool {
	// Tavily keys are long; a short value is a misconfiguration.
	return len(c.cfg.APIKey) > 10
}

type tavilyRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	MaxResults        int    `json:"max_results"`
	SearchDepth       string `json:"search_depth"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search returns web results as evidence documents, capped at maxResults.
func (c *WebSearchClient) Search(ctx context.Context, query string, maxResults int) ([]model.Document, error) {
	if !c.IsConfigured() {
		return nil, errx.ErrProviderUnavailable
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	var data tavilyResponse
	err := postJSON(ctx, c.cfg.BaseURL, tavilyRequest{
		APIKey:            c.cfg.APIKey,
		Query:             query,
		MaxResults:        maxResults,
		SearchDepth:       c.cfg.Depth,
		IncludeAnswer:     false,
		IncludeRawContent: false,
	}, &data)
	if err != nil {
		logx.Warn().Err(err).Str("query", query).Msg("web search failed")
		return nil, errx.WrapProvider(err)
	}

	docs := make([]model.Document, 0, len(data.Results))
	for _, r := range data.Results {
		if len(docs) >= maxResults {
			break
		}
		score := r.Score
		if score <= 0 {
			score = ScoreWebFallback
		}
		docs = append(docs, model.Document{
			ID:         r.URL,
			Title:      r.Title,
			Content:    r.Content,
			SourceURL:  r.URL,
			Provenance: model.ProvenanceWeb,
			Score:      score,
		})
	}
	return docs, nil
}
