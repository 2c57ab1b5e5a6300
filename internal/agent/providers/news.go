package providers

import (
	"context"
	"net/url"
	"strconv"

	errx "github.com/intellistream/server/internal/core/error"
	"github.com/intellistream/server/internal/agent/model"
	logx "github.com/intellistream/server/pkg/logger"
)

// NewsConfig configures the NewsAPI adapter.
type NewsConfig struct {
	APIKey  string `envconfig:"NEWSAPI_KEY"`
	BaseURL string `envconfig:"NEWSAPI_BASE_URL" default:"https://newsapi.org/v2"`
}

// NewsClient searches news articles through NewsAPI.
type NewsClient struct {
	cfg NewsConfig
}

func NewNewsClient(cfg NewsConfig) *NewsClient {
	return &NewsClient{cfg: cfg}
}

func (c *NewsClient) IsConfigured() bool {
	return c.cfg.APIKey != ""
}

type newsAPIResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// TopStory returns the single most relevant article for the query as a live
// document, or an error when nothing is available.
func (c *NewsClient) TopStory(ctx context.Context, query string) (*model.Document, error) {
	if !c.IsConfigured() {
		return nil, errx.ErrProviderUnavailable
	}

	params := url.Values{}
	params.Set("apiKey", c.cfg.APIKey)
	params.Set("q", query)
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", strconv.Itoa(1))
	params.Set("language", "en")

	var data newsAPIResponse
	if err := getJSON(ctx, c.cfg.BaseURL+"/everything", params, nil, &data); err != nil {
		logx.Warn().Err(err).Str("query", query).Msg("news search failed")
		return nil, errx.WrapProvider(err)
	}
	if len(data.Articles) == 0 {
		return nil, errx.WrapProvider(errx.ErrProviderUnavailable)
	}

	a := data.Articles[0]
	content := a.Description
	if content == "" {
		content = a.Content
	}

	return &model.Document{
		ID:         a.URL,
		Title:      "News: " + a.Title,
		Content:    content,
		SourceURL:  a.URL,
		Provenance: model.ProvenanceNews,
		Score:      ScoreLive,
	}, nil
}
