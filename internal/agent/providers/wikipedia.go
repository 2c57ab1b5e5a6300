package providers

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	errx "github.com/intellistream/server/internal/core/error"
	"github.com/intellistream/server/internal/agent/model"
	logx "github.com/intellistream/server/pkg/logger"
)

// WikipediaConfig configures the encyclopedia adapter. Wikipedia needs no
// API key; the adapter is always configured unless disabled.
type WikipediaConfig struct {
	Enabled   bool   `envconfig:"WIKIPEDIA_ENABLED" default:"true"`
	SearchURL string `envconfig:"WIKIPEDIA_SEARCH_URL" default:"https://en.wikipedia.org/w/api.php"`
	RestURL   string `envconfig:"WIKIPEDIA_REST_URL" default:"https://en.wikipedia.org/api/rest_v1"`
}

// WikipediaClient searches and summarizes encyclopedia articles.
type WikipediaClient struct {
	cfg WikipediaConfig
}

func NewWikipediaClient(cfg WikipediaConfig) *WikipediaClient {
	return &WikipediaClient{cfg: cfg}
}

func (c *WikipediaClient) IsConfigured() bool {
	return c.cfg.Enabled
}

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			PageID  int    `json:"pageid"`
		} `json:"search"`
	} `json:"query"`
}

type wikiSummaryResponse struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// SearchAndSummarize finds matching articles and returns their summaries as
// evidence documents, capped at maxResults.
func (c *WikipediaClient) SearchAndSummarize(ctx context.Context, query string, maxResults int) ([]model.Document, error) {
	if !c.IsConfigured() {
		return nil, errx.ErrProviderUnavailable
	}
	if maxResults <= 0 {
		maxResults = 2
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", strconv.Itoa(maxResults))
	params.Set("format", "json")
	params.Set("utf8", "1")

	var search wikiSearchResponse
	if err := getJSON(ctx, c.cfg.SearchURL, params, nil, &search); err != nil {
		logx.Warn().Err(err).Str("query", query).Msg("wikipedia search failed")
		return nil, errx.WrapProvider(err)
	}

	docs := make([]model.Document, 0, maxResults)
	for _, item := range search.Query.Search {
		if len(docs) >= maxResults {
			break
		}
		pageURL := "https://en.wikipedia.org/wiki/" + strings.ReplaceAll(item.Title, " ", "_")

		// Prefer the article summary; fall back to the cleaned search snippet.
		content := cleanSnippet(item.Snippet)
		var summary wikiSummaryResponse
		if err := getJSON(ctx, c.cfg.RestURL+"/page/summary/"+url.PathEscape(item.Title), nil, nil, &summary); err == nil && summary.Extract != "" {
			content = summary.Extract
			if summary.ContentURLs.Desktop.Page != "" {
				pageURL = summary.ContentURLs.Desktop.Page
			}
		}

		docs = append(docs, model.Document{
			ID:         "wiki_" + item.Title,
			Title:      "Wikipedia: " + item.Title,
			Content:    content,
			SourceURL:  pageURL,
			Provenance: model.ProvenanceWikipedia,
			Score:      ScoreWikipedia,
		})
	}
	return docs, nil
}

func cleanSnippet(s string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(s, ""))
}
