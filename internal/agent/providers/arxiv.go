package providers

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	errx "github.com/intellistream/server/internal/core/error"
	"github.com/intellistream/server/internal/agent/model"
	logx "github.com/intellistream/server/pkg/logger"
)

// ArxivConfig configures the academic index adapter. The arXiv export API is
// public; the adapter is always configured unless disabled.
type ArxivConfig struct {
	Enabled bool   `envconfig:"ARXIV_ENABLED" default:"true"`
	BaseURL string `envconfig:"ARXIV_BASE_URL" default:"http://export.arxiv.org/api/query"`
}

// ArxivClient searches research papers through the arXiv Atom API.
type ArxivClient struct {
	cfg ArxivConfig
}

func NewArxivClient(cfg ArxivConfig) *ArxivClient {
	return &ArxivClient{cfg: cfg}
}

func (c *ArxivClient) IsConfigured() bool {
	return c.cfg.Enabled
}

type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID      string `xml:"id"`
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
	Authors []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Published string `xml:"published"`
}

// Search returns matching papers as evidence documents, capped at maxResults.
func (c *ArxivClient) Search(ctx context.Context, query string, maxResults int) ([]model.Document, error) {
	if !c.IsConfigured() {
		return nil, errx.ErrProviderUnavailable
	}
	if maxResults <= 0 {
		maxResults = 3
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "relevance")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errx.WrapProvider(err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		logx.Warn().Err(err).Str("query", query).Msg("arxiv search failed")
		return nil, errx.WrapProvider(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errx.WrapProvider(err)
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		logx.Warn().Err(err).Msg("arxiv feed parse failed")
		return nil, errx.WrapProvider(err)
	}

	docs := make([]model.Document, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		if len(docs) >= maxResults {
			break
		}
		authors := make([]string, 0, len(e.Authors))
		for _, a := range e.Authors {
			authors = append(authors, a.Name)
		}

		title := strings.Join(strings.Fields(e.Title), " ")
		content := strings.Join(strings.Fields(e.Summary), " ")
		if len(authors) > 0 {
			content = "Authors: " + strings.Join(authors, ", ") + "\n" + content
		}

		docs = append(docs, model.Document{
			ID:         e.ID,
			Title:      "ArXiv: " + title,
			Content:    content,
			SourceURL:  e.ID,
			Provenance: model.ProvenanceArxiv,
			Score:      ScoreArxiv,
		})
	}
	return docs, nil
}
