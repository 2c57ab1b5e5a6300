package providers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	errx "github.com/intellistream/server/internal/core/error"
	"github.com/intellistream/server/internal/agent/model"
	logx "github.com/intellistream/server/pkg/logger"
)

// ScraperConfig configures the page scraper.
type ScraperConfig struct {
	Enabled  bool `envconfig:"SCRAPER_ENABLED" default:"true"`
	MaxChars int  `envconfig:"SCRAPER_MAX_CHARS" default:"10000"`
}

// ScraperClient fetches user-provided URLs and extracts readable text.
type ScraperClient struct {
	cfg ScraperConfig
}

func NewScraperClient(cfg ScraperConfig) *ScraperClient {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = maxScrapedChars
	}
	return &ScraperClient{cfg: cfg}
}

func (c *ScraperClient) IsConfigured() bool {
	return c.cfg.Enabled
}

// Scrape fetches each URL and returns one high-trust document per page that
// yielded content. Individual fetch failures are logged and skipped.
func (c *ScraperClient) Scrape(ctx context.Context, urls []string) ([]model.Document, error) {
	if !c.IsConfigured() {
		return nil, errx.ErrProviderUnavailable
	}

	docs := make([]model.Document, 0, len(urls))
	for _, u := range urls {
		title, content, err := c.scrapeOne(ctx, u)
		if err != nil {
			logx.Warn().Err(err).Str("url", u).Msg("scrape failed")
			continue
		}
		if content == "" {
			continue
		}
		if title == "" {
			title = "Web Page"
		}
		docs = append(docs, model.Document{
			ID:         u,
			Title:      title,
			Content:    content,
			SourceURL:  u,
			Provenance: model.ProvenanceScrape,
			Score:      ScoreScrape,
		})
	}
	return docs, nil
}

func (c *ScraperClient) scrapeOne(ctx context.Context, u string) (title, content string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", "", err
	}

	var text strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "nav", "header", "footer", "aside":
				return
			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" && text.Len() < c.cfg.MaxChars {
				if text.Len() > 0 {
					text.WriteByte(' ')
				}
				text.WriteString(t)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	content = text.String()
	if len(content) > c.cfg.MaxChars {
		content = content[:c.cfg.MaxChars]
	}
	return title, content, nil
}
