package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/intellistream/server/internal/core/error"

	"github.com/intellistream/server/internal/agent/model"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Go Concurrency Patterns</title><script>ignore()</script></head>
<body>
<nav>Home | About</nav>
<article>Goroutines are lightweight threads managed by the Go runtime.</article>
<footer>copyright</footer>
</body>
</html>`

func TestScraperClient_ExtractsTitleAndText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	c := NewScraperClient(ScraperConfig{Enabled: true, MaxChars: 10000})
	docs, err := c.Scrape(context.Background(), []string{srv.URL})

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Go Concurrency Patterns", docs[0].Title)
	assert.Contains(t, docs[0].Content, "Goroutines are lightweight threads")
	assert.NotContains(t, docs[0].Content, "ignore()", "script content must be stripped")
	assert.NotContains(t, docs[0].Content, "Home | About", "navigation chrome must be stripped")
	assert.Equal(t, ScoreScrape, docs[0].Score)
	assert.Equal(t, model.ProvenanceScrape, docs[0].Provenance)
	assert.Equal(t, srv.URL, docs[0].SourceURL)
}

func TestScraperClient_SkipsFailingURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			// hijack-close to fail the fetch without a valid response
			hj, _ := w.(http.Hijacker)
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	c := NewScraperClient(ScraperConfig{Enabled: true})
	docs, err := c.Scrape(context.Background(), []string{srv.URL + "/bad", srv.URL + "/good"})

	require.NoError(t, err, "individual failures must not abort the batch")
	require.Len(t, docs, 1)
	assert.Equal(t, srv.URL+"/good", docs[0].ID)
}

func TestScraperClient_UnconfiguredIsProviderUnavailable(t *testing.T) {
	c := NewScraperClient(ScraperConfig{Enabled: false})
	_, err := c.Scrape(context.Background(), []string{"https://example.com"})
	assert.ErrorIs(t, err, errx.ErrProviderUnavailable)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
}

func TestParseQuoteFloat(t *testing.T) {
	assert.Equal(t, 123.45, parseQuoteFloat(" 123.45 "))
	assert.Zero(t, parseQuoteFloat("n/a"))
}

func TestCleanSnippet(t *testing.T) {
	assert.Equal(t, "DeKalb is a city in Illinois",
		cleanSnippet(`<span class="searchmatch">DeKalb</span> is a city in Illinois `))
}
