package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/intellistream/server/internal/agent/model"
	"github.com/intellistream/server/internal/agent/retriever"
	logx "github.com/intellistream/server/pkg/logger"
)

const (
	maxScrapeURLs   = 3
	maxWikiArticles = 2
	maxArxivPapers  = 3
	maxFusedDocs    = 10
	// webSearchFloor triggers the web fallback when fewer candidates exist.
	webSearchFloor = 3

	contextDocChars = 500
	snippetChars    = 150
)

// Provider interfaces the research stage fuses over. Each one degrades to
// "no documents" when unconfigured or failing; the stage never errors out.
type (
	WeatherProvider interface {
		IsConfigured() bool
		CurrentWeather(ctx context.Context, city string) (*model.Document, error)
	}
	NewsProvider interface {
		IsConfigured() bool
		TopStory(ctx context.Context, query string) (*model.Document, error)
	}
	StockProvider interface {
		IsConfigured() bool
		Quote(ctx context.Context, symbol string) (*model.Document, error)
	}
	WikipediaProvider interface {
		IsConfigured() bool
		SearchAndSummarize(ctx context.Context, query string, maxResults int) ([]model.Document, error)
	}
	ArxivProvider interface {
		IsConfigured() bool
		Search(ctx context.Context, query string, maxResults int) ([]model.Document, error)
	}
	WebSearchProvider interface {
		IsConfigured() bool
		Search(ctx context.Context, query string, maxResults int) ([]model.Document, error)
	}
	ScrapeProvider interface {
		IsConfigured() bool
		Scrape(ctx context.Context, urls []string) ([]model.Document, error)
	}
)

// ResearchDeps bundles every retrieval source the stage can draw from.
// Nil entries are treated as unconfigured.
type ResearchDeps struct {
	Store     retriever.DocumentStore
	Scraper   ScrapeProvider
	Wikipedia WikipediaProvider
	Arxiv     ArxivProvider
	Weather   WeatherProvider
	News      NewsProvider
	Stock     StockProvider
	Web       WebSearchProvider
}

// Research gathers documents from the configured sources, fuses them by
// score and renders the numbered context block plus citation sources.
type Research struct {
	deps ResearchDeps
	cfg  model.RetrievalConfig
}

func NewResearch(deps ResearchDeps, cfg model.RetrievalConfig) *Research {
	return &Research{deps: deps, cfg: cfg}
}

func (r *Research) Name() string { return "research" }

func (r *Research) Run(ctx context.Context, s *model.State) *model.Delta {
	start := time.Now()
	query := s.Query

	history := s.Messages
	if len(history) > 0 {
		history = history[:len(history)-1]
	}

	var (
		docs    []model.Document
		actions []string
	)

	historyTopic := CategoryNone
	if len(history) > 0 {
		historyTopic = TopicFromHistory(history)
	}
	followupLocation := ""
	if historyTopic != CategoryNone {
		followupLocation = ExtractFollowupLocation(query)
	}

	// Step 1: scrape any URLs the user pasted.
	if urls := ExtractURLs(query); len(urls) > 0 && r.deps.Scraper != nil && r.deps.Scraper.IsConfigured() {
		if len(urls) > maxScrapeURLs {
			urls = urls[:maxScrapeURLs]
		}
		scraped, err := r.deps.Scraper.Scrape(ctx, urls)
		if err != nil {
			logx.Warn().Err(err).Msg("url scrape failed")
		}
		docs = append(docs, scraped...)
		actions = append(actions, fmt.Sprintf("scraped_%d_urls", len(scraped)))
	}

	isWeather := QueryCategory(query) == CategoryWeather || historyTopic == CategoryWeather
	isNews := QueryCategory(query) == CategoryNews || historyTopic == CategoryNews
	isStock := QueryCategory(query) == CategoryStock || historyTopic == CategoryStock
	isRealtime := isWeather || isNews || isStock

	// Step 2: local document store, with a stricter gate for realtime
	// queries so stale indexed text cannot outrank live data.
	if r.deps.Store != nil {
		ragDocs, err := r.deps.Store.Retrieve(ctx, query, r.cfg.TopK)
		if err != nil {
			logx.Warn().Err(err).Msg("document store retrieval failed")
		}
		kept := 0
		for _, doc := range ragDocs {
			minScore := 0.3
			if isRealtime {
				minScore = 0.5
			}
			if doc.Score < minScore {
				continue
			}
			if isRealtime && !relevantToCategory(doc, realtimeCategory(isWeather, isNews, isStock)) {
				continue
			}
			docs = append(docs, doc)
			kept++
		}
		action := fmt.Sprintf("rag_%d_docs", kept)
		if isRealtime {
			action += "_filtered"
		}
		actions = append(actions, action)
	}

	// Step 3: Wikipedia for encyclopedic questions.
	if IsFactualQuery(query) && r.deps.Wikipedia != nil && r.deps.Wikipedia.IsConfigured() {
		wiki, err := r.deps.Wikipedia.SearchAndSummarize(ctx, query, maxWikiArticles)
		if err != nil {
			logx.Warn().Err(err).Msg("wikipedia lookup failed")
		}
		docs = append(docs, wiki...)
		actions = append(actions, fmt.Sprintf("wiki_%d_articles", len(wiki)))
	}

	// Step 4: arXiv for academic questions.
	if IsResearchQuery(query) && r.deps.Arxiv != nil && r.deps.Arxiv.IsConfigured() {
		papers, err := r.deps.Arxiv.Search(ctx, query, maxArxivPapers)
		if err != nil {
			logx.Warn().Err(err).Msg("arxiv lookup failed")
		}
		docs = append(docs, papers...)
		actions = append(actions, fmt.Sprintf("arxiv_%d_papers", len(papers)))
	}

	// Step 5: live weather.
	wantWeather := QueryCategory(query) == CategoryWeather || (historyTopic == CategoryWeather && followupLocation != "")
	if wantWeather && r.deps.Weather != nil && r.deps.Weather.IsConfigured() {
		city := followupLocation
		if city == "" {
			city = ExtractCity(query)
		}
		if doc, err := r.deps.Weather.CurrentWeather(ctx, city); err != nil {
			logx.Warn().Err(err).Str("city", city).Msg("weather lookup failed")
		} else if doc != nil {
			docs = append(docs, *doc)
			actions = append(actions, "weather_live")
		}
	}

	// Step 6: live news headline.
	if isNews && r.deps.News != nil && r.deps.News.IsConfigured() {
		searchQuery := query
		if QueryCategory(query) != CategoryNews {
			searchQuery = "latest news " + query
		}
		if doc, err := r.deps.News.TopStory(ctx, searchQuery); err != nil {
			logx.Warn().Err(err).Msg("news lookup failed")
		} else if doc != nil {
			docs = append(docs, *doc)
			actions = append(actions, "news_live")
		}
	}

	// Step 7: live stock quote; follow-ups reuse the last symbol mentioned.
	if isStock && r.deps.Stock != nil && r.deps.Stock.IsConfigured() {
		symbol := ExtractStockSymbol(query)
		if symbol == "" && historyTopic == CategoryStock {
			symbol = ExtractSymbolFromHistory(history)
		}
		if symbol != "" {
			if doc, err := r.deps.Stock.Quote(ctx, symbol); err != nil {
				logx.Warn().Err(err).Str("symbol", symbol).Msg("stock quote failed")
			} else if doc != nil {
				docs = append(docs, *doc)
				actions = append(actions, "stock_"+symbol)
			}
		}
	}

	// Step 8: general web search only when everything above came up thin.
	if len(docs) < webSearchFloor && r.deps.Web != nil && r.deps.Web.IsConfigured() {
		web, err := r.deps.Web.Search(ctx, query, 5)
		if err != nil {
			logx.Warn().Err(err).Msg("web search failed")
		}
		docs = append(docs, web...)
		actions = append(actions, fmt.Sprintf("web_%d_results", len(web)))
	}

	found := len(docs)
	top := fuse(docs, maxFusedDocs)

	action := "retrieved"
	if len(actions) > 0 {
		action = strings.Join(actions, "+")
	}

	return &model.Delta{
		RetrievedDocuments: top,
		Context:            model.StringPtr(buildContext(top)),
		Sources:            buildSources(top),
		Trace: []model.TraceEntry{{
			Agent:          "research",
			Action:         action,
			DocumentsFound: found,
			LatencyMS:      time.Since(start).Milliseconds(),
		}},
	}
}

func realtimeCategory(isWeather, isNews, isStock bool) Category {
	switch {
	case isWeather:
		return CategoryWeather
	case isNews:
		return CategoryNews
	case isStock:
		return CategoryStock
	default:
		return CategoryNone
	}
}

// relevantToCategory keeps an indexed document in a realtime fusion only if
// its text actually mentions the topic.
func relevantToCategory(doc model.Document, cat Category) bool {
	terms, ok := categoryRelevanceTerms[cat]
	if !ok {
		return true
	}
	haystack := strings.ToLower(doc.Content + " " + doc.Title)
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

// fuse orders candidates by score descending (stable, so same-score documents
// keep arrival order), drops duplicate IDs and returns the top n.
func fuse(docs []model.Document, n int) []model.Document {
	sorted := make([]model.Document, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	seen := make(map[string]bool, len(sorted))
	out := make([]model.Document, 0, n)
	for _, doc := range sorted {
		if doc.ID != "" && seen[doc.ID] {
			continue
		}
		seen[doc.ID] = true
		out = append(out, doc)
		if len(out) == n {
			break
		}
	}
	return out
}

// noDocumentsContext stands in for the context block when fusion came up
// empty; downstream stages treat it as no context at all.
const noDocumentsContext = "No relevant documents found."

// clipRunes truncates s to at most n runes so a multi-byte character is
// never split mid-sequence.
func clipRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func buildContext(docs []model.Document) string {
	if len(docs) == 0 {
		return noDocumentsContext
	}
	parts := make([]string, len(docs))
	for i, doc := range docs {
		content := doc.Content
		if c := clipRunes(content, contextDocChars); c != content {
			content = c + "..."
		}
		parts[i] = fmt.Sprintf("[%d] %s\n%s", i+1, doc.Title, content)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func buildSources(docs []model.Document) []model.Source {
	sources := make([]model.Source, len(docs))
	for i, doc := range docs {
		snippet := doc.Content
		if c := clipRunes(snippet, snippetChars); c != snippet {
			snippet = c + "..."
		}
		sources[i] = model.Source{
			ID:      fmt.Sprintf("[%d]", i+1),
			Title:   doc.Title,
			URL:     doc.SourceURL,
			Snippet: snippet,
			Score:   doc.Score,
		}
	}
	return sources
}
