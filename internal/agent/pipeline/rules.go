package pipeline

import (
	"regexp"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/intellistream/server/internal/agent/model"
)

// Category is the realtime-data topic a query (or conversation) is about.
type Category string

const (
	CategoryNone    Category = ""
	CategoryWeather Category = "weather"
	CategoryNews    Category = "news"
	CategoryStock   Category = "stock"
)

// historyWindow is how many recent messages are scanned when deciding whether
// a short query continues an earlier realtime topic.
const historyWindow = 6

var urlPattern = regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)

var realtimeKeywords = []string{
	// weather
	"weather", "temperature", "forecast", "rain", "sunny", "cloudy", "climate",
	// news
	"news", "headlines", "breaking", "latest news", "current events",
	// stocks
	"stock", "share price", "ticker", "$aapl", "$googl", "$msft", "$tsla", "$nvda",
	"stock price", "market",
}

var weatherKeywords = []string{
	"weather", "temperature", "forecast", "rain", "sunny",
	"cloudy", "humidity", "wind", "storm", "snow", "hot", "cold", "climate",
}

var newsKeywords = []string{
	"news", "latest", "headlines", "breaking", "current events",
	"today", "recent", "update", "happening",
}

var stockKeywords = []string{
	"stock", "share", "price", "ticker", "market",
	"nasdaq", "nyse", "trading", "invest", "$",
}

var stockTickers = []string{"aapl", "googl", "msft", "amzn", "tsla", "nvda", "meta"}

var factualKeywords = []string{
	"what is", "who is", "define", "explain", "history of",
	"how does", "why does", "when did", "where is",
	"meaning of", "definition", "overview", "introduction",
}

var researchKeywords = []string{
	"research", "paper", "study", "academic", "scientific",
	"arxiv", "journal", "publication", "algorithm", "theory",
	"machine learning", "deep learning", "neural network",
	"transformer", "llm", "gpt", "bert", "model architecture",
}

// Relevance terms used to gate stale indexed documents out of realtime fusion.
var categoryRelevanceTerms = map[Category][]string{
	CategoryWeather: {"weather", "temperature", "climate", "forecast", "rain", "humidity", "wind"},
	CategoryNews:    {"news", "article", "headline", "report", "breaking"},
	CategoryStock:   {"stock", "price", "market", "trading", "share", "investor"},
}

var ambiguousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^tell me about\s+[a-z\s,]+$`),
	regexp.MustCompile(`^(what|how) about\s+[a-z\s,]+$`),
	regexp.MustCompile(`^information (on|about)\s+[a-z\s,]+$`),
	regexp.MustCompile(`^describe\s+[a-z\s,]+$`),
	regexp.MustCompile(`^explain\s+[a-z\s,]+$`),
	regexp.MustCompile(`^details (on|about)\s+[a-z\s,]+$`),
}

// Topics specific enough that a vague template still has a clear subject.
var specificTopics = []string{
	"weather", "temperature", "forecast", "climate",
	"news", "headlines", "events",
	"stock", "price", "market",
	"history", "population", "economy", "geography",
	"food", "culture", "tourism", "hotels",
}

var followupLocationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bi want\b.*\b(in|for|at)\b`),
	regexp.MustCompile(`\b(how about|what about)\b`),
	regexp.MustCompile(`\b(try|check|get)\b.*\b(for|in)\b`),
}

var followupSkipWords = map[string]bool{
	"tell": true, "me": true, "about": true, "the": true, "what": true,
	"is": true, "are": true, "show": true, "give": true, "get": true,
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// ContainsURL reports whether the text carries at least one http(s) URL.
func ContainsURL(text string) bool {
	return urlPattern.MatchString(text)
}

// ExtractURLs returns every http(s) URL found in the text.
func ExtractURLs(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

// NeedsRealtimeData reports whether the query mentions a live-data topic.
func NeedsRealtimeData(text string) bool {
	return containsAny(strings.ToLower(text), realtimeKeywords)
}

// QueryCategory classifies a query into a realtime category, if any.
func QueryCategory(text string) Category {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, weatherKeywords):
		return CategoryWeather
	case containsAny(lower, newsKeywords):
		return CategoryNews
	case isStockQuery(lower):
		return CategoryStock
	default:
		return CategoryNone
	}
}

func isStockQuery(lower string) bool {
	return containsAny(lower, stockKeywords) || containsAny(lower, stockTickers)
}

// IsFactualQuery reports whether the query asks for encyclopedic information.
func IsFactualQuery(text string) bool {
	return containsAny(strings.ToLower(text), factualKeywords)
}

// IsResearchQuery reports whether the query is academic/research flavored.
func IsResearchQuery(text string) bool {
	return containsAny(strings.ToLower(text), researchKeywords)
}

// IsAmbiguousQuery reports whether the query matches a vague phrasing template
// without naming a specific topic.
func IsAmbiguousQuery(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, p := range ambiguousPatterns {
		if p.MatchString(lower) {
			return !containsAny(lower, specificTopics)
		}
	}
	return false
}

// TopicFromHistory scans recent messages for the ongoing realtime topic.
func TopicFromHistory(messages []*schema.Message) Category {
	for _, msg := range lastN(messages, historyWindow) {
		if msg == nil {
			continue
		}
		lower := strings.ToLower(msg.Content)
		if containsAny(lower, []string{"weather", "temperature", "forecast"}) {
			return CategoryWeather
		}
		if containsAny(lower, []string{"news", "headlines", "breaking"}) {
			return CategoryNews
		}
		if containsAny(lower, []string{"stock", "price", "$", "market"}) {
			return CategoryStock
		}
	}
	return CategoryNone
}

// IsFollowupToRealtime reports whether a short query continues an earlier
// realtime topic (e.g. asking "how about chicago" after a weather question).
func IsFollowupToRealtime(query string, messages []*schema.Message) bool {
	hasRealtimeHistory := false
	for _, msg := range lastN(messages, historyWindow) {
		if msg != nil && NeedsRealtimeData(msg.Content) {
			hasRealtimeHistory = true
			break
		}
	}
	if !hasRealtimeHistory {
		return false
	}

	lower := strings.ToLower(strings.TrimSpace(query))
	for _, p := range followupLocationPatterns {
		if p.MatchString(lower) {
			return true
		}
	}

	// A bare location: at most three words, none of them generic verbs.
	words := strings.Fields(lower)
	if len(words) == 0 || len(words) > 3 {
		return false
	}
	for _, w := range words {
		if followupSkipWords[w] {
			return false
		}
	}
	return true
}

func lastN(messages []*schema.Message, n int) []*schema.Message {
	if len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}

// routeRule is one entry of the deterministic pre-filter table evaluated, in
// order, before any model-based classification.
type routeRule struct {
	Reason  string
	Route   model.Route
	Applies func(query string, messages []*schema.Message) bool
}

// routeRules is evaluated top to bottom; the first match wins.
var routeRules = []routeRule{
	{
		Reason: "url_detected",
		Route:  model.RouteResearch,
		Applies: func(query string, _ []*schema.Message) bool {
			return ContainsURL(query)
		},
	},
	{
		Reason: "realtime_data",
		Route:  model.RouteResearch,
		Applies: func(query string, _ []*schema.Message) bool {
			return NeedsRealtimeData(query)
		},
	},
	{
		Reason: "realtime_followup",
		Route:  model.RouteResearch,
		Applies: func(query string, messages []*schema.Message) bool {
			return len(messages) > 0 && IsFollowupToRealtime(query, messages)
		},
	},
	{
		Reason: "ambiguous_query",
		Route:  model.RouteClarify,
		Applies: func(query string, _ []*schema.Message) bool {
			return IsAmbiguousQuery(query)
		},
	},
}

// EvaluateRouteRules runs the rule table against the query and conversation.
// It returns the forced route and the reason that fired, or ok=false when no
// rule matched and the model-based classifier should decide.
func EvaluateRouteRules(query string, messages []*schema.Message) (model.Route, string, bool) {
	for _, r := range routeRules {
		if r.Applies(query, messages) {
			return r.Route, r.Reason, true
		}
	}
	return model.RouteUnset, "", false
}
