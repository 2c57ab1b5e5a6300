package pipeline

import (
	"regexp"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// Location and ticker extraction for realtime lookups. Ported heuristics:
// explicit patterns first, then a curated city list, then careful fallbacks
// so common phrases never masquerade as place names.

var knownCities = []string{
	// US major cities
	"new york", "los angeles", "chicago", "houston", "phoenix",
	"philadelphia", "san antonio", "san diego", "dallas", "san jose",
	"austin", "jacksonville", "fort worth", "columbus", "charlotte",
	"seattle", "denver", "washington", "boston", "nashville",
	"detroit", "portland", "las vegas", "memphis", "louisville",
	"baltimore", "milwaukee", "albuquerque", "tucson", "fresno",
	"sacramento", "kansas city", "atlanta", "miami", "oakland",
	"minneapolis", "cleveland", "tampa", "st louis", "pittsburgh",
	// Illinois
	"dekalb", "naperville", "aurora", "rockford", "joliet", "springfield",
	"peoria", "champaign", "urbana", "bloomington", "decatur", "evanston",
	// International
	"london", "paris", "tokyo", "sydney", "mumbai", "delhi",
	"berlin", "madrid", "rome", "amsterdam", "toronto", "vancouver",
	"singapore", "hong kong", "dubai", "beijing", "shanghai",
	"moscow", "istanbul", "cairo", "lagos", "nairobi", "seoul",
	"bangkok", "jakarta", "manila", "kuala lumpur", "ho chi minh",
}

var (
	cityAfterWeatherPattern  = regexp.MustCompile(`weather (?:in|for|at) ([a-zA-Z\s,]+?)(?:\?|$|today|tomorrow)`)
	cityAfterPrepPattern     = regexp.MustCompile(`(?:in|for|at) ([a-zA-Z\s,]+?)(?:\?|$|weather)`)
	cityBeforeWeatherPattern = regexp.MustCompile(`^([a-zA-Z\s,]+?) weather`)

	aboutLocationPattern  = regexp.MustCompile(`(?:how|what) about\s+(.+?)(?:\?|$)`)
	wantLocationPattern   = regexp.MustCompile(`i want\s+(?:in|for|at)\s+(.+?)(?:\?|$)`)
	verbedLocationPattern = regexp.MustCompile(`(?:try|check|in|for)\s+(.+?)(?:\?|$)`)

	tickerPattern = regexp.MustCompile(`\$([A-Za-z]+)`)
)

var commonNonCityWords = map[string]bool{
	"the": true, "me": true, "my": true, "current": true, "today": true,
	"now": true, "a": true, "an": true, "this": true, "that": true,
}

var citySkipWords = map[string]bool{
	"tell": true, "me": true, "the": true, "show": true, "get": true,
	"give": true, "what": true, "is": true, "my": true,
}

var locationSkipWords = map[string]bool{
	"weather": true, "news": true, "stock": true, "tell": true, "show": true,
	"give": true, "get": true, "me": true, "the": true, "please": true,
	"want": true, "how": true, "what": true, "about": true,
}

var knownSymbols = []string{"AAPL", "GOOGL", "GOOG", "MSFT", "AMZN", "TSLA", "NVDA", "META", "NFLX"}

// DefaultCity is used when a weather query names no recognizable place.
const DefaultCity = "New York"

// ExtractCity pulls a city name out of a weather query.
func ExtractCity(text string) string {
	lower := strings.ToLower(text)

	for _, city := range knownCities {
		if strings.Contains(lower, city) {
			return title(city)
		}
	}

	for _, p := range []*regexp.Regexp{cityAfterWeatherPattern, cityAfterPrepPattern} {
		if m := p.FindStringSubmatch(lower); m != nil {
			city := strings.TrimSpace(m[1])
			if len(city) > 2 && !commonNonCityWords[city] {
				return title(city)
			}
		}
	}

	if m := cityBeforeWeatherPattern.FindStringSubmatch(lower); m != nil {
		city := strings.TrimSpace(m[1])
		words := strings.Fields(city)
		ok := len(words) >= 1 && len(words) <= 3
		for _, w := range words {
			if citySkipWords[w] {
				ok = false
				break
			}
		}
		if ok {
			return title(city)
		}
	}

	return DefaultCity
}

// ExtractFollowupLocation pulls a location out of a follow-up query such as
// "how about chicago" or a bare "dekalb illinois". Empty when nothing fits.
func ExtractFollowupLocation(query string) string {
	lower := strings.ToLower(strings.TrimSpace(query))

	if m := aboutLocationPattern.FindStringSubmatch(lower); m != nil {
		return title(strings.TrimSpace(m[1]))
	}
	if m := wantLocationPattern.FindStringSubmatch(lower); m != nil {
		return title(strings.TrimSpace(m[1]))
	}
	if m := verbedLocationPattern.FindStringSubmatch(lower); m != nil {
		loc := strings.TrimSpace(m[1])
		if len(loc) > 2 && loc != "the" && loc != "me" && loc != "it" {
			return title(loc)
		}
	}

	words := strings.Fields(lower)
	if len(words) == 0 || len(words) > 3 {
		return ""
	}
	for _, w := range words {
		if locationSkipWords[w] {
			return ""
		}
	}
	return title(strings.TrimSpace(query))
}

// ExtractStockSymbol pulls a ticker out of the query, either a known symbol
// or a $-prefixed token. Empty when none is present.
func ExtractStockSymbol(text string) string {
	upper := strings.ToUpper(text)
	for _, symbol := range knownSymbols {
		if strings.Contains(upper, symbol) {
			return symbol
		}
	}
	if m := tickerPattern.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}

// ExtractSymbolFromHistory scans recent messages, newest first, for a ticker.
func ExtractSymbolFromHistory(messages []*schema.Message) string {
	recent := lastN(messages, historyWindow)
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i] == nil {
			continue
		}
		if symbol := ExtractStockSymbol(recent[i].Content); symbol != "" {
			return symbol
		}
	}
	return ""
}

func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
