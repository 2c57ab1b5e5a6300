package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	errx "github.com/intellistream/server/internal/core/error"
	"github.com/intellistream/server/internal/agent/model"
	logx "github.com/intellistream/server/pkg/logger"
)

// StockConfig configures the Alpha Vantage adapter.
type StockConfig struct {
	APIKey  string `envconfig:"ALPHAVANTAGE_API_KEY"`
	BaseURL string `envconfig:"ALPHAVANTAGE_BASE_URL" default:"https://www.alphavantage.co/query"`
}

// StockClient fetches real-time quotes from Alpha Vantage.
type StockClient struct {
	cfg StockConfig
}

func NewStockClient(cfg StockConfig) *StockClient {
	return &StockClient{cfg: cfg}
}

func (c *StockClient) IsConfigured() bool {
	return c.cfg.APIKey != ""
}

type globalQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
}

// Quote returns one live stock quote document for the symbol.
func (c *StockClient) Quote(ctx context.Context, symbol string) (*model.Document, error) {
	if !c.IsConfigured() {
		return nil, errx.ErrProviderUnavailable
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errx.WrapProvider(fmt.Errorf("empty stock symbol"))
	}

	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", c.cfg.APIKey)

	var data globalQuoteResponse
	if err := getJSON(ctx, c.cfg.BaseURL, params, nil, &data); err != nil {
		logx.Warn().Err(err).Str("symbol", symbol).Msg("stock quote failed")
		return nil, errx.WrapProvider(err)
	}
	if len(data.GlobalQuote) == 0 {
		return nil, errx.WrapProvider(fmt.Errorf("no quote for %s", symbol))
	}

	q := data.GlobalQuote
	price := parseQuoteFloat(q["05. price"])
	change := parseQuoteFloat(q["09. change"])
	high := parseQuoteFloat(q["03. high"])
	low := parseQuoteFloat(q["04. low"])

	content := fmt.Sprintf(
		"Stock: %s\nPrice: $%.2f\nChange: %.2f (%s)\nVolume: %s\nHigh: $%.2f | Low: $%.2f",
		symbol, price, change, q["10. change percent"], q["06. volume"], high, low,
	)

	return &model.Document{
		ID:         "stock_" + symbol,
		Title:      "Stock Quote: " + symbol,
		Content:    content,
		SourceURL:  c.cfg.BaseURL + "?function=GLOBAL_QUOTE&symbol=" + symbol,
		Provenance: model.ProvenanceStock,
		Score:      ScoreLive,
	}, nil
}

func parseQuoteFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
