package providers

import (
	"context"
	"fmt"
	"net/url"

	errx "github.com/intellistream/server/internal/core/error"
	"github.com/intellistream/server/internal/agent/model"
	logx "github.com/intellistream/server/pkg/logger"
)

// WeatherConfig configures the OpenWeatherMap adapter.
type WeatherConfig struct {
	APIKey  string `envconfig:"OPENWEATHER_API_KEY"`
	BaseURL string `envconfig:"OPENWEATHER_BASE_URL" default:"https://api.openweathermap.org/data/2.5"`
	Units   string `envconfig:"OPENWEATHER_UNITS" default:"metric"`
}

// WeatherClient fetches current conditions from OpenWeatherMap.
type WeatherClient struct {
	cfg WeatherConfig
}

func NewWeatherClient(cfg WeatherConfig) *WeatherClient {
	return &WeatherClient{cfg: cfg}
}

func (c *WeatherClient) IsConfigured() bool {
	return c.cfg.APIKey != ""
}

type owmResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// CurrentWeather returns one live weather document for the city, or an error.
// Unconfigured clients report errx.ErrProviderUnavailable.
func (c *WeatherClient) CurrentWeather(ctx context.Context, city string) (*model.Document, error) {
	if !c.IsConfigured() {
		return nil, errx.ErrProviderUnavailable
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.cfg.APIKey)
	params.Set("units", c.cfg.Units)

	var data owmResponse
	if err := getJSON(ctx, c.cfg.BaseURL+"/weather", params, nil, &data); err != nil {
		logx.Warn().Err(err).Str("city", city).Msg("weather lookup failed")
		return nil, errx.WrapProvider(err)
	}

	description := ""
	if len(data.Weather) > 0 {
		description = data.Weather[0].Description
	}
	if data.Name == "" {
		data.Name = city
	}

	content := fmt.Sprintf(
		"Current weather in %s, %s:\nTemperature: %.1f°C (feels like %.1f°C)\nConditions: %s\nHumidity: %d%%\nWind: %.1f m/s",
		data.Name, data.Sys.Country,
		data.Main.Temp, data.Main.FeelsLike,
		description, data.Main.Humidity, data.Wind.Speed,
	)

	return &model.Document{
		ID:         "weather_" + city,
		Title:      "Weather: " + data.Name,
		Content:    content,
		SourceURL:  "https://openweathermap.org",
		Provenance: model.ProvenanceWeather,
		Score:      ScoreLive,
	}, nil
}
