package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/intellistream/server/internal/agent/llm"
	"github.com/intellistream/server/internal/agent/model"
	"github.com/intellistream/server/internal/agent/pipeline"
	"github.com/intellistream/server/internal/agent/providers"
	"github.com/intellistream/server/internal/agent/repo"
	pkgredis "github.com/intellistream/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the engine example,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Pipeline configs
	Router       model.RouterModelConfig
	Synthesis    model.SynthesisModelConfig
	Retrieval    model.RetrievalConfig
	Conversation model.ConversationConfig
	Stream       model.StreamConfig

	// Data providers
	Weather   providers.WeatherConfig
	News      providers.NewsConfig
	Stock     providers.StockConfig
	Wikipedia providers.WikipediaConfig
	Arxiv     providers.ArxivConfig
	WebSearch providers.WebSearchConfig
	Scraper   providers.ScraperConfig
}

func main() {
	fmt.Println("Testing IntelliStream query engine...")
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", envCfg.Conversation.TTL, err)
	}

	// Thread history lives in Redis when available, in memory otherwise.
	var checkpoints model.CheckpointRepository
	if rdb, err := envCfg.Redis.New(); err != nil {
		log.Printf("Warning: Redis unavailable (%v), using in-memory history", err)
		checkpoints = repo.NewMemoryCheckpointRepository(ttl)
	} else {
		defer rdb.Close()
		fmt.Println("Connected to Redis successfully")
		checkpoints = repo.NewRedisCheckpointRepository(rdb, ttl)
	}

	gen, err := llm.NewGeminiGenerator(ctx, llm.GeminiConfig{
		APIKey:    envCfg.APIKey,
		BaseURL:   envCfg.BaseURL,
		Router:    envCfg.Router,
		Synthesis: envCfg.Synthesis,
	})
	if err != nil {
		log.Fatalf("Failed to build Gemini generator: %v", err)
	}

	engine := pipeline.NewEngine(pipeline.EngineConfig{
		Generator: gen,
		ResearchDeps: pipeline.ResearchDeps{
			Scraper:   providers.NewScraperClient(envCfg.Scraper),
			Wikipedia: providers.NewWikipediaClient(envCfg.Wikipedia),
			Arxiv:     providers.NewArxivClient(envCfg.Arxiv),
			Weather:   providers.NewWeatherClient(envCfg.Weather),
			News:      providers.NewNewsClient(envCfg.News),
			Stock:     providers.NewStockClient(envCfg.Stock),
			Web:       providers.NewWebSearchClient(envCfg.WebSearch),
		},
		Retrieval:    envCfg.Retrieval,
		RouterModel:  envCfg.Router,
		Checkpoints:  checkpoints,
		Conversation: envCfg.Conversation,
	})

	testQueries := []struct {
		description string
		query       string
	}{
		{
			description: "Realtime weather lookup",
			query:       "What's the weather in Chicago?",
		},
		{
			description: "Follow-up location",
			query:       "how about new york",
		},
		{
			description: "Encyclopedic research",
			query:       "Explain the history of the Roman Empire",
		},
	}

	threadID := ""

	for i, test := range testQueries {
		fmt.Printf("\nTest %d: %s\n", i+1, test.description)
		fmt.Printf("Query: %q\n", test.query)
		fmt.Println("Processing...")

		result, err := engine.Invoke(ctx, test.query, threadID, "demo-user")
		if err != nil {
			log.Fatalf("Failed to run engine for test %d: %v", i+1, err)
		}
		threadID = result.ThreadID

		fmt.Printf("Response %d (%dms, %d sources): %s\n",
			i+1, result.LatencyMS, len(result.Sources), result.Response)
		for _, entry := range result.AgentTrace {
			fmt.Printf("  trace: %s/%s %dms\n", entry.Agent, entry.Action, entry.LatencyMS)
		}

		// slight delay between tests for readability
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println("\nStreaming test: latest AI research papers")
	for ev := range engine.Stream(ctx, "Find recent research papers about transformer models", "", "demo-user", nil, envCfg.Stream) {
		switch ev.Type {
		case pipeline.EventToken:
			// cumulative prefixes; print only the terminal events below
		default:
			fmt.Printf("event %s: %+v\n", ev.Type, ev.Data)
		}
	}

	fmt.Println("All engine tests completed successfully!")
}
