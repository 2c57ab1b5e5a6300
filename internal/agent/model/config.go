package model

// ================ Config ================

type ConversationConfig struct {
	TTL string `envconfig:"CONVERSATION_TTL" default:"15m"`
	// HistoryMaxTurns caps how much thread history is loaded into a new state.
	HistoryMaxTurns int `envconfig:"CONVERSATION_HISTORY_MAX_TURNS" default:"20"`
}

type RouterModelConfig struct {
	Model       string  `envconfig:"ROUTER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"ROUTER_MAX_TOKENS" default:"10"`
	Temperature float32 `envconfig:"ROUTER_TEMPERATURE" default:"0.0"`
}

type SynthesisModelConfig struct {
	Model       string  `envconfig:"SYNTHESIS_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"SYNTHESIS_MAX_TOKENS" default:"2048"`
	Temperature float32 `envconfig:"SYNTHESIS_TEMPERATURE" default:"0.2"`
}

type StreamConfig struct {
	// TokenDelayMS is the fixed pacing between streamed token events.
	TokenDelayMS int `envconfig:"STREAM_TOKEN_DELAY_MS" default:"35"`
}

type RetrievalConfig struct {
	TopK int `envconfig:"RETRIEVAL_TOP_K" default:"5"`
	// CacheTTL controls the read-through search result cache.
	CacheTTL string `envconfig:"RETRIEVAL_CACHE_TTL" default:"1h"`
}
