// Package config loads service configuration from the environment. Only
// provider credentials and operational knobs live here; clinical behavior
// (prompts, thresholds, protocols) is compiled in.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config collects every environment-driven setting.
type Config struct {
	// Model provider settings.
	OpenAIAPIKey string
	Model        string
	Temperature  float64
	CallTimeout  time.Duration

	// Optional guideline store; empty disables retrieval.
	DatabaseURL string

	// HTTP server settings.
	Port      string
	RateRPS   int
	RateBurst int

	// Verbose enables prompt/response debug logging.
	Verbose bool

	// ProtocolFloor enables the static rule protocols as an upgrade-only
	// post-check on the model-derived triage level.
	ProtocolFloor bool
}

// Load reads configuration from the environment, applying defaults for
// everything except the API key, which the llm package resolves itself.
func Load() Config {
	return Config{
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		Model:         envString("TRIAGE_MODEL", "gpt-4"),
		Temperature:   envFloat("TRIAGE_TEMPERATURE", 0),
		CallTimeout:   envDuration("TRIAGE_CALL_TIMEOUT", 60*time.Second),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Port:          envString("PORT", "8080"),
		RateRPS:       envInt("TRIAGE_RATE_RPS", 10),
		RateBurst:     envInt("TRIAGE_RATE_BURST", 20),
		Verbose:       envBool("TRIAGE_VERBOSE", false),
		ProtocolFloor: envBool("TRIAGE_PROTOCOL_CHECK", true),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
