package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"OPENAI_API_KEY", "TRIAGE_MODEL", "TRIAGE_TEMPERATURE", "TRIAGE_CALL_TIMEOUT",
		"DATABASE_URL", "PORT", "TRIAGE_RATE_RPS", "TRIAGE_RATE_BURST",
		"TRIAGE_VERBOSE", "TRIAGE_PROTOCOL_CHECK",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "gpt-4", cfg.Model)
	assert.Equal(t, float64(0), cfg.Temperature)
	assert.Equal(t, 60*time.Second, cfg.CallTimeout)
	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.Verbose)
	assert.True(t, cfg.ProtocolFloor)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TRIAGE_MODEL", "gpt-4o")
	t.Setenv("TRIAGE_TEMPERATURE", "0.3")
	t.Setenv("TRIAGE_CALL_TIMEOUT", "15s")
	t.Setenv("TRIAGE_VERBOSE", "true")
	t.Setenv("TRIAGE_PROTOCOL_CHECK", "false")
	t.Setenv("PORT", "9090")

	cfg := Load()
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 0.3, cfg.Temperature)
	assert.Equal(t, 15*time.Second, cfg.CallTimeout)
	assert.True(t, cfg.Verbose)
	assert.False(t, cfg.ProtocolFloor)
	assert.Equal(t, "9090", cfg.Port)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("TRIAGE_TEMPERATURE", "hot")
	t.Setenv("TRIAGE_RATE_RPS", "many")
	t.Setenv("TRIAGE_CALL_TIMEOUT", "soon")

	cfg := Load()
	assert.Equal(t, float64(0), cfg.Temperature)
	assert.Equal(t, 10, cfg.RateRPS)
	assert.Equal(t, 60*time.Second, cfg.CallTimeout)
}
