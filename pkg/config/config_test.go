package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LLM_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.OpenAIKey)
	assert.Equal(t, 20*time.Second, cfg.LLM.Timeout)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("LLM_TIMEOUT", "3s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 3*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, 10, cfg.Security.RateLimitBurst)
}
