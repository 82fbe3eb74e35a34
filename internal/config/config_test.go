package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GEMA_AI_PROVIDER", "GEMA_GEMINI_API_KEY", "GEMA_OPENAI_API_KEY", "GEMA_CACHE_TTL",
		"GEMA_RETRY_MAX_ATTEMPTS", "GEMA_RETRY_BACKOFF_MS", "GEMA_OCR_PLACEHOLDER", "GEMA_APP_PORT",
		"GEMA_ENGINE_TIMEOUT_MS", "GEMA_HTTP_BODY_LIMIT_MB", "GEMA_OCR_PAGE_SEG_MODE",
		"GEMA_CORS_ALLOW_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMA_GEMINI_API_KEY", "gemini-key")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "gemini", cfg.AIProvider)
	require.Equal(t, "gemini-1.5-flash", cfg.AIModel())
	require.Equal(t, "gemini-key", cfg.AIAPIKey())
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, "eng", cfg.OCRLanguage)
	require.False(t, cfg.OCRPlaceholder)
	require.Equal(t, 30*time.Second, cfg.EngineTimeout)
	require.Equal(t, 30*time.Second, cfg.OCRTimeout)
	require.Equal(t, 2, cfg.RetryAttempts)
	require.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)
	require.Equal(t, 10*time.Minute, cfg.CacheTTL)
	require.Equal(t, "evaluation.completed", cfg.NATSSubject)
	require.Equal(t, 10, cfg.BodyLimitMB)
	require.Equal(t, 3, cfg.OCRPageSegMode)
	require.Equal(t, "*", cfg.CORSOrigins)
	require.InDelta(t, 0.7, cfg.AITemperature, 0.0001)
}

func TestLoadRequiresKeyForSelectedProvider(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "gemini api key")

	t.Setenv("GEMA_AI_PROVIDER", "openai")
	t.Setenv("GEMA_GEMINI_API_KEY", "gemini-key")
	_, err = Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "openai api key")
}

func TestLoadOpenAIProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMA_AI_PROVIDER", "OpenAI")
	t.Setenv("GEMA_OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "openai", cfg.AIProvider)
	require.Equal(t, "gpt-4o-mini", cfg.AIModel())
	require.Equal(t, "sk-test", cfg.AIAPIKey())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMA_GEMINI_API_KEY", "gemini-key")
	t.Setenv("GEMA_OCR_PLACEHOLDER", "true")
	t.Setenv("GEMA_RETRY_MAX_ATTEMPTS", "0")
	t.Setenv("GEMA_RETRY_BACKOFF_MS", "250")
	t.Setenv("GEMA_CACHE_TTL", "1h")
	t.Setenv("GEMA_APP_PORT", ":9090")
	t.Setenv("GEMA_ENGINE_TIMEOUT_MS", "-5")
	t.Setenv("GEMA_OCR_PAGE_SEG_MODE", "6")
	t.Setenv("GEMA_CORS_ALLOW_ORIGINS", "https://gema.example")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.OCRPlaceholder)
	require.Equal(t, 1, cfg.RetryAttempts)
	require.Equal(t, 250*time.Millisecond, cfg.RetryBackoff)
	require.Equal(t, time.Hour, cfg.CacheTTL)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, 30*time.Second, cfg.EngineTimeout)
	require.Equal(t, 6, cfg.OCRPageSegMode)
	require.Equal(t, "https://gema.example", cfg.CORSOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMA_GEMINI_API_KEY", "gemini-key")
	t.Setenv("GEMA_CACHE_TTL", "soon")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("GEMA_CACHE_TTL", "")
	t.Setenv("GEMA_AI_PROVIDER", "llama")
	_, err = Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported ai provider")

	t.Setenv("GEMA_AI_PROVIDER", "")
	t.Setenv("GEMA_OCR_PAGE_SEG_MODE", "14")
	_, err = Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "page segmentation mode")
}
