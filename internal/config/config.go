package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName        string
	AppEnv         string
	AppPort        string
	AIProvider     string
	GeminiAPIKey   string
	GeminiModel    string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	AITemperature  float32
	AIMaxTokens    int
	EngineTimeout  time.Duration
	OCRLanguage    string
	OCRPlaceholder bool
	OCRTimeout     time.Duration
	OCRPageSegMode int
	RetryAttempts  int
	RetryBackoff   time.Duration
	RedisURL       string
	CacheTTL       time.Duration
	NATSURL        string
	NATSSubject    string
	BodyLimitMB    int
	CORSOrigins    string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// AIModel returns the model configured for the selected provider.
func (c Config) AIModel() string {
	if c.AIProvider == "openai" {
		return c.OpenAIModel
	}
	return c.GeminiModel
}

// AIAPIKey returns the API key of the selected provider.
func (c Config) AIAPIKey() string {
	if c.AIProvider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Answer Evaluator")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("gemini_model", "gemini-1.5-flash")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.max_tokens", 2048)
	v.SetDefault("engine_timeout_ms", 30000)
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.placeholder", false)
	v.SetDefault("ocr_timeout_ms", 30000)
	v.SetDefault("ocr.page_seg_mode", 3)
	v.SetDefault("retry.max_attempts", 2)
	v.SetDefault("retry.backoff_ms", 500)
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("nats.subject", "evaluation.completed")
	v.SetDefault("http.body_limit_mb", 10)
	v.SetDefault("cors.allow_origins", "*")

	ttlString := v.GetString("cache.ttl")
	if ttlString == "" {
		ttlString = "10m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid cache ttl: %w", err)
	}

	provider := strings.ToLower(strings.TrimSpace(v.GetString("ai.provider")))
	switch provider {
	case "", "gemini", "google":
		provider = "gemini"
	case "openai", "gpt":
		provider = "openai"
	default:
		return Config{}, fmt.Errorf("unsupported ai provider %q", provider)
	}

	cfg := Config{
		AppName:        v.GetString("app.name"),
		AppEnv:         v.GetString("app.env"),
		AppPort:        v.GetString("app.port"),
		AIProvider:     provider,
		GeminiAPIKey:   strings.TrimSpace(v.GetString("gemini_api_key")),
		GeminiModel:    v.GetString("gemini_model"),
		OpenAIAPIKey:   strings.TrimSpace(v.GetString("openai_api_key")),
		OpenAIModel:    v.GetString("openai_model"),
		OpenAIBaseURL:  v.GetString("openai_base_url"),
		AITemperature:  float32(v.GetFloat64("ai.temperature")),
		AIMaxTokens:    v.GetInt("ai.max_tokens"),
		EngineTimeout:  millis(v.GetInt("engine_timeout_ms"), 30000),
		OCRLanguage:    v.GetString("ocr.language"),
		OCRPlaceholder: v.GetBool("ocr.placeholder"),
		OCRTimeout:     millis(v.GetInt("ocr_timeout_ms"), 30000),
		OCRPageSegMode: v.GetInt("ocr.page_seg_mode"),
		RetryAttempts:  v.GetInt("retry.max_attempts"),
		RetryBackoff:   time.Duration(v.GetInt("retry.backoff_ms")) * time.Millisecond,
		RedisURL:       v.GetString("redis.url"),
		CacheTTL:       ttl,
		NATSURL:        v.GetString("nats.url"),
		NATSSubject:    v.GetString("nats.subject"),
		BodyLimitMB:    v.GetInt("http.body_limit_mb"),
		CORSOrigins:    v.GetString("cors.allow_origins"),
	}

	if cfg.AIAPIKey() == "" {
		return Config{}, fmt.Errorf("%s api key must be provided", cfg.AIProvider)
	}

	// Tesseract page segmentation modes run from 0 (OSD only) to 13 (raw line).
	if cfg.OCRPageSegMode < 0 || cfg.OCRPageSegMode > 13 {
		return Config{}, fmt.Errorf("invalid ocr page segmentation mode %d", cfg.OCRPageSegMode)
	}

	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 1
	}

	if cfg.RetryBackoff < 0 {
		cfg.RetryBackoff = 0
	}

	if cfg.BodyLimitMB <= 0 {
		cfg.BodyLimitMB = 10
	}

	return cfg, nil
}

func millis(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Millisecond
}
