// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// server mode, timeouts, de-duplication windows, and rate limits.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// LINE Bot Configuration
	LineChannelToken  string
	LineChannelSecret string

	// LLM Configuration
	OpenAIAPIKey  string // API key for the chat completion service
	OpenAIModel   string // Model name (default: gpt-4o-mini)
	OpenAIBaseURL string // Override for OpenAI-compatible endpoints (empty = api.openai.com)
	LLMEnabled    bool   // USE_LLM kill switch; false forces template fallback replies

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Dialogue Configuration
	ProfilePath string        // Optional path to a counselor profile JSON file
	SessionTTL  time.Duration // Idle age before a session is swept (0 = keep forever)

	// De-duplication windows
	DedupTTL      time.Duration // Eviction age for handled event records (default: 15m)
	InflightGrace time.Duration // Age after which an in-flight attempt counts as abandoned (default: 2m)
	PushTTL       time.Duration // Suppression window for identical deferred pushes (default: 10m)

	// Metrics Authentication
	MetricsUsername string
	MetricsPassword string // Empty = no auth on /metrics

	// Sentry
	SentryDSN         string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack log shipping
	BetterStackToken    string
	BetterStackEndpoint string

	// Bot Configuration (embedded)
	Bot BotConfig
}

// BotConfig holds bot-specific configuration
type BotConfig struct {
	// Rate Limits (Token Bucket Algorithm)
	UserRateLimitBurst        float64 // Maximum burst tokens per chat (default: 10)
	UserRateLimitRefillPerSec float64 // Tokens refilled per second (default: 0.2 = 1 per 5s)

	// LINE API Constraints
	MaxEventsPerWebhook int // Maximum events per webhook batch (default: 100)
	MinReplyTokenLength int // Minimum reply token length (default: 10)
	MaxMessageLength    int // Maximum text message length (LINE API limit)
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		LineChannelToken:  getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineChannelSecret: getEnv("LINE_CHANNEL_SECRET", ""),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		LLMEnabled:    getEnv("USE_LLM", "1") != "0",

		Port:            getEnv("PORT", "10000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		ProfilePath: getEnv("PROFILE_PATH", ""),
		SessionTTL:  getDurationEnv("SESSION_TTL", 0),

		DedupTTL:      getDurationEnv("DEDUP_TTL", 15*time.Minute),
		InflightGrace: getDurationEnv("DEDUP_INFLIGHT_GRACE", 2*time.Minute),
		PushTTL:       getDurationEnv("PUSH_SUPPRESS_TTL", 10*time.Minute),

		MetricsUsername: getEnv("METRICS_USERNAME", "prometheus"),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		SentryDSN:         getEnv("SENTRY_DSN", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "production"),
		SentrySampleRate:  getFloatEnv("SENTRY_SAMPLE_RATE", 1.0),

		BetterStackToken:    getEnv("BETTERSTACK_TOKEN", ""),
		BetterStackEndpoint: getEnv("BETTERSTACK_ENDPOINT", ""),

		Bot: BotConfig{
			UserRateLimitBurst:        getFloatEnv("USER_RATE_LIMIT_BURST", 10.0),
			UserRateLimitRefillPerSec: getFloatEnv("USER_RATE_LIMIT_REFILL_PER_SEC", 0.2), // 1 per 5s
			MaxEventsPerWebhook:       getIntEnv("MAX_EVENTS_PER_WEBHOOK", 100),
			MinReplyTokenLength:       10,
			MaxMessageLength:          LINEMaxTextMessageLength,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.LineChannelToken == "" {
		errs = append(errs, errors.New("LINE_CHANNEL_ACCESS_TOKEN is required"))
	}
	if c.LineChannelSecret == "" {
		errs = append(errs, errors.New("LINE_CHANNEL_SECRET is required"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.LLMEnabled && c.OpenAIAPIKey == "" {
		// Not fatal: the bot degrades to template replies, matching USE_LLM=0.
		c.LLMEnabled = false
	}
	if c.DedupTTL <= 0 {
		errs = append(errs, errors.New("DEDUP_TTL must be positive"))
	}
	if c.InflightGrace <= 0 || c.InflightGrace >= c.DedupTTL {
		errs = append(errs, errors.New("DEDUP_INFLIGHT_GRACE must be positive and shorter than DEDUP_TTL"))
	}
	if c.PushTTL <= 0 {
		errs = append(errs, errors.New("PUSH_SUPPRESS_TTL must be positive"))
	}
	if err := c.Bot.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Validate checks bot-specific configuration values
func (b *BotConfig) Validate() error {
	var errs []error

	if b.UserRateLimitBurst <= 0 {
		errs = append(errs, errors.New("USER_RATE_LIMIT_BURST must be positive"))
	}
	if b.UserRateLimitRefillPerSec <= 0 {
		errs = append(errs, errors.New("USER_RATE_LIMIT_REFILL_PER_SEC must be positive"))
	}
	if b.MaxEventsPerWebhook <= 0 {
		errs = append(errs, errors.New("MAX_EVENTS_PER_WEBHOOK must be positive"))
	}

	return errors.Join(errs...)
}

// getEnv returns the environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv returns the environment variable as a duration or a default
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getIntEnv returns the environment variable as an int or a default
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getFloatEnv returns the environment variable as a float64 or a default
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
