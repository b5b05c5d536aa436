package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains all runtime settings for the interview service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool
	LogJSON        bool
	LogDebug       bool

	// Provider selects the model backend by name. Unknown names are a
	// startup error, never a per-request one.
	Provider        string
	ProviderTimeout time.Duration

	OpenAIAPIKey string
	OpenAIModel  string

	QwenEndpoint string
	QwenAPIKey   string

	GeminiAPIKey string
	GeminiModel  string

	DatabaseURL      string
	QuestionBankPath string
}

// Load reads environment variables and applies safe defaults. A .env file in
// the working directory is folded in first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "interviewd"),
		Provider:         strings.ToLower(envOrDefault("MODEL_PROVIDER", "mock")),
		OpenAIAPIKey:     trimSpaceEnv("OPENAI_API_KEY"),
		OpenAIModel:      envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		QwenEndpoint:     trimSpaceEnv("QWEN_ENDPOINT"),
		QwenAPIKey:       trimSpaceEnv("QWEN_API_KEY"),
		GeminiAPIKey:     trimSpaceEnv("GEMINI_API_KEY"),
		GeminiModel:      envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		DatabaseURL:      trimSpaceEnv("DATABASE_URL"),
		QuestionBankPath: trimSpaceEnv("QUESTION_BANK_PATH"),
		ShutdownTimeout:  15 * time.Second,
		ProviderTimeout:  30 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ProviderTimeout, err = durationFromEnv("PROVIDER_TIMEOUT", cfg.ProviderTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", false)
	if err != nil {
		return Config{}, err
	}
	cfg.LogJSON, err = boolFromEnv("APP_LOG_JSON", false)
	if err != nil {
		return Config{}, err
	}
	cfg.LogDebug, err = boolFromEnv("APP_LOG_DEBUG", false)
	if err != nil {
		return Config{}, err
	}

	if cfg.Provider == "" {
		return Config{}, fmt.Errorf("MODEL_PROVIDER must not be empty")
	}
	if cfg.ProviderTimeout <= 0 {
		return Config{}, fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("APP_SHUTDOWN_TIMEOUT must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func trimSpaceEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimSpaceEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimSpaceEnv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
	return b, nil
}
