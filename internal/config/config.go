// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Token/session store (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Session cookie signing secret
	SessionSecret string `env:"SESSION_SECRET,required"`

	// Session lifetime for browser clients
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"30m"`

	// API token lifetime
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"720h"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts. WriteTimeout must cover a full generation call.
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"90s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting (requests per rolling hour, per plan tier)
	RateLimitDefault int `env:"RATE_LIMIT_DEFAULT" envDefault:"10"`
	RateLimitPaid    int `env:"RATE_LIMIT_PAID" envDefault:"100"`

	// Generation backends
	OllamaURL    string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaModel  string `env:"OLLAMA_MODEL" envDefault:"llama3.2:latest"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY" envDefault:""`
	OpenAIURL    string `env:"OPENAI_URL" envDefault:"https://api.openai.com"`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:"gpt-4"`

	// Translation sidecar (Argos-compatible)
	TranslateURL string `env:"TRANSLATE_URL" envDefault:"http://localhost:5000"`

	// Niche category data file served by /generate/categories
	CategoryDataPath string `env:"CATEGORY_DATA_PATH" envDefault:"data/clothing_combinations.txt"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// QuotaFor returns the hourly request quota for the given plan flag.
func (c *Config) QuotaFor(isPaid bool) int {
	if isPaid {
		return c.RateLimitPaid
	}
	return c.RateLimitDefault
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
