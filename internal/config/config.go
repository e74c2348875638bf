package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported generation providers.
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

const (
	defaultGeminiModel       = "gemini-3-flash-preview"
	defaultGroqModel         = "llama-3.3-70b-versatile"
	defaultGenerationTimeout = 60 * time.Second
	defaultDatabasePath      = "data/planner.db"
	defaultPort              = "8080"
)

// ErrMissingAPIKey is returned by APIKey when no credential is set.
var ErrMissingAPIKey = errors.New("API key not configured")

// Config holds the configuration for the application.
type Config struct {
	Provider          string
	GeminiModel       string
	GroqModel         string
	GenerationTimeout time.Duration
	DatabasePath      string
	LogLevel          string
	LogFile           string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
	Port                   string

	// getenv is swapped in tests; nil means os.Getenv.
	getenv func(string) string
}

// NewFromEnv creates a new Config object from environment variables. A .env
// file in the working directory is loaded first when present.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	provider := strings.ToLower(envOr("LLM_PROVIDER", ProviderGemini))
	if provider != ProviderGemini && provider != ProviderGroq {
		return nil, fmt.Errorf("LLM_PROVIDER environment variable must be %q or %q, got %q", ProviderGemini, ProviderGroq, provider)
	}

	timeout := defaultGenerationTimeout
	if raw := os.Getenv("GENERATION_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("GENERATION_TIMEOUT environment variable is not a valid duration: %q", raw)
		}
		timeout = d
	}

	allowed, err := parseIDs(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("TELEGRAM_ALLOWED_USER_IDS environment variable is invalid: %w", err)
	}

	var adminID int64
	if raw := os.Getenv("ADMIN_TELEGRAM_ID"); raw != "" {
		adminID, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID environment variable is invalid: %w", err)
		}
	}

	return &Config{
		Provider:               provider,
		GeminiModel:            envOr("GEMINI_MODEL", defaultGeminiModel),
		GroqModel:              envOr("GROQ_MODEL", defaultGroqModel),
		GenerationTimeout:      timeout,
		DatabasePath:           envOr("DATABASE_PATH", defaultDatabasePath),
		LogLevel:               envOr("LOG_LEVEL", "info"),
		LogFile:                os.Getenv("LOG_FILE"),
		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowed,
		AdminTelegramID:        adminID,
		Port:                   envOr("PORT", defaultPort),
	}, nil
}

// Model returns the model name of the configured provider.
func (c *Config) Model() string {
	if c.Provider == ProviderGroq {
		return c.GroqModel
	}
	return c.GeminiModel
}

// APIKey looks up the provider credential. It reads the environment on every
// call, so a key exported after startup is picked up by the next generation.
func (c *Config) APIKey() (string, error) {
	getenv := c.getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	if c.Provider == ProviderGroq {
		if key := strings.TrimSpace(getenv("GROQ_API_KEY")); key != "" {
			return key, nil
		}
		return "", fmt.Errorf("GROQ_API_KEY environment variable not set: %w", ErrMissingAPIKey)
	}

	if key := strings.TrimSpace(getenv("GEMINI_API_KEY")); key != "" {
		return key, nil
	}
	// API_KEY is accepted for deployments configured for the web front end.
	if key := strings.TrimSpace(getenv("API_KEY")); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("GEMINI_API_KEY environment variable not set: %w", ErrMissingAPIKey)
}

// RequireTelegram checks the settings only the Telegram bot needs.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	if len(c.TelegramAllowedUserIDs) == 0 {
		return fmt.Errorf("TELEGRAM_ALLOWED_USER_IDS environment variable not set")
	}
	return nil
}

// IsAllowed reports whether a Telegram user may talk to the bot.
func (c *Config) IsAllowed(userID int64) bool {
	for _, id := range c.TelegramAllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
