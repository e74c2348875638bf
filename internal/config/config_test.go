package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable NewFromEnv reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LLM_PROVIDER", "GEMINI_MODEL", "GROQ_MODEL", "GENERATION_TIMEOUT", "DATABASE_PATH",
		"LOG_LEVEL", "LOG_FILE", "TELEGRAM_BOT_TOKEN", "TELEGRAM_WEBHOOK_URL",
		"TELEGRAM_ALLOWED_USER_IDS", "ADMIN_TELEGRAM_ID", "PORT",
		"GEMINI_API_KEY", "API_KEY", "GROQ_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, ProviderGemini, cfg.Provider)
		assert.Equal(t, "gemini-3-flash-preview", cfg.Model())
		assert.Equal(t, 60*time.Second, cfg.GenerationTimeout)
		assert.Equal(t, "data/planner.db", cfg.DatabasePath)
		assert.Equal(t, "8080", cfg.Port)
		assert.Empty(t, cfg.TelegramAllowedUserIDs)
	})

	t.Run("StartsWithoutAPIKey", func(t *testing.T) {
		clearEnv(t)

		_, err := NewFromEnv()
		assert.NoError(t, err)
	})

	t.Run("Overrides", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LLM_PROVIDER", "Groq")
		t.Setenv("GROQ_MODEL", "llama-test")
		t.Setenv("GENERATION_TIMEOUT", "0")
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "12, 34 ,")
		t.Setenv("ADMIN_TELEGRAM_ID", "12")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, ProviderGroq, cfg.Provider)
		assert.Equal(t, "llama-test", cfg.Model())
		assert.Zero(t, cfg.GenerationTimeout)
		assert.Equal(t, []int64{12, 34}, cfg.TelegramAllowedUserIDs)
		assert.Equal(t, int64(12), cfg.AdminTelegramID)
		assert.True(t, cfg.IsAllowed(34))
		assert.False(t, cfg.IsAllowed(56))
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LLM_PROVIDER", "openai")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LLM_PROVIDER environment variable")
	})

	t.Run("BadTimeout", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GENERATION_TIMEOUT", "soon")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GENERATION_TIMEOUT environment variable")
	})

	t.Run("BadAllowList", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "12,abc")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TELEGRAM_ALLOWED_USER_IDS environment variable is invalid")
	})
}

func TestAPIKey(t *testing.T) {
	env := map[string]string{}
	cfg := &Config{Provider: ProviderGemini, getenv: func(k string) string { return env[k] }}

	t.Run("Missing", func(t *testing.T) {
		_, err := cfg.APIKey()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingAPIKey))
		assert.Contains(t, err.Error(), "GEMINI_API_KEY environment variable not set")
	})

	t.Run("FallbackToAPIKey", func(t *testing.T) {
		env["API_KEY"] = "legacy"
		key, err := cfg.APIKey()
		require.NoError(t, err)
		assert.Equal(t, "legacy", key)
	})

	t.Run("GeminiKeyWins", func(t *testing.T) {
		env["GEMINI_API_KEY"] = "gemini_key"
		key, err := cfg.APIKey()
		require.NoError(t, err)
		assert.Equal(t, "gemini_key", key)
	})

	t.Run("GroqReadsItsOwnKey", func(t *testing.T) {
		groq := &Config{Provider: ProviderGroq, getenv: func(k string) string { return env[k] }}
		_, err := groq.APIKey()
		require.ErrorIs(t, err, ErrMissingAPIKey)

		env["GROQ_API_KEY"] = "groq_key"
		key, err := groq.APIKey()
		require.NoError(t, err)
		assert.Equal(t, "groq_key", key)
	})
}

func TestRequireTelegram(t *testing.T) {
	cfg := &Config{}
	assert.EqualError(t, cfg.RequireTelegram(), "TELEGRAM_BOT_TOKEN environment variable not set")

	cfg.TelegramBotToken = "token"
	assert.EqualError(t, cfg.RequireTelegram(), "TELEGRAM_WEBHOOK_URL environment variable not set")

	cfg.TelegramWebhookURL = "https://example.test/webhook"
	assert.EqualError(t, cfg.RequireTelegram(), "TELEGRAM_ALLOWED_USER_IDS environment variable not set")

	cfg.TelegramAllowedUserIDs = []int64{1}
	assert.NoError(t, cfg.RequireTelegram())
}
