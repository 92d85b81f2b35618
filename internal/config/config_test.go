package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads all config from env", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "test-token-123")
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("GEMINI_API_KEY", "gm-key")
		t.Setenv("ALLOWED_SENDER_IDS", "100200300")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "test-token-123", cfg.TelegramBotToken)
		require.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		require.Equal(t, "gm-key", cfg.GeminiAPIKey)
	})

	t.Run("applies defaults for state paths", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "token")
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("ALLOWED_SENDER_IDS", "100200300")
		t.Setenv("STATE_DB_PATH", "")
		t.Setenv("RECEIPT_STORAGE_DIR", "")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "data/state.db", cfg.StateDBPath)
		require.Equal(t, "data/receipts", cfg.ReceiptDir)
	})

	t.Run("parses sender lists with whitespace and trailing commas", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "token")
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("ALLOWED_SENDER_IDS", " 123 ,, 456 ,")
		t.Setenv("ADMIN_SENDER_IDS", "789")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, []string{"123", "456"}, cfg.AllowedSenderIDs)
		require.Equal(t, []string{"789"}, cfg.AdminSenderIDs)
	})

	t.Run("fails when required config is missing", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "")
		t.Setenv("DATABASE_URL", "")
		t.Setenv("ALLOWED_SENDER_IDS", "")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN is required")
		require.Contains(t, err.Error(), "DATABASE_URL is required")
		require.Contains(t, err.Error(), "ALLOWED_SENDER_IDS")
	})
}

func TestIsSenderAllowed(t *testing.T) {
	cfg := &Config{
		AllowedSenderIDs: []string{"123", "456"},
		AdminSenderIDs:   []string{"789"},
	}

	require.True(t, cfg.IsSenderAllowed("123"))
	require.True(t, cfg.IsSenderAllowed("789"), "admins are implicitly allowed")
	require.False(t, cfg.IsSenderAllowed("999"))
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{AdminSenderIDs: []string{"789"}}

	require.True(t, cfg.IsAdmin("789"))
	require.False(t, cfg.IsAdmin("123"))
}
