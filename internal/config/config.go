// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken string
	DatabaseURL      string
	GeminiAPIKey     string
	StateDBPath      string
	ReceiptDir       string
	LogLevel         string
	AllowedSenderIDs []string
	AdminSenderIDs   []string
	OTLPEndpoint     string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		StateDBPath:      os.Getenv("STATE_DB_PATH"),
		ReceiptDir:       os.Getenv("RECEIPT_STORAGE_DIR"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if cfg.StateDBPath == "" {
		cfg.StateDBPath = "data/state.db"
	}
	if cfg.ReceiptDir == "" {
		cfg.ReceiptDir = "data/receipts"
	}

	cfg.AllowedSenderIDs = splitList(os.Getenv("ALLOWED_SENDER_IDS"))
	cfg.AdminSenderIDs = splitList(os.Getenv("ADMIN_SENDER_IDS"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// splitList parses a comma-separated list, trimming blanks.
func splitList(raw string) []string {
	var out []string
	for item := range strings.SplitSeq(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if len(c.AllowedSenderIDs) == 0 {
		errs = append(errs, "at least one allowed sender (ALLOWED_SENDER_IDS) is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsSenderAllowed checks if a sender ID is in the allow list.
func (c *Config) IsSenderAllowed(senderID string) bool {
	return slices.Contains(c.AllowedSenderIDs, senderID) ||
		slices.Contains(c.AdminSenderIDs, senderID)
}

// IsAdmin checks if a sender ID belongs to an admin.
func (c *Config) IsAdmin(senderID string) bool {
	return slices.Contains(c.AdminSenderIDs, senderID)
}
