// Package main is the entry point for the receipt ledger Telegram bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gitlab.com/idrea/receipt-ledger-bot/internal/bot"
	"gitlab.com/idrea/receipt-ledger-bot/internal/config"
	"gitlab.com/idrea/receipt-ledger-bot/internal/database"
	"gitlab.com/idrea/receipt-ledger-bot/internal/logger"
	"gitlab.com/idrea/receipt-ledger-bot/internal/state"
	"gitlab.com/idrea/receipt-ledger-bot/internal/storage"
	"gitlab.com/idrea/receipt-ledger-bot/internal/telemetry"
	"gitlab.com/idrea/receipt-ledger-bot/internal/vision"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("receipt-ledger-bot %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.SetLevel(cfg.LogLevel)
	logger.InitHashSalt()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.OTLPEndpoint)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to shut down telemetry")
		}
	}()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Log.Info().Msg("Database initialized successfully")

	stateDB, err := state.Open(cfg.StateDBPath)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("path", cfg.StateDBPath).Msg("Failed to open state database")
	}
	defer func() { _ = stateDB.Close() }()

	files, err := storage.NewLocal(cfg.ReceiptDir)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("dir", cfg.ReceiptDir).Msg("Failed to initialize receipt storage")
	}

	var visionClient *vision.Client
	if cfg.GeminiAPIKey != "" {
		visionClient, err = vision.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to create vision client")
		}
		logger.Log.Info().Msg("Receipt extraction enabled")
	} else {
		logger.Log.Warn().Msg("GEMINI_API_KEY not set, receipt photos will ask for manual entry")
	}

	telegramBot, err := bot.New(cfg, pool, stateDB, files, visionClient)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create bot")
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info().Msg("Shutting down...")
		cancel()
	}()

	telegramBot.Start(ctx)
}
