// Package bot provides the Telegram bot initialization and handlers.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"gitlab.com/idrea/receipt-ledger-bot/internal/config"
	"gitlab.com/idrea/receipt-ledger-bot/internal/conversation"
	"gitlab.com/idrea/receipt-ledger-bot/internal/ledger"
	"gitlab.com/idrea/receipt-ledger-bot/internal/logger"
	"gitlab.com/idrea/receipt-ledger-bot/internal/state"
	"gitlab.com/idrea/receipt-ledger-bot/internal/storage"
	"gitlab.com/idrea/receipt-ledger-bot/internal/vision"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot          *tgbot.Bot
	api          TelegramAPI
	cfg          *config.Config
	conversation *conversation.Orchestrator
	httpClient   *http.Client

	messagesProcessed metric.Int64Counter
}

// New creates a new Bot instance wired to the conversation engine.
// visionClient may be nil when receipt photos are not configured.
func New(cfg *config.Config, pool *pgxpool.Pool, stateDB *state.DB, files *storage.Local, visionClient *vision.Client) (*Bot, error) {
	b := &Bot{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
	}

	opts := []tgbot.Option{
		tgbot.WithMiddlewares(b.whitelistMiddleware),
		tgbot.WithDefaultHandler(b.defaultHandler),
	}

	telegramBot, err := tgbot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.api = telegramBot

	// A nil *vision.Client must stay a nil Extractor.
	var extractor conversation.Extractor
	if visionClient != nil {
		extractor = visionClient
	}

	b.conversation = conversation.New(
		state.NewPendingStore(stateDB),
		state.NewAllocator(stateDB),
		ledger.NewPostgres(pool),
		extractor,
		files,
		b,
		cfg.AdminSenderIDs,
	)

	meter := otel.Meter("receipt-ledger-bot/bot")
	b.messagesProcessed, err = meter.Int64Counter("bot.messages_processed",
		metric.WithDescription("Inbound messages routed to the conversation engine"))
	if err != nil {
		return nil, fmt.Errorf("failed to create messages counter: %w", err)
	}

	return b, nil
}

// Start begins polling for updates.
func (b *Bot) Start(ctx context.Context) {
	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
}

// SendText delivers a plain-text reply to a sender. It implements the
// conversation engine's Messenger.
func (b *Bot) SendText(ctx context.Context, senderID, text string) error {
	chatID, err := strconv.ParseInt(senderID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid sender id %q: %w", senderID, err)
	}

	_, err = b.api.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// whitelistMiddleware checks if the sender is allowed before processing.
func (b *Bot) whitelistMiddleware(next tgbot.HandlerFunc) tgbot.HandlerFunc {
	return func(ctx context.Context, tgBot *tgbot.Bot, update *tgmodels.Update) {
		userID := extractUserID(update)
		if userID == 0 {
			return
		}

		if !b.cfg.IsSenderAllowed(strconv.FormatInt(userID, 10)) {
			logger.Log.Warn().
				Str("sender", logger.HashSenderID(strconv.FormatInt(userID, 10))).
				Msg("Blocked non-whitelisted sender")
			if update.Message != nil {
				_, _ = b.api.SendMessage(ctx, &tgbot.SendMessageParams{
					ChatID: update.Message.Chat.ID,
					Text:   "⛔ Sorry, you are not authorized to use this bot.",
				})
			}
			return
		}

		next(ctx, tgBot, update)
	}
}

// defaultHandler routes every non-command update into the conversation
// engine.
func (b *Bot) defaultHandler(ctx context.Context, _ *tgbot.Bot, update *tgmodels.Update) {
	b.handleUpdateCore(ctx, b.api, update)
}

func extractUserID(update *tgmodels.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.EditedMessage != nil && update.EditedMessage.From != nil {
		return update.EditedMessage.From.ID
	}
	return 0
}

func displayName(from *tgmodels.User) string {
	if from == nil {
		return ""
	}
	if from.FirstName != "" {
		return from.FirstName
	}
	return from.Username
}

func kindAttribute(kind string) metric.AddOption {
	return metric.WithAttributes(attribute.String("kind", kind))
}
