package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/idrea/receipt-ledger-bot/internal/conversation"
	"gitlab.com/idrea/receipt-ledger-bot/internal/logger"
)

// maxAttachmentSize caps downloaded receipt files. Telegram bot API
// files top out at 20 MB anyway.
const maxAttachmentSize = 20 << 20

// handleUpdateCore is the testable implementation of defaultHandler. It
// translates a Telegram update into an inbound conversation event.
func (b *Bot) handleUpdateCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	msg := update.Message
	senderID := strconv.FormatInt(msg.From.ID, 10)

	switch {
	case len(msg.Photo) > 0:
		b.messagesProcessed.Add(ctx, 1, kindAttribute(conversation.KindImage))

		// Telegram lists photo sizes smallest first.
		largest := msg.Photo[len(msg.Photo)-1]
		data, err := b.downloadFile(ctx, tg, largest.FileID)
		if err != nil {
			logger.Log.Error().Err(err).
				Str("sender", logger.HashSenderID(senderID)).
				Msg("Failed to download photo")
			_, _ = tg.SendMessage(ctx, &tgbot.SendMessageParams{
				ChatID: msg.Chat.ID,
				Text:   "❌ Failed to download the photo. Please try again.",
			})
			return
		}

		b.conversation.HandleMessage(ctx, conversation.Inbound{
			SenderID:       senderID,
			DisplayName:    displayName(msg.From),
			Kind:           conversation.KindImage,
			Attachment:     data,
			AttachmentName: "photo.jpg",
			MimeType:       "image/jpeg",
		})

	case msg.Document != nil:
		b.messagesProcessed.Add(ctx, 1, kindAttribute(conversation.KindDocument))

		data, err := b.downloadFile(ctx, tg, msg.Document.FileID)
		if err != nil {
			logger.Log.Error().Err(err).
				Str("sender", logger.HashSenderID(senderID)).
				Str("filename", msg.Document.FileName).
				Msg("Failed to download document")
			_, _ = tg.SendMessage(ctx, &tgbot.SendMessageParams{
				ChatID: msg.Chat.ID,
				Text:   "❌ Failed to download the document. Please try again.",
			})
			return
		}

		b.conversation.HandleMessage(ctx, conversation.Inbound{
			SenderID:       senderID,
			DisplayName:    displayName(msg.From),
			Kind:           conversation.KindDocument,
			Attachment:     data,
			AttachmentName: msg.Document.FileName,
			MimeType:       msg.Document.MimeType,
		})

	case msg.Text != "":
		b.messagesProcessed.Add(ctx, 1, kindAttribute(conversation.KindText))

		b.conversation.HandleMessage(ctx, conversation.Inbound{
			SenderID:    senderID,
			DisplayName: displayName(msg.From),
			Kind:        conversation.KindText,
			Text:        msg.Text,
		})
	}
}

// downloadFile fetches a Telegram file's bytes by file ID.
func (b *Bot) downloadFile(ctx context.Context, tg TelegramAPI, fileID string) ([]byte, error) {
	file, err := tg.GetFile(ctx, &tgbot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	url := tg.FileDownloadLink(file)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d downloading file", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file body: %w", err)
	}
	if len(data) > maxAttachmentSize {
		return nil, fmt.Errorf("file exceeds %d bytes", maxAttachmentSize)
	}

	return data, nil
}
