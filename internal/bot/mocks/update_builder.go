package mocks

import (
	"github.com/go-telegram/bot/models"
)

// MessageUpdate builds a plain text message update.
func MessageUpdate(chatID, userID int64, text string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			ID: 1,
			Chat: models.Chat{
				ID:   chatID,
				Type: "private",
			},
			From: &models.User{
				ID:        userID,
				FirstName: "Test",
				LastName:  "User",
				Username:  "testuser",
			},
			Text: text,
		},
	}
}

// PhotoUpdate builds a photo message update with one photo size per
// entry of fileIDs, smallest first, matching Telegram's ordering.
func PhotoUpdate(chatID, userID int64, fileIDs ...string) *models.Update {
	update := MessageUpdate(chatID, userID, "")
	for i, fileID := range fileIDs {
		update.Message.Photo = append(update.Message.Photo, models.PhotoSize{
			FileID: fileID,
			Width:  90 * (i + 1),
			Height: 90 * (i + 1),
		})
	}
	return update
}

// DocumentUpdate builds a document message update.
func DocumentUpdate(chatID, userID int64, fileID, fileName, mimeType string) *models.Update {
	update := MessageUpdate(chatID, userID, "")
	update.Message.Document = &models.Document{
		FileID:   fileID,
		FileName: fileName,
		MimeType: mimeType,
	}
	return update
}
