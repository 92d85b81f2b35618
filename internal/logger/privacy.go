package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

var hashSalt string

// InitHashSalt loads the log hash salt from the environment. Call once at
// startup, after the environment has been loaded.
func InitHashSalt() {
	hashSalt = os.Getenv("LOG_HASH_SALT")
	if hashSalt == "" {
		hashSalt = "default-salt-change-in-production"
	}
}

// HashSenderID creates a privacy-preserving hash of a sender identifier.
// Sender IDs are phone numbers or chat IDs; they never appear in logs in
// the clear.
func HashSenderID(senderID string) string {
	if hashSalt == "" {
		InitHashSalt()
	}
	data := fmt.Sprintf("%s:%s", senderID, hashSalt)
	hash := sha256.Sum256([]byte(data))
	// First 8 characters are enough to correlate log lines.
	return hex.EncodeToString(hash[:])[:8]
}

// SanitizeText redacts message content but preserves length information
// for debugging.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}
	words := strings.Fields(text)
	return fmt.Sprintf("<redacted: %d words, %d chars>", len(words), len(text))
}
