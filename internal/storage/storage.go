// Package storage keeps receipt attachment files and hands out opaque
// references to them.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/idrea/receipt-ledger-bot/internal/logger"
)

// Local stores attachments in a directory on disk. The reference it
// returns is the stored filename.
type Local struct {
	baseDir string
}

// NewLocal creates the storage directory if needed.
func NewLocal(baseDir string) (*Local, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &Local{baseDir: baseDir}, nil
}

// Upload writes the attachment under filename and returns its reference.
func (l *Local) Upload(data []byte, filename string) (string, error) {
	name := sanitizeFilename(filename)
	if name == "" {
		return "", fmt.Errorf("invalid attachment filename %q", filename)
	}

	if err := os.WriteFile(filepath.Join(l.baseDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing attachment: %w", err)
	}
	return name, nil
}

// Delete removes a stored attachment. It reports whether the reference
// is gone afterwards; the failure detail goes to the log, since callers
// treat deletion as best-effort cleanup.
func (l *Local) Delete(ref string) bool {
	name := sanitizeFilename(ref)
	if name == "" {
		return false
	}

	err := os.Remove(filepath.Join(l.baseDir, name))
	if err != nil && !os.IsNotExist(err) {
		logger.Log.Error().Err(err).Str("ref", name).Msg("Failed to delete attachment")
		return false
	}
	return true
}

// sanitizeFilename strips any path components so a reference can never
// escape the storage directory.
func sanitizeFilename(filename string) string {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "." || name == string(filepath.Separator) || name == ".." {
		return ""
	}
	return name
}
