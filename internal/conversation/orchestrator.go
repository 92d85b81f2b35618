// Package conversation drives the per-sender receipt state machine. A
// sender is either Idle (no pending receipt) or awaiting confirmation of
// exactly one pending receipt; every inbound message is classified as a
// submission, an edit, a confirmation or a cancellation and routed
// through one normalization pipeline.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gitlab.com/idrea/receipt-ledger-bot/internal/logger"
	"gitlab.com/idrea/receipt-ledger-bot/internal/models"
	"gitlab.com/idrea/receipt-ledger-bot/internal/normalize"
	"gitlab.com/idrea/receipt-ledger-bot/internal/parse"
	"gitlab.com/idrea/receipt-ledger-bot/internal/vision"
)

// Messenger delivers a plain-text reply to a sender.
type Messenger interface {
	SendText(ctx context.Context, senderID, text string) error
}

// PendingStore holds at most one in-flight receipt per sender.
type PendingStore interface {
	Get(senderID string) (*models.PendingReceipt, error)
	Put(receipt *models.PendingReceipt) error
	Merge(senderID string, updates map[string]string) (*models.PendingReceipt, error)
	Delete(senderID string) error
}

// Sequencer issues the next ledger sequence number, reconciled against
// the ledger's observed maximum when one is supplied.
type Sequencer interface {
	Allocate(ledgerMax *int64) (int64, error)
}

// Ledger is the append-only record of confirmed receipts.
type Ledger interface {
	MaxSequence(ctx context.Context) (int64, error)
	Append(ctx context.Context, sequence int64, values []string) error
}

// Extractor proposes a raw field map from attachment bytes.
type Extractor interface {
	ExtractReceipt(ctx context.Context, data []byte, mimeType string) (map[string]string, error)
}

// Storage keeps receipt attachments.
type Storage interface {
	Upload(data []byte, filename string) (string, error)
	Delete(ref string) bool
}

// Inbound message kinds.
const (
	KindText     = "text"
	KindImage    = "image"
	KindDocument = "document"
)

// Inbound is one message event from the chat transport.
type Inbound struct {
	SenderID       string
	DisplayName    string
	Kind           string
	Text           string
	Attachment     []byte
	AttachmentName string
	MimeType       string
}

var confirmWords = map[string]struct{}{
	"confirm": {},
	"yes":     {},
	"y":       {},
	"ok":      {},
}

var cancelWords = map[string]struct{}{
	"cancel": {},
	"no":     {},
	"n":      {},
}

// Orchestrator wires the normalization pipeline, the pending store and
// the sequence allocator to the external ledger, storage, vision and
// messaging collaborators.
type Orchestrator struct {
	pending   PendingStore
	sequencer Sequencer
	ledger    Ledger
	extractor Extractor // nil when receipt photos are not configured
	storage   Storage
	messenger Messenger
	adminIDs  []string
	now       func() time.Time
}

// New creates an Orchestrator. extractor may be nil; attachments are then
// answered with a manual-entry fallback.
func New(pending PendingStore, sequencer Sequencer, ledger Ledger, extractor Extractor, storage Storage, messenger Messenger, adminIDs []string) *Orchestrator {
	return &Orchestrator{
		pending:   pending,
		sequencer: sequencer,
		ledger:    ledger,
		extractor: extractor,
		storage:   storage,
		messenger: messenger,
		adminIDs:  adminIDs,
		now:       time.Now,
	}
}

// HandleMessage processes one inbound message event to completion.
// Failures are reported to the sender and logged; they never propagate.
func (o *Orchestrator) HandleMessage(ctx context.Context, msg Inbound) {
	switch msg.Kind {
	case KindImage, KindDocument:
		o.handleAttachment(ctx, msg)
	default:
		o.handleText(ctx, msg)
	}
}

func (o *Orchestrator) handleText(ctx context.Context, msg Inbound) {
	logger.Log.Info().
		Str("sender", logger.HashSenderID(msg.SenderID)).
		Int("text_len", len(msg.Text)).
		Msg("Received text message")

	o.notifyAdmins(ctx, msg.SenderID, fmt.Sprintf("%s sent:\n\n%s", msg.DisplayName, msg.Text))

	receipt, err := o.pending.Get(msg.SenderID)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("sender", logger.HashSenderID(msg.SenderID)).
			Msg("Failed to load pending receipt")
		o.sendText(ctx, msg.SenderID, genericApology)
		return
	}

	if receipt != nil {
		o.handlePendingReply(ctx, msg, receipt)
		return
	}

	if parse.IsFormSubmission(msg.Text) {
		o.handleFormSubmission(ctx, msg)
		return
	}

	o.sendText(ctx, msg.SenderID, blankFormTemplate)
}

// handlePendingReply routes a text message while a receipt awaits
// confirmation. Confirmation and cancellation keywords are checked before
// field parsing so "yes" can never become a field.
func (o *Orchestrator) handlePendingReply(ctx context.Context, msg Inbound, receipt *models.PendingReceipt) {
	keyword := strings.ToLower(strings.TrimSpace(msg.Text))

	if _, ok := confirmWords[keyword]; ok {
		o.commit(ctx, msg.SenderID, receipt)
		return
	}

	if _, ok := cancelWords[keyword]; ok {
		o.cancel(ctx, msg.SenderID, receipt)
		return
	}

	updates := parse.Fields(msg.Text)
	if len(updates) == 0 {
		o.sendText(ctx, msg.SenderID, editHint)
		return
	}

	merged, err := o.pending.Merge(msg.SenderID, o.normalizeFields(updates))
	if err != nil {
		logger.Log.Error().Err(err).
			Str("sender", logger.HashSenderID(msg.SenderID)).
			Msg("Failed to merge field updates")
		o.sendText(ctx, msg.SenderID, genericApology)
		return
	}

	o.sendText(ctx, msg.SenderID, summaryMessage(merged))
}

// commit flushes a pending receipt to the ledger. The pending receipt is
// only deleted after the append succeeds, so the sender can retry
// confirmation after a ledger failure without re-entering anything.
func (o *Orchestrator) commit(ctx context.Context, senderID string, receipt *models.PendingReceipt) {
	if receipt.Field(models.FieldWhen) == "" {
		receipt.SetField(models.FieldWhen, normalize.Date("", o.now()))
	}

	if err := o.ledger.Append(ctx, receipt.SequenceNumber, receipt.LedgerValues()); err != nil {
		logger.Log.Error().Err(err).
			Str("sender", logger.HashSenderID(senderID)).
			Int64("sequence", receipt.SequenceNumber).
			Msg("Failed to append receipt to ledger")
		o.sendText(ctx, senderID, genericApology)
		return
	}

	if err := o.pending.Delete(senderID); err != nil {
		// The row is already in the ledger; a stale pending receipt is
		// recoverable, a missing row is not.
		logger.Log.Error().Err(err).
			Str("sender", logger.HashSenderID(senderID)).
			Msg("Failed to delete pending receipt after commit")
	}

	logger.Log.Info().
		Str("sender", logger.HashSenderID(senderID)).
		Int64("sequence", receipt.SequenceNumber).
		Msg("Receipt committed to ledger")

	o.sendText(ctx, senderID, addedMessage(receipt.SequenceNumber))
	o.notifyAdmins(ctx, senderID, addedMessage(receipt.SequenceNumber))
}

func (o *Orchestrator) cancel(ctx context.Context, senderID string, receipt *models.PendingReceipt) {
	if receipt.AttachmentRef != "" && !o.storage.Delete(receipt.AttachmentRef) {
		logger.Log.Warn().
			Str("sender", logger.HashSenderID(senderID)).
			Str("ref", receipt.AttachmentRef).
			Msg("Failed to delete cancelled attachment")
	}

	if err := o.pending.Delete(senderID); err != nil {
		logger.Log.Error().Err(err).
			Str("sender", logger.HashSenderID(senderID)).
			Msg("Failed to delete cancelled pending receipt")
		o.sendText(ctx, senderID, genericApology)
		return
	}

	logger.Log.Info().
		Str("sender", logger.HashSenderID(senderID)).
		Int64("sequence", receipt.SequenceNumber).
		Msg("Pending receipt cancelled")

	o.sendText(ctx, senderID, cancelledNotice)
}

// handleFormSubmission commits a full manual form directly, without a
// confirmation round-trip.
func (o *Orchestrator) handleFormSubmission(ctx context.Context, msg Inbound) {
	fields := o.normalizeFields(parse.Fields(msg.Text))

	var missing []string
	for _, required := range []string{models.FieldWhat, models.FieldTotalAmount} {
		if fields[required] == "" {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		o.sendText(ctx, msg.SenderID, missingFieldsMessage(missing))
		return
	}

	receipt := models.NewPendingReceipt(msg.SenderID, msg.DisplayName)
	receipt.SetFields(fields)
	if receipt.Field(models.FieldWhen) == "" {
		receipt.SetField(models.FieldWhen, normalize.Date("", o.now()))
	}

	sequence, err := o.allocateSequence(ctx)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("sender", logger.HashSenderID(msg.SenderID)).
			Msg("Failed to allocate sequence number")
		o.sendText(ctx, msg.SenderID, genericApology)
		return
	}
	receipt.SequenceNumber = sequence

	if err := o.ledger.Append(ctx, sequence, receipt.LedgerValues()); err != nil {
		logger.Log.Error().Err(err).
			Str("sender", logger.HashSenderID(msg.SenderID)).
			Int64("sequence", sequence).
			Msg("Failed to append form submission to ledger")
		o.sendText(ctx, msg.SenderID, genericApology)
		return
	}

	logger.Log.Info().
		Str("sender", logger.HashSenderID(msg.SenderID)).
		Int64("sequence", sequence).
		Msg("Form submission committed to ledger")

	o.sendText(ctx, msg.SenderID, addedMessage(sequence))
	o.notifyAdmins(ctx, msg.SenderID, addedMessage(sequence))
}

// handleAttachment runs an image or document through the vision
// collaborator and stores the result as a pending receipt awaiting
// confirmation. The sequence number is assigned here so the stored file
// and the eventual ledger row share one number.
func (o *Orchestrator) handleAttachment(ctx context.Context, msg Inbound) {
	logger.Log.Info().
		Str("sender", logger.HashSenderID(msg.SenderID)).
		Str("kind", msg.Kind).
		Int("size_bytes", len(msg.Attachment)).
		Msg("Received attachment")

	noun := "an image"
	if msg.Kind == KindDocument {
		noun = "a document"
	}
	o.notifyAdmins(ctx, msg.SenderID, fmt.Sprintf("%s sent %s (%s)", msg.DisplayName, noun, msg.AttachmentName))

	existing, err := o.pending.Get(msg.SenderID)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("sender", logger.HashSenderID(msg.SenderID)).
			Msg("Failed to load pending receipt")
		o.sendText(ctx, msg.SenderID, genericApology)
		return
	}
	if existing != nil {
		o.sendText(ctx, msg.SenderID, fmt.Sprintf(
			"Receipt #%d is still waiting for you. Reply *confirm* or *cancel* before sending a new one.",
			existing.SequenceNumber))
		return
	}

	if o.extractor == nil {
		o.sendText(ctx, msg.SenderID, extractorUnavailable)
		return
	}

	raw, err := o.extractor.ExtractReceipt(ctx, msg.Attachment, msg.MimeType)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("sender", logger.HashSenderID(msg.SenderID)).
			Msg("Receipt extraction failed")
		if errors.Is(err, vision.ErrExtractTimeout) {
			o.sendText(ctx, msg.SenderID, "Reading the receipt took too long. Please try again, or type it in manually.")
			return
		}
		o.sendText(ctx, msg.SenderID, extractionApology)
		return
	}

	fields := o.normalizeFields(raw)

	sequence, err := o.allocateSequence(ctx)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("sender", logger.HashSenderID(msg.SenderID)).
			Msg("Failed to allocate sequence number")
		o.sendText(ctx, msg.SenderID, genericApology)
		return
	}

	ref, err := o.storage.Upload(msg.Attachment, fmt.Sprintf("receipt-%d%s", sequence, attachmentExt(msg)))
	if err != nil {
		logger.Log.Error().Err(err).
			Str("sender", logger.HashSenderID(msg.SenderID)).
			Int64("sequence", sequence).
			Msg("Failed to store attachment")
		o.sendText(ctx, msg.SenderID, genericApology)
		return
	}

	receipt := models.NewPendingReceipt(msg.SenderID, msg.DisplayName)
	receipt.SetFields(fields)
	receipt.SetField(models.FieldHasReceipt, "yes")
	if receipt.Field(models.FieldWhen) == "" {
		receipt.SetField(models.FieldWhen, normalize.Date("", o.now()))
	}
	receipt.AttachmentRef = ref
	receipt.SequenceNumber = sequence

	if err := o.pending.Put(receipt); err != nil {
		logger.Log.Error().Err(err).
			Str("sender", logger.HashSenderID(msg.SenderID)).
			Int64("sequence", sequence).
			Msg("Failed to store pending receipt")
		o.storage.Delete(ref)
		o.sendText(ctx, msg.SenderID, genericApology)
		return
	}

	o.sendText(ctx, msg.SenderID, summaryMessage(receipt))
}

// normalizeFields runs a raw field map through the per-field
// normalization rules. The vision collaborator reports dates under the
// key "date"; it is folded into the canonical when field here.
func (o *Orchestrator) normalizeFields(fields map[string]string) map[string]string {
	now := o.now()
	out := make(map[string]string, len(fields))
	for key, value := range fields {
		if key == "date" {
			key = models.FieldWhen
		}
		switch key {
		case models.FieldTotalAmount, models.FieldIVA:
			out[key] = normalize.Money(value)
		case models.FieldWhen:
			out[key] = normalize.Date(value, now)
		case models.FieldHasReceipt:
			out[key] = normalize.BooleanFlag(value)
		case models.FieldCompany:
			out[key] = normalize.Company(value)
		default:
			out[key] = strings.TrimSpace(value)
		}
	}
	return out
}

// allocateSequence reads the ledger's maximum as a best-effort
// reconciliation input. A ledger read failure degrades to the persisted
// high-water mark alone; the allocator stays monotonic either way.
func (o *Orchestrator) allocateSequence(ctx context.Context) (int64, error) {
	var ledgerMax *int64
	if observed, err := o.ledger.MaxSequence(ctx); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to read ledger max sequence, using high-water mark only")
	} else {
		ledgerMax = &observed
	}
	return o.sequencer.Allocate(ledgerMax)
}

func (o *Orchestrator) sendText(ctx context.Context, senderID, text string) {
	if err := o.messenger.SendText(ctx, senderID, text); err != nil {
		logger.Log.Error().Err(err).
			Str("sender", logger.HashSenderID(senderID)).
			Msg("Failed to send message")
	}
}

func (o *Orchestrator) notifyAdmins(ctx context.Context, senderID, text string) {
	for _, adminID := range o.adminIDs {
		if adminID == senderID {
			continue
		}
		o.sendText(ctx, adminID, text)
	}
}

// attachmentExt picks the stored file extension from the attachment's
// MIME type, falling back to the original filename.
func attachmentExt(msg Inbound) string {
	switch msg.MimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	}
	if ext := filepath.Ext(msg.AttachmentName); ext != "" {
		return ext
	}
	return ".bin"
}
