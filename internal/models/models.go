// Package models defines the domain entities for the receipt ledger bot.
package models

import "time"

// Canonical field names for a receipt. These are the only keys a
// PendingReceipt may carry; free-form labels are resolved to this set by
// the parse package.
const (
	FieldWhat          = "what"
	FieldTotalAmount   = "total_amount"
	FieldIVA           = "iva"
	FieldWhen          = "when"
	FieldStoreName     = "store_name"
	FieldCompany       = "company"
	FieldPaymentMethod = "payment_method"
	FieldChargeTo      = "charge_to"
	FieldComments      = "comments"
	FieldHasReceipt    = "has_receipt"
	FieldInvoiceNumber = "invoice_number"
	FieldSupplierID    = "supplier_id"
)

// CanonicalFields lists every canonical field name.
var CanonicalFields = []string{
	FieldWhat,
	FieldTotalAmount,
	FieldIVA,
	FieldWhen,
	FieldStoreName,
	FieldCompany,
	FieldPaymentMethod,
	FieldChargeTo,
	FieldComments,
	FieldHasReceipt,
	FieldInvoiceNumber,
	FieldSupplierID,
}

var canonicalSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(CanonicalFields))
	for _, f := range CanonicalFields {
		m[f] = struct{}{}
	}
	return m
}()

// IsCanonicalField reports whether name is one of the canonical field names.
func IsCanonicalField(name string) bool {
	_, ok := canonicalSet[name]
	return ok
}

// LedgerColumns is the fixed column order of an appended ledger row.
// The sequence number leads; the remaining values follow in this order.
var LedgerColumns = []string{
	"sequence",
	FieldWhen,
	"who",
	FieldWhat,
	FieldTotalAmount,
	FieldIVA,
	FieldHasReceipt,
	FieldStoreName,
	FieldPaymentMethod,
	FieldChargeTo,
	FieldComments,
	FieldCompany,
	FieldInvoiceNumber,
	FieldSupplierID,
}

// PendingReceipt is the single in-flight, not-yet-confirmed receipt of one
// sender. At most one exists per sender at any time.
type PendingReceipt struct {
	SenderID          string            `json:"sender_id"`
	SenderDisplayName string            `json:"sender_display_name"`
	Fields            map[string]string `json:"fields"`
	AttachmentRef     string            `json:"attachment_ref,omitempty"`
	SequenceNumber    int64             `json:"sequence_number,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// NewPendingReceipt creates an empty receipt for the given sender.
func NewPendingReceipt(senderID, displayName string) *PendingReceipt {
	return &PendingReceipt{
		SenderID:          senderID,
		SenderDisplayName: displayName,
		Fields:            make(map[string]string),
		CreatedAt:         time.Now().UTC(),
	}
}

// SetField stores a canonical field value. Non-canonical names are dropped
// so the receipt never carries keys outside the canonical set.
func (r *PendingReceipt) SetField(name, value string) {
	if !IsCanonicalField(name) {
		return
	}
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	r.Fields[name] = value
}

// SetFields applies every canonical entry of updates to the receipt.
func (r *PendingReceipt) SetFields(updates map[string]string) {
	for name, value := range updates {
		r.SetField(name, value)
	}
}

// Field returns the stored value for a canonical field, or "".
func (r *PendingReceipt) Field(name string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[name]
}

// LedgerValues assembles the row values following the sequence column, in
// the order required by LedgerColumns: when, who, what, total_amount, iva,
// has_receipt, store_name, payment_method, charge_to, comments, company,
// invoice_number, supplier_id.
func (r *PendingReceipt) LedgerValues() []string {
	return []string{
		r.Field(FieldWhen),
		r.SenderDisplayName,
		r.Field(FieldWhat),
		r.Field(FieldTotalAmount),
		r.Field(FieldIVA),
		r.Field(FieldHasReceipt),
		r.Field(FieldStoreName),
		r.Field(FieldPaymentMethod),
		r.Field(FieldChargeTo),
		r.Field(FieldComments),
		r.Field(FieldCompany),
		r.Field(FieldInvoiceNumber),
		r.Field(FieldSupplierID),
	}
}
