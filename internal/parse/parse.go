// Package parse splits free-form chat messages into labeled receipt
// fields and resolves human labels to the canonical field set.
package parse

import (
	"strings"

	"gitlab.com/idrea/receipt-ledger-bot/internal/models"
)

// fieldAlias maps a label fragment to a canonical field name. A label
// matches when the fragment appears in its cleaned form; aliases are
// checked in order, so more specific fragments come first.
type fieldAlias struct {
	fragment  string
	canonical string
}

var fieldAliases = []fieldAlias{
	{fragment: "invoice", canonical: models.FieldInvoiceNumber},
	{fragment: "supplier", canonical: models.FieldSupplierID},
	{fragment: "amount", canonical: models.FieldTotalAmount},
	{fragment: "total", canonical: models.FieldTotalAmount},
	{fragment: "iva", canonical: models.FieldIVA},
	{fragment: "vat", canonical: models.FieldIVA},
	{fragment: "when", canonical: models.FieldWhen},
	{fragment: "date", canonical: models.FieldWhen},
	{fragment: "store", canonical: models.FieldStoreName},
	{fragment: "shop", canonical: models.FieldStoreName},
	{fragment: "merchant", canonical: models.FieldStoreName},
	{fragment: "company", canonical: models.FieldCompany},
	{fragment: "payment", canonical: models.FieldPaymentMethod},
	{fragment: "charge", canonical: models.FieldChargeTo},
	{fragment: "comment", canonical: models.FieldComments},
	{fragment: "receipt", canonical: models.FieldHasReceipt},
	{fragment: "what", canonical: models.FieldWhat},
}

// formLabels are the labels whose presence marks a full manual form
// submission. Two of the three are enough; this is a best-effort
// classifier, not a grammar.
var formLabels = []string{"what", "amount", "store name"}

// Fields splits a message into label/value pairs. Each line is split on
// its first colon; emphasis markers are stripped from the label, and the
// label is resolved against the alias table. Unmatched labels survive as
// lowercased, underscore-joined keys. When a label repeats, the last
// occurrence wins.
func Fields(message string) map[string]string {
	fields := make(map[string]string)

	for line := range strings.SplitSeq(message, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		label = cleanLabel(label)
		value = strings.TrimSpace(value)
		if label == "" || value == "" {
			continue
		}

		fields[resolveLabel(label)] = value
	}

	return fields
}

// IsFormSubmission reports whether a message looks like a full manual
// form: at least two of the labels What / Amount / Store name appear,
// case-insensitively.
func IsFormSubmission(message string) bool {
	lower := strings.ToLower(message)
	hits := 0
	for _, label := range formLabels {
		if strings.Contains(lower, label) {
			hits++
		}
	}
	return hits >= 2
}

// cleanLabel lowercases a label and strips chat emphasis markers and
// surrounding punctuation.
func cleanLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.NewReplacer("*", "", "_", " ", "`", "", "~", "").Replace(label)
	return strings.Join(strings.Fields(label), " ")
}

// resolveLabel maps a cleaned label to a canonical field name, or to a
// lowercased underscore-joined key when no alias matches. Unknown labels
// are kept rather than discarded so unanticipated fields survive parsing.
func resolveLabel(label string) string {
	for _, alias := range fieldAliases {
		if strings.Contains(label, alias.fragment) {
			return alias.canonical
		}
	}
	return strings.Join(strings.Fields(label), "_")
}
