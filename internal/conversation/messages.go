package conversation

import (
	"fmt"
	"sort"
	"strings"

	"gitlab.com/idrea/receipt-ledger-bot/internal/models"
)

// blankFormTemplate is sent when a text message is neither a form nor a
// known command. Filling it in and sending it back is the manual entry
// path.
const blankFormTemplate = "*What*: \n" +
	"*Amount* (euros): \n" +
	"IVA (euros): \n" +
	"Receipt: yes \n" +
	"Store name: \n" +
	"Payment method: \n" +
	"Charge to: \n" +
	"Comments: \n\n" +
	"Knock-Knock! _Who's there?_ The IT guy! 👋"

const editHint = "I didn't catch that. To change a field, send `label: value` lines like:\n\n" +
	"Amount: 12,50\n\n" +
	"Reply *confirm* to save it, or *cancel* to throw it away."

const genericApology = "Something went wrong on our side. Nothing was lost, please try again in a moment."

const extractionApology = "I could not read that receipt. You can type it in manually:\n\n" + blankFormTemplate

const extractorUnavailable = "Receipt photos are not enabled right now. Please type the receipt in manually:\n\n" + blankFormTemplate

const cancelledNotice = "Cancelled. The receipt was discarded."

// summaryLabels maps canonical fields to the labels shown in the pending
// receipt summary, in display order. Fields without a value are skipped
// except the three leading ones, which always show.
var summaryLabels = []struct {
	field  string
	label  string
	always bool
}{
	{field: models.FieldWhat, label: "What", always: true},
	{field: models.FieldTotalAmount, label: "Amount (euros)", always: true},
	{field: models.FieldIVA, label: "IVA (euros)", always: true},
	{field: models.FieldWhen, label: "Date", always: false},
	{field: models.FieldStoreName, label: "Store name", always: true},
	{field: models.FieldPaymentMethod, label: "Payment method", always: false},
	{field: models.FieldChargeTo, label: "Charge to", always: false},
	{field: models.FieldComments, label: "Comments", always: false},
	{field: models.FieldCompany, label: "Company", always: false},
	{field: models.FieldInvoiceNumber, label: "Invoice number", always: false},
	{field: models.FieldSupplierID, label: "Supplier ID", always: false},
}

// summaryMessage renders a pending receipt for the sender to review,
// followed by the confirm/cancel instructions.
func summaryMessage(receipt *models.PendingReceipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is what I got (receipt #%d):\n\n", receipt.SequenceNumber)

	for _, row := range summaryLabels {
		value := receipt.Field(row.field)
		if value == "" && !row.always {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", row.label, value)
	}

	b.WriteString("\nReply *confirm* to save it, *cancel* to discard it, or send corrections as `label: value` lines.")
	return b.String()
}

// addedMessage announces a committed ledger row.
func addedMessage(sequence int64) string {
	return fmt.Sprintf("Update added to our list! (#%d)", sequence)
}

// missingFieldsMessage names the required fields a form submission left
// out.
func missingFieldsMessage(missing []string) string {
	sort.Strings(missing)
	labels := make([]string, len(missing))
	for i, field := range missing {
		switch field {
		case models.FieldWhat:
			labels[i] = "What"
		case models.FieldTotalAmount:
			labels[i] = "Amount"
		default:
			labels[i] = field
		}
	}
	return fmt.Sprintf("Almost there! I still need: %s. Please resend the form with those filled in.", strings.Join(labels, ", "))
}
