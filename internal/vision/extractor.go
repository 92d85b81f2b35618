package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gitlab.com/idrea/receipt-ledger-bot/internal/models"
	"google.golang.org/genai"
)

// ExtractTimeout is the timeout for Gemini API calls.
const ExtractTimeout = 30 * time.Second

// ErrExtractTimeout indicates the Gemini API call timed out.
var ErrExtractTimeout = errors.New("receipt extraction timed out")

// ErrNoData indicates no usable fields could be extracted from the receipt.
var ErrNoData = errors.New("no usable data extracted from receipt")

// extractionPrompt instructs the model to answer with the exact field
// names the parser pipeline expects.
const extractionPrompt = `Analyze this receipt image and extract the following information.
Return ONLY a JSON object with no additional text or markdown formatting.

Fields:
- what: brief description of the purchase (items or services bought)
- store_name: the business name that issued the receipt, without slogans or addresses
- total_amount: the total amount paid, exactly as shown (currency symbols included)
- iva: the VAT/IVA tax amount if shown, exactly as printed
- date: the purchase date in DD/MM/YYYY format
- company: the customer/billed-to company name if printed
- invoice_number: the invoice or ticket number if printed
- supplier_id: the supplier tax ID (CIF/NIF) if printed

If a field is not visible, use an empty string. If multiple totals exist,
choose the final one.

Example response:
{"what": "Office supplies", "store_name": "Papeleria Sol", "total_amount": "12,40 €", "iva": "2,15 €", "date": "02/05/2024", "company": "", "invoice_number": "T-0117", "supplier_id": "B12345678"}`

// extractionKeys maps the model's field spellings to canonical names. The
// model is told the exact keys, but older prompts and stray capitalization
// still show up in responses.
var extractionKeys = map[string]string{
	"what":           models.FieldWhat,
	"store name":     models.FieldStoreName,
	"store_name":     models.FieldStoreName,
	"merchant":       models.FieldStoreName,
	"total amount":   models.FieldTotalAmount,
	"total_amount":   models.FieldTotalAmount,
	"amount":         models.FieldTotalAmount,
	"iva":            models.FieldIVA,
	"iva/vat amount": models.FieldIVA,
	"vat":            models.FieldIVA,
	"date":           "date",
	"company":        models.FieldCompany,
	"invoice_number": models.FieldInvoiceNumber,
	"invoice number": models.FieldInvoiceNumber,
	"supplier_id":    models.FieldSupplierID,
	"supplier id":    models.FieldSupplierID,
}

// ExtractReceipt proposes a raw field map from attachment bytes. Keys are
// drawn from {what, store_name, total_amount, iva, date, company,
// invoice_number, supplier_id}; any key may be absent. The caller runs the
// result through the normalization pipeline exactly like a typed message.
func (c *Client) ExtractReceipt(ctx context.Context, data []byte, mimeType string) (map[string]string, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("attachment data is required")
	}

	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, ExtractTimeout)
	defer cancel()

	resp, err := c.generator.GenerateContent(timeoutCtx, ModelName, []*genai.Content{
		{
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
				{Text: extractionPrompt},
			},
		},
	}, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrExtractTimeout
		}
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response from Gemini")
	}

	var textContent string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			textContent += part.Text
		}
	}

	if textContent == "" {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	fields, err := parseExtractionResponse(textContent)
	if err != nil {
		return nil, err
	}

	if isEmptyExtraction(fields) {
		return nil, ErrNoData
	}

	return fields, nil
}

// parseExtractionResponse strips markdown fences, unmarshals the JSON
// object and resolves the model's key spellings to canonical names.
// Unrecognized keys survive as lowercased underscore-joined names.
func parseExtractionResponse(response string) (map[string]string, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	var raw map[string]any
	if err := json.Unmarshal([]byte(response), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	fields := make(map[string]string, len(raw))
	for key, value := range raw {
		text, ok := value.(string)
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}

		name, ok := extractionKeys[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			name = strings.Join(strings.Fields(strings.ToLower(key)), "_")
		}
		fields[name] = strings.TrimSpace(text)
	}

	return fields, nil
}

// isEmptyExtraction reports whether the model produced nothing the ledger
// could use.
func isEmptyExtraction(fields map[string]string) bool {
	return fields[models.FieldWhat] == "" &&
		fields[models.FieldTotalAmount] == "" &&
		fields[models.FieldStoreName] == ""
}
