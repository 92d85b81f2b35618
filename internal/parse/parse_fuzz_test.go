package parse

import (
	"strings"
	"testing"

	"gitlab.com/idrea/receipt-ledger-bot/internal/models"
)

func FuzzFields(f *testing.F) {
	// Well-formed inputs.
	f.Add("What: Coffee\nAmount: 3,50")
	f.Add("*What*: Pens\n_Store name_: Papeleria")
	f.Add("Comments: pickup at 10:30")
	f.Add("Project Code: ATLAS-7")

	// Hostile shapes.
	f.Add("")
	f.Add(":")
	f.Add("::::")
	f.Add("a:b\na:c\na:d")
	f.Add("What:\n:value\nno colon here")
	f.Add("\n\n\n")
	f.Add("What: Coffee\x00null")
	f.Add(strings.Repeat("Amount: 1\n", 50))

	f.Fuzz(func(t *testing.T, message string) {
		fields := Fields(message)

		for key, value := range fields {
			// Keys are either canonical or slugs: never empty, never
			// containing spaces or uppercase.
			if key == "" {
				t.Errorf("Fields(%q) produced an empty key", message)
			}
			if !models.IsCanonicalField(key) {
				if strings.ContainsAny(key, " \t") || key != strings.ToLower(key) {
					t.Errorf("Fields(%q) produced non-slug key %q", message, key)
				}
			}

			// Values are trimmed and never empty.
			if value == "" || value != strings.TrimSpace(value) {
				t.Errorf("Fields(%q) produced untrimmed or empty value %q for %q", message, value, key)
			}
		}
	})
}
