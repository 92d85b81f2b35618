// Package normalize turns raw receipt field text into canonical values.
// Every function is pure and total: bad input degrades to a documented
// default, never an error.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the canonical rendering of the "when" field.
const TimestampLayout = "2006-01-02 15:04"

// DefaultHour is the time-of-day used when the sender supplied only a date.
const DefaultHour = 12

// Money canonicalizes a human-typed or AI-proposed amount: currency
// symbols are stripped, the comma decimal separator becomes a dot, a
// trailing dot is trimmed, and a double dot is treated as a thousands
// separator typo (the first dot is removed). Anything that still fails to
// parse as a decimal normalizes to "", which downstream code must treat
// as "unspecified", not zero.
func Money(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}

	v = strings.ReplaceAll(v, ",", ".")
	v = strings.TrimSuffix(v, ".")

	if strings.Count(v, ".") == 2 {
		i := strings.Index(v, ".")
		v = v[:i] + v[i+1:]
	}

	var b strings.Builder
	for i, r := range v {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && i == 0:
			b.WriteRune(r)
		}
	}
	v = b.String()

	// decimal is the arbiter of "still parses as an amount"; the cleaned
	// text is returned as typed so "42,50" stays "42.50", not "42.5".
	if _, err := decimal.NewFromString(v); err != nil {
		return ""
	}
	return v
}

// dateLayout describes one accepted input shape.
type dateLayout struct {
	sep       string
	yearFirst bool
}

var dateLayouts = []dateLayout{
	{sep: "/", yearFirst: false}, // DD/MM/YYYY
	{sep: "-", yearFirst: false}, // DD-MM-YYYY
	{sep: ".", yearFirst: false}, // DD.MM.YYYY
	{sep: "-", yearFirst: true},  // YYYY-MM-DD
	{sep: "/", yearFirst: true},  // YYYY/MM/DD
}

// Date canonicalizes a date token to TimestampLayout at noon. Accepted
// inputs are DD/MM/YYYY, DD-MM-YYYY, DD.MM.YYYY, YYYY-MM-DD, YYYY/MM/DD
// and the literals "today"/"yesterday". A day/month pair that does not
// survive reconstruction (e.g. 31/04/2024) is unparseable, not silently
// shifted. Empty or unparseable input falls back to the reference time so
// the ledger always carries a timestamp.
func Date(raw string, now time.Time) string {
	return DateAt(raw, now, DefaultHour, 0)
}

// DateAt is Date with a caller-supplied time-of-day.
func DateAt(raw string, now time.Time, hour, minute int) string {
	fallback := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())

	v := strings.TrimSpace(raw)
	switch strings.ToLower(v) {
	case "":
		return fallback.Format(TimestampLayout)
	case "today":
		return fallback.Format(TimestampLayout)
	case "yesterday":
		return fallback.AddDate(0, 0, -1).Format(TimestampLayout)
	}

	for _, layout := range dateLayouts {
		t, ok := parseDate(v, layout, now.Location())
		if ok {
			return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, now.Location()).
				Format(TimestampLayout)
		}
	}

	return fallback.Format(TimestampLayout)
}

// parseDate splits v on the layout separator and rebuilds the date. It
// relies on time.Date normalizing overflow: if the rebuilt day or month
// differs from the tokens, the pair was invalid (a transposed or
// non-existent date) and the input is rejected.
func parseDate(v string, layout dateLayout, loc *time.Location) (time.Time, bool) {
	parts := strings.Split(v, layout.sep)
	if len(parts) != 3 {
		return time.Time{}, false
	}

	var dayTok, monthTok, yearTok string
	if layout.yearFirst {
		yearTok, monthTok, dayTok = parts[0], parts[1], parts[2]
	} else {
		dayTok, monthTok, yearTok = parts[0], parts[1], parts[2]
	}
	if len(yearTok) != 4 {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(dayTok)
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(monthTok)
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearTok)
	if err != nil {
		return time.Time{}, false
	}
	if day < 1 || month < 1 || month > 12 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Day() != day || t.Month() != time.Month(month) || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

var (
	yesTokens = map[string]struct{}{"yes": {}, "true": {}, "1": {}, "y": {}}
	noTokens  = map[string]struct{}{"no": {}, "false": {}, "0": {}, "n": {}}
)

// BooleanFlag maps yes/no spellings to "yes" or "no". Unrecognized input
// passes through unchanged; the field is advisory.
func BooleanFlag(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := yesTokens[v]; ok {
		return "yes"
	}
	if _, ok := noTokens[v]; ok {
		return "no"
	}
	return raw
}

// payerEntity is one entry of the closed list of companies a receipt may
// be charged to.
type payerEntity struct {
	canonical string
	keywords  []string
}

var payerEntities = []payerEntity{
	{canonical: "iDrea S.L.", keywords: []string{"idrea", "i-drea"}},
	{canonical: "Drea Estudio", keywords: []string{"estudio", "drea estudio"}},
	{canonical: "Personal", keywords: []string{"personal", "private"}},
}

// Company matches raw text against the closed list of known payer
// entities by keyword. It returns the exact canonical entity string on a
// confident match and "" otherwise; an ambiguous match (keywords of more
// than one entity present) is never guessed.
func Company(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return ""
	}

	var match string
	for _, entity := range payerEntities {
		for _, kw := range entity.keywords {
			if !strings.Contains(v, kw) {
				continue
			}
			if match != "" && match != entity.canonical {
				return ""
			}
			match = entity.canonical
			break
		}
	}
	return match
}

// KnownCompanies lists the canonical payer entities, for prompts and help
// text.
func KnownCompanies() []string {
	out := make([]string, len(payerEntities))
	for i, e := range payerEntities {
		out[i] = e.canonical
	}
	return out
}
