package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2024, 5, 10, 17, 42, 3, 0, time.UTC)

func TestMoney(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "comma decimal separator", raw: "42,50", want: "42.50"},
		{name: "currency symbol euro", raw: "42,50 €", want: "42.50"},
		{name: "currency symbol dollar", raw: "$12.00", want: "12.00"},
		{name: "plain integer", raw: "100", want: "100"},
		{name: "trailing dot trimmed", raw: "15,", want: "15"},
		{name: "trailing dot after comma swap", raw: "15.", want: "15"},
		{name: "thousands separator typo", raw: "1.234.56", want: "1234.56"},
		{name: "thousands separator with comma decimals", raw: "1.234,56", want: "1234.56"},
		{name: "negative amount", raw: "-3,20", want: "-3.20"},
		{name: "interior minus stripped", raw: "3-2", want: "32"},
		{name: "embedded words stripped", raw: "total 9,90 eur", want: "9.90"},
		{name: "empty", raw: "", want: ""},
		{name: "whitespace only", raw: "   ", want: ""},
		{name: "letters only", raw: "free", want: ""},
		{name: "lone symbols", raw: "€", want: ""},
		{name: "three dots unparseable", raw: "1.2.3.4", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Money(tt.raw))
		})
	}
}

func TestDateAcceptedFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "day first slash", raw: "02/05/2024", want: "2024-05-02 12:00"},
		{name: "day first dash", raw: "02-05-2024", want: "2024-05-02 12:00"},
		{name: "day first dot", raw: "02.05.2024", want: "2024-05-02 12:00"},
		{name: "single digit day and month", raw: "2/5/2024", want: "2024-05-02 12:00"},
		{name: "year first dash", raw: "2024-05-02", want: "2024-05-02 12:00"},
		{name: "year first slash", raw: "2024/05/02", want: "2024-05-02 12:00"},
		{name: "today literal", raw: "today", want: "2024-05-10 12:00"},
		{name: "today uppercase", raw: "TODAY", want: "2024-05-10 12:00"},
		{name: "yesterday literal", raw: "yesterday", want: "2024-05-09 12:00"},
		{name: "leap day", raw: "29/02/2024", want: "2024-02-29 12:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Date(tt.raw, refNow))
		})
	}
}

func TestDateFallsBackToReference(t *testing.T) {
	t.Parallel()

	// The reference date at noon, for anything unparseable.
	want := "2024-05-10 12:00"

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "nonexistent day month pair", raw: "31/04/2024"},
		{name: "nonexistent leap day", raw: "29/02/2023"},
		{name: "month out of range", raw: "10/13/2024"},
		{name: "two digit year", raw: "02/05/24"},
		{name: "free text", raw: "last tuesday"},
		{name: "missing component", raw: "05/2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, want, Date(tt.raw, refNow))
		})
	}
}

func TestDateAtCustomClock(t *testing.T) {
	t.Parallel()

	require.Equal(t, "2024-05-02 09:30", DateAt("02/05/2024", refNow, 9, 30))
	require.Equal(t, "2024-05-10 09:30", DateAt("", refNow, 9, 30))
}

func TestBooleanFlag(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"yes", "YES", "true", "1", "y", " Y "} {
		require.Equal(t, "yes", BooleanFlag(raw), "input %q", raw)
	}
	for _, raw := range []string{"no", "NO", "false", "0", "n"} {
		require.Equal(t, "no", BooleanFlag(raw), "input %q", raw)
	}

	// Advisory field: anything else passes through untouched.
	require.Equal(t, "maybe", BooleanFlag("maybe"))
	require.Equal(t, "", BooleanFlag(""))
}

func TestCompany(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "exact brand token", raw: "idrea", want: "iDrea S.L."},
		{name: "brand token inside text", raw: "charge to iDrea please", want: "iDrea S.L."},
		{name: "hyphenated spelling", raw: "I-Drea", want: "iDrea S.L."},
		{name: "second entity", raw: "Drea Estudio", want: "Drea Estudio"},
		{name: "personal expense", raw: "personal card", want: "Personal"},
		{name: "unknown company", raw: "ACME Corp", want: ""},
		{name: "ambiguous never guesses", raw: "idrea personal", want: ""},
		{name: "empty", raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Company(tt.raw))
		})
	}
}

func TestKnownCompanies(t *testing.T) {
	t.Parallel()

	companies := KnownCompanies()
	require.Contains(t, companies, "iDrea S.L.")
	require.Contains(t, companies, "Personal")
}
