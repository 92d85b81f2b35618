package normalize

import (
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Money output is canonical for any input: at most one dot, no commas, no
// currency symbols, a minus only in front.
func TestMoneyCanonicalForm(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.String().Draw(t, "raw")
		got := Money(raw)

		if got == "" {
			return
		}
		if strings.Count(got, ".") > 1 {
			t.Fatalf("Money(%q) = %q contains more than one dot", raw, got)
		}
		if strings.ContainsAny(got, ",€$£ ") {
			t.Fatalf("Money(%q) = %q contains a separator or symbol", raw, got)
		}
		if i := strings.LastIndex(got, "-"); i > 0 {
			t.Fatalf("Money(%q) = %q has an interior minus", raw, got)
		}
		for _, r := range got {
			if r != '.' && r != '-' && (r < '0' || r > '9') {
				t.Fatalf("Money(%q) = %q contains %q", raw, got, r)
			}
		}
	})
}

// Money is idempotent: normalizing an already-normalized amount is a no-op.
func TestMoneyIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.String().Draw(t, "raw")
		once := Money(raw)
		if once == "" {
			return
		}
		if twice := Money(once); twice != once {
			t.Fatalf("Money(Money(%q)): %q != %q", raw, twice, once)
		}
	})
}

// Date always renders a parseable canonical timestamp, whatever the input.
func TestDateAlwaysCanonical(t *testing.T) {
	now := time.Date(2024, 5, 10, 8, 15, 0, 0, time.UTC)

	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.String().Draw(t, "raw")
		got := Date(raw, now)

		ts, err := time.Parse(TimestampLayout, got)
		if err != nil {
			t.Fatalf("Date(%q) = %q is not canonical: %v", raw, got, err)
		}
		if ts.Hour() != DefaultHour || ts.Minute() != 0 {
			t.Fatalf("Date(%q) = %q is not at noon", raw, got)
		}
	})
}

// Valid day-first dates round-trip: the rendered date component matches
// the input day, month and year.
func TestDateDayFirstRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 10, 8, 15, 0, 0, time.UTC)

	rapid.Check(t, func(t *rapid.T) {
		year := rapid.IntRange(2000, 2099).Draw(t, "year")
		month := rapid.IntRange(1, 12).Draw(t, "month")
		day := rapid.IntRange(1, 28).Draw(t, "day")

		raw := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format("02/01/2006")
		got := Date(raw, now)

		ts, err := time.Parse(TimestampLayout, got)
		if err != nil {
			t.Fatalf("Date(%q) = %q: %v", raw, got, err)
		}
		if ts.Year() != year || int(ts.Month()) != month || ts.Day() != day {
			t.Fatalf("Date(%q) = %q does not preserve the date", raw, got)
		}
	})
}
