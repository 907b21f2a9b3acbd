package gs1

import (
	"testing"
	"time"
)

func TestNormalizeDateValueEquality(t *testing.T) {
	// The GS1 and ISO source encodings of the same date must normalize to the
	// same internal representation.
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"gs1 month only", "270600", "2027-06"},
		{"gs1 full date", "250607", "2025-06-07"},
		{"iso month only", "2027-06", "2027-06"},
		{"iso zero day", "2027-06-00", "2027-06"},
		{"iso full date", "2025-06-07", "2025-06-07"},
	}

	for _, tc := range cases {
		got, err := NormalizeDate(tc.in)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestNormalizeDateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"27060", "2706000", "271300", "250632", "20-01-01", "abcdef"} {
		if _, err := NormalizeDate(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestExpiryTimeMonthOnlyCoversWholeMonth(t *testing.T) {
	expiresAt, err := ExpiryTime("2025-06")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inMonth := time.Date(2025, time.June, 30, 12, 0, 0, 0, time.UTC)
	if expiresAt.Before(inMonth) {
		t.Fatalf("expected expiry %v to cover the whole month", expiresAt)
	}
	afterMonth := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	if !expiresAt.Before(afterMonth) {
		t.Fatalf("expected expiry %v to end with the month", expiresAt)
	}
}

func TestExpiryTimeDayForm(t *testing.T) {
	expiresAt, err := ExpiryTime("2025-06-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expiresAt.Day() != 7 || expiresAt.Month() != time.June || expiresAt.Year() != 2025 {
		t.Fatalf("unexpected expiry time %v", expiresAt)
	}
	if expiresAt.Hour() != 23 {
		t.Fatalf("expected end-of-day expiry, got %v", expiresAt)
	}
}
