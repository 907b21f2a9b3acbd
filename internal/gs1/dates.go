package gs1

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NormalizeDate converts an expiry value into the canonical display form:
// "YYYY-MM-DD", or "YYYY-MM" when the day component is absent or "00" (GS1
// allows a zero day meaning "end of month"). Both the 6-digit GS1 YYMMDD
// encoding and the ISO form produced by the composite-scan interpreter are
// accepted, so downstream comparisons are value-equal regardless of source.
func NormalizeDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if strings.Contains(value, "-") {
		return normalizeISO(value)
	}
	return normalizeGS1(value)
}

func normalizeGS1(yymmdd string) (string, error) {
	if len(yymmdd) != 6 || !digitsOnly(yymmdd) {
		return "", fmt.Errorf("not a 6-digit GS1 date")
	}
	year := 2000 + mustAtoi(yymmdd[0:2])
	month := mustAtoi(yymmdd[2:4])
	day := mustAtoi(yymmdd[4:6])
	return formatDate(year, month, day)
}

func normalizeISO(value string) (string, error) {
	parts := strings.Split(value, "-")
	if len(parts) != 2 && len(parts) != 3 {
		return "", fmt.Errorf("not an ISO date")
	}
	for _, p := range parts {
		if !digitsOnly(p) {
			return "", fmt.Errorf("not an ISO date")
		}
	}
	if len(parts[0]) != 4 {
		return "", fmt.Errorf("ISO date year must have 4 digits")
	}
	year := mustAtoi(parts[0])
	month := mustAtoi(parts[1])
	day := 0
	if len(parts) == 3 {
		day = mustAtoi(parts[2])
	}
	return formatDate(year, month, day)
}

func formatDate(year, month, day int) (string, error) {
	if month < 1 || month > 12 {
		return "", fmt.Errorf("month %d out of range", month)
	}
	if day == 0 {
		return fmt.Sprintf("%04d-%02d", year, month), nil
	}
	if day > daysInMonth(year, month) {
		return "", fmt.Errorf("day %d out of range", day)
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), nil
}

// ExpiryTime resolves a normalized display date to the instant the unit
// expires: the end of the named day, or the end of the month for the
// month-only form. The product is usable through the whole stated period.
func ExpiryTime(display string) (time.Time, error) {
	parts := strings.Split(display, "-")
	switch len(parts) {
	case 2:
		year := mustAtoi(parts[0])
		month := mustAtoi(parts[1])
		return time.Date(year, time.Month(month), daysInMonth(year, month), 23, 59, 59, 0, time.UTC), nil
	case 3:
		t, err := time.Parse("2006-01-02", display)
		if err != nil {
			return time.Time{}, err
		}
		return t.Add(24*time.Hour - time.Second), nil
	default:
		return time.Time{}, fmt.Errorf("unrecognized expiry form %q", display)
	}
}

func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
