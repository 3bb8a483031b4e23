package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	ISODateFormat     = "2006-01-02"
	CompactDateFormat = "20060102"
	NBUDateFormat     = "02.01.2006"
)

// DatePart returns the YYYY-MM-DD prefix of a statement date or date-time
// such as "2024-03-15, 10:31:07".
func DatePart(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 10 {
		return s
	}
	return s[:10]
}

// ParseISODate parses a YYYY-MM-DD date.
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse(ISODateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ToCompactDate converts YYYY-MM-DD to the YYYYMMDD form the rate API expects.
func ToCompactDate(iso string) (string, error) {
	t, err := ParseISODate(iso)
	if err != nil {
		return "", err
	}
	return t.Format(CompactDateFormat), nil
}

// NBUDateToISO converts DD.MM.YYYY to YYYY-MM-DD.
func NBUDateToISO(s string) (string, error) {
	t, err := time.Parse(NBUDateFormat, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid NBU date %q: %w", s, err)
	}
	return t.Format(ISODateFormat), nil
}
