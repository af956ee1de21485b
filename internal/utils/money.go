package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Monetary amounts are carried as integer cents everywhere inside the
// service; strings like "1000.00" only appear at the API boundary.

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a decimal string ("1000.00", "99.9", "15") into cents.
// Negative and malformed amounts are rejected.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, ErrInvalidAmount
	}

	whole := s
	frac := ""
	if idx := strings.Index(s, "."); idx != -1 {
		whole, frac = s[:idx], s[idx+1:]
	}
	if whole == "" || len(frac) > 2 {
		return 0, ErrInvalidAmount
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	cents := int64(0)
	if frac != "" {
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, ErrInvalidAmount
		}
		if len(frac) == 1 {
			f *= 10
		}
		cents = f
	}

	return units*100 + cents, nil
}

// FormatAmount renders cents as a two-decimal string: 100000 -> "1000.00".
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Commission computes the platform cut of an amount at the given basis
// points, rounding down. 100000 cents at 500 bps -> 5000 cents.
func Commission(amountCents, bps int64) int64 {
	if amountCents <= 0 || bps <= 0 {
		return 0
	}
	return amountCents * bps / 10000
}
