// Package core holds the domain types shared by the budget engine,
// the storage layer and the HTTP API.
//
// This file contains money parsing and formatting helpers. Amounts are
// stored as int64 cents; floating point enters only at presentation.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot (12.34) and comma
// (12,34) separators are accepted. Negative and zero amounts are
// rejected.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// Euros returns the euro value as a float64 for display purposes.
// Use cents for calculations.
func (m Money) Euros() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with the Italian decimal comma, e.g. "12,34".
func (m Money) String() string {
	sign := ""
	cents := m.Cents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d,%02d", sign, cents/100, cents%100)
}
