package utils

import (
	"regexp"
	"strconv"
	"strings"
)

// "Rs." and "INR" prefixes would otherwise leave a stray '.' in front of the digits.
var currencyPrefix = regexp.MustCompile(`(?i)\b(?:rs\.?|inr)\s*`)

// ParseAmount strips currency and grouping characters from raw and parses
// what is left. ok is false when the cleaned value was empty or unparseable,
// in which case the amount is 0.
func ParseAmount(raw string) (amount float64, ok bool) {
	s := currencyPrefix.ReplaceAllString(raw, "")

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}

	clean := b.String()
	if clean == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NormalizeAmount is ParseAmount without the defaulted flag.
func NormalizeAmount(raw string) float64 {
	v, _ := ParseAmount(raw)
	return v
}
