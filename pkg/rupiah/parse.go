// Package rupiah parses and formats rupiah amounts as typed into forms and shown in pages.
package rupiah

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned when the text is not a recognisable amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNegativeAmount is returned for explicitly signed negative input.
	ErrNegativeAmount = errors.New("amount must not be negative")
)

var (
	centsRE   = regexp.MustCompile(`^(.*)[.,](\d{1,2})$`)
	groupedRE = regexp.MustCompile(`^\d{1,3}([.,]\d{3})+$`)
	plainRE   = regexp.MustCompile(`^\d+$`)
)

// Parse normalizes a user-entered amount into a decimal.
// Accepted forms: "100000", "100.000", "Rp 100.000", "100.000,50", "1,500.25", "40000.5".
// A trailing separator followed by one or two digits is the decimal part; every other
// separator must group exactly three digits.
func Parse(s string) (decimal.Decimal, error) {
	t := strings.TrimSpace(s)
	if len(t) >= 2 && strings.EqualFold(t[:2], "rp") {
		t = strings.TrimSpace(t[2:])
	}
	t = strings.ReplaceAll(t, " ", "")
	if t == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(t, "-") {
		return decimal.Zero, ErrNegativeAmount
	}
	t = strings.TrimPrefix(t, "+")

	intPart, frac := t, ""
	if m := centsRE.FindStringSubmatch(t); m != nil {
		intPart, frac = m[1], m[2]
	}
	digits, ok := integerDigits(intPart)
	if !ok {
		return decimal.Zero, ErrInvalidAmount
	}
	if frac != "" {
		digits += "." + frac
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// integerDigits strips thousands separators after checking they are well placed.
func integerDigits(s string) (string, bool) {
	switch {
	case s == "":
		return "0", true
	case plainRE.MatchString(s):
		return s, true
	case groupedRE.MatchString(s):
		// mixed separators in the integer part ("1.000,000") are not grouping
		if strings.Contains(s, ".") && strings.Contains(s, ",") {
			return "", false
		}
		return onlyDigits(s), true
	}
	return "", false
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
