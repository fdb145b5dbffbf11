package formtest

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidCurrency is returned by ParseCurrency for input without digits.
var ErrInvalidCurrency = errors.New("invalid currency amount")

// FormatCurrency renders an amount the way the application's currency inputs
// do on blur: digits only, dollar sign, thousands separators ("$50,000").
// Cents are dropped. Input without digits yields "".
func FormatCurrency(s string) string {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	digits := strings.TrimLeft(onlyDigits(s), "0")
	if digits == "" {
		if onlyDigits(s) == "" {
			return ""
		}
		digits = "0"
	}
	var b strings.Builder
	b.WriteByte('$')
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatDollars formats a whole-dollar amount, e.g. 125000 -> "$125,000".
func FormatDollars(v int64) string {
	return FormatCurrency(strconv.FormatInt(v, 10))
}

// ParseCurrency returns the whole-dollar value of a formatted amount.
func ParseCurrency(s string) (int64, error) {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	digits := onlyDigits(s)
	if digits == "" {
		return 0, ErrInvalidCurrency
	}
	return strconv.ParseInt(digits, 10, 64)
}

// FormatPhone renders a US number as +1-XXX-XXX-XXXX, matching the
// application's phone input. Numbers that are not 10 digits (or 11 with a
// leading 1) are returned unchanged.
func FormatPhone(s string) string {
	digits := onlyDigits(s)
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return s
	}
	return "+1-" + digits[:3] + "-" + digits[3:6] + "-" + digits[6:]
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
