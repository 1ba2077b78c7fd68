package rupiah

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders d as "Rp 1.234.567" (",50" appended when there is a fractional part).
func Format(d decimal.Decimal) string {
	return "Rp " + Grouped(d)
}

// Grouped renders d with dot thousands separators and a comma decimal separator.
func Grouped(d decimal.Decimal) string {
	neg := d.IsNegative()
	d = d.Abs()
	whole := d.Truncate(0)
	out := formatGrouping(whole.String())
	if frac := d.Sub(whole); !frac.IsZero() {
		cents := frac.Shift(2).Round(0).IntPart()
		out += "," + twoDigits(cents)
	}
	if neg {
		out = "-" + out
	}
	return out
}

// formatGrouping adds dot separators every 3 digits.
func formatGrouping(ds string) string {
	n := len(ds)
	if n <= 3 {
		return ds
	}
	var parts []string
	for n > 3 {
		parts = append([]string{ds[n-3:]}, parts...)
		ds = ds[:n-3]
		n = len(ds)
	}
	parts = append([]string{ds}, parts...)
	return strings.Join(parts, ".")
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + decimal.NewFromInt(n).String()
	}
	return decimal.NewFromInt(n).String()
}
