package rupiah

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAccepted(t *testing.T) {
	cases := map[string]string{
		"100000":      "100000",
		"100.000":     "100000",
		"Rp 100.000":  "100000",
		"rp40.000":    "40000",
		"100.000,50":  "100000.5",
		"1,500.25":    "1500.25",
		"40000.5":     "40000.5",
		"  7 500 ":    "7500",
		"+12":         "12",
		"1.234.567":   "1234567",
		"10.000,00":   "10000",
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) err=%v", in, err)
		}
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("Parse(%q)=%s want %s", in, got, want)
		}
	}
}

func TestParseRejected(t *testing.T) {
	for _, in := range []string{"", "abc", "12a", "1.00.0", "1.000,000.5", "Rp", "1..000"} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Parse(%q) expected ErrInvalidAmount got %v", in, err)
		}
	}
	if _, err := Parse("-5000"); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount got %v", err)
	}
}

func TestFormat(t *testing.T) {
	cases := map[string]string{
		"0":         "Rp 0",
		"999":       "Rp 999",
		"60000":     "Rp 60.000",
		"1234567":   "Rp 1.234.567",
		"1500.5":    "Rp 1.500,50",
		"-40000":    "Rp -40.000",
		"100000.05": "Rp 100.000,05",
	}
	for in, want := range cases {
		if got := Format(decimal.RequireFromString(in)); got != want {
			t.Fatalf("Format(%s)=%q want %q", in, got, want)
		}
	}
}
