package core

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{".5", "0.5", true},
		{"1.005", "1.01", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"0", "", false},
		{"0.001", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	got := FormatAmount(decimal.RequireFromString("1234.5"), "USD")
	if got != "$1,234.50" {
		t.Fatalf("USD: got %q", got)
	}
	inr := FormatAmount(decimal.RequireFromString("250"), "")
	if !strings.Contains(inr, "250.00") {
		t.Fatalf("default currency: got %q", inr)
	}
	if got := FormatAmount(decimal.RequireFromString("3.1"), "ZZZ"); got != "3.10 ZZZ" {
		t.Fatalf("unknown currency: got %q", got)
	}
	if got := FormatAmount(decimal.RequireFromString("1e20"), "INR"); got != "100000000000000000000.00 INR" {
		t.Fatalf("amount beyond minor-unit range: got %q", got)
	}
	if got := FormatAmount(decimal.RequireFromString("92233720368547758.07"), "USD"); got != "$92,233,720,368,547,758.07" {
		t.Fatalf("largest formattable amount: got %q", got)
	}
}

func TestValidCurrency(t *testing.T) {
	for _, code := range []string{"INR", "USD", "EUR"} {
		if !ValidCurrency(code) {
			t.Errorf("%s should be valid", code)
		}
	}
	if ValidCurrency("ZZZ") || ValidCurrency("") {
		t.Error("unknown codes must be rejected")
	}
}

func TestClampedPercent(t *testing.T) {
	cases := []struct {
		part, whole, want string
	}{
		{"25", "100", "25"},
		{"60000", "50000", "100"},
		{"0", "100", "0"},
		{"10", "0", "0"},
		{"-5", "100", "0"},
	}
	for _, tc := range cases {
		got := ClampedPercent(decimal.RequireFromString(tc.part), decimal.RequireFromString(tc.whole))
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("%s/%s expected %s, got %s", tc.part, tc.whole, tc.want, got)
		}
	}
}
