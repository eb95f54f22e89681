package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12.34", "12.34", true},
		{"12,5", "12.5", true},
		{" 100 ", "100", true},
		{"0.01", "0.01", true},
		{"0", "", false},
		{"-5", "", false},
		{"abc", "", false},
		{"", "", false},
		{"   ", "", false},
		{"1.2.3", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected err: %v", tc.in, err)
			}
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.want)
			}
			continue
		}
		if err == nil {
			t.Fatalf("ParseAmount(%q) expected error", tc.in)
		}
		if !errors.Is(err, ErrInvalidAmount) || !IsValidationError(err) {
			t.Fatalf("ParseAmount(%q) error %v is not an amount validation error", tc.in, err)
		}
	}
}

func TestFormatRupees(t *testing.T) {
	if got := FormatRupees(decimal.RequireFromString("1300")); got != "₹1300.00" {
		t.Fatalf("got %q", got)
	}
	if got := FormatRupees(decimal.RequireFromString("-2.5")); got != "-₹2.50" {
		t.Fatalf("got %q", got)
	}
}
