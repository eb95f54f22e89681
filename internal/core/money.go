// Package core provides money parsing and handling utilities.
//
// Amounts are shopspring decimals. Parsing accepts both dot (12.34) and
// comma (12,34) separators and rejects anything that is not strictly positive.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Tolerance is the absolute difference under which two amounts are
// considered the same recurring charge.
var Tolerance = decimal.RequireFromString("0.01")

// ParseAmount parses a user-entered amount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("0")     -> error
//	ParseAmount("abc")   -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, amountError("Amount is required")
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, amountError("Amount must be a number")
	}
	if !d.IsPositive() {
		return decimal.Zero, amountError("Amount must be greater than zero")
	}
	return d, nil
}

// FormatAmount renders an amount with two decimals for display.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatRupees renders an amount with the rupee sign used on reports.
func FormatRupees(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-₹" + d.Abs().StringFixed(2)
	}
	return "₹" + d.StringFixed(2)
}

func amountError(msg string) error {
	return &ValidationError{Field: "amount", Message: msg, Err: ErrInvalidAmount}
}
