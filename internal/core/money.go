// Package core provides the ledger domain: money, transactions, the
// category catalog and reporting periods.
//
// This file contains the fixed-point money type and the amount validator
// used by the conversation flow.
package core

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// ErrInvalidFormat reports an amount string that does not match the accepted
// pattern. Callers re-prompt without advancing the conversation.
var ErrInvalidFormat = errors.New("invalid amount format")

// amountPattern accepts one or more ASCII digits optionally followed by a
// point and one or two digits.
var amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// MaxAmount is the largest amount a NUMERIC(10,2) column can hold.
var MaxAmount = MoneyFromCents(9_999_999_999)

// Money is an exact decimal amount with at most two fractional digits.
// Arithmetic never goes through float64.
type Money struct {
	d decimal.Decimal
}

// ValidateAmount parses a raw user-entered amount.
//
// Examples:
//
//	ValidateAmount("100")     -> 100.00, nil
//	ValidateAmount("100.50")  -> 100.50, nil
//	ValidateAmount("100.555") -> ErrInvalidFormat
//	ValidateAmount("-5")      -> ErrInvalidFormat
//
// Whitespace is not trimmed here; the caller decides what to strip.
func ValidateAmount(raw string) (Money, error) {
	if !amountPattern.MatchString(raw) {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return Money{d: d}, nil
}

// ParseMoney reads an amount previously written by String, e.g. from a
// database column. It is less strict than ValidateAmount.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Money{d: d.Round(2)}, nil
}

// MoneyFromCents builds an amount from an integer number of cents.
func MoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -2)}
}

func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

func (m Money) IsZero() bool {
	return m.d.IsZero()
}

// Cents returns the amount in cents.
func (m Money) Cents() int64 {
	return m.d.Shift(2).IntPart()
}

// String formats the amount with exactly two decimals, e.g. "250.00".
func (m Money) String() string {
	return m.d.StringFixed(2)
}

// Validate reports amounts that are not positive or exceed MaxAmount.
func (m Money) Validate() error {
	if !m.d.IsPositive() {
		return ErrInvalidAmount
	}
	if m.d.GreaterThan(MaxAmount.d) {
		return fmt.Errorf("%w: above %s", ErrInvalidAmount, MaxAmount)
	}
	return nil
}
