package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind is the polarity of a transaction.
	Kind string

	Date struct {
		time.Time
	}

	// Transaction is a persisted ledger entry. Once written it is never
	// mutated or deleted.
	Transaction struct {
		ID          int64 // Database ID, zero until persisted
		Amount      Money
		Kind        Kind
		Category    string
		Description string
		Author      string    // Display identity of the submitting user
		RecordedAt  time.Time // Assigned by the repository on insert
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidKind   = errors.New("invalid kind")
	ErrEmptyAuthor   = errors.New("empty author")
	ErrEmptyCategory = errors.New("empty category")
)

// ParseKind accepts "income" or "expense" in any letter case.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Income, Expense:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

func (k Kind) Validate() error {
	if k != Income && k != Expense {
		return fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
	}
	return nil
}

// Title returns the kind with an upper-case first letter, as shown to users.
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

func (k Kind) String() string {
	return string(k)
}

// DateOf truncates t to midnight in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

// AddDays returns the date n calendar days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Validate checks the invariants a transaction must satisfy before it is
// written. Category membership is checked when the user picks it, not here.
func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.Author) == "" {
		return ErrEmptyAuthor
	}
	return nil
}
