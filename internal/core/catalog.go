package core

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKind   = errors.New("no categories for kind")
	ErrEmptyCatalog  = errors.New("empty category list")
	ErrDuplicateItem = errors.New("duplicate category")
)

// Catalog maps each kind to its ordered list of selectable category labels.
// It is fixed at build time; users cannot edit it.
type Catalog map[Kind][]string

// DefaultCatalog returns the categories offered by the bot.
func DefaultCatalog() Catalog {
	return Catalog{
		Income:  {"Salary", "Investment", "Bonus", "Other"},
		Expense: {"Food", "Medical", "Travel", "Groceries", "Entertainment", "Bills", "Other"},
	}
}

// Categories returns a copy of the labels for kind, in display order.
func (c Catalog) Categories(kind Kind) ([]string, error) {
	labels, ok := c[kind]
	if !ok || len(labels) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return append([]string(nil), labels...), nil
}

// Contains reports whether label is offered for kind.
func (c Catalog) Contains(kind Kind, label string) bool {
	for _, l := range c[kind] {
		if l == label {
			return true
		}
	}
	return false
}

// Validate checks that both kinds have a non-empty list of unique labels.
func (c Catalog) Validate() error {
	for _, kind := range []Kind{Income, Expense} {
		labels := c[kind]
		if len(labels) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyCatalog, kind)
		}
		seen := make(map[string]struct{}, len(labels))
		for _, l := range labels {
			if l == "" {
				return fmt.Errorf("%w: %s has a blank label", ErrEmptyCatalog, kind)
			}
			if _, dup := seen[l]; dup {
				return fmt.Errorf("%w: %s/%s", ErrDuplicateItem, kind, l)
			}
			seen[l] = struct{}{}
		}
	}
	return nil
}
