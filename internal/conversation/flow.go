package conversation

import (
	"fmt"

	"ledgerbot/internal/core"
)

// Flow decides how the kind of a transaction is obtained.
type Flow interface {
	Name() string
	// FixedKind returns the kind to use without asking, or false when the
	// user has to choose one.
	FixedKind() (core.Kind, bool)
}

// FullFlow asks the user whether the amount is income or expense.
type FullFlow struct{}

func (FullFlow) Name() string                 { return "full" }
func (FullFlow) FixedKind() (core.Kind, bool) { return "", false }

// ExpenseOnlyFlow records every transaction as an expense.
type ExpenseOnlyFlow struct{}

func (ExpenseOnlyFlow) Name() string                 { return "expense_only" }
func (ExpenseOnlyFlow) FixedKind() (core.Kind, bool) { return core.Expense, true }

// ParseFlow maps the FLOW_VARIANT setting to a strategy.
func ParseFlow(name string) (Flow, error) {
	switch name {
	case "full":
		return FullFlow{}, nil
	case "expense_only", "":
		return ExpenseOnlyFlow{}, nil
	default:
		return nil, fmt.Errorf("unknown flow variant %q", name)
	}
}
