package report

import (
	"fmt"
	"time"

	"ledgerbot/internal/core"
)

// PeriodName is a reporting shortcut relative to the current date.
type PeriodName string

const (
	PeriodToday PeriodName = "today"
	PeriodWeek  PeriodName = "week"
	PeriodMonth PeriodName = "month"
)

// ParsePeriodName accepts today, week or month.
func ParsePeriodName(s string) (PeriodName, error) {
	switch n := PeriodName(s); n {
	case PeriodToday, PeriodWeek, PeriodMonth:
		return n, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// Resolve computes the period in the location of now.
func (n PeriodName) Resolve(now time.Time) core.Period {
	switch n {
	case PeriodWeek:
		return core.ThisWeek(now)
	case PeriodMonth:
		return core.ThisMonth(now)
	default:
		return core.Today(now)
	}
}

func (n PeriodName) ListingTitle() string {
	switch n {
	case PeriodWeek:
		return "This Week's Transactions"
	case PeriodMonth:
		return "This Month's Transactions"
	default:
		return "Today's Transactions"
	}
}

func (n PeriodName) SummaryTitle() string {
	switch n {
	case PeriodWeek:
		return "📆 This Week's Expenses"
	case PeriodMonth:
		return "🗓️ This Month's Expenses"
	default:
		return "📅 Today's Expenses"
	}
}
