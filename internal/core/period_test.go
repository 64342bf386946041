package core

import (
	"testing"
	"time"
)

func TestPeriods(t *testing.T) {
	// 2025-06-18 is a Wednesday.
	now := time.Date(2025, 6, 18, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		period    Period
		wantStart string
		wantEnd   string
	}{
		{"today", Today(now), "2025-06-18", "2025-06-18"},
		{"this week", ThisWeek(now), "2025-06-16", "2025-06-18"},
		{"this month", ThisMonth(now), "2025-06-01", "2025-06-18"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.period.Start.String(); got != tt.wantStart {
				t.Errorf("start = %s, want %s", got, tt.wantStart)
			}
			if got := tt.period.End.String(); got != tt.wantEnd {
				t.Errorf("end = %s, want %s", got, tt.wantEnd)
			}
		})
	}
}

func TestThisWeekOnMondayAndSunday(t *testing.T) {
	monday := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	p := ThisWeek(monday)
	if p.Start.String() != "2025-06-16" || p.End.String() != "2025-06-16" {
		t.Fatalf("monday week = %s..%s", p.Start, p.End)
	}
	if !p.Contains(monday) {
		t.Fatalf("record stamped exactly on monday midnight must be included")
	}

	sunday := time.Date(2025, 6, 22, 23, 0, 0, 0, time.UTC)
	p = ThisWeek(sunday)
	if p.Start.String() != "2025-06-16" {
		t.Fatalf("sunday week starts %s, want 2025-06-16", p.Start)
	}
}

func TestThisMonthOnFirstExcludesPreviousMonth(t *testing.T) {
	first := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	p := ThisMonth(first)
	if p.Start.String() != "2025-07-01" || p.End.String() != "2025-07-01" {
		t.Fatalf("month = %s..%s", p.Start, p.End)
	}
	lastOfJune := time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC)
	if p.Contains(lastOfJune) {
		t.Fatalf("last day of previous month must be excluded")
	}
	if !p.Contains(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("first of month midnight must be included")
	}
}

func TestPeriodBoundsAreHalfOpen(t *testing.T) {
	p := Today(time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC))
	from, to := p.Bounds()
	if !from.Equal(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from = %v", from)
	}
	if !to.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("to = %v", to)
	}
	if p.Contains(to) {
		t.Fatalf("upper bound must be exclusive")
	}
}

func TestCatalog(t *testing.T) {
	c := DefaultCatalog()
	if err := c.Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
	exp, err := c.Categories(Expense)
	if err != nil || exp[0] != "Food" || len(exp) != 7 {
		t.Fatalf("unexpected expense categories %v (err=%v)", exp, err)
	}
	exp[0] = "mutated"
	if again, _ := c.Categories(Expense); again[0] != "Food" {
		t.Fatalf("Categories must return a copy")
	}
	if _, err := c.Categories("gift"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if !c.Contains(Income, "Salary") || c.Contains(Income, "Food") {
		t.Fatalf("Contains mismatch")
	}

	bad := Catalog{Income: {"A", "A"}, Expense: {"B"}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if err := (Catalog{Income: {"A"}}).Validate(); err == nil {
		t.Fatalf("expected empty expense list error")
	}
}
