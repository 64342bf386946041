package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger"
)

type fakeReader struct {
	txs    []core.Transaction
	err    error
	period core.Period
}

func (f *fakeReader) QueryRange(_ context.Context, p core.Period) ([]core.Transaction, error) {
	f.period = p
	return f.txs, f.err
}

func tx(amount, category string) core.Transaction {
	m, err := core.ParseMoney(amount)
	if err != nil {
		panic(err)
	}
	return core.Transaction{
		Amount:     m,
		Kind:       core.Expense,
		Category:   category,
		Author:     "alice",
		RecordedAt: time.Date(2025, 6, 18, 10, 0, 0, 0, time.Local),
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		txs   []core.Transaction
		want  map[string]string
		order []string
		total string
	}{
		{
			name:  "groups by category",
			txs:   []core.Transaction{tx("100", "Food"), tx("30", "Travel"), tx("50", "Food")},
			want:  map[string]string{"Food": "150.00", "Travel": "30.00"},
			order: []string{"Food", "Travel"},
			total: "180.00",
		},
		{
			name:  "exact decimal addition",
			txs:   []core.Transaction{tx("0.1", "Food"), tx("0.2", "Food")},
			want:  map[string]string{"Food": "0.30"},
			order: []string{"Food"},
			total: "0.30",
		},
		{
			name:  "labels are not normalized",
			txs:   []core.Transaction{tx("1", "food"), tx("2", "Food")},
			want:  map[string]string{"food": "1.00", "Food": "2.00"},
			order: []string{"food", "Food"},
			total: "3.00",
		},
		{
			name:  "empty",
			want:  map[string]string{},
			total: "0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Aggregate(core.Period{}, tt.txs)
			if s.Count != len(tt.txs) {
				t.Fatalf("Count = %d", s.Count)
			}
			if len(s.ByCategory) != len(tt.want) {
				t.Fatalf("got %d categories, want %d", len(s.ByCategory), len(tt.want))
			}
			for i, c := range s.ByCategory {
				if c.Name != tt.order[i] {
					t.Errorf("category %d = %s, want %s", i, c.Name, tt.order[i])
				}
				if got := c.Amount.String(); got != tt.want[c.Name] {
					t.Errorf("%s = %s, want %s", c.Name, got, tt.want[c.Name])
				}
			}
			if got := s.Total.String(); got != tt.total {
				t.Errorf("Total = %s, want %s", got, tt.total)
			}
		})
	}
}

func TestRenderTable(t *testing.T) {
	if got := RenderTable(nil); got != NoTransactions {
		t.Fatalf("empty table = %q, want %q", got, NoTransactions)
	}

	food := tx("100", "Food")
	food.Description = "lunch"
	out := RenderTable([]core.Transaction{food})
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header, rule and one row, got %q", out)
	}
	if !strings.HasPrefix(lines[0], "Amount  | Type   | Category| User") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != strings.Repeat("-", 58) {
		t.Errorf("unexpected rule %q", lines[1])
	}
	want := "100.00  | expense| Food    | alice     | 2025-06-18| lunch"
	if lines[2] != want {
		t.Errorf("row = %q\nwant  %q", lines[2], want)
	}
}

func TestRenderListingSplitsLongTables(t *testing.T) {
	txs := make([]core.Transaction, 70)
	for i := range txs {
		txs[i] = tx("1234.56", "Groceries")
		txs[i].Description = "weekly shop at the market"
	}

	parts := RenderListing(PeriodMonth.ListingTitle(), txs, MaxMessageLength)
	if len(parts) < 2 {
		t.Fatalf("expected the listing to be split, got %d message(s)", len(parts))
	}
	if !strings.HasPrefix(parts[0], "*This Month's Transactions:*\n\n```\n") {
		t.Fatalf("first message must carry the title, got %q", parts[0][:40])
	}

	rows := 0
	for i, p := range parts {
		if n := utf8.RuneCountInString(p); n > MaxMessageLength {
			t.Fatalf("message %d has %d characters", i, n)
		}
		if i > 0 && !strings.HasPrefix(p, "```\nAmount") {
			t.Fatalf("message %d must open its own block with the header, got %q", i, p[:20])
		}
		if !strings.HasSuffix(p, "\n```") {
			t.Fatalf("message %d is not closed", i)
		}
		rows += strings.Count(p, "| Groceries")
	}
	if rows != len(txs) {
		t.Fatalf("rendered %d rows, want %d", rows, len(txs))
	}
}

func TestRenderListingTruncatesOversizedRow(t *testing.T) {
	long := tx("1", "Food")
	long.Description = strings.Repeat("x", 500)

	parts := RenderListing("Today's Transactions", []core.Transaction{long, tx("2", "Travel")}, 300)
	if len(parts) != 2 {
		t.Fatalf("got %d messages, want 2", len(parts))
	}
	for i, p := range parts {
		if n := utf8.RuneCountInString(p); n > 300 {
			t.Fatalf("message %d has %d characters", i, n)
		}
	}
	if !strings.Contains(parts[0], "…\n```") || !strings.Contains(parts[1], "| Travel") {
		t.Fatalf("unexpected split %q", parts)
	}
}

func TestRenderSummary(t *testing.T) {
	e := NewEngine(&fakeReader{}, "₹")
	s := Aggregate(core.Period{}, []core.Transaction{tx("100", "Food"), tx("50", "Food"), tx("30", "Travel")})

	want := "📅 Today's Expenses\n\n• Food: ₹150.00\n• Travel: ₹30.00\n\n💰 Total: ₹180.00"
	if got := e.RenderSummary(PeriodToday.SummaryTitle(), s); got != want {
		t.Fatalf("summary =\n%q\nwant\n%q", got, want)
	}

	empty := e.RenderSummary("📅 Today's Expenses", core.Summary{})
	if empty != "📅 Today's Expenses\n\nNo transactions found." {
		t.Fatalf("empty summary = %q", empty)
	}
}

func TestEngineListingResolvesPeriod(t *testing.T) {
	// Wednesday
	now := time.Date(2025, 6, 18, 15, 0, 0, 0, time.Local)
	reader := &fakeReader{}
	e := NewEngine(reader, "$", WithClock(func() time.Time { return now }))

	parts, err := e.Listing(context.Background(), PeriodWeek)
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 1 {
		t.Fatalf("empty listing split into %d messages", len(parts))
	}
	out := parts[0]
	if reader.period.Start.String() != "2025-06-16" || reader.period.End.String() != "2025-06-18" {
		t.Fatalf("queried %s..%s", reader.period.Start, reader.period.End)
	}
	if !strings.HasPrefix(out, "*This Week's Transactions:*") || !strings.Contains(out, NoTransactions) {
		t.Fatalf("unexpected listing %q", out)
	}
	if strings.Contains(out, "Amount") {
		t.Fatalf("empty listing must not contain a table header")
	}
}

func TestEngineWrapsReadFailures(t *testing.T) {
	e := NewEngine(&fakeReader{err: errors.New("disk I/O error")}, "₹")
	if _, err := e.Summary(context.Background(), PeriodMonth); !errors.Is(err, ledger.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestParsePeriodName(t *testing.T) {
	for _, s := range []string{"today", "week", "month"} {
		if _, err := ParsePeriodName(s); err != nil {
			t.Errorf("%s: %v", s, err)
		}
	}
	if _, err := ParsePeriodName("year"); err == nil {
		t.Errorf("expected error for year")
	}
}
