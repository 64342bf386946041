package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"ledgerbot/internal/core"
)

// NoTransactions is shown instead of an empty table.
const NoTransactions = "No transactions found."

// MaxMessageLength is the Bot API limit for one sendMessage text.
const MaxMessageLength = 4096

const (
	tableRule  = 58
	fenceOpen  = "```\n"
	fenceClose = "\n```"
)

func tableHeader() string {
	return fmt.Sprintf("%-8s| %-7s| %-8s| %-10s| %-10s| %s\n", "Amount", "Type", "Category", "User", "Date", "Desc") +
		strings.Repeat("-", tableRule)
}

func tableRow(tx core.Transaction) string {
	return fmt.Sprintf("%-8s| %-7s| %-8s| %-10s| %-10s| %s",
		tx.Amount,
		tx.Kind,
		tx.Category,
		tx.Author,
		core.DateOf(tx.RecordedAt),
		tx.Description)
}

// RenderTable lays out transactions as fixed-width text for a monospace
// block. Cells longer than their column push the rest of the row right.
func RenderTable(txs []core.Transaction) string {
	if len(txs) == 0 {
		return NoTransactions
	}

	var b strings.Builder
	b.WriteString(tableHeader())
	for _, tx := range txs {
		b.WriteString("\n")
		b.WriteString(tableRow(tx))
	}
	return b.String()
}

// RenderListing renders the table as one or more markdown messages of at
// most limit characters each. The title leads the first message; every
// message repeats the column header inside its own fenced block.
func RenderListing(title string, txs []core.Transaction, limit int) []string {
	lead := fmt.Sprintf("*%s:*\n\n", title)
	if len(txs) == 0 {
		return []string{lead + fenceOpen + NoTransactions + fenceClose}
	}

	var (
		out  []string
		b    strings.Builder
		size int
		rows int
	)
	write := func(s string) {
		b.WriteString(s)
		size += utf8.RuneCountInString(s)
	}
	open := func(prefix string) {
		b.Reset()
		size, rows = 0, 0
		write(prefix)
		write(fenceOpen)
		write(tableHeader())
	}
	closeFence := utf8.RuneCountInString(fenceClose)

	open(lead)
	for _, tx := range txs {
		line := "\n" + tableRow(tx)
		n := utf8.RuneCountInString(line)
		if rows > 0 && size+n+closeFence > limit {
			write(fenceClose)
			out = append(out, b.String())
			open("")
		}
		if room := limit - size - closeFence; n > room {
			line = truncate(line, room)
		}
		write(line)
		rows++
	}
	write(fenceClose)
	return append(out, b.String())
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// RenderSummary formats per-category totals and the grand total.
func (e *Engine) RenderSummary(title string, s core.Summary) string {
	if s.IsEmpty() {
		return title + "\n\n" + NoTransactions
	}

	lines := make([]string, 0, len(s.ByCategory)+2)
	lines = append(lines, title+"\n")
	for _, c := range s.ByCategory {
		lines = append(lines, fmt.Sprintf("• %s: %s%s", c.Name, e.currency, c.Amount))
	}
	lines = append(lines, fmt.Sprintf("\n💰 Total: %s%s", e.currency, s.Total))
	return strings.Join(lines, "\n")
}
