package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Summary is the per-category breakdown of a period.
type Summary struct {
	Period     Period
	Count      int
	Total      Money
	ByCategory []CategoryAmount // First-seen order
}

// IsEmpty reports a period without transactions.
func (s Summary) IsEmpty() bool {
	return s.Count == 0
}
