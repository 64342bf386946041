package sheets

import (
	"context"

	"ledgerbot/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionWriter appends one transaction as a spreadsheet row and
	// returns the A1 reference of the written range.
	TransactionWriter interface {
		AppendTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}
)
