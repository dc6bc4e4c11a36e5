package sheets

import (
	"context"

	"github.com/LuizHUlmi/life-planner-sub000/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// LedgerAppender writes one transaction as a spreadsheet row.
	LedgerAppender interface {
		Append(ctx context.Context, tx core.LedgerTransaction) (rowRef string, err error)
	}

	// LedgerRowDeleter removes the row previously written for a transaction ID.
	LedgerRowDeleter interface {
		DeleteRow(ctx context.Context, id string) error
	}
)
