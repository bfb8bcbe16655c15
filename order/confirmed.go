package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ConfirmedOrder is the immutable snapshot of a ledger taken at the moment
// of confirmation, handed to the persistence sink before the ledger clears.
type ConfirmedOrder struct {
	ID        string
	SessionID string
	Lines     []ConfirmedLine
	Total     decimal.Decimal
	CreatedAt time.Time
}

// ConfirmedLine is one priced line of a confirmed order.
type ConfirmedLine struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// Sink is the append-only persistence collaborator. Append must either
// durably record the order or return an error; Confirm clears the ledger
// only after Append succeeds.
type Sink interface {
	Append(ctx context.Context, confirmed *ConfirmedOrder) error
}
