package order

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// MaxQuantity caps how many units of one item a single line may hold.
const MaxQuantity = 100

// Informational signals. These mark no-op outcomes (confirming an empty
// ledger, removing an item that was never ordered); callers render them as
// messages, they are never fatal.
var (
	ErrEmptyLedger     = errors.New("order: ledger is empty")
	ErrNotInOrder      = errors.New("order: item not in order")
	ErrInvalidQuantity = errors.New("order: quantity must be positive")
)

// NotFoundError reports an unresolvable item phrase. When the resolver
// produced near-miss candidates they ride along so the user can disambiguate.
type NotFoundError struct {
	Phrase      string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("order: no item matches %q", e.Phrase)
	}
	return fmt.Sprintf("order: no item matches %q (did you mean: %s)", e.Phrase, strings.Join(e.Suggestions, ", "))
}

// CapacityError reports a quantity above MaxQuantity.
type CapacityError struct {
	Quantity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("order: quantity %d exceeds the limit of %d per item", e.Quantity, MaxQuantity)
}

// PolicyError reports an item whose category is outside the permitted
// allow-list for this ledger.
type PolicyError struct {
	Item     string
	Category string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("order: %q (category %s) cannot be ordered here", e.Item, e.Category)
}
