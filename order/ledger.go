// Package order implements the per-conversation order ledger.
//
// A Ledger maps canonical item names to quantities and is the only mutable
// state in the ordering core. One ledger belongs to exactly one conversation
// and is not safe for concurrent use; the transport layer serializes
// utterances per session.
package order

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/arozco/mesero/catalog"
	"github.com/arozco/mesero/resolver"
)

// Line is one ledger line: a catalog item and its ordered quantity.
// The quantity is always in [1, MaxQuantity]; a line that would drop to zero
// is removed instead.
type Line struct {
	Item     catalog.Item
	Quantity int
}

// Subtotal returns quantity times unit price.
func (l Line) Subtotal() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// AddResult reports a successful add: the affected line at its new quantity
// and the recomputed running total.
type AddResult struct {
	Line  Line
	Total decimal.Decimal
}

// RemoveResult reports a successful removal.
type RemoveResult struct {
	Line  Line // the line as it was before removal
	Total decimal.Decimal
}

// ModifyResult reports a quantity change. Removed is set when the new
// quantity was zero or negative and the line was deleted instead.
type ModifyResult struct {
	Line    Line
	Removed bool
	Total   decimal.Decimal
}

// ConfirmResult carries the persisted snapshot of a confirmed order.
type ConfirmResult struct {
	Order *ConfirmedOrder
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithSession tags the ledger (and its confirmed orders) with a session ID.
func WithSession(id string) Option {
	return func(l *Ledger) { l.session = id }
}

// WithAllowedCategories restricts which catalog categories may be ordered.
// Without this option every catalog category is orderable.
func WithAllowedCategories(categories []string) Option {
	return func(l *Ledger) {
		l.allowed = make(map[string]struct{}, len(categories))
		for _, c := range categories {
			l.allowed[c] = struct{}{}
		}
	}
}

// Ledger is the running order of one conversation. Every key resolves to an
// existing catalog item; the total is always recomputed from the lines and
// never cached.
type Ledger struct {
	catalog *catalog.Catalog
	allowed map[string]struct{} // nil allows all categories
	session string
	lines   map[string]int
}

// NewLedger creates an empty ledger over the shared read-only catalog.
func NewLedger(c *catalog.Catalog, opts ...Option) *Ledger {
	l := &Ledger{
		catalog: c,
		lines:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add resolves the phrase and increments (or inserts) its line.
// The quantity argument is validated before any resolution so an oversized
// request never mutates state, and the combined line quantity is capped the
// same way.
func (l *Ledger) Add(phrase string, quantity int) (*AddResult, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if quantity > MaxQuantity {
		return nil, &CapacityError{Quantity: quantity}
	}

	res := resolver.Resolve(phrase, l.catalog)
	switch res.Kind {
	case resolver.KindNone:
		return nil, &NotFoundError{Phrase: phrase}
	case resolver.KindSuggestion:
		return nil, &NotFoundError{Phrase: phrase, Suggestions: res.Suggestions}
	}
	item := res.Item

	if !l.categoryAllowed(item.Category) {
		return nil, &PolicyError{Item: item.Name, Category: item.Category}
	}

	next := l.lines[item.Name] + quantity
	if next > MaxQuantity {
		return nil, &CapacityError{Quantity: next}
	}
	l.lines[item.Name] = next

	slog.Debug("ledger add", "session", l.session, "item", item.Name, "quantity", next)
	return &AddResult{
		Line:  Line{Item: item, Quantity: next},
		Total: l.Total(),
	}, nil
}

// Remove deletes the line matching the phrase. The lookup runs against the
// current ledger keys only, not the whole catalog: the user is pointing at
// something they already ordered. Returns ErrNotInOrder when nothing matches.
func (l *Ledger) Remove(phrase string) (*RemoveResult, error) {
	name, ok := l.findLine(phrase)
	if !ok {
		return nil, ErrNotInOrder
	}
	item, _ := l.catalog.Get(name)
	removed := Line{Item: item, Quantity: l.lines[name]}
	delete(l.lines, name)

	slog.Debug("ledger remove", "session", l.session, "item", name)
	return &RemoveResult{Line: removed, Total: l.Total()}, nil
}

// Modify sets the line's quantity. A new quantity of zero or less deletes
// the line; modify-to-zero is defined as remove, not an error.
func (l *Ledger) Modify(phrase string, quantity int) (*ModifyResult, error) {
	if quantity > MaxQuantity {
		return nil, &CapacityError{Quantity: quantity}
	}
	name, ok := l.findLine(phrase)
	if !ok {
		return nil, ErrNotInOrder
	}
	item, _ := l.catalog.Get(name)

	if quantity < 1 {
		delete(l.lines, name)
		slog.Debug("ledger modify to zero, removed", "session", l.session, "item", name)
		return &ModifyResult{Line: Line{Item: item}, Removed: true, Total: l.Total()}, nil
	}
	l.lines[name] = quantity

	slog.Debug("ledger modify", "session", l.session, "item", name, "quantity", quantity)
	return &ModifyResult{Line: Line{Item: item, Quantity: quantity}, Total: l.Total()}, nil
}

// Confirm snapshots the ledger, appends the snapshot to the sink and clears
// the ledger only after the append succeeded. A failed append leaves the
// order intact so the user can retry. Confirming an empty ledger is an
// informational no-op: it returns ErrEmptyLedger without touching the sink,
// which also makes back-to-back confirms idempotent.
func (l *Ledger) Confirm(ctx context.Context, sink Sink) (*ConfirmResult, error) {
	if len(l.lines) == 0 {
		return nil, ErrEmptyLedger
	}

	confirmed := &ConfirmedOrder{
		ID:        uuid.NewString(),
		SessionID: l.session,
		Total:     l.Total(),
		CreatedAt: time.Now().UTC(),
	}
	for _, line := range l.Snapshot() {
		confirmed.Lines = append(confirmed.Lines, ConfirmedLine{
			Name:      line.Item.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.Item.Price,
			Subtotal:  line.Subtotal(),
		})
	}

	if err := sink.Append(ctx, confirmed); err != nil {
		return nil, errors.Wrap(err, "append confirmed order")
	}
	l.lines = make(map[string]int)

	slog.Info("order confirmed",
		"session", l.session,
		"order", confirmed.ID,
		"lines", len(confirmed.Lines),
		"total", confirmed.Total.StringFixed(2))
	return &ConfirmResult{Order: confirmed}, nil
}

// Cancel clears the ledger without persisting anything. Cancelling an empty
// ledger is an informational no-op.
func (l *Ledger) Cancel() (int, error) {
	if len(l.lines) == 0 {
		return 0, ErrEmptyLedger
	}
	n := len(l.lines)
	l.lines = make(map[string]int)

	slog.Debug("ledger cancelled", "session", l.session, "lines", n)
	return n, nil
}

// Total recomputes the order total from the current lines.
func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for name, qty := range l.lines {
		item, ok := l.catalog.Get(name)
		if !ok {
			// Every key is inserted via Add, so this cannot happen with a
			// well-formed catalog.
			continue
		}
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}

// Snapshot returns the current lines sorted by item name.
func (l *Ledger) Snapshot() []Line {
	names := make([]string, 0, len(l.lines))
	for name := range l.lines {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]Line, 0, len(names))
	for _, name := range names {
		item, ok := l.catalog.Get(name)
		if !ok {
			continue
		}
		lines = append(lines, Line{Item: item, Quantity: l.lines[name]})
	}
	return lines
}

// Len returns the number of lines.
func (l *Ledger) Len() int {
	return len(l.lines)
}

func (l *Ledger) categoryAllowed(category string) bool {
	if l.allowed == nil {
		return true
	}
	_, ok := l.allowed[category]
	return ok
}

// findLine matches a phrase against the current ledger keys: exact after
// normalization, then the singular form, then containment over the (few)
// keys in sorted order.
func (l *Ledger) findLine(phrase string) (string, bool) {
	norm := resolver.Normalize(phrase)
	if norm == "" {
		return "", false
	}
	if _, ok := l.lines[norm]; ok {
		return norm, true
	}
	if singular := resolver.Singularize(norm); singular != norm {
		if _, ok := l.lines[singular]; ok {
			return singular, true
		}
	}
	names := make([]string, 0, len(l.lines))
	for name := range l.lines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.Contains(name, norm) || strings.Contains(norm, name) {
			return name, true
		}
	}
	return "", false
}
