package order

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arozco/mesero/catalog"
)

type memSink struct {
	orders []*ConfirmedOrder
	err    error
}

func (s *memSink) Append(_ context.Context, confirmed *ConfirmedOrder) error {
	if s.err != nil {
		return s.err
	}
	s.orders = append(s.orders, confirmed)
	return nil
}

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	items := []catalog.Item{
		{Name: "pancakes", Category: "breakfast", Price: decimal.RequireFromString("8.99"), ServingSize: "3 pieces"},
		{Name: "burger", Category: "lunch", Price: decimal.RequireFromString("9.50"), ServingSize: "1 plate"},
		{Name: "french fries", Category: "side", Price: decimal.RequireFromString("3.00"), ServingSize: "1 basket"},
		{Name: "coffee", Category: "beverage", Price: decimal.RequireFromString("2.50"), ServingSize: "12 oz"},
	}
	c, err := catalog.New(items)
	require.NoError(t, err)
	return c
}

func TestLedgerAdd(t *testing.T) {
	l := NewLedger(newTestCatalog(t))

	res, err := l.Add("pancakes", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Line.Quantity)
	assert.Equal(t, "17.98", res.Total.StringFixed(2))

	// Adding the same item accumulates on one line.
	res, err = l.Add("pancakes", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Line.Quantity)
	assert.Equal(t, 1, l.Len())
}

func TestLedgerAddFuzzyPhrase(t *testing.T) {
	l := NewLedger(newTestCatalog(t))

	res, err := l.Add("fries", 1)
	require.NoError(t, err)
	assert.Equal(t, "french fries", res.Line.Item.Name)
}

func TestLedgerAddUnknown(t *testing.T) {
	l := NewLedger(newTestCatalog(t))

	_, err := l.Add("dragonfruit", 1)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "dragonfruit", notFound.Phrase)
	assert.Equal(t, 0, l.Len())
}

func TestLedgerAddInvalidQuantity(t *testing.T) {
	l := NewLedger(newTestCatalog(t))

	_, err := l.Add("pancakes", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = l.Add("pancakes", -3)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, 0, l.Len())
}

func TestLedgerAddCapacity(t *testing.T) {
	l := NewLedger(newTestCatalog(t))

	// Oversized in one shot: rejected before resolution, nothing changes.
	_, err := l.Add("pancakes", MaxQuantity+1)
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, MaxQuantity+1, capErr.Quantity)
	assert.Equal(t, 0, l.Len())

	// Oversized combined: the existing line must stay untouched.
	_, err = l.Add("pancakes", 60)
	require.NoError(t, err)
	_, err = l.Add("pancakes", 50)
	require.ErrorAs(t, err, &capErr)
	snapshot := l.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, 60, snapshot[0].Quantity)
}

func TestLedgerAddPolicy(t *testing.T) {
	l := NewLedger(newTestCatalog(t), WithAllowedCategories([]string{"breakfast", "lunch"}))

	_, err := l.Add("coffee", 1)
	var policyErr *PolicyError
	require.ErrorAs(t, err, &policyErr)
	assert.Equal(t, "coffee", policyErr.Item)
	assert.Equal(t, 0, l.Len())

	_, err = l.Add("pancakes", 1)
	assert.NoError(t, err)
}

func TestLedgerRemove(t *testing.T) {
	l := NewLedger(newTestCatalog(t))
	_, err := l.Add("pancakes", 2)
	require.NoError(t, err)
	_, err = l.Add("coffee", 1)
	require.NoError(t, err)

	// Removal matches ledger keys, plural and all.
	res, err := l.Remove("pancake")
	require.NoError(t, err)
	assert.Equal(t, "pancakes", res.Line.Item.Name)
	assert.Equal(t, 2, res.Line.Quantity)
	assert.Equal(t, "2.50", res.Total.StringFixed(2))

	_, err = l.Remove("burger")
	assert.ErrorIs(t, err, ErrNotInOrder)
}

func TestLedgerModify(t *testing.T) {
	l := NewLedger(newTestCatalog(t))
	_, err := l.Add("pancakes", 2)
	require.NoError(t, err)

	res, err := l.Modify("pancakes", 5)
	require.NoError(t, err)
	assert.False(t, res.Removed)
	assert.Equal(t, 5, res.Line.Quantity)
	assert.Equal(t, "44.95", res.Total.StringFixed(2))

	// Modify to zero is defined as remove.
	res, err = l.Modify("pancakes", 0)
	require.NoError(t, err)
	assert.True(t, res.Removed)
	assert.Equal(t, 0, l.Len())

	_, err = l.Modify("pancakes", 2)
	assert.ErrorIs(t, err, ErrNotInOrder)

	_, err = l.Modify("pancakes", MaxQuantity+1)
	var capErr *CapacityError
	assert.ErrorAs(t, err, &capErr)
}

func TestLedgerTotalIsRecomputed(t *testing.T) {
	l := NewLedger(newTestCatalog(t))
	_, err := l.Add("pancakes", 2)
	require.NoError(t, err)
	_, err = l.Add("coffee", 3)
	require.NoError(t, err)

	want := decimal.Zero
	for _, line := range l.Snapshot() {
		want = want.Add(line.Subtotal())
	}
	assert.True(t, l.Total().Equal(want))
}

func TestLedgerConfirm(t *testing.T) {
	sink := &memSink{}
	l := NewLedger(newTestCatalog(t), WithSession("sess-1"))
	_, err := l.Add("pancakes", 2)
	require.NoError(t, err)
	_, err = l.Add("coffee", 1)
	require.NoError(t, err)

	res, err := l.Confirm(context.Background(), sink)
	require.NoError(t, err)
	require.Len(t, sink.orders, 1)

	confirmed := res.Order
	assert.NotEmpty(t, confirmed.ID)
	assert.Equal(t, "sess-1", confirmed.SessionID)
	assert.Equal(t, "20.48", confirmed.Total.StringFixed(2))
	require.Len(t, confirmed.Lines, 2)
	assert.Equal(t, "coffee", confirmed.Lines[0].Name)
	assert.Equal(t, "pancakes", confirmed.Lines[1].Name)

	// Confirm clears the ledger; confirming again is an informational no-op.
	assert.Equal(t, 0, l.Len())
	_, err = l.Confirm(context.Background(), sink)
	assert.ErrorIs(t, err, ErrEmptyLedger)
	assert.Len(t, sink.orders, 1)
}

func TestLedgerConfirmEmptyNeverTouchesSink(t *testing.T) {
	sink := &memSink{err: errors.New("sink must not be called")}
	l := NewLedger(newTestCatalog(t))

	_, err := l.Confirm(context.Background(), sink)
	assert.ErrorIs(t, err, ErrEmptyLedger)
}

func TestLedgerConfirmSinkFailureKeepsOrder(t *testing.T) {
	sink := &memSink{err: errors.New("disk full")}
	l := NewLedger(newTestCatalog(t))
	_, err := l.Add("pancakes", 2)
	require.NoError(t, err)

	_, err = l.Confirm(context.Background(), sink)
	require.Error(t, err)
	assert.Equal(t, 1, l.Len(), "a failed append must leave the order intact")

	sink.err = nil
	_, err = l.Confirm(context.Background(), sink)
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())
}

func TestLedgerCancel(t *testing.T) {
	l := NewLedger(newTestCatalog(t))
	_, err := l.Add("pancakes", 2)
	require.NoError(t, err)
	_, err = l.Add("coffee", 1)
	require.NoError(t, err)

	n, err := l.Cancel()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, l.Len())

	_, err = l.Cancel()
	assert.ErrorIs(t, err, ErrEmptyLedger)
}
