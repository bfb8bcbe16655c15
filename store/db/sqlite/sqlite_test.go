package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arozco/mesero/internal/profile"
	"github.com/arozco/mesero/order"
	"github.com/arozco/mesero/store"
)

func newTestDB(t *testing.T) store.Driver {
	t.Helper()
	d, err := NewDB(&profile.Profile{
		DSN: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, d.Migrate(context.Background()))
	return d
}

func confirmedOrder(id, session string, created time.Time) *order.ConfirmedOrder {
	return &order.ConfirmedOrder{
		ID:        id,
		SessionID: session,
		Total:     decimal.RequireFromString("20.48"),
		CreatedAt: created,
		Lines: []order.ConfirmedLine{
			{Name: "coffee", Quantity: 1, UnitPrice: decimal.RequireFromString("2.50"), Subtotal: decimal.RequireFromString("2.50")},
			{Name: "pancakes", Quantity: 2, UnitPrice: decimal.RequireFromString("8.99"), Subtotal: decimal.RequireFromString("17.98")},
		},
	}
}

func TestCreateAndListConfirmedOrders(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, d.CreateConfirmedOrder(ctx, confirmedOrder("order-1", "sess-a", now.Add(-time.Minute))))
	require.NoError(t, d.CreateConfirmedOrder(ctx, confirmedOrder("order-2", "sess-b", now)))

	orders, err := d.ListConfirmedOrders(ctx, nil)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	// Newest first.
	assert.Equal(t, "order-2", orders[0].ID)
	assert.Equal(t, "order-1", orders[1].ID)

	got := orders[1]
	assert.Equal(t, "sess-a", got.SessionID)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("20.48")))
	assert.Equal(t, now.Add(-time.Minute), got.CreatedAt)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "coffee", got.Lines[0].Name)
	assert.Equal(t, 2, got.Lines[1].Quantity)
	assert.True(t, got.Lines[1].Subtotal.Equal(decimal.RequireFromString("17.98")))
}

func TestListConfirmedOrdersFilters(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, d.CreateConfirmedOrder(ctx, confirmedOrder("order-1", "sess-a", now.Add(-2*time.Minute))))
	require.NoError(t, d.CreateConfirmedOrder(ctx, confirmedOrder("order-2", "sess-a", now.Add(-time.Minute))))
	require.NoError(t, d.CreateConfirmedOrder(ctx, confirmedOrder("order-3", "sess-b", now)))

	session := "sess-a"
	orders, err := d.ListConfirmedOrders(ctx, &store.FindConfirmedOrder{SessionID: &session})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, "sess-a", o.SessionID)
	}

	limit := 1
	orders, err = d.ListConfirmedOrders(ctx, &store.FindConfirmedOrder{Limit: &limit})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "order-3", orders[0].ID)
}

func TestNewDBRequiresDSN(t *testing.T) {
	_, err := NewDB(&profile.Profile{})
	assert.Error(t, err)
}
