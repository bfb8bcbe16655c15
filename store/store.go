// Package store provides the append-only persistence sink for confirmed
// orders behind a database driver abstraction.
package store

import (
	"context"

	"github.com/arozco/mesero/internal/profile"
	"github.com/arozco/mesero/order"
)

// FindConfirmedOrder filters confirmed-order listings.
type FindConfirmedOrder struct {
	SessionID *string
	Limit     *int
}

// Driver is the database-specific access layer.
type Driver interface {
	Migrate(ctx context.Context) error
	CreateConfirmedOrder(ctx context.Context, confirmed *order.ConfirmedOrder) error
	ListConfirmedOrders(ctx context.Context, find *FindConfirmedOrder) ([]*order.ConfirmedOrder, error)
	Close() error
}

// Store wraps a Driver and satisfies order.Sink. Confirmed orders are only
// ever appended; there is no update or delete path.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

// Migrate creates the schema if needed.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

// Append durably records one confirmed order. This is the order.Sink
// implementation handed to every ledger.
func (s *Store) Append(ctx context.Context, confirmed *order.ConfirmedOrder) error {
	return s.driver.CreateConfirmedOrder(ctx, confirmed)
}

// ListConfirmedOrders returns confirmed orders, newest first.
func (s *Store) ListConfirmedOrders(ctx context.Context, find *FindConfirmedOrder) ([]*order.ConfirmedOrder, error) {
	return s.driver.ListConfirmedOrders(ctx, find)
}

func (s *Store) Close() error {
	return s.driver.Close()
}
