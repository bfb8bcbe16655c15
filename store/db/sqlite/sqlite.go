// Package sqlite implements the store driver on SQLite. It is the default
// driver: a single-writer append-only log of confirmed orders needs nothing
// more, and it keeps development setup to zero.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/arozco/mesero/internal/profile"
	"github.com/arozco/mesero/order"
	"github.com/arozco/mesero/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS confirmed_order (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	total TEXT NOT NULL,
	created_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_confirmed_order_session ON confirmed_order (session_id);
CREATE TABLE IF NOT EXISTS confirmed_order_line (
	order_id TEXT NOT NULL REFERENCES confirmed_order (id),
	name TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	unit_price TEXT NOT NULL,
	subtotal TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_confirmed_order_line_order ON confirmed_order_line (order_id);
`

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database at the profile's DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}
	sqldb, err := sql.Open("sqlite", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite db %s", profile.DSN)
	}
	// SQLite allows one writer; more connections just queue on the lock.
	sqldb.SetMaxOpenConns(1)
	return &DB{db: sqldb, profile: profile}, nil
}

func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "migrate sqlite schema")
	}
	return nil
}

func (d *DB) CreateConfirmedOrder(ctx context.Context, confirmed *order.ConfirmedOrder) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO confirmed_order (id, session_id, total, created_ts) VALUES (?, ?, ?, ?)",
		confirmed.ID, confirmed.SessionID, confirmed.Total.String(), confirmed.CreatedAt.Unix(),
	); err != nil {
		return errors.Wrap(err, "insert confirmed order")
	}
	for _, line := range confirmed.Lines {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO confirmed_order_line (order_id, name, quantity, unit_price, subtotal) VALUES (?, ?, ?, ?, ?)",
			confirmed.ID, line.Name, line.Quantity, line.UnitPrice.String(), line.Subtotal.String(),
		); err != nil {
			return errors.Wrapf(err, "insert order line %q", line.Name)
		}
	}
	return tx.Commit()
}

func (d *DB) ListConfirmedOrders(ctx context.Context, find *store.FindConfirmedOrder) ([]*order.ConfirmedOrder, error) {
	query := "SELECT id, session_id, total, created_ts FROM confirmed_order"
	var args []any
	if find != nil && find.SessionID != nil {
		query += " WHERE session_id = ?"
		args = append(args, *find.SessionID)
	}
	query += " ORDER BY created_ts DESC"
	if find != nil && find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list confirmed orders")
	}
	defer rows.Close()

	var orders []*order.ConfirmedOrder
	for rows.Next() {
		confirmed, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, confirmed)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate confirmed orders")
	}

	for _, confirmed := range orders {
		if err := d.loadLines(ctx, confirmed); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func scanOrder(rows *sql.Rows) (*order.ConfirmedOrder, error) {
	var confirmed order.ConfirmedOrder
	var total string
	var createdTS int64
	if err := rows.Scan(&confirmed.ID, &confirmed.SessionID, &total, &createdTS); err != nil {
		return nil, errors.Wrap(err, "scan confirmed order")
	}
	parsed, err := decimal.NewFromString(total)
	if err != nil {
		return nil, errors.Wrapf(err, "parse total %q", total)
	}
	confirmed.Total = parsed
	confirmed.CreatedAt = time.Unix(createdTS, 0).UTC()
	return &confirmed, nil
}

func (d *DB) loadLines(ctx context.Context, confirmed *order.ConfirmedOrder) error {
	rows, err := d.db.QueryContext(ctx,
		"SELECT name, quantity, unit_price, subtotal FROM confirmed_order_line WHERE order_id = ? ORDER BY name",
		confirmed.ID,
	)
	if err != nil {
		return errors.Wrapf(err, "list lines of order %s", confirmed.ID)
	}
	defer rows.Close()

	for rows.Next() {
		var line order.ConfirmedLine
		var unitPrice, subtotal string
		if err := rows.Scan(&line.Name, &line.Quantity, &unitPrice, &subtotal); err != nil {
			return errors.Wrap(err, "scan order line")
		}
		if line.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return errors.Wrapf(err, "parse unit price %q", unitPrice)
		}
		if line.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return errors.Wrapf(err, "parse subtotal %q", subtotal)
		}
		confirmed.Lines = append(confirmed.Lines, line)
	}
	return errors.Wrap(rows.Err(), "iterate order lines")
}

func (d *DB) Close() error {
	return d.db.Close()
}
