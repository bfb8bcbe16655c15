// Package postgres implements the store driver on PostgreSQL for
// deployments that already run one.
package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/arozco/mesero/internal/profile"
	"github.com/arozco/mesero/order"
	"github.com/arozco/mesero/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS confirmed_order (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	total NUMERIC(12, 2) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_confirmed_order_session ON confirmed_order (session_id);
CREATE TABLE IF NOT EXISTS confirmed_order_line (
	order_id TEXT NOT NULL REFERENCES confirmed_order (id),
	name TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	unit_price NUMERIC(12, 2) NOT NULL,
	subtotal NUMERIC(12, 2) NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_confirmed_order_line_order ON confirmed_order_line (order_id);
`

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL connection with the profile's DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}
	sqldb, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres db")
	}
	if err := sqldb.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping postgres db")
	}
	return &DB{db: sqldb, profile: profile}, nil
}

func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "migrate postgres schema")
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
		"INSERT INTO confirmed_order (id, session_id, total, created_at) VALUES ($1, $2, $3, $4)",
		confirmed.ID, confirmed.SessionID, confirmed.Total.String(), confirmed.CreatedAt,
	); err != nil {
		return errors.Wrap(err, "insert confirmed order")
	}
	for _, line := range confirmed.Lines {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO confirmed_order_line (order_id, name, quantity, unit_price, subtotal) VALUES ($1, $2, $3, $4, $5)",
			confirmed.ID, line.Name, line.Quantity, line.UnitPrice.String(), line.Subtotal.String(),
		); err != nil {
			return errors.Wrapf(err, "insert order line %q", line.Name)
		}
	}
	return tx.Commit()
}

func (d *DB) ListConfirmedOrders(ctx context.Context, find *store.FindConfirmedOrder) ([]*order.ConfirmedOrder, error) {
	query := "SELECT id, session_id, total, created_at FROM confirmed_order"
	var args []any
	if find != nil && find.SessionID != nil {
		args = append(args, *find.SessionID)
		query += " WHERE session_id = $1"
	}
	query += " ORDER BY created_at DESC"
	if find != nil && find.Limit != nil {
		args = append(args, *find.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list confirmed orders")
	}
	defer rows.Close()

	var orders []*order.ConfirmedOrder
	for rows.Next() {
		var confirmed order.ConfirmedOrder
		var total string
		var createdAt time.Time
		if err := rows.Scan(&confirmed.ID, &confirmed.SessionID, &total, &createdAt); err != nil {
			return nil, errors.Wrap(err, "scan confirmed order")
		}
		if confirmed.Total, err = decimal.NewFromString(total); err != nil {
			return nil, errors.Wrapf(err, "parse total %q", total)
		}
		confirmed.CreatedAt = createdAt.UTC()
		orders = append(orders, &confirmed)
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

func (d *DB) loadLines(ctx context.Context, confirmed *order.ConfirmedOrder) error {
	rows, err := d.db.QueryContext(ctx,
		"SELECT name, quantity, unit_price, subtotal FROM confirmed_order_line WHERE order_id = $1 ORDER BY name",
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
