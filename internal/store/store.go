// Package store is the relational persistence layer: products (the inventory
// ledger), orders with their line items, carts, and the append-only order
// status history.
//
// WAL mode is enabled on Open so that readers never block writers and vice
// versa, since the HTTP handlers read (order listings, cart contents) while order
// placement and confirmation write.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oribuyin/backend/internal/domain"

	// Register the pure-Go SQLite driver.
	// modernc.org/sqlite avoids CGO, keeping Docker (Alpine) builds simple.
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup. Idempotent via IF NOT EXISTS.
//
// Decimal amounts (price, discount, total_amount, price_at_order_time) are
// stored as canonical decimal TEXT, never as REAL: currency must round-trip
// exactly. Timestamps are RFC3339 TEXT (SQLite idiom).
const schema = `
CREATE TABLE IF NOT EXISTS products (
    id             TEXT PRIMARY KEY,
    name           TEXT    NOT NULL,
    description    TEXT    NOT NULL DEFAULT '',
    price          TEXT    NOT NULL,
    discount       TEXT    NOT NULL DEFAULT '0',
    -- stock floor: no committed transaction may leave stock negative
    stock_quantity INTEGER NOT NULL CHECK (stock_quantity >= 0),
    image          TEXT    NOT NULL DEFAULT '',
    created_at     TEXT    NOT NULL,
    updated_at     TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
    id               TEXT PRIMARY KEY,
    user_id          TEXT NOT NULL,
    order_date       TEXT NOT NULL,
    status           TEXT NOT NULL,
    total_amount     TEXT NOT NULL,
    shipping_address TEXT NOT NULL,
    payment_method   TEXT NOT NULL,
    payment_status   TEXT NOT NULL,
    created_at       TEXT NOT NULL,
    updated_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id, created_at);

CREATE TABLE IF NOT EXISTS order_items (
    id                  TEXT PRIMARY KEY,
    order_id            TEXT    NOT NULL REFERENCES orders(id),
    product_id          TEXT    NOT NULL REFERENCES products(id),
    quantity            INTEGER NOT NULL CHECK (quantity > 0),
    -- immutable unit-price snapshot taken when the order was built
    price_at_order_time TEXT    NOT NULL,
    created_at          TEXT    NOT NULL,
    updated_at          TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);

CREATE TABLE IF NOT EXISTS carts (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cart_items (
    id         TEXT    NOT NULL PRIMARY KEY,
    cart_id    TEXT    NOT NULL REFERENCES carts(id),
    product_id TEXT    NOT NULL REFERENCES products(id),
    quantity   INTEGER NOT NULL CHECK (quantity > 0),
    created_at TEXT    NOT NULL,
    updated_at TEXT    NOT NULL,
    UNIQUE (cart_id, product_id)
);

CREATE TABLE IF NOT EXISTS reviews (
    id         TEXT    PRIMARY KEY,
    user_id    TEXT    NOT NULL,
    product_id TEXT    NOT NULL REFERENCES products(id),
    rating     INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
    comment    TEXT    NOT NULL DEFAULT '',
    created_at TEXT    NOT NULL,
    updated_at TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reviews_product_id ON reviews(product_id);

-- Append-only audit trail of status transitions. trace_id is the W3C trace
-- that was active when the transition committed, so a history row can be
-- joined with the distributed trace in Grafana/Tempo.
CREATE TABLE IF NOT EXISTS order_status_history (
    id          TEXT PRIMARY KEY,
    order_id    TEXT NOT NULL REFERENCES orders(id),
    from_status TEXT NOT NULL DEFAULT '',
    to_status   TEXT NOT NULL,
    trace_id    TEXT NOT NULL DEFAULT '',
    changed_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_status_history_order_id
    ON order_status_history(order_id, changed_at);
`

// Store wraps the SQLite handle and exposes typed queries over the schema.
type Store struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx so read helpers can run
// inside or outside a transaction. Writes that belong to an atomic unit take
// an explicit *sql.Tx instead: the transaction handle is always passed down,
// never ambient.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (or creates) the SQLite database at the given path and applies
// the schema.
//
//	st, err := store.Open("./data/oribuyin.db")
func Open(path string) (*Store, error) {
	// WAL enables concurrent readers. foreign_keys=on enforces the
	// order→item and cart→item references. busy_timeout waits for locks
	// instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	// "sqlite", not "sqlite3", for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection; this also
	// serialises conflicting confirmations so the guarded stock decrement
	// behaves like a row lock.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (s *Store) Close() error {
	return s.db.Close()
}

// WithinTx runs fn inside a single transaction: the atomic unit of the order
// writer and the status state machine. If fn returns an error the transaction
// is rolled back and the error is returned unchanged; commit failures are
// wrapped as persistence errors.
func (s *Store) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrPersistence, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: commit: %v", domain.ErrPersistence, err)
	}
	return nil
}
