// Package sqliterepo implements repository.Repository over SQLite via
// modernc.org/sqlite, the pure-Go driver used by the stadam23-Eve-flipper
// example, through database/sql exactly the way the teacher drives
// Postgres through database/sql and lib/pq.
package sqliterepo

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/pinggolf/reorder-engine/internal/repository"
	"github.com/pinggolf/reorder-engine/internal/repository/sqlrepo"
)

// Open opens (creating if absent) the SQLite database at path and wraps it
// in a repository.Repository. Callers should run Migrate before first use.
func Open(path string, limiter *repository.ReadLimiter) (*sqlrepo.Repo, *sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("sqliterepo: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqliterepo: ping %s: %w", path, err)
	}
	return sqlrepo.New(db, placeholder, limiter), db, nil
}

func placeholder(int) string { return "?" }

// Schema is applied by reorderctl migrate / Migrate below; SQLite has no
// BOOLEAN or DOUBLE PRECISION type, storing booleans as 0/1 integers and
// using REAL for floats, both of which database/sql's generic Scan handles
// transparently against the Go types sqlrepo reads into.
const Schema = `
CREATE TABLE IF NOT EXISTS skus (
	sku TEXT PRIMARY KEY,
	description TEXT,
	ean TEXT,
	in_assortment INTEGER,
	department TEXT,
	category TEXT,
	pack_size INTEGER,
	moq INTEGER,
	lead_time_days INTEGER,
	review_period_days INTEGER,
	safety_stock INTEGER,
	max_stock INTEGER,
	reorder_point INTEGER,
	shelf_life_days INTEGER,
	has_expiry_label INTEGER,
	demand_variability TEXT,
	target_csl REAL,
	forecast_method_override TEXT,
	mc_distribution TEXT,
	mc_n_simulations INTEGER,
	mc_random_seed INTEGER,
	oos_popup_preference TEXT
);

CREATE TABLE IF NOT EXISTS transactions (
	date TEXT, sku TEXT, event TEXT, qty INTEGER, receipt_date TEXT, note TEXT
);
CREATE INDEX IF NOT EXISTS idx_transactions_sku ON transactions(sku);

CREATE TABLE IF NOT EXISTS sales (
	date TEXT, sku TEXT, qty_sold INTEGER, promo_flag INTEGER
);
CREATE INDEX IF NOT EXISTS idx_sales_sku ON sales(sku);

CREATE TABLE IF NOT EXISTS promo_calendar (
	sku TEXT, start_date TEXT, end_date TEXT, store_id TEXT
);

CREATE TABLE IF NOT EXISTS event_uplift_rules (
	delivery_date TEXT, scope_type TEXT, scope_key TEXT, reason TEXT, strength REAL, notes TEXT
);

CREATE TABLE IF NOT EXISTS holidays (
	type TEXT, scope TEXT, effect TEXT, date TEXT, start_date TEXT, end_date TEXT, month INTEGER, day INTEGER
);

CREATE TABLE IF NOT EXISTS settings (
	path TEXT PRIMARY KEY, value TEXT, value_type TEXT, auto_apply_to_new_sku INTEGER, description TEXT
);

CREATE TABLE IF NOT EXISTS order_log (
	order_id TEXT PRIMARY KEY, sku TEXT, order_date TEXT, receipt_date TEXT,
	qty_ordered INTEGER, qty_received INTEGER, status TEXT
);
CREATE INDEX IF NOT EXISTS idx_order_log_sku ON order_log(sku);

CREATE TABLE IF NOT EXISTS receiving_log (
	document_id TEXT PRIMARY KEY, sku TEXT, receipt_date TEXT, qty_received INTEGER, order_ids TEXT
);
`

// Migrate applies Schema, idempotently (every statement is IF NOT EXISTS).
func Migrate(db *sql.DB) error {
	_, err := db.Exec(Schema)
	if err != nil {
		return fmt.Errorf("sqliterepo: migrate: %w", err)
	}
	return nil
}
