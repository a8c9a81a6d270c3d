// Package pgrepo implements repository.Repository over Postgres via
// github.com/lib/pq, the teacher's own driver, through database/sql,
// for deployments that already run the ledger in Postgres alongside the
// rest of the M3-planning stack. Schema mirrors sqliterepo's.
package pgrepo

import (
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/lib/pq"

	"github.com/pinggolf/reorder-engine/internal/repository"
	"github.com/pinggolf/reorder-engine/internal/repository/sqlrepo"
)

// Open opens the Postgres connection named by databaseURL (a
// "postgres://..." DSN, the same shape the teacher's config.DatabaseURL
// takes) and wraps it in a repository.Repository.
func Open(databaseURL string, limiter *repository.ReadLimiter) (*sqlrepo.Repo, *sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("pgrepo: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("pgrepo: ping: %w", err)
	}
	return sqlrepo.New(db, placeholder, limiter), db, nil
}

func placeholder(n int) string { return "$" + strconv.Itoa(n) }

// Schema mirrors sqliterepo.Schema with Postgres-native types.
const Schema = `
CREATE TABLE IF NOT EXISTS skus (
	sku TEXT PRIMARY KEY,
	description TEXT,
	ean TEXT,
	in_assortment BOOLEAN,
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
	has_expiry_label BOOLEAN,
	demand_variability TEXT,
	target_csl DOUBLE PRECISION,
	forecast_method_override TEXT,
	mc_distribution TEXT,
	mc_n_simulations INTEGER,
	mc_random_seed BIGINT,
	oos_popup_preference TEXT
);

CREATE TABLE IF NOT EXISTS transactions (
	date DATE, sku TEXT, event TEXT, qty INTEGER, receipt_date DATE, note TEXT
);
CREATE INDEX IF NOT EXISTS idx_transactions_sku ON transactions(sku);

CREATE TABLE IF NOT EXISTS sales (
	date DATE, sku TEXT, qty_sold INTEGER, promo_flag BOOLEAN
);
CREATE INDEX IF NOT EXISTS idx_sales_sku ON sales(sku);

CREATE TABLE IF NOT EXISTS promo_calendar (
	sku TEXT, start_date DATE, end_date DATE, store_id TEXT
);

CREATE TABLE IF NOT EXISTS event_uplift_rules (
	delivery_date DATE, scope_type TEXT, scope_key TEXT, reason TEXT, strength DOUBLE PRECISION, notes TEXT
);

CREATE TABLE IF NOT EXISTS holidays (
	type TEXT, scope TEXT, effect TEXT, date DATE, start_date DATE, end_date DATE, month INTEGER, day INTEGER
);

CREATE TABLE IF NOT EXISTS settings (
	path TEXT PRIMARY KEY, value TEXT, value_type TEXT, auto_apply_to_new_sku BOOLEAN, description TEXT
);

CREATE TABLE IF NOT EXISTS order_log (
	order_id TEXT PRIMARY KEY, sku TEXT, order_date DATE, receipt_date DATE,
	qty_ordered INTEGER, qty_received INTEGER, status TEXT
);
CREATE INDEX IF NOT EXISTS idx_order_log_sku ON order_log(sku);

CREATE TABLE IF NOT EXISTS receiving_log (
	document_id TEXT PRIMARY KEY, sku TEXT, receipt_date DATE, qty_received INTEGER, order_ids TEXT
);
`

// Migrate applies Schema, idempotently (every statement is IF NOT EXISTS),
// grounded on the teacher's db.RunMigrations but collapsed to one inline
// schema since this service ships a single fixed table set rather than an
// evolving migration history.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("pgrepo: migrate: %w", err)
	}
	return nil
}
