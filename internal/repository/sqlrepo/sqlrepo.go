// Package sqlrepo holds the SQL read/write logic shared by sqliterepo and
// pgrepo, grounded on the teacher's internal/db package: a thin struct
// wrapping *sql.DB, one method per query, errors wrapped with fmt.Errorf
// "...: %w". Table layout and placeholder style (the only things that
// differ between SQLite and Postgres here) are supplied by the caller.
package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pinggolf/reorder-engine/internal/calendar"
	"github.com/pinggolf/reorder-engine/internal/domain"
	"github.com/pinggolf/reorder-engine/internal/repository"
	"github.com/pinggolf/reorder-engine/internal/settings"
)

// Placeholder builds the n-th (1-indexed) bind placeholder for the
// underlying driver: "?" for SQLite, "$1".."$N" for Postgres.
type Placeholder func(n int) string

// Repo implements repository.Repository against any database/sql driver.
type Repo struct {
	DB      *sql.DB
	Ph      Placeholder
	Limiter *repository.ReadLimiter
}

func New(db *sql.DB, ph Placeholder, limiter *repository.ReadLimiter) *Repo {
	return &Repo{DB: db, Ph: ph, Limiter: limiter}
}

func (r *Repo) bind(base string, n int) string {
	return base + r.Ph(n)
}

func (r *Repo) ReadSKUs(ctx context.Context) ([]domain.SKU, error) {
	if err := r.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT sku, description, ean, in_assortment, department, category,
		       pack_size, moq, lead_time_days, review_period_days,
		       safety_stock, max_stock, reorder_point, shelf_life_days,
		       has_expiry_label, demand_variability, target_csl,
		       forecast_method_override, mc_distribution, mc_n_simulations,
		       mc_random_seed, oos_popup_preference
		FROM skus`)
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: query skus: %w", err)
	}
	defer rows.Close()

	var out []domain.SKU
	for rows.Next() {
		var s domain.SKU
		var seed sql.NullInt64
		var variability, fmOverride string
		if err := rows.Scan(&s.SKU, &s.Description, &s.EAN, &s.InAssortment, &s.Department, &s.Category,
			&s.PackSize, &s.MOQ, &s.LeadTimeDays, &s.ReviewPeriodDays,
			&s.SafetyStock, &s.MaxStock, &s.ReorderPoint, &s.ShelfLifeDays,
			&s.HasExpiryLabel, &variability, &s.TargetCSL,
			&fmOverride, &s.MonteCarlo.Distribution, &s.MonteCarlo.NSimulations,
			&seed, &s.OOSPopupPreference); err != nil {
			return nil, fmt.Errorf("sqlrepo: scan sku: %w", err)
		}
		s.DemandVariability = domain.ParseDemandVariability(variability)
		s.ForecastMethodOverride = domain.ForecastMethod(fmOverride)
		if seed.Valid {
			v := seed.Int64
			s.MonteCarlo.RandomSeed = &v
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) ReadTransactions(ctx context.Context) ([]domain.Transaction, error) {
	if err := r.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT date, sku, event, qty, receipt_date, note FROM transactions`)
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: query transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var event string
		var receiptDate sql.NullTime
		if err := rows.Scan(&tx.Date, &tx.SKU, &event, &tx.Qty, &receiptDate, &tx.Note); err != nil {
			return nil, fmt.Errorf("sqlrepo: scan transaction: %w", err)
		}
		tx.Event = domain.EventKind(event)
		if receiptDate.Valid {
			t := receiptDate.Time
			tx.ReceiptDate = &t
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *Repo) ReadSales(ctx context.Context) ([]domain.SalesRecord, error) {
	if err := r.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT date, sku, qty_sold, promo_flag FROM sales`)
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: query sales: %w", err)
	}
	defer rows.Close()

	var out []domain.SalesRecord
	for rows.Next() {
		var s domain.SalesRecord
		if err := rows.Scan(&s.Date, &s.SKU, &s.QtySold, &s.PromoFlag); err != nil {
			return nil, fmt.Errorf("sqlrepo: scan sales: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) ReadPromoCalendar(ctx context.Context) ([]domain.PromoWindow, error) {
	if err := r.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT sku, start_date, end_date, store_id FROM promo_calendar`)
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: query promo_calendar: %w", err)
	}
	defer rows.Close()

	var out []domain.PromoWindow
	for rows.Next() {
		var w domain.PromoWindow
		if err := rows.Scan(&w.SKU, &w.StartDate, &w.EndDate, &w.StoreID); err != nil {
			return nil, fmt.Errorf("sqlrepo: scan promo_calendar: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *Repo) ReadEventUpliftRules(ctx context.Context) ([]domain.EventUpliftRule, error) {
	if err := r.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT delivery_date, scope_type, scope_key, reason, strength, notes FROM event_uplift_rules`)
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: query event_uplift_rules: %w", err)
	}
	defer rows.Close()

	var out []domain.EventUpliftRule
	for rows.Next() {
		var rule domain.EventUpliftRule
		var scopeType string
		if err := rows.Scan(&rule.DeliveryDate, &scopeType, &rule.ScopeKey, &rule.Reason, &rule.Strength, &rule.Notes); err != nil {
			return nil, fmt.Errorf("sqlrepo: scan event_uplift_rules: %w", err)
		}
		rule.ScopeType = domain.EventUpliftScope(scopeType)
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *Repo) ReadHolidays(ctx context.Context) ([]calendar.Holiday, error) {
	if err := r.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT type, scope, effect, date, start_date, end_date, month, day FROM holidays`)
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: query holidays: %w", err)
	}
	defer rows.Close()

	var out []calendar.Holiday
	for rows.Next() {
		var h calendar.Holiday
		var typ, scope, effect string
		var date, start, end sql.NullTime
		var month sql.NullInt64
		if err := rows.Scan(&typ, &scope, &effect, &date, &start, &end, &month, &h.Day); err != nil {
			return nil, fmt.Errorf("sqlrepo: scan holidays: %w", err)
		}
		h.Type = calendar.HolidayType(typ)
		h.Scope = calendar.HolidayScope(scope)
		h.Effect = calendar.HolidayEffect(effect)
		if date.Valid {
			h.Date = date.Time
		}
		if start.Valid {
			h.StartDate = start.Time
		}
		if end.Valid {
			h.EndDate = end.Time
		}
		if month.Valid {
			h.Month = time.Month(month.Int64)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *Repo) ReadSettings(ctx context.Context) (settings.Tree, error) {
	if err := r.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT path, value, value_type, auto_apply_to_new_sku, description FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: query settings: %w", err)
	}
	defer rows.Close()

	tree := settings.Tree{}
	for rows.Next() {
		var path, value, valueType, description string
		var autoApply bool
		if err := rows.Scan(&path, &value, &valueType, &autoApply, &description); err != nil {
			return nil, fmt.Errorf("sqlrepo: scan settings: %w", err)
		}
		setAtPath(tree, path, decodeSettingValue(value, valueType), autoApply, description)
	}
	return tree, rows.Err()
}

func (r *Repo) GetUnfulfilledOrders(ctx context.Context, sku string) ([]domain.OrderLog, error) {
	if err := r.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	query := r.bind(`SELECT order_id, sku, order_date, receipt_date, qty_ordered, qty_received, status
		FROM order_log WHERE sku = `, 1) + ` AND status != 'CLOSED'`
	rows, err := r.DB.QueryContext(ctx, query, sku)
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: query order_log: %w", err)
	}
	defer rows.Close()

	var out []domain.OrderLog
	for rows.Next() {
		var o domain.OrderLog
		var status string
		if err := rows.Scan(&o.OrderID, &o.SKU, &o.OrderDate, &o.ReceiptDate, &o.QtyOrdered, &o.QtyReceived, &status); err != nil {
			return nil, fmt.Errorf("sqlrepo: scan order_log: %w", err)
		}
		o.Status = domain.OrderLogStatus(status)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) AppendTransaction(ctx context.Context, tx domain.Transaction) error {
	query := fmt.Sprintf(`INSERT INTO transactions (date, sku, event, qty, receipt_date, note) VALUES (%s, %s, %s, %s, %s, %s)`,
		r.Ph(1), r.Ph(2), r.Ph(3), r.Ph(4), r.Ph(5), r.Ph(6))
	var receiptDate interface{}
	if tx.ReceiptDate != nil {
		receiptDate = *tx.ReceiptDate
	}
	_, err := r.DB.ExecContext(ctx, query, tx.Date, tx.SKU, string(tx.Event), tx.Qty, receiptDate, tx.Note)
	if err != nil {
		return fmt.Errorf("sqlrepo: insert transaction: %w", err)
	}
	return nil
}

func (r *Repo) SaveOrderLog(ctx context.Context, log domain.OrderLog) error {
	query := fmt.Sprintf(`INSERT INTO order_log (order_id, sku, order_date, receipt_date, qty_ordered, qty_received, status)
		VALUES (%s, %s, %s, %s, %s, %s, %s)`,
		r.Ph(1), r.Ph(2), r.Ph(3), r.Ph(4), r.Ph(5), r.Ph(6), r.Ph(7))
	_, err := r.DB.ExecContext(ctx, query, log.OrderID, log.SKU, log.OrderDate, log.ReceiptDate, log.QtyOrdered, log.QtyReceived, string(log.Status))
	if err != nil {
		return fmt.Errorf("sqlrepo: insert order_log: %w", err)
	}
	return nil
}

func (r *Repo) SaveReceivingLog(ctx context.Context, doc domain.ReceivingLog) error {
	processed, err := r.IsReceivingProcessed(ctx, doc.DocumentID)
	if err != nil {
		return err
	}
	if processed {
		return domain.IdempotencyConflictError(fmt.Sprintf("sqlrepo: document_id %q already processed", doc.DocumentID))
	}
	query := fmt.Sprintf(`INSERT INTO receiving_log (document_id, sku, receipt_date, qty_received, order_ids)
		VALUES (%s, %s, %s, %s, %s)`, r.Ph(1), r.Ph(2), r.Ph(3), r.Ph(4), r.Ph(5))
	_, err = r.DB.ExecContext(ctx, query, doc.DocumentID, doc.SKU, doc.ReceiptDate, doc.QtyReceived, strings.Join(doc.OrderIDs, ";"))
	if err != nil {
		return fmt.Errorf("sqlrepo: insert receiving_log: %w", err)
	}
	return nil
}

func (r *Repo) IsReceivingProcessed(ctx context.Context, documentID string) (bool, error) {
	query := r.bind(`SELECT 1 FROM receiving_log WHERE document_id = `, 1)
	var one int
	err := r.DB.QueryRowContext(ctx, query, documentID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlrepo: check receiving_log: %w", err)
	}
	return true, nil
}

// setAtPath writes a dotted path into tree, creating intermediate Trees as
// needed; the final segment becomes a Leaf.
func setAtPath(tree settings.Tree, path string, value interface{}, autoApply bool, description string) {
	parts := strings.Split(path, ".")
	cur := tree
	for i, part := range parts {
		if i == len(parts)-1 {
			cur[part] = settings.Node{Leaf: &settings.Leaf{Value: value, AutoApplyToNewSKU: autoApply, Description: description}}
			return
		}
		node, ok := cur[part]
		if !ok || node.Tree == nil {
			node = settings.Node{Tree: settings.Tree{}}
			cur[part] = node
		}
		cur = node.Tree
	}
}

func decodeSettingValue(value, valueType string) interface{} {
	switch valueType {
	case "int":
		n, _ := strconv.Atoi(value)
		return n
	case "float":
		f, _ := strconv.ParseFloat(value, 64)
		return f
	case "bool":
		b, _ := strconv.ParseBool(value)
		return b
	default:
		return value
	}
}
