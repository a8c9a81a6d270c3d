package fixtures

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pinggolf/reorder-engine/internal/calendar"
)

// File names mirror csvrepo's schema exactly (internal/repository/csvrepo)
// so a dataset written here reads back unmodified through that backend.
const (
	fileSKUs             = "skus.csv"
	fileTransactions     = "transactions.csv"
	fileSales            = "sales.csv"
	filePromoCalendar    = "promo_calendar.csv"
	fileEventUpliftRules = "event_uplift_rules.csv"
	fileHolidays         = "holidays.csv"
	fileOrderLog         = "order_log.csv"
	fileSettings         = "settings.json"
)

// WriteCSV writes a full dataset into dataDir in the exact per-table CSV
// schema csvrepo.Repository reads, plus a settings.json. dataDir is created
// if it does not already exist.
func WriteCSV(ds Dataset, dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("fixtures: mkdir %s: %w", dataDir, err)
	}

	writers := []func(string, Dataset) error{
		writeSKUs, writeTransactions, writeSales, writePromos, writeEventRules, writeHolidays, writeOrderLog,
	}
	for _, w := range writers {
		if err := w(dataDir, ds); err != nil {
			return err
		}
	}
	return writeSettings(dataDir, ds.Settings)
}

func writeCSVFile(dataDir, name string, header []string, rows [][]string) error {
	f, err := os.Create(filepath.Join(dataDir, name))
	if err != nil {
		return fmt.Errorf("fixtures: create %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeSKUs(dataDir string, ds Dataset) error {
	header := []string{
		"sku", "description", "ean", "in_assortment", "department", "category",
		"pack_size", "moq", "lead_time_days", "review_period_days", "safety_stock",
		"max_stock", "reorder_point", "shelf_life_days", "has_expiry_label",
		"demand_variability", "target_csl", "forecast_method_override",
		"mc_distribution", "mc_n_simulations", "mc_random_seed", "oos_popup_preference",
	}
	rows := make([][]string, 0, len(ds.SKUs))
	for _, s := range ds.SKUs {
		seed := ""
		if s.MonteCarlo.RandomSeed != nil {
			seed = strconv.FormatInt(*s.MonteCarlo.RandomSeed, 10)
		}
		rows = append(rows, []string{
			s.SKU, s.Description, s.EAN, strconv.FormatBool(s.InAssortment), s.Department, s.Category,
			strconv.Itoa(s.PackSize), strconv.Itoa(s.MOQ), strconv.Itoa(s.LeadTimeDays), strconv.Itoa(s.ReviewPeriodDays),
			strconv.Itoa(s.SafetyStock), strconv.Itoa(s.MaxStock), strconv.Itoa(s.ReorderPoint),
			strconv.Itoa(s.ShelfLifeDays), strconv.FormatBool(s.HasExpiryLabel),
			string(s.DemandVariability), strconv.FormatFloat(s.TargetCSL, 'f', -1, 64),
			string(s.ForecastMethodOverride), s.MonteCarlo.Distribution, strconv.Itoa(s.MonteCarlo.NSimulations), seed,
			string(s.OOSPopupPreference),
		})
	}
	return writeCSVFile(dataDir, fileSKUs, header, rows)
}

func writeTransactions(dataDir string, ds Dataset) error {
	header := []string{"date", "sku", "event", "qty", "receipt_date", "note"}
	rows := make([][]string, 0, len(ds.Transactions))
	for _, t := range ds.Transactions {
		receipt := ""
		if t.ReceiptDate != nil {
			receipt = t.ReceiptDate.Format("2006-01-02")
		}
		rows = append(rows, []string{fmtDate(t.Date), t.SKU, string(t.Event), strconv.Itoa(t.Qty), receipt, t.Note})
	}
	return writeCSVFile(dataDir, fileTransactions, header, rows)
}

func writeSales(dataDir string, ds Dataset) error {
	header := []string{"date", "sku", "qty_sold", "promo_flag"}
	rows := make([][]string, 0, len(ds.Sales))
	for _, s := range ds.Sales {
		rows = append(rows, []string{fmtDate(s.Date), s.SKU, strconv.Itoa(s.QtySold), strconv.FormatBool(s.PromoFlag)})
	}
	return writeCSVFile(dataDir, fileSales, header, rows)
}

func writePromos(dataDir string, ds Dataset) error {
	header := []string{"sku", "start_date", "end_date", "store_id"}
	rows := make([][]string, 0, len(ds.Promos))
	for _, p := range ds.Promos {
		rows = append(rows, []string{p.SKU, fmtDate(p.StartDate), fmtDate(p.EndDate), p.StoreID})
	}
	return writeCSVFile(dataDir, filePromoCalendar, header, rows)
}

func writeEventRules(dataDir string, ds Dataset) error {
	header := []string{"delivery_date", "scope_type", "scope_key", "reason", "strength", "notes"}
	rows := make([][]string, 0, len(ds.EventRules))
	for _, r := range ds.EventRules {
		rows = append(rows, []string{
			fmtDate(r.DeliveryDate), string(r.ScopeType), r.ScopeKey, r.Reason,
			strconv.FormatFloat(r.Strength, 'f', -1, 64), r.Notes,
		})
	}
	return writeCSVFile(dataDir, fileEventUpliftRules, header, rows)
}

func writeHolidays(dataDir string, ds Dataset) error {
	header := []string{"type", "scope", "effect", "date", "start_date", "end_date", "month", "day"}
	rows := make([][]string, 0, len(ds.Holidays))
	for _, h := range ds.Holidays {
		rows = append(rows, []string{
			string(h.Type), string(h.Scope), string(h.Effect),
			fmtDate(h.Date), fmtDate(h.StartDate), fmtDate(h.EndDate),
			monthOrEmpty(h), strconv.Itoa(h.Day),
		})
	}
	return writeCSVFile(dataDir, fileHolidays, header, rows)
}

func writeOrderLog(dataDir string, ds Dataset) error {
	header := []string{"order_id", "sku", "order_date", "receipt_date", "qty_ordered", "qty_received", "status"}
	rows := make([][]string, 0, len(ds.OpenOrders))
	for _, o := range ds.OpenOrders {
		rows = append(rows, []string{
			o.OrderID, o.SKU, fmtDate(o.OrderDate), fmtDate(o.ReceiptDate),
			strconv.Itoa(o.QtyOrdered), strconv.Itoa(o.QtyReceived), string(o.Status),
		})
	}
	return writeCSVFile(dataDir, fileOrderLog, header, rows)
}

func writeSettings(dataDir string, tree map[string]interface{}) error {
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return fmt.Errorf("fixtures: marshal settings: %w", err)
	}
	return os.WriteFile(filepath.Join(dataDir, fileSettings), data, 0o644)
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func monthOrEmpty(h calendar.Holiday) string {
	if h.Type != calendar.HolidayMonthlyFixed {
		return ""
	}
	return strconv.Itoa(int(h.Month))
}
