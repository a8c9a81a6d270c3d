// Package csvrepo implements repository.Repository over one CSV file per
// table plus a JSON settings file, each read from disk on every call
// (spec.md §6: "the shipped implementation persists in either CSV with
// JSON settings or SQLite"). Writers append to the owning CSV file; reads
// always reflect what is on disk at call time, never a cached snapshot, so
// a long-running batch CLI sees receiving/order writes made by a prior
// invocation.
package csvrepo

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pinggolf/reorder-engine/internal/calendar"
	"github.com/pinggolf/reorder-engine/internal/domain"
	"github.com/pinggolf/reorder-engine/internal/repository"
	"github.com/pinggolf/reorder-engine/internal/settings"
)

const (
	fileSKUs             = "skus.csv"
	fileTransactions     = "transactions.csv"
	fileSales            = "sales.csv"
	filePromoCalendar    = "promo_calendar.csv"
	fileEventUpliftRules = "event_uplift_rules.csv"
	fileHolidays         = "holidays.csv"
	fileOrderLog         = "order_log.csv"
	fileReceivingLog     = "receiving_log.csv"
	fileSettings         = "settings.json"
)

// Repository is the CSV + JSON-settings backend. DataDir holds one CSV per
// table; a missing file reads as an empty collection so a fresh directory
// is a valid, empty repository.
type Repository struct {
	DataDir string
	Limiter *repository.ReadLimiter
}

// New builds a csvrepo.Repository rooted at dataDir. A nil/zero limiter
// disables read pacing.
func New(dataDir string, limiter *repository.ReadLimiter) *Repository {
	return &Repository{DataDir: dataDir, Limiter: limiter}
}

var _ repository.Repository = (*Repository)(nil)

func (r *Repository) path(name string) string {
	return filepath.Join(r.DataDir, name)
}

// readRows opens name and returns every record after the header row, or an
// empty slice if the file does not exist.
func (r *Repository) readRows(ctx context.Context, name string) ([][]string, error) {
	if err := r.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	f, err := os.Open(r.path(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csvrepo: open %s: %w", name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csvrepo: read %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

func (r *Repository) ReadSKUs(ctx context.Context) ([]domain.SKU, error) {
	rows, err := r.readRows(ctx, fileSKUs)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SKU, 0, len(rows))
	for _, row := range rows {
		sku, err := parseSKURow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, sku)
	}
	return out, nil
}

func parseSKURow(row []string) (domain.SKU, error) {
	if len(row) < 22 {
		return domain.SKU{}, domain.InvalidInputError(fmt.Sprintf("csvrepo: skus.csv row has %d fields, want 22", len(row)), nil)
	}
	var mc domain.SKUMonteCarloOverride
	mc.Distribution = row[18]
	mc.NSimulations = atoiOr(row[19], 0)
	if row[20] != "" {
		seed, err := strconv.ParseInt(row[20], 10, 64)
		if err == nil {
			mc.RandomSeed = &seed
		}
	}
	return domain.SKU{
		SKU:                    row[0],
		Description:            row[1],
		EAN:                    row[2],
		InAssortment:           parseBool(row[3]),
		Department:             row[4],
		Category:               row[5],
		PackSize:               atoiOr(row[6], 1),
		MOQ:                    atoiOr(row[7], 1),
		LeadTimeDays:           atoiOr(row[8], 0),
		ReviewPeriodDays:       atoiOr(row[9], 7),
		SafetyStock:            atoiOr(row[10], 0),
		MaxStock:               atoiOr(row[11], 0),
		ReorderPoint:           atoiOr(row[12], 0),
		ShelfLifeDays:          atoiOr(row[13], 0),
		HasExpiryLabel:         parseBool(row[14]),
		DemandVariability:      domain.ParseDemandVariability(row[15]),
		TargetCSL:              atofOr(row[16], 0),
		ForecastMethodOverride: domain.ForecastMethod(row[17]),
		MonteCarlo:             mc,
		OOSPopupPreference:     domain.OOSPopupPreference(row[21]),
	}, nil
}

func (r *Repository) ReadTransactions(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := r.readRows(ctx, fileTransactions)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			return nil, domain.InvalidLedgerError(fmt.Sprintf("csvrepo: transactions.csv row has %d fields, want 6", len(row)), nil)
		}
		date, err := parseDate(row[0])
		if err != nil {
			return nil, domain.InvalidLedgerError("csvrepo: unparsable transaction date", err)
		}
		var receiptDate *time.Time
		if row[4] != "" {
			d, err := parseDate(row[4])
			if err != nil {
				return nil, domain.InvalidLedgerError("csvrepo: unparsable receipt date", err)
			}
			receiptDate = &d
		}
		out = append(out, domain.Transaction{
			Date:        date,
			SKU:         row[1],
			Event:       domain.EventKind(row[2]),
			Qty:         atoiOr(row[3], 0),
			ReceiptDate: receiptDate,
			Note:        row[5],
		})
	}
	return out, nil
}

func (r *Repository) ReadSales(ctx context.Context) ([]domain.SalesRecord, error) {
	rows, err := r.readRows(ctx, fileSales)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SalesRecord, 0, len(rows))
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		date, err := parseDate(row[0])
		if err != nil {
			return nil, domain.InvalidLedgerError("csvrepo: unparsable sales date", err)
		}
		out = append(out, domain.SalesRecord{
			Date:      date,
			SKU:       row[1],
			QtySold:   atoiOr(row[2], 0),
			PromoFlag: parseBool(row[3]),
		})
	}
	return out, nil
}

func (r *Repository) ReadPromoCalendar(ctx context.Context) ([]domain.PromoWindow, error) {
	rows, err := r.readRows(ctx, filePromoCalendar)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PromoWindow, 0, len(rows))
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		start, err := parseDate(row[1])
		if err != nil {
			return nil, domain.InvalidLedgerError("csvrepo: unparsable promo start_date", err)
		}
		end, err := parseDate(row[2])
		if err != nil {
			return nil, domain.InvalidLedgerError("csvrepo: unparsable promo end_date", err)
		}
		out = append(out, domain.PromoWindow{
			SKU:       row[0],
			StartDate: start,
			EndDate:   end,
			StoreID:   row[3],
		})
	}
	return out, nil
}

func (r *Repository) ReadEventUpliftRules(ctx context.Context) ([]domain.EventUpliftRule, error) {
	rows, err := r.readRows(ctx, fileEventUpliftRules)
	if err != nil {
		return nil, err
	}
	out := make([]domain.EventUpliftRule, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		date, err := parseDate(row[0])
		if err != nil {
			return nil, domain.InvalidLedgerError("csvrepo: unparsable event delivery_date", err)
		}
		out = append(out, domain.EventUpliftRule{
			DeliveryDate: date,
			ScopeType:    domain.EventUpliftScope(row[1]),
			ScopeKey:     row[2],
			Reason:       row[3],
			Strength:     atofOr(row[4], 0),
			Notes:        row[5],
		})
	}
	return out, nil
}

func (r *Repository) ReadHolidays(ctx context.Context) ([]calendar.Holiday, error) {
	rows, err := r.readRows(ctx, fileHolidays)
	if err != nil {
		return nil, err
	}
	out := make([]calendar.Holiday, 0, len(rows))
	for _, row := range rows {
		if len(row) < 8 {
			continue
		}
		h := calendar.Holiday{
			Type:   calendar.HolidayType(row[0]),
			Scope:  calendar.HolidayScope(row[1]),
			Effect: calendar.HolidayEffect(row[2]),
			Day:    atoiOr(row[7], 0),
		}
		if row[3] != "" {
			h.Date, _ = parseDate(row[3])
		}
		if row[4] != "" {
			h.StartDate, _ = parseDate(row[4])
		}
		if row[5] != "" {
			h.EndDate, _ = parseDate(row[5])
		}
		if row[6] != "" {
			h.Month = time.Month(atoiOr(row[6], 1))
		}
		out = append(out, h)
	}
	return out, nil
}

func (r *Repository) ReadSettings(ctx context.Context) (settings.Tree, error) {
	if err := r.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.path(fileSettings))
	if os.IsNotExist(err) {
		return settings.Tree{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csvrepo: read %s: %w", fileSettings, err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, domain.InvalidInputError("csvrepo: malformed settings.json", err)
	}
	return settings.FromMap(raw), nil
}

func (r *Repository) GetUnfulfilledOrders(ctx context.Context, sku string) ([]domain.OrderLog, error) {
	rows, err := r.readRows(ctx, fileOrderLog)
	if err != nil {
		return nil, err
	}
	var out []domain.OrderLog
	for _, row := range rows {
		log, err := parseOrderLogRow(row)
		if err != nil {
			return nil, err
		}
		if log.SKU != sku || log.Status == domain.OrderClosed {
			continue
		}
		out = append(out, log)
	}
	return out, nil
}

func parseOrderLogRow(row []string) (domain.OrderLog, error) {
	if len(row) < 7 {
		return domain.OrderLog{}, domain.InvalidInputError(fmt.Sprintf("csvrepo: order_log.csv row has %d fields, want 7", len(row)), nil)
	}
	orderDate, err := parseDate(row[2])
	if err != nil {
		return domain.OrderLog{}, domain.InvalidInputError("csvrepo: unparsable order_date", err)
	}
	receiptDate, err := parseDate(row[3])
	if err != nil {
		return domain.OrderLog{}, domain.InvalidInputError("csvrepo: unparsable receipt_date", err)
	}
	return domain.OrderLog{
		OrderID:     row[0],
		SKU:         row[1],
		OrderDate:   orderDate,
		ReceiptDate: receiptDate,
		QtyOrdered:  atoiOr(row[4], 0),
		QtyReceived: atoiOr(row[5], 0),
		Status:      domain.OrderLogStatus(row[6]),
	}, nil
}

func (r *Repository) AppendTransaction(ctx context.Context, tx domain.Transaction) error {
	receipt := ""
	if tx.ReceiptDate != nil {
		receipt = tx.ReceiptDate.Format("2006-01-02")
	}
	return r.appendRow(fileTransactions,
		[]string{"date", "sku", "event", "qty", "receipt_date", "note"},
		[]string{tx.Date.Format("2006-01-02"), tx.SKU, string(tx.Event), strconv.Itoa(tx.Qty), receipt, tx.Note})
}

func (r *Repository) SaveOrderLog(ctx context.Context, log domain.OrderLog) error {
	return r.appendRow(fileOrderLog,
		[]string{"order_id", "sku", "order_date", "receipt_date", "qty_ordered", "qty_received", "status"},
		[]string{log.OrderID, log.SKU, log.OrderDate.Format("2006-01-02"), log.ReceiptDate.Format("2006-01-02"),
			strconv.Itoa(log.QtyOrdered), strconv.Itoa(log.QtyReceived), string(log.Status)})
}

func (r *Repository) SaveReceivingLog(ctx context.Context, doc domain.ReceivingLog) error {
	processed, err := r.IsReceivingProcessed(ctx, doc.DocumentID)
	if err != nil {
		return err
	}
	if processed {
		return domain.IdempotencyConflictError(fmt.Sprintf("csvrepo: document_id %q already processed", doc.DocumentID))
	}
	return r.appendRow(fileReceivingLog,
		[]string{"document_id", "sku", "receipt_date", "qty_received", "order_ids"},
		[]string{doc.DocumentID, doc.SKU, doc.ReceiptDate.Format("2006-01-02"), strconv.Itoa(doc.QtyReceived), strings.Join(doc.OrderIDs, ";")})
}

func (r *Repository) IsReceivingProcessed(ctx context.Context, documentID string) (bool, error) {
	rows, err := r.readRows(ctx, fileReceivingLog)
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if len(row) > 0 && row[0] == documentID {
			return true, nil
		}
	}
	return false, nil
}

// appendRow writes header first if the file is new, then appends one row.
func (r *Repository) appendRow(name string, header, row []string) error {
	path := r.path(name)
	_, statErr := os.Stat(path)
	needsHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("csvrepo: open %s for append: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needsHeader {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func atofOr(s string, def float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}
