package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pinggolf/reorder-engine/internal/calendar"
	"github.com/pinggolf/reorder-engine/internal/domain"
	"github.com/pinggolf/reorder-engine/internal/forecast"
	"github.com/pinggolf/reorder-engine/internal/ledger"
	"github.com/pinggolf/reorder-engine/internal/repository"
	"github.com/pinggolf/reorder-engine/internal/settings"
)

// Collections is every repository-sourced input the pipeline needs, pulled
// once per batch run and indexed by SKU so a single decision never re-scans
// the full transaction/sales slices (spec.md §9's "Arena / index pattern").
type Collections struct {
	SKUs         []domain.SKU
	Transactions []domain.Transaction
	Sales        []domain.SalesRecord
	Promos       []domain.PromoWindow
	EventRules   []domain.EventUpliftRule
	Holidays     []calendar.Holiday
	Settings     settings.Tree

	skuByID     map[string]domain.SKU
	txBySKU     map[string][]domain.Transaction
	salesBySKU  map[string][]domain.SalesRecord
	promosBySKU map[string][]domain.PromoWindow
}

// Load pulls every repository collection once and builds the per-SKU
// indices the pipeline relies on, grounded on the teacher's pattern of
// loading a full working set up front (internal/services/settings_service.go)
// rather than re-querying per item.
func Load(ctx context.Context, repo repository.Repository) (*Collections, error) {
	skus, err := repo.ReadSKUs(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: load skus: %w", err)
	}
	transactions, err := repo.ReadTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: load transactions: %w", err)
	}
	sales, err := repo.ReadSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: load sales: %w", err)
	}
	promos, err := repo.ReadPromoCalendar(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: load promo calendar: %w", err)
	}
	eventRules, err := repo.ReadEventUpliftRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: load event uplift rules: %w", err)
	}
	holidays, err := repo.ReadHolidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: load holidays: %w", err)
	}
	tree, err := repo.ReadSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: load settings: %w", err)
	}

	c := &Collections{
		SKUs:         skus,
		Transactions: transactions,
		Sales:        sales,
		Promos:       domain.MergePromoWindows(promos),
		EventRules:   eventRules,
		Holidays:     holidays,
		Settings:     tree,
	}
	c.buildIndices()
	return c, nil
}

func (c *Collections) buildIndices() {
	c.skuByID = make(map[string]domain.SKU, len(c.SKUs))
	for _, s := range c.SKUs {
		c.skuByID[s.SKU] = s
	}

	c.txBySKU = make(map[string][]domain.Transaction)
	for _, t := range c.Transactions {
		c.txBySKU[t.SKU] = append(c.txBySKU[t.SKU], t)
	}

	c.salesBySKU = make(map[string][]domain.SalesRecord)
	for _, r := range c.Sales {
		c.salesBySKU[r.SKU] = append(c.salesBySKU[r.SKU], r)
	}
	for sku := range c.salesBySKU {
		sort.SliceStable(c.salesBySKU[sku], func(i, j int) bool {
			return c.salesBySKU[sku][i].Date.Before(c.salesBySKU[sku][j].Date)
		})
	}

	c.promosBySKU = make(map[string][]domain.PromoWindow)
	for _, w := range c.Promos {
		c.promosBySKU[w.SKU] = append(c.promosBySKU[w.SKU], w)
	}
}

// InAssortmentSKUs returns the SKU codes eligible for proposals, in stable
// lexical order so batch output is deterministic regardless of load order.
func (c *Collections) InAssortmentSKUs() []string {
	out := make([]string, 0, len(c.SKUs))
	for _, s := range c.SKUs {
		if s.InAssortment {
			out = append(out, s.SKU)
		}
	}
	sort.Strings(out)
	return out
}

// storeHistory flattens every SKU's demand history into one store-wide daily
// total, used by event-uplift's U_store_day quantile. It is just
// aggregateHistory over the full SKU set, pulled out under its own name
// since every pipeline run needs the whole store rather than one scope.
func (c *Collections) storeHistory(asof time.Time, mode ledger.OOSDetectionMode) []forecast.HistoryPoint {
	all := make([]string, 0, len(c.SKUs))
	for _, sku := range c.SKUs {
		all = append(all, sku.SKU)
	}
	return c.aggregateHistory(all, asof, mode)
}

// skuHistory builds one SKU's daily demand history up to and including asof,
// starting from its earliest observed sale or ledger transaction, with the
// per-day censoring flag from the ledger package (spec.md §4.1).
func (c *Collections) skuHistory(sku string, asof time.Time, mode ledger.OOSDetectionMode) []forecast.HistoryPoint {
	start, ok := c.earliestObservation(sku)
	if !ok {
		return nil
	}

	qtyByDate := make(map[time.Time]int, len(c.salesBySKU[sku]))
	for _, r := range c.salesBySKU[sku] {
		qtyByDate[truncateToDay(r.Date)] = r.QtySold
	}

	transactions := c.txBySKU[sku]
	out := make([]forecast.HistoryPoint, 0, daysInclusive(start, asof))
	for d := truncateToDay(start); !d.After(truncateToDay(asof)); d = d.AddDate(0, 0, 1) {
		censored, _ := ledger.IsDayCensored(sku, d, transactions, mode)
		out = append(out, forecast.HistoryPoint{Date: d, Qty: qtyByDate[d], Censored: censored})
	}
	return out
}

func (c *Collections) earliestObservation(sku string) (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, r := range c.salesBySKU[sku] {
		if !found || r.Date.Before(earliest) {
			earliest = r.Date
			found = true
		}
	}
	for _, t := range c.txBySKU[sku] {
		if !found || t.Date.Before(earliest) {
			earliest = t.Date
			found = true
		}
	}
	return earliest, found
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysInclusive(start, end time.Time) int {
	d := int(truncateToDay(end).Sub(truncateToDay(start)).Hours()/24) + 1
	if d < 0 {
		return 0
	}
	return d
}
