// Package fixtures generates synthetic but internally-consistent reorder
// datasets (SKU master data, a folded-consistent ledger, sales history,
// promo calendar, event uplift rules, holidays, and a settings tree) for
// demos, load tests, and the seed step of the CLI. Grounded on
// pgEdge-pgedge-loadgen's gofakeit-based row generation
// (internal/datagen/faker.go), adapted from synthetic SQL rows to synthetic
// domain-object collections for this engine's repository backends.
package fixtures

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/pinggolf/reorder-engine/internal/calendar"
	"github.com/pinggolf/reorder-engine/internal/domain"
)

// Options controls the shape of a generated dataset.
type Options struct {
	SKUCount    int
	HistoryDays int
	Asof        time.Time // history covers [Asof-HistoryDays, Asof]; open orders land after Asof
}

// Dataset is everything a repository.Repository needs to back one engine
// run, generated together so the ledger, sales history and promo calendar
// are mutually consistent (a promo window's elevated sales show up in both
// Transactions and Sales).
type Dataset struct {
	SKUs           []domain.SKU
	Transactions   []domain.Transaction
	Sales          []domain.SalesRecord
	Promos         []domain.PromoWindow
	EventRules     []domain.EventUpliftRule
	Holidays       []calendar.Holiday
	OpenOrders     []domain.OrderLog
	Settings       map[string]interface{}
}

var departments = []string{"Grocery", "Produce", "Dairy", "Frozen", "Household", "Beverages", "Bakery"}

var demandVariabilities = []domain.DemandVariability{
	domain.VariabilityStable, domain.VariabilityLow, domain.VariabilityHigh, domain.VariabilitySeasonal,
}

// Generator produces deterministic datasets from a seed, grounded on the
// teacher pack's NewFakerWithSeed pattern (pgEdge-pgedge-loadgen).
type Generator struct {
	faker *gofakeit.Faker
}

// NewGenerator builds a Generator seeded for reproducibility; the same seed
// and Options always produce byte-identical CSV output.
func NewGenerator(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Generate builds a full Dataset per opts.
func (g *Generator) Generate(opts Options) Dataset {
	if opts.HistoryDays < 14 {
		opts.HistoryDays = 90
	}
	asof := truncateToDay(opts.Asof)
	start := asof.AddDate(0, 0, -opts.HistoryDays)

	ds := Dataset{Settings: DefaultSettingsMap()}

	skus := make([]domain.SKU, 0, opts.SKUCount)
	for i := 0; i < opts.SKUCount; i++ {
		skus = append(skus, g.genSKU(i))
	}
	ds.SKUs = skus

	for i := range skus {
		sku := skus[i]
		promos := g.genPromoWindows(sku.SKU, start, asof)
		ds.Promos = append(ds.Promos, promos...)

		txs, sales := g.genHistory(sku, start, asof, promos)
		ds.Transactions = append(ds.Transactions, txs...)
		ds.Sales = append(ds.Sales, sales...)

		if order, ok := g.genOpenOrder(sku, asof); ok {
			ds.OpenOrders = append(ds.OpenOrders, order)
		}
	}

	ds.EventRules = g.genEventRules(skus, asof)
	ds.Holidays = g.genHolidays(asof)
	applySubstituteGroup(ds.Settings, skus)
	return ds
}

func (g *Generator) genSKU(i int) domain.SKU {
	id := fmt.Sprintf("SKU-%05d", i+1)
	department := pickFrom(g.faker, departments)
	category := g.faker.ProductCategory()
	packSize := g.faker.IntRange(1, 24)
	moq := packSize
	if g.faker.Bool() {
		moq = packSize * g.faker.IntRange(1, 3)
	}
	variability := demandVariabilities[i%len(demandVariabilities)]

	shelfLife := 0
	hasExpiryLabel := false
	// roughly a third of the catalogue is perishable
	if i%3 == 0 {
		shelfLife = g.faker.IntRange(3, 45)
		hasExpiryLabel = g.faker.Bool()
	}

	targetCSL := 0.0
	if g.faker.Bool() {
		targetCSL = g.faker.Float64Range(0.80, 0.98)
	}

	ean := ""
	if g.faker.Bool() {
		ean, _ = domain.BuildEAN(g.faker.DigitN(uint(12)))
	}

	return domain.SKU{
		SKU:               id,
		Description:       g.faker.ProductName(),
		EAN:               ean,
		InAssortment:      true,
		Department:        department,
		Category:          category,
		PackSize:          packSize,
		MOQ:               moq,
		LeadTimeDays:      g.faker.IntRange(0, 14),
		ReviewPeriodDays:  7,
		SafetyStock:       g.faker.IntRange(0, 50),
		MaxStock:          g.faker.IntRange(200, 999),
		ReorderPoint:      g.faker.IntRange(10, 150),
		ShelfLifeDays:     shelfLife,
		HasExpiryLabel:    hasExpiryLabel,
		DemandVariability: variability,
		TargetCSL:         targetCSL,
		OOSPopupPreference: domain.OOSPopupAsk,
	}
}

// genPromoWindows creates a handful of historical promo windows for roughly
// every third SKU, spaced out across the history window.
func (g *Generator) genPromoWindows(sku string, start, asof time.Time) []domain.PromoWindow {
	if g.faker.IntRange(0, 2) != 0 {
		return nil
	}
	n := g.faker.IntRange(1, 3)
	var windows []domain.PromoWindow
	totalDays := int(asof.Sub(start).Hours() / 24)
	if totalDays < 14 {
		return nil
	}
	for i := 0; i < n; i++ {
		offset := g.faker.IntRange(0, totalDays-10)
		length := g.faker.IntRange(3, 7)
		windowStart := start.AddDate(0, 0, offset)
		windowEnd := windowStart.AddDate(0, 0, length-1)
		if windowEnd.After(asof.AddDate(0, 0, -3)) {
			continue // keep a margin so post-promo cooldown windows stay observable
		}
		windows = append(windows, domain.PromoWindow{SKU: sku, StartDate: windowStart, EndDate: windowEnd})
	}
	return windows
}

// genHistory walks [start, asof] day by day producing a ledger consistent
// with the returned Sales slice: an opening SNAPSHOT, daily SALE events
// (elevated inside promo windows), periodic RECEIPT events, and occasional
// WASTE for perishables.
func (g *Generator) genHistory(s domain.SKU, start, asof time.Time, promos []domain.PromoWindow) ([]domain.Transaction, []domain.SalesRecord) {
	baseline := baselineDailyDemand(s, g.faker)
	onHandOpen := baseline*7 + g.faker.IntRange(0, 20)

	var txs []domain.Transaction
	var sales []domain.SalesRecord
	txs = append(txs, domain.Transaction{Date: start, SKU: s.SKU, Event: domain.EventSnapshot, Qty: onHandOpen})

	reviewPeriod := s.ReviewPeriodDays
	if reviewPeriod < 1 {
		reviewPeriod = 7
	}

	for d := start; !d.After(asof); d = d.AddDate(0, 0, 1) {
		qty := demandForDay(baseline, d, promos, g.faker)
		if qty > 0 {
			txs = append(txs, domain.Transaction{Date: d, SKU: s.SKU, Event: domain.EventSale, Qty: qty})
		}
		sales = append(sales, domain.SalesRecord{Date: d, SKU: s.SKU, QtySold: qty, PromoFlag: inAnyWindow(promos, d)})

		daysSinceStart := int(d.Sub(start).Hours() / 24)
		if daysSinceStart > 0 && daysSinceStart%reviewPeriod == 0 {
			receiptQty := baseline * reviewPeriod
			txs = append(txs, domain.Transaction{Date: d, SKU: s.SKU, Event: domain.EventReceipt, Qty: receiptQty})
		}

		if s.IsPerishable() && g.faker.IntRange(0, 120) == 0 {
			txs = append(txs, domain.Transaction{Date: d, SKU: s.SKU, Event: domain.EventWaste, Qty: g.faker.IntRange(1, 5)})
		}
	}
	return txs, sales
}

// genOpenOrder places roughly half the SKUs with one pending purchase order
// landing shortly after asof, exercising the in-transit branch of
// constraints.InventoryPosition.
func (g *Generator) genOpenOrder(s domain.SKU, asof time.Time) (domain.OrderLog, bool) {
	if g.faker.Bool() {
		return domain.OrderLog{}, false
	}
	leadTime := s.LeadTimeDays
	if leadTime <= 0 {
		leadTime = 7
	}
	receiptDate := asof.AddDate(0, 0, g.faker.IntRange(1, leadTime+3))
	qty := baselineDailyDemand(s, g.faker) * leadTime
	if qty < s.MOQ {
		qty = s.MOQ
	}
	return domain.OrderLog{
		OrderID:     fmt.Sprintf("PO-%s-%d", s.SKU, receiptDate.Unix()),
		SKU:         s.SKU,
		OrderDate:   asof.AddDate(0, 0, -g.faker.IntRange(1, 3)),
		ReceiptDate: receiptDate,
		QtyOrdered:  qty,
		QtyReceived: 0,
		Status:      domain.OrderPending,
	}, true
}

// genEventRules creates a small set of delivery-date multipliers spanning
// ALL, department, category and per-SKU scopes so every scope-fallback path
// in modifiers.ResolveEventRule has a fixture to exercise.
func (g *Generator) genEventRules(skus []domain.SKU, asof time.Time) []domain.EventUpliftRule {
	if len(skus) == 0 {
		return nil
	}
	var rules []domain.EventUpliftRule
	rules = append(rules, domain.EventUpliftRule{
		DeliveryDate: asof.AddDate(0, 0, 10),
		ScopeType:    domain.ScopeAll,
		Reason:       "national_payday",
		Strength:     0.6,
	})
	rules = append(rules, domain.EventUpliftRule{
		DeliveryDate: asof.AddDate(0, 0, 14),
		ScopeType:    domain.ScopeDepartment,
		ScopeKey:     skus[0].Department,
		Reason:       "seasonal_peak",
		Strength:     0.5,
	})
	mid := skus[len(skus)/2]
	rules = append(rules, domain.EventUpliftRule{
		DeliveryDate: asof.AddDate(0, 0, 21),
		ScopeType:    domain.ScopeCategory,
		ScopeKey:     mid.Category,
		Reason:       "category_feature",
		Strength:     0.4,
	})
	rules = append(rules, domain.EventUpliftRule{
		DeliveryDate: asof.AddDate(0, 0, 28),
		ScopeType:    domain.ScopeSKU,
		ScopeKey:     skus[0].SKU,
		Reason:       "local_event",
		Strength:     0.7,
	})
	return rules
}

// genHolidays builds one example of each recognised holiday shape.
func (g *Generator) genHolidays(asof time.Time) []calendar.Holiday {
	return []calendar.Holiday{
		{Type: calendar.HolidaySingleDate, Scope: calendar.ScopeOrders, Effect: calendar.EffectNoOrder, Date: asof.AddDate(0, 0, 5)},
		{Type: calendar.HolidayDateRange, Scope: calendar.ScopeReceipts, Effect: calendar.EffectNoReceipt, StartDate: asof.AddDate(0, 0, 20), EndDate: asof.AddDate(0, 0, 22)},
		{Type: calendar.HolidayMonthlyFixed, Scope: calendar.ScopeLogistics, Effect: calendar.EffectBoth, Month: asof.Month(), Day: 1},
	}
}

// applySubstituteGroup wires the first SKU and the next SKU of the same
// department (or, when none shares it, the second SKU) into one
// promo_cannibalization.groups entry, so a seeded dataset exercises the
// cannibalisation downlift without hand-edited settings.
func applySubstituteGroup(tree map[string]interface{}, skus []domain.SKU) {
	if len(skus) < 2 {
		return
	}
	a, b := skus[0], skus[1]
	for i := 1; i < len(skus); i++ {
		if skus[i].Department == a.Department {
			b = skus[i]
			break
		}
	}
	section, ok := tree["promo_cannibalization"].(map[string]interface{})
	if !ok {
		return
	}
	section["groups"] = map[string]interface{}{
		"group_1": []interface{}{a.SKU, b.SKU},
	}
}

func pickFrom(faker *gofakeit.Faker, options []string) string {
	return options[faker.IntRange(0, len(options)-1)]
}

func truncateToDay(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func baselineDailyDemand(s domain.SKU, faker *gofakeit.Faker) int {
	switch s.DemandVariability {
	case domain.VariabilityHigh:
		return faker.IntRange(1, 3) // intermittent-shaped: low baseline, spiky day-to-day below
	case domain.VariabilitySeasonal:
		return faker.IntRange(5, 15)
	case domain.VariabilityLow:
		return faker.IntRange(8, 12)
	default:
		return faker.IntRange(10, 20)
	}
}

// demandForDay applies promo uplift (double the baseline plus 0..3), a
// Sunday closure (zero), and otherwise +-2 noise to the baseline. It does
// not depend on the SKU's variability class beyond the baseline passed in.
func demandForDay(baseline int, d time.Time, promos []domain.PromoWindow, faker *gofakeit.Faker) int {
	if inAnyWindow(promos, d) {
		return baseline*2 + faker.IntRange(0, 3)
	}
	if d.Weekday() == time.Sunday {
		return 0 // closed
	}
	qty := baseline + faker.IntRange(-2, 2)
	if qty < 0 {
		qty = 0
	}
	return qty
}

func inAnyWindow(windows []domain.PromoWindow, d time.Time) bool {
	for _, w := range windows {
		if w.Contains(d) {
			return true
		}
	}
	return false
}
