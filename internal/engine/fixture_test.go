package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pinggolf/reorder-engine/internal/calendar"
	"github.com/pinggolf/reorder-engine/internal/domain"
	"github.com/pinggolf/reorder-engine/internal/settings"
)

// fakeRepo is an in-memory repository.Repository backing engine tests, so
// the pipeline runs against fully-controlled fixtures rather than a real
// CSV/SQLite/Postgres backend.
type fakeRepo struct {
	skus         []domain.SKU
	transactions []domain.Transaction
	sales        []domain.SalesRecord
	promos       []domain.PromoWindow
	eventRules   []domain.EventUpliftRule
	holidays     []calendar.Holiday
	tree         settings.Tree
	unfulfilled  map[string][]domain.OrderLog

	appended  []domain.Transaction
	ordersLog []domain.OrderLog
	receiving []domain.ReceivingLog
	processed map[string]bool
}

func (r *fakeRepo) ReadSKUs(context.Context) ([]domain.SKU, error)       { return r.skus, nil }
func (r *fakeRepo) ReadTransactions(context.Context) ([]domain.Transaction, error) {
	return r.transactions, nil
}
func (r *fakeRepo) ReadSales(context.Context) ([]domain.SalesRecord, error) { return r.sales, nil }
func (r *fakeRepo) ReadPromoCalendar(context.Context) ([]domain.PromoWindow, error) {
	return r.promos, nil
}
func (r *fakeRepo) ReadEventUpliftRules(context.Context) ([]domain.EventUpliftRule, error) {
	return r.eventRules, nil
}
func (r *fakeRepo) ReadSettings(context.Context) (settings.Tree, error) {
	if r.tree == nil {
		return settings.Tree{}, nil
	}
	return r.tree, nil
}
func (r *fakeRepo) ReadHolidays(context.Context) ([]calendar.Holiday, error) { return r.holidays, nil }
func (r *fakeRepo) GetUnfulfilledOrders(_ context.Context, sku string) ([]domain.OrderLog, error) {
	return r.unfulfilled[sku], nil
}
func (r *fakeRepo) AppendTransaction(_ context.Context, tx domain.Transaction) error {
	r.appended = append(r.appended, tx)
	return nil
}
func (r *fakeRepo) SaveOrderLog(_ context.Context, log domain.OrderLog) error {
	r.ordersLog = append(r.ordersLog, log)
	return nil
}
func (r *fakeRepo) SaveReceivingLog(_ context.Context, doc domain.ReceivingLog) error {
	r.receiving = append(r.receiving, doc)
	return nil
}
func (r *fakeRepo) IsReceivingProcessed(_ context.Context, documentID string) (bool, error) {
	return r.processed[documentID], nil
}

// day builds a UTC midnight date, the unit every fixture timestamp in this
// package is expressed in.
func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// snapshotTx is a SNAPSHOT ledger event, used to pin on_hand to an exact
// value as of a given date without needing a full sale/receipt history.
func snapshotTx(sku string, date time.Time, qty int) domain.Transaction {
	return domain.Transaction{SKU: sku, Date: date, Event: domain.EventSnapshot, Qty: qty}
}

// uniformSales builds days consecutive SalesRecords starting at start, each
// selling qty units, one per calendar day.
func uniformSales(sku string, start time.Time, days, qty int) []domain.SalesRecord {
	out := make([]domain.SalesRecord, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, domain.SalesRecord{SKU: sku, Date: start.AddDate(0, 0, i), QtySold: qty})
	}
	return out
}

// baseSKU returns a minimally-valid, non-perishable, legacy-policy SKU that
// individual tests override fields on.
func baseSKU(sku string) domain.SKU {
	return domain.SKU{
		SKU:               sku,
		InAssortment:      true,
		PackSize:          1,
		MOQ:                1,
		LeadTimeDays:      7,
		ReviewPeriodDays:  7,
		SafetyStock:       0,
		MaxStock:          1 << 20,
		DemandVariability: domain.VariabilityStable,
	}
}

// buildTree assembles a settings.Tree from a flat map of dotted paths to
// leaf values, mirroring the shape a repository's ReadSettings returns
// (spec.md §6's nested settings tree, built here from a flat description
// since tests only ever need a handful of leaves at a time).
func buildTree(kv map[string]interface{}) settings.Tree {
	root := settings.Tree{}
	for path, value := range kv {
		insertLeaf(root, strings.Split(path, "."), value)
	}
	return root
}

func insertLeaf(tree settings.Tree, parts []string, value interface{}) {
	if len(parts) == 1 {
		tree[parts[0]] = settings.LeafNode(value)
		return
	}
	node, ok := tree[parts[0]]
	if !ok || node.Tree == nil {
		node = settings.TreeNode(settings.Tree{})
	}
	insertLeaf(node.Tree, parts[1:], value)
	tree[parts[0]] = node
}

// loadEngine wires a fakeRepo into a Collections/Engine pair the way
// cmd/server and cmd/reorderctl do via engine.Load + engine.New.
func loadEngine(t *testing.T, repo *fakeRepo) *Engine {
	t.Helper()
	col, err := Load(context.Background(), repo)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return New(repo, col)
}
