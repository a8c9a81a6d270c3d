// Package ledger folds the append-only transaction log into a stock
// snapshot as of a target date, per spec.md §4.1.
package ledger

import (
	"sort"
	"time"

	"github.com/pinggolf/reorder-engine/internal/domain"
)

// StockAsof folds every transaction for sku up to and including date
// (spec.md §4.1: "the state immediately at end of the target date
// (inclusive)") and returns the resulting Stock. Transactions for other
// SKUs are ignored; callers index by SKU once per batch per spec.md §9
// (Arena / index pattern) rather than re-filtering a shared slice per call.
func StockAsof(sku string, date time.Time, transactions []domain.Transaction) (domain.Stock, error) {
	day := truncateToDay(date)

	relevant := make([]domain.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if t.SKU != sku {
			continue
		}
		if !domain.ValidKind(t.Event) {
			return domain.Stock{}, domain.InvalidLedgerError(
				"unknown ledger event kind for sku "+sku, nil)
		}
		if truncateToDay(t.Date).After(day) {
			continue
		}
		relevant = append(relevant, t)
	}

	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].Less(relevant[j])
	})

	var s domain.Stock
	s.SKU = sku
	s.AsofDate = day

	for _, t := range relevant {
		switch t.Event {
		case domain.EventSnapshot:
			s.OnHand = t.Qty
		case domain.EventAdjust:
			s.OnHand = t.Qty
		case domain.EventSale, domain.EventWaste:
			s.OnHand -= t.Qty
		case domain.EventReceipt:
			s.OnOrder -= t.Qty
			s.OnHand += t.Qty
		case domain.EventOrder:
			s.OnOrder += t.Qty
		case domain.EventUnfulfilled:
			s.OnOrder -= t.Qty
		case domain.EventAssortmentIn, domain.EventAssortmentOut:
			// no stock effect; assortment windows only affect censoring
		}
	}

	if s.OnHand < 0 {
		s.OnHand = 0
	}
	if s.OnOrder < 0 {
		s.OnOrder = 0
	}

	return s, nil
}

// StockAll is the vectorised form of StockAsof across many SKUs.
func StockAll(skus []string, date time.Time, transactions []domain.Transaction) (map[string]domain.Stock, error) {
	bySKU := indexBySKU(transactions)
	out := make(map[string]domain.Stock, len(skus))
	for _, sku := range skus {
		stock, err := StockAsof(sku, date, bySKU[sku])
		if err != nil {
			return nil, err
		}
		out[sku] = stock
	}
	return out, nil
}

func indexBySKU(transactions []domain.Transaction) map[string][]domain.Transaction {
	idx := make(map[string][]domain.Transaction)
	for _, t := range transactions {
		idx[t.SKU] = append(idx[t.SKU], t)
	}
	return idx
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
