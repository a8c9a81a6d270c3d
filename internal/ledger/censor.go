package ledger

import (
	"sort"
	"time"

	"github.com/pinggolf/reorder-engine/internal/domain"
)

// OOSDetectionMode selects whether out-of-stock censoring considers on_hand
// alone (strict) or on_hand + on_order (relaxed), per the
// reorder_engine.oos_detection_mode setting (spec.md §6).
type OOSDetectionMode string

const (
	OOSStrict  OOSDetectionMode = "strict"
	OOSRelaxed OOSDetectionMode = "relaxed"
)

// IsDayCensored reports whether day's demand is unobservable for sku,
// per spec.md §4.1: out of assortment, strict/relaxed OOS for the full
// day, or an explicit OOS_ESTIMATE_OVERRIDE note.
func IsDayCensored(sku string, day time.Time, transactions []domain.Transaction, mode OOSDetectionMode) (bool, error) {
	if outOfAssortment(sku, day, transactions) {
		return true, nil
	}
	if hasOverrideNote(sku, day, transactions) {
		return true, nil
	}

	stock, err := StockAsof(sku, day, transactions)
	if err != nil {
		return false, err
	}
	if stock.OnHand == 0 {
		if mode == OOSRelaxed {
			return stock.OnOrder == 0, nil
		}
		return true, nil
	}
	return false, nil
}

func outOfAssortment(sku string, day time.Time, transactions []domain.Transaction) bool {
	d := truncateToDay(day)
	var events []domain.Transaction
	for _, t := range transactions {
		if t.SKU != sku {
			continue
		}
		if t.Event != domain.EventAssortmentIn && t.Event != domain.EventAssortmentOut {
			continue
		}
		events = append(events, t)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })

	inAssortment := true // default: SKU starts in assortment
	for _, e := range events {
		if truncateToDay(e.Date).After(d) {
			break
		}
		inAssortment = e.Event == domain.EventAssortmentIn
	}
	return !inAssortment
}

func hasOverrideNote(sku string, day time.Time, transactions []domain.Transaction) bool {
	d := truncateToDay(day)
	for _, t := range transactions {
		if t.SKU == sku && truncateToDay(t.Date).Equal(d) && t.Note == domain.NoteOOSEstimateOverride {
			return true
		}
	}
	return false
}

// DemandAverage computes the daily-average demand over [start, end]
// (inclusive), excluding censored days from both the numerator and the
// denominator, per spec.md §8 property 9: censored days must not depress
// the mean.
func DemandAverage(sku string, start, end time.Time, sales []domain.SalesRecord, transactions []domain.Transaction, mode OOSDetectionMode) (float64, int, error) {
	bySKU := make(map[time.Time]int)
	for _, r := range sales {
		if r.SKU == sku {
			bySKU[truncateToDay(r.Date)] = r.QtySold
		}
	}

	sum := 0
	validDays := 0
	for d := truncateToDay(start); !d.After(truncateToDay(end)); d = d.AddDate(0, 0, 1) {
		censored, err := IsDayCensored(sku, d, transactions, mode)
		if err != nil {
			return 0, 0, err
		}
		if censored {
			continue
		}
		sum += bySKU[d]
		validDays++
	}
	if validDays == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(validDays), validDays, nil
}
