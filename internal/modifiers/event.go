package modifiers

import (
	"time"

	"github.com/pinggolf/reorder-engine/internal/forecast"
)

// ScopedBetaSeries pairs one scope's SKU demand history with the store-wide
// demand history it is regressed against, for event-uplift sensitivity
// estimation.
type ScopedBetaSeries struct {
	ScopeName    string // "sku" | "category" | "department" | "ALL"
	SKUHistory   []forecast.HistoryPoint
	StoreHistory []forecast.HistoryPoint
}

// EventResult is event-uplift's contribution to one OrderExplain row.
type EventResult struct {
	Multiplier float64
	UStoreDay  float64
	Beta       float64
	Scope      string // which scope in the fallback chain supplied beta
	Reason     string
}

// StoreDayQuantile computes U_store_day: the alpha-quantile of store-wide
// demand on days sharing targetDate's weekday, looking back at most
// similarDaysWindow matching occurrences and excluding censored days
// (spec.md §4.4).
func StoreDayQuantile(storeHistory []forecast.HistoryPoint, targetDate time.Time, alpha float64, similarDaysWindow int) (float64, int) {
	var matching []float64
	weekday := targetDate.Weekday()
	for i := len(storeHistory) - 1; i >= 0 && len(matching) < similarDaysWindow; i-- {
		h := storeHistory[i]
		if h.Censored || h.Date.Weekday() != weekday || !h.Date.Before(targetDate) {
			continue
		}
		matching = append(matching, float64(h.Qty))
	}
	if len(matching) == 0 {
		return 0, 0
	}
	return quantileOf(matching, alpha), len(matching)
}

// ResolveBeta implements the Open Question 1 resolution: walk scopes in
// hierarchy order (sku, category, department, ALL) and use the first scope
// whose sample count meets minSamplesBeta; a scope lacking samples
// contributes a neutral beta of 0 rather than aborting, and beta is 0 only
// once every scope, including ALL, lacks enough samples.
func ResolveBeta(scopes []ScopedBetaSeries, minSamplesBeta int) (beta float64, samples int, scopeUsed string) {
	for _, s := range scopes {
		b, n := linearBeta(s.SKUHistory, s.StoreHistory)
		if n >= minSamplesBeta {
			return b, n, s.ScopeName
		}
	}
	return 0, 0, "none"
}

// linearBeta regresses the SKU's demand (normalised by its own mean) on the
// store's demand (normalised by its own mean) over overlapping dates,
// returning the OLS slope.
func linearBeta(skuHistory, storeHistory []forecast.HistoryPoint) (float64, int) {
	storeByDate := make(map[time.Time]float64, len(storeHistory))
	for _, h := range storeHistory {
		if !h.Censored {
			storeByDate[h.Date] = float64(h.Qty)
		}
	}

	var skuVals, storeVals []float64
	for _, h := range skuHistory {
		if h.Censored {
			continue
		}
		if v, ok := storeByDate[h.Date]; ok {
			skuVals = append(skuVals, float64(h.Qty))
			storeVals = append(storeVals, v)
		}
	}
	n := len(skuVals)
	if n < 2 {
		return 0, n
	}

	skuMean, storeMean := mean(skuVals), mean(storeVals)
	if skuMean == 0 || storeMean == 0 {
		return 0, n
	}

	var num, den float64
	for i := 0; i < n; i++ {
		x := storeVals[i]/storeMean - 1
		y := skuVals[i]/skuMean - 1
		num += x * y
		den += x * x
	}
	if den == 0 {
		return 0, n
	}
	return num / den, n
}

// Multiplier computes m_i = 1 + strength*beta*(uStoreDay-1), clipped to
// [minFactor, maxFactor] (spec.md §4.4).
func Multiplier(uStoreDay, beta, strength, minFactor, maxFactor float64) float64 {
	m := 1 + strength*beta*(uStoreDay-1)
	return clip(m, minFactor, maxFactor)
}

func quantileOf(xs []float64, level float64) float64 {
	sorted := append([]float64(nil), xs...)
	// simple insertion sort is fine here: similarDaysWindow is small (~8-30)
	for i := 1; i < len(sorted); i++ {
		j := i
		for j > 0 && sorted[j] < sorted[j-1] {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
			j--
		}
	}
	if level <= 0 {
		return sorted[0]
	}
	if level >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := level * float64(len(sorted)-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
