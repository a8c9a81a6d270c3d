package modifiers

import (
	"time"

	"github.com/pinggolf/reorder-engine/internal/domain"
	"github.com/pinggolf/reorder-engine/internal/forecast"
)

// Series bundles one scope's (a SKU, or a pool of SKUs flattened together)
// chronological demand history and the promo windows observed against it.
type Series struct {
	ScopeName string // "sku" | "category" | "department" | "global"
	History   []forecast.HistoryPoint
	Promos    []domain.PromoWindow
}

// UpliftResult is promo-uplift's contribution to one OrderExplain row.
type UpliftResult struct {
	Factor        float64
	Confidence    string // A | B | C
	PoolingSource string // sku | category | department | global | none
	EventsUsed    int
}

// EstimateUplift walks scopes in hierarchy order (typically sku, category,
// department, global) and uses the first scope that meets MinEventsSKU and
// MinValidDaysSKU, recording which scope supplied the estimate (spec.md
// §4.4's pooling_source).
func EstimateUplift(scopes []Series, fc forecast.Settings, settings Settings) UpliftResult {
	for _, s := range scopes {
		ratios, validDays := eventRatios(s, fc, settings)
		if len(ratios) >= settings.MinEventsSKU && validDays >= settings.MinValidDaysSKU {
			factor := clip(winsorizedMean(ratios, settings.TrimPercent), settings.MinUplift, settings.MaxUplift)
			return UpliftResult{
				Factor:        factor,
				Confidence:    confidenceGrade(s.ScopeName, len(ratios), settings),
				PoolingSource: s.ScopeName,
				EventsUsed:    len(ratios),
			}
		}
	}
	return UpliftResult{Factor: 1.0, Confidence: "C", PoolingSource: "none"}
}

// confidenceGrade implements spec.md §4.4: A = sku-level at/above threshold_a
// events, B = sku-level below threshold_a or category/department pooled,
// C = global pool or no data.
func confidenceGrade(scopeName string, events int, settings Settings) string {
	switch scopeName {
	case "sku":
		if events >= settings.ThresholdA {
			return "A"
		}
		return "B"
	case "category", "department":
		return "B"
	default:
		return "C"
	}
}

// eventRatios computes one actual/baseline ratio per qualifying promo
// window in s (spec.md §4.4 / §8 property 7: the baseline forecast is
// trained strictly on data before the window's start date, so it never sees
// a row within or after the promo it is predicting).
func eventRatios(s Series, fc forecast.Settings, settings Settings) ([]float64, int) {
	var ratios []float64
	validDays := 0

	for _, window := range s.Promos {
		actual, days, ok := sumActual(s.History, window)
		if !ok {
			continue
		}
		baselineHistory := historyBefore(s.History, window.StartDate)
		if len(baselineHistory) == 0 {
			continue
		}
		horizonDays := daysInclusive(window.StartDate, window.EndDate)
		result, err := forecast.Simple(baselineHistory, horizonDays, fc)
		if err != nil || result.MuP < settings.EpsilonBaseline {
			continue
		}
		ratios = append(ratios, actual/result.MuP)
		validDays += days
	}
	return ratios, validDays
}

func sumActual(history []forecast.HistoryPoint, window domain.PromoWindow) (float64, int, bool) {
	total := 0.0
	days := 0
	for _, h := range history {
		if h.Censored {
			continue
		}
		if !window.Contains(h.Date) {
			continue
		}
		total += float64(h.Qty)
		days++
	}
	if days == 0 {
		return 0, 0, false
	}
	return total, days, true
}

// historyBefore returns the prefix of history strictly earlier than cutoff,
// assuming history is sorted ascending by date (the anti-leakage cut for
// baseline training).
func historyBefore(history []forecast.HistoryPoint, cutoff time.Time) []forecast.HistoryPoint {
	var out []forecast.HistoryPoint
	for _, h := range history {
		if h.Date.Before(cutoff) {
			out = append(out, h)
		}
	}
	return out
}

func daysInclusive(start, end time.Time) int {
	d := int(end.Sub(start).Hours()/24) + 1
	if d < 1 {
		return 1
	}
	return d
}
