package modifiers

import (
	"time"

	"github.com/pinggolf/reorder-engine/internal/domain"
	"github.com/pinggolf/reorder-engine/internal/forecast"
)

// Peer is one candidate cannibalisation driver: another SKU in the same
// substitute group, with its own promo calendar.
type Peer struct {
	SKU    string
	Promos []domain.PromoWindow
}

// DownliftResult is cannibalisation's contribution to one OrderExplain row.
type DownliftResult struct {
	Factor     float64 // 1.0 when no driver is active
	DriverSKU  string
	Confidence string // A | B | C, reusing the uplift grading scale
}

// EstimateCannibalization finds peers on promo at r1 (the target's own
// promo state at r1 is not checked), computes each candidate driver's
// downlift_ratio over past days when the driver was on promo and the target
// was not, and applies the primary driver — the one with the
// smallest median ratio, i.e. the largest depressive impact (spec.md §4.4).
func EstimateCannibalization(target Series, peers []Peer, r1 time.Time, fc forecast.Settings, settings Settings) DownliftResult {
	targetInPromoAt := func(d time.Time) bool {
		for _, w := range target.Promos {
			if w.Contains(d) {
				return true
			}
		}
		return false
	}

	type candidate struct {
		sku    string
		ratio  float64
		events int
	}
	var candidates []candidate

	for _, peer := range peers {
		activeNow := false
		for _, w := range peer.Promos {
			if w.Contains(r1) {
				activeNow = true
				break
			}
		}
		if !activeNow {
			continue
		}

		var ratios []float64
		validDays := 0
		for _, w := range peer.Promos {
			actual, baseline, days, ok := targetDemandDuring(target, w, targetInPromoAt, fc, settings)
			if !ok {
				continue
			}
			ratios = append(ratios, actual/baseline)
			validDays += days
		}
		if len(ratios) < settings.DownliftMinEvents || validDays < settings.DownliftMinValidDays {
			continue
		}
		candidates = append(candidates, candidate{
			sku:    peer.SKU,
			ratio:  clip(median(ratios), settings.DownliftMin, settings.DownliftMax),
			events: len(ratios),
		})
	}

	if len(candidates) == 0 {
		return DownliftResult{Factor: 1.0}
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.ratio < best.ratio {
			best = c
		}
	}

	confidence := "B"
	if best.events >= settings.ThresholdA {
		confidence = "A"
	}
	return DownliftResult{Factor: best.ratio, DriverSKU: best.sku, Confidence: confidence}
}

// targetDemandDuring sums the target's actual demand across the days in w
// where the target itself was not on promo, and its anti-leakage baseline
// forecast (trained on data strictly before w.StartDate) over the same span.
func targetDemandDuring(target Series, w domain.PromoWindow, targetInPromoAt func(time.Time) bool, fc forecast.Settings, settings Settings) (actual, baseline float64, days int, ok bool) {
	for _, h := range target.History {
		if h.Censored || !w.Contains(h.Date) || targetInPromoAt(h.Date) {
			continue
		}
		actual += float64(h.Qty)
		days++
	}
	if days == 0 {
		return 0, 0, 0, false
	}

	baselineHistory := historyBefore(target.History, w.StartDate)
	if len(baselineHistory) == 0 {
		return 0, 0, 0, false
	}
	result, err := forecast.Simple(baselineHistory, days, fc)
	if err != nil || result.MuP < settings.EpsilonBaseline {
		return 0, 0, 0, false
	}
	return actual, result.MuP, days, true
}
