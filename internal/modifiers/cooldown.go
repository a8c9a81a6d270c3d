package modifiers

import (
	"time"

	"github.com/pinggolf/reorder-engine/internal/domain"
	"github.com/pinggolf/reorder-engine/internal/forecast"
)

// CooldownResult is post-promo guardrail's contribution to one OrderExplain
// row.
type CooldownResult struct {
	Applied    bool
	Factor     float64 // 1.0 when not applied
	DipFactor  float64 // the estimated/constant factor before the applied gate
	CapApplied bool
}

// EstimateCooldown checks whether r1 lands within CooldownWindowDays of the
// end of a historical promo for this SKU (spec.md §4.4). When it does, it
// either applies the configured constant CooldownFactor or estimates a
// dip_factor the same way promo uplift estimates events, but over the
// post-promo window immediately following each historical promo.
func EstimateCooldown(series Series, r1 time.Time, fc forecast.Settings, settings Settings) CooldownResult {
	withinWindow := false
	for _, promo := range series.Promos {
		daysAfter := int(r1.Sub(promo.EndDate).Hours() / 24)
		if daysAfter >= 0 && daysAfter <= settings.CooldownWindowDays {
			withinWindow = true
			break
		}
	}
	if !withinWindow {
		return CooldownResult{Applied: false, Factor: 1.0}
	}

	if settings.CooldownFactor > 0 {
		return CooldownResult{
			Applied:    true,
			Factor:     settings.CooldownFactor,
			DipFactor:  settings.CooldownFactor,
			CapApplied: settings.PostPromoAbsoluteCap > 0,
		}
	}

	postWindows := make([]domain.PromoWindow, 0, len(series.Promos))
	for _, promo := range series.Promos {
		postWindows = append(postWindows, domain.PromoWindow{
			SKU:       promo.SKU,
			StartDate: promo.EndDate.AddDate(0, 0, 1),
			EndDate:   promo.EndDate.AddDate(0, 0, settings.CooldownWindowDays),
		})
	}
	postSeries := Series{ScopeName: series.ScopeName, History: series.History, Promos: postWindows}
	ratios, _ := eventRatios(postSeries, fc, settings)
	if len(ratios) == 0 {
		return CooldownResult{Applied: true, Factor: 1.0, DipFactor: 1.0}
	}

	dip := clip(median(ratios), settings.DipFloor, settings.DipCeiling)
	return CooldownResult{
		Applied:    true,
		Factor:     dip,
		DipFactor:  dip,
		CapApplied: settings.PostPromoAbsoluteCap > 0,
	}
}
