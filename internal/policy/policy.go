// Package policy computes the reorder point S from a forecasted demand
// distribution, in either legacy (fixed safety stock) or CSL (cycle service
// level) mode (spec.md §4.5).
package policy

import (
	"github.com/pinggolf/reorder-engine/internal/domain"
	"github.com/pinggolf/reorder-engine/internal/forecast"
)

// Settings bundles the service_level and closed_loop tunables spec.md §6
// places on policy resolution.
type Settings struct {
	DefaultCSL      float64
	MinCSLAbsolute  float64
	MaxCSLAbsolute  float64
	MaxAlphaEff     float64 // max_alpha_eff: ceiling after censoring boost
	CensorBoostStep float64 // alpha increase per percentage-point of censored periods

	ClusterCSLHigh       float64
	ClusterCSLStable     float64
	ClusterCSLLow        float64
	ClusterCSLSeasonal   float64
	ClusterCSLPerishable float64
	PerishableThresholdDays int

	QuantileMatchTolerance float64 // how close alpha must be to a quantile level to reuse it directly
}

// NewSettings returns the spec.md §6 defaults.
func NewSettings() Settings {
	return Settings{
		DefaultCSL:              0.95,
		MinCSLAbsolute:          0.50,
		MaxCSLAbsolute:          0.999,
		MaxAlphaEff:             0.999,
		CensorBoostStep:         0.002,
		ClusterCSLHigh:          0.98,
		ClusterCSLStable:        0.92,
		ClusterCSLLow:           0.90,
		ClusterCSLSeasonal:      0.95,
		ClusterCSLPerishable:    0.90,
		PerishableThresholdDays: 21,
		QuantileMatchTolerance:  0.01,
	}
}

// Result is policy's contribution to one OrderExplain row.
type Result struct {
	ReorderPoint        float64
	ReorderPointMethod  string // legacy | quantile | zscore
	QuantileUsed        float64 // the quantile level actually applied, when method == quantile
	AlphaTarget         float64
	AlphaEff            float64
	ZScore              float64
}

// Resolve computes S per spec.md §4.5. muP/sigmaP are the demand
// distribution after the modifier chain has been applied; quantiles, when
// non-nil, are the Monte Carlo quantile map keyed by level.
func Resolve(mode domain.PolicyMode, safetyStock int, muP, sigmaP float64, quantiles map[float64]float64, targetCSL float64, variability domain.DemandVariability, perishable bool, censoredFraction float64, settings Settings) Result {
	if mode == domain.PolicyLegacy {
		return Result{
			ReorderPoint:       muP + float64(safetyStock),
			ReorderPointMethod: "legacy",
		}
	}

	alphaTarget := targetCSL
	if alphaTarget <= 0 {
		alphaTarget = resolveClusterCSL(variability, perishable, settings)
	}
	alphaTarget = clip(alphaTarget, settings.MinCSLAbsolute, settings.MaxCSLAbsolute)

	alphaEff := boostForCensoring(alphaTarget, censoredFraction, settings)

	if level, ok := nearestQuantileLevel(quantiles, alphaEff, settings.QuantileMatchTolerance); ok {
		return Result{
			ReorderPoint:       quantiles[level],
			ReorderPointMethod: "quantile",
			QuantileUsed:       level,
			AlphaTarget:        alphaTarget,
			AlphaEff:           alphaEff,
		}
	}

	z := forecast.NormInvCDF(alphaEff)
	return Result{
		ReorderPoint:       muP + z*sigmaP,
		ReorderPointMethod: "zscore",
		AlphaTarget:        alphaTarget,
		AlphaEff:           alphaEff,
		ZScore:             z,
	}
}

// resolveClusterCSL implements the cluster lookup per Open Question 2:
// resolve by demand_variability first, then substitute the perishable
// value as an override when the SKU is perishable.
func resolveClusterCSL(variability domain.DemandVariability, perishable bool, settings Settings) float64 {
	base := settings.ClusterCSLStable
	switch variability {
	case domain.VariabilityHigh:
		base = settings.ClusterCSLHigh
	case domain.VariabilityLow:
		base = settings.ClusterCSLLow
	case domain.VariabilitySeasonal:
		base = settings.ClusterCSLSeasonal
	case domain.VariabilityStable:
		base = settings.ClusterCSLStable
	}
	if perishable {
		return settings.ClusterCSLPerishable
	}
	return base
}

// boostForCensoring raises alpha (up to MaxAlphaEff) when censoredFraction
// (fraction of lookback days that were out-of-stock-censored) is high,
// since a censored history understates true demand and a naive quantile
// would under-order (spec.md §4.5).
func boostForCensoring(alpha, censoredFraction float64, settings Settings) float64 {
	boosted := alpha + censoredFraction*100*settings.CensorBoostStep
	if boosted > settings.MaxAlphaEff {
		boosted = settings.MaxAlphaEff
	}
	if boosted < alpha {
		return alpha
	}
	return boosted
}

func nearestQuantileLevel(quantiles map[float64]float64, alpha, tolerance float64) (float64, bool) {
	if len(quantiles) == 0 {
		return 0, false
	}
	best := 0.0
	bestDist := tolerance
	found := false
	for level := range quantiles {
		dist := level - alpha
		if dist < 0 {
			dist = -dist
		}
		if dist <= tolerance && (!found || dist < bestDist) {
			best = level
			bestDist = dist
			found = true
		}
	}
	return best, found
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
