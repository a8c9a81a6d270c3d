package policy

import (
	"testing"

	"github.com/pinggolf/reorder-engine/internal/domain"
)

func TestResolve_LegacyIsFixedSafetyStock(t *testing.T) {
	settings := NewSettings()
	result := Resolve(domain.PolicyLegacy, 20, 100, 15, nil, 0, domain.VariabilityStable, false, 0, settings)
	if result.ReorderPointMethod != "legacy" {
		t.Fatalf("expected legacy method, got %q", result.ReorderPointMethod)
	}
	if result.ReorderPoint != 120 {
		t.Fatalf("expected S = mu_P + safety_stock = 120, got %v", result.ReorderPoint)
	}
}

// TestResolve_CSLMonotonic verifies spec.md §8 property 4: increasing alpha
// must produce a non-decreasing S under CSL mode.
func TestResolve_CSLMonotonic(t *testing.T) {
	settings := NewSettings()
	muP, sigmaP := 100.0, 20.0

	var prev float64
	for i, alpha := range []float64{0.80, 0.90, 0.95, 0.98, 0.99} {
		result := Resolve(domain.PolicyCSL, 0, muP, sigmaP, nil, alpha, domain.VariabilityStable, false, 0, settings)
		if i > 0 && result.ReorderPoint < prev {
			t.Fatalf("expected S non-decreasing as alpha increases, got %v after %v at alpha=%v", result.ReorderPoint, prev, alpha)
		}
		prev = result.ReorderPoint
	}
}

func TestResolve_CSLUsesQuantileWhenAvailable(t *testing.T) {
	settings := NewSettings()
	quantiles := map[float64]float64{0.50: 90, 0.90: 130, 0.95: 150}

	result := Resolve(domain.PolicyCSL, 0, 100, 20, quantiles, 0.95, domain.VariabilityStable, false, 0, settings)
	if result.ReorderPointMethod != "quantile" {
		t.Fatalf("expected quantile method when alpha matches a quantile level, got %q", result.ReorderPointMethod)
	}
	if result.ReorderPoint != 150 {
		t.Fatalf("expected S = Q(0.95) = 150, got %v", result.ReorderPoint)
	}
}

func TestResolve_CSLFallsBackToZScoreWithoutMatchingQuantile(t *testing.T) {
	settings := NewSettings()
	quantiles := map[float64]float64{0.50: 90}

	result := Resolve(domain.PolicyCSL, 0, 100, 20, quantiles, 0.95, domain.VariabilityStable, false, 0, settings)
	if result.ReorderPointMethod != "zscore" {
		t.Fatalf("expected zscore fallback, got %q", result.ReorderPointMethod)
	}
	if result.ReorderPoint <= 100 {
		t.Fatalf("expected S above mu_P for alpha=0.95, got %v", result.ReorderPoint)
	}
}

func TestResolveClusterCSL_PerishabilityOverridesVariability(t *testing.T) {
	settings := NewSettings()
	result := Resolve(domain.PolicyCSL, 0, 100, 20, nil, 0, domain.VariabilityHigh, true, 0, settings)
	if result.AlphaTarget != settings.ClusterCSLPerishable {
		t.Fatalf("expected perishable cluster CSL %v to override high-variability cluster, got %v",
			settings.ClusterCSLPerishable, result.AlphaTarget)
	}
}

func TestBoostForCensoring_IncreasesAlphaUpToCap(t *testing.T) {
	settings := NewSettings()
	settings.MaxAlphaEff = 0.97

	boosted := boostForCensoring(0.95, 0.50, settings)
	if boosted > settings.MaxAlphaEff {
		t.Fatalf("expected boosted alpha capped at %v, got %v", settings.MaxAlphaEff, boosted)
	}
	if boosted < 0.95 {
		t.Fatalf("expected boosted alpha to not decrease, got %v", boosted)
	}
}

func TestResolve_ReorderPointNeverNegative(t *testing.T) {
	settings := NewSettings()
	result := Resolve(domain.PolicyCSL, 0, 0, 0, nil, 0.95, domain.VariabilityLow, false, 0, settings)
	if result.ReorderPoint < 0 {
		t.Fatalf("expected S >= 0, got %v", result.ReorderPoint)
	}
}
