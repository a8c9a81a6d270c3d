package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/pinggolf/reorder-engine/internal/domain"
)

func dailyHistory(start time.Time, qty []int) []HistoryPoint {
	history := make([]HistoryPoint, len(qty))
	for i, q := range qty {
		history[i] = HistoryPoint{Date: start.AddDate(0, 0, i), Qty: q}
	}
	return history
}

func TestMonteCarlo_DeterministicAcrossRuns(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	qty := make([]int, 60)
	for i := range qty {
		qty[i] = 10 + (i % 5)
	}
	history := dailyHistory(start, qty)
	settings := NewSettings()

	first, err := MonteCarlo(history, 7, settings)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := MonteCarlo(history, 7, settings)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.MuP != second.MuP || first.SigmaP != second.SigmaP {
		t.Fatalf("expected identical mu/sigma across runs, got (%v,%v) vs (%v,%v)",
			first.MuP, first.SigmaP, second.MuP, second.SigmaP)
	}
	for level, q := range first.Quantiles {
		if second.Quantiles[level] != q {
			t.Fatalf("quantile %v mismatch: %v vs %v", level, q, second.Quantiles[level])
		}
	}
}

func TestMonteCarlo_FallsBackBelowMinSamples(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	history := dailyHistory(start, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	settings := NewSettings()
	settings.MCNSimulations = 5 // below minMCSamples

	result, err := MonteCarlo(history, 7, settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Meta.FallbackReason != "fallback_to_simple" {
		t.Fatalf("expected fallback_to_simple, got %q", result.Meta.FallbackReason)
	}
}

func TestCroston_ForecastsPerDayRate(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	qty := make([]int, 40)
	for i := 0; i < len(qty); i += 5 {
		qty[i] = 4
	}
	history := dailyHistory(start, qty)
	settings := NewSettings()

	result, err := Croston(history, 7, settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MuP <= 0 {
		t.Fatalf("expected positive forecast, got %v", result.MuP)
	}
	if result.Meta.DistributionFamily != "croston" {
		t.Fatalf("expected croston distribution family, got %q", result.Meta.DistributionFamily)
	}
}

func TestSBA_DiscountsCrostonByAlphaOverTwo(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	qty := make([]int, 40)
	for i := 0; i < len(qty); i += 5 {
		qty[i] = 4
	}
	history := dailyHistory(start, qty)
	settings := NewSettings()

	croston, err := Croston(history, 7, settings)
	if err != nil {
		t.Fatalf("croston: %v", err)
	}
	sba, err := SBA(history, 7, settings)
	if err != nil {
		t.Fatalf("sba: %v", err)
	}
	if sba.MuP >= croston.MuP {
		t.Fatalf("expected sba forecast (%v) to be below croston's (%v) bias-correction", sba.MuP, croston.MuP)
	}
}

func TestTSB_ProducesPositiveForecastOnIntermittentDemand(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	qty := make([]int, 40)
	for i := 0; i < len(qty); i += 4 {
		qty[i] = 3
	}
	history := dailyHistory(start, qty)
	settings := NewSettings()

	result, err := TSB(history, 7, settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MuP <= 0 {
		t.Fatalf("expected positive forecast, got %v", result.MuP)
	}
	if result.Meta.DistributionFamily != "tsb" {
		t.Fatalf("expected tsb distribution family, got %q", result.Meta.DistributionFamily)
	}
}

// TestClassifyIntermittency_S6 mirrors the intermittent scenario: 90 days of
// history with 8 non-zero days of quantity 3, spaced roughly every 11 days,
// so ADI (~11) clears the 1.32 threshold and the classifier should route to
// an intermittent method rather than simple.
func TestClassifyIntermittency_S6(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	qty := make([]int, 90)
	for i := 10; i < len(qty); i += 11 {
		qty[i] = 3
	}
	history := dailyHistory(start, qty)
	settings := NewSettings()

	method, meta := ClassifyIntermittency(history, settings)

	if meta.ADI <= settings.ADIThreshold {
		t.Fatalf("expected ADI above threshold %v, got %v", settings.ADIThreshold, meta.ADI)
	}
	switch method {
	case domain.MethodCroston, domain.MethodSBA, domain.MethodTSB:
	default:
		t.Fatalf("expected an intermittent-family method, got %q", method)
	}
}

func TestPredict_LowHistoryShortCircuits(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	history := dailyHistory(start, []int{1, 2, 3})
	settings := NewSettings()

	result, err := Predict(domain.MethodSimple, history, 7, start.AddDate(0, 0, 3), settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Meta.LowHistory || result.MuP != 0 {
		t.Fatalf("expected low_history zero forecast, got %+v", result)
	}
}

func TestPredict_RejectsMalformedHistory(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	history := []HistoryPoint{
		{Date: start, Qty: -1},
	}
	settings := NewSettings()

	_, err := Predict(domain.MethodSimple, history, 7, start, settings)
	if err == nil {
		t.Fatal("expected ForecastError on negative quantity")
	}
}

func TestNormInvCDF_MatchesKnownValues(t *testing.T) {
	got := NormInvCDF(0.5)
	if math.Abs(got) > 1e-6 {
		t.Fatalf("expected NormInvCDF(0.5) ~= 0, got %v", got)
	}
	got95 := NormInvCDF(0.95)
	if math.Abs(got95-1.6448536) > 1e-4 {
		t.Fatalf("expected NormInvCDF(0.95) ~= 1.6449, got %v", got95)
	}
}

func TestQuantile_Interpolates(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	if q := quantile(xs, 0); q != 1 {
		t.Fatalf("expected min at level 0, got %v", q)
	}
	if q := quantile(xs, 1); q != 5 {
		t.Fatalf("expected max at level 1, got %v", q)
	}
	if q := quantile(xs, 0.5); q != 3 {
		t.Fatalf("expected median 3, got %v", q)
	}
}
