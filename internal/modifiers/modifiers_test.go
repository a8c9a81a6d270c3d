package modifiers

import (
	"testing"
	"time"

	"github.com/pinggolf/reorder-engine/internal/domain"
	"github.com/pinggolf/reorder-engine/internal/forecast"
)

func dailyHistory(start time.Time, qty []int) []forecast.HistoryPoint {
	history := make([]forecast.HistoryPoint, len(qty))
	for i, q := range qty {
		history[i] = forecast.HistoryPoint{Date: start.AddDate(0, 0, i), Qty: q}
	}
	return history
}

// TestEstimateUplift_AntiLeakage verifies spec.md §8 property 7: the
// baseline used for an event's denominator never sees data on or after the
// event's start date, by constructing a promo window whose "after" days
// carry an extreme spike that would distort the baseline if leaked in.
func TestEstimateUplift_AntiLeakage(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	qty := make([]int, 60)
	for i := range qty {
		qty[i] = 10
	}
	// promo window: days 30-36 at triple demand
	for i := 30; i < 37; i++ {
		qty[i] = 30
	}
	// a later, unrelated spike that must never leak into the promo's
	// baseline even though it is part of the same series
	for i := 50; i < 55; i++ {
		qty[i] = 1000
	}
	history := dailyHistory(start, qty)

	promo := domain.PromoWindow{
		SKU:       "X",
		StartDate: start.AddDate(0, 0, 30),
		EndDate:   start.AddDate(0, 0, 36),
	}
	series := Series{ScopeName: "sku", History: history, Promos: []domain.PromoWindow{promo}}

	fc := forecast.NewSettings()
	settings := NewSettings()
	settings.MinEventsSKU = 1
	settings.MinValidDaysSKU = 1

	result := EstimateUplift([]Series{series}, fc, settings)
	if result.Factor < 2.5 || result.Factor > 3.5 {
		t.Fatalf("expected uplift factor near 3.0 (unpolluted by the later spike), got %v", result.Factor)
	}
}

func TestEstimateUplift_FallsBackThroughScopeHierarchy(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	skuHistory := dailyHistory(start, []int{1, 1, 1, 1, 1})
	categoryHistory := dailyHistory(start, make([]int, 60))
	for i := range categoryHistory {
		categoryHistory[i].Qty = 10
	}
	for i := 30; i < 37; i++ {
		categoryHistory[i].Qty = 20
	}

	skuSeries := Series{ScopeName: "sku", History: skuHistory}
	categorySeries := Series{
		ScopeName: "category",
		History:   categoryHistory,
		Promos: []domain.PromoWindow{{
			StartDate: start.AddDate(0, 0, 30),
			EndDate:   start.AddDate(0, 0, 36),
		}},
	}

	fc := forecast.NewSettings()
	settings := NewSettings()
	settings.MinEventsSKU = 1
	settings.MinValidDaysSKU = 1

	result := EstimateUplift([]Series{skuSeries, categorySeries}, fc, settings)
	if result.PoolingSource != "category" {
		t.Fatalf("expected fallback to category scope, got %q", result.PoolingSource)
	}
	if result.Confidence != "B" {
		t.Fatalf("expected confidence B for pooled scope, got %q", result.Confidence)
	}
}

func TestWinsorizedMean_ClampsTails(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 100}
	got := winsorizedMean(xs, 0.2)
	if got >= 50 {
		t.Fatalf("expected winsorised mean to clamp the outlier, got %v", got)
	}
}

func TestEstimateCooldown_AppliesWithinWindow(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	history := dailyHistory(start, make([]int, 60))
	promo := domain.PromoWindow{StartDate: start.AddDate(0, 0, 10), EndDate: start.AddDate(0, 0, 16)}
	series := Series{ScopeName: "sku", History: history, Promos: []domain.PromoWindow{promo}}

	settings := NewSettings()
	settings.CooldownFactor = 0.7
	fc := forecast.NewSettings()

	r1 := start.AddDate(0, 0, 20) // 4 days after promo end, within 7-day window
	result := EstimateCooldown(series, r1, fc, settings)
	if !result.Applied || result.Factor != 0.7 {
		t.Fatalf("expected constant cooldown factor 0.7 applied, got %+v", result)
	}
}

func TestEstimateCooldown_NotAppliedOutsideWindow(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	history := dailyHistory(start, make([]int, 60))
	promo := domain.PromoWindow{StartDate: start.AddDate(0, 0, 10), EndDate: start.AddDate(0, 0, 16)}
	series := Series{ScopeName: "sku", History: history, Promos: []domain.PromoWindow{promo}}

	settings := NewSettings()
	fc := forecast.NewSettings()

	r1 := start.AddDate(0, 0, 40)
	result := EstimateCooldown(series, r1, fc, settings)
	if result.Applied || result.Factor != 1.0 {
		t.Fatalf("expected no cooldown far outside the window, got %+v", result)
	}
}

func TestEstimateCannibalization_PicksPrimaryDriver(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	targetHistory := dailyHistory(start, make([]int, 60))
	for i := range targetHistory {
		targetHistory[i].Qty = 10
	}
	// strong downlift during peerA's promo
	for i := 20; i < 27; i++ {
		targetHistory[i].Qty = 2
	}
	// mild downlift during peerB's promo
	for i := 35; i < 42; i++ {
		targetHistory[i].Qty = 8
	}
	target := Series{ScopeName: "sku", History: targetHistory}

	// r1 falls inside peerA's promo only, so B is not a candidate driver at r1.
	r1 := start.AddDate(0, 0, 20)
	peers := []Peer{
		{SKU: "A", Promos: []domain.PromoWindow{{StartDate: start.AddDate(0, 0, 20), EndDate: start.AddDate(0, 0, 26)}}},
		{SKU: "B", Promos: []domain.PromoWindow{{StartDate: start.AddDate(0, 0, 35), EndDate: start.AddDate(0, 0, 41)}}},
	}

	fc := forecast.NewSettings()
	settings := NewSettings()
	settings.DownliftMinEvents = 1
	settings.DownliftMinValidDays = 1

	result := EstimateCannibalization(target, peers, r1, fc, settings)
	if result.DriverSKU != "A" {
		t.Fatalf("expected peer A (the only peer on promo at r1) as primary driver, got %q", result.DriverSKU)
	}
	if result.Factor >= 1.0 {
		t.Fatalf("expected downlift factor below 1.0, got %v", result.Factor)
	}
}

func TestMultiplier_ClipsToBounds(t *testing.T) {
	got := Multiplier(3.0, 2.0, 1.0, 0.5, 1.5)
	if got != 1.5 {
		t.Fatalf("expected multiplier clipped to max 1.5, got %v", got)
	}
	got = Multiplier(0.1, 2.0, 1.0, 0.5, 1.5)
	if got != 0.5 {
		t.Fatalf("expected multiplier clipped to min 0.5, got %v", got)
	}
}

func TestResolveBeta_NeutralWhenNoScopeHasSamples(t *testing.T) {
	scopes := []ScopedBetaSeries{
		{ScopeName: "sku"},
		{ScopeName: "category"},
		{ScopeName: "department"},
		{ScopeName: "ALL"},
	}
	beta, samples, scope := ResolveBeta(scopes, 8)
	if beta != 0 || samples != 0 || scope != "none" {
		t.Fatalf("expected neutral beta fallback, got beta=%v samples=%v scope=%q", beta, samples, scope)
	}
}
