package constraints

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestInventoryPosition_CombinesOnHandInTransitAndUnfulfilled(t *testing.T) {
	result := InventoryPosition(InventoryPositionInput{
		OnHand:         50,
		InTransit:      []InTransitReceipt{{Qty: 30, ReceiptDate: day(5)}, {Qty: 20, ReceiptDate: day(12)}},
		UnfulfilledQty: 5,
		DailyDemand:    2,
		AsofDate:       day(0),
		R1:             day(10),
	})
	// in-transit arriving by r1 (day10): only the day5 receipt (30), not day12's
	if result.OnOrder != 30 {
		t.Fatalf("expected on_order=30 (only receipts at or before r1), got %v", result.OnOrder)
	}
	expectedIP := 50.0 + 30.0 - 2.0*10 - 5.0
	if result.InventoryPosition != expectedIP {
		t.Fatalf("expected IP=%v, got %v", expectedIP, result.InventoryPosition)
	}
}

func TestUsableStock_NonPerishableIsFullyUsable(t *testing.T) {
	result := UsableStock(UsableStockInput{OnHand: 100, ShelfLifeDays: 0})
	if result.UsableStock != 100 || result.WasteRiskPercent != 0 {
		t.Fatalf("expected all stock usable for non-perishable SKU, got %+v", result)
	}
}

func TestUsableStock_LotsExpiringBeforeMidpointAreUnusable(t *testing.T) {
	result := UsableStock(UsableStockInput{
		OnHand:         100,
		HasExpiryLabel: true,
		Lots:           []Lot{{Qty: 40, ExpiryDate: day(5)}, {Qty: 60, ExpiryDate: day(20)}},
		ShelfLifeDays:  14,
		ProtectionMid:  day(10),
	})
	if result.UnusableStock != 40 || result.UsableStock != 60 {
		t.Fatalf("expected 40 unusable / 60 usable, got %+v", result)
	}
	if result.WasteRiskPercent != 40 {
		t.Fatalf("expected waste_risk_percent=40, got %v", result.WasteRiskPercent)
	}
}

// TestRound_SatisfiesRoundingContract verifies spec.md §8 property 5.
func TestRound_SatisfiesRoundingContract(t *testing.T) {
	q, err := Round(23, 10, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q < 23 || q%10 != 0 || q < 5 {
		t.Fatalf("rounding contract violated: q=%v", q)
	}
	if q != 30 {
		t.Fatalf("expected 23 rounded up to 30, got %v", q)
	}
}

func TestRound_ZeroStaysZero(t *testing.T) {
	q, err := Round(0, 10, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q != 0 {
		t.Fatalf("expected Q_raw=0 to stay 0, got %v", q)
	}
}

func TestRound_BumpsToMOQWhenBelow(t *testing.T) {
	q, err := Round(3, 10, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q < 25 {
		t.Fatalf("expected q bumped to at least MOQ 25, got %v", q)
	}
	if q%10 != 0 {
		t.Fatalf("expected q to remain a pack multiple, got %v", q)
	}
}

func TestRound_RejectsNonPositivePackOrMOQ(t *testing.T) {
	if _, err := Round(10, 0, 5); err == nil {
		t.Fatal("expected ConstraintViolation error for pack_size=0")
	}
	if _, err := Round(10, 5, -1); err == nil {
		t.Fatal("expected ConstraintViolation error for negative moq")
	}
}

func TestApplyCaps_MaxStockClipsToCapacity(t *testing.T) {
	result := ApplyCaps(200, CapsInput{IPAtR1: 50, MaxStock: 100})
	if !result.MaxStockApplied || result.Q != 50 {
		t.Fatalf("expected max-stock cap to clip to 50, got %+v", result)
	}
}

func TestApplyCaps_ShelfLifeClipsAndWarns(t *testing.T) {
	result := ApplyCaps(100, CapsInput{DailyDemand: 2, ShelfLifeDays: 10})
	if !result.ShelfLifeApplied || !result.ShelfLifeWarning || result.Q != 20 {
		t.Fatalf("expected shelf-life cap to clip to 20 with a warning, got %+v", result)
	}
}

func TestApplyWastePenalty_SoftReducesProportionally(t *testing.T) {
	q := ApplyWastePenalty(100, 50, Settings{WasteRiskThreshold: 20, WastePenaltyMode: "soft", WastePenaltyFactor: 0.3})
	if q != 70 {
		t.Fatalf("expected soft penalty to leave 70, got %v", q)
	}
}

func TestApplyWastePenalty_HardSubtractsFixedAmount(t *testing.T) {
	q := ApplyWastePenalty(100, 50, Settings{WasteRiskThreshold: 20, WastePenaltyMode: "hard", WastePenaltyFactor: 0.3})
	if q != 70 {
		t.Fatalf("expected hard penalty to subtract 30, got %v", q)
	}
}

func TestApplyWastePenalty_NoPenaltyBelowThreshold(t *testing.T) {
	q := ApplyWastePenalty(100, 10, Settings{WasteRiskThreshold: 20, WastePenaltyMode: "soft", WastePenaltyFactor: 0.5})
	if q != 100 {
		t.Fatalf("expected no penalty below threshold, got %v", q)
	}
}

func TestShouldSimulate_TriggersForPackHeavyIntermittentDemand(t *testing.T) {
	if !ShouldSimulate(5, 1, 24) {
		t.Fatal("expected simulation to trigger when pack covers many days of demand")
	}
	if ShouldSimulate(5, 10, 24) {
		t.Fatal("expected no simulation when the pack does not span several days of demand")
	}
}

func TestSimulateDayByDay_OrdersWhenIPDipsBelowOnePack(t *testing.T) {
	demand := []float64{1, 1, 1, 1}
	result := SimulateDayByDay(5, demand, 24)
	if result.PacksUsed != 1 {
		t.Fatalf("expected exactly one pack ordered across 4 light-demand days, got %v", result.PacksUsed)
	}
	if result.Q != 24 {
		t.Fatalf("expected Q=24, got %v", result.Q)
	}
}
