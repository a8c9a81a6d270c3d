package ledger

import (
	"testing"
	"time"

	"github.com/pinggolf/reorder-engine/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestStockAsof_AdjustOverridesSnapshot(t *testing.T) {
	txns := []domain.Transaction{
		{Date: day("2026-01-01"), SKU: "A", Event: domain.EventSnapshot, Qty: 100},
		{Date: day("2026-01-01"), SKU: "A", Event: domain.EventAdjust, Qty: 50},
	}
	s, err := StockAsof("A", day("2026-01-01"), txns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.OnHand != 50 {
		t.Errorf("OnHand = %d, want 50 (ADJUST sets absolute, not delta)", s.OnHand)
	}
}

func TestStockAsof_NeverNegative(t *testing.T) {
	txns := []domain.Transaction{
		{Date: day("2026-01-01"), SKU: "A", Event: domain.EventSnapshot, Qty: 5},
		{Date: day("2026-01-02"), SKU: "A", Event: domain.EventSale, Qty: 20},
	}
	s, err := StockAsof("A", day("2026-01-02"), txns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.OnHand < 0 {
		t.Errorf("OnHand = %d, want >= 0", s.OnHand)
	}
	if !s.Valid() {
		t.Errorf("stock invariant violated: %+v", s)
	}
}

func TestStockAsof_OrderThenReceipt(t *testing.T) {
	rd := day("2026-01-10")
	txns := []domain.Transaction{
		{Date: day("2026-01-01"), SKU: "A", Event: domain.EventOrder, Qty: 100, ReceiptDate: &rd},
		{Date: day("2026-01-10"), SKU: "A", Event: domain.EventReceipt, Qty: 100},
	}
	before, _ := StockAsof("A", day("2026-01-05"), txns)
	if before.OnOrder != 100 || before.OnHand != 0 {
		t.Errorf("before receipt: got on_order=%d on_hand=%d, want 100/0", before.OnOrder, before.OnHand)
	}
	after, _ := StockAsof("A", day("2026-01-10"), txns)
	if after.OnOrder != 0 || after.OnHand != 100 {
		t.Errorf("after receipt: got on_order=%d on_hand=%d, want 0/100", after.OnOrder, after.OnHand)
	}
}

func TestStockAsof_UnknownEventErrors(t *testing.T) {
	txns := []domain.Transaction{
		{Date: day("2026-01-01"), SKU: "A", Event: "BOGUS", Qty: 1},
	}
	_, err := StockAsof("A", day("2026-01-01"), txns)
	if err == nil {
		t.Fatal("expected InvalidLedgerError for unknown event kind")
	}
}

func TestIsDayCensored_StrictOOS(t *testing.T) {
	txns := []domain.Transaction{
		{Date: day("2026-01-01"), SKU: "A", Event: domain.EventSnapshot, Qty: 0},
	}
	censored, err := IsDayCensored("A", day("2026-01-01"), txns, OOSStrict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !censored {
		t.Error("expected day to be censored under strict OOS with on_hand=0")
	}
}

func TestIsDayCensored_AssortmentOut(t *testing.T) {
	txns := []domain.Transaction{
		{Date: day("2026-01-01"), SKU: "A", Event: domain.EventAssortmentOut, Qty: 0},
	}
	censored, err := IsDayCensored("A", day("2026-01-05"), txns, OOSStrict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !censored {
		t.Error("expected day to be censored while out of assortment")
	}
}

func TestDemandAverage_ExcludesCensoredDays(t *testing.T) {
	// 5-day strict-OOS window within a 10-day lookback: demand_average
	// should equal (non-OOS sum)/(non-OOS count), unaffected by the OOS days.
	var sales []domain.SalesRecord
	var txns []domain.Transaction
	for i := 0; i < 10; i++ {
		d := day("2026-01-01").AddDate(0, 0, i)
		if i < 5 {
			sales = append(sales, domain.SalesRecord{Date: d, SKU: "A", QtySold: 10})
			txns = append(txns, domain.Transaction{Date: d, SKU: "A", Event: domain.EventSnapshot, Qty: 5})
		} else {
			// OOS window: on_hand 0 for the full day
			txns = append(txns, domain.Transaction{Date: d, SKU: "A", Event: domain.EventSnapshot, Qty: 0})
		}
	}
	avg, validDays, err := DemandAverage("A", day("2026-01-01"), day("2026-01-10"), sales, txns, OOSStrict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if validDays != 5 {
		t.Errorf("validDays = %d, want 5", validDays)
	}
	if avg != 10 {
		t.Errorf("avg = %v, want 10 (OOS days must not depress the mean)", avg)
	}
}
