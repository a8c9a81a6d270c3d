package engine

import (
	"context"
	"testing"

	"github.com/pinggolf/reorder-engine/internal/calendar"
	"github.com/pinggolf/reorder-engine/internal/domain"
)

// TestProposeBatch_DeterministicOrder runs a batch across SKUs loaded in
// non-alphabetical order and asserts the output always comes back in the
// same lexical order as Collections.InAssortmentSKUs, regardless of which
// worker finishes first.
func TestProposeBatch_DeterministicOrder(t *testing.T) {
	historyStart := day(2026, 1, 1)
	asof := historyStart.AddDate(0, 0, 19) // 20 days, clears min_valid_history_days

	codes := []string{"SKU5", "SKU3", "SKU1", "SKU4", "SKU2"} // deliberately unsorted
	var skus []domain.SKU
	var transactions []domain.Transaction
	var sales []domain.SalesRecord
	for _, code := range codes {
		s := baseSKU(code)
		s.LeadTimeDays = 7
		s.ReviewPeriodDays = 7
		s.MaxStock = 1 << 20
		skus = append(skus, s)
		transactions = append(transactions, snapshotTx(code, historyStart, 1))
		sales = append(sales, uniformSales(code, historyStart, 20, 5)...)
	}

	repo := &fakeRepo{
		skus:         skus,
		transactions: transactions,
		sales:        sales,
		unfulfilled:  map[string][]domain.OrderLog{},
	}
	e := loadEngine(t, repo)

	wantOrder := e.Collections.InAssortmentSKUs()
	if len(wantOrder) != len(codes) {
		t.Fatalf("InAssortmentSKUs returned %d skus, want %d", len(wantOrder), len(codes))
	}

	for attempt := 0; attempt < 5; attempt++ {
		proposals, explains, err := e.ProposeBatch(context.Background(), asof, calendar.LaneStandard)
		if err != nil {
			t.Fatalf("ProposeBatch: %v", err)
		}
		if len(proposals) != len(wantOrder) || len(explains) != len(wantOrder) {
			t.Fatalf("ProposeBatch returned %d proposals / %d explains, want %d", len(proposals), len(explains), len(wantOrder))
		}
		for i, want := range wantOrder {
			if proposals[i].SKU != want {
				t.Errorf("attempt %d: proposals[%d].SKU = %q, want %q", attempt, i, proposals[i].SKU, want)
			}
			if explains[i].SKU != want {
				t.Errorf("attempt %d: explains[%d].SKU = %q, want %q", attempt, i, explains[i].SKU, want)
			}
		}
	}
}

// TestProposeBatch_OneBadSKUDoesNotAbortTheRest confirms batch isolation:
// one SKU with an invalid structural parameter yields a zero-filled row
// carrying an error, while the other SKU still gets its normal row, rather
// than failing the whole batch.
func TestProposeBatch_OneBadSKUDoesNotAbortTheRest(t *testing.T) {
	historyStart := day(2026, 1, 1)
	asof := historyStart.AddDate(0, 0, 19)

	good := baseSKU("GOOD")
	good.LeadTimeDays = 7
	good.ReviewPeriodDays = 7
	good.MaxStock = 1 << 20

	bad := baseSKU("BAD")
	bad.PackSize = 0 // fails SKU.Validate()

	repo := &fakeRepo{
		skus: []domain.SKU{good, bad},
		transactions: []domain.Transaction{
			snapshotTx("GOOD", historyStart, 1),
			snapshotTx("BAD", historyStart, 1),
		},
		sales: append(
			uniformSales("GOOD", historyStart, 20, 5),
			uniformSales("BAD", historyStart, 20, 5)...,
		),
		unfulfilled: map[string][]domain.OrderLog{},
	}
	e := loadEngine(t, repo)

	proposals, explains, err := e.ProposeBatch(context.Background(), asof, calendar.LaneStandard)
	if err != nil {
		t.Fatalf("ProposeBatch: %v", err)
	}
	if len(proposals) != 2 || len(explains) != 2 {
		t.Fatalf("got %d proposals / %d explains, want 2 each", len(proposals), len(explains))
	}

	var badExplain, goodExplain *domain.OrderExplain
	for i := range explains {
		switch explains[i].SKU {
		case "BAD":
			badExplain = &explains[i]
		case "GOOD":
			goodExplain = &explains[i]
		}
	}
	if badExplain == nil || goodExplain == nil {
		t.Fatalf("expected one GOOD and one BAD explain row")
	}
	if badExplain.Error == "" {
		t.Errorf("BAD sku's explain row should carry a non-empty Error")
	}
	if goodExplain.Error != "" {
		t.Errorf("GOOD sku's explain row should not carry an error, got %q", goodExplain.Error)
	}
}
