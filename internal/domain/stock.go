package domain

import "time"

// Stock is the derived snapshot of a SKU's position at a date. It is
// computed by folding the ledger (internal/ledger) and is never itself the
// ground truth — spec.md §3: "never stored as the ground truth".
type Stock struct {
	SKU             string
	AsofDate        time.Time
	OnHand          int
	OnOrder         int
	UnfulfilledQty  int
}

// Valid reports the stock invariants from spec.md §8 property 1:
// on_hand >= 0 and on_order >= 0.
func (s Stock) Valid() bool {
	return s.OnHand >= 0 && s.OnOrder >= 0
}
