package domain

import "time"

// OrderProposal is the decision: how many units to order today, for
// delivery on ReceiptDate. It is a pure value, regenerated on demand and
// never persisted as authoritative (spec.md §3 Lifecycle).
type OrderProposal struct {
	SKU         string
	OrderDate   time.Time
	ReceiptDate time.Time
	Qty         int
	Notes       []string
	Error       string // populated, with Qty=0, when the SKU's decision failed
}
