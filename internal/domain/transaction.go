package domain

import "time"

// EventKind enumerates the ledger event types from spec.md §3.
type EventKind string

const (
	EventSnapshot      EventKind = "SNAPSHOT"
	EventSale          EventKind = "SALE"
	EventReceipt       EventKind = "RECEIPT"
	EventOrder         EventKind = "ORDER"
	EventWaste         EventKind = "WASTE"
	EventAdjust        EventKind = "ADJUST"
	EventUnfulfilled   EventKind = "UNFULFILLED"
	EventAssortmentIn  EventKind = "ASSORTMENT_IN"
	EventAssortmentOut EventKind = "ASSORTMENT_OUT"
)

// rank orders events that fall on the same calendar day so that absolute
// events (SNAPSHOT, ADJUST) are folded before deltas, per spec.md §4.1:
// "rank places SNAPSHOT and ADJUST before other events on the same day".
func (k EventKind) rank() int {
	switch k {
	case EventSnapshot, EventAdjust:
		return 0
	default:
		return 1
	}
}

// NoteOOSEstimateOverride is the free-text note value that forces a day to
// be treated as censored regardless of the folded on_hand/on_order figures
// (spec.md §4.1: "carried an explicit OOS_ESTIMATE_OVERRIDE note").
const NoteOOSEstimateOverride = "OOS_ESTIMATE_OVERRIDE"

// Transaction is one immutable, append-only ledger event. Corrections are
// new events, never edits (spec.md §3).
type Transaction struct {
	Date        time.Time
	SKU         string
	Event       EventKind
	Qty         int // signed for ADJUST's semantics; non-negative otherwise
	ReceiptDate *time.Time // set on ORDER events
	Note        string
}

// Less defines the strict ascending total order ledger folding requires:
// (date, event-kind rank), per spec.md §4.1 and §5 ("deterministic total
// order"). Ties beyond that are stable in whatever order the caller already
// has them (folding does not otherwise need a tiebreaker).
func (t Transaction) Less(other Transaction) bool {
	if !t.Date.Equal(other.Date) {
		return t.Date.Before(other.Date)
	}
	return t.Event.rank() < other.Event.rank()
}

// ValidKind reports whether k is one of the recognised event kinds. Ledger
// folding raises InvalidLedgerError on an unrecognised kind.
func ValidKind(k EventKind) bool {
	switch k {
	case EventSnapshot, EventSale, EventReceipt, EventOrder, EventWaste,
		EventAdjust, EventUnfulfilled, EventAssortmentIn, EventAssortmentOut:
		return true
	default:
		return false
	}
}
