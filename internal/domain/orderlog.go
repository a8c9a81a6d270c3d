package domain

import "time"

// OrderLogStatus enumerates the lifecycle of one purchase order line.
type OrderLogStatus string

const (
	OrderPending OrderLogStatus = "PENDING"
	OrderPartial OrderLogStatus = "PARTIAL"
	OrderClosed  OrderLogStatus = "CLOSED"
)

// OrderLog is the transactional record of one placed purchase order.
type OrderLog struct {
	OrderID      string
	SKU          string
	OrderDate    time.Time
	ReceiptDate  time.Time
	QtyOrdered   int
	QtyReceived  int
	Status       OrderLogStatus
}

// Remaining is the quantity still outstanding on this order.
func (o OrderLog) Remaining() int {
	r := o.QtyOrdered - o.QtyReceived
	if r < 0 {
		return 0
	}
	return r
}

// ReceivingLog is one receiving event against one or more OrderLogs,
// keyed by DocumentID for idempotency (spec.md §3, §5).
type ReceivingLog struct {
	DocumentID  string // idempotency key
	SKU         string
	ReceiptDate time.Time
	QtyReceived int
	OrderIDs    []string // explicit allocation; empty means implicit FIFO
}
