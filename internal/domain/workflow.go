package domain

import "time"

// ConfirmOrder builds the ORDER ledger transaction and the corresponding
// OrderLog for a newly placed purchase order. It is a pure, value-in/
// value-out helper: the caller's workflow (out of core scope per spec.md
// §1) is responsible for appending the transaction and persisting the log.
func ConfirmOrder(orderID, sku string, orderDate, receiptDate time.Time, qty int) (Transaction, OrderLog) {
	rd := receiptDate
	txn := Transaction{
		Date:        orderDate,
		SKU:         sku,
		Event:       EventOrder,
		Qty:         qty,
		ReceiptDate: &rd,
	}
	log := OrderLog{
		OrderID:     orderID,
		SKU:         sku,
		OrderDate:   orderDate,
		ReceiptDate: receiptDate,
		QtyOrdered:  qty,
		QtyReceived: 0,
		Status:      OrderPending,
	}
	return txn, log
}

// CloseReceiving closes a receiving document against one or more open
// orders. When qtyReceived falls short of the orders' outstanding total it
// auto-emits an UNFULFILLED transaction for the shortfall, per spec.md §3:
// "Auto-emitted by the receiving close when qty_received < qty_ordered."
//
// Allocation across multiple open orders for the same SKU is FIFO by
// ReceiptDate when the ReceivingLog carries no explicit OrderIDs (spec.md
// §3: "or implicit FIFO allocation").
//
// Replaying the same DocumentID against orders that already reflect it is
// the caller's responsibility to detect (spec.md §5 idempotency via
// document_id); CloseReceiving itself is a pure computation and does not
// consult prior state beyond the orders slice it is given.
func CloseReceiving(doc ReceivingLog, openOrders []OrderLog) ([]Transaction, []OrderLog, error) {
	if doc.DocumentID == "" {
		return nil, nil, InvalidInputError("receiving document_id must not be empty", nil)
	}
	if doc.QtyReceived < 0 {
		return nil, nil, InvalidInputError("qty_received must be >= 0", nil)
	}

	targets := selectOrders(doc, openOrders)
	fifoSort(targets)

	remaining := doc.QtyReceived
	var txns []Transaction
	var updated []OrderLog

	for _, o := range targets {
		if remaining <= 0 {
			updated = append(updated, o)
			continue
		}
		outstanding := o.Remaining()
		if outstanding <= 0 {
			updated = append(updated, o)
			continue
		}
		applied := minInt(outstanding, remaining)
		remaining -= applied

		rcv := o
		rcv.QtyReceived += applied
		if rcv.Remaining() == 0 {
			rcv.Status = OrderClosed
		} else {
			rcv.Status = OrderPartial
		}
		updated = append(updated, rcv)

		txns = append(txns, Transaction{
			Date:  doc.ReceiptDate,
			SKU:   doc.SKU,
			Event: EventReceipt,
			Qty:   applied,
		})
	}

	shortfall := totalOrderedQty(targets) - doc.QtyReceived
	if shortfall > 0 {
		txns = append(txns, Transaction{
			Date:  doc.ReceiptDate,
			SKU:   doc.SKU,
			Event: EventUnfulfilled,
			Qty:   shortfall,
			Note:  "auto-emitted: qty_received < qty_ordered for document " + doc.DocumentID,
		})
	}

	return txns, updated, nil
}

func totalOrderedQty(orders []OrderLog) int {
	sum := 0
	for _, o := range orders {
		sum += o.Remaining()
	}
	return sum
}

func selectOrders(doc ReceivingLog, openOrders []OrderLog) []OrderLog {
	if len(doc.OrderIDs) > 0 {
		wanted := make(map[string]bool, len(doc.OrderIDs))
		for _, id := range doc.OrderIDs {
			wanted[id] = true
		}
		var out []OrderLog
		for _, o := range openOrders {
			if wanted[o.OrderID] {
				out = append(out, o)
			}
		}
		return out
	}
	var out []OrderLog
	for _, o := range openOrders {
		if o.SKU == doc.SKU && o.Remaining() > 0 {
			out = append(out, o)
		}
	}
	return out
}

func fifoSort(orders []OrderLog) {
	for i := 1; i < len(orders); i++ {
		j := i
		for j > 0 && orders[j].ReceiptDate.Before(orders[j-1].ReceiptDate) {
			orders[j], orders[j-1] = orders[j-1], orders[j]
			j--
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
