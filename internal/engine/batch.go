package engine

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/pinggolf/reorder-engine/internal/calendar"
	"github.com/pinggolf/reorder-engine/internal/domain"
)

// batchResult pairs one SKU's decision with its original position, so
// worker-pool completion order can be resequenced back to deterministic SKU
// order before returning (spec.md §5: "proposal order is deterministic
// regardless of goroutine scheduling").
type batchResult struct {
	index    int
	proposal domain.OrderProposal
	explain  domain.OrderExplain
}

// ProposeBatch runs ExplainOrder for every in-assortment SKU, parallelised
// across a bounded worker pool (SPEC_FULL.md §5), grounded on the teacher's
// bounded-concurrency bulk-operation worker pattern. One SKU's internal
// failure never aborts the batch — ExplainOrder zero-fills and records the
// error, consistent with explain_order's per-SKU error isolation contract.
func (e *Engine) ProposeBatch(ctx context.Context, orderDate time.Time, lane calendar.Lane) ([]domain.OrderProposal, []domain.OrderExplain, error) {
	skus := e.Collections.InAssortmentSKUs()
	workers := e.workerCount()

	jobs := make(chan int)
	results := make(chan batchResult, len(skus))

	for w := 0; w < workers; w++ {
		go func() {
			for i := range jobs {
				sku := skus[i]
				ex := e.ExplainOrder(ctx, sku, orderDate, lane)
				proposal := domain.OrderProposal{
					SKU:         sku,
					OrderDate:   orderDate,
					ReceiptDate: ex.ReceiptDate,
					Qty:         ex.OrderFinal,
					Notes:       ex.Notes,
					Error:       ex.Error,
				}
				results <- batchResult{index: i, proposal: proposal, explain: ex}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range skus {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	ordered := make([]batchResult, len(skus))
	received := 0
	for received < len(skus) {
		select {
		case r := <-results:
			ordered[r.index] = r
			received++
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].index < ordered[j].index })

	proposals := make([]domain.OrderProposal, len(ordered))
	explains := make([]domain.OrderExplain, len(ordered))
	for i, r := range ordered {
		proposals[i] = r.proposal
		explains[i] = r.explain
	}
	return proposals, explains, nil
}

func (e *Engine) workerCount() int {
	if e.Settings.MaxConcurrentSKUs > 0 {
		return e.Settings.MaxConcurrentSKUs
	}
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	return n
}
