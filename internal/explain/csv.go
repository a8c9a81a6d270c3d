// Package explain assembles the per-SKU OrderExplain audit record from the
// outputs of every pipeline stage and exports batches of them to CSV
// (spec.md §4.7, §6).
package explain

import (
	"encoding/csv"
	"io"

	"github.com/pinggolf/reorder-engine/internal/domain"
)

// WriteCSV writes rows to w in the exact column order spec.md §6 mandates,
// one row per SKU with no gaps — a failed SKU still contributes its
// zero-filled, error-populated row (spec.md §4.7).
func WriteCSV(w io.Writer, rows []domain.OrderExplain) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(domain.ExplainColumns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row.Row()); err != nil {
			return err
		}
	}
	return writer.Error()
}
