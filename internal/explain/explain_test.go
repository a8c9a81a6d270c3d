package explain

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pinggolf/reorder-engine/internal/domain"
	"github.com/pinggolf/reorder-engine/internal/forecast"
)

func TestAssemble_FillsEveryField(t *testing.T) {
	in := Input{
		SKU:                  "SKU-1",
		AsofDate:             time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC),
		ReceiptDate:          time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC),
		ProtectionPeriodDays: 7,
		PolicyMode:           domain.PolicyCSL,
		Forecast: forecast.Result{
			MuP:    100,
			SigmaP: 15,
			Meta:   forecast.Meta{ChosenMethod: domain.MethodSimple},
		},
		OrderRaw:     90,
		OrderRounded: 100,
		OrderFinal:   100,
	}

	row := Assemble(in)
	if row.SKU != "SKU-1" || row.OrderFinal != 100 {
		t.Fatalf("expected assembled row to carry through sku and order_final, got %+v", row)
	}
	if row.ForecastMethod != string(domain.MethodSimple) {
		t.Fatalf("expected forecast method carried through, got %q", row.ForecastMethod)
	}
}

func TestWriteCSV_EmitsOneRowPerSKUWithNoGaps(t *testing.T) {
	rows := []domain.OrderExplain{
		domain.ZeroOrderExplain("SKU-A", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "ledger error"),
		Assemble(Input{SKU: "SKU-B", OrderFinal: 42}),
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 { // header + 2 rows
		t.Fatalf("expected 3 lines (header + 2 rows), got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], "ledger error") {
		t.Fatalf("expected error row to carry its reason, got %q", lines[1])
	}
}
