package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/pinggolf/reorder-engine/internal/fixtures"
)

var (
	seedSKUCount    int
	seedHistoryDays int
	seedRandomSeed  uint64
	seedOut         string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate a synthetic but internally-consistent demonstration dataset",
	Long: `seed fabricates SKU master data, a folded-consistent stock ledger, sales
history, a promo calendar, event uplift rules, and holidays, then writes
them as CSV files plus settings.json — the same layout internal/repository/csvrepo
reads, ready for propose/batch or for import into sqlite/postgres.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := seedOut
		if out == "" {
			out = resolvedConfig.CSVDataDir
		}

		gen := fixtures.NewGenerator(seedRandomSeed)
		ds := gen.Generate(fixtures.Options{
			SKUCount:    seedSKUCount,
			HistoryDays: seedHistoryDays,
			Asof:        time.Now(),
		})

		if err := fixtures.WriteCSV(ds, out); err != nil {
			return err
		}
		cmd.Printf("seeded %d SKUs, %d transactions, %d sales rows into %s\n", len(ds.SKUs), len(ds.Transactions), len(ds.Sales), out)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedSKUCount, "sku-count", 50, "number of SKUs to generate")
	seedCmd.Flags().IntVar(&seedHistoryDays, "history-days", 180, "days of sales/ledger history to back-fill")
	seedCmd.Flags().Uint64Var(&seedRandomSeed, "seed", 42, "deterministic generator seed")
	seedCmd.Flags().StringVar(&seedOut, "out", "", "output directory (default: --data-dir)")
}
