package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pinggolf/reorder-engine/internal/engine"
	"github.com/pinggolf/reorder-engine/internal/explain"
)

var (
	batchOrderDate string
	batchLane      string
	batchOut       string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Propose reorder decisions for every in-assortment SKU",
	Long: `batch runs the full pipeline across the repository's in-assortment SKUs,
concurrently, and exports one audit row per SKU to CSV via internal/explain.WriteCSV.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		orderDate, lane, err := parseOrderDateAndLane(batchOrderDate, batchLane)
		if err != nil {
			return err
		}

		repo, closer, err := openRepository(resolvedConfig)
		if err != nil {
			return err
		}
		defer closer()

		ctx := context.Background()
		collections, err := engine.Load(ctx, repo)
		if err != nil {
			return err
		}
		eng := engine.New(repo, collections)

		_, explains, err := eng.ProposeBatch(ctx, orderDate, lane)
		if err != nil {
			return err
		}

		out := os.Stdout
		if batchOut != "" {
			f, err := os.Create(batchOut)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := explain.WriteCSV(f, explains); err != nil {
				return err
			}
			cmd.Printf("wrote %d rows to %s\n", len(explains), batchOut)
			return nil
		}

		return explain.WriteCSV(out, explains)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchOrderDate, "order-date", "", "order date, YYYY-MM-DD (default: today)")
	batchCmd.Flags().StringVar(&batchLane, "lane", "STANDARD", "delivery lane: STANDARD | SATURDAY | MONDAY")
	batchCmd.Flags().StringVar(&batchOut, "out", "", "CSV output path (default: stdout)")
}
