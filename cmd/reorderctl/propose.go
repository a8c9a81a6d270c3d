package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/pinggolf/reorder-engine/internal/calendar"
	"github.com/pinggolf/reorder-engine/internal/engine"
)

var (
	proposeSKU       string
	proposeOrderDate string
	proposeLane      string
)

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Propose a reorder decision for a single SKU",
	RunE: func(cmd *cobra.Command, args []string) error {
		if proposeSKU == "" {
			return cmdErrorf("--sku is required")
		}
		orderDate, lane, err := parseOrderDateAndLane(proposeOrderDate, proposeLane)
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

		proposal, ex, err := eng.ProposeOrderForSKU(ctx, proposeSKU, orderDate, lane, nil)
		if err != nil {
			return err
		}

		cmd.Printf("sku=%s order_date=%s receipt_date=%s qty=%d\n", proposal.SKU, proposal.OrderDate.Format("2006-01-02"), proposal.ReceiptDate.Format("2006-01-02"), proposal.Qty)
		if proposal.Error != "" {
			cmd.Printf("error: %s\n", proposal.Error)
		}
		for _, n := range ex.Notes {
			cmd.Printf("note: %s\n", n)
		}
		return nil
	},
}

func init() {
	proposeCmd.Flags().StringVar(&proposeSKU, "sku", "", "SKU to propose (required)")
	proposeCmd.Flags().StringVar(&proposeOrderDate, "order-date", "", "order date, YYYY-MM-DD (default: today)")
	proposeCmd.Flags().StringVar(&proposeLane, "lane", "STANDARD", "delivery lane: STANDARD | SATURDAY | MONDAY")
}

func parseOrderDateAndLane(dateFlag, laneFlag string) (time.Time, calendar.Lane, error) {
	orderDate := time.Now()
	if dateFlag != "" {
		d, err := time.Parse("2006-01-02", dateFlag)
		if err != nil {
			return time.Time{}, "", cmdErrorf("invalid --order-date %q: %v", dateFlag, err)
		}
		orderDate = d
	}

	lane := calendar.Lane(laneFlag)
	switch lane {
	case calendar.LaneStandard, calendar.LaneSaturday, calendar.LaneMonday:
	default:
		return time.Time{}, "", cmdErrorf("invalid --lane %q", laneFlag)
	}
	return orderDate, lane, nil
}
