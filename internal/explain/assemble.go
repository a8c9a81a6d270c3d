package explain

import (
	"fmt"
	"time"

	"github.com/pinggolf/reorder-engine/internal/constraints"
	"github.com/pinggolf/reorder-engine/internal/domain"
	"github.com/pinggolf/reorder-engine/internal/forecast"
	"github.com/pinggolf/reorder-engine/internal/modifiers"
	"github.com/pinggolf/reorder-engine/internal/policy"
)

// Input bundles every pipeline stage's output for one SKU decision. Fields
// are zero-valued when a stage did not run (e.g. no cannibalisation driver
// was active), which Assemble renders as the schema's "absent numerics are
// zero, absent strings empty" (spec.md §6).
type Input struct {
	SKU                  string
	AsofDate             time.Time
	ReceiptDate          time.Time
	ProtectionPeriodDays int
	PolicyMode           domain.PolicyMode

	Forecast               forecast.Result
	IntermittentClassifier string

	Uplift  modifiers.UpliftResult
	Event   modifiers.EventResult
	Cooldown modifiers.CooldownResult
	Downlift modifiers.DownliftResult

	Policy policy.Result

	InventoryPosition constraints.InventoryPositionResult
	OnHand            int
	UsableStock       constraints.UsableStockResult
	UnfulfilledQty    int

	OrderRaw     int
	OrderRounded int
	OrderFinal   int

	Caps           constraints.CapsResult
	ConstraintPack bool
	ConstraintMOQ  bool
	SimulationUsed bool

	HistoryValidDays int
	OOSDaysCount     int
	OOSBoostApplied  bool

	Notes []string
}

// Assemble builds the OrderExplain record from a completed pipeline run
// (spec.md §4.7: "OrderExplain is the machine-readable audit record with
// every input, intermediate, multiplier, cap, fallback, and method label").
func Assemble(in Input) domain.OrderExplain {
	quantiles := make(map[string]float64, len(in.Forecast.Quantiles))
	for level, v := range in.Forecast.Quantiles {
		quantiles[fmt.Sprintf("%.2f", level)] = v
	}

	eventReason := in.Event.Reason
	if eventReason == "" && in.Event.Scope != "" {
		eventReason = "beta_scope:" + in.Event.Scope
	}

	return domain.OrderExplain{
		SKU:                    in.SKU,
		AsofDate:               in.AsofDate,
		ReceiptDate:            in.ReceiptDate,
		ProtectionPeriodDays:   in.ProtectionPeriodDays,
		PolicyMode:             string(in.PolicyMode),
		ForecastMethod:         string(in.Forecast.Meta.ChosenMethod),
		IntermittentClassifier: in.IntermittentClassifier,

		DemandMuP:            in.Forecast.MuP,
		DemandSigmaP:         in.Forecast.SigmaP,
		DemandForecastMethod: string(in.Forecast.Meta.ChosenMethod),
		DemandMCNSimulations: 0,
		DemandMCRandomSeed:   in.Forecast.Meta.Seed,
		DemandMCDistribution: in.Forecast.Meta.DistributionFamily,
		DemandMCHorizonDays:  in.ProtectionPeriodDays,
		DemandQuantiles:      quantiles,

		ReorderPoint:       in.Policy.ReorderPoint,
		ReorderPointMethod: in.Policy.ReorderPointMethod,
		QuantileUsed:       in.Policy.QuantileUsed,
		CSLAlphaTarget:     in.Policy.AlphaTarget,
		CSLAlphaEff:        in.Policy.AlphaEff,
		CSLZScore:          in.Policy.ZScore,

		InventoryPosition: in.InventoryPosition.InventoryPosition,
		OnHand:            in.OnHand,
		UsableStock:       float64(in.UsableStock.UsableStock),
		UnusableStock:     float64(in.UsableStock.UnusableStock),
		OnOrder:           in.InventoryPosition.OnOrder,
		UnfulfilledQty:    in.UnfulfilledQty,
		WasteRiskPercent:  in.UsableStock.WasteRiskPercent,

		UpliftFactor:     in.Uplift.Factor,
		UpliftConfidence: in.Uplift.Confidence,
		UpliftPooling:    in.Uplift.PoolingSource,

		EventMi:        in.Event.Multiplier,
		EventReason:    eventReason,
		EventUStoreDay: in.Event.UStoreDay,
		EventBetaI:     in.Event.Beta,

		PostPromoFactor:     in.Cooldown.Factor,
		PostPromoDipFactor:  in.Cooldown.DipFactor,
		PostPromoCapApplied: in.Cooldown.CapApplied,

		DownliftFactor:     in.Downlift.Factor,
		DownliftDriverSKU:  in.Downlift.DriverSKU,
		DownliftConfidence: in.Downlift.Confidence,

		OrderRaw:     in.OrderRaw,
		OrderRounded: in.OrderRounded,
		OrderFinal:   in.OrderFinal,

		ConstraintPack:      in.ConstraintPack,
		ConstraintMOQ:       in.ConstraintMOQ,
		ConstraintMaxStock:  in.Caps.MaxStockApplied,
		ConstraintShelfLife: in.Caps.ShelfLifeApplied,
		ConstraintDetails:   constraintDetails(in.Caps),
		SimulationUsed:      in.SimulationUsed,

		HistoryValidDays: in.HistoryValidDays,
		OOSDaysCount:     in.OOSDaysCount,
		OOSBoostApplied:  in.OOSBoostApplied,

		Notes: in.Notes,
	}
}

func constraintDetails(caps constraints.CapsResult) string {
	if !caps.MaxStockApplied && !caps.ShelfLifeApplied && !caps.PostPromoCapApplied {
		return ""
	}
	details := ""
	if caps.MaxStockApplied {
		details += "max_stock;"
	}
	if caps.ShelfLifeApplied {
		details += "shelf_life;"
	}
	if caps.PostPromoCapApplied {
		details += "post_promo_cap;"
	}
	return details
}
