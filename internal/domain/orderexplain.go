package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OrderExplain is the machine-readable audit record for one SKU's decision.
// It reconstructs every multiplier, cap, input and fallback spec.md §6
// requires and is consistent by construction with its paired OrderProposal:
// both are produced by the same orchestration call.
//
// Every field must be present on every row (spec.md §6): absent numerics
// are zero, absent strings empty. ExplainColumns lists the exact export
// column order.
type OrderExplain struct {
	SKU                    string
	AsofDate               time.Time
	ReceiptDate            time.Time
	ProtectionPeriodDays   int
	PolicyMode             string
	ForecastMethod         string
	IntermittentClassifier string

	DemandMuP             float64
	DemandSigmaP          float64
	DemandForecastMethod  string
	DemandMCNSimulations  int
	DemandMCRandomSeed    int64
	DemandMCDistribution  string
	DemandMCHorizonDays   int
	DemandQuantiles       map[string]float64

	ReorderPoint       float64
	ReorderPointMethod string
	QuantileUsed       float64
	CSLAlphaTarget     float64
	CSLAlphaEff        float64
	CSLZScore          float64

	InventoryPosition float64
	OnHand            int
	UsableStock       float64
	UnusableStock     float64
	OnOrder           int
	UnfulfilledQty    int
	WasteRiskPercent  float64

	UpliftFactor     float64
	UpliftConfidence string
	UpliftPooling    string

	EventMi        float64
	EventReason    string
	EventUStoreDay float64
	EventBetaI     float64

	PostPromoFactor     float64
	PostPromoDipFactor  float64
	PostPromoCapApplied bool

	DownliftFactor     float64
	DownliftDriverSKU  string
	DownliftConfidence string

	OrderRaw     int
	OrderRounded int
	OrderFinal   int

	ConstraintPack      bool
	ConstraintMOQ       bool
	ConstraintMaxStock  bool
	ConstraintShelfLife bool
	ConstraintDetails   string
	SimulationUsed      bool

	HistoryValidDays int
	OOSDaysCount     int
	OOSBoostApplied  bool

	Error string
	Notes []string
}

// ZeroOrderExplain returns an explain record with every numeric field
// zero-filled and Error set, used when a SKU's decision fails internally so
// a batch export never has a gap (spec.md §4.7, §7).
func ZeroOrderExplain(sku string, asof time.Time, reason string) OrderExplain {
	return OrderExplain{
		SKU:      sku,
		AsofDate: asof,
		Error:    reason,
	}
}

// ExplainColumns is the exact export column order from spec.md §6.
var ExplainColumns = []string{
	"sku", "asof_date", "receipt_date", "protection_period_days",
	"policy_mode", "forecast_method", "intermittent_classifier",
	"demand.mu_P", "demand.sigma_P", "demand.forecast_method",
	"demand.mc_n_simulations", "demand.mc_random_seed", "demand.mc_distribution",
	"demand.mc_horizon_days", "demand.quantiles",
	"reorder_point", "reorder_point_method",
	"quantile_used", "csl_alpha_target", "csl_alpha_eff", "csl_z_score",
	"inventory_position", "on_hand", "usable_stock", "unusable_stock",
	"on_order", "unfulfilled_qty", "waste_risk_percent",
	"uplift_factor", "uplift_confidence", "uplift_pooling",
	"event_m_i", "event_reason", "event_u_store_day", "event_beta_i",
	"post_promo_factor", "post_promo_dip_factor", "post_promo_cap_applied",
	"downlift_factor", "downlift_driver_sku", "downlift_confidence",
	"order_raw", "order_rounded", "order_final",
	"constraint_pack", "constraint_moq", "constraint_max_stock",
	"constraint_shelf_life", "constraint_details", "simulation_used",
	"history_valid_days", "oos_days_count", "oos_boost_applied",
	"error", "notes",
}

// Row renders the record as one CSV row in ExplainColumns order.
func (e OrderExplain) Row() []string {
	return []string{
		e.SKU,
		formatDate(e.AsofDate),
		formatDate(e.ReceiptDate),
		strconv.Itoa(e.ProtectionPeriodDays),
		e.PolicyMode,
		e.ForecastMethod,
		e.IntermittentClassifier,
		formatFloat(e.DemandMuP),
		formatFloat(e.DemandSigmaP),
		e.DemandForecastMethod,
		strconv.Itoa(e.DemandMCNSimulations),
		strconv.FormatInt(e.DemandMCRandomSeed, 10),
		e.DemandMCDistribution,
		strconv.Itoa(e.DemandMCHorizonDays),
		formatQuantiles(e.DemandQuantiles),
		formatFloat(e.ReorderPoint),
		e.ReorderPointMethod,
		formatFloat(e.QuantileUsed),
		formatFloat(e.CSLAlphaTarget),
		formatFloat(e.CSLAlphaEff),
		formatFloat(e.CSLZScore),
		formatFloat(e.InventoryPosition),
		strconv.Itoa(e.OnHand),
		formatFloat(e.UsableStock),
		formatFloat(e.UnusableStock),
		strconv.Itoa(e.OnOrder),
		strconv.Itoa(e.UnfulfilledQty),
		formatFloat(e.WasteRiskPercent),
		formatFloat(e.UpliftFactor),
		e.UpliftConfidence,
		e.UpliftPooling,
		formatFloat(e.EventMi),
		e.EventReason,
		formatFloat(e.EventUStoreDay),
		formatFloat(e.EventBetaI),
		formatFloat(e.PostPromoFactor),
		formatFloat(e.PostPromoDipFactor),
		strconv.FormatBool(e.PostPromoCapApplied),
		formatFloat(e.DownliftFactor),
		e.DownliftDriverSKU,
		e.DownliftConfidence,
		strconv.Itoa(e.OrderRaw),
		strconv.Itoa(e.OrderRounded),
		strconv.Itoa(e.OrderFinal),
		strconv.FormatBool(e.ConstraintPack),
		strconv.FormatBool(e.ConstraintMOQ),
		strconv.FormatBool(e.ConstraintMaxStock),
		strconv.FormatBool(e.ConstraintShelfLife),
		e.ConstraintDetails,
		strconv.FormatBool(e.SimulationUsed),
		strconv.Itoa(e.HistoryValidDays),
		strconv.Itoa(e.OOSDaysCount),
		strconv.FormatBool(e.OOSBoostApplied),
		e.Error,
		strings.Join(e.Notes, "; "),
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatQuantiles(q map[string]float64) string {
	if len(q) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	// deterministic output: sort numerically by the quantile level
	for i := 1; i < len(keys); i++ {
		j := i
		for j > 0 && keys[j] < keys[j-1] {
			keys[j], keys[j-1] = keys[j-1], keys[j]
			j--
		}
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%q:%s", k, formatFloat(q[k])))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
