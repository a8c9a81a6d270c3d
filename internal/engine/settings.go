// Package engine is the facade that wires calendar, forecast, modifiers,
// policy, constraints and explain together into one SKU decision, and
// parallelises that decision across a batch (spec.md §4.7, SPEC_FULL.md
// §4.9/§5). It is the only package that depends on repository.Repository;
// every collaborator package beneath it stays pure.
package engine

import (
	"time"

	"github.com/pinggolf/reorder-engine/internal/calendar"
	"github.com/pinggolf/reorder-engine/internal/constraints"
	"github.com/pinggolf/reorder-engine/internal/domain"
	"github.com/pinggolf/reorder-engine/internal/forecast"
	"github.com/pinggolf/reorder-engine/internal/ledger"
	"github.com/pinggolf/reorder-engine/internal/modifiers"
	"github.com/pinggolf/reorder-engine/internal/policy"
	"github.com/pinggolf/reorder-engine/internal/settings"
)

// Settings bundles one resolved configuration snapshot for every
// collaborator package, built once per batch run from the settings tree
// (spec.md §6) plus package-level defaults for anything the tree omits.
type Settings struct {
	Forecast    forecast.Settings
	Modifiers   modifiers.Settings
	Policy      policy.Settings
	Constraints constraints.Settings

	OrderWeekdays   map[time.Weekday]bool
	OOSBoostPercent float64
	OOSLookbackDays int
	OOSMode         ledger.OOSDetectionMode
	MaxConcurrentSKUs int
}

// ResolveSettings reads the spec.md §6 settings tree into a Settings
// snapshot, falling back to each collaborator package's NewSettings
// defaults for any leaf the tree does not carry. This mirrors the teacher's
// DetectorConfigService pattern of resolving typed config with a documented
// default per key, generalized from per-detector thresholds to the whole
// decision pipeline's tunables.
func ResolveSettings(tree settings.Tree) Settings {
	fc := forecast.NewSettings()
	fc.SigmaWindowWeeks = tree.Int("monte_carlo.sigma_window_weeks", fc.SigmaWindowWeeks)
	fc.MCDistribution = tree.String("monte_carlo.distribution", fc.MCDistribution)
	fc.MCNSimulations = tree.Int("monte_carlo.n_simulations", fc.MCNSimulations)
	fc.MCRandomSeed = int64(tree.Int("monte_carlo.random_seed", int(fc.MCRandomSeed)))
	fc.IntermittentEnabled = tree.Bool("intermittent_forecast.enabled", fc.IntermittentEnabled)
	fc.ADIThreshold = tree.Float("intermittent_forecast.adi_threshold", fc.ADIThreshold)
	fc.CV2Threshold = tree.Float("intermittent_forecast.cv2_threshold", fc.CV2Threshold)
	fc.MinNonzeroObservations = tree.Int("intermittent_forecast.min_nonzero_observations", fc.MinNonzeroObservations)
	fc.BacktestEnabled = tree.Bool("intermittent_forecast.backtest_enabled", fc.BacktestEnabled)
	fc.BacktestMetric = tree.String("intermittent_forecast.backtest_metric", fc.BacktestMetric)
	fc.DefaultIntermittentMethod = domain.ForecastMethod(tree.String("intermittent_forecast.default_method", string(fc.DefaultIntermittentMethod)))

	mod := modifiers.NewSettings()
	mod.TrimPercent = tree.Float("promo_uplift.trim_percent", mod.TrimPercent)
	mod.MinUplift = tree.Float("promo_uplift.min_factor", mod.MinUplift)
	mod.MaxUplift = tree.Float("promo_uplift.max_factor", mod.MaxUplift)
	mod.MinEventsSKU = tree.Int("promo_uplift.min_events_sku", mod.MinEventsSKU)
	mod.MinValidDaysSKU = tree.Int("promo_uplift.min_valid_days_sku", mod.MinValidDaysSKU)
	mod.ThresholdA = tree.Int("promo_uplift.threshold_a", mod.ThresholdA)
	mod.CooldownWindowDays = tree.Int("post_promo_guardrail.window_days", mod.CooldownWindowDays)
	mod.CooldownFactor = tree.Float("post_promo_guardrail.factor", mod.CooldownFactor)
	mod.DipFloor = tree.Float("post_promo_guardrail.dip_floor", mod.DipFloor)
	mod.DipCeiling = tree.Float("post_promo_guardrail.dip_ceiling", mod.DipCeiling)
	mod.PostPromoAbsoluteCap = tree.Int("post_promo_guardrail.absolute_cap", mod.PostPromoAbsoluteCap)
	mod.DownliftMin = tree.Float("promo_cannibalization.min_factor", mod.DownliftMin)
	mod.DownliftMax = tree.Float("promo_cannibalization.max_factor", mod.DownliftMax)
	mod.DownliftMinEvents = tree.Int("promo_cannibalization.min_events", mod.DownliftMinEvents)
	mod.DownliftMinValidDays = tree.Int("promo_cannibalization.min_valid_days", mod.DownliftMinValidDays)
	mod.EventMinFactor = tree.Float("event_uplift.min_factor", mod.EventMinFactor)
	mod.EventMaxFactor = tree.Float("event_uplift.max_factor", mod.EventMaxFactor)
	mod.SimilarDaysWindow = tree.Int("event_uplift.similar_days_window", mod.SimilarDaysWindow)
	mod.MinSamplesU = tree.Int("event_uplift.min_samples_u", mod.MinSamplesU)
	mod.MinSamplesBeta = tree.Int("event_uplift.min_samples_beta", mod.MinSamplesBeta)
	mod.PerishablesExcludeThreshold = tree.Int("event_uplift.perishables_exclude_threshold", mod.PerishablesExcludeThreshold)
	mod.BetaNormalizationMode = tree.String("event_uplift.beta_normalization_mode", mod.BetaNormalizationMode)
	mod.EventDefaultQuantile = tree.Float("event_uplift.default_quantile", mod.EventDefaultQuantile)

	pol := policy.NewSettings()
	pol.DefaultCSL = tree.Float("service_level.default_csl", pol.DefaultCSL)
	pol.MinCSLAbsolute = tree.Float("closed_loop.min_csl_absolute", pol.MinCSLAbsolute)
	pol.MaxCSLAbsolute = tree.Float("closed_loop.max_csl_absolute", pol.MaxCSLAbsolute)
	pol.ClusterCSLHigh = tree.Float("service_level.cluster_csl_high", pol.ClusterCSLHigh)
	pol.ClusterCSLStable = tree.Float("service_level.cluster_csl_stable", pol.ClusterCSLStable)
	pol.ClusterCSLLow = tree.Float("service_level.cluster_csl_low", pol.ClusterCSLLow)
	pol.ClusterCSLSeasonal = tree.Float("service_level.cluster_csl_seasonal", pol.ClusterCSLSeasonal)
	pol.ClusterCSLPerishable = tree.Float("service_level.cluster_csl_perishable", pol.ClusterCSLPerishable)

	con := constraints.NewSettings()
	con.WasteRiskThreshold = tree.Float("shelf_life_policy.waste_risk_threshold", con.WasteRiskThreshold)
	con.WastePenaltyMode = tree.String("shelf_life_policy.waste_penalty_mode", con.WastePenaltyMode)
	con.WastePenaltyFactor = tree.Float("shelf_life_policy.waste_penalty_factor", con.WastePenaltyFactor)
	con.WasteHorizonDays = tree.Int("shelf_life_policy.waste_horizon_days", con.WasteHorizonDays)
	con.MinShelfLifeGlobal = tree.Int("shelf_life_policy.min_shelf_life_global", con.MinShelfLifeGlobal)

	orderDays := []int{0, 1, 2, 3, 4} // Mon-Fri default, spec.md §6 calendar.order_days
	if leaf, ok := tree.Get("calendar.order_days"); ok {
		if parsed, ok := parseIntList(leaf.Value); ok {
			orderDays = parsed
		}
	}

	oosMode := ledger.OOSStrict
	if tree.String("reorder_engine.oos_detection_mode", "strict") == "relaxed" {
		oosMode = ledger.OOSRelaxed
	}

	return Settings{
		Forecast:          fc,
		Modifiers:         mod,
		Policy:            pol,
		Constraints:       con,
		OrderWeekdays:     calendar.FromSettingWeekdays(orderDays),
		OOSBoostPercent:   tree.Float("reorder_engine.oos_boost_percent", 0),
		OOSLookbackDays:   tree.Int("reorder_engine.oos_lookback_days", 28),
		OOSMode:           oosMode,
		MaxConcurrentSKUs: tree.Int("reorder_engine.max_concurrent_skus", 0),
	}
}

func parseIntList(v interface{}) ([]int, bool) {
	switch vv := v.(type) {
	case []int:
		return vv, true
	case []interface{}:
		out := make([]int, 0, len(vv))
		for _, item := range vv {
			switch n := item.(type) {
			case int:
				out = append(out, n)
			case float64:
				out = append(out, int(n))
			default:
				return nil, false
			}
		}
		return out, true
	default:
		return nil, false
	}
}
