// Package modifiers applies the fixed chain of demand adjustments described
// in spec.md §4.4 — promo uplift, post-promo cooldown, cannibalisation
// downlift, and event uplift — on top of a forecasted mu_P from the
// forecast package. Each estimator is a pure function over caller-supplied
// series; none of them touch a repository or mutate shared state, mirroring
// the forecast package's shape.
package modifiers

// Settings bundles the tunables spec.md §6 places on the four modifier
// sections (promo_uplift, post_promo_guardrail, promo_cannibalization,
// event_uplift). Zero values are replaced by NewSettings defaults.
type Settings struct {
	TrimPercent     float64 // winsorised-mean trim fraction per tail, e.g. 0.1
	MinUplift       float64
	MaxUplift       float64
	MinEventsSKU    int
	MinValidDaysSKU int
	ThresholdA      int // SKU-level event count at/above which confidence is "A"
	EpsilonBaseline float64

	CooldownWindowDays int
	CooldownFactor     float64 // > 0 uses this constant instead of estimating dip_factor
	DipFloor           float64
	DipCeiling         float64
	PostPromoAbsoluteCap int

	DownliftMin          float64
	DownliftMax          float64
	DownliftMinEvents    int
	DownliftMinValidDays int

	EventMinFactor               float64
	EventMaxFactor               float64
	SimilarDaysWindow            int
	MinSamplesU                  int
	MinSamplesBeta               int
	PerishablesExcludeThreshold  int
	BetaNormalizationMode        string // mean_one | weighted_sum_one | none
	EventDefaultQuantile         float64
}

// NewSettings returns the spec.md §6 defaults.
func NewSettings() Settings {
	return Settings{
		TrimPercent:          0.1,
		MinUplift:            0.5,
		MaxUplift:            5.0,
		MinEventsSKU:         3,
		MinValidDaysSKU:      14,
		ThresholdA:           5,
		EpsilonBaseline:      0.01,
		CooldownWindowDays:   7,
		CooldownFactor:       0,
		DipFloor:             0.3,
		DipCeiling:           1.0,
		PostPromoAbsoluteCap: 0,
		DownliftMin:          0.1,
		DownliftMax:          1.0,
		DownliftMinEvents:    3,
		DownliftMinValidDays: 7,
		EventMinFactor:       0.5,
		EventMaxFactor:       2.0,
		SimilarDaysWindow:    8,
		MinSamplesU:          8,
		MinSamplesBeta:       8,
		PerishablesExcludeThreshold: 7,
		BetaNormalizationMode:       "mean_one",
		EventDefaultQuantile:        0.5,
	}
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
