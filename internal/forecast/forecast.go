// Package forecast produces a horizon-total demand distribution D_P,
// summarised by (mu_P, sigma_P) and, when available, a quantile map, per
// spec.md §4.3. Predict picks one of five forecast methods with a switch
// on the method name; there is no Method interface or method registry.
package forecast

import (
	"time"

	"github.com/pinggolf/reorder-engine/internal/domain"
)

// HistoryPoint is one day of observed (or censored) demand.
type HistoryPoint struct {
	Date     time.Time
	Qty      int
	Censored bool
}

// Settings bundles the tunables §4.3 and §6 place on forecasting. Zero
// values are replaced by package-level defaults in NewSettings.
type Settings struct {
	SigmaWindowWeeks int

	MCDistribution   string // empirical | normal | lognormal | residuals
	MCNSimulations   int
	MCRandomSeed     int64
	MCQuantileLevels []float64

	IntermittentEnabled       bool
	ADIThreshold              float64
	CV2Threshold               float64
	MinNonzeroObservations    int
	BacktestEnabled            bool
	BacktestMetric             string // wmape | bias
	DefaultIntermittentMethod  domain.ForecastMethod
	TSBAlpha                   float64
	CrostonAlpha               float64
}

// NewSettings returns Settings populated with the defaults from spec.md §6.
func NewSettings() Settings {
	return Settings{
		SigmaWindowWeeks:          8,
		MCDistribution:            "empirical",
		MCNSimulations:            1000,
		MCRandomSeed:              42,
		MCQuantileLevels:          []float64{0.50, 0.80, 0.90, 0.95, 0.98},
		IntermittentEnabled:       true,
		ADIThreshold:              1.32,
		CV2Threshold:              0.49,
		MinNonzeroObservations:    5,
		BacktestEnabled:           false,
		BacktestMetric:            "wmape",
		DefaultIntermittentMethod: domain.MethodCroston,
		TSBAlpha:                  0.1,
		CrostonAlpha:              0.1,
	}
}

// Meta records the concrete method chosen, whether auto-selection kicked
// in, the sampled seed, the distribution family, and any fallback reason
// (spec.md §4.3).
type Meta struct {
	ChosenMethod       domain.ForecastMethod
	AutoSelected       bool
	Seed               int64
	DistributionFamily string
	FallbackReason     string
	LowHistory         bool
	ADI                float64
	CV2                float64
}

// Result is the forecast engine's output contract (spec.md §4.3).
type Result struct {
	MuP       float64
	SigmaP    float64
	Quantiles map[float64]float64 // nil when not available (e.g. simple method)
	Meta      Meta
}

// minValidHistoryDays is the spec.md §4.3 / §7 threshold below which the
// forecast returns a constant-zero result with a low_history marker rather
// than an error.
const minValidHistoryDays = 7

// minMCSamples is the spec.md §4.3 threshold below which Monte Carlo falls
// back to simple.
const minMCSamples = 14

// validate enforces the structural checks spec.md §4.3 calls out: "Fails
// with ForecastError only on structurally malformed history (out-of-order
// dates, negative quantities)."
func validate(history []HistoryPoint) error {
	for i, h := range history {
		if h.Qty < 0 {
			return domain.ForecastError("negative quantity in demand history", nil)
		}
		if i > 0 && h.Date.Before(history[i-1].Date) {
			return domain.ForecastError("history dates are not in ascending order", nil)
		}
	}
	return nil
}

func validDayCount(history []HistoryPoint) int {
	n := 0
	for _, h := range history {
		if !h.Censored {
			n++
		}
	}
	return n
}

// Predict dispatches to the named method, applying the fallback rules from
// spec.md §4.3: insufficient history short-circuits to a zero forecast
// before any method runs; intermittent_auto classifies before dispatch;
// individual methods apply their own MC/Croston sample-size fallbacks.
func Predict(method domain.ForecastMethod, history []HistoryPoint, horizonDays int, asof time.Time, settings Settings) (Result, error) {
	if err := validate(history); err != nil {
		return Result{}, err
	}

	if validDayCount(history) < minValidHistoryDays {
		return Result{
			MuP:    0,
			SigmaP: 0,
			Meta: Meta{
				ChosenMethod:   method,
				LowHistory:     true,
				FallbackReason: "low_history",
			},
		}, nil
	}

	resolved := method
	autoSelected := false
	var classifierMeta Meta
	if method == domain.MethodIntermittentAuto {
		classified, meta := ClassifyIntermittency(history, settings)
		resolved = classified
		autoSelected = true
		classifierMeta = meta
	}

	var result Result
	var err error
	switch resolved {
	case domain.MethodSimple, "":
		result, err = Simple(history, horizonDays, settings)
	case domain.MethodMonteCarlo:
		result, err = MonteCarlo(history, horizonDays, settings)
	case domain.MethodCroston:
		result, err = Croston(history, horizonDays, settings)
	case domain.MethodSBA:
		result, err = SBA(history, horizonDays, settings)
	case domain.MethodTSB:
		result, err = TSB(history, horizonDays, settings)
	default:
		result, err = Simple(history, horizonDays, settings)
	}
	if err != nil {
		return Result{}, err
	}

	if autoSelected {
		result.Meta.AutoSelected = true
		result.Meta.ADI = classifierMeta.ADI
		result.Meta.CV2 = classifierMeta.CV2
	}
	result.Meta.ChosenMethod = resolved
	return result, nil
}
