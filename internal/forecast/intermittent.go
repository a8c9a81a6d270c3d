package forecast

import (
	"math"

	"github.com/pinggolf/reorder-engine/internal/domain"
)

// candidateOrder fixes the tie-break order for intermittent method
// auto-selection: when a backtest produces equal scores across methods,
// the first method in this list wins. Ties are
// resolved deterministically rather than via map iteration, which Go does
// not guarantee to be stable.
var candidateOrder = []domain.ForecastMethod{
	domain.MethodCroston,
	domain.MethodSBA,
	domain.MethodTSB,
}

// ClassifyIntermittency computes ADI (average interval between non-zero
// demand days) and CV2 (squared coefficient of variation of non-zero demand
// magnitudes) and decides between the plain Simple method and an
// intermittent-family method (spec.md §4.3). When demand qualifies as
// intermittent (ADI > settings.ADIThreshold or CV2 > settings.CV2Threshold)
// and settings.BacktestEnabled is set, each candidate in candidateOrder is
// backtested with a rolling-origin holdout and the lowest-error candidate is
// chosen, ties broken by candidateOrder position. With backtesting disabled,
// settings.DefaultIntermittentMethod is used.
func ClassifyIntermittency(history []HistoryPoint, settings Settings) (domain.ForecastMethod, Meta) {
	adi, cv2 := intermittencyStats(history)

	adiThreshold := settings.ADIThreshold
	if adiThreshold <= 0 {
		adiThreshold = 1.32
	}
	cv2Threshold := settings.CV2Threshold
	if cv2Threshold <= 0 {
		cv2Threshold = 0.49
	}

	meta := Meta{ADI: adi, CV2: cv2}

	if adi <= adiThreshold && cv2 <= cv2Threshold {
		return domain.MethodSimple, meta
	}

	if !settings.BacktestEnabled {
		method := settings.DefaultIntermittentMethod
		if method == "" {
			method = domain.MethodCroston
		}
		return method, meta
	}

	best := candidateOrder[0]
	bestScore := math.Inf(1)
	for _, method := range candidateOrder {
		score := backtestScore(history, settings, method)
		if score < bestScore {
			bestScore = score
			best = method
		}
	}
	return best, meta
}

// intermittencyStats returns (ADI, CV2) over the non-censored history.
func intermittencyStats(history []HistoryPoint) (float64, float64) {
	var intervals []float64
	var magnitudes []float64
	sinceLast := 0
	started := false

	for _, h := range history {
		if h.Censored {
			continue
		}
		sinceLast++
		if h.Qty > 0 {
			if started {
				intervals = append(intervals, float64(sinceLast))
			}
			magnitudes = append(magnitudes, float64(h.Qty))
			sinceLast = 0
			started = true
		}
	}

	adi := mean(intervals)
	if len(magnitudes) == 0 {
		return adi, 0
	}
	m := mean(magnitudes)
	if m == 0 {
		return adi, 0
	}
	sd := stddev(magnitudes)
	cv2 := (sd / m) * (sd / m)
	return adi, cv2
}

// backtestScore runs a rolling-origin holdout over the tail of history,
// forecasting one horizon ahead from each origin with method and scoring by
// settings.BacktestMetric (wmape: weighted mean absolute percentage error,
// lower is better; bias: absolute mean signed error, lower is better).
func backtestScore(history []HistoryPoint, settings Settings, method domain.ForecastMethod) float64 {
	const horizon = 7
	const minOrigins = 2

	if len(history) < minValidHistoryDays+horizon+minOrigins {
		return math.Inf(1)
	}

	var errs []float64
	var actuals []float64
	var signedErrs []float64

	lastOrigin := len(history) - horizon
	firstOrigin := minValidHistoryDays
	for origin := firstOrigin; origin < lastOrigin; origin++ {
		train := history[:origin]
		actual := 0.0
		for _, h := range history[origin : origin+horizon] {
			if !h.Censored {
				actual += float64(h.Qty)
			}
		}

		var result Result
		var err error
		switch method {
		case domain.MethodCroston:
			result, err = Croston(train, horizon, settings)
		case domain.MethodSBA:
			result, err = SBA(train, horizon, settings)
		case domain.MethodTSB:
			result, err = TSB(train, horizon, settings)
		default:
			result, err = Simple(train, horizon, settings)
		}
		if err != nil {
			continue
		}

		signedErr := result.MuP - actual
		errs = append(errs, math.Abs(signedErr))
		signedErrs = append(signedErrs, signedErr)
		actuals = append(actuals, actual)
	}

	if len(errs) == 0 {
		return math.Inf(1)
	}

	if settings.BacktestMetric == "bias" {
		return math.Abs(mean(signedErrs))
	}

	// wmape: sum(|error|) / sum(|actual|)
	sumErr, sumActual := 0.0, 0.0
	for i := range errs {
		sumErr += errs[i]
		sumActual += math.Abs(actuals[i])
	}
	if sumActual == 0 {
		return math.Inf(1)
	}
	return sumErr / sumActual
}
