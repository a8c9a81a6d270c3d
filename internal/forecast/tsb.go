package forecast

import "math"

// TSB implements the Teunter-Syntetos-Babai method (spec.md §4.3): rather
// than smoothing an inter-arrival interval, TSB smooths the probability of
// demand occurring on any given day (pi_t) directly, alongside the
// magnitude series (z_t). Forecast = pi_t * z_t.
func TSB(history []HistoryPoint, horizonDays int, settings Settings) (Result, error) {
	alpha := settings.TSBAlpha
	if alpha <= 0 {
		alpha = 0.1
	}
	minObs := settings.MinNonzeroObservations
	if minObs <= 0 {
		minObs = 5
	}

	var z, pi float64
	first := true
	nonzeroCount := 0
	var residuals []float64

	for _, h := range history {
		if h.Censored {
			continue
		}
		occurred := 0.0
		if h.Qty > 0 {
			occurred = 1.0
			nonzeroCount++
		}
		if first {
			if h.Qty > 0 {
				z = float64(h.Qty)
			}
			pi = occurred
			first = false
			continue
		}
		forecastBefore := pi * z
		residuals = append(residuals, float64(h.Qty)-forecastBefore)

		pi = alpha*occurred + (1-alpha)*pi
		if h.Qty > 0 {
			z = alpha*float64(h.Qty) + (1-alpha)*z
		}
	}

	if nonzeroCount < minObs {
		result, err := Simple(history, horizonDays, settings)
		if err != nil {
			return Result{}, err
		}
		result.Meta.FallbackReason = "fallback_to_simple"
		return result, nil
	}

	perDayRate := pi * z
	muP := perDayRate * float64(horizonDays)
	sigmaDaily := sigmaFromResidualsOrProxy(residuals, z, perDayRate)
	sigmaP := sigmaDaily * math.Sqrt(float64(horizonDays))

	return Result{
		MuP:    muP,
		SigmaP: sigmaP,
		Meta: Meta{
			DistributionFamily: "tsb",
		},
	}, nil
}
