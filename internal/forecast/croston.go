package forecast

import "math"

// crostonState holds the two smoothed series Croston-family methods
// maintain: the magnitude of non-zero demand (z) and the inter-arrival
// interval between non-zero demand days (p), per spec.md §4.3.
type crostonState struct {
	z              float64
	p              float64
	nonzeroCount   int
	sinceLastNZ    int
	residuals      []float64
}

func fitCroston(history []HistoryPoint, alpha float64) crostonState {
	var s crostonState
	first := true
	interval := 0

	for _, h := range history {
		if h.Censored {
			continue
		}
		interval++
		if h.Qty > 0 {
			s.nonzeroCount++
			if first {
				s.z = float64(h.Qty)
				s.p = float64(interval)
				first = false
			} else {
				forecastBefore := 0.0
				if s.p > 0 {
					forecastBefore = s.z / s.p
				}
				s.residuals = append(s.residuals, float64(h.Qty)-forecastBefore)
				s.z = alpha*float64(h.Qty) + (1-alpha)*s.z
				s.p = alpha*float64(interval) + (1-alpha)*s.p
			}
			interval = 0
		}
	}
	return s
}

// Croston implements the classic Croston intermittent-demand method
// (spec.md §4.3): forecast = z_t / p_t, applied uniformly over the
// horizon and scaled by the number of days (z_t/p_t is a per-day rate).
func Croston(history []HistoryPoint, horizonDays int, settings Settings) (Result, error) {
	return fitIntermittentFamily(history, horizonDays, settings, "croston")
}

// SBA implements the Syntetos-Boylan Approximation: a bias-corrected
// Croston forecast, (1 - alpha/2) * z_t / p_t.
func SBA(history []HistoryPoint, horizonDays int, settings Settings) (Result, error) {
	return fitIntermittentFamily(history, horizonDays, settings, "sba")
}

func fitIntermittentFamily(history []HistoryPoint, horizonDays int, settings Settings, variant string) (Result, error) {
	alpha := settings.CrostonAlpha
	if alpha <= 0 {
		alpha = 0.1
	}
	minObs := settings.MinNonzeroObservations
	if minObs <= 0 {
		minObs = 5
	}

	s := fitCroston(history, alpha)
	if s.nonzeroCount < minObs {
		result, err := Simple(history, horizonDays, settings)
		if err != nil {
			return Result{}, err
		}
		result.Meta.FallbackReason = "fallback_to_simple"
		return result, nil
	}

	perDayRate := 0.0
	if s.p > 0 {
		perDayRate = s.z / s.p
	}
	if variant == "sba" {
		perDayRate *= 1 - alpha/2
	}

	muP := perDayRate * float64(horizonDays)
	sigmaDaily := sigmaFromResidualsOrProxy(s.residuals, s.z, perDayRate)
	sigmaP := sigmaDaily * math.Sqrt(float64(horizonDays))

	return Result{
		MuP:    muP,
		SigmaP: sigmaP,
		Meta: Meta{
			DistributionFamily: variant,
		},
	}, nil
}

// sigmaFromResidualsOrProxy implements spec.md §4.3's fallback chain for
// sigma estimation under intermittent methods: rolling residuals when
// at least 3 exist, otherwise sqrt(rate), a Poisson-like proxy. The
// variance of the magnitude series z is not used; the z argument is ignored.
func sigmaFromResidualsOrProxy(residuals []float64, z, rate float64) float64 {
	if len(residuals) >= 3 {
		return stddev(residuals)
	}
	// proxy: treat the per-day rate's own magnitude as an approximate
	// coefficient of variation around the rate.
	if rate <= 0 {
		return 0
	}
	return math.Sqrt(rate) // Poisson-like proxy variance = rate
}
