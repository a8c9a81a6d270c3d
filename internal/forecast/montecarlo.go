package forecast

import (
	"math"
	"math/rand"
)

// MonteCarlo draws N trajectories of length horizonDays from the
// configured distribution, sums each into one horizon-total sample, and
// summarises the resulting empirical distribution of D_P (spec.md §4.3).
//
// The random source is seeded deterministically from settings.MCRandomSeed
// — "Seed is deterministic (SKU-independent; set once at configuration)" —
// so two calls with the same history and seed are bit-reproducible
// (spec.md §8 property 3), and the N trajectories never escape this
// function: only the (mu_P, sigma_P, quantile map) summary is returned,
// per spec.md §9's streaming-accumulator guidance.
func MonteCarlo(history []HistoryPoint, horizonDays int, settings Settings) (Result, error) {
	n := settings.MCNSimulations
	if n <= 0 {
		n = 1000
	}
	if n < minMCSamples {
		result, err := Simple(history, horizonDays, settings)
		if err != nil {
			return Result{}, err
		}
		result.Meta.FallbackReason = "fallback_to_simple"
		return result, nil
	}

	level, dowFactor := fitLevelAndDOW(history)
	var nonzero []float64
	for _, h := range history {
		if !h.Censored {
			nonzero = append(nonzero, float64(h.Qty))
		}
	}
	sigmaDaily := residualStdDev(history, level, dowFactor, settings.SigmaWindowWeeks)
	if len(nonzero) == 0 {
		nonzero = []float64{0}
	}

	rng := rand.New(rand.NewSource(settings.MCRandomSeed))

	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		total := 0.0
		for day := 1; day <= horizonDays; day++ {
			wd := projectedWeekday(history, day)
			mu := level * dowFactor[wd]
			total += drawDay(rng, settings.MCDistribution, mu, sigmaDaily, nonzero)
		}
		if total < 0 {
			total = 0
		}
		samples[i] = total
	}

	muP := mean(samples)
	sigmaP := stddev(samples)

	levels := settings.MCQuantileLevels
	if len(levels) == 0 {
		levels = []float64{0.50, 0.80, 0.90, 0.95, 0.98}
	}
	quantiles := make(map[float64]float64, len(levels))
	for _, lvl := range levels {
		quantiles[lvl] = quantile(samples, lvl)
	}

	return Result{
		MuP:       muP,
		SigmaP:    sigmaP,
		Quantiles: quantiles,
		Meta: Meta{
			Seed:               settings.MCRandomSeed,
			DistributionFamily: settings.MCDistribution,
		},
	}, nil
}

func drawDay(rng *rand.Rand, distribution string, mu, sigma float64, empirical []float64) float64 {
	switch distribution {
	case "normal":
		v := mu + rng.NormFloat64()*sigma
		if v < 0 {
			return 0
		}
		return v
	case "lognormal":
		// parameterise so the lognormal's mean matches mu when mu > 0
		if mu <= 0 {
			return 0
		}
		sigmaLog := math.Sqrt(math.Log(1 + (sigma*sigma)/(mu*mu+1e-9)))
		muLog := math.Log(mu) - 0.5*sigmaLog*sigmaLog
		return math.Exp(muLog + rng.NormFloat64()*sigmaLog)
	case "residuals":
		idx := rng.Intn(len(empirical))
		residual := empirical[idx] - mu
		v := mu + residual
		if v < 0 {
			return 0
		}
		return v
	default: // empirical
		idx := rng.Intn(len(empirical))
		return empirical[idx]
	}
}
