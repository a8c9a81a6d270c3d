package forecast

import (
	"math"
	"time"
)

// Simple implements the "level + day-of-week" method (spec.md §4.3): fit a
// multiplicative day-of-week factor against the overall level on
// non-censored history, then project horizonDays forward. Sigma is the
// residual standard deviation over the last SigmaWindowWeeks weeks, scaled
// to the horizon assuming day-to-day independence (sigma_P = sigma_daily *
// sqrt(horizonDays)).
func Simple(history []HistoryPoint, horizonDays int, settings Settings) (Result, error) {
	level, dowFactor := fitLevelAndDOW(history)
	sigmaDaily := residualStdDev(history, level, dowFactor, settings.SigmaWindowWeeks)

	muP := 0.0
	for i := 1; i <= horizonDays; i++ {
		wd := projectedWeekday(history, i)
		muP += level * dowFactor[wd]
	}

	sigmaP := sigmaDaily * math.Sqrt(float64(horizonDays))

	return Result{
		MuP:    muP,
		SigmaP: sigmaP,
		Meta: Meta{
			DistributionFamily: "none", // simple has no empirical distribution
		},
	}, nil
}

// fitLevelAndDOW computes the overall non-censored daily mean (the level)
// and a per-weekday multiplicative factor (mean qty on that weekday /
// level), defaulting absent weekdays to a factor of 1.
func fitLevelAndDOW(history []HistoryPoint) (float64, map[time.Weekday]float64) {
	sums := make(map[time.Weekday]float64)
	counts := make(map[time.Weekday]int)
	total := 0.0
	n := 0

	for _, h := range history {
		if h.Censored {
			continue
		}
		wd := h.Date.Weekday()
		sums[wd] += float64(h.Qty)
		counts[wd]++
		total += float64(h.Qty)
		n++
	}

	level := 0.0
	if n > 0 {
		level = total / float64(n)
	}

	factor := make(map[time.Weekday]float64)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if counts[wd] > 0 && level > 0 {
			factor[wd] = (sums[wd] / float64(counts[wd])) / level
		} else {
			factor[wd] = 1.0
		}
	}
	return level, factor
}

func residualStdDev(history []HistoryPoint, level float64, dowFactor map[time.Weekday]float64, windowWeeks int) float64 {
	if windowWeeks <= 0 {
		windowWeeks = 8
	}
	windowDays := windowWeeks * 7
	start := 0
	if len(history) > windowDays {
		start = len(history) - windowDays
	}

	var residuals []float64
	for _, h := range history[start:] {
		if h.Censored {
			continue
		}
		fitted := level * dowFactor[h.Date.Weekday()]
		residuals = append(residuals, float64(h.Qty)-fitted)
	}
	return stddev(residuals)
}

// projectedWeekday returns the weekday offset days after the last observed
// history date (or just cycles through a generic week when history is
// empty — Predict's valid-day count check guarantees at least
// minValidHistoryDays points by the time Simple is reached via Predict).
func projectedWeekday(history []HistoryPoint, offsetDays int) time.Weekday {
	if len(history) == 0 {
		return time.Weekday(offsetDays % 7)
	}
	last := history[len(history)-1].Date
	return last.AddDate(0, 0, offsetDays).Weekday()
}
