package constraints

// ShouldSimulate decides when the linear "round S - IP to a pack multiple"
// formula under-orders for genuinely intermittent, pack-heavy demand
// (spec.md §4.6): a small raw quantity against a pack that covers several
// days of average demand means a single linear round risks starving the
// protection window between deliveries.
func ShouldSimulate(qRaw, dailyDemand float64, packSize int) bool {
	if dailyDemand <= 0 || packSize <= 0 {
		return false
	}
	packCoversDays := float64(packSize) / dailyDemand
	return qRaw < float64(packSize) && packCoversDays >= 3
}

// SimulationResult reports the day-by-day simulated order quantity.
type SimulationResult struct {
	Q         int
	FinalIP   float64
	PacksUsed int
}

// SimulateDayByDay walks inventory position forward one day at a time over
// the horizon, ordering one pack whenever projected IP would dip below one
// pack's worth of stock (spec.md §4.6's intermittent-demand special case).
// dailyDemand may vary by day; when it is constant callers pass a
// single-element-repeating slice or build one from mu_P/horizon.
func SimulateDayByDay(startIP float64, dailyDemand []float64, packSize int) SimulationResult {
	ip := startIP
	packsUsed := 0

	for _, demand := range dailyDemand {
		ip -= demand
		if ip < float64(packSize) {
			ip += float64(packSize)
			packsUsed++
		}
	}

	return SimulationResult{
		Q:         packsUsed * packSize,
		FinalIP:   ip,
		PacksUsed: packsUsed,
	}
}
