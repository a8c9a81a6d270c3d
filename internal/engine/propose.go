package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pinggolf/reorder-engine/internal/calendar"
	"github.com/pinggolf/reorder-engine/internal/constraints"
	"github.com/pinggolf/reorder-engine/internal/domain"
	"github.com/pinggolf/reorder-engine/internal/explain"
	"github.com/pinggolf/reorder-engine/internal/forecast"
	"github.com/pinggolf/reorder-engine/internal/ledger"
	"github.com/pinggolf/reorder-engine/internal/modifiers"
	"github.com/pinggolf/reorder-engine/internal/policy"
	"github.com/pinggolf/reorder-engine/internal/repository"
)

// Engine is the facade described in spec.md §4.7: it orchestrates the
// calendar, forecast, modifiers, policy, constraints and explain packages
// into one decision per SKU, against a collections snapshot loaded once per
// batch run.
type Engine struct {
	Repo        repository.Repository
	Collections *Collections
	Settings    Settings
	Calendar    calendar.Calendar
	peerGroups  map[string][]string
}

// New builds an Engine from a loaded Collections snapshot.
func New(repo repository.Repository, col *Collections) *Engine {
	resolved := ResolveSettings(col.Settings)
	return &Engine{
		Repo:        repo,
		Collections: col,
		Settings:    resolved,
		Calendar:    calendar.Calendar{OrderWeekdays: resolved.OrderWeekdays, Holidays: col.Holidays},
		peerGroups:  substituteGroups(col.Settings),
	}
}

// ProposeOrderForSKU is propose_order_for_sku (spec.md §4.7): it returns a
// consistent (OrderProposal, OrderExplain) pair, or an error when the SKU
// itself is missing, out of assortment, or structurally invalid — callers
// that need per-SKU error isolation across a batch should prefer
// ExplainOrder, which never returns a Go error.
func (e *Engine) ProposeOrderForSKU(ctx context.Context, sku string, orderDate time.Time, lane calendar.Lane, receiptOverride *time.Time) (domain.OrderProposal, domain.OrderExplain, error) {
	s, ok := e.Collections.skuByID[sku]
	if !ok {
		return domain.OrderProposal{}, domain.OrderExplain{}, domain.InvalidInputError("unknown sku "+sku, nil)
	}
	if !s.InAssortment {
		return domain.OrderProposal{}, domain.OrderExplain{}, domain.InvalidInputError("sku "+sku+" is out of assortment", nil)
	}
	if err := s.Validate(); err != nil {
		return domain.OrderProposal{}, domain.OrderExplain{}, err
	}

	in, err := e.runPipeline(ctx, s, orderDate, lane, receiptOverride)
	if err != nil {
		return domain.OrderProposal{}, domain.OrderExplain{}, err
	}

	ex := explain.Assemble(in)
	proposal := domain.OrderProposal{
		SKU:         sku,
		OrderDate:   orderDate,
		ReceiptDate: in.ReceiptDate,
		Qty:         in.OrderFinal,
		Notes:       in.Notes,
	}
	return proposal, ex, nil
}

// ExplainOrder is explain_order (spec.md §4.7): the same orchestration in
// explain-only mode. It never raises for a single SKU; any internal failure
// yields a zero-filled explain row carrying the error, so batch export never
// has a gap.
func (e *Engine) ExplainOrder(ctx context.Context, sku string, orderDate time.Time, lane calendar.Lane) domain.OrderExplain {
	s, ok := e.Collections.skuByID[sku]
	if !ok {
		return domain.ZeroOrderExplain(sku, orderDate, "unknown sku")
	}
	if !s.InAssortment {
		return domain.ZeroOrderExplain(sku, orderDate, "sku out of assortment")
	}
	if err := s.Validate(); err != nil {
		return domain.ZeroOrderExplain(sku, orderDate, err.Error())
	}

	in, err := e.runPipeline(ctx, s, orderDate, lane, nil)
	if err != nil {
		return domain.ZeroOrderExplain(sku, orderDate, err.Error())
	}
	return explain.Assemble(in)
}

// runPipeline implements spec.md §4.1-§4.7 end to end for one SKU.
func (e *Engine) runPipeline(ctx context.Context, s domain.SKU, orderDate time.Time, lane calendar.Lane, receiptOverride *time.Time) (explain.Input, error) {
	col := e.Collections
	transactions := col.txBySKU[s.SKU]

	leadTimeDays := s.LeadTimeDays
	r1, protectionDays, err := e.Calendar.ResolveReceiptAndProtection(orderDate, lane, leadTimeDays, receiptOverride)
	if err != nil {
		return explain.Input{}, err
	}

	stock, err := ledger.StockAsof(s.SKU, orderDate, transactions)
	if err != nil {
		return explain.Input{}, err
	}

	history := col.skuHistory(s.SKU, orderDate, e.Settings.OOSMode)
	historyValidDays, oosDaysCount := historyStats(history)

	method := col.forecastMethod(s)
	forecastResult, err := forecast.Predict(method, history, protectionDays, orderDate, e.Settings.Forecast)
	if err != nil {
		return explain.Input{}, err
	}

	scopes := e.scopedSeries(s, orderDate)
	uplift := modifiers.EstimateUplift(scopes, e.Settings.Forecast, e.Settings.Modifiers)
	cooldown := modifiers.EstimateCooldown(scopes[0], r1, e.Settings.Forecast, e.Settings.Modifiers)
	downlift := e.estimateCannibalization(s, scopes[0], r1)
	eventResult := e.estimateEvent(s, orderDate, r1)

	muP := forecastResult.MuP * uplift.Factor * eventResult.Multiplier * cooldown.Factor * downlift.Factor
	sigmaP := forecastResult.SigmaP

	oosBoostApplied := false
	recentOOSDays := countRecentOOS(history, e.Settings.OOSLookbackDays)
	if e.Settings.OOSBoostPercent > 0 && recentOOSDays > 0 {
		muP *= 1 + e.Settings.OOSBoostPercent/100
		oosBoostApplied = true
	}

	censoredFraction := 0.0
	if len(history) > 0 {
		censoredFraction = float64(oosDaysCount) / float64(len(history))
	}

	targetCSL := s.TargetCSL
	policyMode := e.policyMode()
	policyResult := policy.Resolve(policyMode, s.SafetyStock, muP, sigmaP, forecastResult.Quantiles, targetCSL, s.DemandVariability, s.IsPerishable(), censoredFraction, e.Settings.Policy)
	if policyResult.ReorderPoint < 0 {
		policyResult.ReorderPoint = 0
	}

	unfulfilled, err := e.Repo.GetUnfulfilledOrders(ctx, s.SKU)
	if err != nil {
		return explain.Input{}, fmt.Errorf("engine: get unfulfilled orders for %s: %w", s.SKU, err)
	}
	inTransit, unfulfilledQty := splitUnfulfilled(unfulfilled, orderDate)

	dailyDemand := 0.0
	if protectionDays > 0 {
		dailyDemand = muP / float64(protectionDays)
	}

	ipResult := constraints.InventoryPosition(constraints.InventoryPositionInput{
		OnHand:         stock.OnHand,
		InTransit:      inTransit,
		UnfulfilledQty: unfulfilledQty,
		DailyDemand:    dailyDemand,
		AsofDate:       orderDate,
		R1:             r1,
	})

	usable := constraints.UsableStock(constraints.UsableStockInput{
		OnHand:         stock.OnHand,
		HasExpiryLabel: s.HasExpiryLabel,
		ReceiptDate:    r1,
		ShelfLifeDays:  s.ShelfLifeDays,
		ProtectionMid:  protectionMidpoint(r1, protectionDays),
	})

	qRaw := policyResult.ReorderPoint - ipResult.InventoryPosition
	if qRaw < 0 {
		qRaw = 0
	}

	simulationUsed := false
	qRounded := 0
	constraintPack, constraintMOQ := false, false
	if constraints.ShouldSimulate(qRaw, dailyDemand, s.PackSize) {
		sim := constraints.SimulateDayByDay(ipResult.InventoryPosition, repeatDemand(dailyDemand, protectionDays), s.PackSize)
		qRounded = sim.Q
		simulationUsed = true
	} else {
		qRounded, err = constraints.Round(qRaw, s.PackSize, s.MOQ)
		if err != nil {
			return explain.Input{}, err
		}
		constraintPack, constraintMOQ = roundingConstraints(qRaw, s.PackSize, s.MOQ)
	}

	capsResult := constraints.ApplyCaps(qRounded, constraints.CapsInput{
		IPAtR1:          ipResult.InventoryPosition,
		MaxStock:        s.MaxStock,
		DailyDemand:     dailyDemand,
		ShelfLifeDays:    s.ShelfLifeDays,
		PostPromoCapQty: cooldownCap(cooldown, e.Settings.Modifiers),
	})
	final := constraints.ApplyWastePenalty(capsResult.Q, usable.WasteRiskPercent, e.Settings.Constraints)

	notes := buildNotes(forecastResult, oosBoostApplied, capsResult)

	return explain.Input{
		SKU:                    s.SKU,
		AsofDate:               orderDate,
		ReceiptDate:            r1,
		ProtectionPeriodDays:   protectionDays,
		PolicyMode:             policyMode,
		Forecast:               forecastResult,
		IntermittentClassifier: intermittentClassifier(forecastResult),
		Uplift:                 uplift,
		Event:                  eventResult,
		Cooldown:               cooldown,
		Downlift:               downlift,
		Policy:                 policyResult,
		InventoryPosition:      ipResult,
		OnHand:                 stock.OnHand,
		UsableStock:            usable,
		UnfulfilledQty:         unfulfilledQty,
		OrderRaw:               int(qRaw),
		OrderRounded:           qRounded,
		OrderFinal:             final,
		Caps:                   capsResult,
		ConstraintPack:         constraintPack,
		ConstraintMOQ:          constraintMOQ,
		SimulationUsed:         simulationUsed,
		HistoryValidDays:       historyValidDays,
		OOSDaysCount:           oosDaysCount,
		OOSBoostApplied:        oosBoostApplied,
		Notes:                  notes,
	}, nil
}

func (c *Collections) forecastMethod(s domain.SKU) domain.ForecastMethod {
	if s.ForecastMethodOverride != "" {
		return s.ForecastMethodOverride
	}
	return domain.ForecastMethod(c.Settings.String("reorder_engine.forecast_method", string(domain.MethodSimple)))
}

func (e *Engine) policyMode() domain.PolicyMode {
	return domain.ParsePolicyMode(e.Collections.Settings.String("reorder_engine.policy_mode", string(domain.PolicyLegacy)))
}

// scopedSeries builds the sku -> category -> department -> global pooling
// chain promo uplift and cooldown walk (spec.md §4.4).
func (e *Engine) scopedSeries(s domain.SKU, asof time.Time) []modifiers.Series {
	col := e.Collections
	mode := e.Settings.OOSMode

	categoryPeers := skusWhere(col.SKUs, func(o domain.SKU) bool { return o.Category == s.Category && o.Category != "" })
	deptPeers := skusWhere(col.SKUs, func(o domain.SKU) bool { return o.Department == s.Department && o.Department != "" })
	allPeers := skusWhere(col.SKUs, func(domain.SKU) bool { return true })

	return []modifiers.Series{
		{ScopeName: "sku", History: col.skuHistory(s.SKU, asof, mode), Promos: col.promosBySKU[s.SKU]},
		{ScopeName: "category", History: col.aggregateHistory(categoryPeers, asof, mode), Promos: col.aggregatePromos(categoryPeers)},
		{ScopeName: "department", History: col.aggregateHistory(deptPeers, asof, mode), Promos: col.aggregatePromos(deptPeers)},
		{ScopeName: "global", History: col.aggregateHistory(allPeers, asof, mode), Promos: col.aggregatePromos(allPeers)},
	}
}

func (c *Collections) aggregateHistory(skus []string, asof time.Time, mode ledger.OOSDetectionMode) []forecast.HistoryPoint {
	totals := make(map[time.Time]int)
	anyValid := make(map[time.Time]bool)
	allCensored := make(map[time.Time]bool)
	for _, sku := range skus {
		for _, h := range c.skuHistory(sku, asof, mode) {
			totals[h.Date] += h.Qty
			if h.Censored {
				if !anyValid[h.Date] {
					allCensored[h.Date] = true
				}
			} else {
				anyValid[h.Date] = true
				delete(allCensored, h.Date)
			}
		}
	}
	dates := make([]time.Time, 0, len(totals))
	for d := range totals {
		dates = append(dates, d)
	}
	sortTimes(dates)
	out := make([]forecast.HistoryPoint, 0, len(dates))
	for _, d := range dates {
		out = append(out, forecast.HistoryPoint{Date: d, Qty: totals[d], Censored: allCensored[d]})
	}
	return out
}

func (c *Collections) aggregatePromos(skus []string) []domain.PromoWindow {
	var out []domain.PromoWindow
	for _, sku := range skus {
		out = append(out, c.promosBySKU[sku]...)
	}
	return out
}

func skusWhere(skus []domain.SKU, pred func(domain.SKU) bool) []string {
	out := make([]string, 0, len(skus))
	for _, s := range skus {
		if pred(s) {
			out = append(out, s.SKU)
		}
	}
	return out
}

func sortTimes(dates []time.Time) {
	for i := 1; i < len(dates); i++ {
		j := i
		for j > 0 && dates[j].Before(dates[j-1]) {
			dates[j], dates[j-1] = dates[j-1], dates[j]
			j--
		}
	}
}

func (e *Engine) estimateCannibalization(s domain.SKU, target modifiers.Series, r1 time.Time) modifiers.DownliftResult {
	peerSKUs := e.peerGroups[s.SKU]
	if len(peerSKUs) == 0 {
		return modifiers.DownliftResult{Factor: 1.0}
	}
	peers := make([]modifiers.Peer, 0, len(peerSKUs))
	for _, peerSKU := range peerSKUs {
		peers = append(peers, modifiers.Peer{SKU: peerSKU, Promos: e.Collections.promosBySKU[peerSKU]})
	}
	return modifiers.EstimateCannibalization(target, peers, r1, e.Settings.Forecast, e.Settings.Modifiers)
}

func (e *Engine) estimateEvent(s domain.SKU, asof, r1 time.Time) modifiers.EventResult {
	settings := e.Settings.Modifiers
	if s.IsPerishable() && s.ShelfLifeDays <= settings.PerishablesExcludeThreshold {
		return modifiers.EventResult{Multiplier: 1.0, Reason: "perishable_excluded"}
	}

	rule, ok := findEventRule(e.Collections.EventRules, r1, s)
	if !ok {
		return modifiers.EventResult{Multiplier: 1.0, Reason: "no_matching_rule"}
	}

	store := e.Collections.storeHistory(asof, e.Settings.OOSMode)
	uStoreDay, _ := modifiers.StoreDayQuantile(store, r1, settings.EventDefaultQuantile, settings.SimilarDaysWindow)

	scopes := e.betaScopes(s, asof)
	beta, _, scopeUsed := modifiers.ResolveBeta(scopes, settings.MinSamplesBeta)

	m := modifiers.Multiplier(uStoreDay, beta, rule.Strength, settings.EventMinFactor, settings.EventMaxFactor)
	return modifiers.EventResult{
		Multiplier: m,
		UStoreDay:  uStoreDay,
		Beta:       beta,
		Scope:      scopeUsed,
		Reason:     string(rule.ScopeType) + ":" + rule.Reason,
	}
}

func (e *Engine) betaScopes(s domain.SKU, asof time.Time) []modifiers.ScopedBetaSeries {
	col := e.Collections
	mode := e.Settings.OOSMode
	store := col.storeHistory(asof, mode)

	categoryPeers := skusWhere(col.SKUs, func(o domain.SKU) bool { return o.Category == s.Category && o.Category != "" })
	deptPeers := skusWhere(col.SKUs, func(o domain.SKU) bool { return o.Department == s.Department && o.Department != "" })
	allPeers := skusWhere(col.SKUs, func(domain.SKU) bool { return true })

	return []modifiers.ScopedBetaSeries{
		{ScopeName: "sku", SKUHistory: col.skuHistory(s.SKU, asof, mode), StoreHistory: store},
		{ScopeName: "category", SKUHistory: col.aggregateHistory(categoryPeers, asof, mode), StoreHistory: store},
		{ScopeName: "department", SKUHistory: col.aggregateHistory(deptPeers, asof, mode), StoreHistory: store},
		{ScopeName: "ALL", SKUHistory: col.aggregateHistory(allPeers, asof, mode), StoreHistory: store},
	}
}

// findEventRule implements spec.md §4.4's "ALL, then department, category,
// sku — most specific wins" lookup for the delivery date r1.
func findEventRule(rules []domain.EventUpliftRule, r1 time.Time, s domain.SKU) (domain.EventUpliftRule, bool) {
	candidates := []struct {
		scope domain.EventUpliftScope
		key   string
	}{
		{domain.ScopeSKU, s.SKU},
		{domain.ScopeCategory, s.Category},
		{domain.ScopeDepartment, s.Department},
		{domain.ScopeAll, ""},
	}
	for _, c := range candidates {
		for _, rule := range rules {
			if rule.ScopeType != c.scope {
				continue
			}
			if c.scope != domain.ScopeAll && rule.ScopeKey != c.key {
				continue
			}
			if sameDay(rule.DeliveryDate, r1) {
				return rule, true
			}
		}
	}
	return domain.EventUpliftRule{}, false
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// splitUnfulfilled separates a SKU's open purchase-order lines into still-
// incoming supply (receipt date in the future, counted as in-transit) and
// already-overdue shortfall (receipt date on or before asof, counted as
// unfulfilled_qty per spec.md §4.6's inventory-position formula).
func splitUnfulfilled(orders []domain.OrderLog, asof time.Time) ([]constraints.InTransitReceipt, int) {
	var inTransit []constraints.InTransitReceipt
	unfulfilledQty := 0
	for _, o := range orders {
		remaining := o.Remaining()
		if remaining <= 0 {
			continue
		}
		if o.ReceiptDate.After(asof) {
			inTransit = append(inTransit, constraints.InTransitReceipt{Qty: remaining, ReceiptDate: o.ReceiptDate})
		} else {
			unfulfilledQty += remaining
		}
	}
	return inTransit, unfulfilledQty
}

func historyStats(history []forecast.HistoryPoint) (validDays, oosDays int) {
	for _, h := range history {
		if h.Censored {
			oosDays++
		} else {
			validDays++
		}
	}
	return
}

func countRecentOOS(history []forecast.HistoryPoint, lookbackDays int) int {
	if lookbackDays <= 0 || len(history) == 0 {
		return 0
	}
	start := len(history) - lookbackDays
	if start < 0 {
		start = 0
	}
	count := 0
	for _, h := range history[start:] {
		if h.Censored {
			count++
		}
	}
	return count
}

func protectionMidpoint(r1 time.Time, protectionDays int) time.Time {
	return r1.AddDate(0, 0, protectionDays/2)
}

func repeatDemand(daily float64, days int) []float64 {
	if days < 1 {
		days = 1
	}
	out := make([]float64, days)
	for i := range out {
		out[i] = daily
	}
	return out
}

func cooldownCap(c modifiers.CooldownResult, settings modifiers.Settings) int {
	if c.Applied && c.CapApplied {
		return settings.PostPromoAbsoluteCap
	}
	return 0
}

// roundingConstraints reports whether pack-size rounding and/or the MOQ
// floor actually changed the raw quantity, for OrderExplain's
// constraint_pack / constraint_moq flags (spec.md §4.6).
func roundingConstraints(qRaw float64, packSize, moq int) (packApplied, moqApplied bool) {
	if qRaw <= 0 || packSize <= 0 {
		return false, false
	}
	n := int(math.Ceil(qRaw / float64(packSize)))
	if n < 1 {
		n = 1
	}
	packRounded := n * packSize
	packApplied = float64(packRounded) != qRaw
	moqApplied = packRounded < moq
	return packApplied, moqApplied
}

func intermittentClassifier(r forecast.Result) string {
	if !r.Meta.AutoSelected {
		return ""
	}
	return string(r.Meta.ChosenMethod)
}

func buildNotes(r forecast.Result, oosBoostApplied bool, caps constraints.CapsResult) []string {
	var notes []string
	if r.Meta.LowHistory {
		notes = append(notes, "low_history")
	}
	if r.Meta.FallbackReason != "" {
		notes = append(notes, r.Meta.FallbackReason)
	}
	if oosBoostApplied {
		notes = append(notes, "oos_boost_applied")
	}
	if caps.ShelfLifeWarning {
		notes = append(notes, "shelf_life_capacity_exceeded")
	}
	return notes
}
