package fixtures

// DefaultSettingsMap builds the nested settings tree the engine's
// collaborator packages resolve their tunables from, in the generic
// map[string]interface{} shape settings.FromMap reads back
// (csvrepo.ReadSettings unmarshals settings.json into exactly this shape).
// Leaves are wrapped as {"value": ..., "description": ...} (the description
// is left out when empty) so a human editing settings.json sees the same
// self-describing structure the engine resolves against;
// promo_cannibalization.groups is a plain map of group name to SKU list.
func DefaultSettingsMap() map[string]interface{} {
	return map[string]interface{}{
		"reorder_engine": map[string]interface{}{
			"lead_time_days":      leaf(7, "default lead time when a SKU leaves lead_time_days at 0"),
			"moq":                 leaf(1, "default minimum order quantity"),
			"pack_size":           leaf(1, "default pack multiple"),
			"review_period":       leaf(7, "default review cycle length in days"),
			"safety_stock":        leaf(0, "legacy-mode safety stock"),
			"max_stock":           leaf(999, "default max stock cap"),
			"reorder_point":       leaf(10, "legacy-mode reorder point"),
			"demand_variability":  leaf("STABLE", "default demand_variability classification"),
			"forecast_method":     leaf("simple", "default forecast method absent a per-SKU override"),
			"policy_mode":         leaf("legacy", "legacy or csl"),
			"oos_boost_percent":   leaf(0, "one-time forecast boost applied when recent censoring is detected"),
			"oos_lookback_days":   leaf(28, "lookback window for the oos boost check"),
			"oos_detection_mode":  leaf("strict", "strict or relaxed"),
			"max_concurrent_skus": leaf(0, "0 = runtime.GOMAXPROCS(0)"),
		},
		"monte_carlo": map[string]interface{}{
			"distribution":      leaf("empirical", "empirical | normal | lognormal | residuals"),
			"n_simulations":     leaf(1000, "trajectory count"),
			"random_seed":       leaf(42, "deterministic seed"),
			"output_stat":       leaf("mean", "mean | percentile"),
			"output_percentile": leaf(0.95, "used when output_stat=percentile"),
			"horizon_mode":      leaf("auto", "auto | custom"),
			"horizon_days":      leaf(0, "used when horizon_mode=custom"),
			"show_comparison":   leaf(false, "GUI-only flag, carried through unread by the core"),
			"sigma_window_weeks": leaf(8, "residual std window for the simple method"),
		},
		"intermittent_forecast": map[string]interface{}{
			"enabled":                  leaf(true, ""),
			"adi_threshold":            leaf(1.32, "average demand interval threshold"),
			"cv2_threshold":            leaf(0.49, "squared CV of non-zero demand threshold"),
			"alpha_default":            leaf(0.1, "Croston/SBA/TSB smoothing constant"),
			"lookback_days":            leaf(90, ""),
			"min_nonzero_observations": leaf(6, ""),
			"backtest_enabled":         leaf(false, ""),
			"backtest_periods":         leaf(8, ""),
			"backtest_metric":          leaf("wmape", "wmape | bias"),
			"default_method":           leaf("croston", "croston | sba | tsb"),
			"fallback_to_simple":       leaf(true, ""),
			"sigma_estimation_mode":    leaf("rolling", "rolling | bootstrap | fallback"),
		},
		"service_level": map[string]interface{}{
			"metric":                  leaf("csl", "csl | fill_rate_proxy"),
			"default_csl":             leaf(0.95, ""),
			"lookback_days":           leaf(90, ""),
			"oos_mode":                leaf("strict", ""),
			"cluster_csl_high":        leaf(0.98, ""),
			"cluster_csl_stable":      leaf(0.90, ""),
			"cluster_csl_low":        leaf(0.85, ""),
			"cluster_csl_seasonal":    leaf(0.95, ""),
			"cluster_csl_perishable":  leaf(0.85, ""),
		},
		"closed_loop": map[string]interface{}{
			"enabled":                 leaf(false, ""),
			"review_frequency_days":   leaf(7, ""),
			"max_alpha_step_per_review": leaf(0.02, ""),
			"oos_rate_threshold":      leaf(0.05, ""),
			"wmape_threshold":         leaf(0.5, ""),
			"waste_rate_threshold":    leaf(0.02, ""),
			"action_mode":             leaf("suggest", "suggest | apply"),
			"min_csl_absolute":        leaf(0.50, ""),
			"max_csl_absolute":        leaf(0.995, ""),
		},
		"event_uplift": map[string]interface{}{
			"enabled":                        leaf(true, ""),
			"default_quantile":               leaf(0.8, ""),
			"min_factor":                     leaf(0.5, ""),
			"max_factor":                     leaf(3.0, ""),
			"perishables_exclude_threshold":  leaf(2, ""),
			"apply_to":                       leaf("forecast_only", "forecast_only | forecast_and_sigma"),
			"similar_days_window":            leaf(4, ""),
			"min_samples_u":                  leaf(4, ""),
			"min_samples_beta":               leaf(6, ""),
			"beta_normalization_mode":        leaf("mean_one", "mean_one | weighted_sum_one | none"),
		},
		"shelf_life_policy": map[string]interface{}{
			"enabled":                 leaf(true, ""),
			"min_shelf_life_global":   leaf(0, ""),
			"waste_penalty_mode":      leaf("soft", "soft | hard"),
			"waste_penalty_factor":    leaf(0.5, ""),
			"waste_risk_threshold":    leaf(20.0, "percent"),
			"waste_horizon_days":      leaf(14, ""),
			"waste_realization_factor": leaf(1.0, ""),
		},
		"promo_uplift": map[string]interface{}{
			"trim_percent":       leaf(0.1, "winsorisation trim"),
			"min_factor":         leaf(1.0, ""),
			"max_factor":         leaf(5.0, ""),
			"min_events_sku":     leaf(3, ""),
			"min_valid_days_sku": leaf(7, ""),
			"threshold_a":        leaf(5, "events needed for confidence grade A"),
		},
		"post_promo_guardrail": map[string]interface{}{
			"window_days":  leaf(7, ""),
			"factor":       leaf(0.8, "constant cooldown factor"),
			"dip_floor":    leaf(0.5, ""),
			"dip_ceiling":  leaf(1.0, ""),
			"absolute_cap": leaf(0, "0 = no absolute cap"),
		},
		"promo_cannibalization": map[string]interface{}{
			"min_factor":       leaf(0.6, ""),
			"max_factor":       leaf(1.0, ""),
			"min_events":       leaf(2, ""),
			"min_valid_days":   leaf(7, ""),
			"groups":           map[string]interface{}{},
		},
		"calendar": map[string]interface{}{
			"order_days": leaf([]interface{}{0, 1, 2, 3, 4}, "Mon-Fri, 0=Mon"),
		},
	}
}

func leaf(value interface{}, description string) map[string]interface{} {
	if description == "" {
		return map[string]interface{}{"value": value}
	}
	return map[string]interface{}{"value": value, "description": description}
}
