package settings

// ScopeOverride is one entry in a hierarchical threshold setting — an
// override that applies when the given scope fields match the SKU under
// consideration. An empty field is a wildcard for that dimension.
type ScopeOverride struct {
	SKU        string
	Category   string
	Department string
	Value      interface{}
}

// HierarchicalSetting is a global default plus a set of scope overrides,
// the shape spec.md §4.4 needs for promo pooling, CSL cluster resolution,
// and event-uplift scope fallback.
type HierarchicalSetting struct {
	Global    interface{}
	Overrides []ScopeOverride
}

// ResolveHierarchical picks the most specific override matching (sku,
// category, department), generalized directly from the teacher's
// DetectorConfigService.ResolveThreshold specificity scorer: each matching
// dimension adds to a score (sku=4, category=2, department=1, mirroring the
// teacher's warehouse=4/facility=2/moType=1 weighting), and the
// highest-scoring override wins; ties keep the first one encountered. With
// no matching override, the global default applies.
func ResolveHierarchical(setting HierarchicalSetting, sku, category, department string) (interface{}, string) {
	var best *ScopeOverride
	bestScore := -1

	for i := range setting.Overrides {
		override := &setting.Overrides[i]
		score := 0

		if override.SKU != "" {
			if override.SKU != sku {
				continue
			}
			score += 4
		}
		if override.Category != "" {
			if override.Category != category {
				continue
			}
			score += 2
		}
		if override.Department != "" {
			if override.Department != department {
				continue
			}
			score += 1
		}

		if score > bestScore {
			best = override
			bestScore = score
		}
	}

	if best != nil {
		return best.Value, "override"
	}
	return setting.Global, "global"
}
