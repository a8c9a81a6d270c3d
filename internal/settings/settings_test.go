package settings

import "testing"

func TestTree_DottedPathAccessors(t *testing.T) {
	tree := Tree{
		"reorder_engine": TreeNode(Tree{
			"moq":       LeafNode(5),
			"lead_time_days": LeafNode(7.0),
			"policy_mode":    LeafNode("csl"),
			"enabled":        LeafNode(true),
		}),
	}

	if got := tree.Int("reorder_engine.moq", -1); got != 5 {
		t.Fatalf("expected moq=5, got %v", got)
	}
	if got := tree.Float("reorder_engine.lead_time_days", -1); got != 7.0 {
		t.Fatalf("expected lead_time_days=7.0, got %v", got)
	}
	if got := tree.String("reorder_engine.policy_mode", ""); got != "csl" {
		t.Fatalf("expected policy_mode=csl, got %v", got)
	}
	if got := tree.Bool("reorder_engine.enabled", false); got != true {
		t.Fatalf("expected enabled=true, got %v", got)
	}
}

func TestTree_MissingPathFallsBackToDefault(t *testing.T) {
	tree := Tree{}
	if got := tree.Int("nope.here", 42); got != 42 {
		t.Fatalf("expected default 42, got %v", got)
	}
}

func TestFromMap_BuildsLeavesAndSubtrees(t *testing.T) {
	raw := map[string]interface{}{
		"reorder_engine": map[string]interface{}{
			"moq": map[string]interface{}{
				"value":       10,
				"description": "units per order",
			},
			"pack_size": 3,
		},
	}
	tree := FromMap(raw)
	if got := tree.Int("reorder_engine.moq", -1); got != 10 {
		t.Fatalf("expected moq=10, got %v", got)
	}
	if got := tree.Int("reorder_engine.pack_size", -1); got != 3 {
		t.Fatalf("expected pack_size=3, got %v", got)
	}
}

func TestResolveHierarchical_MostSpecificOverrideWins(t *testing.T) {
	setting := HierarchicalSetting{
		Global: 0.92,
		Overrides: []ScopeOverride{
			{Category: "Dairy", Value: 0.95},
			{SKU: "SKU-1", Value: 0.99},
		},
	}

	value, source := ResolveHierarchical(setting, "SKU-1", "Dairy", "Grocery")
	if value != 0.99 || source != "override" {
		t.Fatalf("expected the sku-level override (most specific) to win, got value=%v source=%v", value, source)
	}

	value, source = ResolveHierarchical(setting, "SKU-2", "Dairy", "Grocery")
	if value != 0.95 || source != "override" {
		t.Fatalf("expected the category override for a non-matching sku, got value=%v source=%v", value, source)
	}

	value, source = ResolveHierarchical(setting, "SKU-2", "Produce", "Grocery")
	if value != 0.92 || source != "global" {
		t.Fatalf("expected the global default with no matching override, got value=%v source=%v", value, source)
	}
}
