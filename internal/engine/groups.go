package engine

import "github.com/pinggolf/reorder-engine/internal/settings"

// substituteGroups reads promo_cannibalization.groups from the settings tree
// — a map of group_id to a list of SKU codes — and returns the peer set for
// every SKU that belongs to at least one group. A SKU's peers are every
// other SKU sharing any group with it (spec.md §4.4's cannibalisation
// downlift "substitute groups (map group_id → [sku,…])").
func substituteGroups(tree settings.Tree) map[string][]string {
	groupsNode, ok := tree["promo_cannibalization"]
	if !ok || groupsNode.Tree == nil {
		return nil
	}
	listNode, ok := groupsNode.Tree["groups"]
	if !ok || listNode.Tree == nil {
		return nil
	}

	peers := make(map[string]map[string]bool)
	for _, node := range listNode.Tree {
		if node.Leaf == nil {
			continue
		}
		members := stringList(node.Leaf.Value)
		for _, a := range members {
			if peers[a] == nil {
				peers[a] = make(map[string]bool)
			}
			for _, b := range members {
				if a != b {
					peers[a][b] = true
				}
			}
		}
	}

	out := make(map[string][]string, len(peers))
	for sku, set := range peers {
		list := make([]string, 0, len(set))
		for peer := range set {
			list = append(list, peer)
		}
		out[sku] = list
	}
	return out
}

func stringList(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
