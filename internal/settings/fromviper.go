package settings

// FromMap converts a generic nested map — the shape viper's
// AllSettings()/Unmarshal produce from YAML/JSON config — into a Tree. Any
// map value with a "value" key is treated as a Leaf, reading
// "auto_apply_to_new_sku" and "description" when present and ignoring other
// keys; any other nested map recurses as a sub-Tree; anything
// else becomes a bare Leaf with no metadata.
func FromMap(raw map[string]interface{}) Tree {
	tree := make(Tree, len(raw))
	for key, value := range raw {
		tree[key] = nodeFromValue(value)
	}
	return tree
}

func nodeFromValue(value interface{}) Node {
	m, ok := value.(map[string]interface{})
	if !ok {
		return LeafNode(value)
	}
	if v, hasValue := m["value"]; hasValue {
		leaf := Leaf{Value: v}
		if desc, ok := m["description"].(string); ok {
			leaf.Description = desc
		}
		if auto, ok := m["auto_apply_to_new_sku"].(bool); ok {
			leaf.AutoApplyToNewSKU = auto
		}
		return Node{Leaf: &leaf}
	}
	return TreeNode(FromMap(m))
}
