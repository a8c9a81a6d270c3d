// Package settings implements the nested settings-tree model spec.md §6
// requires ("a nested mapping; every leaf is {value,
// auto_apply_to_new_sku?, description?}") plus hierarchical scope
// resolution, generalized from the teacher's JSONB-override specificity
// scorer (DetectorConfigService.ResolveThreshold) from (warehouse, facility,
// moType) to (sku, category, department).
package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// Leaf is one terminal settings value.
type Leaf struct {
	Value             interface{}
	AutoApplyToNewSKU bool
	Description       string
}

// Node is either a Leaf or a nested Tree.
type Node struct {
	Leaf *Leaf
	Tree Tree
}

// Tree is a nested settings mapping keyed by section/leaf name.
type Tree map[string]Node

// LeafNode builds a Node wrapping a Leaf value.
func LeafNode(value interface{}) Node {
	return Node{Leaf: &Leaf{Value: value}}
}

// TreeNode builds a Node wrapping a nested Tree.
func TreeNode(t Tree) Node {
	return Node{Tree: t}
}

// Get walks a dotted path ("reorder_engine.moq") and returns the leaf at
// that path, or false if the path does not resolve to a leaf.
func (t Tree) Get(path string) (Leaf, bool) {
	parts := strings.Split(path, ".")
	node, ok := t.walk(parts)
	if !ok || node.Leaf == nil {
		return Leaf{}, false
	}
	return *node.Leaf, true
}

func (t Tree) walk(parts []string) (Node, bool) {
	if len(parts) == 0 {
		return Node{}, false
	}
	node, ok := t[parts[0]]
	if !ok {
		return Node{}, false
	}
	if len(parts) == 1 {
		return node, true
	}
	if node.Tree == nil {
		return Node{}, false
	}
	return node.Tree.walk(parts[1:])
}

// Int reads a path as an int, falling back to def when absent or
// unconvertible.
func (t Tree) Int(path string, def int) int {
	leaf, ok := t.Get(path)
	if !ok {
		return def
	}
	switch v := leaf.Value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Float reads a path as a float64, falling back to def when absent or
// unconvertible.
func (t Tree) Float(path string, def float64) float64 {
	leaf, ok := t.Get(path)
	if !ok {
		return def
	}
	switch v := leaf.Value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// String reads a path as a string, falling back to def when absent.
func (t Tree) String(path string, def string) string {
	leaf, ok := t.Get(path)
	if !ok {
		return def
	}
	if s, ok := leaf.Value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", leaf.Value)
}

// Bool reads a path as a bool, falling back to def when absent or
// unconvertible.
func (t Tree) Bool(path string, def bool) bool {
	leaf, ok := t.Get(path)
	if !ok {
		return def
	}
	switch v := leaf.Value.(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
