// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"github.com/atmyapp/ama/pkg/amadef"
)

// Rule is one constant-folding rewrite. When reports whether the rule
// applies to a schema node; Transform produces the node's full replacement.
// A replacement is taken whole, the walk does not descend into it.
type Rule struct {
	Name      string
	When      func(node map[string]any) bool
	Transform func(node map[string]any) any
}

// RuleSet is an ordered collection of folding rules. Rules are checked in
// registration order and the first match wins.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet returns a RuleSet seeded with the stock asset-config rule.
func NewRuleSet() *RuleSet {
	rs := &RuleSet{}
	rs.Add(assetConfigRule())
	return rs
}

// Add appends a rule. Later rules only see nodes no earlier rule claimed.
func (rs *RuleSet) Add(rule Rule) {
	rs.rules = append(rs.rules, rule)
}

// Fold rewrites v recursively: slices map element-wise, objects are either
// replaced by the first matching rule or folded key by key, everything else
// passes through untouched. The input is never mutated.
func (rs *RuleSet) Fold(v any) any {
	switch node := v.(type) {
	case []any:
		out := make([]any, len(node))
		for i, item := range node {
			out[i] = rs.Fold(item)
		}
		return out
	case map[string]any:
		for _, rule := range rs.rules {
			if rule.When(node) {
				return rule.Transform(node)
			}
		}
		out := make(map[string]any, len(node))
		for k, item := range node {
			out[k] = rs.Fold(item)
		}
		return out
	default:
		return v
	}
}

// assetMarkers are the definition kinds whose schema nodes fold into a
// marker-plus-config pair.
var assetMarkers = map[string]bool{
	amadef.MarkerImage: true,
	amadef.MarkerFile:  true,
	amadef.MarkerIcon:  true,
}

// assetConfigRule folds a schema node carrying an asset marker and a config
// sub-schema into the plain pair the platform stores.
func assetConfigRule() Rule {
	return Rule{
		Name: "asset-config",
		When: func(node map[string]any) bool {
			marker, ok := amadef.ConstString(amadef.Property(node, amadef.MarkerKey))
			if !ok || !assetMarkers[marker] {
				return false
			}
			_, hasConfig := amadef.Properties(node)[amadef.ConfigKey]
			return hasConfig
		},
		Transform: func(node map[string]any) any {
			marker, _ := amadef.ConstString(amadef.Property(node, amadef.MarkerKey))
			return map[string]any{
				amadef.MarkerKey: marker,
				"config":         ExtractConstants(amadef.Property(node, amadef.ConfigKey)),
			}
		},
	}
}

// ExtractConstants rebuilds the plain value tree a constants-only sub-schema
// encodes: each property's const becomes its value, object-typed properties
// with nested properties recurse, anything else is omitted.
func ExtractConstants(schema map[string]any) map[string]any {
	out := map[string]any{}
	for name, raw := range amadef.Properties(schema) {
		sub := amadef.AsObject(raw)
		if v, ok := amadef.ConstOf(sub); ok {
			out[name] = v
			continue
		}
		if amadef.TypeOf(sub) == "object" && amadef.Properties(sub) != nil {
			out[name] = ExtractConstants(sub)
		}
	}
	return out
}
