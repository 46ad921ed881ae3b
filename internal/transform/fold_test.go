// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"reflect"
	"testing"

	"github.com/atmyapp/ama/pkg/amadef"
)

func imageNode() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			amadef.MarkerKey: map[string]any{"const": amadef.MarkerImage},
			amadef.ConfigKey: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"alt":   map[string]any{"const": "Hero image"},
					"width": map[string]any{"const": 1200},
					"crop": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"smart": map[string]any{"const": true},
						},
					},
					"unresolved": map[string]any{"type": "string"},
				},
			},
		},
	}
}

func foldedImageNode() map[string]any {
	return map[string]any{
		amadef.MarkerKey: amadef.MarkerImage,
		"config": map[string]any{
			"alt":   "Hero image",
			"width": 1200,
			"crop":  map[string]any{"smart": true},
		},
	}
}

func TestFold_AssetConfigRule(t *testing.T) {
	got := NewRuleSet().Fold(imageNode())

	if !reflect.DeepEqual(got, foldedImageNode()) {
		t.Errorf("Fold() = %#v, want %#v", got, foldedImageNode())
	}
}

func TestFold_RecursesIntoObjectsAndArrays(t *testing.T) {
	in := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"hero": imageNode(),
			"gallery": []any{
				imageNode(),
				"caption",
			},
			"title": map[string]any{"type": "string"},
		},
	}

	got := NewRuleSet().Fold(in).(map[string]any)

	props := amadef.Properties(got)
	if !reflect.DeepEqual(props["hero"], foldedImageNode()) {
		t.Errorf("hero = %#v, want folded", props["hero"])
	}
	gallery := props["gallery"].([]any)
	if !reflect.DeepEqual(gallery[0], foldedImageNode()) {
		t.Errorf("gallery[0] = %#v, want folded", gallery[0])
	}
	if gallery[1] != "caption" {
		t.Errorf("gallery[1] = %v, want scalar passthrough", gallery[1])
	}
	if !reflect.DeepEqual(props["title"], map[string]any{"type": "string"}) {
		t.Errorf("title = %#v, want untouched", props["title"])
	}
}

func TestFold_MarkerWithoutConfigNotFolded(t *testing.T) {
	in := map[string]any{
		"type": "object",
		"properties": map[string]any{
			amadef.MarkerKey: map[string]any{"const": amadef.MarkerImage},
		},
	}

	got := NewRuleSet().Fold(in)

	if !reflect.DeepEqual(got, in) {
		t.Errorf("Fold() = %#v, want structurally unchanged", got)
	}
}

func TestFold_NonAssetMarkerNotFolded(t *testing.T) {
	in := map[string]any{
		"type": "object",
		"properties": map[string]any{
			amadef.MarkerKey: map[string]any{"const": amadef.MarkerMdx},
			amadef.ConfigKey: map[string]any{"const": "blog"},
		},
	}

	got := NewRuleSet().Fold(in)

	if !reflect.DeepEqual(got, in) {
		t.Errorf("Fold() = %#v, want structurally unchanged", got)
	}
}

func TestFold_DoesNotMutateInput(t *testing.T) {
	in := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"hero": imageNode(),
		},
	}

	NewRuleSet().Fold(in)

	if !reflect.DeepEqual(amadef.Property(in, "hero"), imageNode()) {
		t.Error("Fold() mutated its input")
	}
}

func TestFold_FirstMatchWins(t *testing.T) {
	rs := NewRuleSet()
	rs.Add(Rule{
		Name: "image-markers",
		When: func(node map[string]any) bool {
			marker, ok := amadef.ConstString(amadef.Property(node, amadef.MarkerKey))
			return ok && marker == amadef.MarkerImage
		},
		Transform: func(node map[string]any) any {
			return "claimed-by-custom"
		},
	})

	// With a config the stock rule matches first.
	if got := rs.Fold(imageNode()); !reflect.DeepEqual(got, foldedImageNode()) {
		t.Errorf("Fold(with config) = %#v, want stock folding", got)
	}

	// Without a config only the custom rule matches.
	bare := map[string]any{
		"type": "object",
		"properties": map[string]any{
			amadef.MarkerKey: map[string]any{"const": amadef.MarkerImage},
		},
	}
	if got := rs.Fold(bare); got != "claimed-by-custom" {
		t.Errorf("Fold(no config) = %#v, want custom replacement", got)
	}
}

func TestExtractConstants(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":    map[string]any{"const": "hero"},
			"columns": map[string]any{"const": []any{"a", "b"}},
			"nested": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"deep": map[string]any{"const": 42},
				},
			},
			"noConst":     map[string]any{"type": "string"},
			"notAnObject": "stray",
		},
	}

	want := map[string]any{
		"name":    "hero",
		"columns": []any{"a", "b"},
		"nested":  map[string]any{"deep": 42},
	}
	if got := ExtractConstants(schema); !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractConstants() = %#v, want %#v", got, want)
	}
}

func TestExtractConstants_Empty(t *testing.T) {
	if got := ExtractConstants(nil); len(got) != 0 {
		t.Errorf("ExtractConstants(nil) = %#v, want empty", got)
	}
	if got := ExtractConstants(map[string]any{"type": "object"}); len(got) != 0 {
		t.Errorf("ExtractConstants(no properties) = %#v, want empty", got)
	}
}

func TestFold_Idempotent(t *testing.T) {
	rs := NewRuleSet()

	once := rs.Fold(imageNode())
	twice := rs.Fold(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Fold(Fold(x)) = %#v, want %#v", twice, once)
	}
}
