// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"reflect"
	"strings"
	"testing"

	"github.com/atmyapp/ama/pkg/amadef"
)

func collectionStructure(rowProps map[string]any) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			amadef.RowTypeKey: map[string]any{
				"type":       "object",
				"properties": rowProps,
			},
		},
	}
}

func TestHasRowType(t *testing.T) {
	if !HasRowType(collectionStructure(map[string]any{"title": map[string]any{"type": "string"}})) {
		t.Error("HasRowType() = false for a row-typed structure")
	}
	if HasRowType(map[string]any{"type": "object"}) {
		t.Error("HasRowType() = true for a plain structure")
	}
	if HasRowType(nil) {
		t.Error("HasRowType(nil) = true")
	}
}

func TestConvertCollection(t *testing.T) {
	structure := map[string]any{
		"type":        "object",
		"description": "Blog posts",
		"properties": map[string]any{
			amadef.RowTypeKey: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{"type": "string", "description": "Post title"},
					"views": map[string]any{"type": "integer"},
					"cover": map[string]any{
						"type": "object",
						"properties": map[string]any{
							amadef.MarkerKey: map[string]any{"const": amadef.MarkerImage},
							amadef.ConfigKey: map[string]any{
								"type": "object",
								"properties": map[string]any{
									"imageOptions": map[string]any{"const": map[string]any{"width": 800}},
								},
							},
						},
					},
				},
			},
			amadef.ConfigKey: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"indexedColumns": map[string]any{"const": []any{"title", "views"}},
				},
			},
		},
	}

	got, err := ConvertCollection(structure)
	if err != nil {
		t.Fatalf("ConvertCollection() error = %v", err)
	}

	want := map[string]any{
		amadef.MarkerKey: amadef.MarkerCollection,
		"description":    "Blog posts",
		"fields": map[string]any{
			"title": map[string]any{"type": "string", "description": "Post title"},
			"views": map[string]any{"type": "number", "description": "The views field"},
			"cover": map[string]any{
				"type":         "string",
				"description":  "The cover field",
				"format":       "image",
				"imageOptions": map[string]any{"width": 800},
			},
		},
		"indexes": []string{"title", "views"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ConvertCollection() = %#v, want %#v", got, want)
	}
}

func TestConvertCollection_DefaultDescription(t *testing.T) {
	got, err := ConvertCollection(collectionStructure(map[string]any{
		"title": map[string]any{"type": "string"},
	}))
	if err != nil {
		t.Fatalf("ConvertCollection() error = %v", err)
	}
	if desc, _ := got["description"].(string); desc == "" {
		t.Error("collection description is empty, want a generated placeholder")
	}
}

func TestConvertCollection_ReservedFields(t *testing.T) {
	for _, reserved := range []string{"id", "created_at"} {
		t.Run(reserved, func(t *testing.T) {
			structure := collectionStructure(map[string]any{
				"title":  map[string]any{"type": "string"},
				reserved: map[string]any{"type": "string"},
			})

			got, err := ConvertCollection(structure)
			if err == nil {
				t.Fatalf("ConvertCollection() = %#v, want reserved-field error", got)
			}
			if !strings.Contains(err.Error(), reserved) {
				t.Errorf("error = %v, want it to name %q", err, reserved)
			}
		})
	}
}

func TestConvertCollection_UnsupportedTypeFailsWhole(t *testing.T) {
	structure := collectionStructure(map[string]any{
		"title": map[string]any{"type": "string"},
		"when":  map[string]any{"type": "date"},
	})

	if got, err := ConvertCollection(structure); err == nil {
		t.Fatalf("ConvertCollection() = %#v, want unsupported-type error", got)
	}
}

func TestConvertCollection_EmptyRowType(t *testing.T) {
	tests := []struct {
		name    string
		rowType any
	}{
		{"no properties", map[string]any{"type": "object"}},
		{"not a schema", "bogus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			structure := map[string]any{
				"type":       "object",
				"properties": map[string]any{amadef.RowTypeKey: tt.rowType},
			}
			if got, err := ConvertCollection(structure); err == nil {
				t.Fatalf("ConvertCollection() = %#v, want error", got)
			}
		})
	}
}

func TestConvertCollection_IconField(t *testing.T) {
	got, err := ConvertCollection(collectionStructure(map[string]any{
		"badge": map[string]any{
			"type": "object",
			"properties": map[string]any{
				amadef.MarkerKey: map[string]any{"const": amadef.MarkerIcon},
			},
		},
	}))
	if err != nil {
		t.Fatalf("ConvertCollection() error = %v", err)
	}

	field := got["fields"].(map[string]any)["badge"].(map[string]any)
	if field["format"] != "image" || field["semanticType"] != "icon" {
		t.Errorf("badge = %#v, want image format with icon semantic type", field)
	}
}

func TestConvertCollection_FileField(t *testing.T) {
	got, err := ConvertCollection(collectionStructure(map[string]any{
		"attachment": map[string]any{
			"type": "object",
			"properties": map[string]any{
				amadef.MarkerKey: map[string]any{"const": amadef.MarkerFile},
			},
		},
	}))
	if err != nil {
		t.Fatalf("ConvertCollection() error = %v", err)
	}

	field := got["fields"].(map[string]any)["attachment"].(map[string]any)
	if field["type"] != "string" || field["format"] != "file" {
		t.Errorf("attachment = %#v, want string field with file format", field)
	}
}

func TestConvertCollection_MdxField(t *testing.T) {
	got, err := ConvertCollection(collectionStructure(map[string]any{
		"body": map[string]any{
			"type": "object",
			"properties": map[string]any{
				amadef.MarkerKey: map[string]any{"const": amadef.MarkerMdx},
				amadef.ConfigKey: map[string]any{"const": "blog"},
			},
		},
	}))
	if err != nil {
		t.Fatalf("ConvertCollection() error = %v", err)
	}

	field := got["fields"].(map[string]any)["body"].(map[string]any)
	want := map[string]any{
		"type":           "string",
		"description":    "The body field",
		"format":         "mdx",
		"storeInBlob":    true,
		amadef.MarkerKey: amadef.MarkerMdx,
		"mdxConfig":      "blog",
	}
	if !reflect.DeepEqual(field, want) {
		t.Errorf("body = %#v, want %#v", field, want)
	}
}

func TestConvertCollection_NestedObjectFiltersRequired(t *testing.T) {
	got, err := ConvertCollection(collectionStructure(map[string]any{
		"author": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
				"age":  map[string]any{"type": "integer"},
			},
			"required": []any{"name", "missing"},
		},
	}))
	if err != nil {
		t.Fatalf("ConvertCollection() error = %v", err)
	}

	field := got["fields"].(map[string]any)["author"].(map[string]any)
	if !reflect.DeepEqual(field["required"], []string{"name"}) {
		t.Errorf("required = %#v, want [name]", field["required"])
	}
	props := field["properties"].(map[string]any)
	if props["age"].(map[string]any)["type"] != "number" {
		t.Errorf("age = %#v, want integer narrowed to number", props["age"])
	}
}

func TestConvertCollection_ArrayFields(t *testing.T) {
	got, err := ConvertCollection(collectionStructure(map[string]any{
		"tags": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"anything": map[string]any{"type": "array"},
	}))
	if err != nil {
		t.Fatalf("ConvertCollection() error = %v", err)
	}

	fields := got["fields"].(map[string]any)
	tags := fields["tags"].(map[string]any)
	if tags["items"].(map[string]any)["type"] != "string" {
		t.Errorf("tags = %#v, want string items", tags)
	}
	if _, ok := fields["anything"].(map[string]any)["items"]; ok {
		t.Errorf("anything = %#v, want no items key", fields["anything"])
	}
}

func TestConvertCollection_EnumAndConstInference(t *testing.T) {
	got, err := ConvertCollection(collectionStructure(map[string]any{
		"status": map[string]any{"enum": []any{"draft", "published"}},
		"schema": map[string]any{"const": 2},
	}))
	if err != nil {
		t.Fatalf("ConvertCollection() error = %v", err)
	}

	fields := got["fields"].(map[string]any)
	status := fields["status"].(map[string]any)
	if status["type"] != "string" || !reflect.DeepEqual(status["enum"], []any{"draft", "published"}) {
		t.Errorf("status = %#v, want string enum", status)
	}
	version := fields["schema"].(map[string]any)
	if version["type"] != "number" || version["const"] != 2 {
		t.Errorf("schema = %#v, want number const", version)
	}
}

func TestConvertCollection_FieldWithNoType(t *testing.T) {
	structure := collectionStructure(map[string]any{
		"mystery": map[string]any{"description": "no type at all"},
	})

	if got, err := ConvertCollection(structure); err == nil {
		t.Fatalf("ConvertCollection() = %#v, want error", got)
	}
}

func TestIndexedColumns(t *testing.T) {
	build := func(v map[string]any) map[string]any {
		return map[string]any{
			"type": "object",
			"properties": map[string]any{
				amadef.RowTypeKey: map[string]any{
					"type":       "object",
					"properties": map[string]any{"title": map[string]any{"type": "string"}},
				},
				amadef.ConfigKey: map[string]any{
					"type":       "object",
					"properties": map[string]any{"indexedColumns": v},
				},
			},
		}
	}

	t.Run("capped at ten", func(t *testing.T) {
		many := make([]any, 12)
		for i := range many {
			many[i] = string(rune('a' + i))
		}
		got, err := ConvertCollection(build(map[string]any{"const": many}))
		if err != nil {
			t.Fatalf("ConvertCollection() error = %v", err)
		}
		if indexes := got["indexes"].([]string); len(indexes) != 10 {
			t.Errorf("indexes has %d entries, want 10", len(indexes))
		}
	})

	t.Run("default fallback", func(t *testing.T) {
		got, err := ConvertCollection(build(map[string]any{"default": []any{"title"}}))
		if err != nil {
			t.Fatalf("ConvertCollection() error = %v", err)
		}
		if !reflect.DeepEqual(got["indexes"], []string{"title"}) {
			t.Errorf("indexes = %#v, want [title]", got["indexes"])
		}
	})

	t.Run("not an array", func(t *testing.T) {
		got, err := ConvertCollection(build(map[string]any{"const": "title"}))
		if err != nil {
			t.Fatalf("ConvertCollection() error = %v", err)
		}
		if _, ok := got["indexes"]; ok {
			t.Errorf("indexes = %#v, want absent", got["indexes"])
		}
	})
}
