// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"fmt"
	"slices"

	"github.com/atmyapp/ama/pkg/amadef"
)

// maxIndexes caps a collection's index list.
const maxIndexes = 10

// reservedColumns are row field names the storage layer owns.
var reservedColumns = map[string]bool{
	"id":         true,
	"created_at": true,
}

// HasRowType reports whether structure declares a row-typed collection.
func HasRowType(structure map[string]any) bool {
	_, ok := amadef.Properties(structure)[amadef.RowTypeKey]
	return ok
}

// ReservedRowFields returns the reserved field names a row-typed collection
// declares, in sorted order. Empty when the structure has no row type or no
// conflicts.
func ReservedRowFields(structure map[string]any) []string {
	props := amadef.Properties(amadef.Property(structure, amadef.RowTypeKey))
	var hits []string
	for _, name := range sortedKeys(props) {
		if reservedColumns[name] {
			hits = append(hits, name)
		}
	}
	return hits
}

// ConvertCollection flattens a row-typed collection schema into its field-map
// output form. Conversion is all-or-nothing: a reserved field name, an
// unsupported field type or an empty row type fails the whole collection.
func ConvertCollection(structure map[string]any) (map[string]any, error) {
	rowType := amadef.Property(structure, amadef.RowTypeKey)
	props := amadef.Properties(rowType)
	if len(props) == 0 {
		return nil, fmt.Errorf("collection row type has no fields")
	}

	fields := make(map[string]any, len(props))
	for _, name := range sortedKeys(props) {
		if reservedColumns[name] {
			return nil, fmt.Errorf("collection field %q is reserved", name)
		}
		field, err := convertField(name, amadef.AsObject(props[name]))
		if err != nil {
			return nil, err
		}
		fields[name] = field
	}

	out := map[string]any{
		amadef.MarkerKey: amadef.MarkerCollection,
		"description":    descriptionOf(structure, "A collection of records"),
		"fields":         fields,
	}
	if indexes := indexedColumns(structure); len(indexes) > 0 {
		out["indexes"] = indexes
	}
	return out, nil
}

// convertField maps one row field schema to its output form. Asset and MDX
// markers take priority over plain type inference.
func convertField(name string, schema map[string]any) (map[string]any, error) {
	if schema == nil {
		return nil, fmt.Errorf("collection field %q has no schema", name)
	}

	marker, _ := amadef.ConstString(amadef.Property(schema, amadef.MarkerKey))
	switch marker {
	case amadef.MarkerImage, amadef.MarkerIcon:
		field := map[string]any{
			"type":        "string",
			"description": descriptionOf(schema, defaultFieldDescription(name)),
			"format":      "image",
		}
		if marker == amadef.MarkerIcon {
			field["semanticType"] = "icon"
		}
		if opts, ok := constOrDefault(amadef.Property(amadef.Property(schema, amadef.ConfigKey), "imageOptions")); ok {
			field["imageOptions"] = opts
		}
		return field, nil
	case amadef.MarkerFile:
		return map[string]any{
			"type":        "string",
			"description": descriptionOf(schema, defaultFieldDescription(name)),
			"format":      "file",
		}, nil
	case amadef.MarkerMdx:
		return map[string]any{
			"type":           "string",
			"description":    descriptionOf(schema, defaultFieldDescription(name)),
			"format":         "mdx",
			"storeInBlob":    true,
			amadef.MarkerKey: amadef.MarkerMdx,
			"mdxConfig":      mdxConfigName(schema),
		}, nil
	}

	return convertPlainField(name, schema)
}

// convertPlainField infers a primitive, array or object field from the
// schema's type, enum or const. Integer narrows to number; anything outside
// the supported set fails.
func convertPlainField(name string, schema map[string]any) (map[string]any, error) {
	desc := descriptionOf(schema, defaultFieldDescription(name))

	typ := amadef.TypeOf(schema)
	if typ == "" {
		if vs := amadef.EnumOf(schema); len(vs) > 0 {
			inferred, err := jsonTypeOf(vs[0])
			if err != nil {
				return nil, fmt.Errorf("collection field %q: %w", name, err)
			}
			return map[string]any{"type": inferred, "enum": vs, "description": desc}, nil
		}
		if v, ok := amadef.ConstOf(schema); ok {
			inferred, err := jsonTypeOf(v)
			if err != nil {
				return nil, fmt.Errorf("collection field %q: %w", name, err)
			}
			return map[string]any{"type": inferred, "const": v, "description": desc}, nil
		}
		return nil, fmt.Errorf("collection field %q has no recognizable type", name)
	}

	switch typ {
	case "integer":
		typ = "number"
	case "string", "number", "boolean", "null":
	case "array":
		out := map[string]any{"type": "array", "description": desc}
		if items := amadef.ItemsOf(schema); items != nil {
			converted, err := convertField(name+" items", items)
			if err != nil {
				return nil, err
			}
			out["items"] = converted
		}
		return out, nil
	case "object":
		out := map[string]any{"type": "object", "description": desc}
		props := amadef.Properties(schema)
		if len(props) > 0 {
			sub := make(map[string]any, len(props))
			for _, subName := range sortedKeys(props) {
				converted, err := convertField(subName, amadef.AsObject(props[subName]))
				if err != nil {
					return nil, err
				}
				sub[subName] = converted
			}
			out["properties"] = sub
			if required := filteredRequired(schema, sub); len(required) > 0 {
				out["required"] = required
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("collection field %q has unsupported type %q", name, typ)
	}

	field := map[string]any{"type": typ, "description": desc}
	if vs := amadef.EnumOf(schema); len(vs) > 0 {
		field["enum"] = vs
	}
	if v, ok := amadef.ConstOf(schema); ok {
		field["const"] = v
	}
	return field, nil
}

// indexedColumns reads the collection's indexed column list from its config
// sub-schema, capped at maxIndexes. Non-string entries are ignored.
func indexedColumns(structure map[string]any) []string {
	node := amadef.Property(amadef.Property(structure, amadef.ConfigKey), "indexedColumns")
	v, ok := constOrDefault(node)
	if !ok {
		return nil
	}
	vs, ok := v.([]any)
	if !ok {
		return nil
	}
	columns := amadef.StringValues(vs)
	if len(columns) > maxIndexes {
		columns = columns[:maxIndexes]
	}
	return columns
}

// mdxConfigName extracts the config name an MDX field references, either as
// the config schema's own constant or as its name property.
func mdxConfigName(schema map[string]any) string {
	cfg := amadef.Property(schema, amadef.ConfigKey)
	if s, ok := amadef.ConstString(cfg); ok {
		return s
	}
	if s, ok := amadef.ConstString(amadef.Property(cfg, "name")); ok {
		return s
	}
	return ""
}

// constOrDefault returns node's const value, falling back to its default.
func constOrDefault(node map[string]any) (any, bool) {
	if v, ok := amadef.ConstOf(node); ok {
		return v, true
	}
	if node == nil {
		return nil, false
	}
	v, ok := node["default"]
	return v, ok
}

// filteredRequired keeps the schema's required list limited to fields that
// actually converted, preserving the declared order.
func filteredRequired(schema map[string]any, fields map[string]any) []string {
	vs, _ := schema["required"].([]any)
	var out []string
	for _, name := range amadef.StringValues(vs) {
		if _, ok := fields[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func descriptionOf(schema map[string]any, fallback string) string {
	if s, _ := schema["description"].(string); s != "" {
		return s
	}
	return fallback
}

func defaultFieldDescription(name string) string {
	return "The " + name + " field"
}

// jsonTypeOf names the JSON type of a decoded constant.
func jsonTypeOf(v any) (string, error) {
	switch v.(type) {
	case string:
		return "string", nil
	case float64, int:
		return "number", nil
	case bool:
		return "boolean", nil
	case nil:
		return "null", nil
	case []any:
		return "array", nil
	case map[string]any:
		return "object", nil
	}
	return "", fmt.Errorf("unsupported constant of type %T", v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
