// SPDX-License-Identifier: MPL-2.0

package amadef

// Schema nodes arrive as generic JSON: map[string]any with nested maps,
// slices, strings, bools and float64 numbers. The helpers below probe that
// shape without panicking, so fallback chains can be written as plain
// sequential checks.

// AsObject returns v as a schema object, or nil when v is not a map.
func AsObject(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m
}

// Properties returns the "properties" object of node, or nil.
func Properties(node map[string]any) map[string]any {
	if node == nil {
		return nil
	}
	return AsObject(node["properties"])
}

// Property returns the named property object of node, or nil.
func Property(node map[string]any, name string) map[string]any {
	return AsObject(Properties(node)[name])
}

// ConstOf returns the raw "const" value of node and whether one exists.
func ConstOf(node map[string]any) (any, bool) {
	if node == nil {
		return nil, false
	}
	v, ok := node["const"]
	return v, ok
}

// ConstString returns node's "const" when it is a string.
func ConstString(node map[string]any) (string, bool) {
	v, ok := ConstOf(node)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ConstBool returns node's "const" when it is a boolean.
func ConstBool(node map[string]any) (bool, bool) {
	v, ok := ConstOf(node)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// EnumOf returns node's "enum" values, or nil when absent or not a list.
func EnumOf(node map[string]any) []any {
	if node == nil {
		return nil
	}
	vs, ok := node["enum"].([]any)
	if !ok {
		return nil
	}
	return vs
}

// SingleEnumString returns the sole member of node's "enum" when the enum
// has exactly one entry and that entry is a string.
func SingleEnumString(node map[string]any) (string, bool) {
	vs := EnumOf(node)
	if len(vs) != 1 {
		return "", false
	}
	s, ok := vs[0].(string)
	return s, ok
}

// TitleOf returns node's "title" string, or "".
func TitleOf(node map[string]any) string {
	if node == nil {
		return ""
	}
	s, _ := node["title"].(string)
	return s
}

// TypeOf returns node's "type" string, or "".
func TypeOf(node map[string]any) string {
	if node == nil {
		return ""
	}
	s, _ := node["type"].(string)
	return s
}

// ItemsOf returns node's "items" object, or nil. Tuple-form items (a list of
// schemas) are not flattened here; use TupleItems for those.
func ItemsOf(node map[string]any) map[string]any {
	if node == nil {
		return nil
	}
	return AsObject(node["items"])
}

// TupleItems returns node's "items" when it is a positional list of schemas.
func TupleItems(node map[string]any) []any {
	if node == nil {
		return nil
	}
	vs, ok := node["items"].([]any)
	if !ok {
		return nil
	}
	return vs
}

// StringValues filters vs down to its string members, preserving order.
func StringValues(vs []any) []string {
	if len(vs) == 0 {
		return nil
	}
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
