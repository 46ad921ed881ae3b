// SPDX-License-Identifier: MPL-2.0

package normalize

import (
	"github.com/charmbracelet/log"

	"github.com/atmyapp/ama/pkg/amadef"
)

// Normalizer turns one raw schema document plus its definition name into
// zero or one Content records. It never fails hard: unresolved definitions
// are logged at warn level and excluded, counted as neither success nor
// failure.
type Normalizer struct {
	logger *log.Logger
}

// New returns a Normalizer reporting unresolved definitions to logger.
func New(logger *log.Logger) *Normalizer {
	if logger == nil {
		logger = log.Default()
	}
	return &Normalizer{logger: logger}
}

// Definition normalizes one raw schema document. ok is false when the
// definition could not be resolved into a Content record.
func (n *Normalizer) Definition(name string, schema map[string]any) (amadef.Content, bool) {
	props := amadef.Properties(schema)
	if len(props) == 0 {
		n.logger.Warn("dropping definition with no generated properties", "definition", name)
		return amadef.Content{}, false
	}

	if IsEventShape(props) {
		id := EventID(props)
		columns := EventColumns(props)
		if id == "" || len(columns) == 0 {
			n.logger.Warn("dropping event definition without id or columns", "definition", name)
			return amadef.Content{}, false
		}
		return EventContent(id, columns), true
	}

	path := contentPath(props)
	if path == "" {
		n.logger.Warn("dropping definition without a path constant", "definition", name)
		return amadef.Content{}, false
	}
	structure := contentStructure(props)
	if structure == nil {
		n.logger.Warn("dropping definition without a structure", "definition", name, "path", path)
		return amadef.Content{}, false
	}
	return amadef.Content{Path: path, Structure: structure}, true
}

// IsEventShape reports whether a schema's properties describe an event
// definition: an explicit type constant equal to "event", or the legacy
// private marker set alongside id and columns properties.
func IsEventShape(props map[string]any) bool {
	if s, ok := amadef.ConstString(amadef.AsObject(props["type"])); ok && s == "event" {
		return true
	}
	if b, ok := amadef.ConstBool(amadef.AsObject(props[amadef.LegacyObjectMarker])); ok && b {
		_, hasID := props["id"]
		_, hasColumns := props["columns"]
		return hasID && hasColumns
	}
	return false
}

// idStrategy is one step of the event-id fallback chain.
type idStrategy struct {
	name    string
	extract func(node map[string]any) string
}

// idStrategies run in order; the order is load-bearing for round-trip
// compatibility with historical schema encodings.
var idStrategies = []idStrategy{
	{"const", func(node map[string]any) string {
		s, _ := amadef.ConstString(node)
		return s
	}},
	{"single-enum", func(node map[string]any) string {
		s, _ := amadef.SingleEnumString(node)
		return s
	}},
	{"title", amadef.TitleOf},
}

// EventID extracts the event identifier from an event definition's
// properties, trying each historical encoding in order.
func EventID(props map[string]any) string {
	node := amadef.AsObject(props["id"])
	if node == nil {
		return ""
	}
	for _, s := range idStrategies {
		if id := s.extract(node); id != "" {
			return id
		}
	}
	return ""
}

// columnStrategy is one step of the column fallback chain.
type columnStrategy struct {
	name    string
	extract func(node map[string]any) []string
}

// columnStrategies run in order; see idStrategies.
var columnStrategies = []columnStrategy{
	{"const", columnsFromConst},
	{"items-const", columnsFromItemsConst},
	{"tuple-consts", columnsFromTupleConsts},
	{"tuple-enums", columnsFromTupleEnums},
	{"enum-array", columnsFromEnumArray},
}

// EventColumns extracts the ordered column list from an event definition's
// properties, trying each historical encoding in order.
func EventColumns(props map[string]any) []string {
	node := amadef.AsObject(props["columns"])
	if node == nil {
		return nil
	}
	for _, s := range columnStrategies {
		if columns := s.extract(node); len(columns) > 0 {
			return columns
		}
	}
	return nil
}

// columnsFromConst reads `columns: {const: ["a", "b"]}`.
func columnsFromConst(node map[string]any) []string {
	v, ok := amadef.ConstOf(node)
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	return amadef.StringValues(arr)
}

// columnsFromItemsConst reads `columns: {items: {const: ["a", "b"]}}`.
func columnsFromItemsConst(node map[string]any) []string {
	v, ok := amadef.ConstOf(amadef.ItemsOf(node))
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	return amadef.StringValues(arr)
}

// columnsFromTupleConsts reads `columns: {items: [{const: "a"}, ...]}`.
// Every element must carry a string constant or the encoding does not apply.
func columnsFromTupleConsts(node map[string]any) []string {
	tuple := amadef.TupleItems(node)
	if len(tuple) == 0 {
		return nil
	}
	columns := make([]string, 0, len(tuple))
	for _, el := range tuple {
		s, ok := amadef.ConstString(amadef.AsObject(el))
		if !ok || s == "" {
			return nil
		}
		columns = append(columns, s)
	}
	return columns
}

// columnsFromTupleEnums reads `columns: {items: [{enum: ["a"]}, ...]}` with
// exactly one string per element enum.
func columnsFromTupleEnums(node map[string]any) []string {
	tuple := amadef.TupleItems(node)
	if len(tuple) == 0 {
		return nil
	}
	columns := make([]string, 0, len(tuple))
	for _, el := range tuple {
		s, ok := amadef.SingleEnumString(amadef.AsObject(el))
		if !ok || s == "" {
			return nil
		}
		columns = append(columns, s)
	}
	return columns
}

// columnsFromEnumArray reads `columns: {enum: [["a", "b"], ...]}`, taking
// the first enum member that is itself an array.
func columnsFromEnumArray(node map[string]any) []string {
	for _, v := range amadef.EnumOf(node) {
		if arr, ok := v.([]any); ok {
			return amadef.StringValues(arr)
		}
	}
	return nil
}

// EventContent builds the canonical event record. The id doubles as the
// path; the structure keeps id and columns in const form so the output
// assembler can re-extract them with the same fallback chain.
func EventContent(id string, columns []string) amadef.Content {
	cols := make([]any, len(columns))
	for i, c := range columns {
		cols[i] = c
	}
	return amadef.Content{
		Path: id,
		Structure: map[string]any{
			"type": "event",
			"properties": map[string]any{
				"id":      map[string]any{"const": id},
				"columns": map[string]any{"const": cols},
			},
		},
	}
}

// contentPath reads the storage path from path.const, then _path.const.
func contentPath(props map[string]any) string {
	if s, ok := amadef.ConstString(amadef.AsObject(props["path"])); ok && s != "" {
		return s
	}
	if s, ok := amadef.ConstString(amadef.AsObject(props["_path"])); ok && s != "" {
		return s
	}
	return ""
}

// contentStructure reads the raw sub-schema from the first of structure,
// data, _data. The sub-schema is carried as-is, not unwrapped.
func contentStructure(props map[string]any) map[string]any {
	for _, key := range [...]string{"structure", "data", "_data"} {
		if node := amadef.AsObject(props[key]); node != nil {
			return node
		}
	}
	return nil
}
