// SPDX-License-Identifier: MPL-2.0

package tsdecl

import (
	"bytes"
	"regexp"

	"github.com/atmyapp/ama/pkg/amadef"
)

var (
	// manifestOpenPattern locates the start of an exported manifest tuple,
	// e.g. `export type AmaContents = [Home, About]`.
	manifestOpenPattern = regexp.MustCompile(`(?m)^[ \t]*export\s+(?:declare\s+)?type\s+` + amadef.ManifestExportMarker + `\s*=`)

	// eventDeclPattern matches literal event declarations such as
	// `type PageView = AmaEventDef<"page_view", ["timestamp", "url"]>`.
	// The alias binding and the column tuple are both optional.
	eventDeclPattern = regexp.MustCompile(`(?:type\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*)?` + amadef.MarkerEvent + `\s*<\s*(?:"([^"]*)"|'([^']*)')\s*(?:,\s*\[([^\]]*)\])?\s*>`)

	// identPattern matches a (possibly qualified) type identifier.
	identPattern = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*(?:\.[A-Za-z_$][A-Za-z0-9_$]*)*`)

	stringLiteralPattern = regexp.MustCompile(`"([^"]*)"|'([^']*)'`)
	commentPattern       = regexp.MustCompile(`(?s)//[^\n]*|/\*.*?\*/`)
)

// EventDecl is an event definition declared through literal generic
// arguments in source. Name is the type alias the literal is bound to,
// or empty when the literal appears outside a type declaration.
type EventDecl struct {
	Name    string
	ID      string
	Columns []string
}

// HasManifestMarker reports whether src mentions the manifest export marker.
func HasManifestMarker(src []byte) bool {
	return bytes.Contains(src, []byte(amadef.ManifestExportMarker))
}

// HasMdxMarker reports whether src mentions the MDX config marker.
func HasMdxMarker(src []byte) bool {
	return bytes.Contains(src, []byte(amadef.MdxConfigMarker))
}

// HasMarker reports whether src mentions a manifest export or an MDX config.
// It is a plain substring test used to pre-filter files before schema
// generation: false positives are safe, the full scan rejects them later.
func HasMarker(src []byte) bool {
	return HasManifestMarker(src) || HasMdxMarker(src)
}

// ManifestTypes returns the definition type names listed in the file's
// exported manifest tuple, in declaration order. It returns nil when the
// file does not export a manifest or the tuple is unterminated.
func ManifestTypes(src []byte) []string {
	loc := manifestOpenPattern.FindIndex(src)
	if loc == nil {
		return nil
	}
	inner, ok := bracketSpan(src, loc[1])
	if !ok {
		return nil
	}
	var names []string
	for _, elem := range splitTopLevel(inner) {
		if name := headIdentifier(elem); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// EventDecls returns the event definitions declared with literal generic
// arguments, in source order. Declarations without a literal id are skipped.
func EventDecls(src []byte) []EventDecl {
	var decls []EventDecl
	for _, m := range eventDeclPattern.FindAllSubmatch(src, -1) {
		id := string(m[2])
		if id == "" {
			id = string(m[3])
		}
		if id == "" {
			continue
		}
		decls = append(decls, EventDecl{
			Name:    string(m[1]),
			ID:      id,
			Columns: stringLiterals(m[4]),
		})
	}
	return decls
}

// bracketSpan returns the text between the first '[' at or after start and
// its balancing ']', skipping string literals and comments while counting.
func bracketSpan(src []byte, start int) ([]byte, bool) {
	i := start
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	if i >= len(src) || src[i] != '[' {
		return nil, false
	}
	open := i + 1
	depth := 0
	for ; i < len(src); i++ {
		switch src[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return src[open:i], true
			}
		case '"', '\'', '`':
			i = skipString(src, i)
		case '/':
			i = skipComment(src, i)
		}
	}
	return nil, false
}

// splitTopLevel splits a tuple body at commas that are not nested inside
// brackets, braces, parens, or generic argument lists.
func splitTopLevel(inner []byte) [][]byte {
	var parts [][]byte
	depth := 0
	last := 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '[', '{', '(', '<':
			depth++
		case ']', '}', ')', '>':
			if depth > 0 {
				depth--
			}
		case '"', '\'', '`':
			i = skipString(inner, i)
		case '/':
			i = skipComment(inner, i)
		case ',':
			if depth == 0 {
				parts = append(parts, inner[last:i])
				last = i + 1
			}
		}
	}
	return append(parts, inner[last:])
}

// headIdentifier returns the first type identifier in a tuple element,
// skipping comments and the typeof operator.
func headIdentifier(elem []byte) string {
	stripped := commentPattern.ReplaceAll(elem, nil)
	for _, tok := range identPattern.FindAll(stripped, -1) {
		name := string(tok)
		if name == "typeof" || name == "readonly" {
			continue
		}
		return name
	}
	return ""
}

// stringLiterals pulls the quoted values out of a literal tuple body.
func stringLiterals(body []byte) []string {
	var values []string
	for _, m := range stringLiteralPattern.FindAllSubmatch(body, -1) {
		v := string(m[1])
		if v == "" {
			v = string(m[2])
		}
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}

// skipString returns the index of the quote closing the literal opened at
// start, or the last index when the literal is unterminated.
func skipString(src []byte, start int) int {
	quote := src[start]
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return len(src) - 1
}

// skipComment returns the index of the last character of the // or /* */
// comment opened at start, or start itself when no comment begins there.
func skipComment(src []byte, start int) int {
	if start+1 >= len(src) {
		return start
	}
	switch src[start+1] {
	case '/':
		for i := start + 2; i < len(src); i++ {
			if src[i] == '\n' {
				return i
			}
		}
		return len(src) - 1
	case '*':
		for i := start + 2; i+1 < len(src); i++ {
			if src[i] == '*' && src[i+1] == '/' {
				return i + 1
			}
		}
		return len(src) - 1
	}
	return start
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
