// SPDX-License-Identifier: MPL-2.0

package schemagen

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/atmyapp/ama/internal/tsdecl"
	"github.com/atmyapp/ama/pkg/amadef"
	"github.com/atmyapp/ama/pkg/cueutil"
)

// SidecarSuffix is appended to a source file's path to locate its schema
// document, e.g. src/pages/home.ts -> src/pages/home.ts.ama.json.
const SidecarSuffix = ".ama.json"

// sidecarCacheSize bounds the parsed documents kept per Sidecar instance.
const sidecarCacheSize = 256

// ErrNoManifest reports that a file does not export a definition manifest.
var ErrNoManifest = errors.New("no manifest export found")

//go:embed sidecar_schema.cue
var sidecarSchema string

// sidecarDoc mirrors the JSON layout of a generated schema document.
type sidecarDoc struct {
	Definitions map[string]map[string]any   `json:"definitions"`
	Mdx         map[string]amadef.MdxConfig `json:"mdx,omitempty"`
}

// Sidecar is the reference Generator. It resolves manifest entries against
// the file's sidecar document and falls back to literal event declarations
// when generation yielded no usable schema. A Sidecar caches parsed
// documents and is not safe for concurrent use; each worker owns its own.
type Sidecar struct {
	docs *lru.Cache[string, *sidecarDoc]
}

// NewSidecar returns a Sidecar with an empty document cache.
func NewSidecar() *Sidecar {
	docs, err := lru.New[string, *sidecarDoc](sidecarCacheSize)
	if err != nil {
		panic("schemagen: " + err.Error())
	}
	return &Sidecar{docs: docs}
}

// Generate implements Generator against the file's sidecar document.
func (s *Sidecar) Generate(ctx context.Context, file string) ([]RawDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read source %s: %w", file, err)
	}
	names := tsdecl.ManifestTypes(src)
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: %w", file, ErrNoManifest)
	}
	doc, err := s.load(file)
	if err != nil {
		return nil, err
	}

	events := eventDeclsByName(src)
	defs := make([]RawDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, resolve(doc, events, file, name))
	}
	return defs, nil
}

// ExtractManifest resolves a single manifest entry by type name.
func (s *Sidecar) ExtractManifest(ctx context.Context, file, typeName string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read source %s: %w", file, err)
	}
	doc, err := s.load(file)
	if err != nil {
		return nil, err
	}
	def := resolve(doc, eventDeclsByName(src), file, typeName)
	if def.Err != nil {
		return nil, def.Err
	}
	return def.Schema, nil
}

// MdxConfigs implements Generator. Files whose source or sidecar cannot be
// read are skipped with a warning; later files win on config-name collisions.
func (s *Sidecar) MdxConfigs(ctx context.Context, files []string) (map[string]amadef.MdxConfig, error) {
	configs := make(map[string]amadef.MdxConfig)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src, err := os.ReadFile(file)
		if err != nil {
			log.Warn("skipping unreadable source file", "path", file, "error", err)
			continue
		}
		if !tsdecl.HasMdxMarker(src) {
			continue
		}
		doc, err := s.load(file)
		if err != nil {
			log.Warn("skipping malformed sidecar document", "path", file, "error", err)
			continue
		}
		if doc == nil {
			continue
		}
		for name, cfg := range doc.Mdx {
			configs[name] = cfg
		}
	}
	return configs, nil
}

// load returns the parsed sidecar document for a source file, caching both
// hits and misses. A missing sidecar is not an error; a malformed one is.
func (s *Sidecar) load(file string) (*sidecarDoc, error) {
	path := file + SidecarSuffix
	if doc, ok := s.docs.Get(path); ok {
		return doc, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.docs.Add(path, nil)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sidecar %s: %w", path, err)
	}
	// Sidecar files are JSON, which parses as CUE, so the document is
	// validated against the embedded schema on the way in.
	res, err := cueutil.ParseAndDecodeString[sidecarDoc](sidecarSchema, data, "#Sidecar",
		cueutil.WithFilename(path))
	if err != nil {
		return nil, fmt.Errorf("parse sidecar: %w", err)
	}
	s.docs.Add(path, res.Value)
	return res.Value, nil
}

// resolve produces the schema for one manifest entry. Sidecar schemas with
// properties win; literal event declarations cover entries whose generated
// schema has none; a propertyless sidecar schema is still returned so the
// normalizer can report it.
func resolve(doc *sidecarDoc, events map[string]tsdecl.EventDecl, file, name string) RawDefinition {
	var schema map[string]any
	if doc != nil {
		schema = doc.Definitions[name]
	}
	if len(amadef.Properties(schema)) > 0 {
		return RawDefinition{Name: name, Schema: schema}
	}
	if ev, ok := events[name]; ok {
		return RawDefinition{Name: name, Schema: eventSchema(ev)}
	}
	if schema != nil {
		return RawDefinition{Name: name, Schema: schema}
	}
	return RawDefinition{Name: name, Err: fmt.Errorf("%s: no schema generated for %s", file, name)}
}

// eventDeclsByName indexes literal event declarations by their alias.
func eventDeclsByName(src []byte) map[string]tsdecl.EventDecl {
	decls := tsdecl.EventDecls(src)
	if len(decls) == 0 {
		return nil
	}
	byName := make(map[string]tsdecl.EventDecl, len(decls))
	for _, d := range decls {
		if d.Name != "" {
			byName[d.Name] = d
		}
	}
	return byName
}

// eventSchema synthesizes the event-shaped schema document the normalizer
// expects from a literal declaration.
func eventSchema(ev tsdecl.EventDecl) map[string]any {
	cols := make([]any, len(ev.Columns))
	for i, c := range ev.Columns {
		cols[i] = c
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":    map[string]any{"const": "event"},
			"id":      map[string]any{"const": ev.ID},
			"columns": map[string]any{"const": cols},
		},
	}
}
