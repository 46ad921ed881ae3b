// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/atmyapp/ama/pkg/amadef"
)

// Names of the stock extensions.
const (
	PathValidatorName    = "path-validator"
	DuplicatePathsName   = "duplicate-path-validator"
	PathNormalizerName   = "path-normalizer"
	TypeDetectorName     = "type-detector"
	MetadataEnricherName = "metadata-enricher"
)

// OutputVersion stamps generated documents. Callers can override it
// through run metadata.
const OutputVersion = "1.0.0"

// isoTimestamp renders UTC instants the way the platform expects them,
// millisecond precision with a Z suffix.
const isoTimestamp = "2006-01-02T15:04:05.000Z07:00"

// RegisterBuiltins ensures the stock extensions are present exactly once,
// in canonical order: path and duplicate validation; path normalization
// before type detection, since detection reads normalized extensions;
// metadata enrichment on the assembled output. Idempotent, so assembly can
// call it unconditionally.
func (p *Pipeline) RegisterBuiltins() {
	if !p.hasValidator(PathValidatorName) {
		p.AddValidator(PathValidatorName, PathValidator())
	}
	if !p.hasValidator(DuplicatePathsName) {
		p.AddValidator(DuplicatePathsName, DuplicatePathValidator())
	}
	if !p.hasProcessor(PathNormalizerName) {
		p.AddProcessor(PathNormalizerName, PathNormalizer())
	}
	if !p.hasProcessor(TypeDetectorName) {
		p.AddProcessor(TypeDetectorName, TypeDetector())
	}
	if !p.hasTransformer(MetadataEnricherName) {
		p.AddOutputTransformer(MetadataEnricherName, MetadataEnricher(time.Now))
	}
}

func (p *Pipeline) hasValidator(name string) bool {
	for _, v := range p.validators {
		if v.name == name {
			return true
		}
	}
	return false
}

func (p *Pipeline) hasProcessor(name string) bool {
	for _, proc := range p.processors {
		if proc.name == name {
			return true
		}
	}
	return false
}

func (p *Pipeline) hasTransformer(name string) bool {
	for _, tr := range p.transformers {
		if tr.name == name {
			return true
		}
	}
	return false
}

// PathValidator enforces the path invariant. The two failure messages stay
// distinct: a missing path and a blank path are different mistakes.
func PathValidator() ValidatorFunc {
	return func(pctx *Context, c *amadef.Content) (ValidationResult, error) {
		if c.Path == "" {
			return Invalid("content must have a valid path"), nil
		}
		if strings.TrimSpace(c.Path) == "" {
			return Invalid("content path cannot be empty"), nil
		}
		return Valid(), nil
	}
}

// DuplicatePathValidator flags every record whose exact path appears on
// any other record in the same run. All copies become invalid, not just
// the later ones.
func DuplicatePathValidator() ValidatorFunc {
	return func(pctx *Context, c *amadef.Content) (ValidationResult, error) {
		for i := range pctx.Contents {
			if i == pctx.Index {
				continue
			}
			if pctx.Contents[i].Path == c.Path {
				return Invalid(fmt.Sprintf("duplicate path %q", c.Path)), nil
			}
		}
		return Valid(), nil
	}
}

// PathNormalizer rewrites backslashes to forward slashes and strips
// leading slashes.
func PathNormalizer() ProcessorFunc {
	return func(pctx *Context, c *amadef.Content) (*amadef.Content, error) {
		c.Path = NormalizePath(c.Path)
		return c, nil
	}
}

// NormalizePath is the rewrite the builtin processor applies.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	return strings.TrimLeft(p, "/")
}

// TypeDetector assigns Content.Type using the canonical precedence.
func TypeDetector() ProcessorFunc {
	return func(pctx *Context, c *amadef.Content) (*amadef.Content, error) {
		c.Type = DetectType(c)
		return c, nil
	}
}

// DetectType classifies a record: event marker, then icon, image and file
// markers, then extension defaults, then jsonx. Extension defaults apply
// only when the structure carries no marker at all.
func DetectType(c *amadef.Content) amadef.ContentType {
	if isEventStructure(c.Structure) {
		return amadef.TypeEvent
	}
	switch marker := structuralMarker(c.Structure); marker {
	case amadef.MarkerIcon:
		return amadef.TypeIcon
	case amadef.MarkerImage:
		return amadef.TypeImage
	case amadef.MarkerFile:
		return amadef.TypeFile
	case "":
		ext := pathExtension(c.Path)
		switch {
		case amadef.ImageExtensions[ext]:
			return amadef.TypeImage
		case amadef.FileExtensions[ext]:
			return amadef.TypeFile
		}
	}
	return amadef.TypeJSONX
}

// isEventStructure covers the three event encodings: a top-level "event"
// type, a type property constant, or the event definition marker.
func isEventStructure(structure map[string]any) bool {
	if amadef.TypeOf(structure) == "event" {
		return true
	}
	if s, ok := amadef.ConstString(amadef.Property(structure, "type")); ok && s == "event" {
		return true
	}
	return structuralMarker(structure) == amadef.MarkerEvent
}

// structuralMarker reads the definition-kind marker, either as a direct
// key (folded structures) or as a property constant (raw schemas).
func structuralMarker(structure map[string]any) string {
	if structure == nil {
		return ""
	}
	if s, ok := structure[amadef.MarkerKey].(string); ok {
		return s
	}
	if s, ok := amadef.ConstString(amadef.Property(structure, amadef.MarkerKey)); ok {
		return s
	}
	return ""
}

func pathExtension(p string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(NormalizePath(p))), ".")
}

// MetadataEnricher returns the output transformer that stamps generation
// metadata: timestamp, counts and document version, shallow-overlaid with
// caller-supplied metadata (caller values win, version included). now
// defaults to the system clock.
func MetadataEnricher(now func() time.Time) OutputTransformerFunc {
	if now == nil {
		now = time.Now
	}
	return func(out *amadef.OutputDefinition, cfg *RunConfig, logger *log.Logger) (*amadef.OutputDefinition, error) {
		metadata := map[string]any{
			"generatedAt":      now().UTC().Format(isoTimestamp),
			"totalDefinitions": len(out.Definitions),
			"totalEvents":      len(out.Events),
			"version":          OutputVersion,
		}
		if cfg != nil {
			for k, v := range cfg.Metadata {
				metadata[k] = v
			}
		}
		out.Metadata = metadata
		return out, nil
	}
}
