// SPDX-License-Identifier: MPL-2.0

package assemble

import (
	"github.com/charmbracelet/log"

	"github.com/atmyapp/ama/internal/normalize"
	"github.com/atmyapp/ama/internal/pipeline"
	"github.com/atmyapp/ama/internal/transform"
	"github.com/atmyapp/ama/pkg/amadef"
)

// Assembler builds output documents from discovered definition records.
type Assembler struct {
	pipe   *pipeline.Pipeline
	rules  *transform.RuleSet
	logger *log.Logger
}

// New returns an Assembler. A nil pipe falls back to the shared default
// pipeline, a nil rules to the stock folding rules.
func New(pipe *pipeline.Pipeline, rules *transform.RuleSet, logger *log.Logger) *Assembler {
	if pipe == nil {
		pipe = pipeline.Default()
	}
	if rules == nil {
		rules = transform.NewRuleSet()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Assembler{pipe: pipe, rules: rules, logger: logger}
}

// GenerateOutput runs contents through the pipeline and assembles the final
// document: built-ins are registered unconditionally, surviving records are
// constant-folded, collections converted, and everything split three ways
// into definitions, events and MDX configs. Classification is re-derived
// from each record's structure rather than trusting the type a partial
// pipeline may or may not have assigned. GenerateOutput never panics; on an
// internal panic it logs and returns the document assembled so far.
func (a *Assembler) GenerateOutput(contents []amadef.Content, cfg *pipeline.RunConfig) (out *amadef.OutputDefinition) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("output assembly panicked, returning partial document", "panic", r)
			if out == nil {
				out = amadef.NewOutputDefinition()
			}
		}
	}()

	if cfg == nil {
		cfg = &pipeline.RunConfig{}
	}

	out = amadef.NewOutputDefinition()
	if cfg.Description != "" {
		out.Description = cfg.Description
	}
	if cfg.Args != nil {
		out.Args = cfg.Args
	}

	a.pipe.RegisterBuiltins()
	processed, _ := a.pipe.ProcessDefinitions(contents, cfg, a.logger)

	for _, record := range processed {
		record.Structure = a.fold(record)

		if mdxCfg, ok := amadef.MdxConfigOf(record); ok {
			if out.Mdx == nil {
				out.Mdx = make(map[string]amadef.MdxConfig)
			}
			out.Mdx[record.Path] = mdxCfg
			continue
		}

		if transform.HasRowType(record.Structure) {
			converted, err := transform.ConvertCollection(record.Structure)
			if err != nil {
				a.logger.Error("collection conversion failed", "path", record.Path, "error", err)
			} else {
				record.Structure = converted
				record.Type = amadef.TypeCollection
			}
		}

		if record.Type != amadef.TypeCollection {
			record.Type = pipeline.DetectType(&record)
		}

		if record.Type == amadef.TypeEvent {
			props := amadef.Properties(record.Structure)
			id := normalize.EventID(props)
			columns := normalize.EventColumns(props)
			if id == "" || len(columns) == 0 {
				a.logger.Warn("dropping event with unresolvable config", "path", record.Path)
				continue
			}
			out.Events[id] = amadef.EventConfig{Columns: columns}
			continue
		}

		out.Definitions[record.Path] = amadef.DefinitionEntry{
			Type:      record.Type,
			Structure: record.Structure,
		}
	}

	return a.pipe.TransformOutput(out, cfg, a.logger)
}

// fold applies the constant-folding rules to one record's structure. A rule
// that replaces the root with a non-object keeps the original, since a
// Content's structure must stay an object on the wire.
func (a *Assembler) fold(record amadef.Content) map[string]any {
	folded, ok := a.rules.Fold(record.Structure).(map[string]any)
	if !ok {
		a.logger.Warn("folding replaced structure with a non-object, keeping original", "path", record.Path)
		return record.Structure
	}
	return folded
}
