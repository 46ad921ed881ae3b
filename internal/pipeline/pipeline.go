// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/atmyapp/ama/pkg/amadef"
)

// RunConfig is the ambient configuration one processing run sees.
type RunConfig struct {
	Description string
	Args        map[string]any
	Metadata    map[string]any
}

// Context is the per-record view handed to validators and processors.
// Contents is the full input list of the run, stable for its duration;
// Index is the current record's position in it.
type Context struct {
	Contents []amadef.Content
	Index    int
	Config   *RunConfig
	Logger   *log.Logger
}

// ValidationResult is one validator's verdict for one record. Warnings are
// logged but never exclude a record.
type ValidationResult struct {
	IsValid  bool
	Errors   []string
	Warnings []string
}

// Valid returns a passing verdict.
func Valid() ValidationResult {
	return ValidationResult{IsValid: true}
}

// Invalid returns a failing verdict carrying the given errors.
func Invalid(errors ...string) ValidationResult {
	return ValidationResult{Errors: errors}
}

// RecordValidation is the merged verdict of all validators for one record.
type RecordValidation struct {
	Path     string
	IsValid  bool
	Errors   []string
	Warnings []string
}

// ProcessorFunc rewrites one record. Returning nil drops the record
// silently; returning an error drops it as a logged processing failure.
type ProcessorFunc func(pctx *Context, c *amadef.Content) (*amadef.Content, error)

// ValidatorFunc judges one record. A returned error counts as an invalid
// verdict attributed to the validator.
type ValidatorFunc func(pctx *Context, c *amadef.Content) (ValidationResult, error)

// OutputTransformerFunc rewrites the assembled output document.
type OutputTransformerFunc func(out *amadef.OutputDefinition, cfg *RunConfig, logger *log.Logger) (*amadef.OutputDefinition, error)

type namedProcessor struct {
	name string
	fn   ProcessorFunc
}

type namedValidator struct {
	name string
	fn   ValidatorFunc
}

type namedTransformer struct {
	name string
	fn   OutputTransformerFunc
}

// Pipeline is an ordered registry of validators, processors and output
// transformers. Registration order is execution order; there is no
// priority mechanism. A Pipeline must not be mutated while a run is in
// flight, and the same instance must not run concurrently.
type Pipeline struct {
	processors   []namedProcessor
	validators   []namedValidator
	transformers []namedTransformer
}

// New returns an empty Pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

var (
	defaultPipeline *Pipeline
	defaultOnce     sync.Once
)

// Default returns the process-wide shared Pipeline. Registrations on it
// persist across runs until Reset, which matches the legacy extension
// contract; concurrent runs against it are a documented correctness
// hazard. Callers wanting isolation construct their own instance.
func Default() *Pipeline {
	defaultOnce.Do(func() {
		defaultPipeline = New()
	})
	return defaultPipeline
}

// AddProcessor appends a named processor.
func (p *Pipeline) AddProcessor(name string, fn ProcessorFunc) {
	p.processors = append(p.processors, namedProcessor{name: name, fn: fn})
}

// AddValidator appends a named validator.
func (p *Pipeline) AddValidator(name string, fn ValidatorFunc) {
	p.validators = append(p.validators, namedValidator{name: name, fn: fn})
}

// AddOutputTransformer appends a named output transformer.
func (p *Pipeline) AddOutputTransformer(name string, fn OutputTransformerFunc) {
	p.transformers = append(p.transformers, namedTransformer{name: name, fn: fn})
}

// Reset removes every registered extension.
func (p *Pipeline) Reset() {
	p.processors = nil
	p.validators = nil
	p.transformers = nil
}

// Stats reports how many extensions of each kind are registered.
type Stats struct {
	Processors         int
	Validators         int
	OutputTransformers int
}

// Stats returns the current registration counts.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Processors:         len(p.processors),
		Validators:         len(p.validators),
		OutputTransformers: len(p.transformers),
	}
}

// ProcessDefinitions applies the per-record protocol to contents in input
// order: every validator, then, for valid records, every processor.
// Survivors keep their relative order. The returned validations hold one
// merged verdict per input record, valid or not.
func (p *Pipeline) ProcessDefinitions(contents []amadef.Content, cfg *RunConfig, logger *log.Logger) ([]amadef.Content, []RecordValidation) {
	if cfg == nil {
		cfg = &RunConfig{}
	}
	if logger == nil {
		logger = log.Default()
	}

	processed := make([]amadef.Content, 0, len(contents))
	validations := make([]RecordValidation, 0, len(contents))

	for i := range contents {
		pctx := &Context{Contents: contents, Index: i, Config: cfg, Logger: logger}
		record := contents[i]

		verdict := p.validate(pctx, &record)
		validations = append(validations, verdict)
		for _, w := range verdict.Warnings {
			logger.Warn("validation warning", "path", record.Path, "warning", w)
		}
		if !verdict.IsValid {
			logger.Warn("dropping invalid definition", "path", record.Path, "errors", verdict.Errors)
			continue
		}

		if out, kept := p.process(pctx, record); kept {
			processed = append(processed, out)
		}
	}

	return processed, validations
}

// TransformOutput reduces the assembled document through every registered
// output transformer in registration order. A transformer that fails is
// logged and skipped, leaving the document unchanged by that transformer.
func (p *Pipeline) TransformOutput(out *amadef.OutputDefinition, cfg *RunConfig, logger *log.Logger) *amadef.OutputDefinition {
	if cfg == nil {
		cfg = &RunConfig{}
	}
	if logger == nil {
		logger = log.Default()
	}

	current := out
	for _, tr := range p.transformers {
		next, err := runTransformer(tr, current, cfg, logger)
		if err != nil {
			logger.Error("output transformer failed, keeping prior output", "transformer", tr.name, "error", err)
			continue
		}
		if next == nil {
			logger.Error("output transformer returned no document, keeping prior output", "transformer", tr.name)
			continue
		}
		current = next
	}
	return current
}

// validate merges every validator's verdict for one record. The net
// verdict is the logical AND; errors and warnings accumulate.
func (p *Pipeline) validate(pctx *Context, c *amadef.Content) RecordValidation {
	rv := RecordValidation{Path: c.Path, IsValid: true}
	for _, v := range p.validators {
		res, err := runValidator(v, pctx, c)
		if err != nil {
			res = ValidationResult{Errors: []string{fmt.Sprintf("validator %q failed: %v", v.name, err)}}
		}
		rv.IsValid = rv.IsValid && res.IsValid
		rv.Errors = append(rv.Errors, res.Errors...)
		rv.Warnings = append(rv.Warnings, res.Warnings...)
	}
	return rv
}

// process threads one record through every processor. kept is false when
// a processor dropped the record.
func (p *Pipeline) process(pctx *Context, record amadef.Content) (out amadef.Content, kept bool) {
	current := &record
	for _, proc := range p.processors {
		next, err := runProcessor(proc, pctx, current)
		if err != nil {
			pctx.Logger.Error("processor failed, dropping definition", "processor", proc.name, "path", record.Path, "error", err)
			return amadef.Content{}, false
		}
		if next == nil {
			return amadef.Content{}, false
		}
		current = next
	}
	return *current, true
}

// runProcessor invokes one processor, converting panics into errors so a
// misbehaving extension can never take down the run.
func runProcessor(proc namedProcessor, pctx *Context, c *amadef.Content) (next *amadef.Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			next = nil
			err = fmt.Errorf("processor %q panicked: %v", proc.name, r)
		}
	}()
	return proc.fn(pctx, c)
}

// runValidator invokes one validator with the same panic isolation.
func runValidator(v namedValidator, pctx *Context, c *amadef.Content) (res ValidationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = ValidationResult{}
			err = fmt.Errorf("validator %q panicked: %v", v.name, r)
		}
	}()
	return v.fn(pctx, c)
}

// runTransformer invokes one output transformer with panic isolation.
func runTransformer(tr namedTransformer, out *amadef.OutputDefinition, cfg *RunConfig, logger *log.Logger) (next *amadef.OutputDefinition, err error) {
	defer func() {
		if r := recover(); r != nil {
			next = nil
			err = fmt.Errorf("output transformer %q panicked: %v", tr.name, r)
		}
	}()
	return tr.fn(out, cfg, logger)
}
