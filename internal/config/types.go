// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// DefaultOutputPath is where the generated definitions document lands
	// when neither config nor flags override it.
	DefaultOutputPath OutputPath = ".ama/definitions.json"
)

var (
	// ErrInvalidGlobPattern is the sentinel error wrapped by InvalidGlobPatternError.
	ErrInvalidGlobPattern = errors.New("invalid glob pattern")
	// ErrInvalidOutputPath is returned when an OutputPath value is whitespace-only.
	ErrInvalidOutputPath = errors.New("invalid output path")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// GlobPattern selects source files to scan, using doublestar syntax
	// (** crosses directories, {a,b} matches alternatives).
	GlobPattern string

	// InvalidGlobPatternError is returned when a GlobPattern value is empty,
	// whitespace-only, or fails to compile. It wraps ErrInvalidGlobPattern
	// for errors.Is() compatibility.
	InvalidGlobPatternError struct {
		Value GlobPattern
	}

	// OutputPath is a filesystem path the generated document is written to.
	// The zero value ("") is valid and means "use the default location".
	OutputPath string

	// InvalidOutputPathError is returned when an OutputPath value is
	// non-empty but whitespace-only.
	InvalidOutputPathError struct {
		Value OutputPath
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the project configuration, normally read from ama.cue
	// at the project root.
	Config struct {
		// Description is attached to the generated definitions document.
		Description string `json:"description" mapstructure:"description"`
		// Include lists glob patterns selecting the files to scan.
		Include []GlobPattern `json:"include" mapstructure:"include"`
		// Out overrides where the generated document is written.
		Out OutputPath `json:"out" mapstructure:"out"`
		// Args are copied into the document verbatim.
		Args map[string]any `json:"args" mapstructure:"args"`
		// Metadata is merged into the document's metadata block.
		Metadata map[string]any `json:"metadata" mapstructure:"metadata"`
	}
)

// IsValid returns whether the GlobPattern is non-empty, not whitespace-only,
// and compiles under doublestar syntax.
func (p GlobPattern) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidGlobPatternError{Value: p}}
	}
	if !doublestar.ValidatePattern(string(p)) {
		return false, []error{&InvalidGlobPatternError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidGlobPatternError.
func (e *InvalidGlobPatternError) Error() string {
	return fmt.Sprintf("invalid glob pattern: %q", string(e.Value))
}

// Unwrap returns ErrInvalidGlobPattern for errors.Is() compatibility.
func (e *InvalidGlobPatternError) Unwrap() error { return ErrInvalidGlobPattern }

// IsValid returns whether the OutputPath is valid. The zero value is valid;
// non-empty values must not be whitespace-only.
func (p OutputPath) IsValid() (bool, []error) {
	if p != "" && strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidOutputPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidOutputPathError.
func (e *InvalidOutputPathError) Error() string {
	return fmt.Sprintf("invalid output path: %q", string(e.Value))
}

// Unwrap returns ErrInvalidOutputPath for errors.Is() compatibility.
func (e *InvalidOutputPathError) Unwrap() error { return ErrInvalidOutputPath }

// IsValid returns whether the Config has valid fields. It delegates to each
// Include pattern's IsValid() and to Out.IsValid(). Description, Args and
// Metadata carry arbitrary values and need no validation.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	for _, pattern := range c.Include {
		if valid, fieldErrs := pattern.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.Out.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// OutOrDefault returns the configured output path or the default location.
func (c *Config) OutOrDefault() string {
	if c.Out != "" {
		return string(c.Out)
	}
	return string(DefaultOutputPath)
}

// IncludeStrings returns the include patterns as plain strings.
func (c *Config) IncludeStrings() []string {
	out := make([]string, len(c.Include))
	for i, p := range c.Include {
		out[i] = string(p)
	}
	return out
}

// DefaultConfig returns the configuration used when no ama.cue is present.
func DefaultConfig() *Config {
	return &Config{
		Description: "",
		Include:     []GlobPattern{"src/**/*.ts", "src/**/*.tsx"},
		Out:         "",
		Args:        map[string]any{},
		Metadata:    map[string]any{},
	}
}
