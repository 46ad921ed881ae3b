// SPDX-License-Identifier: MPL-2.0

package scan

const (
	// SeverityWarning indicates a recoverable scan warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal scan error diagnostic.
	SeverityError Severity = "error"
)

type (
	// Severity represents scan diagnostic severity.
	Severity string

	// Diagnostic represents a structured scan diagnostic that is returned
	// to callers (rather than written to stderr) for consistent rendering policy.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity
		// Code is a machine-readable identifier (e.g., "pattern_no_matches").
		Code string
		// Message is the human-readable description.
		Message string
		// Path is the pattern or file path associated with this diagnostic (optional).
		Path string
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error
	}
)
