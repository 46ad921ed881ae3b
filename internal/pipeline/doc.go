// SPDX-License-Identifier: MPL-2.0

// Package pipeline runs discovered definitions through registered
// validators, processors and output transformers. A Pipeline is an
// explicit registry instance; Default preserves the legacy process-wide
// shared registry for extension callers, with the concurrency hazard that
// implies. Extensions are isolated: one that fails or panics drops its
// record (or leaves the output unchanged) and never aborts the run.
package pipeline
