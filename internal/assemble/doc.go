// SPDX-License-Identifier: MPL-2.0

// Package assemble turns processed definition records into the final output
// document: it runs the pipeline, folds constants, converts collections and
// splits records into definitions, events and MDX configs. A wire-shape
// guard validates the assembled document against the platform schema before
// upload.
package assemble
