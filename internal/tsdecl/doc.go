// SPDX-License-Identifier: MPL-2.0

// Package tsdecl scans TypeScript sources for the handful of declaration
// shapes the migration understands. It is a tolerant text scanner, not a
// parser: it recognizes the exported manifest tuple, literal event
// definitions, and the marker strings used to pre-filter files before
// schema generation.
package tsdecl
