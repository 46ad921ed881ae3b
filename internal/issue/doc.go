// SPDX-License-Identifier: MPL-2.0

// Package issue turns CLI failures into guidance the user can act on.
//
// It has two halves: ActionableError carries the failed operation, the
// resource involved, and fix suggestions through the error chain, while the
// issue catalog maps well-known failure modes (no manifests found, stale
// session, wire rejection) to Markdown cards rendered with glamour.
package issue
