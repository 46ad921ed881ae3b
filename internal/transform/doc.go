// SPDX-License-Identifier: MPL-2.0

// Package transform holds the two structural rewrite passes that run between
// the processing pipeline and the output assembly: constant folding, which
// collapses marker-and-config schema nodes into plain value trees through an
// extensible rule set, and collection conversion, which flattens a row-typed
// collection schema into its field-map output form.
package transform
