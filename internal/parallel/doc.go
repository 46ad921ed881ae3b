// SPDX-License-Identifier: MPL-2.0

// Package parallel fans definition extraction out across a bounded pool
// of isolated workers. Run and RunSequential share the same pre-filter,
// per-file extraction, and aggregation, so both paths produce the same
// result set for the same inputs; only scheduling differs.
package parallel
