// SPDX-License-Identifier: MPL-2.0

// Package scan locates candidate definition files in a project tree.
//
// Matching uses doublestar glob patterns relative to the scan root.
// Generated and third-party directories (node_modules, dist, build, .git)
// are never descended into. Non-fatal problems surface as structured
// Diagnostics so the CLI layer decides how to render them.
package scan
