// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for ama.
//
// This package implements the Cobra command hierarchy for the ama CLI:
// the root command, the definition pipeline commands (migrate, generate),
// the platform commands (use, upload, snapshot), and configuration
// utilities. Command handlers delegate business logic through the App
// composition root so the core flows stay testable without a terminal.
package cmd
