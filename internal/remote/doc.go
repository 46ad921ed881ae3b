// SPDX-License-Identifier: MPL-2.0

// Package remote is the AtMyApp platform API client: definition pushes,
// single-file uploads, and content snapshot downloads.
package remote
