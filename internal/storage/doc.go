// SPDX-License-Identifier: MPL-2.0

// Package storage persists generated definition documents locally and
// keeps the output directory out of version control.
package storage
