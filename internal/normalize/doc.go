// SPDX-License-Identifier: MPL-2.0

// Package normalize converts raw schema documents into Content records.
// Detection order and the id/column fallback chains reproduce the
// historical schema encodings exactly; each fallback is a named strategy
// so the order stays visible and testable.
package normalize
