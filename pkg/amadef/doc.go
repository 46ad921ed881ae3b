// SPDX-License-Identifier: MPL-2.0

// Package amadef defines the wire types exchanged with the AtMyApp platform:
// discovered Content records, the assembled OutputDefinition document, and
// the schema-node probing helpers shared by every extraction fallback chain.
//
// The JSON shapes in this package are the de facto wire format consumed by
// the platform and must stay byte-compatible across releases. Internal code
// is free to grow richer models, but everything serializes back to these
// shapes at the boundary.
package amadef
