// SPDX-License-Identifier: MPL-2.0

// Package schemagen defines the schema-generation boundary: the Generator
// interface the extraction paths consume, and the sidecar-document
// implementation that reads schemas pre-generated by the project's build
// tooling. Generating schemas from TypeScript programs directly is out of
// scope; anything able to produce the documents can stand in for it.
package schemagen
