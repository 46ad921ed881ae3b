// SPDX-License-Identifier: MPL-2.0

package schemagen

import (
	"context"

	"github.com/atmyapp/ama/pkg/amadef"
)

// RawDefinition is one manifest entry together with the schema document
// generated for it. Err is set when the entry could not be resolved; such
// entries surface as warnings, never as run failures.
type RawDefinition struct {
	Name   string
	Schema map[string]any
	Err    error
}

// Generator produces raw schema documents for the definition types a
// source file exports. Schema generation is a black box behind this
// interface: the rest of the tool only consumes its output.
type Generator interface {
	// Generate yields one RawDefinition per entry of the manifest type
	// exported by file, in manifest order.
	Generate(ctx context.Context, file string) ([]RawDefinition, error)

	// MdxConfigs collects the MDX component configurations exported by
	// the given files, keyed by config name.
	MdxConfigs(ctx context.Context, files []string) (map[string]amadef.MdxConfig, error)
}
