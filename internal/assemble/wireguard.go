// SPDX-License-Identifier: MPL-2.0

package assemble

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/atmyapp/ama/pkg/amadef"
)

// outputSchema is the wire contract the platform accepts. The document
// shapes in pkg/amadef are frozen against it.
//
//go:embed output_schema.json
var outputSchema []byte

// CheckWireShape validates the assembled document against the platform's
// wire schema. It returns one message per violation; an empty slice means
// the document conforms. The error covers infrastructure failures only
// (marshaling, schema compilation), not violations.
func CheckWireShape(doc *amadef.OutputDefinition) ([]string, error) {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(outputSchema),
		gojsonschema.NewBytesLoader(docBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return violations, nil
}
