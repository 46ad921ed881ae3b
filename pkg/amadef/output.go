// SPDX-License-Identifier: MPL-2.0

package amadef

// DefaultDescription is the fallback description of an output document when
// neither project config nor caller supplies one.
const DefaultDescription = "AMA Definitions"

// DefinitionEntry is one pathed definition inside an OutputDefinition.
type DefinitionEntry struct {
	Type      ContentType    `json:"type"`
	Structure map[string]any `json:"structure"`
}

// MdxComponent describes one embeddable component allowed inside an MDX
// field: a map from prop name to its rendered type string.
type MdxComponent struct {
	Props map[string]string `json:"props"`
}

// MdxConfig is a named set of components an MDX field may embed.
type MdxConfig struct {
	Components map[string]MdxComponent `json:"components"`
}

// OutputDefinition is the final migration document uploaded to the
// platform. Field shapes are wire-frozen.
type OutputDefinition struct {
	Description string                     `json:"description"`
	Definitions map[string]DefinitionEntry `json:"definitions"`
	Events      map[string]EventConfig     `json:"events"`
	Mdx         map[string]MdxConfig       `json:"mdx,omitempty"`
	Args        map[string]any             `json:"args"`
	Metadata    map[string]any             `json:"metadata"`
}

// NewOutputDefinition returns an empty document with all maps allocated and
// the default description, so callers and transformers never see nil maps.
func NewOutputDefinition() *OutputDefinition {
	return &OutputDefinition{
		Description: DefaultDescription,
		Definitions: make(map[string]DefinitionEntry),
		Events:      make(map[string]EventConfig),
		Args:        make(map[string]any),
		Metadata:    make(map[string]any),
	}
}
