// SPDX-License-Identifier: MPL-2.0

package amadef

// NewMdxContent wraps an MDX component configuration in the Content shape
// carried through the pipeline. Path holds the config name; the structure
// is a plain value tree, not a schema.
func NewMdxContent(name string, cfg MdxConfig) Content {
	components := make(map[string]any, len(cfg.Components))
	for compName, comp := range cfg.Components {
		props := make(map[string]any, len(comp.Props))
		for propName, typ := range comp.Props {
			props[propName] = typ
		}
		components[compName] = map[string]any{"props": props}
	}
	return Content{
		Path: name,
		Structure: map[string]any{
			MarkerKey:    MdxConfigMarker,
			"components": components,
		},
	}
}

// MdxConfigOf recovers the component configuration from a Content produced
// by NewMdxContent. ok is false when the record is not an MDX config.
func MdxConfigOf(c Content) (MdxConfig, bool) {
	if marker, _ := c.Structure[MarkerKey].(string); marker != MdxConfigMarker {
		return MdxConfig{}, false
	}
	cfg := MdxConfig{Components: make(map[string]MdxComponent)}
	for compName, v := range AsObject(c.Structure["components"]) {
		comp := MdxComponent{Props: make(map[string]string)}
		for propName, t := range AsObject(AsObject(v)["props"]) {
			if s, ok := t.(string); ok {
				comp.Props[propName] = s
			}
		}
		cfg.Components[compName] = comp
	}
	return cfg, true
}
