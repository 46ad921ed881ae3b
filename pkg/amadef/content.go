// SPDX-License-Identifier: MPL-2.0

package amadef

// ContentType classifies a discovered definition.
type ContentType string

const (
	// TypeJSONX is the default type for plain content definitions.
	TypeJSONX ContentType = "jsonx"
	// TypeImage is an image asset definition.
	TypeImage ContentType = "image"
	// TypeFile is a downloadable file asset definition.
	TypeFile ContentType = "file"
	// TypeIcon is an icon asset definition.
	TypeIcon ContentType = "icon"
	// TypeEvent is an analytics event definition.
	TypeEvent ContentType = "event"
	// TypeCollection is a row-typed collection definition.
	TypeCollection ContentType = "collection"
)

// IsValid reports whether t is one of the known content types.
func (t ContentType) IsValid() bool {
	switch t {
	case TypeJSONX, TypeImage, TypeFile, TypeIcon, TypeEvent, TypeCollection:
		return true
	}
	return false
}

// Content is one discovered definition flowing through the pipeline.
//
// Path doubles as the storage path for content/asset/collection definitions
// and as the event identifier for event definitions. The conflation is part
// of the wire format; see Key.
type Content struct {
	// Path identifies the definition. Never empty for a valid record.
	Path string `json:"path"`
	// Structure is the definition's JSON-Schema-like shape (or embedded
	// constants), exactly as produced by schema generation.
	Structure map[string]any `json:"structure"`
	// Type is assigned by the pipeline's type detector. Empty until then.
	Type ContentType `json:"type,omitempty"`
}

// Key returns the record's identifier: a storage path for pathed
// definitions, an event id for event definitions. Both travel in the Path
// field on the wire; this accessor exists so call sites can say which
// meaning they rely on.
func (c *Content) Key() string { return c.Path }

// EventConfig is the per-event output shape: the ordered column list an
// event reports.
type EventConfig struct {
	Columns []string `json:"columns"`
}

// ProcessingResult is the common result shape of both the sequential and
// the parallel extraction paths. The two must be structurally
// interchangeable: same counts, same content set.
type ProcessingResult struct {
	Contents     []Content `json:"contents"`
	Errors       []string  `json:"errors"`
	SuccessCount int       `json:"successCount"`
	FailureCount int       `json:"failureCount"`
}
