// SPDX-License-Identifier: MPL-2.0

package amadef

// MarkerKey is the private discriminator property that definition schemas
// carry to identify their kind.
const MarkerKey = "__amatype"

// LegacyObjectMarker is the historic private marker emitted by older
// toolchains. Event schemas carrying it (together with id and columns
// properties) must keep round-tripping.
const LegacyObjectMarker = "__is_ATMYAPP_Object"

// ConfigKey holds per-definition configuration (image options, indexed
// columns) as a nested constants-only sub-schema.
const ConfigKey = "__config"

// RowTypeKey marks a collection definition: the sub-schema under this key
// describes one row of the collection.
const RowTypeKey = "__rowType"

// Known MarkerKey values.
const (
	MarkerImage      = "AmaImage"
	MarkerFile       = "AmaFile"
	MarkerIcon       = "AmaIcon"
	MarkerEvent      = "AmaEventDef"
	MarkerMdx        = "AmaMdxDef"
	MarkerCollection = "AmaCollection"
)

// ImageExtensions are the file extensions that classify a pathed definition
// as an image when no structural marker is present.
var ImageExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"svg":  true,
	"webp": true,
}

// FileExtensions are the file extensions that classify a pathed definition
// as a plain file when no structural marker is present.
var FileExtensions = map[string]bool{
	"pdf":  true,
	"doc":  true,
	"docx": true,
	"txt":  true,
	"md":   true,
}

// Source markers used by the cheap pre-filter: a file is worth extracting
// from only if it mentions one of these. String containment only; false
// positives are safe, false negatives are not.
const (
	ManifestExportMarker = "AmaContents"
	MdxConfigMarker      = "AmaMdxConfig"
)
