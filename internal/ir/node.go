package ir

import "strings"

// Node types with engine-level meaning. All other node types are read from
// the schema.
const (
	NodeStudy         = "study"
	NodeParticipant   = "participant"
	NodeReferenceFile = "reference_file"
)

// Reference file categories.
const (
	CategoryEngine  = "programmatic source code"
	CategorySchema  = "output schema"
	CategoryMapping = "transformation/mapping"
	CategoryInput   = "input source data"
)

// Reference file properties written by provenance rules.
const (
	PropFileName        = "file_name"
	PropFileType        = "file_type"
	PropFileCategory    = "file_category"
	PropFileSize        = "file_size"
	PropMD5Sum          = "md5sum"
	PropFileDescription = "file_description"
	PropReferenceURL    = "reference_file_url"
)

// TransformationLevel reports whether node is built once per transformation
// rather than once per source record.
func TransformationLevel(node string) bool {
	return node == NodeStudy || node == NodeReferenceFile
}

// IDProperty returns the identifier property of node, e.g. "participant_id".
func IDProperty(node string) string {
	return node + "_id"
}

// LinkProperty returns the property a child uses to reference parent,
// e.g. "participant.participant_id".
func LinkProperty(parent string) string {
	return parent + "." + IDProperty(parent)
}

// ParentOf returns the node a record of node links to, or "" for the root.
func ParentOf(node string) string {
	switch node {
	case NodeStudy:
		return ""
	case NodeParticipant, NodeReferenceFile:
		return NodeStudy
	default:
		return NodeParticipant
	}
}

// PluralName returns the output document key of node.
func PluralName(node string) string {
	switch {
	case strings.HasSuffix(node, "is"):
		return strings.TrimSuffix(node, "is") + "es"
	case strings.HasSuffix(node, "y"):
		return strings.TrimSuffix(node, "y") + "ies"
	default:
		return node + "s"
	}
}
