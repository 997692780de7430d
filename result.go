package h5cloud

// Datatype is the semantic element type of a decoded dataset or
// attribute — independent of the on-disk datatype message's byte
// layout.
type Datatype uint8

// Supported semantic datatypes, per spec.md §6's result.datatype field.
const (
	DatatypeUnknown Datatype = iota
	DatatypeInt8
	DatatypeUint8
	DatatypeInt16
	DatatypeUint16
	DatatypeInt32
	DatatypeUint32
	DatatypeInt64
	DatatypeUint64
	DatatypeFloat32
	DatatypeFloat64
	DatatypeString
)

// DatasetResult is the outcome of one resolved dataset read.
type DatasetResult struct {
	Path         string
	ElementCount uint64
	DataBytes    uint64
	Data         []byte
	RowCount     uint64
	ColCount     uint64
	TypeSize     uint64
	Datatype     Datatype

	// Attrs is populated only when ReadDatasets was called with
	// enableAttributes=true.
	Attrs []AttributeResult

	// Err is set when this dataset's worker failed; a failure isolated
	// to one dataset never aborts the others (spec.md §7).
	Err error
}

// AttributeResult is the outcome of an attribute read.
type AttributeResult struct {
	Name     string
	Data     []byte
	Datatype Datatype
	TypeSize uint64
}

// VariableMetadata describes a dataset without reading its data, the
// result of InspectVariable or of ListGroup with withInspect set.
type VariableMetadata struct {
	Path       string
	Dimensions []uint64
	Datatype   Datatype
	TypeSize   uint64
	Chunked    bool
}

// GroupEntry is one child of a group returned by ListGroup: either a
// nested group (IsGroup true) or a dataset, optionally with its metadata
// and/or attributes already resolved.
type GroupEntry struct {
	Name     string
	IsGroup  bool
	Metadata *VariableMetadata
	Attrs    []AttributeResult
	Children []GroupEntry
}
