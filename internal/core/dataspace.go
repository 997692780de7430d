package core

import "github.com/pkg/errors"

// DataspaceType identifies the dimensionality shape of a dataspace.
type DataspaceType uint8

// Dataspace type constants.
const (
	DataspaceScalar DataspaceType = 0
	DataspaceSimple DataspaceType = 1
	DataspaceNull   DataspaceType = 2
)

// DataspaceMessage is the decoded form of message type 0x01.
type DataspaceMessage struct {
	Version    uint8
	Type       DataspaceType
	Dimensions []uint64
	MaxDims    []uint64
}

const dataspaceMaxDimsFlag = 0x01

// ParseDataspaceMessage parses a dataspace message (version 1 or 2) from
// raw header-message data. Dimension fields are auto-sized to 4 or 8
// bytes based on how much data is actually present, since some writers
// emit 8-byte dimensions even in a nominally version-1 message.
func ParseDataspaceMessage(data []byte) (*DataspaceMessage, error) {
	if len(data) < 3 {
		return nil, errors.New("dataspace message too short")
	}

	version := data[0]
	if version != 1 && version != 2 {
		return nil, errors.Errorf("unsupported dataspace version: %d", version)
	}

	dimensionality := data[1]
	flags := data[2]
	hasMaxDims := flags&dataspaceMaxDimsFlag != 0

	ds := &DataspaceMessage{Version: version}

	if dimensionality == 0 {
		ds.Type = DataspaceScalar
		ds.Dimensions = []uint64{1}
		return ds, nil
	}
	ds.Type = DataspaceSimple

	var offset int
	if version == 1 {
		offset = 8
	} else {
		offset = 4
	}

	totalDimsCount := int(dimensionality)
	if hasMaxDims {
		totalDimsCount *= 2
	}
	expectedSize4 := offset + totalDimsCount*4
	expectedSize8 := offset + totalDimsCount*8

	var dimSize int
	switch {
	case len(data) >= expectedSize8:
		dimSize = 8
	case len(data) >= expectedSize4:
		dimSize = 4
	default:
		return nil, errors.Errorf("dataspace message too short: %d bytes, need %d", len(data), expectedSize4)
	}

	ds.Dimensions = make([]uint64, dimensionality)
	for i := range ds.Dimensions {
		if offset+dimSize > len(data) {
			return nil, errors.New("dataspace message truncated (dimensions)")
		}
		ds.Dimensions[i] = decodeDim(data[offset : offset+dimSize])
		offset += dimSize
	}

	if hasMaxDims {
		ds.MaxDims = make([]uint64, dimensionality)
		for i := range ds.MaxDims {
			if offset+dimSize > len(data) {
				return nil, errors.New("dataspace message truncated (max dims)")
			}
			ds.MaxDims[i] = decodeDim(data[offset : offset+dimSize])
			offset += dimSize
		}
	}

	return ds, nil
}

func decodeDim(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// TotalElements returns the element count implied by the dataspace.
func (ds *DataspaceMessage) TotalElements() uint64 {
	switch ds.Type {
	case DataspaceNull:
		return 0
	case DataspaceScalar:
		return 1
	default:
		total := uint64(1)
		for _, dim := range ds.Dimensions {
			total *= dim
		}
		return total
	}
}

// IsScalar reports whether the dataspace is scalar.
func (ds *DataspaceMessage) IsScalar() bool { return ds.Type == DataspaceScalar }
