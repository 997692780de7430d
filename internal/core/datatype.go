package core

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// DatatypeClass identifies an HDF5 datatype class.
type DatatypeClass uint8

// Datatype class constants this decoder recognizes on the wire; classes
// outside Fixed/Float/String are rejected by the dataset reader rather
// than decoded, per scope.
const (
	DatatypeFixed    DatatypeClass = 0
	DatatypeFloat    DatatypeClass = 1
	DatatypeTime     DatatypeClass = 2
	DatatypeString   DatatypeClass = 3
	DatatypeBitfield DatatypeClass = 4
	DatatypeOpaque   DatatypeClass = 5
	DatatypeCompound DatatypeClass = 6
	DatatypeVarLen   DatatypeClass = 9
)

// DatatypeMessage is the decoded form of message type 0x03.
type DatatypeMessage struct {
	Class         DatatypeClass
	Version       uint8
	Size          uint32
	ClassBitField uint32
	Properties    []byte
}

// ParseDatatypeMessage parses a datatype message from raw header-message
// data.
func ParseDatatypeMessage(data []byte) (*DatatypeMessage, error) {
	if len(data) < 8 {
		return nil, errors.New("datatype message too short")
	}

	classAndVersion := binary.LittleEndian.Uint32(data[0:4])
	class := DatatypeClass(classAndVersion & 0x0F)
	version := uint8((classAndVersion >> 4) & 0x0F)
	classBitField := (classAndVersion >> 8) & 0x00FFFFFF
	size := binary.LittleEndian.Uint32(data[4:8])

	return &DatatypeMessage{
		Class:         class,
		Version:       version,
		Size:          size,
		ClassBitField: classBitField,
		Properties:    data[8:],
	}, nil
}

// IsFloat64 reports an IEEE 754 double.
func (dt *DatatypeMessage) IsFloat64() bool { return dt.Class == DatatypeFloat && dt.Size == 8 }

// IsFloat32 reports an IEEE 754 single.
func (dt *DatatypeMessage) IsFloat32() bool { return dt.Class == DatatypeFloat && dt.Size == 4 }

// IsInt32 reports a 32-bit fixed-point type.
func (dt *DatatypeMessage) IsInt32() bool { return dt.Class == DatatypeFixed && dt.Size == 4 }

// IsInt64 reports a 64-bit fixed-point type.
func (dt *DatatypeMessage) IsInt64() bool { return dt.Class == DatatypeFixed && dt.Size == 8 }

// IsSignedInt reports whether a fixed-point type is signed (bit 3 of the
// class bit field).
func (dt *DatatypeMessage) IsSignedInt() bool {
	return dt.Class == DatatypeFixed && dt.ClassBitField&0x08 != 0
}

// IsString reports a fixed-length string type.
func (dt *DatatypeMessage) IsString() bool { return dt.Class == DatatypeString }

// GetByteOrder returns the element byte order (bit 0 of the class bit
// field: 0 = little-endian, 1 = big-endian).
func (dt *DatatypeMessage) GetByteOrder() binary.ByteOrder {
	if dt.ClassBitField&0x01 == 0 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}
