package core

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// DataLayoutClass identifies how a dataset's raw data is stored.
type DataLayoutClass uint8

// Data layout class constants.
const (
	LayoutCompact    DataLayoutClass = 0
	LayoutContiguous DataLayoutClass = 1
	LayoutChunked    DataLayoutClass = 2
	LayoutVirtual    DataLayoutClass = 3
)

// DataLayoutMessage is the decoded form of message type 0x08.
type DataLayoutMessage struct {
	Version      uint8
	Class        DataLayoutClass
	DataAddress  uint64
	DataSize     uint64
	CompactData  []byte
	ChunkSize    []uint64
	ChunkKeySize uint8
}

// ParseDataLayoutMessage parses a data layout message. Only versions 3
// and 4 are recognized — the pre-1.8 version 1/2 layout (which embeds a
// full B-tree K-value and dimensionality header twice) is out of scope,
// matching a documented limitation of this decoder (see design notes).
func ParseDataLayoutMessage(data []byte, p Params) (*DataLayoutMessage, error) {
	if len(data) < 2 {
		return nil, errors.New("data layout message too short")
	}

	version := data[0]
	if version < 3 || version > 4 {
		return nil, errors.Errorf("unsupported data layout version: %d", version)
	}

	msg := &DataLayoutMessage{
		Version:      version,
		Class:        DataLayoutClass(data[1]),
		ChunkKeySize: 4,
	}

	switch msg.Class {
	case LayoutCompact:
		if len(data) < 4 {
			return nil, errors.New("compact layout message too short")
		}
		size := binary.LittleEndian.Uint16(data[2:4])
		if len(data) < 4+int(size) {
			return nil, errors.New("compact layout data truncated")
		}
		msg.CompactData = data[4 : 4+size]
		msg.DataSize = uint64(size)

	case LayoutContiguous:
		need := 2 + int(p.OffsetSize) + int(p.LengthSize)
		if len(data) < need {
			return nil, errors.New("contiguous layout message too short")
		}
		offset := 2
		msg.DataAddress = decodeDim(data[offset : offset+int(p.OffsetSize)])
		offset += int(p.OffsetSize)
		msg.DataSize = decodeDim(data[offset : offset+int(p.LengthSize)])

	case LayoutChunked:
		if len(data) < 3 {
			return nil, errors.New("chunked layout message too short")
		}
		dimensionality := data[2]
		offset := 3
		if offset+int(p.OffsetSize) > len(data) {
			return nil, errors.New("chunked layout address truncated")
		}
		msg.DataAddress = decodeDim(data[offset : offset+int(p.OffsetSize)])
		offset += int(p.OffsetSize)

		msg.ChunkSize = make([]uint64, dimensionality)
		for i := range msg.ChunkSize {
			if offset+4 > len(data) {
				return nil, errors.Errorf("chunked layout dimension %d truncated", i)
			}
			msg.ChunkSize[i] = uint64(binary.LittleEndian.Uint32(data[offset : offset+4]))
			offset += 4
		}

	default:
		return nil, errors.Errorf("unsupported layout class: %d", msg.Class)
	}

	return msg, nil
}

// IsContiguous reports a contiguous layout.
func (dl *DataLayoutMessage) IsContiguous() bool { return dl.Class == LayoutContiguous }

// IsCompact reports a compact (in-message) layout.
func (dl *DataLayoutMessage) IsCompact() bool { return dl.Class == LayoutCompact }

// IsChunked reports a chunked layout.
func (dl *DataLayoutMessage) IsChunked() bool { return dl.Class == LayoutChunked }
