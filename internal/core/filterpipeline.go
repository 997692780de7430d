package core

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// FilterID identifies a registered HDF5 filter.
type FilterID uint16

// Filter IDs this decoder understands; any other ID encountered in a
// non-optional filter is a hard failure per spec.
const (
	FilterDeflate FilterID = 1
	FilterShuffle FilterID = 2
)

const filterOptionalFlag = 0x0001

// Filter is one stage of a filter pipeline message.
type Filter struct {
	ID         FilterID
	Flags      uint16
	NameLen    uint16
	Name       string
	ClientData []uint32
}

// IsOptional reports whether a missing/unsupported filter implementation
// may be skipped instead of failing the read.
func (f Filter) IsOptional() bool { return f.Flags&filterOptionalFlag != 0 }

// FilterPipelineMessage is the decoded form of message type 0x0B.
type FilterPipelineMessage struct {
	Version uint8
	Filters []Filter
}

// ParseFilterPipelineMessage parses a filter pipeline message (version 1
// or 2).
func ParseFilterPipelineMessage(data []byte) (*FilterPipelineMessage, error) {
	if len(data) < 2 {
		return nil, errors.New("filter pipeline message too short")
	}

	version := data[0]
	numFilters := data[1]
	msg := &FilterPipelineMessage{Version: version}

	var offset int
	if version == 1 {
		offset = 8 // version, num filters, 6 bytes reserved
	} else {
		offset = 2
	}

	for i := uint8(0); i < numFilters; i++ {
		f, next, err := parseOneFilter(data, offset, version)
		if err != nil {
			return nil, errors.Wrapf(err, "filter %d", i)
		}
		msg.Filters = append(msg.Filters, f)
		offset = next
	}

	return msg, nil
}

func parseOneFilter(data []byte, offset int, version uint8) (Filter, int, error) {
	if offset+2 > len(data) {
		return Filter{}, 0, errors.New("truncated filter id")
	}
	f := Filter{ID: FilterID(binary.LittleEndian.Uint16(data[offset : offset+2]))}
	offset += 2

	if version == 1 || f.ID >= 256 {
		if offset+2 > len(data) {
			return Filter{}, 0, errors.New("truncated filter name length")
		}
		f.NameLen = binary.LittleEndian.Uint16(data[offset : offset+2])
		offset += 2
	}

	if offset+2 > len(data) {
		return Filter{}, 0, errors.New("truncated filter flags")
	}
	f.Flags = binary.LittleEndian.Uint16(data[offset : offset+2])
	offset += 2

	if offset+2 > len(data) {
		return Filter{}, 0, errors.New("truncated filter client data count")
	}
	numClientValues := binary.LittleEndian.Uint16(data[offset : offset+2])
	offset += 2

	if f.NameLen > 0 {
		if offset+int(f.NameLen) > len(data) {
			return Filter{}, 0, errors.New("truncated filter name")
		}
		name := data[offset : offset+int(f.NameLen)]
		if nul := indexByte(name, 0); nul >= 0 {
			name = name[:nul]
		}
		f.Name = string(name)
		offset += int(f.NameLen)
	}

	for i := uint16(0); i < numClientValues; i++ {
		if offset+4 > len(data) {
			return Filter{}, 0, errors.New("truncated filter client data")
		}
		f.ClientData = append(f.ClientData, binary.LittleEndian.Uint32(data[offset:offset+4]))
		offset += 4
	}

	if version == 1 && numClientValues%2 != 0 {
		offset += 4 // padding to 32-bit alignment
	}

	return f, offset, nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
