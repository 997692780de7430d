package core

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// FillValueMessage is the decoded form of message type 0x05.
type FillValueMessage struct {
	Version uint8
	Defined bool
	Value   []byte
}

// ParseFillValueMessage parses a fill value message (version 1-3).
func ParseFillValueMessage(data []byte) (*FillValueMessage, error) {
	if len(data) < 4 {
		return nil, errors.New("fill value message too short")
	}
	version := data[0]
	msg := &FillValueMessage{Version: version}

	var offset int
	switch {
	case version <= 2:
		// space alloc time(1) + fill write time(1) + fill defined(1)
		if len(data) < 4 {
			return nil, errors.New("fill value message too short")
		}
		msg.Defined = data[3] != 0
		offset = 4
	default:
		flags := data[1]
		msg.Defined = flags&0x20 != 0
		offset = 2
	}

	if !msg.Defined {
		return msg, nil
	}
	if offset+4 > len(data) {
		return nil, errors.New("fill value message truncated (size)")
	}
	size := binary.LittleEndian.Uint32(data[offset : offset+4])
	offset += 4
	if size == 0 {
		return msg, nil
	}
	if offset+int(size) > len(data) {
		return nil, errors.New("fill value message truncated (value)")
	}
	msg.Value = data[offset : offset+int(size)]
	return msg, nil
}
