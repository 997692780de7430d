package core

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Attribute is the decoded form of message type 0x0C: a named, typed
// value attached to an object.
type Attribute struct {
	Name      string
	Datatype  *DatatypeMessage
	Dataspace *DataspaceMessage
	Data      []byte
}

// ParseAttributeMessage parses an attribute message (version 1-3).
func ParseAttributeMessage(data []byte) (*Attribute, error) {
	if len(data) < 8 {
		return nil, errors.Errorf("attribute message too short: %d bytes", len(data))
	}

	attr := &Attribute{}
	offset := 0

	version := data[offset]
	offset++
	offset++ // flags, reserved

	nameSize := binary.LittleEndian.Uint16(data[offset : offset+2])
	offset += 2
	datatypeSize := binary.LittleEndian.Uint16(data[offset : offset+2])
	offset += 2
	dataspaceSize := binary.LittleEndian.Uint16(data[offset : offset+2])
	offset += 2

	if version >= 3 {
		offset++ // name character-set encoding
	}

	if offset+int(nameSize) > len(data) {
		return nil, errors.New("attribute name extends beyond message")
	}
	if nameSize > 0 {
		attr.Name = string(data[offset : offset+int(nameSize)-1]) // drop NUL
		offset += int(nameSize)
		if version == 1 {
			offset = pad8(offset)
		}
	}

	if offset+int(datatypeSize) > len(data) {
		return nil, errors.New("attribute datatype extends beyond message")
	}
	var err error
	attr.Datatype, err = ParseDatatypeMessage(data[offset : offset+int(datatypeSize)])
	if err != nil {
		return nil, errors.Wrap(err, "attribute datatype parse failed")
	}
	offset += int(datatypeSize)
	if version == 1 {
		offset = pad8(offset)
	}

	if offset+int(dataspaceSize) > len(data) {
		return nil, errors.New("attribute dataspace extends beyond message")
	}
	attr.Dataspace, err = ParseDataspaceMessage(data[offset : offset+int(dataspaceSize)])
	if err != nil {
		return nil, errors.Wrap(err, "attribute dataspace parse failed")
	}
	offset += int(dataspaceSize)
	if version == 1 {
		offset = pad8(offset)
	}

	if offset < len(data) {
		attr.Data = data[offset:]
	}

	return attr, nil
}

func pad8(offset int) int { return (offset + 7) &^ 7 }
