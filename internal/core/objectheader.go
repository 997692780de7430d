// Package core implements components E and F: the object-header walker
// (old- and new-format dispatch, continuation-block chasing) and the
// per-type header-message decoders layered on top of it.
package core

import (
	"github.com/pkg/errors"

	"github.com/scigolib/h5cloud/internal/xio"
)

// MessageType identifies the kind of a header message.
type MessageType uint16

// Header message type codes, per the HDF5 object header message table.
const (
	MsgNil                      MessageType = 0x00
	MsgDataspace                MessageType = 0x01
	MsgLinkInfo                 MessageType = 0x02
	MsgDatatype                 MessageType = 0x03
	MsgFillValueOld             MessageType = 0x04
	MsgFillValue                MessageType = 0x05
	MsgLink                     MessageType = 0x06
	MsgDataLayout               MessageType = 0x08
	MsgFilterPipeline           MessageType = 0x0B
	MsgAttribute                MessageType = 0x0C
	MsgObjectHeaderContinuation MessageType = 0x10
	MsgSymbolTable              MessageType = 0x11
	MsgObjectModificationTime   MessageType = 0x12
	MsgAttributeInfo            MessageType = 0x15
)

// HeaderMessage is one decoded (type, raw-data) pair from an object header,
// with continuation blocks already flattened into the message list.
type HeaderMessage struct {
	Type MessageType
	Data []byte
}

// ObjectHeader is the flattened, format-independent view of an object's
// messages, regardless of whether the underlying header used the old
// (version 1) or new ("OHDR"-signed, version 2) on-disk layout.
type ObjectHeader struct {
	Version  uint8
	Messages []HeaderMessage
}

const newHeaderSignature = "OHDR"

// ReadObjectHeader dispatches on the leading bytes at address: a literal
// "OHDR" signature selects the new-format (version 2) parser, anything
// else falls back to the old (version 1) layout where the first byte is
// the header version itself.
func ReadObjectHeader(src Source, address uint64, p Params) (*ObjectHeader, error) {
	prefix, err := src.IORequest(address, 4)
	if err != nil {
		return nil, errors.Wrapf(err, "object header prefix read at %#x", address)
	}

	if string(prefix) == newHeaderSignature {
		return parseV2Header(src, address, p)
	}
	return parseV1Header(src, address, p)
}

// readMessageData is a tiny helper shared by both format parsers: it reads
// n bytes at pos through a fresh cursor, bubbling IO errors with context.
func readMessageData(src Source, pos uint64, n uint64) ([]byte, error) {
	cur := xio.NewCursor(src, pos)
	buf, err := cur.ReadArray(int(n))
	if err != nil {
		return nil, errors.Wrapf(err, "message data read at %#x (%d bytes)", pos, n)
	}
	return buf, nil
}
