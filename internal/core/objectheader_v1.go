package core

import (
	"github.com/pkg/errors"

	"github.com/scigolib/h5cloud/internal/xio"
)

const v1HeaderPrefixSize = 16

// parseV1Header parses the old-format object header, whose first byte is
// the header version (1) rather than a block signature. Messages are
// padded to 8-byte boundaries and continuation blocks carry no signature
// of their own — they are just more v1 messages at another address.
func parseV1Header(src Source, address uint64, p Params) (*ObjectHeader, error) {
	cur := xio.NewCursor(src, address)

	version, err := cur.ReadField(1)
	if err != nil {
		return nil, errors.Wrap(err, "v1 header version read failed")
	}
	if version != 1 {
		return nil, errors.Errorf("unrecognized object header format (version byte %d)", version)
	}
	cur.Advance(1) // reserved

	totalMessages, err := cur.ReadField(2)
	if err != nil {
		return nil, errors.Wrap(err, "v1 header message count read failed")
	}
	cur.Advance(4) // object reference count

	headerSize, err := cur.ReadField(4)
	if err != nil {
		return nil, errors.Wrap(err, "v1 header size read failed")
	}

	oh := &ObjectHeader{Version: 1}
	queue := []chunkRef{{addr: address + v1HeaderPrefixSize, size: headerSize}}
	remaining := int(totalMessages)

	for len(queue) > 0 && remaining > 0 {
		ref := queue[0]
		queue = queue[1:]

		more, n, err := parseV1Block(src, ref, p, oh)
		if err != nil {
			return nil, err
		}
		remaining -= n
		queue = append(queue, more...)
	}

	return oh, nil
}

// parseV1Block parses one block of v1 messages (the initial block, or a
// continuation block), returning continuation targets and the count of
// messages consumed, nil and continuation messages included.
func parseV1Block(src Source, ref chunkRef, p Params, oh *ObjectHeader) ([]chunkRef, int, error) {
	cur := xio.NewCursor(src, ref.addr)
	end := ref.addr + ref.size

	var continuations []chunkRef
	count := 0

	for cur.Pos()+8 <= end {
		msgType, err := cur.ReadField(2)
		if err != nil {
			return nil, 0, errors.Wrap(err, "v1 message type read failed")
		}
		msgSize, err := cur.ReadField(2)
		if err != nil {
			return nil, 0, errors.Wrap(err, "v1 message size read failed")
		}
		cur.Advance(4) // flags(1) + reserved(3)

		data, err := readMessageData(src, cur.Pos(), msgSize)
		if err != nil {
			return nil, 0, err
		}
		// Message data is padded to an 8-byte boundary.
		padded := (msgSize + 7) &^ 7
		cur.Advance(padded)
		count++

		mt := MessageType(msgType)
		if mt == MsgObjectHeaderContinuation {
			cref, err := decodeContinuationTarget(data, p)
			if err != nil {
				return nil, 0, err
			}
			continuations = append(continuations, cref)
			continue
		}
		if mt == MsgNil {
			continue
		}
		oh.Messages = append(oh.Messages, HeaderMessage{Type: mt, Data: data})
	}

	return continuations, count, nil
}
