package core

import (
	"github.com/pkg/errors"

	"github.com/scigolib/h5cloud/internal/xio"
)

const continuationBlockSignature = "OCHK"

const (
	v2FlagAttrCreationOrderTracked = 0x04
	v2FlagTimesPresent             = 0x20
	v2FlagPhaseChangePresent       = 0x10
	v2ChunkSizeFieldMask           = 0x03
)

// chunkRef names one chunk of messages still to be parsed: either the
// header's inline chunk #0, or a continuation block reached via a
// MsgObjectHeaderContinuation message.
type chunkRef struct {
	addr     uint64
	size     uint64
	isChunk0 bool
}

// parseV2Header parses the new-format ("OHDR"-signed) object header,
// chasing continuation blocks ("OCHK") until every chunk has been
// consumed.
func parseV2Header(src Source, address uint64, p Params) (*ObjectHeader, error) {
	cur := xio.NewCursor(src, address+4) // skip signature, already verified

	version, err := cur.ReadField(1)
	if err != nil {
		return nil, errors.Wrap(err, "v2 header version read failed")
	}
	if version != 2 {
		return nil, errors.Errorf("unsupported object header version: %d", version)
	}

	flagsVal, err := cur.ReadField(1)
	if err != nil {
		return nil, errors.Wrap(err, "v2 header flags read failed")
	}
	flags := uint8(flagsVal)

	if flags&v2FlagTimesPresent != 0 {
		cur.Advance(16)
	}
	if flags&v2FlagPhaseChangePresent != 0 {
		cur.Advance(4)
	}

	sizeWidths := [4]uint8{1, 2, 4, 8}
	chunk0SizeWidth := sizeWidths[flags&v2ChunkSizeFieldMask]
	chunk0Size, err := cur.ReadField(chunk0SizeWidth)
	if err != nil {
		return nil, errors.Wrap(err, "v2 header chunk0 size read failed")
	}

	hasCreationOrder := flags&v2FlagAttrCreationOrderTracked != 0

	oh := &ObjectHeader{Version: 2}
	queue := []chunkRef{{addr: cur.Pos(), size: chunk0Size, isChunk0: true}}

	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]

		more, err := parseV2Chunk(src, ref, hasCreationOrder, p, oh)
		if err != nil {
			return nil, err
		}
		queue = append(queue, more...)
	}

	return oh, nil
}

// parseV2Chunk parses one v2 message chunk, appending decoded messages to
// oh.Messages and returning any continuation chunks it discovered.
func parseV2Chunk(src Source, ref chunkRef, hasCreationOrder bool, p Params, oh *ObjectHeader) ([]chunkRef, error) {
	addr := ref.addr
	limit := ref.size
	if !ref.isChunk0 {
		sig, err := src.IORequest(addr, 4)
		if err != nil {
			return nil, errors.Wrapf(err, "continuation block signature read at %#x", addr)
		}
		if string(sig) != continuationBlockSignature {
			return nil, errors.Errorf("invalid continuation block signature at %#x: %q", addr, sig)
		}
		addr += 4
		if limit < 8 {
			return nil, errors.Errorf("continuation block at %#x too small", addr)
		}
		limit -= 8 // signature + trailing checksum
	} else {
		if limit < 4 {
			return nil, errors.Errorf("chunk0 at %#x too small for checksum", addr)
		}
		limit -= 4 // trailing checksum
	}

	cur := xio.NewCursor(src, addr)
	var continuations []chunkRef

	for cur.Pos() < addr+limit {
		msgType, err := cur.ReadField(1)
		if err != nil {
			return nil, errors.Wrap(err, "v2 message type read failed")
		}
		msgSize, err := cur.ReadField(2)
		if err != nil {
			return nil, errors.Wrap(err, "v2 message size read failed")
		}
		cur.Advance(1) // message flags, unused here
		if hasCreationOrder {
			cur.Advance(2)
		}

		data, err := readMessageData(src, cur.Pos(), msgSize)
		if err != nil {
			return nil, err
		}
		cur.Advance(msgSize)

		mt := MessageType(msgType)
		if mt == MsgObjectHeaderContinuation {
			cref, err := decodeContinuationTarget(data, p)
			if err != nil {
				return nil, err
			}
			continuations = append(continuations, cref)
			continue
		}
		if mt == MsgNil {
			continue
		}
		oh.Messages = append(oh.Messages, HeaderMessage{Type: mt, Data: data})
	}

	return continuations, nil
}

// decodeContinuationTarget decodes a continuation message's body: an
// address and length of the block it points to, encoded using the file's
// offset and length field widths.
func decodeContinuationTarget(data []byte, p Params) (chunkRef, error) {
	need := int(p.OffsetSize) + int(p.LengthSize)
	if len(data) < need {
		return chunkRef{}, errors.New("continuation message too short")
	}
	addr := xio.DecodeUint(data[0:p.OffsetSize], p.OffsetSize)
	length := xio.DecodeUint(data[p.OffsetSize:need], p.LengthSize)
	return chunkRef{addr: addr, size: length}, nil
}
