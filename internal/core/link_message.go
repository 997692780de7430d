package core

import "github.com/pkg/errors"

// LinkType identifies the kind of a link message's target.
type LinkType uint8

// Link type constants.
const (
	LinkTypeHard     LinkType = 0
	LinkTypeSoft     LinkType = 1
	LinkTypeExternal LinkType = 64
)

// LinkMessage is the decoded form of message type 0x06, used by groups
// with dense (fractal-heap-indexed) link storage in place of symbol
// table entries.
type LinkMessage struct {
	Version       uint8
	Flags         uint8
	Type          LinkType
	CreationOrder uint64
	CharSet       uint8
	Name          string
	LinkValue     []byte
}

const (
	linkFlagSizeOfLengthMask = 0x03
	linkFlagCreationOrderBit = 0x04
	linkFlagLinkTypeFieldBit = 0x08
	linkFlagCharSetBit       = 0x10
)

func (lm *LinkMessage) hasCreationOrder() bool { return lm.Flags&linkFlagCreationOrderBit != 0 }
func (lm *LinkMessage) hasLinkTypeField() bool { return lm.Flags&linkFlagLinkTypeFieldBit != 0 }
func (lm *LinkMessage) hasCharSetField() bool  { return lm.Flags&linkFlagCharSetBit != 0 }

func (lm *LinkMessage) nameLengthSize() int {
	switch lm.Flags & linkFlagSizeOfLengthMask {
	case 1:
		return 2
	case 2:
		return 4
	case 3:
		return 8
	default:
		return 1
	}
}

// ParseLinkMessage parses a link message, given the file's offset size
// for decoding a hard-link target address. data is expected to already be
// sliced to the message's own bytes (as object headers slice their
// messages); trailing alignment padding in data is tolerated.
func ParseLinkMessage(data []byte, p Params) (*LinkMessage, error) {
	lm, _, err := parseLinkMessage(data, p, false)
	return lm, err
}

// ParseLinkMessageWithLength parses one link message from the front of
// data and reports exactly how many bytes it consumed, for callers (the
// fractal heap direct-block scanner) that have several messages packed
// back to back with no per-message length prefix of their own.
func ParseLinkMessageWithLength(data []byte, p Params) (*LinkMessage, int, error) {
	return parseLinkMessage(data, p, true)
}

func parseLinkMessage(data []byte, p Params, exact bool) (*LinkMessage, int, error) {
	if len(data) < 2 {
		return nil, 0, errors.New("link message too short")
	}
	lm := &LinkMessage{Version: data[0], Flags: data[1], Type: LinkTypeHard}
	if lm.Version != 1 {
		return nil, 0, errors.Errorf("unsupported link message version: %d", lm.Version)
	}
	offset := 2

	if lm.hasLinkTypeField() {
		if offset >= len(data) {
			return nil, 0, errors.New("link message truncated (type)")
		}
		lm.Type = LinkType(data[offset])
		offset++
	}

	if lm.hasCreationOrder() {
		if offset+8 > len(data) {
			return nil, 0, errors.New("link message truncated (creation order)")
		}
		lm.CreationOrder = decodeDim(data[offset : offset+8])
		offset += 8
	}

	if lm.hasCharSetField() {
		if offset >= len(data) {
			return nil, 0, errors.New("link message truncated (charset)")
		}
		lm.CharSet = data[offset]
		offset++
	}

	lenSize := lm.nameLengthSize()
	if offset+lenSize > len(data) {
		return nil, 0, errors.New("link message truncated (name length)")
	}
	nameLen := decodeDim(data[offset : offset+lenSize])
	offset += lenSize

	if offset+int(nameLen) > len(data) {
		return nil, 0, errors.New("link message truncated (name)")
	}
	lm.Name = string(data[offset : offset+int(nameLen)])
	offset += int(nameLen)

	switch lm.Type {
	case LinkTypeHard:
		if offset+int(p.OffsetSize) > len(data) {
			return nil, 0, errors.New("link message truncated (hard link address)")
		}
		lm.LinkValue = data[offset : offset+int(p.OffsetSize)]
		offset += int(p.OffsetSize)
	case LinkTypeSoft, LinkTypeExternal:
		// Value is a 2-byte length followed by that many bytes (h5coro's
		// linkMsgHandler reads soft/external link values identically).
		// LinkValue keeps the length prefix so SoftTarget can decode it
		// the same way regardless of which entry point produced it.
		if !exact {
			lm.LinkValue = data[offset:]
			return lm, offset, nil
		}
		if offset+2 > len(data) {
			return nil, 0, errors.New("link message truncated (value length)")
		}
		valLen := int(decodeDim(data[offset : offset+2]))
		valueStart := offset
		offset += 2
		if offset+valLen > len(data) {
			return nil, 0, errors.New("link message truncated (value)")
		}
		offset += valLen
		lm.LinkValue = data[valueStart:offset]
	default:
		return nil, 0, errors.Errorf("unsupported link type: %d", lm.Type)
	}

	return lm, offset, nil
}

// TargetAddress decodes a hard link's target object-header address.
func (lm *LinkMessage) TargetAddress() uint64 {
	return decodeDim(lm.LinkValue)
}

// SoftTarget decodes a soft link's textual target path.
func (lm *LinkMessage) SoftTarget() (string, error) {
	if lm.Type != LinkTypeSoft {
		return "", errors.New("link is not a soft link")
	}
	if len(lm.LinkValue) < 2 {
		return "", errors.New("soft link value too short")
	}
	n := decodeDim(lm.LinkValue[0:2])
	if int(n) > len(lm.LinkValue)-2 {
		return "", errors.New("soft link value truncated")
	}
	return string(lm.LinkValue[2 : 2+n]), nil
}
