package core

import (
	"github.com/pkg/errors"

	"github.com/scigolib/h5cloud/internal/xio"
)

// LinkInfoMessage is the decoded form of message type 0x02, present on
// groups that use dense (fractal-heap-backed) link storage.
type LinkInfoMessage struct {
	Version                   uint8
	Flags                     uint8
	MaxCreationOrder          int64
	FractalHeapAddress        uint64
	NameBTreeAddress          uint64
	CreationOrderBTreeAddress uint64
	offsetSize                uint8
}

const (
	linkInfoTrackCreationOrder = 0x01
	linkInfoIndexCreationOrder = 0x02
)

// HasCreationOrderTracking reports whether max creation order is present.
func (lim *LinkInfoMessage) HasCreationOrderTracking() bool {
	return lim.Flags&linkInfoTrackCreationOrder != 0
}

// HasCreationOrderIndex reports whether the creation-order B-tree is present.
func (lim *LinkInfoMessage) HasCreationOrderIndex() bool {
	return lim.Flags&linkInfoIndexCreationOrder != 0
}

// HasFractalHeap reports dense link storage. The "absent" sentinel is
// width-dependent (xio.Invalid, per spec §3's offset_size ∈ {4,8}), not a
// fixed 8-byte all-ones value, since FractalHeapAddress is decoded with
// only p.OffsetSize bytes.
func (lim *LinkInfoMessage) HasFractalHeap() bool {
	return lim.FractalHeapAddress != xio.Invalid(lim.offsetSize)
}

// ParseLinkInfoMessage parses a link info message.
func ParseLinkInfoMessage(data []byte, p Params) (*LinkInfoMessage, error) {
	if len(data) < 2 {
		return nil, errors.New("link info message too short")
	}

	lim := &LinkInfoMessage{Version: data[0], Flags: data[1], offsetSize: p.OffsetSize}
	if lim.Version != 0 {
		return nil, errors.Errorf("unsupported link info version: %d", lim.Version)
	}
	offset := 2

	if lim.HasCreationOrderTracking() {
		if len(data) < offset+8 {
			return nil, errors.New("link info message truncated (max creation order)")
		}
		lim.MaxCreationOrder = int64(decodeDim(data[offset : offset+8]))
		offset += 8
	}

	need := offset + 2*int(p.OffsetSize)
	if lim.HasCreationOrderIndex() {
		need += int(p.OffsetSize)
	}
	if len(data) < need {
		return nil, errors.New("link info message truncated (addresses)")
	}

	lim.FractalHeapAddress = decodeDim(data[offset : offset+int(p.OffsetSize)])
	offset += int(p.OffsetSize)
	lim.NameBTreeAddress = decodeDim(data[offset : offset+int(p.OffsetSize)])
	offset += int(p.OffsetSize)
	if lim.HasCreationOrderIndex() {
		lim.CreationOrderBTreeAddress = decodeDim(data[offset : offset+int(p.OffsetSize)])
	}

	return lim, nil
}
