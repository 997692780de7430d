// Package structures implements component G: navigation of classic
// (B-tree v1 + local-heap + SNOD) and dense (fractal-heap-backed) groups.
package structures

import (
	"github.com/pkg/errors"

	"github.com/scigolib/h5cloud/internal/core"
	"github.com/scigolib/h5cloud/internal/xio"
)

// LocalHeap holds the name-storage data segment of a classic group, used
// to resolve the link-name offsets carried by symbol table entries.
type LocalHeap struct {
	Data []byte
}

const localHeapSignature = "HEAP"

// LoadLocalHeap reads a local heap ("HEAP") at address.
func LoadLocalHeap(src core.Source, address uint64, p core.Params) (*LocalHeap, error) {
	headerSize := 8 + int(p.LengthSize)*2 + int(p.OffsetSize)
	cur := xio.NewCursor(src, address)

	sig, err := cur.ReadArray(4)
	if err != nil {
		return nil, errors.Wrap(err, "local heap signature read failed")
	}
	if string(sig) != localHeapSignature {
		return nil, errors.Errorf("invalid local heap signature at %#x: %q", address, sig)
	}
	cur.Advance(4) // version(1) + reserved(3)

	dataSegmentSize, err := cur.ReadField(p.LengthSize)
	if err != nil {
		return nil, errors.Wrap(err, "local heap data segment size read failed")
	}
	cur.Advance(uint64(p.LengthSize)) // free list offset, unused for reads

	cur.SeekTo(address + uint64(headerSize) - uint64(p.OffsetSize))
	dataAddr, err := cur.ReadField(p.OffsetSize)
	if err != nil {
		return nil, errors.Wrap(err, "local heap data segment address read failed")
	}

	data, err := src.IORequest(dataAddr, dataSegmentSize)
	if err != nil {
		return nil, errors.Wrap(err, "local heap data segment read failed")
	}

	return &LocalHeap{Data: data}, nil
}

// GetString returns the NUL-terminated string stored at offset.
func (h *LocalHeap) GetString(offset uint64) (string, error) {
	if offset >= uint64(len(h.Data)) {
		return "", errors.New("local heap offset beyond data segment")
	}
	end := offset
	for end < uint64(len(h.Data)) && h.Data[end] != 0 {
		end++
	}
	if end >= uint64(len(h.Data)) {
		return "", errors.New("local heap string not NUL-terminated")
	}
	return string(h.Data[offset:end]), nil
}
