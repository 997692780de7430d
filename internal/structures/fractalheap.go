package structures

import (
	"github.com/pkg/errors"

	"github.com/scigolib/h5cloud/internal/core"
	"github.com/scigolib/h5cloud/internal/xio"
)

// FractalHeap is a minimal read-only fractal heap supporting managed and
// tiny objects stored in direct blocks. Indirect blocks (heaps large
// enough to need more than one row of direct blocks) are not supported;
// see design notes for rationale.
type FractalHeap struct {
	Header     *fractalHeapHeader
	src        core.Source
	headerAddr uint64
	offsetSize uint8
}

type fractalHeapHeader struct {
	MaxManagedObjSize  uint32
	TableWidth         uint16
	StartingBlockSize  uint64
	MaxDirectBlockSize uint64
	MaxHeapSize        uint16
	RootBlockAddr      uint64
	CurrentRowCount    uint16

	HeapOffsetSize       uint8
	HeapLengthSize       uint8
	ChecksumDirectBlocks bool
}

const fractalHeapSignature = "FRHP"
const fractalHeapDirectBlockSignature = "FHDB"

// OpenFractalHeap opens and parses a fractal heap header at address.
func OpenFractalHeap(src core.Source, address uint64, p core.Params) (*FractalHeap, error) {
	header, err := parseFractalHeapHeader(src, address, p)
	if err != nil {
		return nil, errors.Wrap(err, "fractal heap header parse failed")
	}
	return &FractalHeap{Header: header, src: src, headerAddr: address, offsetSize: p.OffsetSize}, nil
}

func parseFractalHeapHeader(src core.Source, address uint64, p core.Params) (*fractalHeapHeader, error) {
	cur := xio.NewCursor(src, address)

	sig, err := cur.ReadArray(4)
	if err != nil {
		return nil, err
	}
	if string(sig) != fractalHeapSignature {
		return nil, errors.Errorf("invalid fractal heap signature at %#x: %q", address, sig)
	}

	version, err := cur.ReadField(1)
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, errors.Errorf("unsupported fractal heap version: %d", version)
	}

	cur.Advance(2) // heap ID length
	ioFiltersLen, err := cur.ReadField(2)
	if err != nil {
		return nil, err
	}
	flagsVal, err := cur.ReadField(1)
	if err != nil {
		return nil, err
	}
	h := &fractalHeapHeader{ChecksumDirectBlocks: flagsVal&0x02 != 0}

	maxManagedVal, err := cur.ReadField(4)
	if err != nil {
		return nil, err
	}
	h.MaxManagedObjSize = uint32(maxManagedVal)

	cur.Advance(uint64(p.LengthSize)) // next huge object id
	cur.Advance(uint64(p.OffsetSize)) // huge object btree address
	cur.Advance(uint64(p.LengthSize)) // free space amount
	cur.Advance(uint64(p.OffsetSize)) // free space section address
	cur.Advance(uint64(p.LengthSize) * 4) // managed object stats
	cur.Advance(uint64(p.LengthSize) * 2) // huge object stats
	cur.Advance(uint64(p.LengthSize) * 2) // tiny object stats

	tableWidthVal, err := cur.ReadField(2)
	if err != nil {
		return nil, err
	}
	h.TableWidth = uint16(tableWidthVal)

	h.StartingBlockSize, err = cur.ReadField(p.LengthSize)
	if err != nil {
		return nil, err
	}
	h.MaxDirectBlockSize, err = cur.ReadField(p.LengthSize)
	if err != nil {
		return nil, err
	}
	maxHeapSizeVal, err := cur.ReadField(2)
	if err != nil {
		return nil, err
	}
	h.MaxHeapSize = uint16(maxHeapSizeVal)

	cur.Advance(2) // starting # of rows in root indirect block

	h.RootBlockAddr, err = cur.ReadField(p.OffsetSize)
	if err != nil {
		return nil, err
	}
	currentRowsVal, err := cur.ReadField(2)
	if err != nil {
		return nil, err
	}
	h.CurrentRowCount = uint16(currentRowsVal)

	h.HeapOffsetSize = uint8((h.MaxHeapSize + 7) / 8)
	h.HeapLengthSize = byteWidthFor(h.MaxDirectBlockSize)
	if lenFor := byteWidthFor(uint64(h.MaxManagedObjSize)); lenFor < h.HeapLengthSize {
		h.HeapLengthSize = lenFor
	}

	if ioFiltersLen > 0 {
		return nil, errors.New("fractal heap I/O filter information is not supported")
	}

	return h, nil
}

func byteWidthFor(v uint64) uint8 {
	if v == 0 {
		return 1
	}
	var n uint8
	for v > 0 {
		n++
		v >>= 8
	}
	return n
}

// ReadObject resolves a heap ID to its object bytes.
func (fh *FractalHeap) ReadObject(heapID []byte) ([]byte, error) {
	if len(heapID) < 1 {
		return nil, errors.New("heap ID too short")
	}
	flags := heapID[0]
	version := (flags & 0xC0) >> 6
	idType := flags & 0x30
	if version != 0 {
		return nil, errors.Errorf("unsupported heap ID version: %d", version)
	}

	switch idType {
	case 0x00: // managed
		return fh.readManagedObject(heapID[1:])
	case 0x20: // tiny
		return append([]byte(nil), heapID[1:]...), nil
	default:
		return nil, errors.Errorf("unsupported heap ID type: 0x%02X", idType)
	}
}

func (fh *FractalHeap) readManagedObject(rest []byte) ([]byte, error) {
	if fh.Header.CurrentRowCount != 0 {
		return nil, errors.New("fractal heap indirect blocks are not supported")
	}

	offsetSize := int(fh.Header.HeapOffsetSize)
	lengthSize := int(fh.Header.HeapLengthSize)
	if len(rest) < offsetSize+lengthSize {
		return nil, errors.New("heap ID too short for managed object")
	}
	offset := xio.DecodeUint(rest[0:offsetSize], uint8(offsetSize))
	length := xio.DecodeUint(rest[offsetSize:offsetSize+lengthSize], uint8(lengthSize))

	block, blockOffset, err := fh.readDirectBlock(fh.Header.RootBlockAddr, fh.Header.StartingBlockSize)
	if err != nil {
		return nil, errors.Wrap(err, "fractal heap direct block read failed")
	}
	if offset < blockOffset {
		return nil, errors.Errorf("object offset %#x before block offset %#x", offset, blockOffset)
	}
	rel := offset - blockOffset
	if rel+length > uint64(len(block)) {
		return nil, errors.New("object extends beyond direct block data")
	}
	return append([]byte(nil), block[rel:rel+length]...), nil
}

// ScanLinkMessages sequentially scans the root direct block's managed
// space as a packed run of link messages, per the dense-group resolution
// algorithm: no v2 B-tree name index is consulted, every stored link is
// simply read off in turn and dispatched to ParseLinkMessageWithLength. Indirect
// blocks share the same "heaps with more than one row" restriction as
// readManagedObject.
func (fh *FractalHeap) ScanLinkMessages(p core.Params) ([]*core.LinkMessage, error) {
	if fh.Header.CurrentRowCount != 0 {
		return nil, errors.New("fractal heap indirect blocks are not supported")
	}

	block, _, err := fh.readDirectBlock(fh.Header.RootBlockAddr, fh.Header.StartingBlockSize)
	if err != nil {
		return nil, errors.Wrap(err, "fractal heap direct block read failed")
	}

	var links []*core.LinkMessage
	for len(block) > 2 {
		// A link message's version byte is always 1; a zero there means
		// the rest of the block is unused free space.
		if block[0] == 0 {
			break
		}
		lm, consumed, err := core.ParseLinkMessageWithLength(block, p)
		if err != nil {
			return nil, errors.Wrap(err, "link message parse failed in fractal heap direct block")
		}
		links = append(links, lm)
		block = block[consumed:]
	}
	return links, nil
}

func (fh *FractalHeap) readDirectBlock(address, blockSize uint64) ([]byte, uint64, error) {
	buf, err := fh.src.IORequest(address, blockSize)
	if err != nil {
		return nil, 0, err
	}
	if string(buf[0:4]) != fractalHeapDirectBlockSignature {
		return nil, 0, errors.Errorf("invalid direct block signature: %q", buf[0:4])
	}
	offset := 5 // signature(4) + version(1)
	offset += int(fh.offsetSize) // heap header address, unused once the heap is open
	blockOffset := xio.DecodeUint(buf[offset:offset+int(fh.Header.HeapOffsetSize)], fh.Header.HeapOffsetSize)
	offset += int(fh.Header.HeapOffsetSize)

	dataEnd := len(buf)
	if fh.Header.ChecksumDirectBlocks {
		dataEnd -= 4
	}
	return buf[offset:dataEnd], blockOffset, nil
}
