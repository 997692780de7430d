package core

import (
	"github.com/pkg/errors"

	"github.com/scigolib/h5cloud/internal/xio"
)

const (
	btreeV1Signature  = "TREE"
	btreeNodeTypeChunk = 1
)

// ChunkKey describes one raw chunk: its origin (chunk's starting
// coordinate, in elements, along each dimension), its filter mask, and
// its stored (possibly filtered) size in the file.
type ChunkKey struct {
	Origin     []uint64
	Address    uint64
	Nbytes     uint32
	FilterMask uint32
}

// BTreeV1Node is one node of the version-1 B-tree used to index a
// chunked dataset's raw data (node type 1, "TREE"-signed).
type BTreeV1Node struct {
	NodeType    uint8
	NodeLevel   uint8
	EntriesUsed uint16
	Keys        []ChunkKey
	Children    []uint64
}

// ParseBTreeV1Node reads and parses a chunk B-tree node at address. ndims
// is the dimensionality of the dataset's chunk dims (not counting the
// trailing element-size "dimension" HDF5 encodes in chunk layouts).
func ParseBTreeV1Node(src Source, address uint64, p Params, ndims int) (*BTreeV1Node, error) {
	cur := xio.NewCursor(src, address)

	sig, err := cur.ReadArray(4)
	if err != nil {
		return nil, errors.Wrap(err, "btree node signature read failed")
	}
	if string(sig) != btreeV1Signature {
		return nil, errors.Errorf("invalid btree signature at %#x: %q", address, sig)
	}

	nodeTypeVal, err := cur.ReadField(1)
	if err != nil {
		return nil, err
	}
	if uint8(nodeTypeVal) != btreeNodeTypeChunk {
		return nil, errors.Errorf("expected chunk btree (type 1), got type %d", nodeTypeVal)
	}
	nodeLevelVal, err := cur.ReadField(1)
	if err != nil {
		return nil, err
	}
	entriesVal, err := cur.ReadField(2)
	if err != nil {
		return nil, err
	}
	entriesUsed := uint16(entriesVal)

	cur.Advance(uint64(p.OffsetSize) * 2) // left/right sibling, unused for descent

	node := &BTreeV1Node{
		NodeType:    uint8(nodeTypeVal),
		NodeLevel:   uint8(nodeLevelVal),
		EntriesUsed: entriesUsed,
	}

	// keySize: nbytes(4) + filterMask(4) + (ndims+1) * 8-byte byte offsets.
	for i := uint16(0); i <= entriesUsed; i++ {
		nbytesVal, err := cur.ReadField(4)
		if err != nil {
			return nil, errors.Wrapf(err, "chunk key %d nbytes", i)
		}
		filterMaskVal, err := cur.ReadField(4)
		if err != nil {
			return nil, errors.Wrapf(err, "chunk key %d filter mask", i)
		}
		origin := make([]uint64, ndims)
		for d := 0; d < ndims; d++ {
			v, err := cur.ReadField(8)
			if err != nil {
				return nil, errors.Wrapf(err, "chunk key %d coordinate %d", i, d)
			}
			origin[d] = v
		}
		cur.Advance(8) // trailing element-size "dimension", always present

		node.Keys = append(node.Keys, ChunkKey{
			Origin:     origin,
			Nbytes:     uint32(nbytesVal),
			FilterMask: uint32(filterMaskVal),
		})

		if i < entriesUsed {
			childAddr, err := cur.ReadField(p.OffsetSize)
			if err != nil {
				return nil, errors.Wrapf(err, "chunk child %d", i)
			}
			node.Children = append(node.Children, childAddr)
		}
	}

	return node, nil
}

// CollectChunksInRowRange walks the chunk B-tree rooted at address,
// returning every leaf chunk whose first-dimension (row) extent
// intersects [rowStart, rowEnd). chunkRows is the row extent of one
// chunk; each key's Origin[0] is already the chunk's starting row in
// element units (not a chunk index), per the on-disk key layout.
func CollectChunksInRowRange(src Source, address uint64, p Params, ndims int, rowStart, rowEnd uint64, chunkRows uint64) ([]ChunkKey, error) {
	node, err := ParseBTreeV1Node(src, address, p, ndims)
	if err != nil {
		return nil, err
	}

	var out []ChunkKey
	if node.NodeLevel == 0 {
		// The final key (index EntriesUsed) is an upper-bound sentinel with
		// no associated chunk; only keys[0:EntriesUsed] pair with a child
		// (here, a raw chunk data address) of the same index.
		for i := 0; i < int(node.EntriesUsed); i++ {
			k := node.Keys[i]
			k.Address = node.Children[i]
			chunkRowStart := k.Origin[0]
			chunkRowEnd := chunkRowStart + chunkRows
			if chunkRowStart < rowEnd && chunkRowEnd > rowStart {
				out = append(out, k)
			}
		}
		return out, nil
	}

	for _, childAddr := range node.Children {
		children, err := CollectChunksInRowRange(src, childAddr, p, ndims, rowStart, rowEnd, chunkRows)
		if err != nil {
			return nil, err
		}
		out = append(out, children...)
	}
	return out, nil
}
