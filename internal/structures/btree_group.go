package structures

import (
	"github.com/pkg/errors"

	"github.com/scigolib/h5cloud/internal/core"
	"github.com/scigolib/h5cloud/internal/xio"
)

const groupBTreeSignature = "TREE"

// ReadGroupEntries walks the classic-format group B-tree (v1, node type
// 0, "TREE"-signed) rooted at address, following every internal node
// down to its leaf SNODs and flattening all of their entries.
func ReadGroupEntries(src core.Source, address uint64, p core.Params) ([]SymbolTableEntry, error) {
	cur := xio.NewCursor(src, address)

	sig, err := cur.ReadArray(4)
	if err != nil {
		return nil, errors.Wrap(err, "group btree signature read failed")
	}
	if string(sig) != groupBTreeSignature {
		return nil, errors.Errorf("invalid group btree signature at %#x: %q", address, sig)
	}

	nodeTypeVal, err := cur.ReadField(1)
	if err != nil {
		return nil, err
	}
	if nodeTypeVal != 0 {
		return nil, errors.Errorf("expected group btree (type 0), got type %d", nodeTypeVal)
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
	if entriesUsed == 0 {
		return nil, nil
	}

	cur.Advance(uint64(p.OffsetSize) * 2) // left/right sibling

	var childAddrs []uint64
	for i := uint16(0); i < entriesUsed; i++ {
		cur.Advance(uint64(p.OffsetSize)) // key: heap offset, unneeded for full enumeration
		addr, err := cur.ReadField(p.OffsetSize)
		if err != nil {
			return nil, errors.Wrapf(err, "group btree child %d", i)
		}
		childAddrs = append(childAddrs, addr)
	}

	var entries []SymbolTableEntry
	for _, addr := range childAddrs {
		if nodeLevelVal == 0 {
			node, err := ParseSymbolTableNode(src, addr, p)
			if err != nil {
				return nil, errors.Wrapf(err, "SNOD at %#x", addr)
			}
			entries = append(entries, node.Entries...)
			continue
		}
		children, err := ReadGroupEntries(src, addr, p)
		if err != nil {
			return nil, err
		}
		entries = append(entries, children...)
	}

	return entries, nil
}
