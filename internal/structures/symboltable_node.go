package structures

import (
	"github.com/pkg/errors"

	"github.com/scigolib/h5cloud/internal/core"
	"github.com/scigolib/h5cloud/internal/xio"
)

const symbolTableNodeSignature = "SNOD"

// SymbolTableNode is a parsed SNOD block: the leaf data structure of a
// classic group's B-tree, holding the group's actual entries.
type SymbolTableNode struct {
	NumSymbols uint16
	Entries    []SymbolTableEntry
}

// ParseSymbolTableNode parses an SNOD at address.
func ParseSymbolTableNode(src core.Source, address uint64, p core.Params) (*SymbolTableNode, error) {
	cur := xio.NewCursor(src, address)

	sig, err := cur.ReadArray(4)
	if err != nil {
		return nil, errors.Wrap(err, "SNOD signature read failed")
	}
	if string(sig) != symbolTableNodeSignature {
		return nil, errors.Errorf("invalid SNOD signature at %#x: %q", address, sig)
	}

	version, err := cur.ReadField(1)
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, errors.Errorf("unsupported SNOD version: %d", version)
	}
	cur.Advance(1) // reserved

	numSymbolsVal, err := cur.ReadField(2)
	if err != nil {
		return nil, err
	}
	numSymbols := uint16(numSymbolsVal)

	node := &SymbolTableNode{NumSymbols: numSymbols}
	if numSymbols == 0 {
		return node, nil
	}

	entrySize := uint64(p.OffsetSize)*2 + 4 + 4 + 16
	for i := uint16(0); i < numSymbols; i++ {
		entryStart := address + 8 + uint64(i)*entrySize
		entry, err := parseSymbolTableEntry(src, entryStart, p)
		if err != nil {
			return nil, errors.Wrapf(err, "SNOD entry %d", i)
		}
		node.Entries = append(node.Entries, *entry)
	}

	return node, nil
}

func parseSymbolTableEntry(src core.Source, address uint64, p core.Params) (*SymbolTableEntry, error) {
	cur := xio.NewCursor(src, address)

	linkOffset, err := cur.ReadField(p.OffsetSize)
	if err != nil {
		return nil, err
	}
	objAddr, err := cur.ReadField(p.OffsetSize)
	if err != nil {
		return nil, err
	}
	cacheTypeVal, err := cur.ReadField(4)
	if err != nil {
		return nil, err
	}
	cur.Advance(4) // reserved

	entry := &SymbolTableEntry{
		LinkNameOffset: linkOffset,
		ObjectAddress:  objAddr,
		CacheType:      uint32(cacheTypeVal),
	}

	switch entry.CacheType {
	case CacheTypeSymbolTable:
		entry.CachedBTreeAddr, err = cur.ReadField(8)
		if err != nil {
			return nil, err
		}
		entry.CachedHeapAddr, err = cur.ReadField(8)
		if err != nil {
			return nil, err
		}
	case CacheTypeSoftLink:
		v, err := cur.ReadField(4)
		if err != nil {
			return nil, err
		}
		entry.CachedSoftLinkOffset = uint32(v)
	}

	return entry, nil
}
