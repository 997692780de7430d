package structures

import (
	"github.com/pkg/errors"

	"github.com/scigolib/h5cloud/internal/core"
	"github.com/scigolib/h5cloud/internal/xio"
)

// SymbolTableMessage is the decoded form of header message type 0x11,
// pointing a classic-format group object at its B-tree and local heap.
type SymbolTableMessage struct {
	BTreeAddress uint64
	HeapAddress  uint64
}

// ParseSymbolTableMessage parses a symbol table message.
func ParseSymbolTableMessage(data []byte, p core.Params) (*SymbolTableMessage, error) {
	need := 2 * int(p.OffsetSize)
	if len(data) < need {
		return nil, errors.New("symbol table message too short")
	}
	return &SymbolTableMessage{
		BTreeAddress: xio.DecodeUint(data[0:p.OffsetSize], p.OffsetSize),
		HeapAddress:  xio.DecodeUint(data[p.OffsetSize:need], p.OffsetSize),
	}, nil
}

// Cache type constants for symbol table entries.
const (
	CacheTypeNone        uint32 = 0
	CacheTypeSymbolTable uint32 = 1
	CacheTypeSoftLink    uint32 = 2
)

// SymbolTableEntry is one 40-byte (8-byte-offset) entry inside an SNOD.
type SymbolTableEntry struct {
	LinkNameOffset       uint64
	ObjectAddress        uint64
	CacheType            uint32
	CachedBTreeAddr      uint64
	CachedHeapAddr       uint64
	CachedSoftLinkOffset uint32
}

// IsSoftLink reports a cached soft link entry.
func (e *SymbolTableEntry) IsSoftLink() bool { return e.CacheType == CacheTypeSoftLink }
