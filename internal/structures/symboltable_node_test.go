package structures_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/h5cloud/internal/core"
	"github.com/scigolib/h5cloud/internal/structures"
	"github.com/scigolib/h5cloud/internal/testutil"
)

func buildSNODWithTwoEntries() []byte {
	const entrySize = 40
	buf := make([]byte, 8+2*entrySize)
	copy(buf[0:4], "SNOD")
	buf[4] = 1 // version
	binary.LittleEndian.PutUint16(buf[6:8], 2)

	e0 := buf[8 : 8+entrySize]
	binary.LittleEndian.PutUint64(e0[0:8], 0)      // link name offset
	binary.LittleEndian.PutUint64(e0[8:16], 0x100) // object address
	binary.LittleEndian.PutUint32(e0[16:20], structures.CacheTypeNone)

	e1 := buf[8+entrySize : 8+2*entrySize]
	binary.LittleEndian.PutUint64(e1[0:8], 4)
	binary.LittleEndian.PutUint64(e1[8:16], 0x200)
	binary.LittleEndian.PutUint32(e1[16:20], structures.CacheTypeSymbolTable)
	binary.LittleEndian.PutUint64(e1[24:32], 0x500) // cached btree address
	binary.LittleEndian.PutUint64(e1[32:40], 0x600) // cached heap address

	return buf
}

func TestParseSymbolTableNode(t *testing.T) {
	data := buildSNODWithTwoEntries()
	src := testutil.NewBufferSource(data)
	p := core.Params{OffsetSize: 8, LengthSize: 8}

	node, err := structures.ParseSymbolTableNode(src, 0, p)
	require.NoError(t, err)
	require.Equal(t, uint16(2), node.NumSymbols)
	require.Len(t, node.Entries, 2)

	require.Equal(t, uint64(0x100), node.Entries[0].ObjectAddress)
	require.False(t, node.Entries[0].IsSoftLink())

	require.Equal(t, uint64(0x200), node.Entries[1].ObjectAddress)
	require.Equal(t, uint64(0x500), node.Entries[1].CachedBTreeAddr)
	require.Equal(t, uint64(0x600), node.Entries[1].CachedHeapAddr)
}

func TestParseSymbolTableNode_RejectsBadSignature(t *testing.T) {
	data := make([]byte, 8)
	copy(data[0:4], "NOPE")

	src := testutil.NewBufferSource(data)
	p := core.Params{OffsetSize: 8, LengthSize: 8}

	_, err := structures.ParseSymbolTableNode(src, 0, p)
	require.Error(t, err)
}

func TestParseSymbolTableNode_EmptyNode(t *testing.T) {
	data := make([]byte, 8)
	copy(data[0:4], "SNOD")
	data[4] = 1

	src := testutil.NewBufferSource(data)
	p := core.Params{OffsetSize: 8, LengthSize: 8}

	node, err := structures.ParseSymbolTableNode(src, 0, p)
	require.NoError(t, err)
	require.Equal(t, uint16(0), node.NumSymbols)
	require.Empty(t, node.Entries)
}
