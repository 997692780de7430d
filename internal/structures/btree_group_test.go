package structures_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/h5cloud/internal/core"
	"github.com/scigolib/h5cloud/internal/structures"
	"github.com/scigolib/h5cloud/internal/testutil"
)

func buildGroupBTreeWithOneLeafSNOD() []byte {
	const snodAddr = 40
	buf := make([]byte, snodAddr+48)

	copy(buf[0:4], "TREE")
	buf[4] = 0 // node type: group
	buf[5] = 0 // node level: leaf
	binary.LittleEndian.PutUint16(buf[6:8], 1)
	binary.LittleEndian.PutUint64(buf[8:16], 0xFFFFFFFFFFFFFFFF)  // left sibling
	binary.LittleEndian.PutUint64(buf[16:24], 0xFFFFFFFFFFFFFFFF) // right sibling
	binary.LittleEndian.PutUint64(buf[24:32], 0)                  // key (heap offset, unused)
	binary.LittleEndian.PutUint64(buf[32:40], snodAddr)           // child address

	snod := buf[snodAddr:]
	copy(snod[0:4], "SNOD")
	snod[4] = 1
	binary.LittleEndian.PutUint16(snod[6:8], 1)
	binary.LittleEndian.PutUint64(snod[8:16], 0)      // link name offset
	binary.LittleEndian.PutUint64(snod[16:24], 0x300) // object address
	binary.LittleEndian.PutUint32(snod[24:28], structures.CacheTypeNone)

	return buf
}

func TestReadGroupEntries_SingleLeafNode(t *testing.T) {
	data := buildGroupBTreeWithOneLeafSNOD()
	src := testutil.NewBufferSource(data)
	p := core.Params{OffsetSize: 8, LengthSize: 8}

	entries, err := structures.ReadGroupEntries(src, 0, p)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, uint64(0x300), entries[0].ObjectAddress)
}

func TestReadGroupEntries_RejectsBadSignature(t *testing.T) {
	data := make([]byte, 8)
	copy(data[0:4], "NOPE")

	src := testutil.NewBufferSource(data)
	p := core.Params{OffsetSize: 8, LengthSize: 8}

	_, err := structures.ReadGroupEntries(src, 0, p)
	require.Error(t, err)
}

func TestReadGroupEntries_EmptyTree(t *testing.T) {
	data := make([]byte, 8)
	copy(data[0:4], "TREE")
	data[4] = 0
	data[5] = 0
	binary.LittleEndian.PutUint16(data[6:8], 0)

	src := testutil.NewBufferSource(data)
	p := core.Params{OffsetSize: 8, LengthSize: 8}

	entries, err := structures.ReadGroupEntries(src, 0, p)
	require.NoError(t, err)
	require.Empty(t, entries)
}
