package chunked_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/h5cloud/internal/chunked"
	"github.com/scigolib/h5cloud/internal/core"
	"github.com/scigolib/h5cloud/internal/testutil"
)

func putU(buf *[]byte, v uint64, w int) {
	b := make([]byte, w)
	switch w {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, v)
	}
	*buf = append(*buf, b...)
}

// buildSingleChunkFile lays out a chunk B-tree leaf with one chunk (origin
// all zero) followed immediately by the chunk's raw (optionally zlib
// compressed) bytes, and returns the whole buffer. The B-tree node sits at
// address 0, the start of the buffer.
func buildSingleChunkFile(offsetSize uint8, chunkPayload []byte, rank int) []byte {
	buf := []byte("TREE")
	putU(&buf, 1, 1) // node type: chunk
	putU(&buf, 0, 1) // node level: leaf
	putU(&buf, 1, 2) // entries used
	putU(&buf, 0xFFFFFFFFFFFFFFFF, int(offsetSize))
	putU(&buf, 0xFFFFFFFFFFFFFFFF, int(offsetSize))

	// key 0: nbytes, filter mask, rank origin coords, trailing elem-size dim
	putU(&buf, uint64(len(chunkPayload)), 4)
	putU(&buf, 0, 4)
	for i := 0; i < rank; i++ {
		putU(&buf, 0, 8)
	}
	putU(&buf, 0, 8)

	// placeholder child address, patched below once we know where the
	// chunk payload lands.
	childAddrOffset := len(buf)
	putU(&buf, 0, int(offsetSize))

	// sentinel key (no child)
	putU(&buf, 0, 4)
	putU(&buf, 0, 4)
	for i := 0; i < rank; i++ {
		putU(&buf, 10, 8)
	}
	putU(&buf, 0, 8)

	chunkAddr := uint64(len(buf))
	buf = append(buf, chunkPayload...)

	// patch in the real chunk address now that the payload's position is known
	addrBytes := make([]byte, offsetSize)
	binary.LittleEndian.PutUint64(addrBytes, chunkAddr)
	copy(buf[childAddrOffset:childAddrOffset+int(offsetSize)], addrBytes)

	return buf
}

func TestReadRowRange_Unfiltered(t *testing.T) {
	// 4x4 int32 dataset, single 4x4 chunk, no filters.
	chunkPayload := make([]byte, 4*4*4)
	for i := range chunkPayload {
		chunkPayload[i] = byte(i)
	}
	data := buildSingleChunkFile(8, chunkPayload, 2)
	src := testutil.NewBufferSource(data)
	p := core.Params{OffsetSize: 8, LengthSize: 8}

	plan := chunked.Plan{
		Dimensions:   []uint64{4, 4},
		ChunkDims:    []uint64{4, 4},
		TypeSize:     4,
		BTreeAddress: 0,
	}

	out, err := chunked.ReadRowRange(src, p, plan, 0, 4, nil)
	require.NoError(t, err)
	require.Equal(t, chunkPayload, out)
}

func TestReadRowRange_Deflate(t *testing.T) {
	raw := bytes.Repeat([]byte{0x01, 0x02, 0x03, 0x04}, 16) // 4x4 int32 chunk

	var compressed bytes.Buffer
	w := zlib.NewWriter(&compressed)
	_, err := w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data := buildSingleChunkFile(8, compressed.Bytes(), 2)
	src := testutil.NewBufferSource(data)
	p := core.Params{OffsetSize: 8, LengthSize: 8}

	plan := chunked.Plan{
		Dimensions:   []uint64{4, 4},
		ChunkDims:    []uint64{4, 4},
		TypeSize:     4,
		BTreeAddress: 0,
		Filters: &core.FilterPipelineMessage{
			Filters: []core.Filter{{ID: core.FilterDeflate}},
		},
	}

	out, err := chunked.ReadRowRange(src, p, plan, 0, 4, nil)
	require.NoError(t, err)
	require.Equal(t, raw, out)
}

func TestReadRowRange_FillValueForUncoveredRange(t *testing.T) {
	chunkPayload := make([]byte, 4*4*4)
	data := buildSingleChunkFile(8, chunkPayload, 2)
	src := testutil.NewBufferSource(data)
	p := core.Params{OffsetSize: 8, LengthSize: 8}

	plan := chunked.Plan{
		Dimensions:   []uint64{4, 4},
		ChunkDims:    []uint64{4, 4},
		TypeSize:     4,
		BTreeAddress: 0,
	}

	// Request rows entirely outside the only chunk's coverage: the whole
	// output must be the fill value, and the B-tree walk must not error.
	fill := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	out, err := chunked.ReadRowRange(src, p, plan, 100, 1, fill)
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat(fill, 4), out)
}
