package h5cloud

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/h5cloud/internal/cache"
	"github.com/scigolib/h5cloud/internal/core"
	"github.com/scigolib/h5cloud/internal/testutil"
	"github.com/scigolib/h5cloud/internal/xlog"
)

// buildGroupWithIntDataset builds a classic root group with one child
// dataset "values": a contiguous, 1-D, signed-int32 dataset holding
// [10, 20, 30, 40]. Layout, by address:
//
//	[0,40)     root object header (v1), one SymbolTableMessage
//	[40,72)    local heap header
//	[72,88)    local heap data segment ("values\0", padded)
//	[88,128)   group B-tree leaf node (one entry)
//	[128,176)  SNOD (one entry, pointing at 176)
//	[176,272)  child object header (v1): Dataspace, Datatype, DataLayout
//	[272,288)  raw contiguous data: four little-endian int32s
func buildGroupWithIntDataset() []byte {
	const (
		heapHeaderAddr = 40
		heapDataAddr   = 72
		btreeAddr      = 88
		snodAddr       = 128
		childAddr      = 176
		dataAddr       = 272
	)

	buf := make([]byte, 288)

	buf[0] = 1
	binary.LittleEndian.PutUint16(buf[2:], 1)
	binary.LittleEndian.PutUint32(buf[8:], 24)
	msgArea := buf[16:]
	binary.LittleEndian.PutUint16(msgArea[0:2], uint16(core.MsgSymbolTable))
	binary.LittleEndian.PutUint16(msgArea[2:4], 16)
	binary.LittleEndian.PutUint64(msgArea[8:16], btreeAddr)
	binary.LittleEndian.PutUint64(msgArea[16:24], heapHeaderAddr)

	copy(buf[heapHeaderAddr:heapHeaderAddr+4], "HEAP")
	binary.LittleEndian.PutUint64(buf[heapHeaderAddr+8:heapHeaderAddr+16], 16)
	binary.LittleEndian.PutUint64(buf[heapHeaderAddr+24:heapHeaderAddr+32], heapDataAddr)
	copy(buf[heapDataAddr:heapDataAddr+7], "values\x00")

	copy(buf[btreeAddr:btreeAddr+4], "TREE")
	binary.LittleEndian.PutUint16(buf[btreeAddr+6:btreeAddr+8], 1)
	binary.LittleEndian.PutUint64(buf[btreeAddr+8:btreeAddr+16], 0xFFFFFFFFFFFFFFFF)
	binary.LittleEndian.PutUint64(buf[btreeAddr+16:btreeAddr+24], 0xFFFFFFFFFFFFFFFF)
	binary.LittleEndian.PutUint64(buf[btreeAddr+32:btreeAddr+40], snodAddr)

	copy(buf[snodAddr:snodAddr+4], "SNOD")
	buf[snodAddr+4] = 1
	binary.LittleEndian.PutUint16(buf[snodAddr+6:snodAddr+8], 1)
	binary.LittleEndian.PutUint64(buf[snodAddr+16:snodAddr+24], childAddr)

	buf[childAddr] = 1
	binary.LittleEndian.PutUint16(buf[childAddr+2:], 3) // total messages
	binary.LittleEndian.PutUint32(buf[childAddr+8:], 80) // header size

	m := buf[childAddr+16:]

	// Dataspace: simple, rank 1, dim0=4.
	binary.LittleEndian.PutUint16(m[0:2], uint16(core.MsgDataspace))
	binary.LittleEndian.PutUint16(m[2:4], 12)
	m[8] = 1 // version
	m[9] = 1 // dimensionality
	binary.LittleEndian.PutUint32(m[16:20], 4)

	// Datatype: fixed, version 1, signed, size 4.
	m2 := m[24:]
	binary.LittleEndian.PutUint16(m2[0:2], uint16(core.MsgDatatype))
	binary.LittleEndian.PutUint16(m2[2:4], 12)
	m2[8] = 0x10
	m2[9] = 0x08
	binary.LittleEndian.PutUint32(m2[12:16], 4)

	// DataLayout: version 3, contiguous, address + length.
	m3 := m2[24:]
	binary.LittleEndian.PutUint16(m3[0:2], uint16(core.MsgDataLayout))
	binary.LittleEndian.PutUint16(m3[2:4], 18)
	m3[8] = 3
	m3[9] = 1
	binary.LittleEndian.PutUint64(m3[10:18], dataAddr)
	binary.LittleEndian.PutUint64(m3[18:26], 16)

	binary.LittleEndian.PutUint32(buf[dataAddr:dataAddr+4], 10)
	binary.LittleEndian.PutUint32(buf[dataAddr+4:dataAddr+8], 20)
	binary.LittleEndian.PutUint32(buf[dataAddr+8:dataAddr+12], 30)
	binary.LittleEndian.PutUint32(buf[dataAddr+12:dataAddr+16], 40)

	return buf
}

func newTestHandle(t *testing.T, data []byte) *Handle {
	t.Helper()
	c, err := cache.New(testutil.NewBufferDriver(data), 32)
	require.NoError(t, err)
	return &Handle{
		cache:       c,
		params:      core.Params{OffsetSize: 8, LengthSize: 8},
		rootAddress: 0,
		log:         xlog.New(false),
	}
}

func TestHandle_ReadDatasets_ContiguousInt32(t *testing.T) {
	h := newTestHandle(t, buildGroupWithIntDataset())

	results, err := h.ReadDatasets(context.Background(), []ReadRequest{{Path: "values"}})
	require.NoError(t, err)

	res := results["values"]
	require.NotNil(t, res)
	require.NoError(t, res.Err)
	require.Equal(t, DatatypeInt32, res.Datatype)
	require.Equal(t, uint64(4), res.RowCount)
	require.Equal(t, uint64(1), res.ColCount)

	vals := make([]int32, 4)
	for i := range vals {
		vals[i] = int32(binary.LittleEndian.Uint32(res.Data[i*4 : i*4+4]))
	}
	require.Equal(t, []int32{10, 20, 30, 40}, vals)
}

func TestHandle_ReadDatasets_MetaOnly(t *testing.T) {
	h := newTestHandle(t, buildGroupWithIntDataset())

	results, err := h.ReadDatasets(context.Background(), []ReadRequest{{Path: "values", MetaOnly: true}})
	require.NoError(t, err)

	res := results["values"]
	require.NotNil(t, res)
	require.NoError(t, res.Err)
	require.Nil(t, res.Data)
	require.Equal(t, uint64(4), res.RowCount)
}

func TestHandle_ReadDatasets_RowSubset(t *testing.T) {
	h := newTestHandle(t, buildGroupWithIntDataset())

	results, err := h.ReadDatasets(context.Background(), []ReadRequest{{Path: "values", StartRow: 1, NumRows: 2}})
	require.NoError(t, err)

	res := results["values"]
	require.NoError(t, res.Err)
	require.Len(t, res.Data, 8)
	require.Equal(t, uint32(20), binary.LittleEndian.Uint32(res.Data[0:4]))
	require.Equal(t, uint32(30), binary.LittleEndian.Uint32(res.Data[4:8]))
}

func TestHandle_ReadDatasets_UnknownPathIsolatesFailure(t *testing.T) {
	h := newTestHandle(t, buildGroupWithIntDataset())

	results, err := h.ReadDatasets(context.Background(), []ReadRequest{
		{Path: "values"},
		{Path: "nope"},
	})
	require.NoError(t, err)
	require.NoError(t, results["values"].Err)
	require.Error(t, results["nope"].Err)
}

func TestHandle_ReadDatasets_RejectsUnsupportedDatatypeClass(t *testing.T) {
	data := buildGroupWithIntDataset()
	data[224] = 0x16 // datatype message byte 8: version 1, class 6 (compound)
	h := newTestHandle(t, data)

	results, err := h.ReadDatasets(context.Background(), []ReadRequest{{Path: "values"}})
	require.NoError(t, err)

	res := results["values"]
	require.NotNil(t, res)
	require.Error(t, res.Err)
	require.Nil(t, res.Data)
}

func TestHandle_ReadDatasets_OutOfBoundsRowRange(t *testing.T) {
	h := newTestHandle(t, buildGroupWithIntDataset())

	results, err := h.ReadDatasets(context.Background(), []ReadRequest{{Path: "values", StartRow: 2, NumRows: 10}})
	require.NoError(t, err)
	require.Error(t, results["values"].Err)
}
