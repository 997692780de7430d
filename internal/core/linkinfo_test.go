package core_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/h5cloud/internal/core"
)

func TestParseLinkInfoMessage_CompactStorage(t *testing.T) {
	data := make([]byte, 2+8+8)
	data[0] = 0 // version
	data[1] = 0 // flags: no creation order tracking
	binary.LittleEndian.PutUint64(data[2:10], 0xFFFFFFFFFFFFFFFF)
	binary.LittleEndian.PutUint64(data[10:18], 0xFFFFFFFFFFFFFFFF)

	lim, err := core.ParseLinkInfoMessage(data, core.Params{OffsetSize: 8, LengthSize: 8})
	require.NoError(t, err)
	require.False(t, lim.HasFractalHeap())
}

func TestParseLinkInfoMessage_DenseStorage(t *testing.T) {
	data := make([]byte, 2+8+8)
	data[0] = 0
	data[1] = 0
	binary.LittleEndian.PutUint64(data[2:10], 0x4000)
	binary.LittleEndian.PutUint64(data[10:18], 0x5000)

	lim, err := core.ParseLinkInfoMessage(data, core.Params{OffsetSize: 8, LengthSize: 8})
	require.NoError(t, err)
	require.True(t, lim.HasFractalHeap())
	require.Equal(t, uint64(0x4000), lim.FractalHeapAddress)
}

func TestParseLinkInfoMessage_RejectsBadVersion(t *testing.T) {
	_, err := core.ParseLinkInfoMessage([]byte{1, 0, 0, 0}, core.Params{OffsetSize: 8, LengthSize: 8})
	require.Error(t, err)
}

func TestParseLinkInfoMessage_CompactStorage_FourByteOffsets(t *testing.T) {
	data := make([]byte, 2+4+4)
	data[0] = 0
	data[1] = 0
	binary.LittleEndian.PutUint32(data[2:6], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(data[6:10], 0xFFFFFFFF)

	lim, err := core.ParseLinkInfoMessage(data, core.Params{OffsetSize: 4, LengthSize: 4})
	require.NoError(t, err)
	require.False(t, lim.HasFractalHeap(), "0xFFFFFFFF is the absent sentinel for 4-byte offsets")
}
