package core_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/h5cloud/internal/core"
)

func TestParseLinkMessage_HardLink(t *testing.T) {
	var data []byte
	data = append(data, 1, 0) // version 1, flags: no optional fields, 1-byte name length
	data = append(data, 5)    // name length
	data = append(data, []byte("hello")...)
	addr := make([]byte, 8)
	binary.LittleEndian.PutUint64(addr, 0x1234)
	data = append(data, addr...)

	lm, err := core.ParseLinkMessage(data, core.Params{OffsetSize: 8, LengthSize: 8})
	require.NoError(t, err)
	require.Equal(t, core.LinkTypeHard, lm.Type)
	require.Equal(t, "hello", lm.Name)
	require.Equal(t, uint64(0x1234), lm.TargetAddress())
}

func TestParseLinkMessage_SoftLink(t *testing.T) {
	var data []byte
	data = append(data, 1, 0x08) // flags: link type field present
	data = append(data, byte(core.LinkTypeSoft))
	data = append(data, 4) // name length
	data = append(data, []byte("link")...)
	target := "/a/b"
	lenBuf := make([]byte, 2)
	binary.LittleEndian.PutUint16(lenBuf, uint16(len(target)))
	data = append(data, lenBuf...)
	data = append(data, []byte(target)...)

	lm, err := core.ParseLinkMessage(data, core.Params{OffsetSize: 8, LengthSize: 8})
	require.NoError(t, err)
	require.Equal(t, core.LinkTypeSoft, lm.Type)
	target2, err := lm.SoftTarget()
	require.NoError(t, err)
	require.Equal(t, "/a/b", target2)
}

func TestParseLinkMessageWithLength_HardLink_ReportsExactLength(t *testing.T) {
	var data []byte
	data = append(data, 1, 0) // version 1, flags: no optional fields, 1-byte name length
	data = append(data, 5)    // name length
	data = append(data, []byte("hello")...)
	addr := make([]byte, 8)
	binary.LittleEndian.PutUint64(addr, 0x1234)
	data = append(data, addr...)
	trailer := []byte{0xAA, 0xBB, 0xCC} // bytes belonging to the next packed message
	data = append(data, trailer...)

	lm, consumed, err := core.ParseLinkMessageWithLength(data, core.Params{OffsetSize: 8, LengthSize: 8})
	require.NoError(t, err)
	require.Equal(t, len(data)-len(trailer), consumed)
	require.Equal(t, "hello", lm.Name)
	require.Equal(t, uint64(0x1234), lm.TargetAddress())
}

func TestParseLinkMessageWithLength_SoftLink_StopsAtValueLength(t *testing.T) {
	var data []byte
	data = append(data, 1, 0x08) // flags: link type field present
	data = append(data, byte(core.LinkTypeSoft))
	data = append(data, 4) // name length
	data = append(data, []byte("link")...)
	target := "/a/b"
	lenBuf := make([]byte, 2)
	binary.LittleEndian.PutUint16(lenBuf, uint16(len(target)))
	data = append(data, lenBuf...)
	data = append(data, []byte(target)...)
	trailer := []byte{0x01, 0x00, 0x02, 'h', 'i'} // a packed next message
	data = append(data, trailer...)

	lm, consumed, err := core.ParseLinkMessageWithLength(data, core.Params{OffsetSize: 8, LengthSize: 8})
	require.NoError(t, err)
	require.Equal(t, len(data)-len(trailer), consumed)
	target2, err := lm.SoftTarget()
	require.NoError(t, err)
	require.Equal(t, "/a/b", target2)
}

func TestParseLinkMessage_RejectsBadVersion(t *testing.T) {
	_, err := core.ParseLinkMessage([]byte{2, 0}, core.Params{OffsetSize: 8, LengthSize: 8})
	require.Error(t, err)
}
