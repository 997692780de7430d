package filter_test

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/h5cloud/internal/filter"
)

func TestInflate_RoundTrip(t *testing.T) {
	want := bytes.Repeat([]byte("the quick brown fox "), 50)

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(want)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, err := filter.Inflate(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestInflate_RejectsGarbage(t *testing.T) {
	_, err := filter.Inflate([]byte{0x00, 0x01, 0x02, 0x03})
	require.Error(t, err)
}
