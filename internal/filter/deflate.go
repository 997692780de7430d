// Package filter applies HDF5's read-path filter pipeline (DEFLATE and
// shuffle) to chunk bytes fetched off the wire.
package filter

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
)

// Inflate reverses the DEFLATE filter (HDF5 filter ID 1). HDF5 stores
// chunks compressed with zlib framing, not raw deflate or gzip.
func Inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "zlib reader creation failed")
	}
	defer func() { _ = r.Close() }()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "zlib decompression failed")
	}
	return out, nil
}
