// Package testutil provides byte-buffer test fixtures for exercising the
// decoder without a real file or network backend.
package testutil

import "github.com/pkg/errors"

// BufferDriver implements cache.Driver over an in-memory byte slice,
// letting tests build synthetic HDF5 byte layouts and drive the decoder
// against them directly.
type BufferDriver struct {
	data []byte
}

// NewBufferDriver wraps data as a cache.Driver.
func NewBufferDriver(data []byte) *BufferDriver {
	return &BufferDriver{data: data}
}

// Read returns length bytes starting at offset.
func (d *BufferDriver) Read(offset, length uint64) ([]byte, error) {
	if offset > uint64(len(d.data)) {
		return nil, errors.Errorf("offset %d beyond buffer length %d", offset, len(d.data))
	}
	end := offset + length
	if end > uint64(len(d.data)) {
		return nil, errors.Errorf("range [%d, %d) beyond buffer length %d", offset, end, len(d.data))
	}
	return d.data[offset:end], nil
}
