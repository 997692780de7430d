// Package driverfile is a thin reference Driver implementation backed by
// a local file, wrapping *os.File.ReadAt. Not part of the core decoder —
// spec.md keeps storage drivers out of scope, described only by their
// interface.
package driverfile

import (
	"os"

	"github.com/pkg/errors"
)

// LocalFileDriver reads byte ranges from an *os.File.
type LocalFileDriver struct {
	f *os.File
}

// Open opens path for reading and wraps it as a Driver.
func Open(path string) (*LocalFileDriver, error) {
	//nolint:gosec // G304: caller-provided path is the whole point of a file driver
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open failed")
	}
	return &LocalFileDriver{f: f}, nil
}

// Read returns length bytes starting at offset.
func (d *LocalFileDriver) Read(offset, length uint64) ([]byte, error) {
	buf := make([]byte, length)
	n, err := d.f.ReadAt(buf, int64(offset))
	if err != nil {
		return nil, errors.Wrapf(err, "read failed at offset %#x length %d", offset, length)
	}
	return buf[:n], nil
}

// Close closes the underlying file.
func (d *LocalFileDriver) Close() error {
	return d.f.Close()
}
