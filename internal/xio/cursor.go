// Package xio implements component D: a position-tracking cursor over the
// byte-range cache, plus the little-endian primitive decoders every other
// component in this decoder builds on.
package xio

import "github.com/pkg/errors"

// Source is the subset of *cache.Cache the cursor needs. Declared locally
// to keep xio free of a dependency on the cache package's concrete type,
// mirroring the same "small structural interface" trick used for Driver.
type Source interface {
	IORequest(pos, size uint64) ([]byte, error)
}

// Cursor tracks a read position over a Source. All multi-byte fields in
// the HDF5 format are little-endian unsigned integers of a per-field
// width, which ReadField decodes directly.
type Cursor struct {
	src Source
	pos uint64
}

// NewCursor creates a cursor positioned at pos.
func NewCursor(src Source, pos uint64) *Cursor {
	return &Cursor{src: src, pos: pos}
}

// Pos returns the current cursor position.
func (c *Cursor) Pos() uint64 { return c.pos }

// SeekTo repositions the cursor without reading.
func (c *Cursor) SeekTo(pos uint64) { c.pos = pos }

// Advance moves the cursor forward by n bytes without reading them.
func (c *Cursor) Advance(n uint64) { c.pos += n }

// ReadField reads a little-endian unsigned integer of width w in
// {1,2,4,8} bytes, advancing the cursor by w.
func (c *Cursor) ReadField(w uint8) (uint64, error) {
	switch w {
	case 1, 2, 4, 8:
	default:
		return 0, errors.Errorf("unsupported field width %d", w)
	}
	buf, err := c.src.IORequest(c.pos, uint64(w))
	if err != nil {
		return 0, errors.Wrapf(err, "read field of width %d at %#x", w, c.pos)
	}
	c.pos += uint64(w)
	return DecodeUint(buf, w), nil
}

// ReadArray reads n raw bytes, advancing the cursor by n.
func (c *Cursor) ReadArray(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.Errorf("negative array length %d", n)
	}
	if n == 0 {
		return nil, nil
	}
	buf, err := c.src.IORequest(c.pos, uint64(n))
	if err != nil {
		return nil, errors.Wrapf(err, "read array of %d bytes at %#x", n, c.pos)
	}
	c.pos += uint64(n)
	return buf, nil
}

// DecodeUint decodes a little-endian unsigned integer of width w from buf.
func DecodeUint(buf []byte, w uint8) uint64 {
	var v uint64
	for i := int(w) - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v
}

// Invalid returns the sentinel value for a field of width w bytes: 2^(8w)-1.
// A field equal to this sentinel means "absent/null" per spec §3.
func Invalid(w uint8) uint64 {
	if w >= 8 {
		return ^uint64(0)
	}
	return (uint64(1) << (8 * w)) - 1
}
