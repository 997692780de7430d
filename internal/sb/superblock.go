// Package sb implements component C: detection of the HDF5 signature and
// superblock version, and extraction of the handful of file-global
// parameters every other component needs.
package sb

import (
	"github.com/pkg/errors"

	"github.com/scigolib/h5cloud/internal/xio"
)

// Signature is the 8-byte HDF5 file signature.
const Signature = "\x89HDF\r\n\x1a\n"

const (
	versionV0 = 0
	versionV2 = 2
)

// Superblock holds the file-global parameters populated once at open time
// and shared read-only by every worker thereafter.
type Superblock struct {
	Version     uint8
	OffsetSize  uint8
	LengthSize  uint8
	BaseAddress uint64
	RootAddress uint64
}

// Source is the minimal cache contract the superblock reader needs.
type Source interface {
	IORequest(pos, size uint64) ([]byte, error)
}

// Read reads and parses the superblock at file offset 0. Only versions 0
// and 2 are supported; anything else is a format error. cfg.ErrorChecking
// gates the signature/version validation so trusted files can skip it.
func Read(src Source, errorChecking bool) (*Superblock, error) {
	buf, err := src.IORequest(0, 9)
	if err != nil {
		return nil, errors.Wrap(err, "superblock prefix read failed")
	}

	if errorChecking && string(buf[0:8]) != Signature {
		return nil, errors.Errorf("invalid HDF5 signature: % x", buf[0:8])
	}
	version := buf[8]
	if errorChecking && version != versionV0 && version != versionV2 {
		return nil, errors.Errorf("unsupported superblock version: %d", version)
	}

	switch version {
	case versionV0:
		return readV0(src, errorChecking)
	default:
		return readV2(src, errorChecking)
	}
}

// readV0 parses the HDF5 v0 superblock per spec §4.2.
func readV0(src Source, errorChecking bool) (*Superblock, error) {
	head, err := src.IORequest(0, 24)
	if err != nil {
		return nil, errors.Wrap(err, "superblock v0 head read failed")
	}
	if errorChecking {
		if head[9] != 0 {
			return nil, errors.Errorf("unsupported free-space version: %d", head[9])
		}
		if head[10] != 0 {
			return nil, errors.Errorf("unsupported root-table version: %d", head[10])
		}
	}
	offsetSize := head[13]
	lengthSize := head[14]

	cur := xio.NewCursor(src, 24)
	baseAddress, err := cur.ReadField(offsetSize)
	if err != nil {
		return nil, errors.Wrap(err, "superblock v0 base address read failed")
	}

	cur.SeekTo(24 + 5*uint64(offsetSize))
	rootGroupOffset, err := cur.ReadField(offsetSize)
	if err != nil {
		return nil, errors.Wrap(err, "superblock v0 root group offset read failed")
	}

	return &Superblock{
		Version:     versionV0,
		OffsetSize:  offsetSize,
		LengthSize:  lengthSize,
		BaseAddress: baseAddress,
		RootAddress: rootGroupOffset,
	}, nil
}

// readV2 parses the HDF5 v2 superblock per spec §4.2.
func readV2(src Source, errorChecking bool) (*Superblock, error) {
	head, err := src.IORequest(0, 12)
	if err != nil {
		return nil, errors.Wrap(err, "superblock v2 head read failed")
	}
	offsetSize := head[9]
	lengthSize := head[10]
	if errorChecking {
		switch offsetSize {
		case 1, 2, 4, 8:
		default:
			return nil, errors.Errorf("invalid offset size: %d", offsetSize)
		}
		switch lengthSize {
		case 1, 2, 4, 8:
		default:
			return nil, errors.Errorf("invalid length size: %d", lengthSize)
		}
	}

	cur := xio.NewCursor(src, 12)
	baseAddress, err := cur.ReadField(offsetSize)
	if err != nil {
		return nil, errors.Wrap(err, "superblock v2 base address read failed")
	}

	cur.SeekTo(12 + 3*uint64(offsetSize))
	rootGroupOffset, err := cur.ReadField(offsetSize)
	if err != nil {
		return nil, errors.Wrap(err, "superblock v2 root group offset read failed")
	}

	return &Superblock{
		Version:     versionV2,
		OffsetSize:  offsetSize,
		LengthSize:  lengthSize,
		BaseAddress: baseAddress,
		RootAddress: rootGroupOffset,
	}, nil
}
