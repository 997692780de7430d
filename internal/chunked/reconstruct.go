// Package chunked reconstructs row ranges of a chunked HDF5 dataset:
// it descends the chunk B-tree (component H), fetches only the chunks
// that overlap the requested rows, and scatters their (optionally
// filtered) bytes into the output buffer row by row. Only rank 1-2
// datasets are supported (see handle.go).
package chunked

import (
	"github.com/pkg/errors"

	"github.com/scigolib/h5cloud/internal/core"
	"github.com/scigolib/h5cloud/internal/filter"
)

// Plan describes everything needed to reconstruct a row range of one
// chunked dataset.
type Plan struct {
	Dimensions   []uint64 // full dataset extent, outer to inner
	ChunkDims    []uint64 // chunk extent, same rank as Dimensions
	TypeSize     uint64
	BTreeAddress uint64
	Filters      *core.FilterPipelineMessage // nil if the dataset has none
}

// hasFilter reports whether id appears in the pipeline.
func (p *Plan) hasFilter(id core.FilterID) bool {
	if p.Filters == nil {
		return false
	}
	for _, f := range p.Filters.Filters {
		if f.ID == id {
			return true
		}
	}
	return false
}

func rowSize(dims []uint64, typeSize uint64) (uint64, error) {
	size, err := core.ProductOf(dims[1:])
	if err != nil {
		return 0, err
	}
	return core.SafeMultiply(size, typeSize)
}

func chunkBufSize(chunkDims []uint64, typeSize uint64) (uint64, error) {
	size, err := core.ProductOf(chunkDims)
	if err != nil {
		return 0, err
	}
	return core.SafeMultiply(size, typeSize)
}

// chunkRowLayout reports how many rows a chunk spans and how many bytes
// one of the chunk's own rows occupies, both in the chunk's internal
// (uncompressed) byte layout.
func chunkRowLayout(chunkDims []uint64, typeSize uint64) (rows, rowBytes uint64, err error) {
	rows = chunkDims[0]
	size, err := core.ProductOf(chunkDims[1:])
	if err != nil {
		return 0, 0, err
	}
	rowBytes, err = core.SafeMultiply(size, typeSize)
	return rows, rowBytes, err
}

// ReadRowRange reads dataset rows [rowStart, rowStart+numRows) of a
// chunked dataset, applying fillValue to any bytes not covered by a
// stored chunk.
func ReadRowRange(src core.Source, p core.Params, plan Plan, rowStart, numRows uint64, fillValue []byte) ([]byte, error) {
	if len(plan.Dimensions) == 0 || len(plan.ChunkDims) != len(plan.Dimensions) {
		return nil, errors.New("chunked plan: dimensions/chunk dims rank mismatch")
	}

	rSize, err := rowSize(plan.Dimensions, plan.TypeSize)
	if err != nil {
		return nil, errors.Wrap(err, "row size computation failed")
	}
	bufSize, err := core.SafeMultiply(numRows, rSize)
	if err != nil {
		return nil, errors.Wrap(err, "output buffer size computation failed")
	}
	buffer := make([]byte, bufSize)
	applyFillValue(buffer, fillValue)

	rowEnd := rowStart + numRows
	keys, err := core.CollectChunksInRowRange(src, plan.BTreeAddress, p, len(plan.ChunkDims), rowStart, rowEnd, plan.ChunkDims[0])
	if err != nil {
		return nil, errors.Wrap(err, "chunk btree descent failed")
	}

	chunkBuf, err := chunkBufSize(plan.ChunkDims, plan.TypeSize)
	if err != nil {
		return nil, errors.Wrap(err, "chunk buffer size computation failed")
	}

	for _, k := range keys {
		if err := placeChunk(src, plan, k, rowStart, numRows, rSize, chunkBuf, buffer); err != nil {
			return nil, err
		}
	}

	return buffer, nil
}

func applyFillValue(buffer, fillValue []byte) {
	if len(fillValue) == 0 {
		return
	}
	for i := 0; i < len(buffer); i += len(fillValue) {
		copy(buffer[i:], fillValue)
	}
}

// placeChunk fetches one chunk (inflating/unshuffling as needed) and
// scatters its rows into buffer. A chunk is copied row by row, not as one
// contiguous block, because its column extent may be narrower than the
// dataset's: two chunks covering different column ranges of the same
// dataset rows must interleave at the dataset's row stride, not the
// chunk's own.
func placeChunk(src core.Source, plan Plan, k core.ChunkKey, rowStart, numRows, rSize, chunkBufSize uint64, buffer []byte) error {
	decoded, err := fetchChunkBytes(src, plan, k, chunkBufSize)
	if err != nil {
		return err
	}

	chunkRows, chunkRowBytes, err := chunkRowLayout(plan.ChunkDims, plan.TypeSize)
	if err != nil {
		return errors.Wrap(err, "chunk row layout computation failed")
	}

	var colOffset uint64
	if len(k.Origin) > 1 {
		colOffset, err = core.SafeMultiply(k.Origin[1], plan.TypeSize)
		if err != nil {
			return errors.Wrap(err, "chunk column offset computation failed")
		}
	}

	copyWidth := chunkRowBytes
	if colOffset >= rSize {
		return nil // chunk lies entirely past the dataset's true width
	}
	if colOffset+copyWidth > rSize {
		copyWidth = rSize - colOffset
	}

	rowEnd := rowStart + numRows
	for cr := uint64(0); cr < chunkRows; cr++ {
		absRow := k.Origin[0] + cr
		if absRow < rowStart || absRow >= rowEnd {
			continue
		}
		dstOffset := (absRow-rowStart)*rSize + colOffset
		srcOffset := cr * chunkRowBytes
		if srcOffset+copyWidth > uint64(len(decoded)) || dstOffset+copyWidth > uint64(len(buffer)) {
			continue
		}
		copy(buffer[dstOffset:dstOffset+copyWidth], decoded[srcOffset:srcOffset+copyWidth])
	}
	return nil
}

// fetchChunkBytes reads one chunk's stored bytes and reverses its filter
// pipeline, returning the chunk's full uncompressed byte layout (chunkRows
// rows of chunkRowBytes each, per chunkRowLayout).
func fetchChunkBytes(src core.Source, plan Plan, k core.ChunkKey, chunkBufSize uint64) ([]byte, error) {
	hasDeflate := plan.hasFilter(core.FilterDeflate)
	hasShuffle := plan.hasFilter(core.FilterShuffle)

	switch {
	case !hasDeflate && !hasShuffle:
		if uint64(k.Nbytes) != chunkBufSize {
			return nil, errors.Errorf("unfiltered chunk size %d does not match chunk buffer size %d", k.Nbytes, chunkBufSize)
		}
		raw, err := src.IORequest(k.Address, chunkBufSize)
		if err != nil {
			return nil, errors.Wrap(err, "unfiltered chunk read failed")
		}
		return raw, nil

	case hasDeflate && !hasShuffle:
		stored, err := src.IORequest(k.Address, uint64(k.Nbytes))
		if err != nil {
			return nil, errors.Wrap(err, "deflated chunk read failed")
		}
		inflated, err := filter.Inflate(stored)
		if err != nil {
			return nil, errors.Wrap(err, "chunk inflate failed")
		}
		if uint64(len(inflated)) != chunkBufSize {
			return nil, errors.Errorf("inflated chunk size %d does not match chunk buffer size %d", len(inflated), chunkBufSize)
		}
		return inflated, nil

	case hasDeflate && hasShuffle:
		stored, err := src.IORequest(k.Address, uint64(k.Nbytes))
		if err != nil {
			return nil, errors.Wrap(err, "deflated+shuffled chunk read failed")
		}
		inflated, err := filter.Inflate(stored)
		if err != nil {
			return nil, errors.Wrap(err, "chunk inflate failed")
		}
		unshuffled, err := filter.Unshuffle(inflated, uint32(plan.TypeSize))
		if err != nil {
			return nil, errors.Wrap(err, "chunk unshuffle failed")
		}
		if uint64(len(unshuffled)) != chunkBufSize {
			return nil, errors.Errorf("unshuffled chunk size %d does not match chunk buffer size %d", len(unshuffled), chunkBufSize)
		}
		return unshuffled, nil

	default: // shuffle without deflate
		return nil, errors.New("SHUFFLE filter without DEFLATE is not supported")
	}
}
