package h5cloud

import (
	"github.com/pkg/errors"

	"github.com/scigolib/h5cloud/internal/chunked"
	"github.com/scigolib/h5cloud/internal/core"
)

// readDatasetBytes materializes rows [startRow, startRow+numRows) of a
// dataset's raw bytes, dispatching on its data layout class.
func readDatasetBytes(src core.Source, p core.Params, info *datasetInfo, dims []uint64, startRow, numRows, typeSize uint64) ([]byte, error) {
	rowElems := uint64(1)
	if len(dims) == 2 {
		rowElems = dims[1]
	}
	rowBytes := rowElems * typeSize

	switch {
	case info.layout.IsCompact():
		begin := startRow * rowBytes
		end := begin + numRows*rowBytes
		if end > uint64(len(info.layout.CompactData)) {
			return nil, classify(ErrBounds, errors.Errorf("compact data (%d bytes) too short for requested range [%d, %d)", len(info.layout.CompactData), begin, end))
		}
		return append([]byte(nil), info.layout.CompactData[begin:end]...), nil

	case info.layout.IsContiguous():
		offset := info.layout.DataAddress + startRow*rowBytes
		length := numRows * rowBytes
		data, err := src.IORequest(offset, length)
		if err != nil {
			return nil, classify(ErrIO, errors.Wrap(err, "contiguous dataset read failed"))
		}
		return data, nil

	case info.layout.IsChunked():
		chunkDims := trimElementSizeDim(info.layout.ChunkSize)
		if len(chunkDims) != len(dims) {
			return nil, classify(ErrFormat, errors.Errorf("chunk dimensionality %d does not match dataspace rank %d", len(chunkDims), len(dims)))
		}
		plan := chunked.Plan{
			Dimensions:   dims,
			ChunkDims:    chunkDims,
			TypeSize:     typeSize,
			BTreeAddress: info.layout.DataAddress,
			Filters:      info.filters,
		}
		data, err := chunked.ReadRowRange(src, p, plan, startRow, numRows, info.fillValue)
		if err != nil {
			return nil, classify(ErrDecompression, errors.Wrap(err, "chunked dataset read failed"))
		}
		return data, nil

	default:
		return nil, classify(ErrUnsupported, errors.New("unsupported data layout class"))
	}
}

// trimElementSizeDim drops the trailing element-size "dimension" HDF5
// appends to a chunk layout's dimension list (redundant with the
// datatype's own size).
func trimElementSizeDim(chunkSize []uint64) []uint64 {
	if len(chunkSize) == 0 {
		return chunkSize
	}
	return chunkSize[:len(chunkSize)-1]
}
