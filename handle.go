// Package h5cloud is a cloud-optimized reader for the HDF5 hierarchical
// binary file format: given a byte-range driver and a set of dataset
// paths, it walks the on-disk object-header graph and materializes the
// requested arrays and attributes without loading a full HDF5 runtime.
package h5cloud

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/scigolib/h5cloud/internal/cache"
	"github.com/scigolib/h5cloud/internal/core"
	"github.com/scigolib/h5cloud/internal/sb"
	"github.com/scigolib/h5cloud/internal/xlog"
)

// Handle is an open HDF5 resource (component I, the request coordinator):
// it owns the shared superblock fields, the byte-range cache, and the
// driver, and dispatches one worker per requested dataset.
type Handle struct {
	cache       *cache.Cache
	superblock  *sb.Superblock
	params      core.Params
	rootAddress uint64
	cfg         Config
	log         *xlog.Logger
}

// Open reads the superblock over driver and returns a Handle ready to
// serve dataset/attribute/listing requests.
func Open(driver Driver, cfg Config) (*Handle, error) {
	lineSize := uint64(cfg.CacheLineSize)
	if lineSize == 0 {
		lineSize = cache.DefaultLineSize
	}

	c, err := cache.New(driver, lineSize)
	if err != nil {
		return nil, classify(ErrFormat, errors.Wrap(err, "cache creation failed"))
	}

	block, err := sb.Read(c, cfg.ErrorChecking)
	if err != nil {
		return nil, classify(ErrFormat, errors.Wrap(err, "superblock read failed"))
	}
	c.SetBaseAddress(block.BaseAddress)

	return &Handle{
		cache:       c,
		superblock:  block,
		params:      core.Params{OffsetSize: block.OffsetSize, LengthSize: block.LengthSize},
		rootAddress: block.RootAddress,
		cfg:         cfg,
		log:         xlog.New(cfg.Verbose),
	}, nil
}

// OpenWithFactory builds a Driver via factory before opening, for callers
// that only have a resource identifier and optional credentials.
func OpenWithFactory(resource string, factory DriverFactory, credentials any, cfg Config) (*Handle, error) {
	driver, err := factory(resource, credentials)
	if err != nil {
		return nil, classify(ErrIO, errors.Wrap(err, "driver factory failed"))
	}
	return Open(driver, cfg)
}

// SuperblockVersion returns the HDF5 superblock format version (0 or 2).
func (h *Handle) SuperblockVersion() uint8 { return h.superblock.Version }

// ReadRequest names one dataset to read and the row range wanted.
type ReadRequest struct {
	Path             string
	StartRow         uint64
	NumRows          uint64 // 0 means "all rows from StartRow"
	MetaOnly         bool
	EnableAttributes bool
}

// ReadDatasets resolves and reads every requested path, one worker per
// dataset, sharing the cache. A failure on one dataset is isolated to
// that dataset's result (spec.md §7); it does not abort the others.
func (h *Handle) ReadDatasets(ctx context.Context, requests []ReadRequest) (map[string]*DatasetResult, error) {
	results := make(map[string]*DatasetResult, len(requests))
	var mu sync.Mutex

	cap64 := h.cfg.MaxConcurrentDatasets
	if cap64 <= 0 {
		cap64 = len(requests)
	}
	if cap64 <= 0 {
		cap64 = 1
	}
	sem := semaphore.NewWeighted(int64(cap64))

	g, gctx := errgroup.WithContext(ctx)
	for _, req := range requests {
		req := req
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err // context cancellation surfaces via the group's Wait
			}
			defer sem.Release(1)

			res := h.readOneDataset(req)
			mu.Lock()
			results[req.Path] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (h *Handle) readOneDataset(req ReadRequest) *DatasetResult {
	res := &DatasetResult{Path: req.Path}

	obj, err := resolvePath(h.cache, h.params, h.rootAddress, req.Path)
	if err != nil {
		res.Err = err
		return res
	}

	info, err := extractDatasetInfo(obj, h.params)
	if err != nil {
		res.Err = err
		return res
	}
	if info.dataspace == nil || info.datatype == nil || info.layout == nil {
		res.Err = classify(ErrFormat, errors.Errorf("dataset %q is missing dataspace/datatype/layout messages", req.Path))
		return res
	}
	if len(info.dataspace.Dimensions) > 2 {
		res.Err = classify(ErrUnsupported, errors.Errorf("dataset %q has rank %d, only rank <= 2 is supported", req.Path, len(info.dataspace.Dimensions)))
		return res
	}

	res.TypeSize = uint64(info.datatype.Size)
	res.Datatype = classifyDatatype(info.datatype)
	if res.Datatype == DatatypeUnknown {
		res.Err = classify(ErrUnsupported, errors.Errorf("dataset %q has unsupported datatype class %d, only fixed-point/float/string are supported", req.Path, info.datatype.Class))
		return res
	}
	if info.filters != nil {
		for _, f := range info.filters.Filters {
			if f.ID != core.FilterDeflate && f.ID != core.FilterShuffle && !f.IsOptional() {
				res.Err = classify(ErrUnsupported, errors.Errorf("dataset %q uses filter %d, only DEFLATE/SHUFFLE are supported", req.Path, f.ID))
				return res
			}
		}
	}

	dims := info.dataspace.Dimensions
	if len(dims) == 0 {
		dims = []uint64{1}
	}
	colCount := uint64(1)
	if len(dims) == 2 {
		colCount = dims[1]
	}

	startRow := req.StartRow
	if startRow > dims[0] {
		res.Err = classify(ErrBounds, errors.Errorf("dataset %q: start_row (%d) exceeds dimension 0 (%d)", req.Path, startRow, dims[0]))
		return res
	}
	numRows := req.NumRows
	if numRows == 0 {
		numRows = dims[0] - startRow
	}
	if numRows > dims[0]-startRow {
		res.Err = classify(ErrBounds, errors.Errorf("dataset %q: start_row+num_rows (%d) exceeds dimension 0 (%d)", req.Path, startRow+numRows, dims[0]))
		return res
	}

	res.RowCount = numRows
	res.ColCount = colCount
	res.ElementCount = numRows * colCount

	if req.EnableAttributes {
		res.Attrs = attributesFromInfo(info)
	}

	if req.MetaOnly {
		return res
	}

	data, err := readDatasetBytes(h.cache, h.params, info, dims, startRow, numRows, res.TypeSize)
	if err != nil {
		res.Err = err
		return res
	}
	res.Data = data
	res.DataBytes = uint64(len(data))

	return res
}

func attributesFromInfo(info *datasetInfo) []AttributeResult {
	out := make([]AttributeResult, 0, len(info.attrs))
	for _, a := range info.attrs {
		out = append(out, AttributeResult{
			Name:     a.Name,
			Data:     a.Data,
			Datatype: classifyDatatype(a.Datatype),
			TypeSize: uint64(a.Datatype.Size),
		})
	}
	return out
}
