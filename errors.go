package h5cloud

import "github.com/pkg/errors"

// Sentinel errors for the five fatal-error buckets spec.md §7 defines.
// Every decode failure is wrapped with one of these via errors.Wrap so
// callers can classify failures with errors.Is, generalizing the
// teacher's own internal/utils.H5Error/WrapError to a stack-trace-
// carrying, ecosystem error type.
var (
	// ErrFormat covers invalid signatures, unsupported versions, and
	// malformed lengths.
	ErrFormat = errors.New("h5cloud: format error")

	// ErrUnsupported covers recognized-but-unimplemented features: other
	// datatypes, filters other than DEFLATE/SHUFFLE, soft/external
	// links, rank > 2 dataspaces, dense group storage the fractal-heap
	// link scan cannot read.
	ErrUnsupported = errors.New("h5cloud: unsupported feature")

	// ErrBounds covers out-of-range row requests and stored-size
	// mismatches.
	ErrBounds = errors.New("h5cloud: bounds error")

	// ErrDecompression covers inflate failures and shuffle size
	// mismatches.
	ErrDecompression = errors.New("h5cloud: decompression error")

	// ErrIO covers driver failures and short reads.
	ErrIO = errors.New("h5cloud: I/O error")
)

// classifiedError pairs a stack-tracing pkg/errors chain with one of the
// bucket sentinels above, so callers can both errors.Is(err, ErrFormat)
// and print a full cause chain.
type classifiedError struct {
	bucket error
	cause  error
}

func (c *classifiedError) Error() string { return c.cause.Error() }
func (c *classifiedError) Unwrap() error { return c.cause }
func (c *classifiedError) Is(target error) bool { return target == c.bucket }

func classify(bucket error, cause error) error {
	if cause == nil {
		return nil
	}
	return &classifiedError{bucket: bucket, cause: cause}
}

