package h5cloud

// Config carries the handful of file-global knobs spec.md §6 names, plus
// the concurrency cap from §5. Shared mutable globals in the teacher's
// model (error-checking flags, verbosity, cache sizing) are promoted here
// into one explicit value threaded through Open and its workers.
type Config struct {
	// ErrorChecking validates signatures/versions while decoding. When
	// false, validation is skipped and offsets are trusted as correct —
	// used for speed against known-good files.
	ErrorChecking bool

	// Verbose gates internal/xlog diagnostic output.
	Verbose bool

	// CacheLineSize overrides internal/cache's default line size (0 means
	// use cache.DefaultLineSize).
	CacheLineSize uint

	// MaxConcurrentDatasets bounds the number of dataset workers running
	// at once; 0 means auto (one per requested dataset, uncapped).
	MaxConcurrentDatasets int
}
