// Package xlog is a minimal leveled logger gated by Config.Verbose: a
// standard-library wrapper, not a third-party dependency, because none of
// the example repos pull in a logging library for this purpose either.
package xlog

import (
	"log"
	"os"
)

// Logger writes verbose-only diagnostic lines; when disabled every call
// is a no-op.
type Logger struct {
	verbose bool
	std     *log.Logger
}

// New creates a Logger. When verbose is false, Printf/CacheEvent are no-ops.
func New(verbose bool) *Logger {
	return &Logger{
		verbose: verbose,
		std:     log.New(os.Stderr, "h5cloud: ", log.LstdFlags),
	}
}

// Printf logs a formatted line when verbose logging is enabled.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || !l.verbose {
		return
	}
	l.std.Printf(format, args...)
}

// CacheEvent logs one cache hit or miss for the given offset and size.
func (l *Logger) CacheEvent(hit bool, offset, size uint64) {
	if l == nil || !l.verbose {
		return
	}
	status := "miss"
	if hit {
		status = "hit"
	}
	l.std.Printf("cache %s offset=%#x size=%d", status, offset, size)
}
