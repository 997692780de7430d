package testutil

// BufferSource adapts a byte slice directly to core.Source, bypassing the
// cache for tests that exercise one parser in isolation.
type BufferSource struct {
	driver *BufferDriver
}

// NewBufferSource wraps data as a core.Source.
func NewBufferSource(data []byte) *BufferSource {
	return &BufferSource{driver: NewBufferDriver(data)}
}

// IORequest implements core.Source.
func (s *BufferSource) IORequest(pos, size uint64) ([]byte, error) {
	return s.driver.Read(pos, size)
}
