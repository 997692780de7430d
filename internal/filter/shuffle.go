package filter

import "github.com/pkg/errors"

// Unshuffle reverses the byte-shuffle filter (HDF5 filter ID 2), restoring
// element-major byte order from the byte-plane-major layout used on disk.
//
//	Shuffled: [a1 b1 c1][a2 b2 c2][a3 b3 c3][a4 b4 c4]
//	Restored: [a1 a2 a3 a4][b1 b2 b3 b4][c1 c2 c3 c4]
func Unshuffle(data []byte, elementSize uint32) ([]byte, error) {
	if elementSize <= 1 {
		return data, nil
	}
	dataLen := uint32(len(data))
	if dataLen == 0 {
		return data, nil
	}
	if dataLen%elementSize != 0 {
		return nil, errors.Errorf("shuffled data length %d not multiple of element size %d", dataLen, elementSize)
	}

	numElements := dataLen / elementSize
	out := make([]byte, dataLen)
	for byteIndex := uint32(0); byteIndex < elementSize; byteIndex++ {
		for elemIndex := uint32(0); elemIndex < numElements; elemIndex++ {
			srcIndex := byteIndex*numElements + elemIndex
			dstIndex := elemIndex*elementSize + byteIndex
			out[dstIndex] = data[srcIndex]
		}
	}
	return out, nil
}

// Shuffle applies the byte-shuffle transform, used only by tests to
// construct round-trip fixtures.
func Shuffle(data []byte, elementSize uint32) ([]byte, error) {
	if elementSize <= 1 {
		return data, nil
	}
	dataLen := uint32(len(data))
	if dataLen == 0 {
		return data, nil
	}
	if dataLen%elementSize != 0 {
		return nil, errors.Errorf("data length %d not multiple of element size %d", dataLen, elementSize)
	}

	numElements := dataLen / elementSize
	out := make([]byte, dataLen)
	for byteIndex := uint32(0); byteIndex < elementSize; byteIndex++ {
		for elemIndex := uint32(0); elemIndex < numElements; elemIndex++ {
			srcIndex := elemIndex*elementSize + byteIndex
			dstIndex := byteIndex*numElements + elemIndex
			out[dstIndex] = data[srcIndex]
		}
	}
	return out, nil
}
