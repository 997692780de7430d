package core

import "github.com/pkg/errors"

// SafeMultiply multiplies a and b, returning an error instead of silently
// wrapping on overflow. Dimension and chunk-size arithmetic throughout this
// decoder runs on values read from untrusted file bytes, so every product
// that feeds a buffer allocation or bounds check goes through here.
func SafeMultiply(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > MaxUint64/b {
		return 0, errors.Errorf("multiplication overflow: %d * %d exceeds uint64 range", a, b)
	}
	return a * b, nil
}

// MaxUint64 is the largest representable uint64, used instead of
// math.MaxUint64 so callers that only need this one constant don't pull
// in the math package for it.
const MaxUint64 = 1<<64 - 1

// ProductOf safely computes the product of dims, returning an error on
// overflow instead of wrapping silently.
func ProductOf(dims []uint64) (uint64, error) {
	product := uint64(1)
	for i, d := range dims {
		next, err := SafeMultiply(product, d)
		if err != nil {
			return 0, errors.Wrapf(err, "dimension product overflow at index %d", i)
		}
		product = next
	}
	return product, nil
}
