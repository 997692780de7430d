package core_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/h5cloud/internal/core"
)

func TestSafeMultiply(t *testing.T) {
	v, err := core.SafeMultiply(6, 7)
	require.NoError(t, err)
	require.Equal(t, uint64(42), v)

	v, err = core.SafeMultiply(0, math.MaxUint64)
	require.NoError(t, err)
	require.Equal(t, uint64(0), v)

	_, err = core.SafeMultiply(math.MaxUint64, 2)
	require.Error(t, err)
}

func TestProductOf(t *testing.T) {
	v, err := core.ProductOf([]uint64{2, 3, 4})
	require.NoError(t, err)
	require.Equal(t, uint64(24), v)

	v, err = core.ProductOf(nil)
	require.NoError(t, err)
	require.Equal(t, uint64(1), v)

	_, err = core.ProductOf([]uint64{math.MaxUint64, 2})
	require.Error(t, err)
}
