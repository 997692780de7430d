package core_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/h5cloud/internal/core"
)

func TestSplitPath(t *testing.T) {
	cases := []struct {
		path string
		want []string
	}{
		{"/", nil},
		{"", nil},
		{"/group1/dataset1", []string{"group1", "dataset1"}},
		{"group1/dataset1", []string{"group1", "dataset1"}},
		{"//group1//dataset1//", []string{"group1", "dataset1"}},
		{"dataset1", []string{"dataset1"}},
	}
	for _, c := range cases {
		got := core.SplitPath(c.path)
		if len(c.want) == 0 {
			require.Empty(t, got, "path %q", c.path)
			continue
		}
		require.Equal(t, c.want, got, "path %q", c.path)
	}
}
