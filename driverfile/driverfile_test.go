package driverfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/h5cloud/driverfile"
)

func TestLocalFileDriver_Read(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o600))

	d, err := driverfile.Open(path)
	require.NoError(t, err)
	defer d.Close()

	got, err := d.Read(3, 4)
	require.NoError(t, err)
	require.Equal(t, []byte("3456"), got)
}

func TestLocalFileDriver_Open_RejectsMissingFile(t *testing.T) {
	_, err := driverfile.Open(filepath.Join(t.TempDir(), "nope.bin"))
	require.Error(t, err)
}
