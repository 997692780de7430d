package driverhttp_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/h5cloud/driverhttp"
)

func TestRangeDriver_Read(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "bytes=3-6", r.Header.Get("Range"))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("3456"))
	}))
	defer srv.Close()

	d := driverhttp.New(srv.URL, nil)
	got, err := d.Read(3, 4)
	require.NoError(t, err)
	require.Equal(t, []byte("3456"), got)
}

func TestRangeDriver_Read_RejectsShortResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("ab"))
	}))
	defer srv.Close()

	d := driverhttp.New(srv.URL, nil)
	_, err := d.Read(0, 4)
	require.Error(t, err)
}

func TestRangeDriver_Read_RejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := driverhttp.New(srv.URL, nil)
	_, err := d.Read(0, 4)
	require.Error(t, err)
}
