// Package driverhttp is a thin reference Driver implementation issuing
// HTTP Range-GET requests, grounded in the "one Read(offset, length) per
// logical range" pattern used by blob-store range readers. No retry or
// backoff policy lives here: spec.md §5 delegates that entirely to the
// driver, and this reference driver is not that policy layer.
package driverhttp

import (
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// RangeDriver issues Range: GET requests against a single URL.
type RangeDriver struct {
	url    string
	client *http.Client
}

// New creates a RangeDriver for url using client, or http.DefaultClient
// if client is nil.
func New(url string, client *http.Client) *RangeDriver {
	if client == nil {
		client = http.DefaultClient
	}
	return &RangeDriver{url: url, client: client}
}

// Read issues one Range-GET request for [offset, offset+length).
func (d *RangeDriver) Read(offset, length uint64) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, d.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "range request creation failed")
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "range request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status for range request: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "range response read failed")
	}
	if uint64(len(data)) != length {
		return nil, errors.Errorf("short range response: wanted %d bytes, got %d", length, len(data))
	}
	return data, nil
}
