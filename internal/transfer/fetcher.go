// Package transfer moves remote files to durable local storage.
//
// A file is streamed into a temporary sibling of its destination and renamed
// into place only after the whole body arrived, so the destination path
// either holds a complete file or nothing.
package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/khaleelElias/YA/internal/errs"
)

// TempSuffix marks in-flight files. Leftovers from a crashed process carry it.
const TempSuffix = ".part"

// Result describes a finished transfer.
type Result struct {
	Status int
	Bytes  int64
}

// Fetcher downloads url to dest.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) (Result, error)
}

// HTTPFetcher fetches files over HTTP.
type HTTPFetcher struct {
	httpClient *http.Client
	userAgent  string
}

// NewHTTPFetcher creates a fetcher whose requests time out after timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "YazidiLibrary/1.0",
	}
}

// Fetch downloads url into dest. Any non-200 response, network error or
// timeout returns an error wrapping errs.ErrTransferFailed and leaves dest
// untouched.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, dest string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: build request: %w", errs.ErrTransferFailed, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", errs.ErrTransferFailed, err)
	}
	defer resp.Body.Close()

	res := Result{Status: resp.StatusCode}
	if resp.StatusCode != http.StatusOK {
		return res, fmt.Errorf("%w: status %d", errs.ErrTransferFailed, resp.StatusCode)
	}

	n, err := writeAtomic(dest, resp.Body)
	res.Bytes = n
	if err != nil {
		return res, fmt.Errorf("%w: %w", errs.ErrTransferFailed, err)
	}
	return res, nil
}

// writeAtomic streams r into a temp file next to dest, syncs it and renames it
// over dest.
func writeAtomic(dest string, r io.Reader) (int64, error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*"+TempSuffix)
	if err != nil {
		return 0, err
	}
	tmpPath := tmpFile.Name()
	renamed := false
	defer func() {
		tmpFile.Close()
		if !renamed {
			os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmpFile, r)
	if err != nil {
		return n, err
	}
	if err := tmpFile.Sync(); err != nil {
		return n, err
	}
	if err := tmpFile.Close(); err != nil {
		return n, err
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return n, err
	}
	renamed = true
	return n, nil
}
