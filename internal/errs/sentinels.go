// Package errs contains sentinel errors shared by the local store, the
// download manager and the catalog facade.
//
// Errors are wrapped with fmt.Errorf("%w: ...") so the raw message can be
// shown to the user while callers still branch with errors.Is.
package errs

import "errors"

var (
	// ErrMissingFile indicates remote metadata lacks a usable file reference.
	ErrMissingFile = errors.New("missing file")

	// ErrAlreadyDownloaded indicates a local record already exists for the book.
	ErrAlreadyDownloaded = errors.New("already downloaded")

	// ErrNotFound indicates the requested local record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTransferFailed indicates a non-success status or a network failure
	// while fetching a remote file.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrStorageUnavailable indicates the local store could not be opened or migrated.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrQueryFailed indicates a remote catalog request failed.
	ErrQueryFailed = errors.New("query failed")

	// ErrInvalidArgument indicates a caller supplied malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
)

var kinds = []struct {
	err  error
	code string
}{
	{ErrMissingFile, "missing_file"},
	{ErrAlreadyDownloaded, "already_downloaded"},
	{ErrNotFound, "not_found"},
	{ErrTransferFailed, "transfer_failed"},
	{ErrStorageUnavailable, "storage_unavailable"},
	{ErrQueryFailed, "query_failed"},
	{ErrInvalidArgument, "invalid_argument"},
}

// Kind returns the stable machine-readable code for err, or "internal" when
// err does not wrap one of the sentinels.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.code
		}
	}
	return "internal"
}
