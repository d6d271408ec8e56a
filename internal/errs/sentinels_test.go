package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"missing file", fmt.Errorf("%w: book b1 has no epub file", ErrMissingFile), "missing_file"},
		{"double wrapped", fmt.Errorf("download: %w", fmt.Errorf("%w: status 500", ErrTransferFailed)), "transfer_failed"},
		{"storage", fmt.Errorf("%w: open: %w", ErrStorageUnavailable, errors.New("disk full")), "storage_unavailable"},
		{"unknown", errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}
