package downloads

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/transfer"
)

// CollectOrphans removes files under the books and covers directories that
// no local record references, including temp files left by interrupted
// transfers. It returns the removed paths.
func (m *Manager) CollectOrphans(ctx context.Context) ([]string, error) {
	m.files.Lock()
	defer m.files.Unlock()

	referenced, err := m.repos.Books.ReferencedPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("load referenced paths: %w", err)
	}
	known := make(map[string]struct{}, len(referenced))
	for p := range referenced {
		known[absPath(p)] = struct{}{}
	}

	var removed []string
	var errList []error
	for _, sub := range []string{BooksDir, CoversDir} {
		dir := filepath.Join(m.docsDir, sub)
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			errList = append(errList, err)
			continue
		}

		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if _, ok := known[path]; ok && !strings.HasSuffix(e.Name(), transfer.TempSuffix) {
				continue
			}
			if err := removeIfExists(path); err != nil {
				errList = append(errList, err)
				continue
			}
			removed = append(removed, path)
		}
	}

	if len(removed) > 0 {
		m.logger.Info("Removed orphan files", zap.Int("count", len(removed)))
	}
	return removed, errors.Join(errList...)
}
