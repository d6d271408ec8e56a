package progress

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/khaleelElias/YA/internal/cfi"
)

// Locator maps a position marker to percent complete. The second result is
// false when the percent cannot be derived, in which case the stored percent
// is kept.
type Locator interface {
	Percent(bookID, marker string) (int, bool)
}

// LocationsLocator derives percent from the location breakpoints the renderer
// generates for a book once it has laid the book out.
type LocationsLocator struct {
	mu    sync.RWMutex
	books map[string][]cfi.CFI
}

func NewLocationsLocator() *LocationsLocator {
	return &LocationsLocator{books: make(map[string][]cfi.CFI)}
}

// SetLocations replaces the breakpoints of a book. Nothing is stored if any
// location fails to parse.
func (l *LocationsLocator) SetLocations(bookID string, locations []string) error {
	parsed := make([]cfi.CFI, 0, len(locations))
	for i, loc := range locations {
		c, err := cfi.Parse(loc)
		if err != nil {
			return fmt.Errorf("location %d: %w", i, err)
		}
		parsed = append(parsed, c)
	}
	sort.SliceStable(parsed, func(i, j int) bool {
		return cfi.Compare(parsed[i], parsed[j]) < 0
	})

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(parsed) == 0 {
		delete(l.books, bookID)
		return nil
	}
	l.books[bookID] = parsed
	return nil
}

// Forget drops the breakpoints of a book.
func (l *LocationsLocator) Forget(bookID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.books, bookID)
}

// Count returns the number of breakpoints known for a book.
func (l *LocationsLocator) Count(bookID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.books[bookID])
}

func (l *LocationsLocator) Percent(bookID, marker string) (int, bool) {
	if marker == "" {
		return 0, false
	}
	pos, err := cfi.Parse(marker)
	if err != nil {
		return 0, false
	}

	l.mu.RLock()
	locs := l.books[bookID]
	l.mu.RUnlock()

	n := len(locs)
	switch n {
	case 0:
		return 0, false
	case 1:
		return 0, true
	}

	// Index of the last breakpoint at or before the position.
	i := sort.Search(n, func(j int) bool { return cfi.Compare(locs[j], pos) > 0 }) - 1
	if i < 0 {
		i = 0
	}
	return int(math.Round(100 * float64(i) / float64(n-1))), true
}
