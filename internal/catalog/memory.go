package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/khaleelElias/YA/internal/entities"
)

// InMemory serves a fixed set of books with the same visibility and filter
// rules as the hosted catalog. It backs tests and offline demo mode.
type InMemory struct {
	mu    sync.RWMutex
	books []entities.Book
}

var _ Catalog = (*InMemory)(nil)

// NewInMemory returns a catalog holding books.
func NewInMemory(books ...entities.Book) *InMemory {
	return &InMemory{books: append([]entities.Book(nil), books...)}
}

func (m *InMemory) published() []entities.Book {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]entities.Book, 0, len(m.books))
	for _, b := range m.books {
		if b.Status == entities.BookStatusPublished {
			out = append(out, b)
		}
	}
	return out
}

func (m *InMemory) FetchPublishedBooks(_ context.Context, q Query) Page {
	q = q.Normalized()

	var matched []entities.Book
	for _, b := range m.published() {
		if matches(b, q) {
			matched = append(matched, b)
		}
	}
	sortBooks(matched, q.SortBy, q.SortOrder == "asc")

	from, to := q.Range()
	total := len(matched)
	if from > total {
		from = total
	}
	end := to + 1
	if end > total {
		end = total
	}
	return newPage(q, matched[from:end], total)
}

func (m *InMemory) FetchBookByID(_ context.Context, id string) Result[entities.Book] {
	for _, b := range m.published() {
		if b.ID == id {
			return Result[entities.Book]{Data: b}
		}
	}
	return failed[entities.Book](&APIError{
		Message: "JSON object requested, multiple (or no) rows returned",
		Code:    "PGRST116",
	})
}

func (m *InMemory) FetchBookTranslations(_ context.Context, groupID string) Result[[]entities.Book] {
	out := []entities.Book{}
	for _, b := range m.published() {
		if groupID != "" && b.TranslationGroupID == groupID {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Language < out[j].Language })
	return Result[[]entities.Book]{Data: out}
}

func (m *InMemory) FetchBooksByCategory(ctx context.Context, category string, q Query) Page {
	q.Category = category
	return m.FetchPublishedBooks(ctx, q)
}

func (m *InMemory) SearchBooks(ctx context.Context, text string, q Query) Page {
	q.Search = text
	return m.FetchPublishedBooks(ctx, q)
}

func (m *InMemory) FetchCategories(_ context.Context) Result[[]CategoryCount] {
	books := m.published()
	categories := make([]string, len(books))
	for i, b := range books {
		categories[i] = b.Category
	}
	return Result[[]CategoryCount]{Data: countCategories(categories)}
}

func matches(b entities.Book, q Query) bool {
	if q.Language != "" && b.Language != q.Language {
		return false
	}
	if q.Category != "" && b.Category != q.Category {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(b.Title), needle) &&
			!strings.Contains(strings.ToLower(b.Description), needle) &&
			!strings.Contains(strings.ToLower(b.Author), needle) {
			return false
		}
	}
	if len(q.Tags) > 0 && !overlaps(b.Tags, q.Tags) {
		return false
	}
	return true
}

func overlaps(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	for _, t := range want {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

func sortBooks(books []entities.Book, field string, asc bool) {
	less := func(a, b entities.Book) bool {
		switch field {
		case "title":
			return a.Title < b.Title
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			// Unpublished timestamps sort as the oldest.
			if a.PublishedAt == nil || b.PublishedAt == nil {
				return a.PublishedAt == nil && b.PublishedAt != nil
			}
			return a.PublishedAt.Before(*b.PublishedAt)
		}
	}
	sort.SliceStable(books, func(i, j int) bool {
		if asc {
			return less(books[i], books[j])
		}
		return less(books[j], books[i])
	})
}
