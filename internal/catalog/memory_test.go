package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaleelElias/YA/internal/entities"
)

func fixtureBooks() []entities.Book {
	at := func(day int) *time.Time {
		t := time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
		return &t
	}
	return []entities.Book{
		{ID: "b1", Title: "Stories of Lalish", Author: "Xelil", Language: "ku", Category: "history",
			Tags: []string{"faith", "history"}, Status: entities.BookStatusPublished, PublishedAt: at(3), TranslationGroupID: "g1"},
		{ID: "b2", Title: "Children's Prayers", Description: "Short prayers for LALISH pilgrims", Language: "de", Category: "prayer",
			Tags: []string{"children"}, Status: entities.BookStatusPublished, PublishedAt: at(1), TranslationGroupID: "g1"},
		{ID: "b3", Title: "Draft", Language: "ku", Category: "history", Status: entities.BookStatusDraft, PublishedAt: at(5)},
		{ID: "b4", Title: "Poems", Author: "Anonymous", Language: "ku", Category: "poetry",
			Tags: []string{"poetry"}, Status: entities.BookStatusPublished, PublishedAt: at(2)},
	}
}

func ids(books []entities.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestInMemory_OnlyPublishedNewestFirst(t *testing.T) {
	m := NewInMemory(fixtureBooks()...)

	page := m.FetchPublishedBooks(context.Background(), Query{})
	require.Nil(t, page.Error)
	assert.Equal(t, []string{"b1", "b4", "b2"}, ids(page.Items))
	assert.Equal(t, 3, page.Total)
	assert.False(t, page.HasMore)
}

func TestInMemory_SearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	m := NewInMemory(fixtureBooks()...)
	ctx := context.Background()

	assert.Equal(t, []string{"b1", "b2"}, ids(m.SearchBooks(ctx, "lalish", Query{}).Items))
	assert.Equal(t, []string{"b4"}, ids(m.SearchBooks(ctx, "ANONY", Query{}).Items))
	assert.Empty(t, m.SearchBooks(ctx, "draft", Query{}).Items)
}

func TestInMemory_TagOverlapAndFilters(t *testing.T) {
	m := NewInMemory(fixtureBooks()...)
	ctx := context.Background()

	page := m.FetchPublishedBooks(ctx, Query{Tags: []string{"children", "poetry"}, SortBy: "title", SortOrder: "asc"})
	assert.Equal(t, []string{"b2", "b4"}, ids(page.Items))

	page = m.FetchBooksByCategory(ctx, "history", Query{Language: "ku"})
	assert.Equal(t, []string{"b1"}, ids(page.Items))
}

func TestInMemory_Pagination(t *testing.T) {
	m := NewInMemory(fixtureBooks()...)
	ctx := context.Background()

	first := m.FetchPublishedBooks(ctx, Query{PageSize: 2})
	assert.Equal(t, []string{"b1", "b4"}, ids(first.Items))
	assert.True(t, first.HasMore)

	second := m.FetchPublishedBooks(ctx, Query{Page: 1, PageSize: 2})
	assert.Equal(t, []string{"b2"}, ids(second.Items))
	assert.False(t, second.HasMore)

	beyond := m.FetchPublishedBooks(ctx, Query{Page: 9, PageSize: 2})
	assert.Empty(t, beyond.Items)
	assert.Equal(t, 3, beyond.Total)
}

func TestInMemory_LookupsAndCategories(t *testing.T) {
	m := NewInMemory(fixtureBooks()...)
	ctx := context.Background()

	assert.True(t, m.FetchBookByID(ctx, "b1").OK())
	assert.False(t, m.FetchBookByID(ctx, "b3").OK(), "drafts are invisible")

	translations := m.FetchBookTranslations(ctx, "g1")
	assert.Equal(t, []string{"b2", "b1"}, ids(translations.Data))

	categories := m.FetchCategories(ctx)
	assert.Equal(t, []CategoryCount{
		{Category: "history", Count: 1},
		{Category: "poetry", Count: 1},
		{Category: "prayer", Count: 1},
	}, categories.Data)
}

func TestQuery_Normalized(t *testing.T) {
	q := Query{Page: -3, PageSize: 0, SortBy: "bogus", SortOrder: "up", Tags: []string{" a ", ""}}.Normalized()

	assert.Equal(t, 0, q.Page)
	assert.Equal(t, DefaultPageSize, q.PageSize)
	assert.Equal(t, DefaultSortBy, q.SortBy)
	assert.Equal(t, DefaultSortOrder, q.SortOrder)
	assert.Equal(t, []string{"a"}, q.Tags)

	from, to := Query{Page: 2, PageSize: 20}.Range()
	assert.Equal(t, 40, from)
	assert.Equal(t, 59, to)
}
