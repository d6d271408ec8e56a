package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaleelElias/YA/internal/entities"
)

func TestFixture_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo", "catalog.json")
	books := []entities.Book{
		{ID: "b1", Title: "Mishabet", Language: entities.LanguageKurdish, ContentType: entities.ContentTypeEPUB,
			EPUBFilePath: "b1/book.epub", Category: "religion", Status: entities.BookStatusPublished,
			CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "b2", Title: "Draft", Status: entities.BookStatusDraft},
	}
	require.NoError(t, WriteFixture(path, books))

	c, err := LoadFixture(path)
	require.NoError(t, err)

	page := c.FetchPublishedBooks(context.Background(), Query{})
	require.Len(t, page.Items, 1)
	assert.Equal(t, "b1/book.epub", page.Items[0].EPUBFilePath)
}

func TestLoadFixture_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- id: b1
  title: Qewl
  language: ku
  content_type: pdf
  pdf_file_path: b1/qewl.pdf
  category: poetry
  tags: [oral]
  status: published
`), 0o644))

	c, err := LoadFixture(path)
	require.NoError(t, err)

	res := c.FetchBookByID(context.Background(), "b1")
	require.True(t, res.OK())
	assert.Equal(t, entities.ContentTypePDF, res.Data.ContentType)
	assert.Equal(t, "b1/qewl.pdf", res.Data.FilePath())
	assert.Equal(t, []string{"oral"}, res.Data.Tags)
}

func TestLoadFixture_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFixture(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	noID := filepath.Join(dir, "noid.json")
	require.NoError(t, os.WriteFile(noID, []byte(`[{"title":"x"}]`), 0o644))
	_, err = LoadFixture(noID)
	assert.ErrorContains(t, err, "has no id")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("- id: [unterminated"), 0o644))
	_, err = LoadFixture(bad)
	assert.Error(t, err)
}
