// Command generate_demo writes an offline catalog fixture with sample books.
// Usage: go run cmd/generate_demo/main.go [-out path/to/catalog.json]
//
// Serve it with CATALOG_URL unset and CATALOG_FIXTURE pointing at the file.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/khaleelElias/YA/internal/catalog"
	"github.com/khaleelElias/YA/internal/entities"
)

const defaultFixturePath = "./demo/catalog.json"

func main() {
	out := flag.String("out", defaultFixturePath, "path to the fixture file")
	flag.Parse()

	books := demoBooks(time.Now().UTC())
	if err := catalog.WriteFixture(*out, books); err != nil {
		log.Fatalf("Failed to write demo catalog: %v", err)
	}
	log.Printf("Wrote %d books to %s", len(books), *out)
}

func demoBooks(now time.Time) []entities.Book {
	published := func(daysAgo int) *time.Time {
		t := now.AddDate(0, 0, -daysAgo)
		return &t
	}

	return []entities.Book{
		{
			ID:                 "demo-mishabet-ku",
			Title:              "Mişabet",
			Language:           entities.LanguageKurdish,
			Script:             "latin",
			ContentType:        entities.ContentTypeEPUB,
			EPUBFilePath:       "demo/mishabet-ku.epub",
			Category:           "religion",
			Tags:               []string{"scripture", "oral"},
			Status:             entities.BookStatusPublished,
			CoverImagePath:     "demo/mishabet.jpg",
			FileSizeBytes:      412_000,
			TranslationGroupID: "mishabet",
			CreatedAt:          now.AddDate(0, -2, 0),
			UpdatedAt:          now.AddDate(0, -1, 0),
			PublishedAt:        published(30),
		},
		{
			ID:                 "demo-mishabet-en",
			Title:              "The Book of Revelation (Mishabet)",
			Language:           entities.LanguageEnglish,
			Script:             "latin",
			ContentType:        entities.ContentTypeEPUB,
			EPUBFilePath:       "demo/mishabet-en.epub",
			Category:           "religion",
			Tags:               []string{"scripture", "translation"},
			Status:             entities.BookStatusPublished,
			FileSizeBytes:      398_000,
			TranslationGroupID: "mishabet",
			CreatedAt:          now.AddDate(0, -2, 0),
			UpdatedAt:          now.AddDate(0, -1, 0),
			PublishedAt:        published(28),
		},
		{
			ID:            "demo-qewl",
			Title:         "Qewl û Beyt",
			Author:        "Oral tradition",
			Language:      entities.LanguageKurdish,
			Script:        "latin",
			ContentType:   entities.ContentTypePDF,
			PDFFilePath:   "demo/qewl.pdf",
			Category:      "poetry",
			Tags:          []string{"oral", "hymns"},
			Status:        entities.BookStatusPublished,
			FileSizeBytes: 2_300_000,
			PageCount:     184,
			CreatedAt:     now.AddDate(0, -1, 0),
			UpdatedAt:     now.AddDate(0, -1, 0),
			PublishedAt:   published(10),
		},
		{
			ID:          "demo-draft",
			Title:       "Unreleased collection",
			Language:    entities.LanguageGerman,
			ContentType: entities.ContentTypeEPUB,
			Category:    "history",
			Status:      entities.BookStatusDraft,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}
