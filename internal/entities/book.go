package entities

import (
	"encoding/json"
	"strings"
	"time"
)

type ContentType string

const (
	ContentTypeEPUB ContentType = "epub"
	ContentTypePDF  ContentType = "pdf"
	ContentTypeText ContentType = "text" // Structured text carried in TextContent, no file
)

// Extension returns the file extension for downloadable content types, or
// an empty string when the type has no backing file.
func (c ContentType) Extension() string {
	switch c {
	case ContentTypeEPUB:
		return ".epub"
	case ContentTypePDF:
		return ".pdf"
	default:
		return ""
	}
}

type Language string

const (
	LanguageKurdish Language = "ku"
	LanguageArabic  Language = "ar"
	LanguageEnglish Language = "en"
	LanguageGerman  Language = "de"
)

type BookStatus string

const (
	BookStatusDraft     BookStatus = "draft"
	BookStatusPublished BookStatus = "published"
	BookStatusHidden    BookStatus = "hidden"
)

// Book is a catalog record as served by the hosted backend. It is also the
// metadata snapshot stored with every downloaded book.
type Book struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug,omitempty"`
	Author      string `json:"author,omitempty"`
	Translator  string `json:"translator,omitempty"`
	Description string `json:"description,omitempty"`

	Language Language `json:"language"`
	Script   string   `json:"script"`

	ContentType  ContentType     `json:"content_type"`
	EPUBFilePath string          `json:"epub_file_path,omitempty"`
	PDFFilePath  string          `json:"pdf_file_path,omitempty"`
	TextContent  json.RawMessage `json:"text_content,omitempty"`

	Category string   `json:"category"`
	Tags     []string `json:"tags,omitempty"`
	AgeRange string   `json:"age_range,omitempty"`

	Status          BookStatus `json:"status"`
	SensitivityFlag string     `json:"sensitivity_flag,omitempty"`

	CoverImagePath string `json:"cover_image_path,omitempty"`
	FileSizeBytes  int64  `json:"file_size_bytes,omitempty"`
	PageCount      int    `json:"page_count,omitempty"` // Informational only, never used for progress
	Version        int    `json:"version,omitempty"`

	TranslationGroupID string `json:"translation_group_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// FilePath returns the remote file path matching the book's content type,
// trimmed of surrounding whitespace. Empty means nothing can be downloaded.
func (b *Book) FilePath() string {
	switch b.ContentType {
	case ContentTypeEPUB:
		return strings.TrimSpace(b.EPUBFilePath)
	case ContentTypePDF:
		return strings.TrimSpace(b.PDFFilePath)
	default:
		return ""
	}
}
