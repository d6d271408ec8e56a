package entities

import "time"

// TimeLayout is the fixed-width UTC layout used for every timestamp column.
// Fixed width keeps lexical ORDER BY equal to chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a timestamp column written by FormatTime.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

// LocalBook is a downloaded book. Exactly one of EPUBURI and PDFURI is set,
// matching ContentType.
type LocalBook struct {
	ID             string      `gorm:"column:id;primaryKey" json:"id"`
	Title          string      `gorm:"column:title" json:"title"`
	Author         *string     `gorm:"column:author" json:"author,omitempty"`
	Translator     *string     `gorm:"column:translator" json:"translator,omitempty"`
	Description    *string     `gorm:"column:description" json:"description,omitempty"`
	Language       string      `gorm:"column:language" json:"language"`
	Script         string      `gorm:"column:script" json:"script"`
	Category       string      `gorm:"column:category" json:"category"`
	Tags           *string     `gorm:"column:tags" json:"tags,omitempty"` // JSON array
	AgeRange       *string     `gorm:"column:age_range" json:"age_range,omitempty"`
	ContentType    ContentType `gorm:"column:content_type" json:"content_type"`
	CoverURI       *string     `gorm:"column:cover_uri" json:"cover_uri,omitempty"`
	EPUBURI        *string     `gorm:"column:epub_uri" json:"epub_uri,omitempty"`
	PDFURI         *string     `gorm:"column:pdf_uri" json:"pdf_uri,omitempty"`
	FileSizeBytes  *int64      `gorm:"column:file_size_bytes" json:"file_size_bytes,omitempty"`
	PageCount      *int        `gorm:"column:page_count" json:"page_count,omitempty"`
	DownloadedAt   string      `gorm:"column:downloaded_at" json:"downloaded_at"`
	LastAccessedAt *string     `gorm:"column:last_accessed_at" json:"last_accessed_at,omitempty"`
	MetadataJSON   string      `gorm:"column:metadata_json" json:"-"`
	UserID         *string     `gorm:"column:user_id" json:"user_id,omitempty"`
}

func (LocalBook) TableName() string {
	return "local_books"
}

// ContentPath returns whichever content file path is populated.
func (b *LocalBook) ContentPath() string {
	if b.EPUBURI != nil {
		return *b.EPUBURI
	}
	if b.PDFURI != nil {
		return *b.PDFURI
	}
	return ""
}

// ReadingProgress is the position of one identity within one book.
// CFI is authoritative; CurrentPage/TotalPages are informational.
type ReadingProgress struct {
	ID              int64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	BookID          string   `gorm:"column:book_id" json:"book_id"`
	UserID          *string  `gorm:"column:user_id" json:"user_id,omitempty"`
	IdentityKey     string   `gorm:"column:identity_key" json:"-"`
	CFI             *string  `gorm:"column:cfi" json:"cfi,omitempty"`
	ChapterID       *string  `gorm:"column:chapter_id" json:"chapter_id,omitempty"`
	SectionID       *string  `gorm:"column:section_id" json:"section_id,omitempty"`
	ScrollPosition  *float64 `gorm:"column:scroll_position" json:"scroll_position,omitempty"`
	CurrentPage     *int     `gorm:"column:current_page" json:"current_page,omitempty"`
	TotalPages      *int     `gorm:"column:total_pages" json:"total_pages,omitempty"`
	ProgressPercent int      `gorm:"column:progress_percent" json:"progress_percent"`
	LastReadAt      string   `gorm:"column:last_read_at" json:"last_read_at"`
	SyncedToCloud   int      `gorm:"column:synced_to_cloud" json:"synced_to_cloud"`
}

func (ReadingProgress) TableName() string {
	return "local_reading_progress"
}

// Sync flag values shared by progress and bookmarks.
const (
	SyncDirty  = 0
	SyncSynced = 1
)

type Bookmark struct {
	ID            string  `gorm:"column:id;primaryKey" json:"id"`
	BookID        string  `gorm:"column:book_id" json:"book_id"`
	CFI           *string `gorm:"column:cfi" json:"cfi,omitempty"`
	SectionID     *string `gorm:"column:section_id" json:"section_id,omitempty"`
	Note          *string `gorm:"column:note" json:"note,omitempty"`
	ContextText   *string `gorm:"column:context_text" json:"context_text,omitempty"`
	CreatedAt     string  `gorm:"column:created_at" json:"created_at"`
	SyncedToCloud int     `gorm:"column:synced_to_cloud" json:"synced_to_cloud"`
	UserID        *string `gorm:"column:user_id" json:"user_id,omitempty"`
}

func (Bookmark) TableName() string {
	return "local_bookmarks"
}

type SyncOperation string

const (
	SyncOperationInsert SyncOperation = "insert"
	SyncOperationUpdate SyncOperation = "update"
	SyncOperationDelete SyncOperation = "delete"
)

// SyncQueueEntry is a pending outbound change for the cloud sync process.
type SyncQueueEntry struct {
	ID         int64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Table      string        `gorm:"column:table_name" json:"table_name"`
	RecordID   string        `gorm:"column:record_id" json:"record_id"`
	Operation  SyncOperation `gorm:"column:operation" json:"operation"`
	Payload    string        `gorm:"column:payload" json:"payload"`
	CreatedAt  string        `gorm:"column:created_at" json:"created_at"`
	RetryCount int           `gorm:"column:retry_count" json:"retry_count"`
}

func (SyncQueueEntry) TableName() string {
	return "sync_queue"
}

type DownloadStatus string

const (
	DownloadStatusPending     DownloadStatus = "pending"
	DownloadStatusDownloading DownloadStatus = "downloading"
	DownloadStatusPaused      DownloadStatus = "paused"
	DownloadStatusCompleted   DownloadStatus = "completed"
	DownloadStatusFailed      DownloadStatus = "failed"
)

// DownloadQueueEntry tracks the transfer state of one book.
type DownloadQueueEntry struct {
	ID            int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	BookID        string         `gorm:"column:book_id" json:"book_id"`
	Status        DownloadStatus `gorm:"column:status" json:"status"`
	ProgressBytes int64          `gorm:"column:progress_bytes" json:"progress_bytes"`
	TotalBytes    *int64         `gorm:"column:total_bytes" json:"total_bytes,omitempty"`
	ErrorMessage  *string        `gorm:"column:error_message" json:"error_message,omitempty"`
	CreatedAt     string         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     string         `gorm:"column:updated_at" json:"updated_at"`
}

func (DownloadQueueEntry) TableName() string {
	return "download_queue"
}
