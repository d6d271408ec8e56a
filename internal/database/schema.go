package database

// baseSchema is the version 1 table set. Every statement is safe to run
// against a database that already has the tables.
var baseSchema = []string{
	`CREATE TABLE IF NOT EXISTS local_books (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT,
		translator TEXT,
		description TEXT,
		language TEXT NOT NULL,
		script TEXT NOT NULL,
		category TEXT NOT NULL,
		tags TEXT,
		age_range TEXT,
		content_type TEXT NOT NULL,
		cover_uri TEXT,
		epub_uri TEXT,
		file_size_bytes INTEGER,
		page_count INTEGER,
		downloaded_at TEXT NOT NULL,
		last_accessed_at TEXT,
		metadata_json TEXT,
		user_id TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_local_books_category ON local_books(category)`,
	`CREATE INDEX IF NOT EXISTS idx_local_books_language ON local_books(language)`,
	`CREATE INDEX IF NOT EXISTS idx_local_books_user_id ON local_books(user_id)`,

	`CREATE TABLE IF NOT EXISTS local_reading_progress (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id TEXT NOT NULL,
		cfi TEXT,
		chapter_id TEXT,
		section_id TEXT,
		scroll_position REAL,
		progress_percent INTEGER DEFAULT 0,
		last_read_at TEXT NOT NULL,
		synced_to_cloud INTEGER DEFAULT 0,
		user_id TEXT,
		UNIQUE(book_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reading_progress_book ON local_reading_progress(book_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reading_progress_user ON local_reading_progress(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reading_progress_synced ON local_reading_progress(synced_to_cloud)`,

	`CREATE TABLE IF NOT EXISTS local_bookmarks (
		id TEXT PRIMARY KEY,
		book_id TEXT NOT NULL,
		cfi TEXT,
		section_id TEXT,
		note TEXT,
		context_text TEXT,
		created_at TEXT NOT NULL,
		synced_to_cloud INTEGER DEFAULT 0,
		user_id TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookmarks_book ON local_bookmarks(book_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookmarks_user ON local_bookmarks(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookmarks_synced ON local_bookmarks(synced_to_cloud)`,

	`CREATE TABLE IF NOT EXISTS sync_queue (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		table_name TEXT NOT NULL,
		record_id TEXT NOT NULL,
		operation TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at TEXT NOT NULL,
		retry_count INTEGER DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sync_queue_created ON sync_queue(created_at)`,

	`CREATE TABLE IF NOT EXISTS download_queue (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		progress_bytes INTEGER DEFAULT 0,
		total_bytes INTEGER,
		error_message TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_download_queue_status ON download_queue(status)`,
}

// Tables lists every table owned by the store, in drop order.
var Tables = []string{
	"local_books",
	"local_reading_progress",
	"local_bookmarks",
	"sync_queue",
	"download_queue",
}
