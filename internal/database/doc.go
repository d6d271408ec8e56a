// Package database provides the local store: a single SQLite file opened
// through gorm, with the schema tracked in PRAGMA user_version.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Store: lazy open, bootstrap, Reset, Close
//	├── migrations.go    # Versioned migrations keyed by user_version
//	├── schema.go        # Base schema for a fresh file
//	├── query.go         # Conn helpers (QueryAll, QueryOne, Execute)
//	├── books/           # Downloaded book records
//	├── downloads/       # Download queue status rows
//	├── progress/        # Reading positions per book and identity
//	├── bookmarks/       # Bookmarks
//	└── syncqueue/       # Outbound change log for remote sync
//
// # Using Sub-packages
//
// Each sub-package provides a Repository built on a Conn, so it works both
// against the Store and inside a transaction:
//
//	store, err := database.Open(ctx, "./data/local.db", logger)
//
//	booksRepo := books.NewRepository(store)
//	err = store.Transaction(ctx, func(tx *gorm.DB) error {
//		if err := booksRepo.WithTx(tx).Create(ctx, record); err != nil {
//			return err
//		}
//		return downloadsRepo.WithTx(tx).MarkCompleted(ctx, record.ID, size)
//	})
//
// The first call to Store.DB opens the file, creates the base schema when
// user_version is 0 and then runs migrations up to LatestVersion.
//
// # Adding a Migration
//
// Append a Migration with the next version to migrations; LatestVersion
// follows the last entry. Prefer AddColumn and CreateIndex steps since both
// check before applying.
package database
