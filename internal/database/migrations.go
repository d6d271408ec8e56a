package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Step is one idempotent change inside a migration. Applied reports whether
// the change is already present; a nil Applied means Apply is safe to repeat.
type Step struct {
	Name    string
	Applied func(tx *gorm.DB) (bool, error)
	Apply   func(tx *gorm.DB) error
}

// Migration moves the schema from Version-1 to Version.
type Migration struct {
	Version     int
	Description string
	Steps       []Step
}

// LatestVersion is the schema version a freshly initialized store ends at.
var LatestVersion = migrations[len(migrations)-1].Version

// BaseVersion is the version stamped after the base table set is created.
const BaseVersion = 1

var migrations = []Migration{
	{
		Version:     2,
		Description: "pdf file column, page info, anonymous-safe progress key",
		Steps: []Step{
			AddColumn("local_books", "pdf_uri", "TEXT"),
			AddColumn("local_reading_progress", "current_page", "INTEGER"),
			AddColumn("local_reading_progress", "total_pages", "INTEGER"),
			AddColumn("local_reading_progress", "identity_key", "TEXT NOT NULL DEFAULT ''"),
			{
				Name: "backfill identity_key",
				Apply: func(tx *gorm.DB) error {
					return tx.Exec(`UPDATE local_reading_progress
						SET identity_key = COALESCE(user_id, '')
						WHERE identity_key <> COALESCE(user_id, '')`).Error
				},
			},
			{
				Name: "collapse duplicate progress rows",
				Apply: func(tx *gorm.DB) error {
					return tx.Exec(`DELETE FROM local_reading_progress WHERE id NOT IN (
						SELECT id FROM (
							SELECT id, ROW_NUMBER() OVER (
								PARTITION BY book_id, identity_key
								ORDER BY last_read_at DESC, id DESC
							) AS rn
							FROM local_reading_progress
						) WHERE rn = 1
					)`).Error
				},
			},
			CreateIndex("idx_reading_progress_identity",
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_reading_progress_identity
					ON local_reading_progress(book_id, identity_key)`),
		},
	},
}

// AddColumn returns a step that adds column to table unless the column is
// already present.
func AddColumn(table, column, definition string) Step {
	return Step{
		Name: fmt.Sprintf("add %s.%s", table, column),
		Applied: func(tx *gorm.DB) (bool, error) {
			return columnExists(tx, table, column)
		},
		Apply: func(tx *gorm.DB) error {
			// Identifiers cannot be bound; both come from the migration table above.
			return tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)).Error
		},
	}
}

// CreateIndex returns a step that runs stmt unless an index called name exists.
func CreateIndex(name, stmt string) Step {
	return Step{
		Name: "create index " + name,
		Applied: func(tx *gorm.DB) (bool, error) {
			var count int64
			err := tx.Raw(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?`, name).
				Scan(&count).Error
			return count > 0, err
		},
		Apply: func(tx *gorm.DB) error {
			return tx.Exec(stmt).Error
		},
	}
}

func columnExists(tx *gorm.DB, table, column string) (bool, error) {
	var count int64
	err := tx.Raw(`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).
		Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func readVersion(db *gorm.DB) (int, error) {
	var version int
	if err := db.Raw("PRAGMA user_version").Scan(&version).Error; err != nil {
		return 0, err
	}
	return version, nil
}

func writeVersion(db *gorm.DB, version int) error {
	// PRAGMA does not accept bound parameters.
	return db.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)).Error
}

func findMigration(version int) (Migration, bool) {
	for _, m := range migrations {
		if m.Version == version {
			return m, true
		}
	}
	return Migration{}, false
}

// runMigrations applies every version in (from, to] in ascending order. Each
// version commits together with its version marker, so a failure leaves the
// schema at the last fully applied version.
func runMigrations(ctx context.Context, db *gorm.DB, logger *zap.Logger, from, to int) error {
	for v := from + 1; v <= to; v++ {
		m, ok := findMigration(v)
		if !ok {
			return fmt.Errorf("no migration registered for version %d", v)
		}

		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, step := range m.Steps {
				if step.Applied != nil {
					done, err := step.Applied(tx)
					if err != nil {
						return fmt.Errorf("check %q: %w", step.Name, err)
					}
					if done {
						logger.Debug("Migration step already applied",
							zap.Int("version", v), zap.String("step", step.Name))
						continue
					}
				}
				if err := step.Apply(tx); err != nil {
					return fmt.Errorf("apply %q: %w", step.Name, err)
				}
			}
			return writeVersion(tx, v)
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", v, m.Description, err)
		}

		logger.Info("Schema migrated", zap.Int("version", v), zap.String("description", m.Description))
	}
	return nil
}
