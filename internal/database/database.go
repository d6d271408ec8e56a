package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/khaleelElias/YA/internal/errs"
)

// MemoryPath opens a private in-memory database. Data does not survive Close.
const MemoryPath = ":memory:"

// Conn hands out the initialized connection. Repositories hold a Conn rather
// than a *gorm.DB so they keep working across Close and re-initialization.
type Conn interface {
	DB(ctx context.Context) (*gorm.DB, error)
}

// Store owns the on-device database. The zero connection state is "closed":
// Initialize opens it, Close releases it, and any call made after Close opens
// it again.
type Store struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
	db *gorm.DB
}

// New returns a store for path without opening it.
func New(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger.Named("store")}
}

// Open returns an initialized store.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	s := New(path, logger)
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Initialize opens the database, creates the base tables and applies pending
// migrations. Calling it on an initialized store does nothing.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.initLocked(ctx)
	return err
}

func (s *Store) initLocked(ctx context.Context) (*gorm.DB, error) {
	if s.db != nil {
		return s.db, nil
	}

	db, err := s.openLocked()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", errs.ErrStorageUnavailable, s.path, err)
	}

	if err := bootstrap(ctx, db, s.logger); err != nil {
		closeGorm(db)
		return nil, fmt.Errorf("%w: %w", errs.ErrStorageUnavailable, err)
	}

	s.db = db
	s.logger.Info("Database initialized", zap.String("path", s.path))
	return db, nil
}

func (s *Store) openLocked() (*gorm.DB, error) {
	dsn := s.path
	if s.path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return nil, err
		}
	}
	dsn += "?_busy_timeout=5000&_foreign_keys=off"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.New(gormWriter{s.logger.Sugar()}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// One connection: every statement is serialized through a single writer,
	// and an in-memory database stays the same database.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	return db, nil
}

// bootstrap creates the base tables, stamps a fresh file with BaseVersion and
// migrates it to LatestVersion.
func bootstrap(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createBaseSchema(tx); err != nil {
			return err
		}
		version, err := readVersion(tx)
		if err != nil {
			return err
		}
		if version < BaseVersion {
			return writeVersion(tx, BaseVersion)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	version, err := readVersion(db.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > LatestVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, LatestVersion)
	}
	return runMigrations(ctx, db, log, version, LatestVersion)
}

func createBaseSchema(tx *gorm.DB) error {
	for _, stmt := range baseSchema {
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// DB returns the connection, initializing the store first if needed.
func (s *Store) DB(ctx context.Context) (*gorm.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.initLocked(ctx)
	if err != nil {
		return nil, err
	}
	return db.WithContext(ctx), nil
}

// Migrate applies the change sets for every version in (from, to]. Change
// sets check before altering, so repeating a range that already ran is safe.
func (s *Store) Migrate(ctx context.Context, from, to int) error {
	if from < BaseVersion-1 || to > LatestVersion || from > to {
		return fmt.Errorf("%w: migrate %d -> %d (latest is %d)", errs.ErrInvalidArgument, from, to, LatestVersion)
	}
	if from < BaseVersion {
		from = BaseVersion
	}

	db, err := s.DB(ctx)
	if err != nil {
		return err
	}
	if err := runMigrations(ctx, db, s.logger, from, to); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrStorageUnavailable, err)
	}
	return nil
}

// Version returns the persisted schema version.
func (s *Store) Version(ctx context.Context) (int, error) {
	db, err := s.DB(ctx)
	if err != nil {
		return 0, err
	}
	return readVersion(db)
}

// Ping checks that the connection is usable.
func (s *Store) Ping(ctx context.Context) error {
	db, err := s.DB(ctx)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Transaction runs fn inside a single database transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db, err := s.DB(ctx)
	if err != nil {
		return err
	}
	return db.Transaction(fn)
}

// Reset drops every table and recreates the schema at LatestVersion. All local
// data is lost; callers must have explicit confirmation from the user.
func (s *Store) Reset(ctx context.Context) error {
	db, err := s.DB(ctx)
	if err != nil {
		return err
	}

	s.logger.Warn("Resetting database", zap.String("path", s.path))

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, table := range Tables {
			if err := tx.Exec("DROP TABLE IF EXISTS " + table).Error; err != nil {
				return fmt.Errorf("drop %s: %w", table, err)
			}
		}
		if err := writeVersion(tx, 0); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: reset: %w", errs.ErrStorageUnavailable, err)
	}

	if err := bootstrap(ctx, db, s.logger); err != nil {
		return fmt.Errorf("%w: reset: %w", errs.ErrStorageUnavailable, err)
	}
	return nil
}

// Close releases the connection. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	db := s.db
	s.db = nil

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}
	s.logger.Info("Database connection closed")
	return nil
}

func closeGorm(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// IsNotFound reports whether err is gorm's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// gormWriter routes gorm's own log lines (slow queries, errors) into zap.
type gormWriter struct {
	log *zap.SugaredLogger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warnf(format, args...)
}
