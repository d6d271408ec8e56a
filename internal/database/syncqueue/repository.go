// Package syncqueue provides database operations for the outbound sync queue.
//
// Local writes append entries; a cloud sync process drains them with
// Pending and Remove, calling IncrementRetry when an upload fails.
package syncqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/khaleelElias/YA/internal/database"
	"github.com/khaleelElias/YA/internal/entities"
)

// Repository handles sync_queue operations.
type Repository struct {
	conn database.Conn
}

// NewRepository creates a new sync queue repository.
func NewRepository(conn database.Conn) *Repository {
	return &Repository{conn: conn}
}

// WithTx returns a repository bound to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{conn: database.TxConn(tx)}
}

// Append records a pending change. payload is serialized as JSON.
func (r *Repository) Append(ctx context.Context, table, recordID string, op entities.SyncOperation, payload any) (*entities.SyncQueueEntry, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal sync payload: %w", err)
	}

	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}

	entry := &entities.SyncQueueEntry{
		Table:     table,
		RecordID:  recordID,
		Operation: op,
		Payload:   string(data),
		CreatedAt: entities.FormatTime(time.Now()),
	}
	if err := db.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// Pending returns up to limit entries in the order they were appended.
func (r *Repository) Pending(ctx context.Context, limit int) ([]entities.SyncQueueEntry, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var entries []entities.SyncQueueEntry
	err = db.Order("created_at ASC, id ASC").Limit(limit).Find(&entries).Error
	return entries, err
}

// Count returns the number of queued entries.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	err = db.Model(&entities.SyncQueueEntry{}).Count(&count).Error
	return count, err
}

// Remove deletes an entry once it has been delivered.
func (r *Repository) Remove(ctx context.Context, id int64) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&entities.SyncQueueEntry{}).Error
}

// IncrementRetry bumps the retry counter after a failed delivery.
func (r *Repository) IncrementRetry(ctx context.Context, id int64) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	return db.Model(&entities.SyncQueueEntry{}).Where("id = ?", id).
		UpdateColumn("retry_count", gorm.Expr("retry_count + 1")).Error
}
