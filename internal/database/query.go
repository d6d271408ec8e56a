package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// QueryAll runs a parameterized query and scans every row into T. Values are
// always passed as bound arguments, never formatted into query.
func QueryAll[T any](ctx context.Context, c Conn, query string, args ...any) ([]T, error) {
	db, err := c.DB(ctx)
	if err != nil {
		return nil, err
	}
	var rows []T
	if err := db.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return rows, nil
}

// QueryOne runs a parameterized query and returns its first row, or nil when
// the query matched nothing.
func QueryOne[T any](ctx context.Context, c Conn, query string, args ...any) (*T, error) {
	rows, err := QueryAll[T](ctx, c, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Execute runs a parameterized statement and returns the number of rows it changed.
func Execute(ctx context.Context, c Conn, query string, args ...any) (int64, error) {
	db, err := c.DB(ctx)
	if err != nil {
		return 0, err
	}
	result := db.Exec(query, args...)
	if result.Error != nil {
		return 0, fmt.Errorf("execute: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ConnFunc adapts a function to Conn.
type ConnFunc func(ctx context.Context) (*gorm.DB, error)

func (f ConnFunc) DB(ctx context.Context) (*gorm.DB, error) {
	return f(ctx)
}

// TxConn exposes an open transaction as a Conn so repositories can join it.
func TxConn(tx *gorm.DB) Conn {
	return ConnFunc(func(context.Context) (*gorm.DB, error) {
		return tx, nil
	})
}
