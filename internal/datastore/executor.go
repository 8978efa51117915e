package datastore

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Executor runs a compiled, parameterized query against the log store and
// returns result rows. It is the data-store collaborator boundary: the
// production deployment points it at the columnar log store, tests inject
// fakes, and the reference implementation below runs against the local
// database.
type Executor interface {
	Execute(ctx context.Context, sql string, args []any) ([]map[string]any, error)
}

// SQLExecutor is the reference Executor backed by a gorm connection. It is
// suitable for development and for deployments whose log store speaks SQL
// through the same handle.
type SQLExecutor struct {
	db *gorm.DB
}

// NewSQLExecutor creates a SQLExecutor.
func NewSQLExecutor(db *gorm.DB) *SQLExecutor {
	return &SQLExecutor{db: db}
}

// Execute implements Executor.
func (e *SQLExecutor) Execute(ctx context.Context, sql string, args []any) ([]map[string]any, error) {
	var rows []map[string]any
	if err := e.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	return rows, nil
}
