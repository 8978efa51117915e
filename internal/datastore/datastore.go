// Package datastore owns the engine database connection and the log-store
// executor collaborator boundary.
package datastore

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/logseer/logseer/internal/datastore/entities"
)

// Manager wraps the engine database handle.
type Manager struct {
	db *gorm.DB
}

// Open opens (or creates) the sqlite database at path and migrates the
// engine schema.
func Open(path string) (*Manager, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := db.AutoMigrate(
		&entities.SavedQuery{},
		&entities.AlertRule{},
		&entities.AlertHistory{},
		&entities.Silence{},
		&entities.ScheduledReport{},
		&entities.SyntheticTest{},
		&entities.SyntheticResult{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Manager{db: db}, nil
}

// DB returns the underlying gorm handle.
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Close closes the underlying connection pool.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
