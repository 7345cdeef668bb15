// Package testutil provides an in-memory database for package tests.
package testutil

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"calibration-qa-backend/internal/db"
)

// SetupTestDB opens a private in-memory SQLite database with every table
// migrated. A single connection keeps the database alive for the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to the in-memory database: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(gormDB); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return gormDB
}

// SetupSeededDB is SetupTestDB plus the demo data.
func SetupSeededDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB := SetupTestDB(t)
	if err := db.Seed(context.Background(), gormDB, zap.NewNop()); err != nil {
		t.Fatalf("Failed to seed test data: %v", err)
	}
	return gormDB
}
