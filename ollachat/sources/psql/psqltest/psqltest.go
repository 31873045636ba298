// Package psqltest opens throwaway in-memory databases for tests.
package psqltest

import (
	"context"
	"fmt"
	"testing"

	"ollachat/ollachat/sources/psql"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
)

// NewDatabase returns a migrated sqlite database that lives as long as the test.
func NewDatabase(t testing.TB) *psql.Database {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := psql.Open(context.Background(), sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// shared-cache sqlite locks whole tables, one connection avoids SQLITE_LOCKED
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(db.Close)
	return db
}
