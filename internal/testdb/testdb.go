// Package testdb provides a shared test database helper backed by SQLite.
package testdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/helixml/fileserve/infrastructure/persistence"
	"github.com/helixml/fileserve/internal/database"
)

// New creates a SQLite database in a temporary directory with all migrations
// applied. The database is closed when the test finishes.
func New(t *testing.T) database.Database {
	t.Helper()
	url := "sqlite:///" + filepath.Join(t.TempDir(), "fileserve.db")
	db, err := database.NewDatabase(context.Background(), url)
	if err != nil {
		t.Fatalf("testdb.New: open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := persistence.AutoMigrate(db); err != nil {
		t.Fatalf("testdb.New: auto migrate: %v", err)
	}
	return db
}
