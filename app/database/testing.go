package database

import (
	"testing"
)

// OpenMemory opens an in-memory database with the full schema applied,
// for use in tests. The connection is closed via t.Cleanup.
func OpenMemory(t testing.TB) *DB {
	t.Helper()

	db, err := NewConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}
