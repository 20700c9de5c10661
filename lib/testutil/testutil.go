package testutil

import (
	"attendtrack-backend/internal/db"
	"context"
	"database/sql"
	"testing"
)

// OpenDB opens an in-memory store with the schema applied, it is closed when
// the test ends.
func OpenDB(t testing.TB) *sql.DB {
	database, err := db.Open(context.Background(), db.Config{File: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}
