package db

import (
	"testing"

	"github.com/prash-dwivedi/crater.report/internal/testutil"
)

// newTestDB opens a fresh database in a temp directory and migrates it to
// the latest version. Cleanup closes it when the test finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenDB(testutil.TempDBPath(t))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})

	migrations, err := MigrationsFS()
	if err != nil {
		t.Fatalf("Failed to load migrations: %v", err)
	}
	if err := db.MigrateUp(migrations); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}
