package testutil

import (
	"testing"

	"github.com/tsg-Selina-Varshney/EMS/internal/database"
)

// NewTestDatabase creates a migrated in-memory state database on the fixed
// clock. The database is closed when the test completes.
func NewTestDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:", FixedClock())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}
