package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// newHousehold creates a household owned by userID.
func newHousehold(t *testing.T, db *sql.DB, name, userID string) *model.Household {
	t.Helper()
	h, _, err := NewHouseholdStore(db).CreateWithOwner(context.Background(), name, userID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return h
}
