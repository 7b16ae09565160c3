package store

import (
	"database/sql"
	"testing"

	"github.com/ljmerza/chores/internal/database"
	"github.com/ljmerza/chores/internal/model"
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

func createTestHousehold(t *testing.T, hs *HouseholdStore, timeZone string) *model.Household {
	t.Helper()
	h, err := hs.Create("Test Household", timeZone)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return h
}

func createTestUser(t *testing.T, hs *HouseholdStore, name string) *model.User {
	t.Helper()
	u, err := hs.CreateUser(model.User{Name: name, Email: name + "@example.com"})
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

const dailyRule = `{"pattern":"daily","startDate":"2024-04-01","dueTime":"09:00","daily":{"every":1}}`
