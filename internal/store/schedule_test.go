package store

import (
	"testing"

	"github.com/ljmerza/chores/internal/model"
)

func TestScheduleUpsert(t *testing.T) {
	db := setupTestDB(t)
	hs := NewHouseholdStore(db)
	ss := NewScheduleStore(db)
	h := createTestHousehold(t, hs, "UTC")
	u := createTestUser(t, hs, "alice")

	sched, err := ss.Upsert(model.ReminderSchedule{
		HouseholdID:  h.ID,
		UserID:       u.ID,
		Times:        [7]string{"18:00", "18:00", "", "", "18:00", "10:00", "10:00"},
		Active:       true,
		ChannelOrder: []string{"email", "push"},
	})
	if err != nil {
		t.Fatalf("upsert schedule: %v", err)
	}
	if sched.TimeFor(2) != "" {
		t.Errorf("wed = %q, want empty", sched.TimeFor(2))
	}
	if sched.TimeFor(5) != "10:00" {
		t.Errorf("sat = %q, want %q", sched.TimeFor(5), "10:00")
	}
	if len(sched.ChannelOrder) != 2 || sched.ChannelOrder[0] != "email" {
		t.Errorf("channel order = %v, want [email push]", sched.ChannelOrder)
	}

	// Second upsert for the same (household, user) replaces in place.
	updated, err := ss.Upsert(model.ReminderSchedule{
		HouseholdID: h.ID,
		UserID:      u.ID,
		Times:       [7]string{"08:00", "", "", "", "", "", ""},
		Active:      true,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if updated.ID != sched.ID {
		t.Errorf("upsert created new row: id %d, want %d", updated.ID, sched.ID)
	}
	if updated.TimeFor(0) != "08:00" {
		t.Errorf("mon = %q, want %q", updated.TimeFor(0), "08:00")
	}
	if updated.TimeFor(1) != "" {
		t.Errorf("tue = %q, want empty", updated.TimeFor(1))
	}
}

func TestScheduleListActive(t *testing.T) {
	db := setupTestDB(t)
	hs := NewHouseholdStore(db)
	ss := NewScheduleStore(db)
	h := createTestHousehold(t, hs, "UTC")
	alice := createTestUser(t, hs, "alice")
	bob := createTestUser(t, hs, "bob")

	for _, uid := range []int64{alice.ID, bob.ID} {
		if _, err := ss.Upsert(model.ReminderSchedule{
			HouseholdID: h.ID, UserID: uid, Times: model.DefaultTimes(), Active: true,
		}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	if err := ss.SetActive(h.ID, bob.ID, false); err != nil {
		t.Fatalf("set inactive: %v", err)
	}

	active, err := ss.ListActive(h.ID)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("got %d active schedules, want 1", len(active))
	}
	if active[0].UserID != alice.ID {
		t.Errorf("user = %d, want %d", active[0].UserID, alice.ID)
	}
}

func TestScheduleGetNotFound(t *testing.T) {
	db := setupTestDB(t)
	ss := NewScheduleStore(db)

	sched, err := ss.Get(1, 1)
	if err != nil {
		t.Fatalf("get schedule: %v", err)
	}
	if sched != nil {
		t.Error("expected nil for missing schedule")
	}
}
