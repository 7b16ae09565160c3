package store

import (
	"database/sql"
	"fmt"

	"github.com/ljmerza/chores/internal/model"
)

type ScheduleStore struct {
	db *sql.DB
}

func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

func scanSchedule(scanner interface{ Scan(...any) error }) (*model.ReminderSchedule, error) {
	var s model.ReminderSchedule
	var channelOrder string
	err := scanner.Scan(
		&s.ID, &s.HouseholdID, &s.UserID,
		&s.Times[0], &s.Times[1], &s.Times[2], &s.Times[3], &s.Times[4], &s.Times[5], &s.Times[6],
		&s.Active, &channelOrder, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.ChannelOrder = splitCSV(channelOrder)
	return &s, nil
}

const scheduleCols = `id, household_id, user_id, mon, tue, wed, thu, fri, sat, sun, active, channel_order, created_at, updated_at`

func (s *ScheduleStore) Get(householdID, userID int64) (*model.ReminderSchedule, error) {
	row := s.db.QueryRow(
		`SELECT `+scheduleCols+` FROM reminder_schedules WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	sched, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return sched, nil
}

// ListActive returns all active schedules for a household.
func (s *ScheduleStore) ListActive(householdID int64) ([]model.ReminderSchedule, error) {
	rows, err := s.db.Query(
		`SELECT `+scheduleCols+` FROM reminder_schedules WHERE household_id = ? AND active = 1 ORDER BY user_id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active schedules: %w", err)
	}
	defer rows.Close()

	var schedules []model.ReminderSchedule
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, *sched)
	}
	return schedules, rows.Err()
}

// Upsert writes the per-day time table and flags for a member's schedule.
func (s *ScheduleStore) Upsert(sched model.ReminderSchedule) (*model.ReminderSchedule, error) {
	_, err := s.db.Exec(
		`INSERT INTO reminder_schedules (household_id, user_id, mon, tue, wed, thu, fri, sat, sun, active, channel_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (household_id, user_id) DO UPDATE SET
		   mon = excluded.mon, tue = excluded.tue, wed = excluded.wed, thu = excluded.thu,
		   fri = excluded.fri, sat = excluded.sat, sun = excluded.sun,
		   active = excluded.active, channel_order = excluded.channel_order,
		   updated_at = CURRENT_TIMESTAMP`,
		sched.HouseholdID, sched.UserID,
		sched.Times[0], sched.Times[1], sched.Times[2], sched.Times[3], sched.Times[4], sched.Times[5], sched.Times[6],
		sched.Active, joinCSV(sched.ChannelOrder),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert schedule: %w", err)
	}
	return s.Get(sched.HouseholdID, sched.UserID)
}

func (s *ScheduleStore) SetActive(householdID, userID int64, active bool) error {
	_, err := s.db.Exec(
		`UPDATE reminder_schedules SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE household_id = ? AND user_id = ?`,
		active, householdID, userID,
	)
	if err != nil {
		return fmt.Errorf("set schedule active: %w", err)
	}
	return nil
}
