package model

import "time"

// DefaultSendTime is applied to every day of a schedule auto-created when a
// membership is created.
const DefaultSendTime = "18:00"

// ReminderSchedule maps each day of the week to at most one send time for a
// household member. Day index 0 is Monday, 6 is Sunday; an empty slot means
// no send that day. Times are "HH:MM" in the household's time zone.
type ReminderSchedule struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	UserID      int64     `json:"user_id"`
	Times       [7]string `json:"times"`
	Active      bool      `json:"active"`

	// Optional per-schedule channel order override; empty falls back to the
	// user's own order, then the default.
	ChannelOrder []string `json:"channel_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TimeFor returns the configured send time for the given day-of-week
// (0=Monday), or "" when no send is scheduled that day.
func (s ReminderSchedule) TimeFor(day int) string {
	if day < 0 || day > 6 {
		return ""
	}
	return s.Times[day]
}

// DefaultTimes returns the day map used for auto-created schedules.
func DefaultTimes() [7]string {
	var t [7]string
	for i := range t {
		t[i] = DefaultSendTime
	}
	return t
}
