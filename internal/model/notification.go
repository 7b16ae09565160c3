package model

import "time"

// Notification types written by the reminder engine.
const (
	NotifChoreDue     = "chore_due"
	NotifChoreOverdue = "chore_overdue"
	NotifDigest       = "digest"
)

// Notification is the persisted in-app record, written unconditionally on
// every dispatch attempt regardless of external channel outcomes.
type Notification struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	HouseholdID int64     `json:"household_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Link        string    `json:"link"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

// DispatchRecord marks the last send attempt for (user, digest key, channel).
// The cooldown gate consults it to suppress duplicate sends; rows are
// refreshed on every attempt and pruned once older than the cooldown window.
type DispatchRecord struct {
	UserID    int64     `json:"user_id"`
	DigestKey string    `json:"digest_key"`
	Channel   string    `json:"channel"`
	SentAt    time.Time `json:"sent_at"`
}
