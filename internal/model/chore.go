package model

import "time"

// Assignment types control how a materialized instance picks its assignee.
const (
	AssignDirect   = "assigned" // always the chore's assigned_to
	AssignGlobal   = "global"   // unassigned, anyone may claim
	AssignRotating = "rotating" // round-robin across household members
)

type Chore struct {
	ID             int64     `json:"id"`
	HouseholdID    int64     `json:"household_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	AssignmentType string    `json:"assignment_type"`
	AssignedTo     *int64    `json:"assigned_to"`
	RecurrenceRule string    `json:"recurrence_rule"` // JSON payload, empty for one-off chores
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Instance statuses. Active statuses (available, claimed, in_progress) are
// the ones the reminder engine considers due or overdue.
const (
	InstanceAvailable  = "available"
	InstanceClaimed    = "claimed"
	InstanceInProgress = "in_progress"
	InstanceCompleted  = "completed"
	InstanceVerified   = "verified"
	InstanceExpired    = "expired"
)

// ActiveInstanceStatuses lists statuses eligible for reminders and expiry.
var ActiveInstanceStatuses = []string{InstanceAvailable, InstanceClaimed, InstanceInProgress}

// ChoreInstance is one materialized occurrence of a recurring chore.
// At most one instance exists per (chore, due date).
type ChoreInstance struct {
	ID         int64     `json:"id"`
	ChoreID    int64     `json:"chore_id"`
	AssignedTo *int64    `json:"assigned_to"`
	ClaimedBy  *int64    `json:"claimed_by"`
	Status     string    `json:"status"`
	DueDate    time.Time `json:"due_date"` // absolute instant, stored UTC
	CreatedAt  time.Time `json:"created_at"`
}

// AssignedUser returns the claimer if the instance was claimed, otherwise
// the assignee. Nil for unclaimed global instances.
func (i ChoreInstance) AssignedUser() *int64 {
	if i.ClaimedBy != nil {
		return i.ClaimedBy
	}
	return i.AssignedTo
}
