package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ljmerza/chores/internal/model"
	"github.com/ljmerza/chores/internal/recurrence"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var assignedTo sql.NullInt64

	err := scanner.Scan(
		&c.ID, &c.HouseholdID, &c.Title, &c.Description,
		&c.AssignmentType, &assignedTo, &c.RecurrenceRule, &c.Active,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if assignedTo.Valid {
		c.AssignedTo = &assignedTo.Int64
	}
	return &c, nil
}

const choreCols = `id, household_id, title, description, assignment_type, assigned_to, recurrence_rule, active, created_at, updated_at`

// Create validates the recurrence payload (when present) before persisting,
// so malformed rules are rejected at save time and never reach generation.
func (s *ChoreStore) Create(c model.Chore) (*model.Chore, error) {
	if c.RecurrenceRule != "" {
		if _, err := recurrence.Parse([]byte(c.RecurrenceRule)); err != nil {
			return nil, err
		}
	}

	var aTo sql.NullInt64
	if c.AssignedTo != nil {
		aTo = sql.NullInt64{Int64: *c.AssignedTo, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO chores (household_id, title, description, assignment_type, assigned_to, recurrence_rule, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.HouseholdID, c.Title, c.Description, c.AssignmentType, aTo, c.RecurrenceRule, c.Active,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) GetByID(id int64) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// UpdateRule replaces a chore's recurrence payload, validating it first.
func (s *ChoreStore) UpdateRule(id int64, rule string) error {
	if rule != "" {
		if _, err := recurrence.Parse([]byte(rule)); err != nil {
			return err
		}
	}
	_, err := s.db.Exec(
		`UPDATE chores SET recurrence_rule = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		rule, id,
	)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	return nil
}

func (s *ChoreStore) SetActive(id int64, active bool) error {
	_, err := s.db.Exec(
		`UPDATE chores SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		active, id,
	)
	if err != nil {
		return fmt.Errorf("set chore active: %w", err)
	}
	return nil
}

// ListActiveRecurring returns active chores carrying a recurrence rule,
// the materializer's work list.
func (s *ChoreStore) ListActiveRecurring() ([]model.Chore, error) {
	rows, err := s.db.Query(
		`SELECT ` + choreCols + ` FROM chores WHERE active = 1 AND recurrence_rule != '' ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list recurring chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) ListByHousehold(householdID int64) ([]model.Chore, error) {
	rows, err := s.db.Query(
		`SELECT `+choreCols+` FROM chores WHERE household_id = ? ORDER BY id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

// --- Instance methods ---

func scanInstance(scanner interface{ Scan(...any) error }) (*model.ChoreInstance, error) {
	var i model.ChoreInstance
	var assignedTo, claimedBy sql.NullInt64

	err := scanner.Scan(
		&i.ID, &i.ChoreID, &assignedTo, &claimedBy, &i.Status, &i.DueDate, &i.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if assignedTo.Valid {
		i.AssignedTo = &assignedTo.Int64
	}
	if claimedBy.Valid {
		i.ClaimedBy = &claimedBy.Int64
	}
	return &i, nil
}

const instanceCols = `id, chore_id, assigned_to, claimed_by, status, due_date, created_at`

// InsertInstanceIfAbsent creates an available instance for (chore, due date)
// unless one already exists. The UNIQUE constraint makes this safe under
// concurrent materialization runs; a conflict means already materialized.
func (s *ChoreStore) InsertInstanceIfAbsent(choreID int64, assignedTo *int64, dueDate time.Time) (bool, error) {
	var aTo sql.NullInt64
	if assignedTo != nil {
		aTo = sql.NullInt64{Int64: *assignedTo, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT OR IGNORE INTO chore_instances (chore_id, assigned_to, status, due_date) VALUES (?, ?, ?, ?)`,
		choreID, aTo, model.InstanceAvailable, dueDate.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("insert instance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *ChoreStore) GetInstance(id int64) (*model.ChoreInstance, error) {
	row := s.db.QueryRow(`SELECT `+instanceCols+` FROM chore_instances WHERE id = ?`, id)
	i, err := scanInstance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get instance: %w", err)
	}
	return i, nil
}

func (s *ChoreStore) ListInstances(choreID int64) ([]model.ChoreInstance, error) {
	rows, err := s.db.Query(
		`SELECT `+instanceCols+` FROM chore_instances WHERE chore_id = ? ORDER BY due_date ASC`,
		choreID,
	)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()

	var instances []model.ChoreInstance
	for rows.Next() {
		i, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		instances = append(instances, *i)
	}
	return instances, rows.Err()
}

// CountInstances returns how many instances exist for a chore, used by the
// rotating-assignment resolver to pick the next member in order.
func (s *ChoreStore) CountInstances(choreID int64) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM chore_instances WHERE chore_id = ?`, choreID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count instances: %w", err)
	}
	return n, nil
}

func (s *ChoreStore) UpdateInstanceStatus(id int64, status string) error {
	_, err := s.db.Exec(`UPDATE chore_instances SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update instance status: %w", err)
	}
	return nil
}

// DueInstance is an instance joined with the fields the reminder engine
// needs to build a digest line.
type DueInstance struct {
	model.ChoreInstance
	ChoreTitle     string
	HouseholdID    int64
	AssignmentType string
}

const dueInstanceQuery = `
SELECT ci.id, ci.chore_id, ci.assigned_to, ci.claimed_by, ci.status, ci.due_date, ci.created_at,
       c.title, c.household_id, c.assignment_type
FROM chore_instances ci
JOIN chores c ON c.id = ci.chore_id
WHERE ci.status IN ('available', 'claimed', 'in_progress')`

func scanDueInstance(scanner interface{ Scan(...any) error }) (*DueInstance, error) {
	var d DueInstance
	var assignedTo, claimedBy sql.NullInt64
	err := scanner.Scan(
		&d.ID, &d.ChoreID, &assignedTo, &claimedBy, &d.Status, &d.DueDate, &d.CreatedAt,
		&d.ChoreTitle, &d.HouseholdID, &d.AssignmentType,
	)
	if err != nil {
		return nil, err
	}
	if assignedTo.Valid {
		d.AssignedTo = &assignedTo.Int64
	}
	if claimedBy.Valid {
		d.ClaimedBy = &claimedBy.Int64
	}
	return &d, nil
}

// ListDueForUser returns active instances in the household that the user is
// responsible for (assigned or claimed) or could claim (unclaimed global),
// due on or before the cutoff.
func (s *ChoreStore) ListDueForUser(householdID, userID int64, before time.Time) ([]DueInstance, error) {
	rows, err := s.db.Query(
		dueInstanceQuery+`
		  AND c.household_id = ?
		  AND ci.due_date <= ?
		  AND (ci.claimed_by = ? OR ci.assigned_to = ?
		       OR (c.assignment_type = 'global' AND ci.claimed_by IS NULL AND ci.assigned_to IS NULL))
		ORDER BY ci.due_date ASC`,
		householdID, before.UTC(), userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list due for user: %w", err)
	}
	defer rows.Close()

	var due []DueInstance
	for rows.Next() {
		d, err := scanDueInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due instance: %w", err)
		}
		due = append(due, *d)
	}
	return due, rows.Err()
}

// ListDueAssigned returns all active instances due on or before the cutoff
// that have a responsible user, across households. The continuous scan for
// members without a reminder schedule is driven from this list.
func (s *ChoreStore) ListDueAssigned(before time.Time) ([]DueInstance, error) {
	rows, err := s.db.Query(
		dueInstanceQuery+`
		  AND ci.due_date <= ?
		  AND (ci.claimed_by IS NOT NULL OR ci.assigned_to IS NOT NULL)
		ORDER BY ci.due_date ASC`,
		before.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list due assigned: %w", err)
	}
	defer rows.Close()

	var due []DueInstance
	for rows.Next() {
		d, err := scanDueInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due instance: %w", err)
		}
		due = append(due, *d)
	}
	return due, rows.Err()
}

// ExpireOverdue flips active instances whose due date passed before the
// cutoff to expired, returning how many were flipped.
func (s *ChoreStore) ExpireOverdue(cutoff time.Time) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE chore_instances SET status = ?
		 WHERE status IN ('available', 'claimed', 'in_progress') AND due_date <= ?`,
		model.InstanceExpired, cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("expire overdue: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
