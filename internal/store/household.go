package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/ljmerza/chores/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(
		&h.ID, &h.Name, &h.TimeZone,
		&h.HABaseURL, &h.HAToken, &h.HADefaultTarget,
		&h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const householdCols = `id, name, time_zone, ha_base_url, ha_token, ha_default_target, created_at, updated_at`

func (s *HouseholdStore) Create(name, timeZone string) (*model.Household, error) {
	result, err := s.db.Exec(
		`INSERT INTO households (name, time_zone) VALUES (?, ?)`,
		name, timeZone,
	)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdStore) GetByID(id int64) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) List() ([]model.Household, error) {
	rows, err := s.db.Query(`SELECT ` + householdCols + ` FROM households ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	defer rows.Close()

	var households []model.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, *h)
	}
	return households, rows.Err()
}

func (s *HouseholdStore) SetHomeAssistant(id int64, baseURL, token, defaultTarget string) error {
	_, err := s.db.Exec(
		`UPDATE households SET ha_base_url = ?, ha_token = ?, ha_default_target = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		baseURL, token, defaultTarget, id,
	)
	if err != nil {
		return fmt.Errorf("update home assistant settings: %w", err)
	}
	return nil
}

// --- Membership methods ---

func scanMember(scanner interface{ Scan(...any) error }) (*model.HouseholdMember, error) {
	var m model.HouseholdMember
	err := scanner.Scan(&m.ID, &m.HouseholdID, &m.UserID, &m.Role, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const memberCols = `id, household_id, user_id, role, created_at`

// AddMember creates a membership and the member's default reminder schedule
// (18:00 every day) in one transaction.
func (s *HouseholdStore) AddMember(householdID, userID int64, role string) (*model.HouseholdMember, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO household_members (household_id, user_id, role) VALUES (?, ?, ?)`,
		householdID, userID, role,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	times := model.DefaultTimes()
	_, err = tx.Exec(
		`INSERT INTO reminder_schedules (household_id, user_id, mon, tue, wed, thu, fri, sat, sun, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		 ON CONFLICT (household_id, user_id) DO NOTHING`,
		householdID, userID,
		times[0], times[1], times[2], times[3], times[4], times[5], times[6],
	)
	if err != nil {
		return nil, fmt.Errorf("insert default schedule: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+memberCols+` FROM household_members WHERE id = ?`, id)
	return scanMember(row)
}

// RemoveMember deletes a membership and deactivates the member's schedule.
func (s *HouseholdStore) RemoveMember(householdID, userID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE reminder_schedules SET active = 0, updated_at = CURRENT_TIMESTAMP WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	); err != nil {
		return fmt.Errorf("deactivate schedule: %w", err)
	}
	return tx.Commit()
}

func (s *HouseholdStore) ListMembers(householdID int64) ([]model.HouseholdMember, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM household_members WHERE household_id = ? ORDER BY id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.HouseholdMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// --- User methods ---

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var channelOrder string
	err := scanner.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone,
		&u.PushEndpoint, &u.PushP256dh, &u.PushAuth,
		&u.HATarget, &channelOrder, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.ChannelOrder = splitCSV(channelOrder)
	return &u, nil
}

const userCols = `id, name, email, phone, push_endpoint, push_p256dh, push_auth, ha_target, channel_order, created_at`

func (s *HouseholdStore) CreateUser(u model.User) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (name, email, phone, push_endpoint, push_p256dh, push_auth, ha_target, channel_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.Phone, u.PushEndpoint, u.PushP256dh, u.PushAuth, u.HATarget, joinCSV(u.ChannelOrder),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetUser(id)
}

func (s *HouseholdStore) GetUser(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ClearPushSubscription drops a user's web push endpoint after the push
// service reports it gone.
func (s *HouseholdStore) ClearPushSubscription(userID int64) error {
	_, err := s.db.Exec(
		`UPDATE users SET push_endpoint = '', push_p256dh = '', push_auth = '' WHERE id = ?`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("clear push subscription: %w", err)
	}
	return nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func joinCSV(parts []string) string {
	return strings.Join(parts, ",")
}
