package store

import (
	"database/sql"
	"fmt"
	"time"
)

// DispatchStore persists last-send timestamps keyed by
// (user, digest key, channel). It backs the cooldown gate and is safe for
// concurrent upserts: each write is a single atomic statement.
type DispatchStore struct {
	db *sql.DB
}

func NewDispatchStore(db *sql.DB) *DispatchStore {
	return &DispatchStore{db: db}
}

// Record upserts the send timestamp for a dispatch attempt.
func (s *DispatchStore) Record(userID int64, digestKey, channel string, sentAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO dispatch_records (user_id, digest_key, channel, sent_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, digest_key, channel) DO UPDATE SET sent_at = excluded.sent_at`,
		userID, digestKey, channel, sentAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record dispatch: %w", err)
	}
	return nil
}

// LastSent returns the most recent send timestamp for (user, digest key)
// across all channels, or ok=false when no attempt was ever recorded.
func (s *DispatchStore) LastSent(userID int64, digestKey string) (time.Time, bool, error) {
	var sentAt time.Time
	err := s.db.QueryRow(
		`SELECT sent_at FROM dispatch_records WHERE user_id = ? AND digest_key = ? ORDER BY sent_at DESC LIMIT 1`,
		userID, digestKey,
	).Scan(&sentAt)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("last sent: %w", err)
	}
	return sentAt, true, nil
}

// Prune deletes records older than the cutoff. Run periodically so the table
// tracks only timestamps still inside a plausible cooldown window.
func (s *DispatchStore) Prune(olderThan time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM dispatch_records WHERE sent_at < ?`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune dispatch records: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
