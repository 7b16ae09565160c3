package scheduler

import (
	"fmt"
	"time"

	"github.com/ljmerza/chores/internal/store"
)

// Gate decides whether a reminder may go out right now. Two independent
// suppressions apply, in order:
//
//  1. Quiet hours: a local-time window during which nothing proactive is
//     sent. Suppression here leaves cooldown state untouched, so the
//     reminder is retried at the next eligible slot instead of being lost.
//  2. Cooldown: a minimum interval between attempts for the same
//     (user, digest key). Attempts are recorded by the dispatcher, not the
//     gate, and on attempt rather than per-channel success, which bounds
//     worst-case send volume.
type Gate struct {
	records  *store.DispatchStore
	cooldown time.Duration

	// "HH:MM" local-time bounds; the window may cross midnight
	// (e.g. 22:00..07:00). Empty or equal bounds disable quiet hours.
	quietStart string
	quietEnd   string
}

func NewGate(records *store.DispatchStore, cooldown time.Duration, quietStart, quietEnd string) *Gate {
	return &Gate{
		records:    records,
		cooldown:   cooldown,
		quietStart: quietStart,
		quietEnd:   quietEnd,
	}
}

// Admit reports whether a reminder for (user, digestKey) may be sent at
// asOf. asOf must already be in the household's local time so quiet hours
// are evaluated correctly.
func (g *Gate) Admit(userID int64, digestKey string, asOf time.Time) (bool, error) {
	if g.inQuietHours(asOf) {
		return false, nil
	}

	last, ok, err := g.records.LastSent(userID, digestKey)
	if err != nil {
		return false, fmt.Errorf("check cooldown: %w", err)
	}
	if ok && asOf.Sub(last) < g.cooldown {
		return false, nil
	}
	return true, nil
}

func (g *Gate) inQuietHours(asOf time.Time) bool {
	start, okS := clockMinutes(g.quietStart)
	end, okE := clockMinutes(g.quietEnd)
	if !okS || !okE || start == end {
		return false
	}

	cur := asOf.Hour()*60 + asOf.Minute()
	if start < end {
		return cur >= start && cur < end
	}
	// Window crosses midnight.
	return cur >= start || cur < end
}

func clockMinutes(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
