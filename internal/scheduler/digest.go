package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/ljmerza/chores/internal/model"
	"github.com/ljmerza/chores/internal/store"
)

// digestMaxItems caps the item list in a digest; the count still reflects
// everything selected.
const digestMaxItems = 10

// DigestKeySlot is the digest key for scheduled-slot digests. Continuous
// scan notifications use per-instance keys so the two policies never
// cross-suppress.
const DigestKeySlot = "digest-slot"

// InstanceDigestKey returns the cooldown key for a single-instance reminder.
func InstanceDigestKey(instanceID int64) string {
	return fmt.Sprintf("chore-instance-%d", instanceID)
}

// Digest is a batched reminder for one user: everything due soon or overdue
// at the time it was built.
type Digest struct {
	HouseholdID int64
	UserID      int64
	Total       int
	OverdueN    int
	Items       []DigestItem
	Link        string
}

type DigestItem struct {
	Title   string
	DueDate time.Time
	Overdue bool
}

// Subject returns the notification title for the digest.
func (d Digest) Subject() string {
	if d.OverdueN > 0 {
		return fmt.Sprintf("%d chores need attention (%d overdue)", d.Total, d.OverdueN)
	}
	if d.Total == 1 {
		return "1 chore due soon"
	}
	return fmt.Sprintf("%d chores due soon", d.Total)
}

// Body renders the item list, one line per chore, in the given zone.
func (d Digest) Body(loc *time.Location) string {
	var b strings.Builder
	for _, item := range d.Items {
		state := "due"
		if item.Overdue {
			state = "overdue"
		}
		fmt.Fprintf(&b, "%s - %s %s\n", item.Title, state, formatDue(item.DueDate, loc))
	}
	if d.Total > len(d.Items) {
		fmt.Fprintf(&b, "…and %d more\n", d.Total-len(d.Items))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatDue(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("Jan 02, 3:04 PM")
}

// DigestBuilder selects a user's due and overdue instances and assembles
// the digest payload. Items are due when their due date is inside the lead
// window and overdue once the due date has passed.
type DigestBuilder struct {
	chores     *store.ChoreStore
	leadWindow time.Duration
	baseURL    string
}

func NewDigestBuilder(chores *store.ChoreStore, leadWindow time.Duration, baseURL string) *DigestBuilder {
	return &DigestBuilder{chores: chores, leadWindow: leadWindow, baseURL: baseURL}
}

// Build returns the digest for (household, user) as of the given instant, or
// nil when the user has nothing due or overdue.
func (b *DigestBuilder) Build(household model.Household, userID int64, asOf time.Time) (*Digest, error) {
	due, err := b.chores.ListDueForUser(household.ID, userID, asOf.Add(b.leadWindow))
	if err != nil {
		return nil, fmt.Errorf("select due instances: %w", err)
	}
	if len(due) == 0 {
		return nil, nil
	}

	d := &Digest{
		HouseholdID: household.ID,
		UserID:      userID,
		Total:       len(due),
		Link:        b.baseURL + "/chores",
	}
	for _, inst := range due {
		overdue := !inst.DueDate.After(asOf)
		if overdue {
			d.OverdueN++
		}
		if len(d.Items) < digestMaxItems {
			d.Items = append(d.Items, DigestItem{
				Title:   inst.ChoreTitle,
				DueDate: inst.DueDate,
				Overdue: overdue,
			})
		}
	}
	return d, nil
}
