package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ljmerza/chores/internal/model"
	"github.com/ljmerza/chores/internal/store"
)

// Slot is one (household, member) pair whose configured reminder time
// matches the current tick.
type Slot struct {
	Household model.Household
	Schedule  model.ReminderSchedule
}

// TickPlan is the schedule resolution result for one tick: the slots due
// right now, plus every user holding an active schedule anywhere. Scheduled
// users are excluded from the continuous due/overdue scan so the same
// condition never notifies twice.
type TickPlan struct {
	Slots     []Slot
	Scheduled map[int64]bool
}

// ScheduleResolver decides which members are due a digest at a given
// instant, evaluating each member's day-of-week time table in the
// household's time zone.
type ScheduleResolver struct {
	households *store.HouseholdStore
	schedules  *store.ScheduleStore

	// tolerance is half the tick cadence, so a slot can never fall between
	// two ticks unseen.
	tolerance time.Duration
	logger    *slog.Logger
}

func NewScheduleResolver(households *store.HouseholdStore, schedules *store.ScheduleStore, tolerance time.Duration, logger *slog.Logger) *ScheduleResolver {
	return &ScheduleResolver{
		households: households,
		schedules:  schedules,
		tolerance:  tolerance,
		logger:     logger,
	}
}

// DueNow resolves the plan for one tick. A household with a bad time zone is
// skipped and reported; it never aborts resolution for other households.
func (r *ScheduleResolver) DueNow(nowUTC time.Time) (TickPlan, error) {
	households, err := r.households.List()
	if err != nil {
		return TickPlan{}, fmt.Errorf("list households: %w", err)
	}

	plan := TickPlan{Scheduled: make(map[int64]bool)}
	for _, h := range households {
		schedules, err := r.schedules.ListActive(h.ID)
		if err != nil {
			r.logger.Error("list schedules", "household_id", h.ID, "error", err)
			continue
		}
		if len(schedules) == 0 {
			continue
		}
		for _, s := range schedules {
			plan.Scheduled[s.UserID] = true
		}

		loc, err := time.LoadLocation(h.TimeZone)
		if err != nil {
			r.logger.Error("unknown household time zone, skipping",
				"household_id", h.ID, "time_zone", h.TimeZone, "error", err)
			continue
		}

		nowLocal := nowUTC.In(loc)
		day := mondayIndex(nowLocal.Weekday())
		for _, s := range schedules {
			slot := s.TimeFor(day)
			if slot == "" {
				continue
			}
			if r.matches(nowLocal, slot) {
				plan.Slots = append(plan.Slots, Slot{Household: h, Schedule: s})
			}
		}
	}
	return plan, nil
}

// matches reports whether nowLocal falls within tolerance of today's "HH:MM"
// slot.
func (r *ScheduleResolver) matches(nowLocal time.Time, slot string) bool {
	t, err := time.Parse("15:04", slot)
	if err != nil {
		r.logger.Warn("malformed schedule time", "time", slot)
		return false
	}
	slotAt := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(),
		t.Hour(), t.Minute(), 0, 0, nowLocal.Location())

	diff := nowLocal.Sub(slotAt)
	if diff < 0 {
		diff = -diff
	}
	return diff <= r.tolerance
}

func mondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
