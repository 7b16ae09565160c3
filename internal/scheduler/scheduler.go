package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ljmerza/chores/internal/channel"
	"github.com/ljmerza/chores/internal/model"
	"github.com/ljmerza/chores/internal/store"
)

// Config carries the scheduling knobs; see the config package for the
// environment surface that feeds it.
type Config struct {
	HorizonDays     int
	LeadWindow      time.Duration
	Cooldown        time.Duration
	QuietHoursStart string
	QuietHoursEnd   string
	FastTick        time.Duration
	SlowTick        time.Duration
	ExpireOverdue   bool
	BaseURL         string
}

// householdConcurrency bounds parallel household processing within a tick.
const householdConcurrency = 4

// Scheduler drives the two periodic passes: a slow materialization tick and
// a fast reminder tick. Both run outside any request path. Households and
// chores are processed in parallel within a tick, each isolated so one
// failure never aborts the rest.
type Scheduler struct {
	mu  sync.RWMutex
	cfg Config

	households   *store.HouseholdStore
	schedules    *store.ScheduleStore
	chores       *store.ChoreStore
	records      *store.DispatchStore
	materializer *Materializer
	resolver     *ScheduleResolver
	digests      *DigestBuilder
	gate         *Gate
	coordinator  *Coordinator

	// hhLocks serializes a household against itself across overlapping
	// ticks; ticks as a whole are not serialized.
	hhLocks sync.Map

	cancel context.CancelFunc
	done   chan struct{}
	logger *slog.Logger
}

func New(
	cfg Config,
	households *store.HouseholdStore,
	schedules *store.ScheduleStore,
	chores *store.ChoreStore,
	notifications *store.NotificationStore,
	records *store.DispatchStore,
	sinks []channel.Sink,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		cfg:          cfg,
		households:   households,
		schedules:    schedules,
		chores:       chores,
		records:      records,
		materializer: NewMaterializer(chores, NewRoundRobinResolver(households), logger.With("component", "materializer")),
		resolver:     NewScheduleResolver(households, schedules, cfg.FastTick/2, logger.With("component", "resolver")),
		digests:      NewDigestBuilder(chores, cfg.LeadWindow, cfg.BaseURL),
		gate:         NewGate(records, cfg.Cooldown, cfg.QuietHoursStart, cfg.QuietHoursEnd),
		coordinator:  NewCoordinator(notifications, households, records, sinks, logger.With("component", "dispatch")),
		logger:       logger,
	}
}

// Start begins both tick loops. An initial materialization pass runs
// immediately so the first reminder tick has instances to look at.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)

		s.RunSlowTick(ctx, time.Now().UTC())

		fast := time.NewTicker(s.cfg.FastTick)
		defer fast.Stop()
		slow := time.NewTicker(s.cfg.SlowTick)
		defer slow.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-fast.C:
				s.RunFastTick(ctx, time.Now().UTC())
			case <-slow.C:
				s.RunSlowTick(ctx, time.Now().UTC())
			}
		}
	}()
}

// Stop cancels the tick loops and waits for the current tick to finish.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// RunSlowTick materializes instances for every active recurring chore over
// the configured horizon.
func (s *Scheduler) RunSlowTick(ctx context.Context, now time.Time) {
	horizonEnd := now.AddDate(0, 0, s.cfg.HorizonDays)
	created := s.materializer.MaterializeAll(ctx, now, horizonEnd)
	if created > 0 {
		s.logger.Info("materialized instances", "created", created, "horizon_days", s.cfg.HorizonDays)
	}
}

// RunFastTick runs one reminder pass: schedule resolution, digest dispatch
// for matched slots, the continuous scan for unscheduled members, optional
// expiry of stale instances, and dispatch-record pruning.
func (s *Scheduler) RunFastTick(ctx context.Context, now time.Time) {
	plan, err := s.resolver.DueNow(now)
	if err != nil {
		s.logger.Error("resolve schedules", "error", err)
		return
	}

	byHousehold := make(map[int64][]Slot)
	for _, slot := range plan.Slots {
		byHousehold[slot.Household.ID] = append(byHousehold[slot.Household.ID], slot)
	}

	var g errgroup.Group
	g.SetLimit(householdConcurrency)
	for _, slots := range byHousehold {
		g.Go(func() error {
			// Errors are contained per household.
			s.processHousehold(ctx, slots[0].Household, slots, now)
			return nil
		})
	}
	g.Wait()

	s.continuousScan(ctx, now, plan.Scheduled)

	if s.cfg.ExpireOverdue {
		expired, err := s.chores.ExpireOverdue(now.Add(-s.cfg.LeadWindow))
		if err != nil {
			s.logger.Error("expire overdue instances", "error", err)
		} else if expired > 0 {
			s.logger.Info("expired overdue instances", "count", expired)
		}
	}

	if _, err := s.records.Prune(now.Add(-2 * s.cfg.Cooldown)); err != nil {
		s.logger.Error("prune dispatch records", "error", err)
	}
}

// processHousehold builds and dispatches digests for every matched slot in
// one household, serialized against the same household in other ticks.
func (s *Scheduler) processHousehold(ctx context.Context, h model.Household, slots []Slot, now time.Time) {
	lock := s.householdLock(h.ID)
	lock.Lock()
	defer lock.Unlock()

	loc, err := time.LoadLocation(h.TimeZone)
	if err != nil {
		s.logger.Error("household time zone", "household_id", h.ID, "error", err)
		return
	}
	nowLocal := now.In(loc)

	for _, slot := range slots {
		userID := slot.Schedule.UserID

		digest, err := s.digests.Build(h, userID, now)
		if err != nil {
			s.logger.Error("build digest", "household_id", h.ID, "user_id", userID, "error", err)
			continue
		}
		if digest == nil {
			continue
		}

		admitted, err := s.gate.Admit(userID, DigestKeySlot, nowLocal)
		if err != nil {
			s.logger.Error("gate digest", "user_id", userID, "error", err)
			continue
		}
		if !admitted {
			continue
		}

		user, err := s.households.GetUser(userID)
		if err != nil || user == nil {
			s.logger.Error("load user for digest", "user_id", userID, "error", err)
			continue
		}

		notif := model.Notification{
			Type:    model.NotifDigest,
			Title:   digest.Subject(),
			Message: digest.Body(loc),
			Link:    digest.Link,
		}
		if _, err := s.coordinator.Dispatch(ctx, h, *user, DigestKeySlot, slot.Schedule.ChannelOrder, notif); err != nil {
			s.logger.Error("dispatch digest", "household_id", h.ID, "user_id", userID, "error", err)
		}
	}
}

// continuousScan covers members without an active reminder schedule: every
// tick, each of their due or overdue instances gets its own gated
// notification, keyed per instance.
func (s *Scheduler) continuousScan(ctx context.Context, now time.Time, scheduled map[int64]bool) {
	due, err := s.chores.ListDueAssigned(now.Add(s.cfg.LeadWindow))
	if err != nil {
		s.logger.Error("continuous scan", "error", err)
		return
	}

	type hhInfo struct {
		household *model.Household
		loc       *time.Location
	}
	cache := make(map[int64]*hhInfo)

	for _, inst := range due {
		userID := inst.AssignedUser()
		if userID == nil || scheduled[*userID] {
			continue
		}

		info, ok := cache[inst.HouseholdID]
		if !ok {
			h, err := s.households.GetByID(inst.HouseholdID)
			if err != nil || h == nil {
				s.logger.Error("load household", "household_id", inst.HouseholdID, "error", err)
				cache[inst.HouseholdID] = &hhInfo{}
				continue
			}
			loc, err := time.LoadLocation(h.TimeZone)
			if err != nil {
				s.logger.Error("household time zone", "household_id", h.ID, "error", err)
				cache[inst.HouseholdID] = &hhInfo{}
				continue
			}
			info = &hhInfo{household: h, loc: loc}
			cache[inst.HouseholdID] = info
		}
		if info.household == nil {
			continue
		}

		key := InstanceDigestKey(inst.ID)
		admitted, err := s.gate.Admit(*userID, key, now.In(info.loc))
		if err != nil {
			s.logger.Error("gate instance reminder", "instance_id", inst.ID, "error", err)
			continue
		}
		if !admitted {
			continue
		}

		user, err := s.households.GetUser(*userID)
		if err != nil || user == nil {
			s.logger.Error("load user", "user_id", *userID, "error", err)
			continue
		}

		overdue := !inst.DueDate.After(now)
		notifType := model.NotifChoreDue
		title := "Chore due soon"
		state := "due"
		if overdue {
			notifType = model.NotifChoreOverdue
			title = "Chore overdue"
			state = "overdue"
		}

		notif := model.Notification{
			Type:    notifType,
			Title:   title,
			Message: fmt.Sprintf("'%s' is %s (due %s).", inst.ChoreTitle, state, formatDue(inst.DueDate, info.loc)),
			Link:    fmt.Sprintf("%s/chores/%d/instances/%d", s.cfg.BaseURL, inst.ChoreID, inst.ID),
		}
		if _, err := s.coordinator.Dispatch(ctx, *info.household, *user, key, nil, notif); err != nil {
			s.logger.Error("dispatch instance reminder", "instance_id", inst.ID, "error", err)
		}
	}
}

func (s *Scheduler) householdLock(id int64) *sync.Mutex {
	v, _ := s.hhLocks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}
