package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ljmerza/chores/internal/model"
	"github.com/ljmerza/chores/internal/recurrence"
	"github.com/ljmerza/chores/internal/store"
)

// AssigneeResolver picks the assignee for the next instance of a rotating
// chore. seq is the zero-based position of the instance being created,
// counted across the chore's lifetime.
type AssigneeResolver interface {
	Resolve(chore model.Chore, seq int) (*int64, error)
}

// RoundRobinResolver walks the household's members in join order, so
// consecutive instances rotate through everyone.
type RoundRobinResolver struct {
	households *store.HouseholdStore
}

func NewRoundRobinResolver(households *store.HouseholdStore) *RoundRobinResolver {
	return &RoundRobinResolver{households: households}
}

func (r *RoundRobinResolver) Resolve(chore model.Chore, seq int) (*int64, error) {
	members, err := r.households.ListMembers(chore.HouseholdID)
	if err != nil {
		return nil, fmt.Errorf("list members for rotation: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}
	userID := members[seq%len(members)].UserID
	return &userID, nil
}

// Materializer turns generated recurrence dates into persisted instances.
// Re-running over the same horizon is a no-op for dates already materialized.
type Materializer struct {
	chores   *store.ChoreStore
	resolver AssigneeResolver
	logger   *slog.Logger
}

func NewMaterializer(chores *store.ChoreStore, resolver AssigneeResolver, logger *slog.Logger) *Materializer {
	return &Materializer{chores: chores, resolver: resolver, logger: logger}
}

// materializeConcurrency bounds how many chores are processed in parallel.
const materializeConcurrency = 4

// MaterializeAll runs one materialization pass over every active recurring
// chore. Chores are independent and processed in parallel; a failure in one
// chore is logged and does not stop the others.
func (m *Materializer) MaterializeAll(ctx context.Context, horizonStart, horizonEnd time.Time) int {
	chores, err := m.chores.ListActiveRecurring()
	if err != nil {
		m.logger.Error("list recurring chores", "error", err)
		return 0
	}

	created := make([]int, len(chores))
	var g errgroup.Group
	g.SetLimit(materializeConcurrency)
	for i, chore := range chores {
		g.Go(func() error {
			n, err := m.MaterializeChore(ctx, chore, horizonStart, horizonEnd)
			if err != nil {
				m.logger.Error("materialize chore", "chore_id", chore.ID, "error", err)
				return nil
			}
			created[i] = n
			return nil
		})
	}
	g.Wait()

	total := 0
	for _, n := range created {
		total += n
	}
	return total
}

// MaterializeChore creates missing instances for one chore inside the
// horizon, returning how many were created. Each chore is handled by a
// single goroutine per pass, and the unique (chore, due date) constraint
// backstops any overlap across passes.
func (m *Materializer) MaterializeChore(ctx context.Context, chore model.Chore, horizonStart, horizonEnd time.Time) (int, error) {
	rule, err := recurrence.Parse([]byte(chore.RecurrenceRule))
	if err != nil {
		// Rules are validated at save time; an invalid one here is bad data.
		return 0, fmt.Errorf("stored rule invalid: %w", err)
	}

	dates, err := recurrence.Generate(rule, horizonStart, horizonEnd)
	if err != nil {
		return 0, fmt.Errorf("generate dates: %w", err)
	}
	if len(dates) == 0 {
		return 0, nil
	}

	seq, err := m.chores.CountInstances(chore.ID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, due := range dates {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		assignee, err := m.assigneeFor(chore, seq+created)
		if err != nil {
			return created, err
		}

		ok, err := m.chores.InsertInstanceIfAbsent(chore.ID, assignee, due)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func (m *Materializer) assigneeFor(chore model.Chore, seq int) (*int64, error) {
	switch chore.AssignmentType {
	case model.AssignRotating:
		return m.resolver.Resolve(chore, seq)
	case model.AssignGlobal:
		return nil, nil
	default:
		return chore.AssignedTo, nil
	}
}
