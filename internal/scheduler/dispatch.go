package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ljmerza/chores/internal/channel"
	"github.com/ljmerza/chores/internal/model"
	"github.com/ljmerza/chores/internal/store"
)

// Outcome is the per-channel result of one dispatch.
type Outcome struct {
	Channel string
	Err     error
}

// Coordinator fans one reminder out to the user's configured channels. The
// in-app notification row is written first and unconditionally; external
// channels are attempted in priority order, each failure logged and
// isolated. Dispatch records are written on attempt, never retried within
// the same tick.
type Coordinator struct {
	notifications *store.NotificationStore
	households    *store.HouseholdStore
	records       *store.DispatchStore
	sinks         map[string]channel.Sink
	logger        *slog.Logger
}

func NewCoordinator(
	notifications *store.NotificationStore,
	households *store.HouseholdStore,
	records *store.DispatchStore,
	sinks []channel.Sink,
	logger *slog.Logger,
) *Coordinator {
	byName := make(map[string]channel.Sink, len(sinks))
	for _, s := range sinks {
		byName[s.Name()] = s
	}
	return &Coordinator{
		notifications: notifications,
		households:    households,
		records:       records,
		sinks:         byName,
		logger:        logger,
	}
}

// Dispatch delivers notif to the user. order overrides the channel priority
// when non-empty (schedule override first, then the user's own preference,
// then the default). The returned outcomes cover external channels only.
func (c *Coordinator) Dispatch(
	ctx context.Context,
	household model.Household,
	user model.User,
	digestKey string,
	order []string,
	notif model.Notification,
) ([]Outcome, error) {
	notif.UserID = user.ID
	notif.HouseholdID = household.ID
	if _, err := c.notifications.Create(notif); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	now := time.Now().UTC()
	if err := c.records.Record(user.ID, digestKey, "inapp", now); err != nil {
		c.logger.Error("record in-app dispatch", "user_id", user.ID, "error", err)
	}

	target := channel.Target{
		Email:        user.Email,
		Phone:        user.Phone,
		PushEndpoint: user.PushEndpoint,
		PushP256dh:   user.PushP256dh,
		PushAuth:     user.PushAuth,
		HABaseURL:    household.HABaseURL,
		HAToken:      household.HAToken,
		HATarget:     user.HATarget,
	}
	if target.HATarget == "" {
		target.HATarget = household.HADefaultTarget
	}

	msg := channel.Message{Subject: notif.Title, Body: notif.Message, Link: notif.Link}

	var outcomes []Outcome
	for _, name := range c.channelOrder(order, user) {
		sink, ok := c.sinks[name]
		if !ok || !sink.Configured() || !sink.Reachable(target) {
			continue
		}

		if err := c.records.Record(user.ID, digestKey, name, now); err != nil {
			c.logger.Error("record dispatch attempt",
				"user_id", user.ID, "channel", name, "error", err)
		}

		err := sink.Send(ctx, target, msg)
		outcomes = append(outcomes, Outcome{Channel: name, Err: err})
		if err == nil {
			continue
		}

		if errors.Is(err, channel.ErrExpired) {
			c.logger.Info("dropping expired push subscription", "user_id", user.ID)
			if cerr := c.households.ClearPushSubscription(user.ID); cerr != nil {
				c.logger.Error("clear push subscription", "user_id", user.ID, "error", cerr)
			}
			continue
		}
		c.logger.Error("channel dispatch failed",
			"user_id", user.ID, "household_id", household.ID, "channel", name, "error", err)
	}

	return outcomes, nil
}

func (c *Coordinator) channelOrder(override []string, user model.User) []string {
	if len(override) > 0 {
		return override
	}
	if len(user.ChannelOrder) > 0 {
		return user.ChannelOrder
	}
	return channel.DefaultOrder
}
