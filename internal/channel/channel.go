// Package channel defines the uniform sink interface the dispatch
// coordinator fans reminders out through, and one implementation per
// delivery channel. Sinks own transport details; the scheduler core only
// sees Send succeed or fail.
package channel

import (
	"context"
	"errors"
	"time"
)

// Channel names as stored in user/schedule channel-order lists.
const (
	Email         = "email"
	SMS           = "sms"
	Push          = "push"
	HomeAssistant = "homeassistant"
)

// DefaultOrder is the channel priority used when neither the schedule nor
// the user configures one.
var DefaultOrder = []string{Email, SMS, Push, HomeAssistant}

// ErrNotConfigured is returned when a sink is missing server-side
// credentials and cannot send at all.
var ErrNotConfigured = errors.New("channel not configured")

// ErrExpired is returned by the push sink when a subscription is no longer
// valid (410 Gone) and should be dropped.
var ErrExpired = errors.New("push subscription expired")

// sendTimeout bounds every outbound request so a slow provider cannot stall
// a scheduling tick.
const sendTimeout = 10 * time.Second

// Target carries the per-recipient contact endpoints a sink may need.
// A sink ignores fields it doesn't use; empty required fields mean the
// recipient is unreachable on that channel.
type Target struct {
	Email string
	Phone string // E.164

	PushEndpoint string
	PushP256dh   string
	PushAuth     string

	HABaseURL string
	HAToken   string
	HATarget  string // notify service suffix, e.g. mobile_app_pixel
}

// Message is the channel-independent reminder content.
type Message struct {
	Subject string
	Body    string
	Link    string
}

// Sink delivers a message to one recipient over one channel.
type Sink interface {
	// Name returns the channel name used in priority lists and dispatch
	// records.
	Name() string
	// Configured reports whether the sink has the server-side credentials
	// it needs.
	Configured() bool
	// Reachable reports whether the target has the contact info this
	// channel requires.
	Reachable(t Target) bool
	// Send delivers the message. Implementations bound the request with
	// their own timeout on top of ctx.
	Send(ctx context.Context, t Target, m Message) error
}
