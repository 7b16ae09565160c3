package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// PushSink sends web push notifications using VAPID keys.
type PushSink struct {
	publicKey  string
	privateKey string
	subscriber string
}

func NewPushSink(vapidPublicKey, vapidPrivateKey, subscriber string) *PushSink {
	return &PushSink{
		publicKey:  vapidPublicKey,
		privateKey: vapidPrivateKey,
		subscriber: subscriber,
	}
}

func (s *PushSink) Name() string { return Push }

func (s *PushSink) Configured() bool { return s.publicKey != "" && s.privateKey != "" }

func (s *PushSink) Reachable(t Target) bool { return t.PushEndpoint != "" }

// VAPIDPublicKey returns the public key for client-side subscription.
func (s *PushSink) VAPIDPublicKey() string { return s.publicKey }

type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

func (s *PushSink) Send(ctx context.Context, t Target, m Message) error {
	if !s.Configured() {
		return ErrNotConfigured
	}

	data, err := json.Marshal(pushPayload{Title: m.Subject, Body: m.Body, URL: m.Link})
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	resp, err := webpush.SendNotificationWithContext(ctx, data, &webpush.Subscription{
		Endpoint: t.PushEndpoint,
		Keys: webpush.Keys{
			P256dh: t.PushP256dh,
			Auth:   t.PushAuth,
		},
	}, &webpush.Options{
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		Subscriber:      s.subscriber,
		TTL:             3600,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}
