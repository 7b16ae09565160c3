package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// HomeAssistantSink calls a Home Assistant notify service
// (POST {base}/api/services/notify/{target}) with a long-lived access token.
// Base URL, token, and target come from the household, not server config, so
// the sink itself is always "configured"; reachability is per target.
type HomeAssistantSink struct {
	httpClient *http.Client
}

type HAOption func(*HomeAssistantSink)

func WithHAHTTPClient(c *http.Client) HAOption {
	return func(s *HomeAssistantSink) {
		s.httpClient = c
	}
}

func NewHomeAssistantSink(opts ...HAOption) *HomeAssistantSink {
	s := &HomeAssistantSink{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HomeAssistantSink) Name() string { return HomeAssistant }

func (s *HomeAssistantSink) Configured() bool { return true }

func (s *HomeAssistantSink) Reachable(t Target) bool {
	return t.HABaseURL != "" && t.HAToken != "" && t.HATarget != ""
}

type haNotifyPayload struct {
	Title   string         `json:"title,omitempty"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func (s *HomeAssistantSink) Send(ctx context.Context, t Target, m Message) error {
	if !s.Reachable(t) {
		return ErrNotConfigured
	}

	payload := haNotifyPayload{Title: m.Subject, Message: m.Body}
	if m.Link != "" {
		payload.Data = map[string]any{"url": m.Link}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notify payload: %w", err)
	}

	url := strings.TrimSuffix(t.HABaseURL, "/") + "/api/services/notify/" + t.HATarget

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build notify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.HAToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call home assistant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("home assistant returned %d", resp.StatusCode)
	}
	return nil
}
