package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/google/uuid"
)

// smsMaxBody keeps messages inside a couple of SMS segments; longer digest
// text is truncated and the action link appended afterward.
const smsMaxBody = 280

// SMSSink posts messages to a provider-agnostic SMS gateway: a JSON endpoint
// taking the destination number, body, and a client-generated reference ID
// for delivery tracking.
type SMSSink struct {
	gatewayURL string
	apiKey     string
	fromNumber string
	httpClient *http.Client
}

type SMSOption func(*SMSSink)

func WithSMSHTTPClient(c *http.Client) SMSOption {
	return func(s *SMSSink) {
		s.httpClient = c
	}
}

func NewSMSSink(gatewayURL, apiKey, fromNumber string, opts ...SMSOption) *SMSSink {
	s := &SMSSink{
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		fromNumber: fromNumber,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SMSSink) Name() string { return SMS }

func (s *SMSSink) Configured() bool { return s.gatewayURL != "" && s.apiKey != "" }

func (s *SMSSink) Reachable(t Target) bool { return t.Phone != "" }

type smsPayload struct {
	To        string `json:"to"`
	From      string `json:"from"`
	Body      string `json:"body"`
	Reference string `json:"reference"`
}

func (s *SMSSink) Send(ctx context.Context, t Target, m Message) error {
	if !s.Configured() {
		return ErrNotConfigured
	}

	body := m.Body
	if len(body) > smsMaxBody {
		cut := smsMaxBody - 1
		// Back up to a rune boundary so truncation never splits a character.
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "…"
	}
	if m.Link != "" {
		body += " " + m.Link
	}

	payload := smsPayload{
		To:        t.Phone,
		From:      s.fromNumber,
		Body:      body,
		Reference: uuid.NewString(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sms: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sms gateway returned %d", resp.StatusCode)
	}
	return nil
}
