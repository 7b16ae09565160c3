package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const postmarkAPIURL = "https://api.postmarkapp.com/email"

// EmailSink sends reminder emails through the Postmark HTTP API.
type EmailSink struct {
	serverToken string
	fromEmail   string
	apiURL      string
	httpClient  *http.Client
}

type EmailOption func(*EmailSink)

func WithEmailHTTPClient(c *http.Client) EmailOption {
	return func(s *EmailSink) {
		s.httpClient = c
	}
}

// WithEmailAPIURL overrides the Postmark endpoint, used in tests.
func WithEmailAPIURL(url string) EmailOption {
	return func(s *EmailSink) {
		s.apiURL = url
	}
}

func NewEmailSink(serverToken, fromEmail string, opts ...EmailOption) *EmailSink {
	s := &EmailSink{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		apiURL:      postmarkAPIURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EmailSink) Name() string { return Email }

func (s *EmailSink) Configured() bool { return s.serverToken != "" }

func (s *EmailSink) Reachable(t Target) bool { return t.Email != "" }

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

func (s *EmailSink) Send(ctx context.Context, t Target, m Message) error {
	if !s.Configured() {
		return ErrNotConfigured
	}

	textBody := m.Body
	htmlBody := fmt.Sprintf("<p>%s</p>", m.Body)
	if m.Link != "" {
		textBody += "\n\n" + m.Link
		htmlBody += fmt.Sprintf(`<p><a href="%s">Open your chore list</a></p>`, m.Link)
	}

	payload := postmarkEmail{
		From:     s.fromEmail,
		To:       t.Email,
		Subject:  m.Subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", s.serverToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("email provider returned %d", resp.StatusCode)
	}
	return nil
}
