// Package webhook forwards domain events to chat-platform webhook URLs so a
// channel gets notified when someone logs stats or a competition changes.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"fitcompkit/core"
)

// Sink posts domain events to configured HTTP endpoints.
// It is synchronous for determinism; wrap with the async event bus if the
// endpoints are slow.
type Sink struct {
	client    *http.Client
	endpoints []string
}

// Option configures a Sink.
type Option func(*Sink)

// WithClient overrides the HTTP client (defaults to 2s timeout).
func WithClient(c *http.Client) Option {
	return func(s *Sink) {
		if c != nil {
			s.client = c
		}
	}
}

// New creates a webhook sink.
func New(endpoints []string, opts ...Option) *Sink {
	s := &Sink{
		client: &http.Client{Timeout: 2 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.endpoints = append([]string{}, endpoints...)
	return s
}

// OnEvent posts the event JSON to all endpoints. Delivery is best effort;
// a dead endpoint must not break the command that triggered the event.
func (s *Sink) OnEvent(e core.Event) {
	if len(s.endpoints) == 0 {
		return
	}
	body, err := json.Marshal(e)
	if err != nil {
		return
	}
	for _, ep := range s.endpoints {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, ep, bytes.NewReader(body))
		if err != nil {
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.client.Do(req)
		if err != nil {
			continue
		}
		_ = resp.Body.Close()
	}
}
