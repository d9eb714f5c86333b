package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"promokit/core"
)

// Sink posts engine signals to configured HTTP endpoints.
// It is synchronous for determinism; keep handlers fast or wrap with buffering if needed.
type Sink struct {
	client    *http.Client
	endpoints []string
	types     map[core.SignalType]bool
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

// WithTypes restricts delivery to the listed signal types. Without it every
// signal is delivered.
func WithTypes(types ...core.SignalType) Option {
	return func(s *Sink) {
		s.types = make(map[core.SignalType]bool, len(types))
		for _, t := range types {
			s.types[t] = true
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

// OnSignal posts the signal JSON to all endpoints; delivery failures are
// dropped rather than retried.
func (s *Sink) OnSignal(sig core.Signal) {
	if len(s.endpoints) == 0 {
		return
	}
	if s.types != nil && !s.types[sig.Type] {
		return
	}
	body, err := json.Marshal(sig)
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
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}
}
