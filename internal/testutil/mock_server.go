// Package testutil provides testing utilities for relaypoll.
package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// MockRelay is a configurable HTTP relay for client testing.
//
// GET /pending/<id> answers 200 while the job is not ready and 303 to
// /resp/<id> once it is. GET /resp/<id> serves the reply. Status and Body
// override both with a fixed answer; Abort drops the connection instead.
type MockRelay struct {
	Server *httptest.Server

	// Configuration
	Ready       bool          // Whether /pending/ redirects to the result
	Reply       string        // Body served at /resp/<id>
	PendingBody string        // Body served at /pending/<id> while not ready
	Status      int           // Fixed status for every GET (0 = normal relay behaviour)
	Body        string        // Body sent with Status
	Abort       bool          // Close the connection without a response
	Latency     time.Duration // Artificial latency per request
	Marker      string        // Result path prefix, default "/resp/"

	// Tracking
	RequestCount atomic.Int64
	PostCount    atomic.Int64
	mu           sync.Mutex
	submissions  []string

	CustomHandler http.HandlerFunc
}

// MockRelayOption is a function that configures a MockRelay.
type MockRelayOption func(*MockRelay)

// WithHandler sets a custom request handler.
func WithHandler(h http.HandlerFunc) MockRelayOption {
	return func(m *MockRelay) {
		m.CustomHandler = h
	}
}

// WithReady makes /pending/ redirect to the result.
func WithReady(ready bool) MockRelayOption {
	return func(m *MockRelay) {
		m.Ready = ready
	}
}

// WithReply sets the result body.
func WithReply(body string) MockRelayOption {
	return func(m *MockRelay) {
		m.Reply = body
	}
}

// WithStatus answers every GET with a fixed status and body.
func WithStatus(code int, body string) MockRelayOption {
	return func(m *MockRelay) {
		m.Status = code
		m.Body = body
	}
}

// WithAbort drops every GET connection without a response.
func WithAbort() MockRelayOption {
	return func(m *MockRelay) {
		m.Abort = true
	}
}

// WithLatency adds artificial latency per request.
func WithLatency(d time.Duration) MockRelayOption {
	return func(m *MockRelay) {
		m.Latency = d
	}
}

// WithMarker changes the result path prefix.
func WithMarker(marker string) MockRelayOption {
	return func(m *MockRelay) {
		m.Marker = marker
	}
}

func newMockRelay(opts []MockRelayOption) *MockRelay {
	m := &MockRelay{
		Reply:       "relay reply",
		PendingBody: "Still processing.",
		Marker:      "/resp/",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewMockRelay creates a new mock relay with the given options.
func NewMockRelay(opts ...MockRelayOption) *MockRelay {
	m := newMockRelay(opts)
	m.Server = NewHTTPServer(http.HandlerFunc(m.handleRequest))
	return m
}

// NewMockRelayT creates a new mock relay and skips the test if binding fails.
func NewMockRelayT(t *testing.T, opts ...MockRelayOption) *MockRelay {
	t.Helper()
	m := newMockRelay(opts)
	m.Server = NewHTTPServerT(t, http.HandlerFunc(m.handleRequest))
	t.Cleanup(m.Close)
	return m
}

// URL returns the server's URL.
func (m *MockRelay) URL() string {
	return m.Server.URL
}

// PendingURL returns the pending location of job id.
func (m *MockRelay) PendingURL(id string) string {
	return m.Server.URL + "/pending/" + id
}

// Close shuts down the mock relay.
func (m *MockRelay) Close() {
	if m.Server != nil {
		m.Server.Close()
	}
}

// SetReady flips the readiness of every job.
func (m *MockRelay) SetReady(ready bool) {
	m.mu.Lock()
	m.Ready = ready
	m.mu.Unlock()
}

// Submissions returns the bodies posted to /in.
func (m *MockRelay) Submissions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.submissions...)
}

func (m *MockRelay) handleRequest(w http.ResponseWriter, r *http.Request) {
	if m.CustomHandler != nil {
		m.CustomHandler(w, r)
		return
	}

	if m.Latency > 0 {
		time.Sleep(m.Latency)
	}

	if r.Method == http.MethodPost && r.URL.Path == "/in" {
		m.handleSubmit(w, r)
		return
	}

	m.RequestCount.Add(1)

	if m.Abort {
		hj, ok := w.(http.Hijacker)
		if !ok {
			panic(http.ErrAbortHandler)
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_ = conn.Close()
		}
		return
	}

	if m.Status != 0 {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(m.Status)
		_, _ = w.Write([]byte(m.Body))
		return
	}

	m.mu.Lock()
	ready := m.Ready
	m.mu.Unlock()

	switch {
	case strings.HasPrefix(r.URL.Path, "/pending/"):
		id := strings.TrimPrefix(r.URL.Path, "/pending/")
		if ready {
			http.Redirect(w, r, m.Marker+id, http.StatusSeeOther)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(m.PendingBody))
	case strings.HasPrefix(r.URL.Path, m.Marker):
		if !ready {
			http.Error(w, "Response not yet available.", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(m.Reply))
	default:
		http.NotFound(w, r)
	}
}

func (m *MockRelay) handleSubmit(w http.ResponseWriter, r *http.Request) {
	m.PostCount.Add(1)
	buf, _ := io.ReadAll(r.Body)
	if len(buf) == 0 {
		http.Error(w, "No useful payload.", http.StatusBadRequest)
		return
	}
	m.mu.Lock()
	m.submissions = append(m.submissions, string(buf))
	id := fmt.Sprintf("job-%d", len(m.submissions))
	m.mu.Unlock()

	w.Header().Set("Location", "/pending/"+id)
	w.WriteHeader(http.StatusAccepted)
}
