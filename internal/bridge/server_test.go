package bridge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "pg-test.sock")
	s, err := NewServer(socketPath)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	s.Start()
	s.WaitReady()
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEnvelopeRoundTrip(t *testing.T) {
	msg := envelope{
		Request: &Request{
			ID:                "req-1",
			Message:           "Delete /tmp/scratch?",
			PredefinedOptions: []string{"Yes", "No"},
			IsMarkdown:        true,
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var got envelope
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if got.Request == nil {
		t.Fatal("Request is nil")
	}
	if got.Request.ID != "req-1" {
		t.Errorf("Request.ID = %q, want 'req-1'", got.Request.ID)
	}
	if len(got.Request.PredefinedOptions) != 2 {
		t.Errorf("Expected 2 options, got %d", len(got.Request.PredefinedOptions))
	}
	if !got.Request.IsMarkdown {
		t.Error("Expected IsMarkdown to be true")
	}
	if got.Response != nil {
		t.Error("Response should be nil")
	}
}

func TestServerDeliversAndReplies(t *testing.T) {
	s := newTestServer(t)

	// UI side: answer the first delivery.
	go func() {
		d := <-s.Deliveries()
		d.Reply <- Response{ID: d.Request.ID, Content: "go ahead", Accepted: true}
	}()

	c, err := Dial(s.SocketPath())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	resp, err := c.Send(Request{ID: "req-1", Message: "proceed?"}, 5*time.Second)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if resp.Content != "go ahead" {
		t.Errorf("Content = %q, want 'go ahead'", resp.Content)
	}
	if !resp.Accepted {
		t.Error("Expected Accepted to be true")
	}
}

func TestServerRejectsSecondInFlightRequest(t *testing.T) {
	s := newTestServer(t)

	// Hold the first request open while the second arrives.
	got := make(chan Delivery, 1)
	go func() {
		d := <-s.Deliveries()
		got <- d
	}()

	first, err := Dial(s.SocketPath())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer first.Close()

	firstDone := make(chan error, 1)
	go func() {
		_, err := first.Send(Request{ID: "req-1", Message: "first"}, 10*time.Second)
		firstDone <- err
	}()

	var d Delivery
	select {
	case d = <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for first delivery")
	}

	second, err := Dial(s.SocketPath())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer second.Close()

	resp, err := second.Send(Request{ID: "req-2", Message: "second"}, 5*time.Second)
	if err == nil {
		t.Fatal("Expected busy rejection for second request")
	}
	if resp.Error == "" {
		t.Error("Expected error message on busy response")
	}

	// First request still completes normally.
	d.Reply <- Response{ID: d.Request.ID, Content: "ok", Accepted: true}
	if err := <-firstDone; err != nil {
		t.Errorf("First request failed: %v", err)
	}
}

func TestServerAcceptsNextRequestAfterCompletion(t *testing.T) {
	s := newTestServer(t)

	go func() {
		for d := range s.Deliveries() {
			d.Reply <- Response{ID: d.Request.ID, Content: "ok", Accepted: true}
		}
	}()

	for i := 0; i < 3; i++ {
		c, err := Dial(s.SocketPath())
		if err != nil {
			t.Fatalf("Dial failed: %v", err)
		}
		resp, err := c.Send(Request{ID: "req", Message: "again"}, 5*time.Second)
		c.Close()
		if err != nil {
			t.Fatalf("Send %d failed: %v", i, err)
		}
		if !resp.Accepted {
			t.Errorf("Send %d: expected accepted response", i)
		}
	}
}

func TestIsRunning(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "pg-test.sock")
	if IsRunning(socketPath) {
		t.Error("IsRunning should be false before server starts")
	}

	s, err := NewServer(socketPath)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	s.Start()
	s.WaitReady()

	if !IsRunning(socketPath) {
		t.Error("IsRunning should be true while server is up")
	}

	s.Close()
	if _, err := os.Stat(socketPath); !os.IsNotExist(err) {
		t.Error("Socket file should be removed on close")
	}
}

func TestCloseReleasesDeliveriesConsumer(t *testing.T) {
	s := newTestServer(t)

	// Mirror the server-mode wiring: a forwarder ranging over Deliveries.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range s.Deliveries() {
		}
	}()

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Deliveries consumer still blocked after Close")
	}

	// Close is idempotent; the cleanup call must not panic or error.
	if err := s.Close(); err != nil {
		t.Errorf("Second Close = %v, want nil", err)
	}
}

func TestCloseAnswersPendingRequest(t *testing.T) {
	s := newTestServer(t)

	// Take the delivery but never reply, leaving the handler waiting.
	got := make(chan Delivery, 1)
	go func() {
		got <- <-s.Deliveries()
	}()

	c, err := Dial(s.SocketPath())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	sendDone := make(chan Response, 1)
	go func() {
		resp, _ := c.Send(Request{ID: "req-1", Message: "pending"}, 10*time.Second)
		sendDone <- resp
	}()

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for delivery")
	}

	closeDone := make(chan error, 1)
	go func() {
		closeDone <- s.Close()
	}()
	select {
	case <-closeDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on an unanswered request")
	}

	// The host side is unblocked, never accepted.
	select {
	case resp := <-sendDone:
		if resp.Accepted {
			t.Error("Request pending at shutdown must not be accepted")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Client still blocked after Close")
	}
}

func TestCancelled(t *testing.T) {
	resp := Cancelled("req-9")
	if resp.Accepted {
		t.Error("Cancelled response must not be accepted")
	}
	if resp.Content != CancelledContent {
		t.Errorf("Content = %q, want %q", resp.Content, CancelledContent)
	}
	if resp.ID != "req-9" {
		t.Errorf("ID = %q, want 'req-9'", resp.ID)
	}
}
