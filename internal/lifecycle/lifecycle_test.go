package lifecycle

import (
	"testing"

	"github.com/fentz26/promptgate/internal/bridge"
)

func receive(t *testing.T, c *Controller, id string) bridge.Delivery {
	t.Helper()
	d := bridge.NewDelivery(bridge.Request{ID: id, Message: "msg " + id})
	if err := c.Receive(d); err != nil {
		t.Fatalf("Receive(%s) failed: %v", id, err)
	}
	return d
}

func drainOne(t *testing.T, d bridge.Delivery) bridge.Response {
	t.Helper()
	select {
	case resp := <-d.Reply:
		return resp
	default:
		t.Fatal("Expected an emitted response")
		return bridge.Response{}
	}
}

func TestReceiveTransitionsToAwaitingInput(t *testing.T) {
	c := New()
	if c.Phase() != PhaseIdle {
		t.Fatalf("Phase = %v, want idle", c.Phase())
	}

	receive(t, c, "req-1")

	if c.Phase() != PhaseAwaitingInput {
		t.Errorf("Phase = %v, want awaiting_input", c.Phase())
	}
	if c.ActiveRequestID() != "req-1" {
		t.Errorf("ActiveRequestID = %q, want 'req-1'", c.ActiveRequestID())
	}
}

func TestReceiveRejectsDuplicateInFlight(t *testing.T) {
	c := New()
	receive(t, c, "req-1")

	d2 := bridge.NewDelivery(bridge.Request{ID: "req-2"})
	if err := c.Receive(d2); err != ErrRequestInFlight {
		t.Fatalf("Receive = %v, want ErrRequestInFlight", err)
	}
	// State untouched
	if c.ActiveRequestID() != "req-1" {
		t.Errorf("ActiveRequestID = %q, want 'req-1'", c.ActiveRequestID())
	}
}

func TestSubmitHumanEmitsExactlyOnce(t *testing.T) {
	c := New()
	d := receive(t, c, "req-1")

	resp, err := c.SubmitHuman("looks good")
	if err != nil {
		t.Fatalf("SubmitHuman failed: %v", err)
	}
	if !resp.Accepted || resp.Auto {
		t.Errorf("Expected accepted human response, got %+v", resp)
	}

	emitted := drainOne(t, d)
	if emitted.Content != "looks good" {
		t.Errorf("Content = %q, want 'looks good'", emitted.Content)
	}

	// Completion is terminal: a second submit has nothing to respond to.
	if _, err := c.SubmitHuman("again"); err != ErrNoActiveRequest {
		t.Errorf("Second submit = %v, want ErrNoActiveRequest", err)
	}
	select {
	case extra := <-d.Reply:
		t.Errorf("Unexpected second emission: %+v", extra)
	default:
	}
}

func TestSubmitResetsSynchronouslyToIdle(t *testing.T) {
	c := New()
	receive(t, c, "req-1")
	if _, err := c.SubmitHuman("done"); err != nil {
		t.Fatalf("SubmitHuman failed: %v", err)
	}
	if c.Phase() != PhaseIdle {
		t.Fatalf("Phase = %v, want idle immediately after submit", c.Phase())
	}

	// No gap: the next request is accepted right away.
	receive(t, c, "req-2")
	if c.ActiveRequestID() != "req-2" {
		t.Errorf("ActiveRequestID = %q, want 'req-2'", c.ActiveRequestID())
	}
}

func TestCancelEmitsCancelledResponse(t *testing.T) {
	c := New()
	d := receive(t, c, "req-1")

	resp, err := c.Cancel()
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if resp.Accepted {
		t.Error("Cancelled response must not be accepted")
	}
	if resp.Content != bridge.CancelledContent {
		t.Errorf("Content = %q, want %q", resp.Content, bridge.CancelledContent)
	}
	drainOne(t, d)
	if c.Phase() != PhaseIdle {
		t.Errorf("Phase = %v, want idle", c.Phase())
	}
}

func TestSubmitAutoSetsAutoFlag(t *testing.T) {
	c := New()
	d := receive(t, c, "req-1")

	resp, err := c.SubmitAuto("continue please")
	if err != nil {
		t.Fatalf("SubmitAuto failed: %v", err)
	}
	if !resp.Auto {
		t.Error("Expected Auto flag on synthesized response")
	}
	drainOne(t, d)
}

func TestSettingsOverlayPreservesPendingRequest(t *testing.T) {
	c := New()
	d := receive(t, c, "req-1")

	c.OpenSettings()
	if c.Phase() != PhaseSettingsOverlay {
		t.Fatalf("Phase = %v, want settings_overlay", c.Phase())
	}
	if c.ActiveRequestID() != "req-1" {
		t.Errorf("Pending request lost behind overlay")
	}

	c.CloseSettings()
	if c.Phase() != PhaseAwaitingInput {
		t.Errorf("Phase = %v, want awaiting_input after closing overlay", c.Phase())
	}

	// Submitting while the overlay is open is also valid.
	c.OpenSettings()
	if _, err := c.SubmitHuman("ok"); err != nil {
		t.Fatalf("SubmitHuman behind overlay failed: %v", err)
	}
	drainOne(t, d)
}

func TestSettingsOverlayFromIdle(t *testing.T) {
	c := New()
	c.OpenSettings()
	if c.Phase() != PhaseSettingsOverlay {
		t.Fatalf("Phase = %v, want settings_overlay", c.Phase())
	}
	c.CloseSettings()
	if c.Phase() != PhaseIdle {
		t.Errorf("Phase = %v, want idle", c.Phase())
	}
}

func TestReceiveDismissesIdleSettingsOverlay(t *testing.T) {
	c := New()
	c.OpenSettings() // main-layout settings, no request underneath

	receive(t, c, "req-1")
	if c.Phase() != PhaseAwaitingInput {
		t.Errorf("Phase = %v, want awaiting_input (overlay dismissed)", c.Phase())
	}
	if c.ActiveRequestID() != "req-1" {
		t.Errorf("ActiveRequestID = %q, want 'req-1'", c.ActiveRequestID())
	}
}

func TestReceiveRejectedWhileOverlayHasLiveRequest(t *testing.T) {
	c := New()
	receive(t, c, "req-1")
	c.OpenSettings()

	d2 := bridge.NewDelivery(bridge.Request{ID: "req-2"})
	if err := c.Receive(d2); err != ErrRequestInFlight {
		t.Fatalf("Receive = %v, want ErrRequestInFlight", err)
	}
	if c.Phase() != PhaseSettingsOverlay {
		t.Errorf("Phase = %v, overlay should survive rejected request", c.Phase())
	}
}

func TestAtMostOneResponsePerRequestSequences(t *testing.T) {
	// Exercise mixed sequences and count emissions per request.
	c := New()

	for i := 0; i < 5; i++ {
		d := receive(t, c, "req")
		c.OpenSettings()
		c.CloseSettings()
		var err error
		if i%2 == 0 {
			_, err = c.SubmitHuman("x")
		} else {
			_, err = c.Cancel()
		}
		if err != nil {
			t.Fatalf("Iteration %d: %v", i, err)
		}
		drainOne(t, d)
		select {
		case extra := <-d.Reply:
			t.Fatalf("Iteration %d: duplicate emission %+v", i, extra)
		default:
		}
		// Late calls after completion are rejected.
		if _, err := c.Cancel(); err != ErrNoActiveRequest {
			t.Fatalf("Iteration %d: late cancel = %v", i, err)
		}
	}
}
