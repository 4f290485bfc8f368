// Package lifecycle owns the state machine for one confirmation request:
// receipt, display, human or auto response, completion. All transitions are
// synchronous; side effects (response emission) happen only inside them.
package lifecycle

import (
	"errors"
	"log/slog"

	"github.com/fentz26/promptgate/internal/bridge"
	"github.com/fentz26/promptgate/internal/logger"
)

// Phase is the current lifecycle state.
type Phase int

const (
	// PhaseIdle: no request in flight.
	PhaseIdle Phase = iota
	// PhaseAwaitingInput: a request is displayed and waiting for a response.
	PhaseAwaitingInput
	// PhaseSettingsOverlay: the settings surface is open. A pending request,
	// if any, is preserved underneath.
	PhaseSettingsOverlay
	// PhaseCompleted: a response has been emitted. Transient; the controller
	// resets to PhaseIdle in the same transition so a new request can never
	// land in a gap between emission and reset.
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingInput:
		return "awaiting_input"
	case PhaseSettingsOverlay:
		return "settings_overlay"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

var (
	// ErrRequestInFlight is returned when a request arrives while another is
	// still live. The caller logs and drops it; state is untouched.
	ErrRequestInFlight = errors.New("a request is already in flight")
	// ErrNoActiveRequest is returned for a submit or cancel with nothing to
	// respond to.
	ErrNoActiveRequest = errors.New("no active request")
)

// Controller is the request lifecycle state machine. It is not safe for
// concurrent use; the UI event loop is its only caller.
type Controller struct {
	phase    Phase
	delivery *bridge.Delivery
	log      *slog.Logger
}

// New creates a controller in the idle phase.
func New() *Controller {
	return &Controller{
		phase: PhaseIdle,
		log:   logger.With("component", "lifecycle"),
	}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Request returns the live request, or nil.
func (c *Controller) Request() *bridge.Request {
	if c.delivery == nil {
		return nil
	}
	return &c.delivery.Request
}

// ActiveRequestID returns the id of the live request, or "". The timeout
// engine checks its armed token against this before synthesizing.
func (c *Controller) ActiveRequestID() string {
	if c.delivery == nil {
		return ""
	}
	return c.delivery.Request.ID
}

// Receive accepts a new request. Valid from Idle, or from SettingsOverlay
// when no request is pending underneath (the main-layout settings surface);
// in that case the overlay is dismissed. A request arriving while another is
// live is rejected without touching state.
func (c *Controller) Receive(d bridge.Delivery) error {
	if c.delivery != nil {
		c.log.Warn("dropping request, another is in flight",
			"id", d.Request.ID, "active", c.delivery.Request.ID)
		return ErrRequestInFlight
	}
	if c.phase == PhaseSettingsOverlay {
		c.log.Info("dismissing settings overlay for incoming request", "id", d.Request.ID)
	}
	c.delivery = &d
	c.phase = PhaseAwaitingInput
	c.log.Info("request received", "id", d.Request.ID)
	return nil
}

// SubmitHuman emits an accepted response typed by the user and completes the
// lifecycle.
func (c *Controller) SubmitHuman(content string) (bridge.Response, error) {
	return c.submit(content, false)
}

// SubmitAuto emits an accepted response synthesized by the timeout policy.
func (c *Controller) SubmitAuto(content string) (bridge.Response, error) {
	return c.submit(content, true)
}

func (c *Controller) submit(content string, auto bool) (bridge.Response, error) {
	if !c.canRespond() {
		return bridge.Response{}, ErrNoActiveRequest
	}
	resp := bridge.Response{
		ID:       c.delivery.Request.ID,
		Content:  content,
		Accepted: true,
		Auto:     auto,
	}
	c.complete(resp)
	return resp, nil
}

// Cancel emits the cancellation response and completes the lifecycle.
func (c *Controller) Cancel() (bridge.Response, error) {
	if !c.canRespond() {
		return bridge.Response{}, ErrNoActiveRequest
	}
	resp := bridge.Cancelled(c.delivery.Request.ID)
	c.complete(resp)
	return resp, nil
}

// canRespond reports whether a response may be produced now: awaiting input,
// or behind an open settings overlay with a live request.
func (c *Controller) canRespond() bool {
	if c.delivery == nil {
		return false
	}
	return c.phase == PhaseAwaitingInput || c.phase == PhaseSettingsOverlay
}

// complete emits the response exactly once and synchronously resets to Idle.
// Completion is terminal for this request instance.
func (c *Controller) complete(resp bridge.Response) {
	c.phase = PhaseCompleted
	c.delivery.Reply <- resp // buffered; never blocks
	c.log.Info("request completed", "id", resp.ID, "accepted", resp.Accepted, "auto", resp.Auto)
	c.delivery = nil
	c.phase = PhaseIdle
}

// OpenSettings shows the settings surface. From AwaitingInput the pending
// request and its armed timer are preserved; from Idle it is the main-layout
// settings panel.
func (c *Controller) OpenSettings() {
	if c.phase == PhaseIdle || c.phase == PhaseAwaitingInput {
		c.phase = PhaseSettingsOverlay
	}
}

// CloseSettings returns to the prior surface: the pending popup when a
// request is live, the main layout otherwise.
func (c *Controller) CloseSettings() {
	if c.phase != PhaseSettingsOverlay {
		return
	}
	if c.delivery != nil {
		c.phase = PhaseAwaitingInput
	} else {
		c.phase = PhaseIdle
	}
}
