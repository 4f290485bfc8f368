// Package autosubmit owns the countdown that turns an unanswered request
// into a policy-synthesized response. The engine holds no timers of its own:
// the UI event loop drives it with ticks, and every operation is scoped to
// the request id the countdown was armed for, so a stale tick can never fire
// a response for the wrong request.
package autosubmit

import (
	"log/slog"
	"time"

	"github.com/fentz26/promptgate/internal/logger"
	"github.com/fentz26/promptgate/internal/models"
)

// Engine tracks at most one armed countdown. Not safe for concurrent use;
// the UI event loop is its only caller.
type Engine struct {
	armedID  string
	deadline time.Time
	log      *slog.Logger
}

// New creates a disarmed engine.
func New() *Engine {
	return &Engine{log: logger.With("component", "autosubmit")}
}

// Arm starts a countdown for requestID using the current config. Returns
// false (and stays disarmed) when auto-submission is disabled. Arming
// replaces any previous countdown.
func (e *Engine) Arm(requestID string, cfg models.AutoSubmitConfig, now time.Time) bool {
	if !cfg.Enabled {
		e.armedID = ""
		return false
	}
	cfg = cfg.Normalized()
	e.armedID = requestID
	e.deadline = now.Add(time.Duration(cfg.TimeoutSeconds) * time.Second)
	e.log.Info("armed", "id", requestID, "timeout_seconds", cfg.TimeoutSeconds)
	return true
}

// Disarm clears the countdown if it is armed for requestID. Idempotent; a
// disarm for a request that was never armed, or was already disarmed, is a
// no-op.
func (e *Engine) Disarm(requestID string) {
	if e.armedID == "" || e.armedID != requestID {
		return
	}
	e.log.Info("disarmed", "id", requestID)
	e.armedID = ""
}

// Armed reports the armed request id, or "" when disarmed.
func (e *Engine) Armed() string {
	return e.armedID
}

// Remaining returns the time left on the countdown, clamped at zero.
// Meaningful only while armed.
func (e *Engine) Remaining(now time.Time) time.Duration {
	if e.armedID == "" {
		return 0
	}
	d := e.deadline.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Expired reports whether the countdown armed for exactly requestID has
// passed its deadline. A tick carrying any other id — a stale timer from a
// completed or superseded request — is ignored. This check runs before every
// synthesis, not only at scheduling time.
func (e *Engine) Expired(requestID string, now time.Time) bool {
	if e.armedID == "" || e.armedID != requestID {
		return false
	}
	return !now.Before(e.deadline)
}

// Synthesize produces the auto-submitted prompt text for the configured
// source. continuePrompt is the built-in continuation text; templates are
// the currently loaded normal-kind templates. A custom id that no longer
// resolves falls back to the continue prompt rather than submitting empty
// content. Manual text is passed through verbatim — an empty manual prompt
// is valid operator input.
func Synthesize(cfg models.AutoSubmitConfig, continuePrompt string, templates []models.PromptTemplate) string {
	switch cfg.PromptSource {
	case models.PromptSourceManual:
		return cfg.ManualPrompt
	case models.PromptSourceCustom:
		for _, t := range templates {
			if t.Kind != models.TemplateKindNormal {
				continue
			}
			if t.ID == cfg.CustomPromptID {
				return t.Content
			}
		}
		// Template deleted out-of-band; degrade to the continue prompt.
		return continuePrompt
	default:
		return continuePrompt
	}
}
