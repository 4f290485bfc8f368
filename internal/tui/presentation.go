package tui

import "github.com/fentz26/promptgate/internal/lifecycle"

// Mode is the derived window presentation mode. It is computed from the
// lifecycle phase and loading flags on every render, never stored.
type Mode int

const (
	ModeLoading Mode = iota
	ModeSettingsPanel
	ModePopupActive
	ModeMainLayout
)

func (m Mode) String() string {
	switch m {
	case ModeLoading:
		return "loading"
	case ModeSettingsPanel:
		return "settings"
	case ModePopupActive:
		return "popup"
	case ModeMainLayout:
		return "main"
	default:
		return "unknown"
	}
}

// DeriveMode maps lifecycle state to a presentation mode. First match wins:
// the active popup, then the settings panel, then the loading skeleton
// (still initializing, or a request arrived before config and templates
// finished loading), then the main layout.
func DeriveMode(phase lifecycle.Phase, hasRequest, loaded, initializing bool) Mode {
	switch {
	case phase == lifecycle.PhaseAwaitingInput && hasRequest && loaded:
		return ModePopupActive
	case phase == lifecycle.PhaseSettingsOverlay:
		return ModeSettingsPanel
	case initializing || (hasRequest && !loaded):
		return ModeLoading
	default:
		return ModeMainLayout
	}
}

// Zone is a rectangular hit-test region in terminal cells.
type Zone struct {
	X, Y, W, H int
}

// Contains reports whether the cell (x, y) falls inside the zone.
func (z Zone) Contains(x, y int) bool {
	return z.W > 0 && z.H > 0 &&
		x >= z.X && x < z.X+z.W &&
		y >= z.Y && y < z.Y+z.H
}

// StartsDrag decides whether a primary pointer-down at (x, y) begins a
// window drag: it must land in the header region but not on any interactive
// control. The draggable region and the header buttons overlap visually, so
// without this guard the buttons would be unusable.
func StartsDrag(x, y int, header Zone, controls []Zone) bool {
	if !header.Contains(x, y) {
		return false
	}
	for _, c := range controls {
		if c.Contains(x, y) {
			return false
		}
	}
	return true
}
