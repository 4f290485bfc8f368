package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	popupWidth      = 56
	popupInnerWidth = popupWidth - 4 // border and padding

	gearLabel  = "[s]"
	closeLabel = "[x]"
)

// centerPopup places the popup in the middle of the terminal.
func (a *App) centerPopup() {
	a.popupX = max(0, (a.width-popupWidth)/2)
	a.popupY = max(0, (a.height-14)/2)
}

// clampPopup keeps the popup on screen after a resize or drag.
func (a *App) clampPopup() {
	a.popupX = clamp(a.popupX, 0, max(0, a.width-popupWidth))
	a.popupY = clamp(a.popupY, 0, max(0, a.height-4))
}

func (a *App) handlePopupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	req := a.ctrl.Request()

	switch msg.String() {
	case "esc":
		return a.cancelActive()

	case "ctrl+s":
		return a.openSettings()

	case "enter":
		if v := a.input.Value(); v != "" {
			return a.submitHuman(v)
		}
		if req != nil && len(req.PredefinedOptions) > 0 {
			return a.submitHuman(req.PredefinedOptions[a.optionIdx])
		}
		return a, nil

	case "up":
		if req != nil && len(req.PredefinedOptions) > 0 && a.optionIdx > 0 {
			a.optionIdx--
		}
		return a, nil

	case "down":
		if req != nil && a.optionIdx < len(req.PredefinedOptions)-1 {
			a.optionIdx++
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action == tea.MouseActionRelease {
		a.dragging = false
		return a, nil
	}
	if a.mode() != ModePopupActive {
		return a, nil
	}

	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if a.gearZone.Contains(msg.X, msg.Y) {
			return a.openSettings()
		}
		if a.closeZone.Contains(msg.X, msg.Y) {
			return a.cancelActive()
		}
		if StartsDrag(msg.X, msg.Y, a.headerZone, []Zone{a.gearZone, a.closeZone}) {
			a.dragging = true
			a.dragOffX = msg.X - a.popupX
			a.dragOffY = msg.Y - a.popupY
		}

	case msg.Action == tea.MouseActionMotion && a.dragging:
		a.popupX = msg.X - a.dragOffX
		a.popupY = msg.Y - a.dragOffY
		a.clampPopup()
	}
	return a, nil
}

func (a *App) viewPopup() string {
	req := a.ctrl.Request()
	if req == nil {
		return ""
	}

	var b strings.Builder

	// Header: title on the left, settings and close buttons on the right.
	// Zones are recorded here so mouse hit-testing matches what is drawn.
	title := lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Render("MCP Request")
	if req.IsMarkdown {
		title += " " + mutedStyle.Render("md")
	}
	buttons := gearLabel + " " + closeLabel
	pad := max(1, popupInnerWidth-lipgloss.Width(title)-len(buttons))
	b.WriteString(title)
	b.WriteString(strings.Repeat(" ", pad))
	b.WriteString(buttonStyle.Render(gearLabel) + " " + errorStyle.Render(closeLabel))
	b.WriteString("\n\n")

	a.headerZone = Zone{X: a.popupX + 1, Y: a.popupY + 1, W: popupWidth - 2, H: 1}
	a.gearZone = Zone{X: a.popupX + 2 + popupInnerWidth - 7, Y: a.popupY + 1, W: 3, H: 1}
	a.closeZone = Zone{X: a.popupX + 2 + popupInnerWidth - 3, Y: a.popupY + 1, W: 3, H: 1}

	// Message body, wrapped to the popup width.
	b.WriteString(lipgloss.NewStyle().Width(popupInnerWidth).Render(req.Message))
	b.WriteString("\n")

	if len(req.PredefinedOptions) > 0 {
		b.WriteString("\n")
		for i, opt := range req.PredefinedOptions {
			if i == a.optionIdx {
				b.WriteString(selectedStyle.Render(" ▸ "+opt) + "\n")
			} else {
				b.WriteString(mutedStyle.Render("   "+opt) + "\n")
			}
		}
	}

	b.WriteString("\n" + a.input.View() + "\n")

	if a.engine.Armed() == req.ID {
		remaining := a.engine.Remaining(time.Now()).Round(time.Second)
		b.WriteString(warningStyle.Render(fmt.Sprintf("⏱ auto-submit in %s", remaining)) + "\n")
	}

	b.WriteString(helpStyle.Render("enter: send · esc: cancel · ctrl+s: settings"))

	box := popupStyle.Width(popupWidth - 2).Render(b.String())
	return placeAt(a.popupX, a.popupY, box)
}

// placeAt positions a rendered block at (x, y) on an otherwise empty canvas.
func placeAt(x, y int, block string) string {
	indent := strings.Repeat(" ", x)
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Repeat("\n", y) + strings.Join(lines, "\n")
}

func formatSeconds(s int) string {
	return (time.Duration(s) * time.Second).String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
