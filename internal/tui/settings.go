package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/promptgate/internal/models"
)

// Settings fields. Template and manual rows are only visible for their
// matching prompt source.
type settingsField int

const (
	fieldEnabled settingsField = iota
	fieldTimeout
	fieldSource
	fieldTemplate
	fieldManual
)

const timeoutStep = 5

// visibleSettingsFields returns the fields shown for the current config.
func (a *App) visibleSettingsFields() []settingsField {
	fields := []settingsField{fieldEnabled, fieldTimeout, fieldSource}
	switch a.asCfg.PromptSource {
	case models.PromptSourceCustom:
		fields = append(fields, fieldTemplate)
	case models.PromptSourceManual:
		fields = append(fields, fieldManual)
	}
	return fields
}

// syncManualFocus keeps the manual prompt input focused exactly when its
// row has keyboard focus.
func (a *App) syncManualFocus() {
	fields := a.visibleSettingsFields()
	a.settingsFocus = clamp(a.settingsFocus, 0, len(fields)-1)
	if fields[a.settingsFocus] == fieldManual {
		a.manualInput.Focus()
	} else {
		a.manualInput.Blur()
	}
}

func (a *App) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fields := a.visibleSettingsFields()
	a.settingsFocus = clamp(a.settingsFocus, 0, len(fields)-1)

	switch msg.String() {
	case "esc":
		a.ctrl.CloseSettings()
		return a, nil

	case "tab", "down":
		a.settingsFocus = (a.settingsFocus + 1) % len(fields)
		a.syncManualFocus()
		return a, nil

	case "shift+tab", "up":
		a.settingsFocus = (a.settingsFocus + len(fields) - 1) % len(fields)
		a.syncManualFocus()
		return a, nil
	}

	switch fields[a.settingsFocus] {
	case fieldEnabled:
		if s := msg.String(); s == " " || s == "enter" {
			a.asCfg.Enabled = !a.asCfg.Enabled
			return a, a.scheduleSave()
		}

	case fieldTimeout:
		switch msg.String() {
		case "left", "-":
			a.asCfg.TimeoutSeconds = clamp(a.asCfg.TimeoutSeconds-timeoutStep,
				models.MinTimeoutSeconds, models.MaxTimeoutSeconds)
			return a, a.scheduleSave()
		case "right", "+":
			a.asCfg.TimeoutSeconds = clamp(a.asCfg.TimeoutSeconds+timeoutStep,
				models.MinTimeoutSeconds, models.MaxTimeoutSeconds)
			return a, a.scheduleSave()
		}

	case fieldSource:
		switch msg.String() {
		case "left":
			a.asCfg.PromptSource = cycleSource(a.asCfg.PromptSource, -1)
		case "right":
			a.asCfg.PromptSource = cycleSource(a.asCfg.PromptSource, 1)
		default:
			return a, nil
		}
		a.syncManualFocus()
		if a.asCfg.PromptSource == models.PromptSourceManual {
			a.manualInput.SetValue(a.asCfg.ManualPrompt)
		}
		// Switching to a template source re-reads the template list so the
		// picker reflects out-of-band edits.
		if a.asCfg.PromptSource == models.PromptSourceCustom {
			return a, tea.Batch(a.scheduleSave(), a.loadTemplatesCmd())
		}
		return a, a.scheduleSave()

	case fieldTemplate:
		if len(a.templates) == 0 {
			return a, nil
		}
		idx := a.templateIndex()
		switch msg.String() {
		case "left":
			idx = (idx + len(a.templates) - 1) % len(a.templates)
		case "right":
			idx = (idx + 1) % len(a.templates)
		default:
			return a, nil
		}
		a.asCfg.CustomPromptID = a.templates[idx].ID
		return a, a.scheduleSave()

	case fieldManual:
		before := a.manualInput.Value()
		var cmd tea.Cmd
		a.manualInput, cmd = a.manualInput.Update(msg)
		if v := a.manualInput.Value(); v != before {
			a.asCfg.ManualPrompt = v
			return a, tea.Batch(cmd, a.scheduleSave())
		}
		return a, cmd
	}

	return a, nil
}

func (a *App) templateIndex() int {
	for i, t := range a.templates {
		if t.ID == a.asCfg.CustomPromptID {
			return i
		}
	}
	return 0
}

func cycleSource(s models.PromptSource, dir int) models.PromptSource {
	order := []models.PromptSource{
		models.PromptSourceContinue,
		models.PromptSourceCustom,
		models.PromptSourceManual,
	}
	for i, v := range order {
		if v == s {
			return order[(i+len(order)+dir)%len(order)]
		}
	}
	return models.PromptSourceContinue
}

func (a *App) viewSettings() string {
	fields := a.visibleSettingsFields()
	focus := clamp(a.settingsFocus, 0, len(fields)-1)

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Render("Auto-Submit Settings"))
	b.WriteString("\n\n")

	for i, f := range fields {
		cursor := "  "
		if i == focus {
			cursor = selectedStyle.Render("▸ ")
		}
		switch f {
		case fieldEnabled:
			v := "off"
			if a.asCfg.Enabled {
				v = successStyle.Render("on")
			}
			b.WriteString(fmt.Sprintf("%sEnabled     %s\n", cursor, v))
		case fieldTimeout:
			b.WriteString(fmt.Sprintf("%sTimeout     ◂ %s ▸\n", cursor, formatSeconds(a.asCfg.TimeoutSeconds)))
		case fieldSource:
			b.WriteString(fmt.Sprintf("%sSource      ◂ %s ▸\n", cursor, a.asCfg.PromptSource))
		case fieldTemplate:
			name := mutedStyle.Render("(no templates)")
			if len(a.templates) > 0 {
				name = a.templates[a.templateIndex()].Name
			}
			b.WriteString(fmt.Sprintf("%sTemplate    ◂ %s ▸\n", cursor, name))
		case fieldManual:
			b.WriteString(fmt.Sprintf("%sPrompt      %s\n", cursor, a.manualInput.View()))
		}
	}

	if a.ctrl.Request() != nil {
		b.WriteString("\n" + warningStyle.Render("A request is waiting behind this panel."))
	}
	b.WriteString("\n" + helpStyle.Render("tab/↑↓: field · ←→: change · esc: back"))

	return "\n" + panelStyle.Width(52).Render(b.String())
}
