// Package tui provides the interactive terminal surface for promptgate: the
// main layout, the request popup, and the settings panel.
package tui

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/promptgate/internal/autosubmit"
	"github.com/fentz26/promptgate/internal/bridge"
	"github.com/fentz26/promptgate/internal/config"
	"github.com/fentz26/promptgate/internal/lifecycle"
	"github.com/fentz26/promptgate/internal/logger"
	"github.com/fentz26/promptgate/internal/models"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	popupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true)

	buttonStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor)
)

// Store is the persisted-configuration surface the TUI talks to.
type Store interface {
	GetAutoSubmitConfig() (models.AutoSubmitConfig, error)
	SetAutoSubmitConfig(models.AutoSubmitConfig) error
	ListPromptTemplates(models.TemplateKind) ([]models.PromptTemplate, error)
}

// App is the main TUI application model.
type App struct {
	cfg    *config.Config
	store  Store
	ctrl   *lifecycle.Controller
	engine *autosubmit.Engine
	log    *slog.Logger

	// Loaded state
	asCfg           models.AutoSubmitConfig
	templates       []models.PromptTemplate
	cfgLoaded       bool
	templatesLoaded bool
	initializing    bool

	// Popup surface
	input      textinput.Model
	optionIdx  int
	popupX     int
	popupY     int
	dragging   bool
	dragOffX   int
	dragOffY   int
	headerZone Zone
	gearZone   Zone
	closeZone  Zone

	// Settings surface
	settingsFocus int
	manualInput   textinput.Model
	saveSeq       int

	// One-shot mode: answer a single request and exit.
	oneShotReq *bridge.Request
	finalResp  *bridge.Response

	width   int
	height  int
	message string
}

// New creates the TUI application for server mode: requests arrive as
// RequestMsg values sent into the program by the bridge forwarder.
func New(cfg *config.Config, st Store) *App {
	ti := textinput.New()
	ti.Placeholder = "Type a response..."
	ti.CharLimit = 4096
	ti.Width = popupInnerWidth - 2

	mi := textinput.New()
	mi.Placeholder = "Auto-submit text..."
	mi.CharLimit = 4096
	mi.Width = 48

	return &App{
		cfg:          cfg,
		store:        st,
		ctrl:         lifecycle.New(),
		engine:       autosubmit.New(),
		log:          logger.With("component", "tui"),
		asCfg:        models.DefaultAutoSubmitConfig(),
		initializing: true,
		input:        ti,
		manualInput:  mi,
	}
}

// NewOneShot creates the TUI application for one-shot mode: req is injected
// at startup and the program quits once its response is produced.
func NewOneShot(cfg *config.Config, st Store, req bridge.Request) *App {
	a := New(cfg, st)
	a.oneShotReq = &req
	return a
}

// FinalResponse returns the response produced in one-shot mode, or nil if
// the program exited without one.
func (a *App) FinalResponse() *bridge.Response {
	return a.finalResp
}

// Program wraps the app in a Bubble Tea program with the standard options.
func (a *App) Program(opts ...tea.ProgramOption) *tea.Program {
	base := []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}
	return tea.NewProgram(a, append(base, opts...)...)
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		a.loadConfigCmd(),
		a.loadTemplatesCmd(),
	}
	if a.oneShotReq != nil {
		d := bridge.NewDelivery(*a.oneShotReq)
		cmds = append(cmds, func() tea.Msg { return RequestMsg{Delivery: d} })
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.MouseMsg:
		return a.handleMouse(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.clampPopup()
		return a, nil

	case RequestMsg:
		return a.handleRequest(msg.Delivery)

	case countdownTickMsg:
		return a.handleCountdownTick(msg)

	case saveTickMsg:
		// Debounced persistence: only the newest generation triggers a
		// write, so a burst of edits persists exactly once.
		if msg.seq != a.saveSeq {
			return a, nil
		}
		return a, a.saveConfigCmd()

	case configLoadedMsg:
		a.cfgLoaded = true
		if msg.err != nil {
			// Keep the compiled-in defaults; never block the UI on a failed read.
			a.log.Warn("config load failed, keeping defaults", "error", msg.err)
		} else {
			a.asCfg = msg.cfg
		}
		return a, a.finishLoad()

	case templatesLoadedMsg:
		a.templatesLoaded = true
		if msg.err != nil {
			a.log.Warn("template load failed", "error", msg.err)
		} else {
			// Last-write-wins: simply overwrite whatever was rendered.
			a.templates = msg.templates
		}
		return a, a.finishLoad()

	case configSavedMsg:
		if msg.err != nil {
			// Not retried; the in-memory config stays authoritative.
			a.log.Error("config save failed", "error", msg.err)
			a.message = "Save failed (changes kept for this session)"
		}
		return a, nil
	}

	// Cursor blink and other background messages for the focused input.
	var cmd tea.Cmd
	switch a.mode() {
	case ModePopupActive:
		a.input, cmd = a.input.Update(msg)
	case ModeSettingsPanel:
		a.manualInput, cmd = a.manualInput.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model
func (a *App) View() string {
	switch a.mode() {
	case ModeLoading:
		return a.viewLoading()
	case ModeSettingsPanel:
		return a.viewSettings()
	case ModePopupActive:
		return a.viewPopup()
	default:
		return a.viewMain()
	}
}

// mode derives the presentation mode from lifecycle state. Never stored.
func (a *App) mode() Mode {
	return DeriveMode(a.ctrl.Phase(), a.ctrl.Request() != nil, a.loaded(), a.initializing)
}

func (a *App) loaded() bool {
	return a.cfgLoaded && a.templatesLoaded
}

// finishLoad clears the initializing flag once both startup reads are done,
// and arms the countdown for a request that arrived while still loading.
func (a *App) finishLoad() tea.Cmd {
	if !a.loaded() {
		return nil
	}
	a.initializing = false
	if id := a.ctrl.ActiveRequestID(); id != "" && a.engine.Armed() == "" {
		if a.engine.Arm(id, a.asCfg, time.Now()) {
			return a.countdownTickCmd(id)
		}
	}
	return nil
}

func (a *App) handleRequest(d bridge.Delivery) (tea.Model, tea.Cmd) {
	if err := a.ctrl.Receive(d); err != nil {
		// The bridge already rejects concurrent requests; answer anyway so a
		// misbehaving host is never left hanging.
		d.Reply <- bridge.Response{ID: d.Request.ID, Error: "another request is already in flight"}
		return a, nil
	}

	a.input.SetValue("")
	a.input.Focus()
	a.optionIdx = 0
	a.message = ""
	a.centerPopup()

	if a.loaded() && a.engine.Arm(d.Request.ID, a.asCfg, time.Now()) {
		return a, a.countdownTickCmd(d.Request.ID)
	}
	return a, nil
}

func (a *App) handleCountdownTick(msg countdownTickMsg) (tea.Model, tea.Cmd) {
	if a.engine.Armed() != msg.id {
		// Stale timer from a completed or superseded request.
		return a, nil
	}
	if a.ctrl.ActiveRequestID() != msg.id {
		a.engine.Disarm(msg.id)
		return a, nil
	}
	if !a.engine.Expired(msg.id, time.Now()) {
		return a, a.countdownTickCmd(msg.id)
	}

	// Disarm before synthesis so a re-entrant tick can never fire twice.
	a.engine.Disarm(msg.id)
	content := autosubmit.Synthesize(a.asCfg, a.cfg.ContinuePrompt, a.templates)
	resp, err := a.ctrl.SubmitAuto(content)
	if err != nil {
		a.log.Error("auto-submit failed", "id", msg.id, "error", err)
		return a, nil
	}
	return a.finish(resp)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		if _, err := a.ctrl.Cancel(); err == nil {
			a.engine.Disarm(a.engine.Armed())
		}
		return a, tea.Quit
	}

	switch a.mode() {
	case ModePopupActive:
		return a.handlePopupKey(msg)
	case ModeSettingsPanel:
		return a.handleSettingsKey(msg)
	case ModeMainLayout:
		switch msg.String() {
		case "s", "enter":
			return a.openSettings()
		case "q":
			return a, tea.Quit
		}
	}
	return a, nil
}

// openSettings shows the settings surface and refreshes the template list;
// the pending request and its armed countdown, if any, are untouched.
func (a *App) openSettings() (tea.Model, tea.Cmd) {
	a.ctrl.OpenSettings()
	a.settingsFocus = 0
	a.manualInput.SetValue(a.asCfg.ManualPrompt)
	a.syncManualFocus()
	return a, a.loadTemplatesCmd()
}

// submitHuman completes the lifecycle with operator-typed content.
func (a *App) submitHuman(content string) (tea.Model, tea.Cmd) {
	id := a.ctrl.ActiveRequestID()
	resp, err := a.ctrl.SubmitHuman(content)
	if err != nil {
		return a, nil
	}
	a.engine.Disarm(id)
	return a.finish(resp)
}

// cancelActive completes the lifecycle with the cancellation response.
func (a *App) cancelActive() (tea.Model, tea.Cmd) {
	id := a.ctrl.ActiveRequestID()
	resp, err := a.ctrl.Cancel()
	if err != nil {
		return a, nil
	}
	a.engine.Disarm(id)
	return a.finish(resp)
}

// finish handles a completed request: quit in one-shot mode, otherwise stay
// up for the next request.
func (a *App) finish(resp bridge.Response) (tea.Model, tea.Cmd) {
	a.dragging = false
	if a.oneShotReq != nil {
		a.finalResp = &resp
		return a, tea.Quit
	}
	if resp.Auto {
		a.message = "Auto-submitted response"
	} else if resp.Accepted {
		a.message = "Response sent"
	} else {
		a.message = "Request cancelled"
	}
	return a, nil
}

func (a *App) loadConfigCmd() tea.Cmd {
	return func() tea.Msg {
		cfg, err := a.store.GetAutoSubmitConfig()
		return configLoadedMsg{cfg: cfg, err: err}
	}
}

func (a *App) loadTemplatesCmd() tea.Cmd {
	return func() tea.Msg {
		templates, err := a.store.ListPromptTemplates(models.TemplateKindNormal)
		return templatesLoadedMsg{templates: templates, err: err}
	}
}

func (a *App) saveConfigCmd() tea.Cmd {
	cfg := a.asCfg
	return func() tea.Msg {
		return configSavedMsg{err: a.store.SetAutoSubmitConfig(cfg)}
	}
}

// scheduleSave starts (or restarts) the debounce window for persisting the
// in-memory config. Every call invalidates older pending writes.
func (a *App) scheduleSave() tea.Cmd {
	a.saveSeq++
	seq := a.saveSeq
	return tea.Tick(a.cfg.DebounceInterval(), func(time.Time) tea.Msg {
		return saveTickMsg{seq: seq}
	})
}

func (a *App) countdownTickCmd(id string) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return countdownTickMsg{id: id}
	})
}

func (a *App) viewLoading() string {
	lines := "\n\n" + titleStyle.Render("PROMPTGATE") + "\n\n" +
		mutedStyle.Render("  ░░░░░░░░░░░░░░░░░░░░░░░░") + "\n" +
		mutedStyle.Render("  ░░░░░░░░░░░░░░░░") + "\n" +
		mutedStyle.Render("  ░░░░░░░░░░░░░░░░░░░░") + "\n\n" +
		helpStyle.Render("  Loading configuration...")
	return lines
}

func (a *App) viewMain() string {
	var status string
	if a.asCfg.Enabled {
		status = successStyle.Render("● auto-submit on") +
			mutedStyle.Render(" · "+a.autoSubmitSummary())
	} else {
		status = mutedStyle.Render("○ auto-submit off")
	}

	body := "\n" + titleStyle.Render("PROMPTGATE") + "  " +
		mutedStyle.Render("MCP confirmation surface") + "\n\n" +
		"  Listening for requests on:\n" +
		"  " + mutedStyle.Render(a.cfg.SocketPath) + "\n\n" +
		"  " + status + "\n"

	if a.message != "" {
		body += "\n  " + successStyle.Render(a.message) + "\n"
	}

	body += "\n" + helpStyle.Render("  s: settings · q: quit")
	return body
}

func (a *App) autoSubmitSummary() string {
	switch a.asCfg.PromptSource {
	case models.PromptSourceManual:
		return "manual prompt after " + formatSeconds(a.asCfg.TimeoutSeconds)
	case models.PromptSourceCustom:
		return "template after " + formatSeconds(a.asCfg.TimeoutSeconds)
	default:
		return "continue after " + formatSeconds(a.asCfg.TimeoutSeconds)
	}
}

type (
	// RequestMsg delivers a bridge request into the event loop. Exported so
	// the command wiring can p.Send it from the bridge forwarder goroutine.
	RequestMsg struct {
		Delivery bridge.Delivery
	}

	configLoadedMsg struct {
		cfg models.AutoSubmitConfig
		err error
	}

	templatesLoadedMsg struct {
		templates []models.PromptTemplate
		err       error
	}

	configSavedMsg struct {
		err error
	}

	saveTickMsg struct {
		seq int
	}

	countdownTickMsg struct {
		id string
	}
)
