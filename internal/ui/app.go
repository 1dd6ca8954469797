package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/courier/internal/logtail"
	"github.com/five82/courier/internal/prefs"
	"github.com/five82/courier/internal/state"
)

const (
	logTailLines  = 400
	actionTimeout = 15 * time.Second
)

// Actions are the backend calls the dashboard can trigger.
type Actions interface {
	RefreshRiderStatus(ctx context.Context) error
	ToggleRiderStatus(ctx context.Context) error
	RefreshRestaurants(ctx context.Context) error
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	App       string // "customer" or "rider"
	Actions   Actions
	Store     *state.Store
	LogPath   string
	PollTick  time.Duration
	ThemeName string
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	app       string
	actions   Actions
	store     *state.Store
	logPath   string
	prefsPath string
	pollTick  time.Duration

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	logs    viewport.Model

	theme  Theme
	width  int
	height int
	ready  bool

	snapshot    state.Snapshot
	lastRefresh time.Time

	busy      string // action in flight, empty when idle
	status    string
	statusErr bool

	follow   bool
	logLines []string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:       ctx,
		app:       opts.App,
		actions:   opts.Actions,
		store:     opts.Store,
		logPath:   opts.LogPath,
		prefsPath: prefsPath,
		pollTick:  pollTick,
		keys:      DefaultKeyMap().forApp(opts.App),
		help:      help.New(),
		spinner:   sp,
		theme:     GetTheme(opts.ThemeName),
		follow:    true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
		m.spinner.Tick,
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.logPath != "" {
		cmds = append(cmds, readLogsCmd(m.logPath))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resizeLogs()
		m.ready = true
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastRefresh = time.Now()
		return m, nil

	case logLinesMsg:
		m.logLines = []string(msg)
		m.refreshLogContent()
		return m, nil

	case actionMsg:
		m.busy = ""
		if msg.err != nil {
			m.status = msg.name + " failed: " + msg.err.Error()
			m.statusErr = true
		} else {
			m.status = msg.name + " done"
			m.statusErr = false
		}
		if m.store != nil {
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resizeLogs()
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.saveTheme()
		m.refreshLogContent()
		return m, nil

	case key.Matches(msg, m.keys.ToggleOnline):
		return m.startAction("toggle status", m.toggleRider)

	case key.Matches(msg, m.keys.Refresh):
		if m.app == "rider" {
			return m.startAction("refresh status", m.refreshRider)
		}
		return m.startAction("refresh restaurants", m.refreshRestaurants)

	case key.Matches(msg, m.keys.Up):
		m.follow = false
		m.logs.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.logs.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.follow = true
		m.logs.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keys.ToggleFollow):
		m.follow = !m.follow
		if m.follow {
			m.logs.GotoBottom()
		}
		return m, nil
	}
	return m, nil
}

func (m Model) startAction(name string, fn func(context.Context) error) (tea.Model, tea.Cmd) {
	if m.actions == nil || m.busy != "" {
		return m, nil
	}
	m.busy = name
	m.status = ""
	return m, runActionCmd(m.ctx, name, fn)
}

func (m Model) toggleRider(ctx context.Context) error { return m.actions.ToggleRiderStatus(ctx) }

func (m Model) refreshRider(ctx context.Context) error { return m.actions.RefreshRiderStatus(ctx) }

func (m Model) refreshRestaurants(ctx context.Context) error {
	return m.actions.RefreshRestaurants(ctx)
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.logPath != "" && m.follow {
		cmds = append(cmds, readLogsCmd(m.logPath))
	}
	return m, tea.Batch(cmds...)
}

// saveTheme persists the theme without touching the cached session.
func (m Model) saveTheme() {
	if m.prefsPath == "" {
		return
	}
	p, _ := prefs.Load(m.prefsPath)
	p.Theme = m.theme.Name
	_ = prefs.Save(m.prefsPath, p)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type logLinesMsg []string

type actionMsg struct {
	name string
	err  error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, logTailLines)
		if err != nil {
			return logLinesMsg{"unable to read log: " + err.Error()}
		}
		return logLinesMsg(lines)
	}
}

func runActionCmd(ctx context.Context, name string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		actionCtx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		return actionMsg{name: name, err: fn(actionCtx)}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, programOpts...)
	_, err := p.Run()
	if err != nil && opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}
