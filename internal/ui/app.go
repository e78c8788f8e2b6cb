package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/five82/stint/internal/api"
	"github.com/five82/stint/internal/prefs"
	"github.com/five82/stint/internal/timer"
	"github.com/five82/stint/internal/workspace"
)

// Options configures the UI.
type Options struct {
	Context       context.Context
	Workspace     *workspace.Workspace
	User          api.User
	Organizations []api.Organization
	Prefs         prefs.Prefs
	PrefsPath     string
	Logger        *slog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	ws        *workspace.Workspace
	user      api.User
	orgs      []api.Organization
	prefs     prefs.Prefs
	prefsPath string
	logger    *slog.Logger
	keys      keyMap
	now       func() time.Time

	// UI state
	theme    Theme
	tables   []table
	current  int
	archived map[int]bool
	selected int
	width    int
	height   int
	ready    bool

	// Timer header
	timerDisplay string

	// Last action outcome shown in the footer
	status    string
	statusErr bool

	// Overlays
	showHelp bool
	modal    Modal
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	return Model{
		ctx:          ctx,
		ws:           opts.Workspace,
		user:         opts.User,
		orgs:         opts.Organizations,
		prefs:        opts.Prefs,
		prefsPath:    prefsPath,
		logger:       logger,
		keys:         DefaultKeyMap(),
		now:          time.Now,
		theme:        GetTheme(opts.Prefs.Theme),
		tables:       buildTables(opts.Workspace),
		archived:     make(map[int]bool),
		timerDisplay: opts.Workspace.Timer.Display(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(DefaultUIInterval),
		waitForTimer(m.ws.Timer.Ticks()),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tickMsg:
		// Views change underneath from refetches and timer events; redraw
		// and keep the cursor in range.
		m.clampSelection()
		return m, tickCmd(DefaultUIInterval)

	case timerMsg:
		m.timerDisplay = string(msg)
		return m, waitForTimer(m.ws.Timer.Ticks())

	case actionMsg:
		m.status = msg.label + " done"
		m.statusErr = msg.err != nil
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.label, msg.err)
			m.logger.Warn("action failed", "action", msg.label, "error", msg.err)
		}
		m.timerDisplay = m.ws.Timer.Display()
		m.clampSelection()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		m.modal = modal
		if done {
			m.modal = nil
		}
		return m, cmd
	}

	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit

	case key.Matches(msg, k.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, k.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
			m.logger.Warn("save prefs failed", "error", err)
		}
		return m, nil

	case key.Matches(msg, k.Tab):
		m.switchTab(1)
		return m, m.ensureLoaded()

	case key.Matches(msg, k.ShiftTab):
		m.switchTab(-1)
		return m, m.ensureLoaded()

	case key.Matches(msg, k.CycleOrg):
		return m.cycleOrganization()

	case key.Matches(msg, k.ToggleTimer):
		return m, m.toggleTimer()
	}

	return m.handleTableKey(msg)
}

// handleTableKey processes keyboard input for the current tab.
func (m Model) handleTableKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := m.tables[m.current]
	view := t.view(m.archived[m.current])
	l := t.list(view, m.now())
	k := m.keys

	switch {
	case key.Matches(msg, k.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, k.Down):
		if m.selected < len(l.ids)-1 {
			m.selected++
		}
	case key.Matches(msg, k.Top):
		m.selected = 0
	case key.Matches(msg, k.Bottom):
		m.selected = max(0, len(l.ids)-1)

	case key.Matches(msg, k.NextPage):
		if l.loaded && l.meta.HasNext() {
			m.selected = 0
			return m, m.run("load page", func(ctx context.Context) error {
				return t.load(ctx, view, l.meta.Page+1)
			})
		}
	case key.Matches(msg, k.PrevPage):
		if l.loaded && l.meta.HasPrev() {
			m.selected = 0
			return m, m.run("load page", func(ctx context.Context) error {
				return t.load(ctx, view, l.meta.Page-1)
			})
		}
	case key.Matches(msg, k.Reload):
		n := max(l.meta.Page, 1)
		return m, m.run("reload", func(ctx context.Context) error {
			return t.load(ctx, view, n)
		})

	case key.Matches(msg, k.ToggleArchived):
		if t.archivable {
			m.archived[m.current] = !m.archived[m.current]
			m.selected = 0
			return m, m.ensureLoaded()
		}

	case key.Matches(msg, k.Archive):
		id, ok := m.selectedID(l)
		if !ok || !t.archivable {
			return m, nil
		}
		toArchived := !m.archived[m.current]
		label := "archive"
		if !toArchived {
			label = "unarchive"
		}
		return m, m.run(label, func(ctx context.Context) error {
			return t.archive(ctx, id, toArchived)
		})

	case key.Matches(msg, k.Delete):
		id, ok := m.selectedID(l)
		if !ok {
			return m, nil
		}
		m.modal = confirmModal{
			prompt: fmt.Sprintf("Delete %s %s?", singular(t.title), l.rows[m.selected][0]),
			onConfirm: m.run("delete", func(ctx context.Context) error {
				return t.remove(ctx, id)
			}),
		}
	}

	return m, nil
}

func (m *Model) switchTab(delta int) {
	n := len(m.tables)
	m.current = ((m.current+delta)%n + n) % n
	m.selected = 0
}

// ensureLoaded fetches the first page of the current view when no page has
// been loaded for it yet.
func (m Model) ensureLoaded() tea.Cmd {
	t := m.tables[m.current]
	view := t.view(m.archived[m.current])
	if t.list(view, m.now()).loaded {
		return nil
	}
	return m.run("load", func(ctx context.Context) error {
		return t.load(ctx, view, 1)
	})
}

func (m *Model) clampSelection() {
	t := m.tables[m.current]
	l := t.list(t.view(m.archived[m.current]), m.now())
	m.selected = min(m.selected, max(0, len(l.ids)-1))
}

func (m Model) selectedID(l listing) (uuid.UUID, bool) {
	if m.selected < 0 || m.selected >= len(l.ids) {
		return uuid.Nil, false
	}
	return l.ids[m.selected], true
}

func (m Model) toggleTimer() tea.Cmd {
	if m.ws.Timer.State() == timer.Running {
		return m.run("stop timer", func(ctx context.Context) error {
			_, err := m.ws.StopTimer(ctx)
			return err
		})
	}
	return m.run("start timer", func(ctx context.Context) error {
		_, err := m.ws.StartTimer(ctx, api.TimeEntryRequest{})
		if errors.Is(err, workspace.ErrTimerRunning) {
			return nil
		}
		return err
	})
}

func (m Model) cycleOrganization() (tea.Model, tea.Cmd) {
	next, ok := nextOrganization(m.orgs, m.ws.Organization())
	if !ok {
		return m, nil
	}
	m.prefs = m.prefs.WithOrganization(next.ID)
	m.archived = make(map[int]bool)
	m.selected = 0
	saved := m.prefs
	path := m.prefsPath
	logger := m.logger
	return m, m.run("switch to "+next.Name, func(ctx context.Context) error {
		if err := prefs.Save(path, saved); err != nil {
			logger.Warn("save prefs failed", "error", err)
		}
		return m.ws.SwitchOrganization(ctx, next.ID)
	})
}

// nextOrganization returns the organization after current, wrapping around.
func nextOrganization(orgs []api.Organization, current uuid.UUID) (api.Organization, bool) {
	if len(orgs) < 2 {
		return api.Organization{}, false
	}
	for i, o := range orgs {
		if o.ID == current {
			return orgs[(i+1)%len(orgs)], true
		}
	}
	return orgs[0], true
}

func (m Model) organizationName() string {
	current := m.ws.Organization()
	for _, o := range m.orgs {
		if o.ID == current {
			return o.Name
		}
	}
	return current.String()
}

// Messages

type tickMsg time.Time

type timerMsg string

type actionMsg struct {
	label string
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForTimer delivers the next timer display published by the reconciler.
func waitForTimer(ticks <-chan string) tea.Cmd {
	return func() tea.Msg {
		display, ok := <-ticks
		if !ok {
			return nil
		}
		return timerMsg(display)
	}
}

// run executes fn off the update loop and reports its outcome.
func (m Model) run(label string, fn func(ctx context.Context) error) tea.Cmd {
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, ActionTimeout)
		defer cancel()
		return actionMsg{label: label, err: fn(ctx)}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
