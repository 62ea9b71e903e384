package ui

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/foreman/internal/poll"
	"github.com/five82/foreman/internal/prefs"
	"github.com/five82/foreman/internal/session"
	"github.com/five82/foreman/internal/state"
)

// View represents the current main tab.
type View int

const (
	ViewProjects View = iota
	ViewWorkers
	ViewRequests
)

// Options configures the UI.
type Options struct {
	Context         context.Context
	Session         *session.Session
	Store           *state.Store
	Prefs           prefs.Prefs
	PrefsPath       string
	RefreshInterval time.Duration
	LogStreamDelay  time.Duration
}

// Model is the root application state for Bubble Tea. Update is the only
// place view state changes; background work reports back as messages.
type Model struct {
	ctx       context.Context
	session   *session.Session
	store     *state.Store
	prefs     *prefs.Prefs
	prefsPath string
	keys      keyMap

	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	status    *statusLine
	statusBar *statusBar
	projects  *projectsView
	workers   *workersView
	requests  *requestsView
}

// New creates a new Bubble Tea model and registers its views with the
// session.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	interval := opts.RefreshInterval
	if interval <= 0 {
		interval = poll.DefaultInterval
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}

	p := opts.Prefs
	svc := opts.Session.Service()
	status := &statusLine{}
	m := Model{
		ctx:         ctx,
		session:     opts.Session,
		store:       store,
		prefs:       &p,
		prefsPath:   opts.PrefsPath,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(p.Theme),
		currentView: ViewProjects,
		status:      status,
		statusBar:   newStatusBar(ctx, svc, store, interval),
		projects:    newProjectsView(ctx, svc, store, status, &p, interval, opts.LogStreamDelay),
		workers:     newWorkersView(ctx, svc, store, status, interval),
		requests:    newRequestsView(ctx, svc, store, status, interval),
	}
	m.session.Register(m.statusBar)
	m.session.Register(m.projects)
	m.session.Register(m.workers)
	m.session.Register(m.requests)
	return m
}

// Prefs returns the preferences as changed during the session.
func (m Model) Prefs() prefs.Prefs {
	return *m.prefs
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.statusBar.start(), m.projects.activate())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.projects.resize(m.width, m.contentHeight())
	default:
		cmd = tea.Batch(
			m.statusBar.Update(msg),
			m.projects.Update(msg),
			m.workers.Update(msg),
			m.requests.Update(msg),
		)
	}
	m.projects.syncViewport(m.theme)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.statusBar.View(m.theme, m.width, m.status, m.session.URL()))
	return b.String()
}

func (m Model) contentHeight() int {
	return max(m.height-chromeHeight, 3)
}

// renderContent renders the active tab.
func (m Model) renderContent() string {
	h := m.contentHeight()
	switch m.currentView {
	case ViewWorkers:
		return m.workers.View(m.theme, m.width, h)
	case ViewRequests:
		return m.requests.View(m.theme, m.width, h)
	default:
		return m.projects.View(m.theme, m.width, h)
	}
}

// inputActive reports whether the active tab is capturing text.
func (m Model) inputActive() bool {
	switch m.currentView {
	case ViewWorkers:
		return m.workers.searching
	case ViewRequests:
		return m.requests.searching
	default:
		return m.projects.searching || m.projects.picker.open
	}
}

// handleKey processes global keys and hands the rest to the active tab.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.showHelp {
		m.showHelp = false
		return nil
	}
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}

	if !m.inputActive() {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return nil
		case key.Matches(msg, m.keys.CycleTheme):
			m.theme = GetTheme(NextTheme(m.theme.Name))
			m.prefs.Theme = m.theme.Name
			m.savePrefs()
			return nil
		case key.Matches(msg, m.keys.Tab):
			return m.switchView((m.currentView + 1) % 3)
		case key.Matches(msg, m.keys.ShiftTab):
			return m.switchView((m.currentView + 2) % 3)
		case key.Matches(msg, m.keys.ViewProjects):
			return m.switchView(ViewProjects)
		case key.Matches(msg, m.keys.ViewWorkers):
			return m.switchView(ViewWorkers)
		case key.Matches(msg, m.keys.ViewRequests):
			return m.switchView(ViewRequests)
		case key.Matches(msg, m.keys.SwitchServer):
			return m.switchServer()
		case key.Matches(msg, m.keys.Refresh):
			return tea.Batch(m.refreshActive(), m.statusBar.sched.Refresh())
		}
	}

	page := max(m.contentHeight()-6, 1)
	switch m.currentView {
	case ViewWorkers:
		return m.workers.handleKey(msg, m.keys, page)
	case ViewRequests:
		return m.requests.handleKey(msg, m.keys, page)
	default:
		return m.projects.handleKey(msg, m.keys, page)
	}
}

// switchView disables polling of the tab being left and refreshes the new
// one right away.
func (m *Model) switchView(v View) tea.Cmd {
	if v == m.currentView {
		return nil
	}
	switch m.currentView {
	case ViewWorkers:
		m.workers.deactivate()
	case ViewRequests:
		m.requests.deactivate()
	default:
		m.projects.deactivate()
	}
	m.currentView = v
	switch v {
	case ViewWorkers:
		return m.workers.activate()
	case ViewRequests:
		return m.requests.activate()
	default:
		return m.projects.activate()
	}
}

func (m *Model) refreshActive() tea.Cmd {
	switch m.currentView {
	case ViewWorkers:
		return m.workers.refresh()
	case ViewRequests:
		return m.requests.refresh()
	default:
		return m.projects.refresh()
	}
}

// switchServer moves every view to the next configured API server.
func (m *Model) switchServer() tea.Cmd {
	next := m.session.NextServer()
	if next == m.session.URL() {
		m.status.info("no other server configured")
		return nil
	}
	cmd, err := m.session.SetEndpoint(next)
	if err != nil {
		m.status.fail(err)
		return nil
	}
	m.prefs.LastAPIURL = next
	m.status.info("switched to %s", next)
	return cmd
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, *m.prefs); err != nil {
		log.Printf("ui: save prefs: %v", err)
	}
}

// Run starts the Bubble Tea program and returns the preferences as they
// were when it exited.
func Run(opts Options) (prefs.Prefs, error) {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		return fm.Prefs(), err
	}
	return m.Prefs(), err
}
