package ui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/foreman/internal/buildservice"
	"github.com/five82/foreman/internal/prefs"
	"github.com/five82/foreman/internal/session"
	"github.com/five82/foreman/internal/state"
)

func newTestModel(t *testing.T, prefsPath string) (Model, map[string]*fakeService) {
	t.Helper()
	services := map[string]*fakeService{
		"https://api.one": {watched: []string{"devel:tools"}, matrix: testMatrix(t)},
		"https://api.two": {watched: []string{"home:bob"}, matrix: testMatrix(t)},
	}
	factory := func(opts buildservice.Options) (buildservice.Service, error) {
		return services[opts.APIURL], nil
	}
	sess, err := session.New(buildservice.Options{APIURL: "https://api.one", User: "alice"},
		[]string{"https://api.one", "https://api.two"}, factory)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	m := New(Options{
		Context:         context.Background(),
		Session:         sess,
		Store:           &state.Store{},
		Prefs:           prefs.Default(),
		PrefsPath:       prefsPath,
		RefreshInterval: time.Hour,
		LogStreamDelay:  time.Millisecond,
	})
	return m, services
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

func TestModel_RendersAfterResize(t *testing.T) {
	m, _ := newTestModel(t, "")
	if got := m.View(); got != "Loading..." {
		t.Fatalf("View before size = %q", got)
	}
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	view := m.View()
	for _, want := range []string{"Projects", "Workers", "Requests", "https://api.one"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestModel_SwitchesTabs(t *testing.T) {
	m, _ := newTestModel(t, "")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})

	m, cmd := update(t, m, keyPress("2"))
	if m.currentView != ViewWorkers {
		t.Fatalf("currentView = %v, want workers", m.currentView)
	}
	if cmd == nil {
		t.Fatal("switching to workers should refresh them")
	}
	if !m.workers.sched.Enabled() || m.projects.results.Enabled() {
		t.Fatal("only the active tab should poll")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.currentView != ViewRequests {
		t.Fatalf("currentView after tab = %v, want requests", m.currentView)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.currentView != ViewProjects {
		t.Fatalf("currentView after wrap = %v, want projects", m.currentView)
	}
}

func TestModel_SwitchServerNotifiesViews(t *testing.T) {
	m, _ := newTestModel(t, "")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	pump(t, func(msg tea.Msg) tea.Cmd {
		var cmd tea.Cmd
		m, cmd = update(t, m, msg)
		return cmd
	}, m.Init())
	if m.projects.project != "" || !m.projects.picker.open {
		t.Fatalf("expected the project picker on first start")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	m, cmd := update(t, m, keyPress("s"))
	if got := m.session.URL(); got != "https://api.two" {
		t.Fatalf("session URL = %q, want https://api.two", got)
	}
	if got := m.Prefs().LastAPIURL; got != "https://api.two" {
		t.Fatalf("LastAPIURL = %q, want https://api.two", got)
	}
	pump(t, func(msg tea.Msg) tea.Cmd {
		var next tea.Cmd
		m, next = update(t, m, msg)
		return next
	}, cmd)
	if names := m.projects.listing.Names; len(names) != 1 || names[0] != "home:bob" {
		t.Fatalf("projects after switch = %v, want [home:bob]", names)
	}
}

func TestModel_CycleThemeSavesPrefs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	m, _ := newTestModel(t, path)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})

	m, _ = update(t, m, keyPress("T"))
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	saved, err := prefs.Load(path)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if saved.Theme != "Kanagawa" {
		t.Fatalf("saved theme = %q, want Kanagawa", saved.Theme)
	}
}

func TestModel_HelpToggles(t *testing.T) {
	m, _ := newTestModel(t, "")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	m, _ = update(t, m, keyPress("?"))
	if !m.showHelp {
		t.Fatal("? should open help")
	}
	m, _ = update(t, m, keyPress("x"))
	if m.showHelp {
		t.Fatal("any key should close help")
	}
}
