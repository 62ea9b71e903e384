package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit         key.Binding
	Help         key.Binding
	CycleTheme   key.Binding
	Tab          key.Binding
	ShiftTab     key.Binding
	Escape       key.Binding
	Refresh      key.Binding
	SwitchServer key.Binding

	// View switching
	ViewProjects key.Binding
	ViewWorkers  key.Binding
	ViewRequests key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Left         key.Binding
	Right        key.Binding
	Top          key.Binding
	Bottom       key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Lists
	NextCategory key.Binding
	PrevCategory key.Binding
	Search       key.Binding
	Confirm      key.Binding

	// Projects
	PickProject   key.Binding
	ToggleWatched key.Binding
	CycleTarget   key.Binding
	ShowStatus    key.Binding
	ShowLog       key.Binding
	ShowHistory   key.Binding
	ShowCommits   key.Binding
	Rebuild       key.Binding
	RebuildFailed key.Binding
	Abort         key.Binding
	Watch         key.Binding
	ToggleFollow  key.Binding

	// Requests
	CycleSource      key.Binding
	CycleDestination key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next view"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous view"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r", "f5"),
			key.WithHelp("ctrl+r", "Refresh now"),
		),
		SwitchServer: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Switch server"),
		),

		ViewProjects: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Projects"),
		),
		ViewWorkers: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Workers"),
		),
		ViewRequests: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Requests"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/left", "Previous target"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/right", "Next target"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "Page down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Half page down"),
		),

		NextCategory: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "Next status tab"),
		),
		PrevCategory: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "Previous status tab"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),

		PickProject: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Pick project"),
		),
		ToggleWatched: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Watched/all projects"),
		),
		CycleTarget: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Cycle target filter"),
		),
		ShowStatus: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "Package status"),
		),
		ShowLog: key.NewBinding(
			key.WithKeys("enter", "L"),
			key.WithHelp("enter", "Build log"),
		),
		ShowHistory: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "Build history"),
		),
		ShowCommits: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Commit log"),
		),
		Rebuild: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Rebuild"),
		),
		RebuildFailed: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Rebuild failed"),
		),
		Abort: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Abort build"),
		),
		Watch: key.NewBinding(
			key.WithKeys("W"),
			key.WithHelp("W", "Watch/unwatch project"),
		),
		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle follow mode"),
		),

		CycleSource: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "Source project filter"),
		),
		CycleDestination: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "Target project filter"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ViewProjects, k.ViewWorkers, k.ViewRequests, k.SwitchServer},
		{k.Up, k.Down, k.Left, k.Right, k.Top, k.Bottom},
		{k.NextCategory, k.PrevCategory, k.Search, k.Refresh},
		{k.PickProject, k.ToggleWatched, k.CycleTarget, k.ShowStatus, k.ShowLog, k.ShowHistory, k.ShowCommits},
		{k.Rebuild, k.RebuildFailed, k.Abort, k.Watch, k.ToggleFollow},
		{k.CycleSource, k.CycleDestination},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
