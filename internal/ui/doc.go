// Package ui provides the terminal user interface for foreman.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model.Update is the only place view state
// changes: every fetch runs as a tea.Cmd and reports back as a message
// (poll.Done, poll.TickMsg, log chunks), so views never need locks.
//
// # Package Structure
//
//   - model.go: root Model, global keys, tab switching and Run
//   - projects.go, projects_view.go: project picker, result matrix and the
//     status, log, history and commit panes
//   - workers.go, requests.go: list tabs built on listView
//   - statusbar.go: poll health, wait statistics and the last message
//   - theme.go, keys.go, layout.go, table.go, box.go: shared rendering
//
// # Refreshing
//
// Each list view owns a poll.Scheduler. Switching tabs disables the
// scheduler of the tab being left and refreshes the new one right away.
// Results carry the epoch or key they were requested for; a result that no
// longer matches the current project, package or server is dropped.
//
// # Servers
//
// Views register with session.Session. Switching servers (s) hands every
// view the new client; each one clears what it shows and fetches again.
//
// # Keyboard Shortcuts
//
// Global:
//   - 1/2/3, tab: Projects, Workers, Requests
//   - s: next configured server
//   - ctrl+r: refresh now
//   - T: cycle theme
//   - ?: help
//   - q: quit
//
// Projects:
//   - p: pick project, w: toggle watched/all projects
//   - [ ]: status tabs, t: target filter, /: package search
//   - i, enter, H, c: status, log, history and commit panes
//   - r, R, a: rebuild, rebuild failed, abort
//   - W: watch or unwatch the project
//
// Requests:
//   - S, D: source and destination project filter (All/Watched)
package ui
