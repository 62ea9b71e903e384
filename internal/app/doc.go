// Package app is the composition root of foreman.
//
// # Overview
//
// Run wires configuration, preferences, the server session and the UI
// together:
//
//  1. Load preferences from the configured prefs_path
//  2. Pick the start server (last used if still configured, else api_url)
//  3. Build the session and its first service client
//  4. Redirect the standard logger to log_file
//  5. Run the Bubble Tea UI until the user quits or the context ends
//  6. Save preferences changed in the UI
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> prefs.Load()        theme, last server, last project
//	       ├─────> session.New()       current endpoint + client
//	       ├─────> tea.LogToFile()     diagnostics off the terminal
//	       ├─────> ui.Run()            blocks until quit
//	       └─────> prefs.Save()
//
// Inside the UI, polling is driven by poll.Scheduler on the Bubble Tea loop.
// RunPoller is the headless counterpart used by the CLI --watch flags: it
// polls on a fixed interval, records each outcome in a state.Store and backs
// off exponentially (up to two minutes) while the service keeps failing.
//
// # Error Handling
//
// Fatal errors are returned from Run: an unusable api_url, an unwritable log
// file or a UI failure. Poll failures are never fatal; they surface in the
// status bar and the log.
package app
