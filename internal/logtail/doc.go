// Package logtail holds build log text for display.
//
// Buffer accumulates a log as it is streamed in arbitrary byte chunks and
// keeps a bounded number of lines. Tail extracts the last N lines from a
// reader with a ring buffer, for the headless log command. ColorizeLine
// highlights errors, warnings and rpmbuild sections with lipgloss styles;
// the elapsed-time stamp each build log line starts with is dimmed.
package logtail
