// Package poll runs background fetches for the Bubble Tea UI.
//
// Task runs one query at a time off the UI loop and delivers exactly one Done
// message per run. Scheduler drives a Task on a fixed interval while its view
// is enabled. Streamer reads a build log incrementally, re-fetching a live
// log from the last offset until it stops growing.
//
// None of these types start goroutines. Work is expressed as tea.Cmd values
// and results come back through the program's Update loop, which is the only
// place their methods may be called from.
package poll
