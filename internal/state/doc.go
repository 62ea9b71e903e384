// Package state tracks poll health for the status bar.
//
// Every view's completions are recorded in one Store, so a run of failures
// from any mix of polls counts toward the offline indicator, and a single
// success from any poll clears it. The Store also keeps the latest build
// queue wait statistics, which have no view of their own.
//
// Store is safe for concurrent use and its zero value is ready to use.
// Snapshot returns copies, so callers may keep or modify them freely.
package state
