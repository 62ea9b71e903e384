package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/foreman/internal/buildservice"
)

// Snapshot is the poll health and queue pressure shown in the status bar.
type Snapshot struct {
	WaitStats           []buildservice.WaitStat
	HasWaitStats        bool
	LastUpdated         time.Time
	LastError           error
	LastErrorSource     string // poll that produced LastError
	ConsecutiveFailures int    // failed polls in a row, across all views
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// WaitingJobs returns the total number of jobs waiting for a worker.
func (s Snapshot) WaitingJobs() int {
	n := 0
	for _, w := range s.WaitStats {
		n += w.Jobs
	}
	return n
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Record notes the outcome of one poll. Any success resets the failure
// streak; errors are kept with the name of the poll that raised them.
func (s *Store) Record(source string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(source, err)
}

func (s *Store) record(source string, err error) {
	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastErrorSource = source
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.LastError = nil
	s.snapshot.LastErrorSource = ""
	s.snapshot.ConsecutiveFailures = 0
}

// UpdateWaitStats replaces the wait statistics. When err is non-nil the
// previous statistics are kept but the failure is recorded.
func (s *Store) UpdateWaitStats(stats []buildservice.WaitStat, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		s.snapshot.WaitStats = cloneStats(stats)
		s.snapshot.HasWaitStats = true
	}
	s.record("waitstats", err)
}

// Reset clears everything, e.g. after switching to another server.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.WaitStats = cloneStats(s.snapshot.WaitStats)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneStats(stats []buildservice.WaitStat) []buildservice.WaitStat {
	if len(stats) == 0 {
		return nil
	}
	dup := make([]buildservice.WaitStat, len(stats))
	copy(dup, stats)
	return dup
}
