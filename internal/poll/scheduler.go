package poll

import (
	"context"
	"errors"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultInterval is the refresh period used when none is configured.
const DefaultInterval = 10 * time.Second

// State is the scheduler's position in its refresh cycle.
type State int

const (
	Idle State = iota
	Scheduled
	InFlight
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case InFlight:
		return "in-flight"
	default:
		return "unknown"
	}
}

// TickMsg fires a scheduler's timer. Ticks whose Gen is not the scheduler's
// current generation are stale and ignored.
type TickMsg struct {
	Name string
	Gen  uint64
}

// Scheduler refreshes one view periodically while it is enabled. It keeps at
// most one query outstanding and owns no goroutines of its own: timers are
// tea.Tick commands and fetches are Task commands.
//
// All methods must be called from the Bubble Tea Update loop.
type Scheduler[T any] struct {
	name     string
	interval time.Duration
	ctx      context.Context
	query    Query[T]
	task     *Task[T]

	state   State
	enabled bool
	gen     uint64
	discard bool
}

// NewScheduler returns an idle, disabled scheduler. A non-positive interval
// selects DefaultInterval.
func NewScheduler[T any](ctx context.Context, name string, interval time.Duration, query Query[T]) *Scheduler[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler[T]{
		name:     name,
		interval: interval,
		ctx:      ctx,
		query:    query,
		task:     NewTask[T](name),
	}
}

// Name returns the scheduler name carried by its ticks and completions.
func (s *Scheduler[T]) Name() string { return s.name }

// State returns the current cycle state.
func (s *Scheduler[T]) State() State { return s.state }

// Enabled reports whether periodic refresh is on.
func (s *Scheduler[T]) Enabled() bool { return s.enabled }

// Interval returns the refresh period.
func (s *Scheduler[T]) Interval() time.Duration { return s.interval }

// SetQuery replaces the query used by future fetches, e.g. after the
// endpoint changed. The result of a fetch already in flight is discarded
// when it lands and the new query runs in its place.
func (s *Scheduler[T]) SetQuery(query Query[T]) {
	s.query = query
	if s.state == InFlight {
		s.discard = true
	}
}

// Enable turns periodic refresh on and arms the first tick when idle.
func (s *Scheduler[T]) Enable() tea.Cmd {
	if s.enabled {
		return nil
	}
	s.enabled = true
	if s.state != Idle {
		return nil
	}
	s.state = Scheduled
	return s.arm()
}

// Disable stops future ticks. A fetch in flight still completes but does not
// re-arm.
func (s *Scheduler[T]) Disable() {
	s.enabled = false
	s.gen++
	if s.state == Scheduled {
		s.state = Idle
	}
}

// Refresh fetches immediately unless a fetch is already in flight. A pending
// tick is superseded and the cycle restarts from the completion.
func (s *Scheduler[T]) Refresh() tea.Cmd {
	if s.state == InFlight {
		return nil
	}
	s.gen++
	return s.start()
}

// HandleTick starts a fetch for a current tick.
func (s *Scheduler[T]) HandleTick(msg TickMsg) tea.Cmd {
	if msg.Name != s.name || msg.Gen != s.gen {
		return nil
	}
	if !s.enabled || s.state != Scheduled {
		return nil
	}
	return s.start()
}

// HandleDone records a completion. It reports false for completions that
// belong to another scheduler or an older run, or that were made stale by
// SetQuery; otherwise the scheduler re-arms if still enabled and goes idle
// if not.
func (s *Scheduler[T]) HandleDone(d Done[T]) (bool, tea.Cmd) {
	if !s.task.Finish(d) {
		return false, nil
	}
	if s.discard {
		s.discard = false
		s.state = Idle
		if cmd := s.start(); cmd != nil {
			return false, cmd
		}
		if !s.enabled {
			return false, nil
		}
		s.state = Scheduled
		s.gen++
		return false, s.arm()
	}
	if !s.enabled {
		s.state = Idle
		return true, nil
	}
	s.state = Scheduled
	s.gen++
	return true, s.arm()
}

// Update routes the scheduler's own messages. It returns the completion when
// msg is a current Done for this scheduler so the caller can apply it.
func (s *Scheduler[T]) Update(msg tea.Msg) (*Done[T], tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		return nil, s.HandleTick(msg)
	case Done[T]:
		ok, cmd := s.HandleDone(msg)
		if !ok {
			return nil, nil
		}
		return &msg, cmd
	}
	return nil, nil
}

func (s *Scheduler[T]) start() tea.Cmd {
	if s.query == nil {
		return nil
	}
	cmd, err := s.task.Start(s.ctx, s.query)
	if err != nil {
		if !errors.Is(err, ErrBusy) {
			log.Printf("poll: %s: %v", s.name, err)
		}
		return nil
	}
	s.state = InFlight
	return cmd
}

func (s *Scheduler[T]) arm() tea.Cmd {
	name, gen := s.name, s.gen
	return tea.Tick(s.interval, func(time.Time) tea.Msg {
		return TickMsg{Name: name, Gen: gen}
	})
}
