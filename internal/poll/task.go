package poll

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrBusy is returned by Task.Start while a previous query is outstanding.
var ErrBusy = errors.New("poll: task already running")

// Query is the blocking work a Task runs off the UI loop.
type Query[T any] func(ctx context.Context) (T, error)

// Done is the single completion message a Task run produces. Value and Err
// are fully populated before the message is delivered.
type Done[T any] struct {
	Task  string
	Seq   uint64
	Value T
	Err   error
}

// Task runs one query at a time in the background and reports the outcome
// as a Done message to the Bubble Tea loop.
type Task[T any] struct {
	name string

	mu       sync.Mutex
	inFlight bool
	seq      uint64
}

// NewTask returns an idle task. name identifies its completions.
func NewTask[T any](name string) *Task[T] {
	return &Task[T]{name: name}
}

// Name returns the name given to NewTask.
func (t *Task[T]) Name() string {
	return t.name
}

// Running reports whether a started query has not been finished yet.
func (t *Task[T]) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight
}

// Start marks the task in flight and returns the command that runs query.
// It fails with ErrBusy when the previous run has not been finished.
func (t *Task[T]) Start(ctx context.Context, query Query[T]) (tea.Cmd, error) {
	if query == nil {
		return nil, fmt.Errorf("poll: %s: nil query", t.name)
	}
	t.mu.Lock()
	if t.inFlight {
		t.mu.Unlock()
		return nil, ErrBusy
	}
	t.inFlight = true
	t.seq++
	seq := t.seq
	t.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	name := t.name
	return func() tea.Msg {
		return run(ctx, name, seq, query)
	}, nil
}

// Finish clears the in-flight flag for a completion and reports whether it
// belongs to this task's latest run.
func (t *Task[T]) Finish(d Done[T]) bool {
	if d.Task != t.name {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if d.Seq != t.seq {
		return false
	}
	t.inFlight = false
	return true
}

func run[T any](ctx context.Context, name string, seq uint64, query Query[T]) (done Done[T]) {
	done = Done[T]{Task: name, Seq: seq}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("poll: %s panicked: %v", name, r)
			var zero T
			done.Value = zero
			done.Err = fmt.Errorf("poll: %s panicked: %v", name, r)
		}
	}()
	done.Value, done.Err = query(ctx)
	return done
}
