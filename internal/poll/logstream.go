package poll

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/foreman/internal/buildservice"
)

// DefaultLogDelay is the pause between incremental fetches of a live log.
const DefaultLogDelay = time.Second

// IsBuilding reports whether a package status means the log is still being
// written.
func IsBuilding(status string) bool {
	return strings.HasPrefix(strings.TrimSpace(status), "building")
}

// LogCursor tracks how much of one build log has been read.
type LogCursor struct {
	Project string
	Target  string
	Package string
	Offset  int64
	Live    bool
}

// Advance moves the cursor past chunk and reports whether another fetch
// should follow. Finished logs are read once; live logs continue until the
// server returns nothing new.
func (c *LogCursor) Advance(chunk []byte) bool {
	c.Offset += int64(len(chunk))
	return c.Live && len(chunk) > 0
}

// LogFetcher reads a log from offset. *buildservice.Client satisfies it
// through BuildLog.
type LogFetcher func(ctx context.Context, project, target, pkg string, offset int64) ([]byte, error)

type logFetchedMsg struct {
	gen   uint64
	chunk []byte
	err   error
}

type logTickMsg struct {
	gen uint64
}

// Streamer incrementally fetches one build log at a time. Starting a new
// stream supersedes the previous one; a fetch still outstanding for the old
// stream is discarded when it lands and the new stream's first fetch is
// issued behind it, so there is never more than one request in flight.
//
// All methods must be called from the Bubble Tea Update loop.
type Streamer struct {
	ctx   context.Context
	fetch LogFetcher
	delay time.Duration

	gen       uint64
	cursor    *LogCursor
	streaming bool
	inFlight  bool
	queued    bool
}

// NewStreamer returns an idle streamer. A non-positive delay selects
// DefaultLogDelay.
func NewStreamer(ctx context.Context, fetch LogFetcher, delay time.Duration) *Streamer {
	if ctx == nil {
		ctx = context.Background()
	}
	if delay <= 0 {
		delay = DefaultLogDelay
	}
	return &Streamer{ctx: ctx, fetch: fetch, delay: delay}
}

// FetcherFor adapts a Service to a LogFetcher.
func FetcherFor(svc buildservice.Service) LogFetcher {
	if svc == nil {
		return nil
	}
	return svc.BuildLog
}

// SetFetcher replaces the fetcher used by later requests.
func (s *Streamer) SetFetcher(fetch LogFetcher) {
	s.fetch = fetch
}

// Start begins streaming a log from offset zero. Live logs are polled until
// they stop growing.
func (s *Streamer) Start(project, target, pkg string, live bool) tea.Cmd {
	s.gen++
	s.cursor = &LogCursor{Project: project, Target: target, Package: pkg, Live: live}
	s.streaming = true
	if s.inFlight {
		s.queued = true
		return nil
	}
	return s.request()
}

// Stop abandons the current stream.
func (s *Streamer) Stop() {
	s.gen++
	s.streaming = false
	s.queued = false
}

// Streaming reports whether more of the current log is expected.
func (s *Streamer) Streaming() bool {
	return s.streaming
}

// Cursor returns the current log position, if a log was started.
func (s *Streamer) Cursor() (LogCursor, bool) {
	if s.cursor == nil {
		return LogCursor{}, false
	}
	return *s.cursor, true
}

// LogEvent is the outcome of one fetch for the current stream.
type LogEvent struct {
	// Data is newly read log text.
	Data []byte
	// Err is a fetch failure. Live logs keep retrying after transient ones.
	Err error
	// Finished is set when the stream will not fetch again.
	Finished bool
}

// Update consumes the streamer's own messages. ok is false for messages
// that produced nothing for the current stream.
func (s *Streamer) Update(msg tea.Msg) (ev LogEvent, ok bool, cmd tea.Cmd) {
	switch msg := msg.(type) {
	case logFetchedMsg:
		s.inFlight = false
		if msg.gen != s.gen {
			if s.queued && s.streaming {
				s.queued = false
				return LogEvent{}, false, s.request()
			}
			return LogEvent{}, false, nil
		}
		if !s.streaming {
			return LogEvent{}, false, nil
		}
		if msg.err != nil {
			if buildservice.IsNotFound(msg.err) || !s.cursor.Live {
				s.streaming = false
				return LogEvent{Err: msg.err, Finished: true}, true, nil
			}
			return LogEvent{Err: msg.err}, true, s.wait()
		}
		if !s.cursor.Advance(msg.chunk) {
			s.streaming = false
			return LogEvent{Data: msg.chunk, Finished: true}, true, nil
		}
		return LogEvent{Data: msg.chunk}, true, s.wait()
	case logTickMsg:
		if msg.gen != s.gen || !s.streaming || s.inFlight {
			return LogEvent{}, false, nil
		}
		return LogEvent{}, false, s.request()
	}
	return LogEvent{}, false, nil
}

func (s *Streamer) wait() tea.Cmd {
	gen := s.gen
	return tea.Tick(s.delay, func(time.Time) tea.Msg {
		return logTickMsg{gen: gen}
	})
}

func (s *Streamer) request() tea.Cmd {
	if s.fetch == nil || s.cursor == nil {
		s.streaming = false
		return nil
	}
	s.inFlight = true
	ctx, fetch, gen, cur := s.ctx, s.fetch, s.gen, *s.cursor
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("poll: log fetch panicked: %v", r)
				msg = logFetchedMsg{gen: gen, err: fmt.Errorf("log fetch panicked: %v", r)}
			}
		}()
		chunk, err := fetch(ctx, cur.Project, cur.Target, cur.Package, cur.Offset)
		return logFetchedMsg{gen: gen, chunk: chunk, err: err}
	}
}
