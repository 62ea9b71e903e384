package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/foreman/internal/buildservice"
	"github.com/five82/foreman/internal/listmodel"
)

// fakeService serves canned data and records what was asked of it.
type fakeService struct {
	mu sync.Mutex

	projects []string
	watched  []string
	matrix   listmodel.ResultMatrix
	workers  []buildservice.Worker
	stats    []buildservice.WaitStat
	requests []buildservice.SubmitRequest

	logChunks [][]byte
	// current overrides the matrix status PackageStatus reports.
	current map[string]map[string]string

	statusCalls []string
	commands    []string
}

func (f *fakeService) ListProjects(context.Context) ([]string, error) { return f.projects, nil }

func (f *fakeService) ListWatchedProjects(context.Context) ([]string, error) { return f.watched, nil }

func (f *fakeService) Targets(context.Context, string) ([]string, error) {
	return f.matrix.Targets, nil
}

func (f *fakeService) Results(context.Context, string) (listmodel.ResultMatrix, error) {
	return f.matrix, nil
}

func (f *fakeService) PackageStatus(_ context.Context, _, pkg string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, pkg)
	if cur, ok := f.current[pkg]; ok {
		return cur, nil
	}
	out := make(map[string]string, len(f.matrix.Targets))
	for _, t := range f.matrix.Targets {
		out[t] = f.matrix.Status(pkg, t)
	}
	return out, nil
}

func (f *fakeService) WorkerStatus(context.Context) ([]buildservice.Worker, error) {
	return f.workers, nil
}

func (f *fakeService) WaitStats(context.Context) ([]buildservice.WaitStat, error) {
	return f.stats, nil
}

func (f *fakeService) SubmitRequests(context.Context) ([]buildservice.SubmitRequest, error) {
	return f.requests, nil
}

func (f *fakeService) BuildLog(context.Context, string, string, string, int64) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.logChunks) == 0 {
		return nil, nil
	}
	chunk := f.logChunks[0]
	f.logChunks = f.logChunks[1:]
	return chunk, nil
}

func (f *fakeService) BuildHistory(context.Context, string, string, string) ([]buildservice.HistoryEntry, error) {
	return nil, nil
}

func (f *fakeService) CommitLog(context.Context, string, string, string) ([]buildservice.Commit, error) {
	return nil, nil
}

func (f *fakeService) Rebuild(_ context.Context, project, pkg, target, code string) error {
	f.record("rebuild " + project + "|" + pkg + "|" + target + "|" + code)
	return nil
}

func (f *fakeService) AbortBuild(_ context.Context, project, pkg, target string) error {
	f.record("abort " + project + "|" + pkg + "|" + target)
	return nil
}

func (f *fakeService) WatchProject(_ context.Context, project string) error {
	f.record("watch " + project)
	return nil
}

func (f *fakeService) UnwatchProject(_ context.Context, project string) error {
	f.record("unwatch " + project)
	return nil
}

func (f *fakeService) record(cmd string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
}

var _ buildservice.Service = (*fakeService)(nil)

func testMatrix(t *testing.T) listmodel.ResultMatrix {
	t.Helper()
	m, err := listmodel.NewResultMatrix(map[string][]string{
		"alpha": {"succeeded", "succeeded"},
		"beta":  {"failed", "succeeded"},
		"gamma": {"building", "failed"},
	}, []string{"tw/x86_64", "tw/aarch64"})
	if err != nil {
		t.Fatalf("NewResultMatrix: %v", err)
	}
	return m
}

// collect runs cmd and returns the messages it produced, expanding
// batches. Commands still blocked after a short wait, such as refresh
// ticks, are dropped.
func collect(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		switch msg := msg.(type) {
		case nil:
			return nil
		case tea.BatchMsg:
			var out []tea.Msg
			for _, c := range msg {
				out = append(out, collect(t, c)...)
			}
			return out
		default:
			return []tea.Msg{msg}
		}
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// pump feeds the output of cmd back into update until nothing is left.
func pump(t *testing.T, update func(tea.Msg) tea.Cmd, cmd tea.Cmd) {
	t.Helper()
	for i := 0; i < 20 && cmd != nil; i++ {
		var next []tea.Cmd
		for _, msg := range collect(t, cmd) {
			next = append(next, update(msg))
		}
		cmd = tea.Batch(next...)
	}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}
