package cli

import (
	"context"
	"sync"

	"github.com/five82/foreman/internal/buildservice"
	"github.com/five82/foreman/internal/listmodel"
)

// fakeService serves canned data. Log chunks are returned one per call.
type fakeService struct {
	mu sync.Mutex

	projects []string
	watched  []string
	matrix   listmodel.ResultMatrix
	status   map[string]string
	workers  []buildservice.Worker
	stats    []buildservice.WaitStat
	requests []buildservice.SubmitRequest
	history  []buildservice.HistoryEntry
	commits  []buildservice.Commit

	logChunks  [][]byte
	logOffsets []int64

	rebuilds []string
}

func (f *fakeService) ListProjects(context.Context) ([]string, error) { return f.projects, nil }

func (f *fakeService) ListWatchedProjects(context.Context) ([]string, error) { return f.watched, nil }

func (f *fakeService) Targets(context.Context, string) ([]string, error) {
	return f.matrix.Targets, nil
}

func (f *fakeService) Results(context.Context, string) (listmodel.ResultMatrix, error) {
	return f.matrix, nil
}

func (f *fakeService) PackageStatus(context.Context, string, string) (map[string]string, error) {
	return f.status, nil
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

func (f *fakeService) BuildLog(_ context.Context, _, _, _ string, offset int64) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logOffsets = append(f.logOffsets, offset)
	if len(f.logChunks) == 0 {
		return nil, nil
	}
	chunk := f.logChunks[0]
	f.logChunks = f.logChunks[1:]
	return chunk, nil
}

func (f *fakeService) BuildHistory(context.Context, string, string, string) ([]buildservice.HistoryEntry, error) {
	return f.history, nil
}

func (f *fakeService) CommitLog(context.Context, string, string, string) ([]buildservice.Commit, error) {
	return f.commits, nil
}

func (f *fakeService) Rebuild(_ context.Context, project, pkg, target, code string) error {
	f.rebuilds = append(f.rebuilds, project+"|"+pkg+"|"+target+"|"+code)
	return nil
}

func (f *fakeService) AbortBuild(context.Context, string, string, string) error { return nil }

func (f *fakeService) WatchProject(context.Context, string) error { return nil }

func (f *fakeService) UnwatchProject(context.Context, string) error { return nil }

var _ buildservice.Service = (*fakeService)(nil)
