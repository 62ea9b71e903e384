package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/foreman/internal/buildservice"
	"github.com/five82/foreman/internal/listmodel"
	"github.com/five82/foreman/internal/poll"
	"github.com/five82/foreman/internal/prefs"
	"github.com/five82/foreman/internal/state"
)

func newTestProjectsView(t *testing.T, svc buildservice.Service, p *prefs.Prefs) *projectsView {
	t.Helper()
	return newProjectsView(context.Background(), svc, &state.Store{}, &statusLine{}, p, time.Hour, time.Millisecond)
}

// loadedProjectsView returns a view that reselected devel:tools on start.
func loadedProjectsView(t *testing.T, svc *fakeService) *projectsView {
	t.Helper()
	p := prefs.Default()
	p.LastProject = "devel:tools"
	v := newTestProjectsView(t, svc, &p)
	pump(t, v.Update, v.activate())
	if v.project != "devel:tools" || !v.loaded {
		t.Fatalf("project = %q loaded = %v, want devel:tools loaded", v.project, v.loaded)
	}
	return v
}

func TestProjectsView_ReselectsLastProject(t *testing.T) {
	svc := &fakeService{watched: []string{"home:alice", "devel:tools"}, matrix: testMatrix(t)}
	v := loadedProjectsView(t, svc)

	if v.picker.open {
		t.Fatal("picker opened although the last project is listed")
	}
	if got := v.matrix.Len(); got != 3 {
		t.Fatalf("matrix rows = %d, want 3", got)
	}
	if v.detail.Key != v.detailKey() {
		t.Fatalf("detail key = %q, want %q", v.detail.Key, v.detailKey())
	}
	if got := v.detail.Status["tw/x86_64"]; got != "succeeded" {
		t.Fatalf("status of alpha = %q, want succeeded", got)
	}
	if !v.isWatched("devel:tools") {
		t.Fatal("devel:tools should be marked watched")
	}
}

func TestProjectsView_OpensPickerWithoutLastProject(t *testing.T) {
	svc := &fakeService{watched: []string{"home:alice"}, matrix: testMatrix(t)}
	p := prefs.Default()
	p.LastProject = "gone:project"
	v := newTestProjectsView(t, svc, &p)
	pump(t, v.Update, v.activate())

	if v.project != "" {
		t.Fatalf("project = %q, want none", v.project)
	}
	if !v.picker.open {
		t.Fatal("picker should open when the last project is not listed")
	}

	_, _ = v.picker.handleKey(tea.KeyMsg{Type: tea.KeyEnter}, DefaultKeyMap())
	if v.picker.open {
		t.Fatal("enter should close the picker")
	}
}

func TestProjectsView_PickerSelectsProject(t *testing.T) {
	svc := &fakeService{watched: []string{"home:alice", "devel:tools"}, matrix: testMatrix(t)}
	p := prefs.Default()
	v := newTestProjectsView(t, svc, &p)
	pump(t, v.Update, v.activate())

	keys := DefaultKeyMap()
	for _, r := range "devel" {
		pump(t, v.Update, v.handleKey(keyPress(string(r)), keys, 10))
	}
	pump(t, v.Update, v.handleKey(tea.KeyMsg{Type: tea.KeyEnter}, keys, 10))

	if v.project != "devel:tools" {
		t.Fatalf("project = %q, want devel:tools", v.project)
	}
	if p.LastProject != "devel:tools" {
		t.Fatalf("prefs.LastProject = %q, want devel:tools", p.LastProject)
	}
}

func TestProjectsView_MovingSelectionRefetchesDetail(t *testing.T) {
	svc := &fakeService{watched: []string{"devel:tools"}, matrix: testMatrix(t)}
	v := loadedProjectsView(t, svc)

	pump(t, v.Update, v.handleKey(keyPress("j"), DefaultKeyMap(), 10))

	if got := v.selectedPackage(); got != "beta" {
		t.Fatalf("selected package = %q, want beta", got)
	}
	if v.detail.Key != v.detailKey() {
		t.Fatalf("detail key = %q, want %q", v.detail.Key, v.detailKey())
	}
	if got := v.detail.Status["tw/x86_64"]; got != "failed" {
		t.Fatalf("status of beta = %q, want failed", got)
	}
}

func TestProjectsView_StaleDetailIsRefetched(t *testing.T) {
	svc := &fakeService{watched: []string{"devel:tools"}, matrix: testMatrix(t)}
	v := loadedProjectsView(t, svc)
	current := v.detail

	cmd := v.applyDetail(poll.Done[detailResult]{Value: detailResult{
		Key:    "0|devel:tools|gamma||0",
		Status: map[string]string{"tw/x86_64": "building"},
	}})
	if cmd == nil {
		t.Fatal("stale detail should trigger a fetch for the current selection")
	}
	if v.detail.Key != current.Key || v.detail.Status["tw/x86_64"] != "succeeded" {
		t.Fatalf("stale detail was applied: %+v", v.detail)
	}
}

func TestProjectsView_StatusCategoryFiltersRows(t *testing.T) {
	svc := &fakeService{watched: []string{"devel:tools"}, matrix: testMatrix(t)}
	v := loadedProjectsView(t, svc)
	keys := DefaultKeyMap()

	// All -> Succeeded -> Failed
	v.handleKey(keyPress("]"), keys, 10)
	v.handleKey(keyPress("]"), keys, 10)
	if got := v.matrix.VisiblePackages(); len(got) != 2 || got[0] != "beta" || got[1] != "gamma" {
		t.Fatalf("failed packages = %v, want [beta gamma]", got)
	}

	v.handleKey(keyPress("t"), keys, 10)
	if got := v.targetLabel(); got != "tw/x86_64" {
		t.Fatalf("target = %q, want tw/x86_64", got)
	}
	if got := v.matrix.VisiblePackages(); len(got) != 1 || got[0] != "beta" {
		t.Fatalf("failed on tw/x86_64 = %v, want [beta]", got)
	}
}

func TestProjectsView_RebuildRunsOneCommandAtATime(t *testing.T) {
	svc := &fakeService{watched: []string{"devel:tools"}, matrix: testMatrix(t)}
	v := loadedProjectsView(t, svc)

	first := v.rebuild()
	if first == nil {
		t.Fatal("rebuild returned no command")
	}
	if second := v.abort(); second != nil {
		t.Fatal("a second command started while the first was running")
	}
	if !strings.Contains(v.status.text, "still running") {
		t.Fatalf("status = %q, want busy notice", v.status.text)
	}

	pump(t, v.Update, first)
	if len(svc.commands) != 1 || svc.commands[0] != "rebuild devel:tools|alpha|tw/x86_64|" {
		t.Fatalf("commands = %v", svc.commands)
	}
	if !strings.HasSuffix(v.status.text, "done") {
		t.Fatalf("status = %q, want done", v.status.text)
	}
}

func TestProjectsView_StreamsBuildingLog(t *testing.T) {
	svc := &fakeService{
		watched:   []string{"devel:tools"},
		matrix:    testMatrix(t),
		logChunks: [][]byte{[]byte("[   1s] start\n"), []byte("[   2s] compiling\n")},
	}
	v := loadedProjectsView(t, svc)
	keys := DefaultKeyMap()

	v.handleKey(keyPress("G"), keys, 10) // gamma, building on tw/x86_64
	pump(t, v.Update, v.handleKey(tea.KeyMsg{Type: tea.KeyEnter}, keys, 10))

	if v.pane != paneLog || !v.logLive {
		t.Fatalf("pane = %v live = %v, want live build log", v.pane, v.logLive)
	}
	lines := v.logBuf.Lines()
	if len(lines) != 2 || lines[1] != "[   2s] compiling" {
		t.Fatalf("log lines = %q", lines)
	}
	if !v.logDone {
		t.Fatal("stream should end once the log stops growing")
	}
	if cur, _ := v.streamer.Cursor(); cur.Offset != int64(len("[   1s] start\n[   2s] compiling\n")) {
		t.Fatalf("offset = %d", cur.Offset)
	}
}

func TestProjectsView_LogLivenessUsesCurrentStatus(t *testing.T) {
	matrix, err := listmodel.NewResultMatrix(map[string][]string{
		"alpha": {"scheduled"},
	}, []string{"tw/x86_64"})
	if err != nil {
		t.Fatalf("NewResultMatrix: %v", err)
	}
	svc := &fakeService{
		watched:   []string{"devel:tools"},
		matrix:    matrix,
		current:   map[string]map[string]string{"alpha": {"tw/x86_64": "building"}},
		logChunks: [][]byte{[]byte("[   1s] start\n"), []byte("[   2s] compiling\n")},
	}
	v := loadedProjectsView(t, svc)
	before := len(svc.statusCalls)

	pump(t, v.Update, v.handleKey(tea.KeyMsg{Type: tea.KeyEnter}, DefaultKeyMap(), 10))

	if len(svc.statusCalls) != before+1 {
		t.Fatalf("status lookups = %d, want %d", len(svc.statusCalls), before+1)
	}
	if !v.logLive || v.logPending {
		t.Fatalf("live = %v pending = %v, want a live log", v.logLive, v.logPending)
	}
	if lines := v.logBuf.Lines(); len(lines) != 2 {
		t.Fatalf("log lines = %q, want both chunks", lines)
	}
}

func TestProjectsView_EndpointChangeDropsInFlightResults(t *testing.T) {
	svc := &fakeService{watched: []string{"devel:tools"}, matrix: testMatrix(t)}
	v := loadedProjectsView(t, svc)

	stale := v.results.Refresh()
	if stale == nil {
		t.Fatal("Refresh did not start a fetch")
	}
	other := &fakeService{watched: []string{"home:bob"}, matrix: testMatrix(t)}
	cmd := v.EndpointChanged(other)

	for _, msg := range collect(t, stale) {
		cmd = tea.Batch(cmd, v.Update(msg))
	}
	pump(t, v.Update, cmd)

	if v.project != "" || v.loaded || v.matrix.Len() != 0 {
		t.Fatalf("old results applied: project %q loaded %v rows %d", v.project, v.loaded, v.matrix.Len())
	}
}

func TestProjectsView_ResultsFromOldEpochIgnored(t *testing.T) {
	svc := &fakeService{watched: []string{"devel:tools"}, matrix: testMatrix(t)}
	v := loadedProjectsView(t, svc)
	v.epoch++

	if cmd := v.applyResults(poll.Done[projectResults]{Value: projectResults{Epoch: v.epoch - 1, Project: "devel:tools"}}); cmd != nil {
		t.Fatal("stale results triggered work")
	}
	if v.matrix.Len() != 3 {
		t.Fatalf("rows = %d, want the current matrix kept", v.matrix.Len())
	}
}

func TestProjectsView_TargetCycleFollowsRefreshedTargets(t *testing.T) {
	svc := &fakeService{watched: []string{"devel:tools"}, matrix: testMatrix(t)}
	v := loadedProjectsView(t, svc)
	keys := DefaultKeyMap()

	v.handleKey(keyPress("t"), keys, 10)
	v.handleKey(keyPress("t"), keys, 10)
	if got := v.targetLabel(); got != "tw/aarch64" {
		t.Fatalf("target = %q, want tw/aarch64", got)
	}

	shrunk, err := listmodel.NewResultMatrix(map[string][]string{
		"alpha": {"succeeded"},
	}, []string{"tw/x86_64"})
	if err != nil {
		t.Fatalf("NewResultMatrix: %v", err)
	}
	v.applyResults(poll.Done[projectResults]{Value: projectResults{Epoch: v.epoch, Project: v.project, Matrix: shrunk}})

	if got := v.targetLabel(); got != listmodel.All || v.target != 0 {
		t.Fatalf("target = %q (index %d), want All", got, v.target)
	}
	if got := v.matrix.VisibleTargets(); len(got) != 1 || got[0] != "tw/x86_64" {
		t.Fatalf("visible targets = %v", got)
	}
}

func TestProjectsView_EndpointChangedClearsState(t *testing.T) {
	svc := &fakeService{watched: []string{"devel:tools"}, matrix: testMatrix(t)}
	v := loadedProjectsView(t, svc)

	other := &fakeService{watched: []string{"home:bob"}, matrix: testMatrix(t)}
	cmd := v.EndpointChanged(other)
	if v.project != "" || v.loaded || v.listingLoaded {
		t.Fatalf("state not cleared: project %q loaded %v listing %v", v.project, v.loaded, v.listingLoaded)
	}
	pump(t, v.Update, cmd)

	if !v.listingLoaded || len(v.listing.Names) != 1 || v.listing.Names[0] != "home:bob" {
		t.Fatalf("listing = %+v, want the new server's projects", v.listing)
	}
	if !v.picker.open {
		t.Fatal("picker should open: devel:tools is not on the new server")
	}
}

func TestProjectsView_StaleListingIsReloaded(t *testing.T) {
	svc := &fakeService{watched: []string{"devel:tools"}, matrix: testMatrix(t)}
	p := prefs.Default()
	v := newTestProjectsView(t, svc, &p)
	v.epoch = 3

	cmd := v.applyListing(poll.Done[projectListing]{Value: projectListing{Epoch: 2, Mode: prefs.ProjectsWatched, Names: []string{"old"}}})
	if cmd == nil {
		t.Fatal("listing from an old epoch should trigger a reload")
	}
	if v.listingLoaded {
		t.Fatal("stale listing was applied")
	}
}

func TestWorkersView_LoadsAndFilters(t *testing.T) {
	svc := &fakeService{workers: []buildservice.Worker{
		{ID: "w1", HostArch: "x86_64", Status: "building", Project: "devel:tools", Package: "make", Target: "tw/x86_64"},
		{ID: "w2", HostArch: "aarch64", Status: "idle"},
		{ID: "w3", HostArch: "x86_64", Status: "idle"},
	}}
	store := &state.Store{}
	v := newWorkersView(context.Background(), svc, store, &statusLine{}, time.Hour)
	pump(t, v.Update, v.activate())

	if !v.loaded || v.list.Len() != 3 {
		t.Fatalf("loaded = %v rows = %d, want 3 workers", v.loaded, v.list.Len())
	}
	v.cycleCategory(2) // All -> Building -> Idle
	if got := v.activeCategory(); got != "Idle" {
		t.Fatalf("category = %q, want Idle", got)
	}
	if v.list.Len() != 2 {
		t.Fatalf("idle rows = %d, want 2", v.list.Len())
	}
	counts := v.list.Counts()
	if counts[listmodel.All] != 3 || counts["Building"] != 1 {
		t.Fatalf("counts = %v", counts)
	}
	if snap := store.Snapshot(); snap.ConsecutiveFailures != 0 || snap.LastUpdated.IsZero() {
		t.Fatalf("store snapshot = %+v, want a recorded success", snap)
	}
}

func TestRequestsView_WatchedSourceFilter(t *testing.T) {
	svc := &fakeService{
		watched: []string{"devel:tools"},
		requests: []buildservice.SubmitRequest{
			{ID: 1, State: "new", SrcProject: "devel:tools", SrcPackage: "make", DstProject: "openSUSE:Factory", DstPackage: "make"},
			{ID: 2, State: "review", SrcProject: "home:bob", SrcPackage: "foo", DstProject: "devel:tools", DstPackage: "foo"},
		},
	}
	v := newRequestsView(context.Background(), svc, &state.Store{}, &statusLine{}, time.Hour)
	pump(t, v.Update, v.activate())

	if v.list.Len() != 2 {
		t.Fatalf("rows = %d, want 2", v.list.Len())
	}
	v.handleKey(keyPress("S"), DefaultKeyMap(), 10)
	if got := v.list.Filter(listmodel.DimSource); got != listmodel.Watched {
		t.Fatalf("source filter = %q, want Watched", got)
	}
	rec, ok := v.selectedRecord()
	if v.list.Len() != 1 || !ok || rec.Get("srcproject") != "devel:tools" {
		t.Fatalf("watched source rows = %d (%v), want the devel:tools request", v.list.Len(), rec)
	}
}
