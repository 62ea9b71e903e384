package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/foreman/internal/buildservice"
	"github.com/five82/foreman/internal/listmodel"
	"github.com/five82/foreman/internal/logtail"
	"github.com/five82/foreman/internal/poll"
	"github.com/five82/foreman/internal/prefs"
	"github.com/five82/foreman/internal/state"
)

// Task names of the projects tab.
const (
	projectsTask = "projects"
	resultsTask  = "results"
	detailTask   = "detail"
	logTask      = "log-status"
	actionTask   = "action"
)

// detailPane selects what the right-hand pane shows.
type detailPane int

const (
	paneStatus detailPane = iota
	paneLog
	paneHistory
	paneCommits
)

func (p detailPane) String() string {
	switch p {
	case paneLog:
		return "Build log"
	case paneHistory:
		return "Build history"
	case paneCommits:
		return "Commit log"
	default:
		return "Package status"
	}
}

// projectListing is the project list of one server.
type projectListing struct {
	Epoch   uint64
	Mode    string
	Names   []string
	Watched []string
}

// projectResults is one results fetch, tagged with the endpoint epoch and
// project it was made for.
type projectResults struct {
	Epoch   uint64
	Project string
	Matrix  listmodel.ResultMatrix
}

// logStatus is the status of a package read right before its log is opened.
type logStatus struct {
	Key    string
	Status map[string]string
}

// detailResult is the data behind the status, history and commit panes.
// Key identifies the selection it was fetched for.
type detailResult struct {
	Key     string
	Pane    detailPane
	Status  map[string]string
	History []buildservice.HistoryEntry
	Commits []buildservice.Commit
}

// projectsView is the build results tab: a project picker, the result
// matrix with its filters, and a detail pane for the selected cell.
type projectsView struct {
	ctx    context.Context
	svc    buildservice.Service
	store  *state.Store
	status *statusLine
	prefs  *prefs.Prefs
	epoch  uint64

	listing       projectListing
	listingLoaded bool
	listingTask   *poll.Task[projectListing]
	picker        projectPicker

	project  string
	results  *poll.Scheduler[projectResults]
	matrix   *listmodel.MatrixModel
	loaded   bool
	active   bool
	category int
	target   int // 0 shows every target, i selects Targets[i-1]
	row, col int

	searching bool
	search    textinput.Model

	pane       detailPane
	detail     detailResult
	detailErr  error
	detailTask *poll.Task[detailResult]
	actionTask *poll.Task[string]

	streamer   *poll.Streamer
	logTask    *poll.Task[logStatus]
	logPending bool
	logBuf     *logtail.Buffer
	logLive    bool
	logDone  bool
	logErr   error
	follow   bool

	viewport    viewport.Model
	version     uint64
	rendered    uint64
	renderTheme string
}

func newProjectsView(ctx context.Context, svc buildservice.Service, store *state.Store, status *statusLine, p *prefs.Prefs, interval, logDelay time.Duration) *projectsView {
	ti := textinput.New()
	ti.Placeholder = "Filter packages..."
	ti.CharLimit = 100

	return &projectsView{
		ctx:         ctx,
		svc:         svc,
		store:       store,
		status:      status,
		prefs:       p,
		listingTask: poll.NewTask[projectListing](projectsTask),
		picker:      newProjectPicker(),
		results:     poll.NewScheduler[projectResults](ctx, resultsTask, interval, nil),
		matrix:      listmodel.NewMatrixModel(),
		search:      ti,
		detailTask:  poll.NewTask[detailResult](detailTask),
		actionTask:  poll.NewTask[string](actionTask),
		streamer:    poll.NewStreamer(ctx, poll.FetcherFor(svc), logDelay),
		logTask:     poll.NewTask[logStatus](logTask),
		logBuf:      logtail.NewBuffer(logtail.DefaultMaxLines),
		follow:      true,
		viewport:    viewport.New(0, 0),
	}
}

func (v *projectsView) activate() tea.Cmd {
	v.active = true
	cmds := []tea.Cmd{}
	if !v.listingLoaded {
		cmds = append(cmds, v.loadListing())
	}
	if v.project != "" {
		cmds = append(cmds, v.results.Enable(), v.results.Refresh())
	}
	return tea.Batch(cmds...)
}

func (v *projectsView) deactivate() {
	v.active = false
	v.results.Disable()
}

func (v *projectsView) refresh() tea.Cmd {
	if v.project == "" {
		return v.loadListing()
	}
	return v.results.Refresh()
}

// EndpointChanged forgets everything read from the previous server and
// reloads the project list.
func (v *projectsView) EndpointChanged(svc buildservice.Service) tea.Cmd {
	v.svc = svc
	v.epoch++
	v.listing = projectListing{}
	v.listingLoaded = false
	v.picker.setNames(nil)
	v.streamer.Stop()
	v.streamer.SetFetcher(poll.FetcherFor(svc))
	v.clearProject()
	v.project = ""
	v.results.Disable()
	v.results.SetQuery(nil)
	if !v.active {
		return nil
	}
	return v.loadListing()
}

func (v *projectsView) loadListing() tea.Cmd {
	svc, epoch, mode := v.svc, v.epoch, v.prefs.ProjectList
	cmd, err := v.listingTask.Start(v.ctx, func(ctx context.Context) (projectListing, error) {
		out := projectListing{Epoch: epoch, Mode: mode}
		watched, err := svc.ListWatchedProjects(ctx)
		if mode == prefs.ProjectsAll {
			names, allErr := svc.ListProjects(ctx)
			if allErr != nil {
				return out, allErr
			}
			out.Names = names
			if err != nil {
				watched = nil
			}
		} else {
			if err != nil {
				return out, err
			}
			out.Names = watched
		}
		out.Watched = watched
		return out, nil
	})
	if err != nil {
		return nil
	}
	return cmd
}

func resultsQuery(svc buildservice.Service, epoch uint64, project string) poll.Query[projectResults] {
	return func(ctx context.Context) (projectResults, error) {
		m, err := svc.Results(ctx, project)
		return projectResults{Epoch: epoch, Project: project, Matrix: m}, err
	}
}

// clearProject drops the matrix and detail data of the current project.
func (v *projectsView) clearProject() {
	v.matrix = listmodel.NewMatrixModel()
	v.loaded = false
	v.row, v.col, v.category, v.target = 0, 0, 0, 0
	v.search.SetValue("")
	v.searching = false
	v.detail = detailResult{}
	v.detailErr = nil
	v.pane = paneStatus
	v.streamer.Stop()
	v.logPending = false
	v.logBuf.Reset()
	v.logErr = nil
	v.version++
}

// selectProject switches the matrix to project and starts polling it.
func (v *projectsView) selectProject(project string) tea.Cmd {
	if project == "" {
		return nil
	}
	v.clearProject()
	v.project = project
	v.prefs.LastProject = project
	v.results.SetQuery(resultsQuery(v.svc, v.epoch, project))
	cmds := []tea.Cmd{v.results.Refresh()}
	if v.active {
		cmds = append(cmds, v.results.Enable())
	}
	return tea.Batch(cmds...)
}

func (v *projectsView) isWatched(project string) bool {
	for _, w := range v.listing.Watched {
		if w == project {
			return true
		}
	}
	return false
}

// selectedPackage returns the package of the selected row.
func (v *projectsView) selectedPackage() string {
	pkgs := v.matrix.VisiblePackages()
	if len(pkgs) == 0 {
		return ""
	}
	return pkgs[clamp(v.row, len(pkgs))]
}

// selectedTarget returns the target of the selected column.
func (v *projectsView) selectedTarget() string {
	targets := v.matrix.VisibleTargets()
	if len(targets) == 0 {
		return ""
	}
	return targets[clamp(v.col, len(targets))]
}

// detailKey identifies the data the detail pane should show. Only the
// history depends on the target.
func (v *projectsView) detailKey() string {
	target := ""
	if v.pane == paneHistory {
		target = v.selectedTarget()
	}
	return fmt.Sprintf("%d|%s|%s|%s|%d", v.epoch, v.project, v.selectedPackage(), target, v.pane)
}

// clampSelection keeps row and column inside the visible matrix.
func (v *projectsView) clampSelection() {
	v.row = clamp(v.row, v.matrix.Len())
	v.col = clamp(v.col, len(v.matrix.VisibleTargets()))
}

func (v *projectsView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case poll.Done[projectListing]:
		if !v.listingTask.Finish(msg) {
			return nil
		}
		return v.applyListing(msg)
	case poll.Done[detailResult]:
		if !v.detailTask.Finish(msg) {
			return nil
		}
		return v.applyDetail(msg)
	case poll.Done[logStatus]:
		if !v.logTask.Finish(msg) {
			return nil
		}
		return v.applyLogStatus(msg)
	case poll.Done[string]:
		if !v.actionTask.Finish(msg) {
			return nil
		}
		return v.applyAction(msg)
	}

	done, cmd := v.results.Update(msg)
	if done != nil {
		return tea.Batch(cmd, v.applyResults(*done))
	}
	if cmd != nil {
		return cmd
	}

	ev, ok, cmd := v.streamer.Update(msg)
	if ok {
		v.applyLog(ev)
	}
	return cmd
}

func (v *projectsView) applyListing(d poll.Done[projectListing]) tea.Cmd {
	if d.Value.Mode != "" && (d.Value.Epoch != v.epoch || d.Value.Mode != v.prefs.ProjectList) {
		return v.loadListing()
	}
	v.store.Record(projectsTask, d.Err)
	if d.Err != nil {
		v.status.fail(fmt.Errorf("list projects: %w", d.Err))
		return nil
	}
	v.listing = d.Value
	v.listingLoaded = true
	v.picker.setNames(d.Value.Names)
	if v.project != "" {
		return nil
	}
	if last := v.prefs.LastProject; last != "" {
		for _, name := range d.Value.Names {
			if name == last {
				return v.selectProject(last)
			}
		}
	}
	if len(d.Value.Names) == 0 {
		v.status.info("no %s projects on this server", d.Value.Mode)
		return nil
	}
	return v.picker.show()
}

func (v *projectsView) applyResults(d poll.Done[projectResults]) tea.Cmd {
	if d.Value.Epoch != v.epoch || d.Value.Project != v.project {
		return nil
	}
	v.store.Record(resultsTask, d.Err)
	if d.Err != nil {
		v.status.fail(fmt.Errorf("refresh results for %s: %w", v.project, d.Err))
		return nil
	}
	pkg, target := v.selectedPackage(), v.selectedTarget()
	if err := v.matrix.SetMatrix(d.Value.Matrix); err != nil {
		v.status.fail(fmt.Errorf("results for %s: %w", v.project, err))
		return nil
	}
	v.syncTarget()
	first := !v.loaded
	v.loaded = true
	v.reselect(pkg, target)
	if first || (v.pane == paneStatus && v.detail.Key != v.detailKey()) {
		return v.requestDetail()
	}
	return nil
}

// reselect keeps the cursor on pkg and target after the matrix changed.
func (v *projectsView) reselect(pkg, target string) {
	for i, p := range v.matrix.VisiblePackages() {
		if p == pkg {
			v.row = i
			break
		}
	}
	for i, t := range v.matrix.VisibleTargets() {
		if t == target {
			v.col = i
			break
		}
	}
	v.clampSelection()
}

// requestDetail fetches the pane data for the current selection. While a
// fetch is outstanding the request is dropped; the completion notices the
// selection moved and fetches again.
func (v *projectsView) requestDetail() tea.Cmd {
	if v.pane == paneLog {
		return nil
	}
	pkg, target := v.selectedPackage(), v.selectedTarget()
	if v.project == "" || pkg == "" {
		return nil
	}
	svc, project, pane, key := v.svc, v.project, v.pane, v.detailKey()
	cmd, err := v.detailTask.Start(v.ctx, func(ctx context.Context) (detailResult, error) {
		out := detailResult{Key: key, Pane: pane}
		var err error
		switch pane {
		case paneHistory:
			if target == "" {
				return out, &buildservice.ValidationError{Field: "target", Reason: "no target selected"}
			}
			out.History, err = svc.BuildHistory(ctx, project, pkg, target)
		case paneCommits:
			out.Commits, err = svc.CommitLog(ctx, project, pkg, "")
		default:
			out.Status, err = svc.PackageStatus(ctx, project, pkg)
		}
		return out, err
	})
	if err != nil {
		return nil
	}
	return cmd
}

func (v *projectsView) applyDetail(d poll.Done[detailResult]) tea.Cmd {
	if d.Value.Key != "" && d.Value.Key != v.detailKey() {
		return v.requestDetail()
	}
	v.detail = d.Value
	v.detailErr = d.Err
	v.version++
	if d.Err != nil && !buildservice.IsNotFound(d.Err) {
		v.status.fail(fmt.Errorf("%s for %s/%s: %w", strings.ToLower(d.Value.Pane.String()), v.project, v.selectedPackage(), d.Err))
	}
	v.viewport.GotoTop()
	return nil
}

// logKey identifies the cell whose log the log pane should show.
func (v *projectsView) logKey() string {
	return fmt.Sprintf("%d|%s|%s|%s", v.epoch, v.project, v.selectedPackage(), v.selectedTarget())
}

// openLog reads the current status of the selected cell and then streams
// its log. Logs of building packages are followed until the build stops
// writing.
func (v *projectsView) openLog() tea.Cmd {
	pkg, target := v.selectedPackage(), v.selectedTarget()
	if v.project == "" || pkg == "" || target == "" {
		return nil
	}
	v.pane = paneLog
	v.streamer.Stop()
	v.logBuf.Reset()
	v.logErr = nil
	v.logDone = false
	v.logLive = false
	v.logPending = true
	v.version++

	svc, project, key := v.svc, v.project, v.logKey()
	cmd, err := v.logTask.Start(v.ctx, func(ctx context.Context) (logStatus, error) {
		status, err := svc.PackageStatus(ctx, project, pkg)
		return logStatus{Key: key, Status: status}, err
	})
	if err != nil {
		// The running lookup notices the selection moved when it lands.
		return nil
	}
	return cmd
}

func (v *projectsView) applyLogStatus(d poll.Done[logStatus]) tea.Cmd {
	if v.pane != paneLog || !v.logPending {
		return nil
	}
	if d.Value.Key != v.logKey() {
		return v.openLog()
	}
	v.logPending = false
	pkg, target := v.selectedPackage(), v.selectedTarget()
	status := v.matrix.Matrix().Status(pkg, target)
	if d.Err != nil {
		v.status.fail(fmt.Errorf("status of %s/%s on %s: %w", v.project, pkg, target, d.Err))
	} else {
		status = d.Value.Status[target]
	}
	v.logLive = poll.IsBuilding(status)
	v.follow = v.logLive
	v.version++
	return v.streamer.Start(v.project, target, pkg, v.logLive)
}

func (v *projectsView) applyLog(ev poll.LogEvent) {
	if len(ev.Data) > 0 {
		v.logBuf.Append(ev.Data)
		v.version++
	}
	if ev.Err != nil {
		v.logErr = ev.Err
		v.version++
		if !buildservice.IsNotFound(ev.Err) {
			cur, _ := v.streamer.Cursor()
			v.status.fail(fmt.Errorf("build log %s/%s/%s: %w", cur.Project, cur.Target, cur.Package, ev.Err))
		}
	}
	if ev.Finished {
		v.logDone = true
		v.version++
		if !v.logLive && v.prefs.Autoscroll {
			v.follow = true
		}
	}
}

// runAction starts a build command. Only one command runs at a time.
func (v *projectsView) runAction(what string, fn func(ctx context.Context, svc buildservice.Service) error) tea.Cmd {
	svc := v.svc
	cmd, err := v.actionTask.Start(v.ctx, func(ctx context.Context) (string, error) {
		if err := fn(ctx, svc); err != nil {
			return "", err
		}
		return what, nil
	})
	if errors.Is(err, poll.ErrBusy) {
		v.status.info("another command is still running")
		return nil
	}
	if err != nil {
		v.status.fail(err)
		return nil
	}
	v.status.info("%s...", what)
	return cmd
}

func (v *projectsView) applyAction(d poll.Done[string]) tea.Cmd {
	if d.Err != nil {
		v.status.fail(d.Err)
		return nil
	}
	v.status.info("%s: done", d.Value)
	cmds := []tea.Cmd{v.loadListing()}
	if v.project != "" {
		cmds = append(cmds, v.results.Refresh())
	}
	return tea.Batch(cmds...)
}

func (v *projectsView) rebuild() tea.Cmd {
	project, pkg, target := v.project, v.selectedPackage(), v.selectedTarget()
	if pkg == "" {
		return nil
	}
	return v.runAction(fmt.Sprintf("rebuild %s/%s on %s", project, pkg, target), func(ctx context.Context, svc buildservice.Service) error {
		return svc.Rebuild(ctx, project, pkg, target, "")
	})
}

func (v *projectsView) rebuildFailed() tea.Cmd {
	project := v.project
	if project == "" {
		return nil
	}
	return v.runAction(fmt.Sprintf("rebuild failed packages of %s", project), func(ctx context.Context, svc buildservice.Service) error {
		return svc.Rebuild(ctx, project, "", "", "failed")
	})
}

func (v *projectsView) abort() tea.Cmd {
	project, pkg, target := v.project, v.selectedPackage(), v.selectedTarget()
	if pkg == "" {
		return nil
	}
	return v.runAction(fmt.Sprintf("abort %s/%s on %s", project, pkg, target), func(ctx context.Context, svc buildservice.Service) error {
		return svc.AbortBuild(ctx, project, pkg, target)
	})
}

func (v *projectsView) toggleWatch() tea.Cmd {
	project := v.project
	if project == "" {
		return nil
	}
	if v.isWatched(project) {
		return v.runAction("unwatch "+project, func(ctx context.Context, svc buildservice.Service) error {
			return svc.UnwatchProject(ctx, project)
		})
	}
	return v.runAction("watch "+project, func(ctx context.Context, svc buildservice.Service) error {
		return svc.WatchProject(ctx, project)
	})
}

// cycleTarget steps the target filter through All and every target.
func (v *projectsView) cycleTarget() {
	targets := v.matrix.Matrix().Targets
	v.target = (v.target + 1) % (len(targets) + 1)
	value := listmodel.All
	if v.target > 0 {
		value = targets[v.target-1]
	}
	_ = v.matrix.SetFilter(listmodel.DimTarget, value)
	v.clampSelection()
}

// syncTarget points the target cycle at the active target filter after the
// matrix changed.
func (v *projectsView) syncTarget() {
	v.target = 0
	f := v.matrix.Filter(listmodel.DimTarget)
	for i, t := range v.matrix.Matrix().Targets {
		if t == f {
			v.target = i + 1
			break
		}
	}
}

func (v *projectsView) targetLabel() string {
	if f := v.matrix.Filter(listmodel.DimTarget); f != "" {
		return f
	}
	return listmodel.All
}

func (v *projectsView) cycleCategory(delta int) {
	cats := listmodel.ResultCategories
	v.category = ((v.category+delta)%len(cats) + len(cats)) % len(cats)
	_ = v.matrix.SetFilter(listmodel.DimStatus, cats[v.category])
	v.clampSelection()
}

func (v *projectsView) handleKey(msg tea.KeyMsg, keys keyMap, page int) tea.Cmd {
	if v.picker.open {
		chosen, cmd := v.picker.handleKey(msg, keys)
		if chosen != "" {
			return tea.Batch(cmd, v.selectProject(chosen))
		}
		return cmd
	}
	if v.searching {
		return v.handleSearchKey(msg, keys)
	}

	before := v.detailKey()
	switch {
	case key.Matches(msg, keys.PickProject):
		if !v.listingLoaded {
			return v.loadListing()
		}
		return v.picker.show()
	case key.Matches(msg, keys.ToggleWatched):
		if v.prefs.ProjectList == prefs.ProjectsAll {
			v.prefs.ProjectList = prefs.ProjectsWatched
		} else {
			v.prefs.ProjectList = prefs.ProjectsAll
		}
		v.listingLoaded = false
		v.status.info("listing %s projects", v.prefs.ProjectList)
		return v.loadListing()
	case key.Matches(msg, keys.Search):
		v.searching = true
		return v.search.Focus()
	case key.Matches(msg, keys.NextCategory):
		v.cycleCategory(1)
	case key.Matches(msg, keys.PrevCategory):
		v.cycleCategory(-1)
	case key.Matches(msg, keys.CycleTarget):
		v.cycleTarget()
	case key.Matches(msg, keys.Down):
		v.row = clamp(v.row+1, v.matrix.Len())
	case key.Matches(msg, keys.Up):
		v.row = clamp(v.row-1, v.matrix.Len())
	case key.Matches(msg, keys.Right):
		v.col = clamp(v.col+1, len(v.matrix.VisibleTargets()))
	case key.Matches(msg, keys.Left):
		v.col = clamp(v.col-1, len(v.matrix.VisibleTargets()))
	case key.Matches(msg, keys.Top):
		v.row = 0
	case key.Matches(msg, keys.Bottom):
		v.row = clamp(v.matrix.Len()-1, v.matrix.Len())
	case key.Matches(msg, keys.PageDown):
		v.row = clamp(v.row+page, v.matrix.Len())
	case key.Matches(msg, keys.PageUp):
		v.row = clamp(v.row-page, v.matrix.Len())
	case key.Matches(msg, keys.HalfPageDown):
		v.viewport.HalfViewDown()
		v.follow = false
		return nil
	case key.Matches(msg, keys.HalfPageUp):
		v.viewport.HalfViewUp()
		v.follow = false
		return nil
	case key.Matches(msg, keys.ToggleFollow):
		v.follow = !v.follow
		if v.follow {
			v.viewport.GotoBottom()
		}
		return nil
	case key.Matches(msg, keys.ShowLog):
		return v.openLog()
	case key.Matches(msg, keys.ShowStatus):
		return v.showPane(paneStatus)
	case key.Matches(msg, keys.ShowHistory):
		return v.showPane(paneHistory)
	case key.Matches(msg, keys.ShowCommits):
		return v.showPane(paneCommits)
	case key.Matches(msg, keys.Rebuild):
		return v.rebuild()
	case key.Matches(msg, keys.RebuildFailed):
		return v.rebuildFailed()
	case key.Matches(msg, keys.Abort):
		return v.abort()
	case key.Matches(msg, keys.Watch):
		return v.toggleWatch()
	default:
		return nil
	}

	if v.pane != paneLog {
		v.version++
		if before != v.detailKey() {
			return v.requestDetail()
		}
	}
	return nil
}

func (v *projectsView) showPane(p detailPane) tea.Cmd {
	if v.pane == paneLog {
		v.streamer.Stop()
		v.logPending = false
	}
	v.pane = p
	v.detail = detailResult{}
	v.detailErr = nil
	v.version++
	return v.requestDetail()
}

func (v *projectsView) handleSearchKey(msg tea.KeyMsg, keys keyMap) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Confirm):
		v.searching = false
		v.search.Blur()
		return nil
	case key.Matches(msg, keys.Escape):
		v.searching = false
		v.search.Blur()
		v.search.SetValue("")
		_ = v.matrix.SetFilter(listmodel.DimSearch, "")
		v.clampSelection()
		return nil
	}
	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)
	_ = v.matrix.SetFilter(listmodel.DimSearch, v.search.Value())
	v.clampSelection()
	return cmd
}
