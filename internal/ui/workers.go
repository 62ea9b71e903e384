package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/foreman/internal/buildservice"
	"github.com/five82/foreman/internal/listmodel"
	"github.com/five82/foreman/internal/poll"
	"github.com/five82/foreman/internal/state"
)

const workersTask = "workers"

// workersView lists build hosts with status tabs and search.
type workersView struct {
	listView
	sched  *poll.Scheduler[[]buildservice.Worker]
	store  *state.Store
	status *statusLine
	loaded bool
}

func newWorkersView(ctx context.Context, svc buildservice.Service, store *state.Store, status *statusLine, interval time.Duration) *workersView {
	return &workersView{
		listView: newListView(listmodel.WorkerSchema()),
		sched:    poll.NewScheduler(ctx, workersTask, interval, workersQuery(svc)),
		store:    store,
		status:   status,
	}
}

func workersQuery(svc buildservice.Service) poll.Query[[]buildservice.Worker] {
	return func(ctx context.Context) ([]buildservice.Worker, error) {
		return svc.WorkerStatus(ctx)
	}
}

func (v *workersView) activate() tea.Cmd {
	return tea.Batch(v.sched.Enable(), v.sched.Refresh())
}

func (v *workersView) deactivate() {
	v.sched.Disable()
}

func (v *workersView) refresh() tea.Cmd {
	return v.sched.Refresh()
}

// EndpointChanged drops the previous server's workers.
func (v *workersView) EndpointChanged(svc buildservice.Service) tea.Cmd {
	v.setData(nil)
	v.loaded = false
	v.sched.SetQuery(workersQuery(svc))
	if !v.sched.Enabled() {
		return nil
	}
	return v.sched.Refresh()
}

func (v *workersView) Update(msg tea.Msg) tea.Cmd {
	done, cmd := v.sched.Update(msg)
	if done == nil {
		return cmd
	}
	v.store.Record(workersTask, done.Err)
	if done.Err != nil {
		v.status.fail(fmt.Errorf("refresh workers: %w", done.Err))
		return cmd
	}
	v.loaded = true
	v.setData(buildservice.WorkerRecords(done.Value))
	return cmd
}

func (v *workersView) handleKey(msg tea.KeyMsg, keys keyMap, page int) tea.Cmd {
	if v.searching {
		return v.handleSearchKey(msg, keys)
	}
	v.handleNavKey(msg, keys, page)
	return nil
}

var workerColumns = []column{
	{title: "WORKER", field: "id", width: 24},
	{title: "ARCH", field: "hostarch", width: 8},
	{title: "STATUS", field: "status", width: 9},
	{title: "PROJECT", field: "project"},
	{title: "PACKAGE", field: "package"},
	{title: "TARGET", field: "target", width: 22},
	{title: "STARTED", field: "started", width: 24},
}

func (v *workersView) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(renderCategoryTabs(theme, v.categories(), v.list.Counts(), v.activeCategory()))
	b.WriteString("\n")
	b.WriteString(renderSearchLine(theme, &v.listView))
	b.WriteString("\n")

	if !v.loaded {
		b.WriteString(styles.FaintText.Render("Loading workers..."))
	} else {
		b.WriteString(renderTable(theme, workerColumns, v.list.Len(), v.selected, width-2, height-4,
			func(row int, c column) (string, lipgloss.Style) {
				rec, _ := v.list.At(row)
				value := rec.Get(c.field)
				if c.field == "status" {
					return value, styles.StatusStyle(value)
				}
				return value, styles.Text
			}))
	}
	return renderTitledBox(theme, fmt.Sprintf("Workers (%d)", v.list.Len()), b.String(), width, height, true)
}

// renderSearchLine shows the search input while editing and the active
// search otherwise.
func renderSearchLine(theme Theme, v *listView) string {
	styles := theme.Styles()
	if v.searching {
		return v.search.View()
	}
	if q := v.list.Filter(listmodel.DimSearch); q != "" {
		return styles.MutedText.Render("search: ") + styles.AccentText.Render(q)
	}
	return styles.FaintText.Render("/ to search")
}
