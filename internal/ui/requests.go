package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/foreman/internal/buildservice"
	"github.com/five82/foreman/internal/listmodel"
	"github.com/five82/foreman/internal/poll"
	"github.com/five82/foreman/internal/state"
)

const requestsTask = "requests"

// requestsPage is one refresh of the requests tab. Watched is empty when the
// watchlist could not be read.
type requestsPage struct {
	Requests []buildservice.SubmitRequest
	Watched  []string
}

// requestsView lists submit requests with state tabs, search and
// source/target project filters.
type requestsView struct {
	listView
	sched  *poll.Scheduler[requestsPage]
	store  *state.Store
	status *statusLine
	loaded bool
}

func newRequestsView(ctx context.Context, svc buildservice.Service, store *state.Store, status *statusLine, interval time.Duration) *requestsView {
	return &requestsView{
		listView: newListView(listmodel.RequestSchema()),
		sched:    poll.NewScheduler(ctx, requestsTask, interval, requestsQuery(svc)),
		store:    store,
		status:   status,
	}
}

func requestsQuery(svc buildservice.Service) poll.Query[requestsPage] {
	return func(ctx context.Context) (requestsPage, error) {
		reqs, err := svc.SubmitRequests(ctx)
		if err != nil {
			return requestsPage{}, err
		}
		watched, err := svc.ListWatchedProjects(ctx)
		if err != nil {
			watched = nil
		}
		return requestsPage{Requests: reqs, Watched: watched}, nil
	}
}

func (v *requestsView) activate() tea.Cmd {
	return tea.Batch(v.sched.Enable(), v.sched.Refresh())
}

func (v *requestsView) deactivate() {
	v.sched.Disable()
}

func (v *requestsView) refresh() tea.Cmd {
	return v.sched.Refresh()
}

// EndpointChanged drops the previous server's requests and watchlist.
func (v *requestsView) EndpointChanged(svc buildservice.Service) tea.Cmd {
	v.setData(nil)
	v.list.SetWatched(nil)
	v.loaded = false
	v.sched.SetQuery(requestsQuery(svc))
	if !v.sched.Enabled() {
		return nil
	}
	return v.sched.Refresh()
}

func (v *requestsView) Update(msg tea.Msg) tea.Cmd {
	done, cmd := v.sched.Update(msg)
	if done == nil {
		return cmd
	}
	v.store.Record(requestsTask, done.Err)
	if done.Err != nil {
		v.status.fail(fmt.Errorf("refresh requests: %w", done.Err))
		return cmd
	}
	v.loaded = true
	v.list.SetWatched(done.Value.Watched)
	v.setData(buildservice.RequestRecords(done.Value.Requests))
	return cmd
}

// projectFilterValues are the values the source and target filters cycle
// through.
var projectFilterValues = []string{listmodel.All, listmodel.Watched}

func cycleProjectFilter(current string) string {
	for i, v := range projectFilterValues {
		if v == current || (current == "" && v == listmodel.All) {
			return projectFilterValues[(i+1)%len(projectFilterValues)]
		}
	}
	return listmodel.All
}

func (v *requestsView) handleKey(msg tea.KeyMsg, keys keyMap, page int) tea.Cmd {
	if v.searching {
		return v.handleSearchKey(msg, keys)
	}
	switch {
	case key.Matches(msg, keys.CycleSource):
		_ = v.list.SetFilter(listmodel.DimSource, cycleProjectFilter(v.list.Filter(listmodel.DimSource)))
		v.selected = clamp(v.selected, v.list.Len())
	case key.Matches(msg, keys.CycleDestination):
		_ = v.list.SetFilter(listmodel.DimDestination, cycleProjectFilter(v.list.Filter(listmodel.DimDestination)))
		v.selected = clamp(v.selected, v.list.Len())
	default:
		v.handleNavKey(msg, keys, page)
	}
	return nil
}

var requestColumns = []column{
	{title: "ID", field: "id", width: 8},
	{title: "STATE", field: "state", width: 11},
	{title: "SOURCE", field: "srcproject"},
	{title: "PACKAGE", field: "srcpackage", width: 20},
	{title: "TARGET", field: "dstproject"},
	{title: "PACKAGE", field: "dstpackage", width: 20},
	{title: "COMMENT", field: "comment"},
}

func (v *requestsView) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(renderCategoryTabs(theme, v.categories(), v.list.Counts(), v.activeCategory()))
	b.WriteString("\n")
	b.WriteString(renderSearchLine(theme, &v.listView))
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("   source: %s  target: %s",
		filterLabel(v.list.Filter(listmodel.DimSource)), filterLabel(v.list.Filter(listmodel.DimDestination)))))
	b.WriteString("\n")

	if !v.loaded {
		b.WriteString(styles.FaintText.Render("Loading requests..."))
	} else {
		b.WriteString(renderTable(theme, requestColumns, v.list.Len(), v.selected, width-2, height-4,
			func(row int, c column) (string, lipgloss.Style) {
				rec, _ := v.list.At(row)
				value := rec.Get(c.field)
				switch c.field {
				case "state":
					return value, styles.StatusStyle(value)
				case "comment":
					return strings.Join(strings.Fields(value), " "), styles.MutedText
				}
				return value, styles.Text
			}))
	}
	return renderTitledBox(theme, fmt.Sprintf("Requests (%d)", v.list.Len()), b.String(), width, height, true)
}

func filterLabel(value string) string {
	if value == "" {
		return listmodel.All
	}
	return value
}
