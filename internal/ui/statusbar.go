package ui

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/foreman/internal/buildservice"
	"github.com/five82/foreman/internal/poll"
	"github.com/five82/foreman/internal/state"
)

// statusLine is the last message shown in the status bar. Errors keep the
// full context of the command or poll that failed.
type statusLine struct {
	text  string
	isErr bool
	at    time.Time
}

func (s *statusLine) info(format string, args ...any) {
	s.text = fmt.Sprintf(format, args...)
	s.isErr = false
	s.at = time.Now()
}

func (s *statusLine) fail(err error) {
	if err == nil {
		return
	}
	log.Printf("ui: %v", err)
	s.text = err.Error()
	s.isErr = true
	s.at = time.Now()
}

// statusBar shows poll health and the queue wait statistics, which refresh
// on their own scheduler whatever tab is active.
type statusBar struct {
	store *state.Store
	sched *poll.Scheduler[[]buildservice.WaitStat]
}

const waitStatsTask = "waitstats"

func newStatusBar(ctx context.Context, svc buildservice.Service, store *state.Store, interval time.Duration) *statusBar {
	return &statusBar{
		store: store,
		sched: poll.NewScheduler(ctx, waitStatsTask, interval, waitStatsQuery(svc)),
	}
}

func waitStatsQuery(svc buildservice.Service) poll.Query[[]buildservice.WaitStat] {
	return func(ctx context.Context) ([]buildservice.WaitStat, error) {
		return svc.WaitStats(ctx)
	}
}

// start enables the wait statistics poll and fetches once right away.
func (b *statusBar) start() tea.Cmd {
	return tea.Batch(b.sched.Enable(), b.sched.Refresh())
}

// EndpointChanged drops the previous server's health and statistics.
func (b *statusBar) EndpointChanged(svc buildservice.Service) tea.Cmd {
	b.store.Reset()
	b.sched.SetQuery(waitStatsQuery(svc))
	return b.sched.Refresh()
}

func (b *statusBar) Update(msg tea.Msg) tea.Cmd {
	done, cmd := b.sched.Update(msg)
	if done != nil {
		b.store.UpdateWaitStats(done.Value, done.Err)
	}
	return cmd
}

// View renders the one-line status bar.
func (b *statusBar) View(theme Theme, width int, line *statusLine, server string) string {
	styles := theme.Styles()
	bg := NewBgStyle(theme.Surface)
	snap := b.store.Snapshot()

	var right []string
	switch {
	case snap.IsOffline():
		right = append(right, bg.Render(fmt.Sprintf("offline (%d failed polls)", snap.ConsecutiveFailures), styles.DangerText))
	case snap.LastUpdated.IsZero():
		right = append(right, bg.Render("connecting", styles.MutedText))
	default:
		right = append(right, bg.Render("online", styles.SuccessText))
	}
	if snap.HasWaitStats {
		right = append(right, bg.Render(formatWaitStats(snap.WaitStats), styles.MutedText))
	}
	if !snap.LastUpdated.IsZero() {
		right = append(right, bg.Render("updated "+humanize.Time(snap.LastUpdated), styles.FaintText))
	}
	right = append(right, bg.Render(server, styles.AccentText))
	rightText := bg.Join(right, " │ ")

	leftWidth := max(width-lipgloss.Width(rightText)-2, 0)
	var left string
	switch {
	case line != nil && line.text != "" && line.isErr:
		left = bg.Render(truncate(line.text, leftWidth), styles.DangerText)
	case line != nil && line.text != "":
		left = bg.Render(truncate(line.text, leftWidth), styles.Text)
	case snap.LastError != nil:
		left = bg.Render(truncate(snap.LastErrorSource+": "+snap.LastError.Error(), leftWidth), styles.WarningText)
	}
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(rightText), 1)
	return bg.FillLine(left+bg.Spaces(gap)+rightText, width)
}

// formatWaitStats summarizes waiting jobs, busiest architecture first.
func formatWaitStats(stats []buildservice.WaitStat) string {
	total := 0
	sorted := append([]buildservice.WaitStat(nil), stats...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Jobs > sorted[j].Jobs })
	parts := make([]string, 0, 3)
	for i, s := range sorted {
		total += s.Jobs
		if i < 3 && s.Jobs > 0 {
			parts = append(parts, fmt.Sprintf("%s %s", s.Arch, humanize.Comma(int64(s.Jobs))))
		}
	}
	out := fmt.Sprintf("%s waiting", humanize.Comma(int64(total)))
	if len(parts) > 0 {
		out += " (" + strings.Join(parts, ", ") + ")"
	}
	return out
}
