package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/foreman/internal/buildservice"
	"github.com/five82/foreman/internal/listmodel"
	"github.com/five82/foreman/internal/logtail"
	"github.com/five82/foreman/internal/prefs"
)

// projectsHeaderHeight is the project line, the status tabs and the filter
// line above the panes.
const projectsHeaderHeight = 3

// resize fits the detail viewport to the pane it is drawn in.
func (v *projectsView) resize(width, height int) {
	_, _, detailW, detailH, _ := splitPanes(width, height-projectsHeaderHeight)
	v.viewport.Width = max(detailW-2, 0)
	v.viewport.Height = max(detailH-2, 0)
	v.version++
}

// syncViewport re-renders the detail pane content when it changed.
func (v *projectsView) syncViewport(theme Theme) {
	if v.rendered == v.version && v.renderTheme == theme.Name {
		return
	}
	v.viewport.SetContent(v.detailContent(theme))
	v.rendered = v.version
	v.renderTheme = theme.Name
	if v.pane == paneLog && v.follow {
		v.viewport.GotoBottom()
	}
}

func (v *projectsView) View(theme Theme, width, height int) string {
	if v.picker.open {
		title := "Watched projects"
		if v.prefs.ProjectList == prefs.ProjectsAll {
			title = "All projects"
		}
		return v.picker.View(theme, title, width, height)
	}

	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(v.renderProjectLine(theme))
	b.WriteString("\n")
	b.WriteString(renderCategoryTabs(theme, listmodel.ResultCategories, v.matrix.Counts(), listmodel.ResultCategories[v.category]))
	b.WriteString("\n")
	if v.searching {
		b.WriteString(v.search.View())
	} else {
		search := v.matrix.Filter(listmodel.DimSearch)
		if search == "" {
			search = "-"
		}
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("search: %s   target: %s", search, v.targetLabel())))
	}
	b.WriteString("\n")

	body := height - projectsHeaderHeight
	matrixW, matrixH, detailW, detailH, stacked := splitPanes(width, body)
	matrixBox := renderTitledBox(theme, v.matrixTitle(), v.renderMatrix(theme, matrixW-2, matrixH-2), matrixW, matrixH, true)
	detailBox := renderTitledBox(theme, v.detailTitle(), v.viewport.View(), detailW, detailH, v.pane == paneLog)
	if stacked {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, matrixBox, detailBox))
	} else {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, matrixBox, detailBox))
	}
	return b.String()
}

func (v *projectsView) renderProjectLine(theme Theme) string {
	styles := theme.Styles()
	if v.project == "" {
		if !v.listingLoaded {
			return styles.FaintText.Render("Loading projects...")
		}
		return styles.MutedText.Render("No project selected. Press p to pick one.")
	}
	line := styles.AccentText.Bold(true).Render(v.project)
	if v.isWatched(v.project) {
		line += styles.WarningText.Render(" ★ watched")
	}
	return line + styles.FaintText.Render(fmt.Sprintf("   (%s projects, p to pick, w to switch)", v.prefs.ProjectList))
}

func (v *projectsView) matrixTitle() string {
	if !v.loaded {
		return "Results"
	}
	return fmt.Sprintf("Results (%d/%d packages)", v.matrix.Len(), len(v.matrix.Matrix().Packages()))
}

func (v *projectsView) detailTitle() string {
	pkg := v.selectedPackage()
	if v.pane != paneLog {
		if pkg == "" {
			return v.pane.String()
		}
		if v.pane == paneHistory {
			return fmt.Sprintf("%s: %s on %s", v.pane, pkg, v.selectedTarget())
		}
		return fmt.Sprintf("%s: %s", v.pane, pkg)
	}
	if v.logPending {
		return fmt.Sprintf("%s/%s %s [checking status]", pkg, v.selectedTarget(), v.pane)
	}
	cur, ok := v.streamer.Cursor()
	if !ok {
		return v.pane.String()
	}
	state := "finished"
	switch {
	case v.streamer.Streaming() && v.logLive:
		state = "live"
	case v.streamer.Streaming():
		state = "loading"
	}
	follow := ""
	if v.follow {
		follow = ", follow"
	}
	return fmt.Sprintf("%s/%s %s [%s%s, %s]", cur.Package, cur.Target, v.pane, state, follow, humanize.Bytes(uint64(cur.Offset)))
}

// renderMatrix draws packages as rows and the visible targets as columns,
// scrolling both ways to keep the selected cell in view.
func (v *projectsView) renderMatrix(theme Theme, width, height int) string {
	styles := theme.Styles()
	if v.project == "" {
		return ""
	}
	if !v.loaded {
		return styles.FaintText.Render("Loading results...")
	}
	pkgs := v.matrix.VisiblePackages()
	targets := v.matrix.VisibleTargets()
	if len(targets) == 0 {
		return styles.FaintText.Render("No build targets")
	}

	pkgWidth := min(matrixPackageWidth, max(width/3, 10))
	perRow := max((width-pkgWidth)/(matrixCellWidth+1), 1)
	firstCol := tableWindow(v.col, len(targets), perRow)
	lastCol := min(firstCol+perRow, len(targets))

	selectedBg := lipgloss.Color(theme.SelectionBg)
	var b strings.Builder
	header := []string{fit("PACKAGE", pkgWidth)}
	for _, t := range targets[firstCol:lastCol] {
		header = append(header, fit(t, matrixCellWidth))
	}
	b.WriteString(styles.AccentText.Bold(true).Render(strings.Join(header, " ")))

	if len(pkgs) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("No packages match"))
		return b.String()
	}

	rows := height - 1
	start := tableWindow(v.row, len(pkgs), rows)
	end := min(start+rows, len(pkgs))
	for r := start; r < end; r++ {
		pkg := pkgs[r]
		nameStyle := styles.Text
		if r == v.row {
			nameStyle = nameStyle.Background(selectedBg).Bold(true)
		}
		parts := []string{nameStyle.Render(fit(pkg, pkgWidth))}
		for c := firstCol; c < lastCol; c++ {
			status := v.matrix.Matrix().Status(pkg, targets[c])
			cell := styles.StatusStyle(status)
			if r == v.row && c == v.col {
				cell = cell.Reverse(true)
			} else if r == v.row {
				cell = cell.Background(selectedBg)
			}
			parts = append(parts, cell.Render(fit(status, matrixCellWidth)))
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(parts, " "))
	}
	return b.String()
}

// detailContent renders the active pane into the viewport text.
func (v *projectsView) detailContent(theme Theme) string {
	styles := theme.Styles()
	if v.pane == paneLog {
		return v.logContent(theme)
	}
	if v.detailErr != nil {
		if buildservice.IsNotFound(v.detailErr) {
			return styles.FaintText.Render("Nothing recorded for this package")
		}
		return styles.DangerText.Render(v.detailErr.Error())
	}
	if v.detail.Key == "" {
		if v.selectedPackage() == "" {
			return ""
		}
		return styles.FaintText.Render("Loading...")
	}
	switch v.detail.Pane {
	case paneHistory:
		return renderHistory(theme, v.detail.History)
	case paneCommits:
		return renderCommits(theme, v.detail.Commits)
	default:
		return renderPackageStatus(theme, v.detail.Status)
	}
}

func (v *projectsView) logContent(theme Theme) string {
	styles := theme.Styles()
	lines := logtail.ColorizeLines(v.logBuf.Lines(), logtail.DefaultPalette())
	var b strings.Builder
	if n := v.logBuf.Dropped(); n > 0 {
		b.WriteString(styles.FaintText.Render(fmt.Sprintf("... %s earlier lines not shown", humanize.Comma(int64(n)))))
		b.WriteString("\n")
	}
	b.WriteString(strings.Join(lines, "\n"))
	switch {
	case v.logErr != nil && buildservice.IsNotFound(v.logErr):
		b.WriteString(styles.FaintText.Render("No build log for this target"))
	case v.logErr != nil:
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(v.logErr.Error()))
	case len(lines) == 0 && !v.logDone:
		b.WriteString(styles.FaintText.Render("Loading log..."))
	}
	return b.String()
}

// renderPackageStatus lists the status of one package per target, failed
// details included.
func renderPackageStatus(theme Theme, status map[string]string) string {
	styles := theme.Styles()
	if len(status) == 0 {
		return styles.FaintText.Render("No results for this package")
	}
	targets := make([]string, 0, len(status))
	width := 0
	for t := range status {
		targets = append(targets, t)
		width = max(width, len(t))
	}
	sort.Strings(targets)
	lines := make([]string, 0, len(targets))
	for _, t := range targets {
		lines = append(lines, styles.MutedText.Render(padRight(t, width))+"  "+styles.StatusStyle(status[t]).Render(status[t]))
	}
	return strings.Join(lines, "\n")
}

// renderHistory lists past builds, newest first.
func renderHistory(theme Theme, entries []buildservice.HistoryEntry) string {
	styles := theme.Styles()
	if len(entries) == 0 {
		return styles.FaintText.Render("No builds recorded")
	}
	sorted := append([]buildservice.HistoryEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.After(sorted[j].Time) })

	lines := []string{styles.AccentText.Bold(true).Render(fmt.Sprintf("%-16s %-6s %-24s %s", "WHEN", "REV", "VERSION", "BUILD"))}
	for _, e := range sorted {
		lines = append(lines, fmt.Sprintf("%-16s %-6s %-24s %d",
			truncate(humanize.Time(e.Time), 16), truncate(e.Rev, 6), truncate(e.VersionRelease, 24), e.BuildCount))
	}
	return strings.Join(lines, "\n")
}

// renderCommits lists source revisions, newest first, with their messages.
func renderCommits(theme Theme, commits []buildservice.Commit) string {
	styles := theme.Styles()
	if len(commits) == 0 {
		return styles.FaintText.Render("No commits")
	}
	sorted := append([]buildservice.Commit(nil), commits...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.After(sorted[j].Time) })

	var b strings.Builder
	for i, c := range sorted {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(styles.AccentText.Bold(true).Render("r" + c.Rev))
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("  %s  %s", c.User, humanize.Time(c.Time))))
		if c.Version != "" {
			b.WriteString(styles.FaintText.Render("  " + c.Version))
		}
		if msg := strings.TrimSpace(c.Comment); msg != "" {
			b.WriteString("\n")
			b.WriteString(styles.Text.Render(msg))
		}
	}
	return b.String()
}
