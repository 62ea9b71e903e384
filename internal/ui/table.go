package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// column is one table column. A zero width shares the space left over by
// fixed columns.
type column struct {
	title string
	field string
	width int
}

// layoutColumns resolves flexible widths so the row fits width. Each column
// is separated by one space.
func layoutColumns(cols []column, width int) []column {
	out := append([]column(nil), cols...)
	fixed, flex := 0, 0
	for _, c := range out {
		if c.width > 0 {
			fixed += c.width
		} else {
			flex++
		}
	}
	fixed += len(out) - 1
	if flex == 0 {
		return out
	}
	share := max((width-fixed)/flex, 6)
	for i := range out {
		if out[i].width <= 0 {
			out[i].width = share
		}
	}
	return out
}

// tableWindow returns the first row to draw so that selected stays inside a
// window of height rows.
func tableWindow(selected, total, height int) int {
	if height <= 0 || total <= height {
		return 0
	}
	start := selected - height/2
	if start < 0 {
		start = 0
	}
	if start > total-height {
		start = total - height
	}
	return start
}

// renderTable draws a header and the rows around selected. cell returns the
// text and style of one cell.
func renderTable(theme Theme, cols []column, rows int, selected, width, height int, cell func(row int, c column) (string, lipgloss.Style)) string {
	styles := theme.Styles()
	cols = layoutColumns(cols, width)

	var b strings.Builder
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = fit(c.title, c.width)
	}
	b.WriteString(styles.AccentText.Bold(true).Render(strings.Join(header, " ")))

	if rows == 0 {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("Nothing to show"))
		return b.String()
	}

	bodyHeight := height - 1
	start := tableWindow(selected, rows, bodyHeight)
	end := min(start+bodyHeight, rows)
	for r := start; r < end; r++ {
		parts := make([]string, len(cols))
		for i, c := range cols {
			text, style := cell(r, c)
			if r == selected {
				style = style.Background(lipgloss.Color(theme.SelectionBg))
			}
			parts[i] = style.Render(fit(text, c.width))
		}
		sep := " "
		if r == selected {
			sep = lipgloss.NewStyle().Background(lipgloss.Color(theme.SelectionBg)).Render(" ")
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(parts, sep))
	}
	return b.String()
}

// renderCategoryTabs renders the status tabs with their counts, e.g.
// "All (12)  Failed (3)".
func renderCategoryTabs(theme Theme, categories []string, counts map[string]int, active string) string {
	styles := theme.Styles()
	parts := make([]string, 0, len(categories))
	for _, c := range categories {
		label := fmt.Sprintf("%s (%d)", c, counts[c])
		if c == active {
			parts = append(parts, styles.Selected.Bold(true).Render(" "+label+" "))
			continue
		}
		style := styles.MutedText
		if counts[c] > 0 && c != categories[0] {
			style = styles.StatusStyle(c)
		}
		parts = append(parts, style.Render(" "+label+" "))
	}
	return strings.Join(parts, " ")
}
