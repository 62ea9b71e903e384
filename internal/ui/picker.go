package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// projectPicker is the fuzzy project chooser of the projects tab.
type projectPicker struct {
	open     bool
	input    textinput.Model
	names    []string
	matches  []string
	selected int
}

func newProjectPicker() projectPicker {
	ti := textinput.New()
	ti.Placeholder = "Type to filter projects..."
	ti.CharLimit = 200
	ti.Prompt = "project: "
	return projectPicker{input: ti}
}

// setNames replaces the candidate projects and re-applies the query.
func (p *projectPicker) setNames(names []string) {
	p.names = append([]string(nil), names...)
	p.filter()
}

// show opens the picker with an empty query.
func (p *projectPicker) show() tea.Cmd {
	p.open = true
	p.input.SetValue("")
	p.filter()
	p.selected = 0
	return p.input.Focus()
}

func (p *projectPicker) hide() {
	p.open = false
	p.input.Blur()
}

// filter ranks the names against the query. An empty query keeps the
// original order; otherwise closer matches come first.
func (p *projectPicker) filter() {
	p.matches = rankProjects(p.input.Value(), p.names)
	p.selected = clamp(p.selected, len(p.matches))
}

func rankProjects(query string, names []string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return append([]string(nil), names...)
	}
	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)
	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = r.Target
	}
	return out
}

// handleKey edits the query and moves the selection. chosen is set when a
// project was confirmed.
func (p *projectPicker) handleKey(msg tea.KeyMsg, keys keyMap) (chosen string, cmd tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		p.hide()
		return "", nil
	case key.Matches(msg, keys.Confirm):
		if len(p.matches) == 0 {
			return "", nil
		}
		chosen = p.matches[clamp(p.selected, len(p.matches))]
		p.hide()
		return chosen, nil
	case msg.Type == tea.KeyDown || msg.Type == tea.KeyCtrlN:
		p.selected = clamp(p.selected+1, len(p.matches))
		return "", nil
	case msg.Type == tea.KeyUp || msg.Type == tea.KeyCtrlP:
		p.selected = clamp(p.selected-1, len(p.matches))
		return "", nil
	}
	p.input, cmd = p.input.Update(msg)
	p.filter()
	return "", cmd
}

func (p *projectPicker) View(theme Theme, title string, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(p.input.View())
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(fmt.Sprintf("%d of %d projects", len(p.matches), len(p.names))))

	rows := max(height-4, 1)
	start := tableWindow(p.selected, len(p.matches), rows)
	end := min(start+rows, len(p.matches))
	for i := start; i < end; i++ {
		b.WriteString("\n")
		name := fit(p.matches[i], width-4)
		if i == p.selected {
			b.WriteString(styles.Selected.Render(name))
		} else {
			b.WriteString(styles.Text.Render(name))
		}
	}
	return renderTitledBox(theme, title, b.String(), width, height, true)
}
