package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}

var helpSections = []helpSection{
	{
		title: "Views",
		items: []helpItem{
			{"1/2/3", "Projects/Workers/Requests"},
			{"tab", "Cycle views"},
			{"s", "Switch server"},
			{"ctrl+r", "Refresh now"},
		},
	},
	{
		title: "Lists",
		items: []helpItem{
			{"j/k", "Move up/down"},
			{"g/G", "Go to top/bottom"},
			{"[/]", "Previous/next status tab"},
			{"/", "Search"},
		},
	},
	{
		title: "Projects",
		items: []helpItem{
			{"p", "Pick project"},
			{"w", "Watched/all projects"},
			{"h/l", "Previous/next target"},
			{"t", "Cycle target filter"},
			{"i/enter", "Package status/build log"},
			{"H/c", "Build history/commit log"},
			{"Space", "Toggle follow mode"},
			{"ctrl+d/u", "Scroll detail pane"},
			{"r/R", "Rebuild/rebuild failed"},
			{"a", "Abort build"},
			{"W", "Watch/unwatch project"},
		},
	},
	{
		title: "Requests",
		items: []helpItem{
			{"S/D", "Source/target project filter"},
		},
	},
	{
		title: "General",
		items: []helpItem{
			{"T", "Cycle theme"},
			{"?", "Toggle help"},
			{"q/ctrl+c", "Quit"},
		},
	},
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 36)))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning)).Width(12)
	for i, section := range helpSections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, item := range section.items {
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}
		if i < len(helpSections)-1 {
			b.WriteString("\n")
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(46)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
