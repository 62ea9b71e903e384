package ui

import (
	"fmt"
	"strings"
)

var viewNames = []string{"1 Projects", "2 Workers", "3 Requests"}

// renderHeader renders the logo, the server and the account.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	parts := []string{
		bg.Render("foreman", styles.WarningText.Bold(true)),
		bg.Render(m.session.URL(), styles.AccentText),
	}
	if user := m.session.User(); user != "" {
		parts = append(parts, bg.Render("as", styles.FaintText)+bg.Spaces(1)+bg.Render(user, styles.Text))
	} else {
		parts = append(parts, bg.Render("anonymous", styles.FaintText))
	}
	if n := len(m.session.Servers()); n > 1 {
		parts = append(parts, bg.Render(fmt.Sprintf("%d servers, s to switch", n), styles.MutedText))
	}
	parts = append(parts, bg.Render("? for help", styles.FaintText))
	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

// renderTabBar renders the main view tabs.
func (m Model) renderTabBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Background)
	tabs := make([]string, len(viewNames))
	for i, name := range viewNames {
		if View(i) == m.currentView {
			tabs[i] = styles.Selected.Bold(true).Render(" " + name + " ")
		} else {
			tabs[i] = bg.Render(" "+name+" ", styles.MutedText)
		}
	}
	return bg.FillLine(strings.Join(tabs, bg.Spaces(1)), m.width)
}
