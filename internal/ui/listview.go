package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/foreman/internal/listmodel"
)

// listView is the selection, category tab and search state shared by the
// workers and requests tabs.
type listView struct {
	list     *listmodel.List
	category int
	selected int

	searching bool
	search    textinput.Model
}

func newListView(schema listmodel.Schema) listView {
	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.CharLimit = 100
	return listView{list: listmodel.New(schema), search: ti}
}

// categories returns the tab values of the list schema.
func (v *listView) categories() []string {
	return v.list.Schema().Categories
}

// activeCategory returns the selected tab value.
func (v *listView) activeCategory() string {
	cats := v.categories()
	if len(cats) == 0 {
		return listmodel.All
	}
	return cats[clamp(v.category, len(cats))]
}

// cycleCategory moves the tab selection by delta, wrapping around.
func (v *listView) cycleCategory(delta int) {
	cats := v.categories()
	if len(cats) == 0 {
		return
	}
	v.category = ((v.category+delta)%len(cats) + len(cats)) % len(cats)
	_ = v.list.SetFilter(v.list.Schema().Category, cats[v.category])
	v.selected = clamp(v.selected, v.list.Len())
}

// setData replaces the records and keeps the selection in range.
func (v *listView) setData(records []listmodel.Record) {
	v.list.SetData(records)
	v.selected = clamp(v.selected, v.list.Len())
}

// selectedRecord returns the record under the cursor.
func (v *listView) selectedRecord() (listmodel.Record, bool) {
	return v.list.At(v.selected)
}

// handleNavKey moves the selection. It reports whether the key was used.
func (v *listView) handleNavKey(msg tea.KeyMsg, keys keyMap, page int) bool {
	n := v.list.Len()
	switch {
	case key.Matches(msg, keys.Down):
		v.selected = clamp(v.selected+1, n)
	case key.Matches(msg, keys.Up):
		v.selected = clamp(v.selected-1, n)
	case key.Matches(msg, keys.Top):
		v.selected = 0
	case key.Matches(msg, keys.Bottom):
		v.selected = clamp(n-1, n)
	case key.Matches(msg, keys.PageDown):
		v.selected = clamp(v.selected+page, n)
	case key.Matches(msg, keys.PageUp):
		v.selected = clamp(v.selected-page, n)
	case key.Matches(msg, keys.HalfPageDown):
		v.selected = clamp(v.selected+page/2, n)
	case key.Matches(msg, keys.HalfPageUp):
		v.selected = clamp(v.selected-page/2, n)
	case key.Matches(msg, keys.NextCategory):
		v.cycleCategory(1)
	case key.Matches(msg, keys.PrevCategory):
		v.cycleCategory(-1)
	case key.Matches(msg, keys.Search):
		v.searching = true
		v.search.SetValue(v.list.Filter(listmodel.DimSearch))
		v.search.Focus()
	default:
		return false
	}
	return true
}

// handleSearchKey edits the search filter. The filter follows every
// keystroke; esc clears it.
func (v *listView) handleSearchKey(msg tea.KeyMsg, keys keyMap) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Confirm):
		v.searching = false
		v.search.Blur()
		return nil
	case key.Matches(msg, keys.Escape):
		v.searching = false
		v.search.Blur()
		v.search.SetValue("")
		_ = v.list.SetFilter(listmodel.DimSearch, "")
		v.selected = clamp(v.selected, v.list.Len())
		return nil
	}
	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)
	_ = v.list.SetFilter(listmodel.DimSearch, v.search.Value())
	v.selected = clamp(v.selected, v.list.Len())
	return cmd
}
