package listmodel

import (
	"fmt"
	"slices"
	"strings"
)

// Kind selects how a dimension's value is tested.
type Kind int

const (
	// Substring matches when any field contains the value as typed.
	Substring Kind = iota
	// Exact matches when any field equals the value, ignoring case. The
	// Watched value tests membership in the watched project set instead.
	Exact
	// AnyColumn matches when any visible column among Fields equals the
	// value, ignoring case.
	AnyColumn
	// Columns restricts which of Fields stay visible; it never hides rows.
	Columns
)

// Sentinel filter values.
const (
	All     = "All"
	Watched = "Watched"
)

// Dimension is one independently settable filter.
type Dimension struct {
	Name   string
	Kind   Kind
	Fields []string
}

// Schema describes the records a List holds and the filters it accepts.
type Schema struct {
	Fields     []string
	Dimensions []Dimension
	// Category names the dimension whose values label the tabs.
	Category string
	// Categories are the tab values in display order, starting with All.
	Categories []string
}

func (s Schema) dimension(name string) (Dimension, bool) {
	for _, d := range s.Dimensions {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

// List is the filterable view over one record snapshot.
type List struct {
	schema  Schema
	records []Record
	filters map[string]string
	watched map[string]struct{}

	visible []Record
	columns []string
}

// New returns an empty list for schema.
func New(schema Schema) *List {
	l := &List{
		schema:  schema,
		filters: make(map[string]string),
		watched: make(map[string]struct{}),
	}
	l.recompute()
	return l
}

// Schema returns the list's schema.
func (l *List) Schema() Schema {
	return l.schema
}

// setSchema swaps the schema. Filters on dimensions that no longer exist,
// and column filters naming a column that is gone, are dropped.
func (l *List) setSchema(schema Schema) {
	l.schema = schema
	for name, value := range l.filters {
		d, ok := schema.dimension(name)
		if !ok || (d.Kind == Columns && !slices.Contains(d.Fields, value)) {
			delete(l.filters, name)
		}
	}
}

// SetData replaces the snapshot and recomputes the visible subset.
func (l *List) SetData(records []Record) {
	l.records = append([]Record(nil), records...)
	l.recompute()
}

// SetFilter sets one dimension. An empty value or All clears it.
func (l *List) SetFilter(dimension, value string) error {
	if _, ok := l.schema.dimension(dimension); !ok {
		return fmt.Errorf("unknown filter %q", dimension)
	}
	if value == "" || value == All {
		delete(l.filters, dimension)
	} else {
		l.filters[dimension] = value
	}
	l.recompute()
	return nil
}

// Filter returns the active value of dimension, or "" when unset.
func (l *List) Filter(dimension string) string {
	return l.filters[dimension]
}

// SetWatched replaces the set of projects the Watched value resolves to.
func (l *List) SetWatched(projects []string) {
	l.watched = make(map[string]struct{}, len(projects))
	for _, p := range projects {
		l.watched[p] = struct{}{}
	}
	l.recompute()
}

// Visible returns the filtered records in snapshot order.
func (l *List) Visible() []Record {
	return append([]Record(nil), l.visible...)
}

// Len returns the number of visible records.
func (l *List) Len() int {
	return len(l.visible)
}

// At returns the i-th visible record.
func (l *List) At(i int) (Record, bool) {
	if i < 0 || i >= len(l.visible) {
		return nil, false
	}
	return l.visible[i], true
}

// VisibleColumns returns the schema fields left after column filters.
func (l *List) VisibleColumns() []string {
	return append([]string(nil), l.columns...)
}

// Count returns how many records pass every active filter other than the
// category dimension and also match category. All counts them regardless
// of category.
func (l *List) Count(category string) int {
	catDim, hasCat := l.schema.dimension(l.schema.Category)
	n := 0
	for _, r := range l.records {
		if !l.matches(r, l.schema.Category) {
			continue
		}
		if category == "" || category == All || !hasCat {
			n++
			continue
		}
		if l.matchDimension(r, catDim, category) {
			n++
		}
	}
	return n
}

// Counts returns Count for every schema category.
func (l *List) Counts() map[string]int {
	out := make(map[string]int, len(l.schema.Categories))
	for _, c := range l.schema.Categories {
		out[c] = l.Count(c)
	}
	return out
}

func (l *List) recompute() {
	l.columns = l.visibleColumns()
	l.visible = l.visible[:0:0]
	for _, r := range l.records {
		if l.matches(r, "") {
			l.visible = append(l.visible, r)
		}
	}
}

func (l *List) visibleColumns() []string {
	cols := append([]string(nil), l.schema.Fields...)
	for _, d := range l.schema.Dimensions {
		if d.Kind != Columns {
			continue
		}
		value, ok := l.filters[d.Name]
		if !ok {
			continue
		}
		restricted := make(map[string]struct{}, len(d.Fields))
		for _, f := range d.Fields {
			restricted[f] = struct{}{}
		}
		kept := cols[:0]
		for _, c := range cols {
			if _, r := restricted[c]; !r || c == value {
				kept = append(kept, c)
			}
		}
		cols = kept
	}
	return cols
}

// matches reports whether r passes every active row filter except skip.
func (l *List) matches(r Record, skip string) bool {
	for _, d := range l.schema.Dimensions {
		if d.Name == skip || d.Kind == Columns {
			continue
		}
		value, ok := l.filters[d.Name]
		if !ok {
			continue
		}
		if !l.matchDimension(r, d, value) {
			return false
		}
	}
	return true
}

func (l *List) matchDimension(r Record, d Dimension, value string) bool {
	switch d.Kind {
	case Substring:
		for _, f := range d.Fields {
			if strings.Contains(r.Get(f), value) {
				return true
			}
		}
		return false
	case Exact:
		if value == Watched {
			for _, f := range d.Fields {
				if _, ok := l.watched[r.Get(f)]; ok {
					return true
				}
			}
			return false
		}
		for _, f := range d.Fields {
			if equalFold(r.Get(f), value) {
				return true
			}
		}
		return false
	case AnyColumn:
		visible := make(map[string]struct{}, len(l.columns))
		for _, c := range l.columns {
			visible[c] = struct{}{}
		}
		for _, f := range d.Fields {
			if _, ok := visible[f]; !ok {
				continue
			}
			if equalFold(r.Get(f), value) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func equalFold(field, value string) bool {
	return strings.ToLower(strings.TrimSpace(field)) == strings.ToLower(value)
}
