package listmodel

import (
	"fmt"
	"sort"
)

// PackageField is the row key column of a result matrix.
const PackageField = "package"

// ResultMatrix pairs per-package status codes with the ordered targets that
// give each position its meaning. The two are always replaced together.
type ResultMatrix struct {
	Statuses map[string][]string
	Targets  []string
}

// ShapeError reports a package whose status row does not line up with the
// target list.
type ShapeError struct {
	Package string
	Got     int
	Want    int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("package %q has %d statuses for %d targets", e.Package, e.Got, e.Want)
}

// NewResultMatrix copies statuses and targets into a matrix, rejecting rows
// whose length differs from len(targets).
func NewResultMatrix(statuses map[string][]string, targets []string) (ResultMatrix, error) {
	m := ResultMatrix{
		Statuses: make(map[string][]string, len(statuses)),
		Targets:  append([]string(nil), targets...),
	}
	for pkg, row := range statuses {
		m.Statuses[pkg] = append([]string(nil), row...)
	}
	if err := m.Validate(); err != nil {
		return ResultMatrix{}, err
	}
	return m, nil
}

// Validate checks that every package has exactly one status per target.
func (m ResultMatrix) Validate() error {
	for _, pkg := range m.Packages() {
		if got := len(m.Statuses[pkg]); got != len(m.Targets) {
			return &ShapeError{Package: pkg, Got: got, Want: len(m.Targets)}
		}
	}
	return nil
}

// Packages returns the package names in ascending order.
func (m ResultMatrix) Packages() []string {
	pkgs := make([]string, 0, len(m.Statuses))
	for pkg := range m.Statuses {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)
	return pkgs
}

// Status returns the status code of pkg for target, or "" if either is unknown.
func (m ResultMatrix) Status(pkg, target string) string {
	row, ok := m.Statuses[pkg]
	if !ok {
		return ""
	}
	for i, t := range m.Targets {
		if t == target && i < len(row) {
			return row[i]
		}
	}
	return ""
}

// Records flattens the matrix into one record per package, keyed by
// PackageField plus one field per target.
func (m ResultMatrix) Records() []Record {
	pkgs := m.Packages()
	records := make([]Record, 0, len(pkgs))
	for _, pkg := range pkgs {
		rec := Record{PackageField: pkg}
		row := m.Statuses[pkg]
		for i, t := range m.Targets {
			if i < len(row) {
				rec[t] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records
}

// MatrixModel adapts a ResultMatrix onto a List whose columns are the
// matrix targets.
type MatrixModel struct {
	*List
	matrix ResultMatrix
}

// NewMatrixModel returns an empty matrix model with no targets.
func NewMatrixModel() *MatrixModel {
	return &MatrixModel{List: New(MatrixSchema(nil))}
}

// SetMatrix validates m and replaces the backing snapshot. Active filters are
// kept.
func (mm *MatrixModel) SetMatrix(m ResultMatrix) error {
	if err := m.Validate(); err != nil {
		return err
	}
	mm.matrix = m
	mm.List.setSchema(MatrixSchema(m.Targets))
	mm.List.SetData(m.Records())
	return nil
}

// Matrix returns the current snapshot.
func (mm *MatrixModel) Matrix() ResultMatrix {
	return mm.matrix
}

// VisiblePackages returns the names of the visible rows in order.
func (mm *MatrixModel) VisiblePackages() []string {
	rows := mm.Visible()
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Get(PackageField)
	}
	return out
}

// VisibleTargets returns the target columns left after target filtering.
func (mm *MatrixModel) VisibleTargets() []string {
	cols := mm.VisibleColumns()
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if c != PackageField {
			out = append(out, c)
		}
	}
	return out
}
