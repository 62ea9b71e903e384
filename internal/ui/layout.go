package ui

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the projects tab
	// stacks the detail pane under the result matrix.
	LayoutCompactWidth = 110

	// LayoutWideWidth gives the result matrix more room.
	LayoutWideWidth = 170
)

// Result matrix column widths.
const (
	matrixPackageWidth = 28
	matrixCellWidth    = 14
)

// chromeHeight is the number of lines outside the active tab: the header,
// the tab bar and the status bar.
const chromeHeight = 3

// splitPanes divides the projects tab body between the matrix and the
// detail pane.
func splitPanes(width, height int) (matrixW, matrixH, detailW, detailH int, stacked bool) {
	if width < LayoutCompactWidth {
		matrixH = max(height/2, 5)
		return width, matrixH, width, max(height-matrixH, 3), true
	}
	ratio := 55
	if width >= LayoutWideWidth {
		ratio = 60
	}
	matrixW = width * ratio / 100
	return matrixW, height, width - matrixW, height, false
}
