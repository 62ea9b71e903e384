package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/foreman/internal/buildservice"
	"github.com/five82/foreman/internal/listmodel"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"  hello  ", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 2, "he"},
		{"hello", 0, "hello"},
		{"päckage", 4, "p..."},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.limit); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestFit_ExactWidth(t *testing.T) {
	for _, in := range []string{"", "abc", "a much longer package name"} {
		if got := lipgloss.Width(fit(in, 10)); got != 10 {
			t.Fatalf("width of fit(%q, 10) = %d, want 10", in, got)
		}
	}
}

func TestClamp(t *testing.T) {
	cases := []struct{ i, n, want int }{
		{-1, 5, 0},
		{2, 5, 2},
		{7, 5, 4},
		{3, 0, 0},
	}
	for _, tc := range cases {
		if got := clamp(tc.i, tc.n); got != tc.want {
			t.Fatalf("clamp(%d, %d) = %d, want %d", tc.i, tc.n, got, tc.want)
		}
	}
}

func TestTableWindow(t *testing.T) {
	cases := []struct {
		name                    string
		selected, total, height int
		want                    int
	}{
		{"fits", 3, 5, 10, 0},
		{"top", 0, 100, 10, 0},
		{"middle", 50, 100, 10, 45},
		{"bottom", 99, 100, 10, 90},
		{"no height", 5, 10, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tableWindow(tc.selected, tc.total, tc.height); got != tc.want {
				t.Fatalf("tableWindow(%d, %d, %d) = %d, want %d", tc.selected, tc.total, tc.height, got, tc.want)
			}
		})
	}
}

func TestRankProjects(t *testing.T) {
	names := []string{"openSUSE:Factory", "devel:tools", "home:alice", "devel:languages:go"}

	if got := rankProjects("", names); len(got) != len(names) || got[0] != "openSUSE:Factory" {
		t.Fatalf("rankProjects(empty) = %v, want original order", got)
	}

	got := rankProjects("DEVEL", names)
	if len(got) != 2 {
		t.Fatalf("rankProjects(DEVEL) = %v, want the two devel projects", got)
	}
	if got[0] != "devel:tools" {
		t.Fatalf("rankProjects(DEVEL)[0] = %q, want the closer match devel:tools", got[0])
	}

	if got := rankProjects("zzz", names); len(got) != 0 {
		t.Fatalf("rankProjects(zzz) = %v, want none", got)
	}
}

func TestFormatWaitStats(t *testing.T) {
	cases := []struct {
		name  string
		stats []buildservice.WaitStat
		want  string
	}{
		{"none", nil, "0 waiting"},
		{"idle archs skipped", []buildservice.WaitStat{{Arch: "x86_64", Jobs: 0}}, "0 waiting"},
		{
			"busiest first, top three",
			[]buildservice.WaitStat{
				{Arch: "i586", Jobs: 2},
				{Arch: "x86_64", Jobs: 1500},
				{Arch: "aarch64", Jobs: 40},
				{Arch: "s390x", Jobs: 7},
			},
			"1,549 waiting (x86_64 1,500, aarch64 40, s390x 7)",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatWaitStats(tc.stats); got != tc.want {
				t.Fatalf("formatWaitStats() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCycleProjectFilter(t *testing.T) {
	if got := cycleProjectFilter(""); got != listmodel.Watched {
		t.Fatalf("cycleProjectFilter(empty) = %q, want Watched", got)
	}
	if got := cycleProjectFilter(listmodel.Watched); got != listmodel.All {
		t.Fatalf("cycleProjectFilter(Watched) = %q, want All", got)
	}
	if got := cycleProjectFilter("home:alice"); got != listmodel.All {
		t.Fatalf("cycleProjectFilter(project) = %q, want All", got)
	}
}

func TestSplitPanes(t *testing.T) {
	_, _, _, _, stacked := splitPanes(LayoutCompactWidth-1, 40)
	if !stacked {
		t.Fatal("narrow terminal should stack the panes")
	}
	mw, mh, dw, dh, stacked := splitPanes(LayoutWideWidth, 40)
	if stacked {
		t.Fatal("wide terminal should place panes side by side")
	}
	if mw+dw != LayoutWideWidth || mh != 40 || dh != 40 {
		t.Fatalf("splitPanes = %d/%d %d/%d, want widths summing to %d at full height", mw, mh, dw, dh, LayoutWideWidth)
	}
}
