package ui

import "testing"

func TestThemeLookups(t *testing.T) {
	th := GetTheme("Nightfox")

	if got := th.StatusColor("  failed "); got != th.StatusColors["failed"] {
		t.Fatalf("StatusColor = %q, want %q", got, th.StatusColors["failed"])
	}
	if got := th.StatusColor("failed: nothing provides foo"); got != th.StatusColors["failed"] {
		t.Fatalf("StatusColor with details = %q, want %q", got, th.StatusColors["failed"])
	}
	if got := th.StatusColor("Expansion Error"); got != th.StatusColors["expansion error"] {
		t.Fatalf("StatusColor(Expansion Error) = %q, want %q", got, th.StatusColors["expansion error"])
	}
	if got := th.StatusColor("mystery"); got != th.Text {
		t.Fatalf("StatusColor unknown = %q, want %q", got, th.Text)
	}
}

func TestStatusKey(t *testing.T) {
	cases := map[string]string{
		"Succeeded":                  "succeeded",
		" building ":                 "building",
		"unresolvable: nothing here": "unresolvable",
		"":                           "",
	}
	for in, want := range cases {
		if got := statusKey(in); got != want {
			t.Fatalf("statusKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetTheme_FallsBackToNightfox(t *testing.T) {
	if got := GetTheme("does-not-exist").Name; got != "Nightfox" {
		t.Fatalf("GetTheme fallback = %q, want Nightfox", got)
	}
	if got := GetTheme("Kanagawa").Name; got != "Kanagawa" {
		t.Fatalf("GetTheme(Kanagawa) = %q", got)
	}
}

func TestNextTheme_Cycles(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() = %v, want 3 themes", names)
	}
	name := names[0]
	seen := map[string]bool{}
	for range names {
		seen[name] = true
		name = NextTheme(name)
	}
	if name != names[0] || len(seen) != len(names) {
		t.Fatalf("NextTheme did not visit every theme and wrap: seen %v, ended on %q", seen, name)
	}
	if got := NextTheme("unknown"); got != names[0] {
		t.Fatalf("NextTheme(unknown) = %q, want %q", got, names[0])
	}
}

func TestThemesCoverEveryStatus(t *testing.T) {
	base := nightfoxTheme().StatusColors
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for status := range base {
			if th.StatusColors[status] == "" {
				t.Fatalf("theme %s has no color for %q", name, status)
			}
		}
	}
}
