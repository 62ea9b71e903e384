package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/five82/foreman/internal/listmodel"
)

func TestCheckFormat(t *testing.T) {
	for _, f := range []string{"table", "yaml"} {
		if err := checkFormat(f); err != nil {
			t.Fatalf("checkFormat(%q) = %v", f, err)
		}
	}
	if err := checkFormat("json"); err == nil {
		t.Fatal("checkFormat(json) = nil, want error")
	}
}

func TestColorStatus(t *testing.T) {
	if got := colorStatus("failed: no source", false); got != "failed: no source" {
		t.Fatalf("colorStatus without color = %q", got)
	}
	if got := colorStatus("succeeded", true); !strings.Contains(got, "succeeded") {
		t.Fatalf("colorStatus = %q, want it to contain the status", got)
	}
}

func TestSummarizeCounts(t *testing.T) {
	tests := []struct {
		name   string
		counts map[string]int
		want   string
	}{
		{"empty", map[string]int{listmodel.All: 0}, "0 packages"},
		{"single", map[string]int{listmodel.All: 1, "Failed": 1}, "1 package: Failed 1"},
		{"tab order", map[string]int{listmodel.All: 5, "Blocked": 1, "Succeeded": 4}, "5 packages: Succeeded 4, Blocked 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := summarizeCounts(tt.counts, listmodel.ResultCategories); got != tt.want {
				t.Fatalf("summarizeCounts() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOneLine(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"multi\n  line   text", 40, "multi line text"},
		{"abcdefghij", 8, "abcde..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := oneLine(tt.in, tt.width); got != tt.want {
			t.Fatalf("oneLine(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		project, pkg, target string
		want                 string
	}{
		{"devel:tools", "make", "", "devel:tools/make"},
		{"devel:tools", "", "", "devel:tools (all packages)"},
		{"devel:tools", "make", "tw/x86_64", "devel:tools/make on tw/x86_64"},
	}
	for _, tt := range tests {
		if got := describe(tt.project, tt.pkg, tt.target); got != tt.want {
			t.Fatalf("describe(%q, %q, %q) = %q, want %q", tt.project, tt.pkg, tt.target, got, tt.want)
		}
	}
}

func TestWriteYAML(t *testing.T) {
	var out bytes.Buffer
	if err := writeYAML(&out, []resultRow{{Package: "make", Status: map[string]string{"tw/x86_64": "failed"}}}); err != nil {
		t.Fatalf("writeYAML: %v", err)
	}
	want := "- package: make\n  status:\n    tw/x86_64: failed\n"
	if out.String() != want {
		t.Fatalf("writeYAML = %q, want %q", out.String(), want)
	}
}
