package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/five82/foreman/internal/buildservice"
	"github.com/five82/foreman/internal/listmodel"
)

func testMatrix(t *testing.T) listmodel.ResultMatrix {
	t.Helper()
	m, err := listmodel.NewResultMatrix(map[string][]string{
		"alpha": {"succeeded", "succeeded"},
		"beta":  {"failed", "succeeded"},
		"gamma": {"building", "failed"},
	}, []string{"tw/x86_64", "tw/aarch64"})
	if err != nil {
		t.Fatalf("NewResultMatrix: %v", err)
	}
	return m
}

func TestShowResults_StatusFilter(t *testing.T) {
	svc := &fakeService{matrix: testMatrix(t)}
	var out bytes.Buffer
	err := showResults(context.Background(), &out, svc, "devel:tools", resultsOptions{status: "failed", output: formatTable})
	if err != nil {
		t.Fatalf("showResults: %v", err)
	}
	got := out.String()
	for _, want := range []string{"beta", "gamma", "tw/aarch64", "3 packages: Succeeded 2, Failed 2, Building 1"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "alpha") {
		t.Fatalf("output lists alpha, which never failed:\n%s", got)
	}
}

func TestShowResults_TargetFilter(t *testing.T) {
	svc := &fakeService{matrix: testMatrix(t)}
	var out bytes.Buffer
	opts := resultsOptions{status: "failed", target: "tw/aarch64", output: formatYAML}
	if err := showResults(context.Background(), &out, svc, "devel:tools", opts); err != nil {
		t.Fatalf("showResults: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "package: gamma") {
		t.Fatalf("yaml missing gamma:\n%s", got)
	}
	if strings.Contains(got, "beta") || strings.Contains(got, "tw/x86_64") {
		t.Fatalf("yaml should only hold gamma on tw/aarch64:\n%s", got)
	}
}

func TestShowResults_UnknownTarget(t *testing.T) {
	svc := &fakeService{matrix: testMatrix(t)}
	err := showResults(context.Background(), &bytes.Buffer{}, svc, "devel:tools", resultsOptions{target: "sle/s390x", output: formatTable})
	if err == nil || !strings.Contains(err.Error(), "sle/s390x") {
		t.Fatalf("err = %v, want unknown target error", err)
	}
}

func TestShowWorkers(t *testing.T) {
	svc := &fakeService{
		workers: []buildservice.Worker{
			{ID: "w1", HostArch: "x86_64", Status: "building", Project: "devel:tools", Package: "make", Target: "tw/x86_64"},
			{ID: "w2", HostArch: "aarch64", Status: "idle"},
		},
		stats: []buildservice.WaitStat{{Arch: "aarch64", Jobs: 3}, {Arch: "x86_64", Jobs: 1200}},
	}
	var out bytes.Buffer
	if err := showWorkers(context.Background(), &out, svc, workersOptions{status: "idle", output: formatTable}); err != nil {
		t.Fatalf("showWorkers: %v", err)
	}
	got := out.String()
	if strings.Contains(got, "w1") || !strings.Contains(got, "w2") {
		t.Fatalf("status filter not applied:\n%s", got)
	}
	if !strings.Contains(got, "2 workers: 1 building, 1 idle") {
		t.Fatalf("counts missing:\n%s", got)
	}
	if !strings.Contains(got, "1,200") {
		t.Fatalf("wait stats missing:\n%s", got)
	}
	if strings.Index(got, "x86_64 ") > strings.LastIndex(got, "aarch64") {
		t.Fatalf("wait stats not sorted by jobs:\n%s", got)
	}
}

func TestShowRequests_WatchedSource(t *testing.T) {
	svc := &fakeService{
		watched: []string{"devel:tools"},
		requests: []buildservice.SubmitRequest{
			{ID: 1, State: "new", SrcProject: "devel:tools", SrcPackage: "make", DstProject: "openSUSE:Factory", DstPackage: "make"},
			{ID: 2, State: "review", SrcProject: "home:bob", SrcPackage: "foo", DstProject: "devel:tools", DstPackage: "foo"},
		},
	}
	var out bytes.Buffer
	if err := showRequests(context.Background(), &out, svc, requestsOptions{source: "WATCHED", output: formatTable}); err != nil {
		t.Fatalf("showRequests: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "openSUSE:Factory/make") {
		t.Fatalf("watched request missing:\n%s", got)
	}
	if strings.Contains(got, "home:bob/foo") {
		t.Fatalf("unwatched request listed:\n%s", got)
	}
}

func TestPrintLog_Tail(t *testing.T) {
	svc := &fakeService{logChunks: [][]byte{[]byte("a\nb\nc\n")}}
	var out bytes.Buffer
	if err := printLog(context.Background(), &out, svc, "p", "tw/x86_64", "pkg", logOptions{tail: 2}); err != nil {
		t.Fatalf("printLog: %v", err)
	}
	if got, want := out.String(), "b\nc\n"; got != want {
		t.Fatalf("printLog = %q, want %q", got, want)
	}
}

func TestFollowLog_StopsWhenBuildEnds(t *testing.T) {
	svc := &fakeService{
		logChunks: [][]byte{[]byte("line one\nline t"), []byte("wo\n")},
		status:    map[string]string{"tw/x86_64": "succeeded"},
	}
	var out bytes.Buffer
	err := followLog(context.Background(), &out, svc, "p", "tw/x86_64", "pkg", logOptions{delay: time.Millisecond})
	if err != nil {
		t.Fatalf("followLog: %v", err)
	}
	if got, want := out.String(), "line one\nline two\n"; got != want {
		t.Fatalf("followLog = %q, want %q", got, want)
	}
	wantOffsets := []int64{0, 15, 18}
	if len(svc.logOffsets) != len(wantOffsets) {
		t.Fatalf("offsets = %v, want %v", svc.logOffsets, wantOffsets)
	}
	for i, off := range wantOffsets {
		if svc.logOffsets[i] != off {
			t.Fatalf("offsets = %v, want %v", svc.logOffsets, wantOffsets)
		}
	}
}

func TestFollowLog_CancelledWhileBuilding(t *testing.T) {
	svc := &fakeService{status: map[string]string{"tw/x86_64": "building"}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := followLog(ctx, &bytes.Buffer{}, svc, "p", "tw/x86_64", "pkg", logOptions{delay: time.Millisecond}); err != nil {
		t.Fatalf("followLog: %v", err)
	}
}

func TestLineWriter_HoldsPartialLine(t *testing.T) {
	var out bytes.Buffer
	lw := &lineWriter{w: &out}
	if err := lw.write([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Fatalf("partial line written early: %q", out.String())
	}
	if err := lw.write([]byte("def\ngh")); err != nil {
		t.Fatal(err)
	}
	lw.flush()
	if got, want := out.String(), "abcdef\ngh\n"; got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}
