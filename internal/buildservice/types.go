package buildservice

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"github.com/five82/foreman/internal/listmodel"
)

// unknownStatus fills matrix cells for packages a target did not report.
const unknownStatus = "unknown"

// Worker is one build host slot from /build/_workerstatus.
type Worker struct {
	ID       string
	HostArch string
	Status   string // building or idle
	Project  string
	Package  string
	Target   string
	Started  time.Time
}

// Record flattens the worker for list filtering. Idle workers only carry
// id, hostarch and status.
func (w Worker) Record() listmodel.Record {
	rec := listmodel.Record{
		"id":       w.ID,
		"hostarch": w.HostArch,
		"status":   w.Status,
	}
	if w.Status == "building" {
		rec["project"] = w.Project
		rec["package"] = w.Package
		rec["target"] = w.Target
		if !w.Started.IsZero() {
			rec["started"] = w.Started.Local().Format(time.ANSIC)
		}
	}
	return rec
}

// WaitStat is the number of jobs waiting for a scheduler architecture.
type WaitStat struct {
	Arch string
	Jobs int
}

// SubmitRequest is a request to copy a package between projects.
type SubmitRequest struct {
	ID         int
	State      string
	SrcProject string
	SrcPackage string
	DstProject string
	DstPackage string
	Comment    string
}

// Record flattens the request for list filtering.
func (r SubmitRequest) Record() listmodel.Record {
	return listmodel.Record{
		"id":         strconv.Itoa(r.ID),
		"state":      r.State,
		"srcproject": r.SrcProject,
		"srcpackage": r.SrcPackage,
		"dstproject": r.DstProject,
		"dstpackage": r.DstPackage,
		"comment":    r.Comment,
	}
}

// HistoryEntry is one past build of a package for a target.
type HistoryEntry struct {
	Time           time.Time
	SrcMD5         string
	Rev            string
	VersionRelease string
	BuildCount     int
}

// Commit is one source revision of a package.
type Commit struct {
	Rev     string
	SrcMD5  string
	Version string
	Time    time.Time
	User    string
	Comment string
}

// WorkerRecords converts workers for a List.
func WorkerRecords(workers []Worker) []listmodel.Record {
	out := make([]listmodel.Record, len(workers))
	for i, w := range workers {
		out[i] = w.Record()
	}
	return out
}

// RequestRecords converts submit requests for a List.
func RequestRecords(reqs []SubmitRequest) []listmodel.Record {
	out := make([]listmodel.Record, len(reqs))
	for i, r := range reqs {
		out[i] = r.Record()
	}
	return out
}

// Wire payloads.

type directory struct {
	Entries []struct {
		Name string `xml:"name,attr"`
	} `xml:"entry"`
}

type projectMeta struct {
	Repositories []struct {
		Name  string   `xml:"name,attr"`
		Archs []string `xml:"arch"`
	} `xml:"repository"`
}

type resultList struct {
	Results []struct {
		Repository string `xml:"repository,attr"`
		Arch       string `xml:"arch,attr"`
		Statuses   []struct {
			Package string `xml:"package,attr"`
			Code    string `xml:"code,attr"`
			Details string `xml:"details"`
		} `xml:"status"`
	} `xml:"result"`
}

func (rl resultList) matrix() (listmodel.ResultMatrix, error) {
	var targets []string
	index := make(map[string]int)
	for _, r := range rl.Results {
		t := r.Repository + "/" + r.Arch
		if _, ok := index[t]; ok {
			continue
		}
		index[t] = len(targets)
		targets = append(targets, t)
	}
	statuses := make(map[string][]string)
	for _, r := range rl.Results {
		col := index[r.Repository+"/"+r.Arch]
		for _, s := range r.Statuses {
			row, ok := statuses[s.Package]
			if !ok {
				row = make([]string, len(targets))
				for i := range row {
					row[i] = unknownStatus
				}
				statuses[s.Package] = row
			}
			row[col] = s.Code
		}
	}
	return listmodel.NewResultMatrix(statuses, targets)
}

func (rl resultList) packageStatus() map[string]string {
	out := make(map[string]string)
	for _, r := range rl.Results {
		if len(r.Statuses) == 0 {
			continue
		}
		s := r.Statuses[0]
		code := s.Code
		if d := strings.TrimSpace(s.Details); d != "" {
			code += ": " + d
		}
		out[r.Repository+"/"+r.Arch] = code
	}
	return out
}

type workerStatus struct {
	Idle []struct {
		WorkerID string `xml:"workerid,attr"`
		HostArch string `xml:"hostarch,attr"`
	} `xml:"idle"`
	Building []struct {
		WorkerID   string `xml:"workerid,attr"`
		HostArch   string `xml:"hostarch,attr"`
		Project    string `xml:"project,attr"`
		Package    string `xml:"package,attr"`
		Repository string `xml:"repository,attr"`
		Arch       string `xml:"arch,attr"`
		StartTime  int64  `xml:"starttime,attr"`
	} `xml:"building"`
	Waiting []struct {
		Arch string `xml:"arch,attr"`
		Jobs int    `xml:"jobs,attr"`
	} `xml:"waiting"`
}

func (ws workerStatus) workers() []Worker {
	out := make([]Worker, 0, len(ws.Building)+len(ws.Idle))
	for _, b := range ws.Building {
		w := Worker{
			ID:       b.WorkerID,
			HostArch: b.HostArch,
			Status:   "building",
			Project:  b.Project,
			Package:  b.Package,
			Target:   b.Repository + "/" + b.Arch,
		}
		if b.StartTime > 0 {
			w.Started = time.Unix(b.StartTime, 0)
		}
		out = append(out, w)
	}
	for _, i := range ws.Idle {
		out = append(out, Worker{ID: i.WorkerID, HostArch: i.HostArch, Status: "idle"})
	}
	return out
}

type requestEndpoint struct {
	Project string `xml:"project,attr"`
	Package string `xml:"package,attr"`
}

type requestAction struct {
	Type   string          `xml:"type,attr"`
	Source requestEndpoint `xml:"source"`
	Target requestEndpoint `xml:"target"`
}

type requestCollection struct {
	Requests []struct {
		ID      string          `xml:"id,attr"`
		Type    string          `xml:"type,attr"`
		Actions []requestAction `xml:"action"`
		Submit  *requestAction  `xml:"submit"`
		State   struct {
			Name    string `xml:"name,attr"`
			Comment string `xml:"comment"`
		} `xml:"state"`
		Description string `xml:"description"`
	} `xml:"request"`
}

func (rc requestCollection) submitRequests() []SubmitRequest {
	var out []SubmitRequest
	for _, r := range rc.Requests {
		var action *requestAction
		for i := range r.Actions {
			if r.Actions[i].Type == "submit" {
				action = &r.Actions[i]
				break
			}
		}
		if action == nil && r.Submit != nil && (r.Type == "" || r.Type == "submit") {
			action = r.Submit
		}
		if action == nil {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(r.ID))
		if err != nil {
			continue
		}
		comment := strings.TrimSpace(r.Description)
		if c := strings.TrimSpace(r.State.Comment); c != "" {
			comment = c
		}
		out = append(out, SubmitRequest{
			ID:         id,
			State:      r.State.Name,
			SrcProject: action.Source.Project,
			SrcPackage: action.Source.Package,
			DstProject: action.Target.Project,
			DstPackage: action.Target.Package,
			Comment:    comment,
		})
	}
	return out
}

type buildHistory struct {
	Entries []struct {
		Rev     string `xml:"rev,attr"`
		SrcMD5  string `xml:"srcmd5,attr"`
		VersRel string `xml:"versrel,attr"`
		BCnt    int    `xml:"bcnt,attr"`
		Time    int64  `xml:"time,attr"`
	} `xml:"entry"`
}

type revisionList struct {
	Revisions []struct {
		Rev     string `xml:"rev,attr"`
		SrcMD5  string `xml:"srcmd5"`
		Version string `xml:"version"`
		Time    int64  `xml:"time"`
		User    string `xml:"user"`
		Comment string `xml:"comment"`
	} `xml:"revision"`
}

// statusReply is the error body the API sends with non-2xx responses.
type statusReply struct {
	Code    string `xml:"code,attr"`
	Summary string `xml:"summary"`
}

// xmlNode round-trips documents the client edits but does not model, such
// as the person metadata that holds the watchlist.
type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []xmlNode  `xml:",any"`
}

func (n *xmlNode) child(name string) *xmlNode {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			return &n.Nodes[i]
		}
	}
	return nil
}

func (n xmlNode) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n xmlNode) watchlist() []string {
	wl := n.child("watchlist")
	if wl == nil {
		return nil
	}
	var out []string
	for _, p := range wl.Nodes {
		if p.XMLName.Local == "project" {
			if name := p.attr("name"); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// setWatched adds or removes project from the watchlist and reports whether
// the document changed.
func (n *xmlNode) setWatched(project string, watched bool) bool {
	wl := n.child("watchlist")
	if wl == nil {
		if !watched {
			return false
		}
		n.Nodes = append(n.Nodes, xmlNode{XMLName: xml.Name{Local: "watchlist"}})
		wl = &n.Nodes[len(n.Nodes)-1]
	}
	for i, p := range wl.Nodes {
		if p.XMLName.Local == "project" && p.attr("name") == project {
			if watched {
				return false
			}
			wl.Nodes = append(wl.Nodes[:i], wl.Nodes[i+1:]...)
			return true
		}
	}
	if !watched {
		return false
	}
	wl.Nodes = append(wl.Nodes, xmlNode{
		XMLName: xml.Name{Local: "project"},
		Attrs:   []xml.Attr{{Name: xml.Name{Local: "name"}, Value: project}},
	})
	return true
}
