package buildservice

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/five82/foreman/internal/listmodel"
)

// Service is the build service API surface the rest of foreman consumes.
// It is implemented by *Client and faked in tests.
type Service interface {
	ListProjects(ctx context.Context) ([]string, error)
	ListWatchedProjects(ctx context.Context) ([]string, error)
	Targets(ctx context.Context, project string) ([]string, error)
	Results(ctx context.Context, project string) (listmodel.ResultMatrix, error)
	PackageStatus(ctx context.Context, project, pkg string) (map[string]string, error)
	WorkerStatus(ctx context.Context) ([]Worker, error)
	WaitStats(ctx context.Context) ([]WaitStat, error)
	SubmitRequests(ctx context.Context) ([]SubmitRequest, error)
	BuildLog(ctx context.Context, project, target, pkg string, offset int64) ([]byte, error)
	BuildHistory(ctx context.Context, project, pkg, target string) ([]HistoryEntry, error)
	CommitLog(ctx context.Context, project, pkg, revision string) ([]Commit, error)
	Rebuild(ctx context.Context, project, pkg, target, code string) error
	AbortBuild(ctx context.Context, project, pkg, target string) error
	WatchProject(ctx context.Context, project string) error
	UnwatchProject(ctx context.Context, project string) error
}

// Ensure Client implements Service at compile time.
var _ Service = (*Client)(nil)

// Client talks to the build service HTTP/XML API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	user      string
	password  string
	userAgent string
}

const (
	defaultAPIURL         = "https://api.opensuse.org"
	defaultUserAgent      = "foreman/0.1"
	defaultRequestTimeout = 30 * time.Second

	submitMatch = "action/@type='submit'"
)

// Options configures a Client.
type Options struct {
	APIURL   string
	User     string
	Password string
	Timeout  time.Duration
}

// NewClient builds a Client for opts.APIURL.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.APIURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		user:      strings.TrimSpace(opts.User),
		password:  opts.Password,
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the normalized API URL the client talks to.
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL.String()
}

// ListProjects returns every project name on the server.
func (c *Client) ListProjects(ctx context.Context) ([]string, error) {
	var dir directory
	if err := c.get(ctx, "/source", nil, &dir); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(dir.Entries))
	for _, e := range dir.Entries {
		if e.Name == "" || e.Name == "deleted" {
			continue
		}
		out = append(out, e.Name)
	}
	return out, nil
}

// ListWatchedProjects returns the configured user's watchlist. The user's
// home project is included when it exists.
func (c *Client) ListWatchedProjects(ctx context.Context) ([]string, error) {
	person, err := c.person(ctx)
	if err != nil {
		return nil, err
	}
	projects := person.watchlist()

	home := "home:" + c.user
	for _, p := range projects {
		if p == home {
			return projects, nil
		}
	}
	err = c.get(ctx, "/source/"+home+"/_meta", nil, nil)
	switch {
	case err == nil:
		projects = append(projects, home)
	case IsNotFound(err):
	default:
		return nil, err
	}
	return projects, nil
}

// Targets returns the repository/arch pairs a project builds for.
func (c *Client) Targets(ctx context.Context, project string) ([]string, error) {
	var meta projectMeta
	if err := c.get(ctx, "/source/"+project+"/_meta", nil, &meta); err != nil {
		return nil, err
	}
	var out []string
	for _, r := range meta.Repositories {
		for _, a := range r.Archs {
			out = append(out, r.Name+"/"+strings.TrimSpace(a))
		}
	}
	return out, nil
}

// Results returns the package-by-target status matrix for project.
func (c *Client) Results(ctx context.Context, project string) (listmodel.ResultMatrix, error) {
	var rl resultList
	if err := c.get(ctx, "/build/"+project+"/_result", nil, &rl); err != nil {
		return listmodel.ResultMatrix{}, err
	}
	m, err := rl.matrix()
	if err != nil {
		return listmodel.ResultMatrix{}, &ProtocolError{URL: "/build/" + project + "/_result", StatusCode: http.StatusOK, Err: err}
	}
	return m, nil
}

// PackageStatus returns the status of one package keyed by target.
func (c *Client) PackageStatus(ctx context.Context, project, pkg string) (map[string]string, error) {
	q := url.Values{}
	q.Set("package", pkg)
	var rl resultList
	if err := c.get(ctx, "/build/"+project+"/_result", q, &rl); err != nil {
		return nil, err
	}
	return rl.packageStatus(), nil
}

// WorkerStatus returns building workers followed by idle ones.
func (c *Client) WorkerStatus(ctx context.Context) ([]Worker, error) {
	ws, err := c.workerStatus(ctx)
	if err != nil {
		return nil, err
	}
	return ws.workers(), nil
}

// WaitStats returns the number of waiting jobs per scheduler architecture.
func (c *Client) WaitStats(ctx context.Context) ([]WaitStat, error) {
	ws, err := c.workerStatus(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]WaitStat, 0, len(ws.Waiting))
	for _, w := range ws.Waiting {
		out = append(out, WaitStat{Arch: w.Arch, Jobs: w.Jobs})
	}
	return out, nil
}

func (c *Client) workerStatus(ctx context.Context) (workerStatus, error) {
	var ws workerStatus
	err := c.get(ctx, "/build/_workerstatus", nil, &ws)
	return ws, err
}

// SubmitRequests returns submit requests ordered by ascending id.
func (c *Client) SubmitRequests(ctx context.Context) ([]SubmitRequest, error) {
	q := url.Values{}
	q.Set("match", submitMatch)
	var rc requestCollection
	if err := c.get(ctx, "/search/request", q, &rc); err != nil {
		return nil, err
	}
	reqs := rc.submitRequests()
	sort.SliceStable(reqs, func(i, j int) bool { return reqs[i].ID < reqs[j].ID })
	return reqs, nil
}

// BuildLog returns the log bytes of a build starting at offset.
func (c *Client) BuildLog(ctx context.Context, project, target, pkg string, offset int64) ([]byte, error) {
	path, err := buildPath(project, target, pkg, "_log")
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("nostream", "1")
	q.Set("start", strconv.FormatInt(offset, 10))
	body, err := c.raw(ctx, http.MethodGet, &url.URL{Path: path, RawQuery: q.Encode()}, nil)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// BuildHistory returns past builds of pkg for target.
func (c *Client) BuildHistory(ctx context.Context, project, pkg, target string) ([]HistoryEntry, error) {
	path, err := buildPath(project, target, pkg, "_history")
	if err != nil {
		return nil, err
	}
	var bh buildHistory
	if err := c.get(ctx, path, nil, &bh); err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, 0, len(bh.Entries))
	for _, e := range bh.Entries {
		out = append(out, HistoryEntry{
			Time:           unixTime(e.Time),
			SrcMD5:         e.SrcMD5,
			Rev:            e.Rev,
			VersionRelease: e.VersRel,
			BuildCount:     e.BCnt,
		})
	}
	return out, nil
}

// CommitLog returns the source revisions of pkg. A non-empty revision
// limits the result to that revision.
func (c *Client) CommitLog(ctx context.Context, project, pkg, revision string) ([]Commit, error) {
	var rl revisionList
	path := "/source/" + project + "/" + pkg + "/_history"
	if err := c.get(ctx, path, nil, &rl); err != nil {
		return nil, err
	}
	var out []Commit
	for _, r := range rl.Revisions {
		if revision != "" && r.Rev != revision && r.SrcMD5 != revision {
			continue
		}
		out = append(out, Commit{
			Rev:     r.Rev,
			SrcMD5:  r.SrcMD5,
			Version: r.Version,
			Time:    unixTime(r.Time),
			User:    r.User,
			Comment: strings.TrimSpace(r.Comment),
		})
	}
	return out, nil
}

// Rebuild triggers a rebuild. Empty pkg or target widen the command to all
// packages or all targets; a non-empty code limits it to packages with that
// status.
func (c *Client) Rebuild(ctx context.Context, project, pkg, target, code string) error {
	q, err := commandQuery("rebuild", pkg, target)
	if err != nil {
		return &CommandError{Op: "rebuild", Project: project, Package: pkg, Target: target, Err: err}
	}
	if code != "" {
		q.Set("code", code)
	}
	if err := c.post(ctx, "/build/"+project, q); err != nil {
		return &CommandError{Op: "rebuild", Project: project, Package: pkg, Target: target, Err: err}
	}
	return nil
}

// AbortBuild aborts running builds matching pkg and target.
func (c *Client) AbortBuild(ctx context.Context, project, pkg, target string) error {
	q, err := commandQuery("abortbuild", pkg, target)
	if err == nil {
		err = c.post(ctx, "/build/"+project, q)
	}
	if err != nil {
		return &CommandError{Op: "abort", Project: project, Package: pkg, Target: target, Err: err}
	}
	return nil
}

// WatchProject adds project to the user's watchlist.
func (c *Client) WatchProject(ctx context.Context, project string) error {
	if err := c.setWatched(ctx, project, true); err != nil {
		return &CommandError{Op: "watch", Project: project, Err: err}
	}
	return nil
}

// UnwatchProject removes project from the user's watchlist.
func (c *Client) UnwatchProject(ctx context.Context, project string) error {
	if err := c.setWatched(ctx, project, false); err != nil {
		return &CommandError{Op: "unwatch", Project: project, Err: err}
	}
	return nil
}

func (c *Client) setWatched(ctx context.Context, project string, watched bool) error {
	person, err := c.person(ctx)
	if err != nil {
		return err
	}
	if !person.setWatched(project, watched) {
		return nil
	}
	body, err := xml.Marshal(person)
	if err != nil {
		return fmt.Errorf("encode person: %w", err)
	}
	_, err = c.raw(ctx, http.MethodPut, &url.URL{Path: c.personPath()}, body)
	return err
}

func (c *Client) person(ctx context.Context) (*xmlNode, error) {
	if c.user == "" {
		return nil, &ValidationError{Field: "user", Value: "", Reason: "required for the watchlist"}
	}
	var node xmlNode
	if err := c.get(ctx, c.personPath(), nil, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

func (c *Client) personPath() string {
	return "/person/" + c.user
}

func commandQuery(cmd, pkg, target string) (url.Values, error) {
	q := url.Values{}
	q.Set("cmd", cmd)
	if pkg != "" {
		q.Set("package", pkg)
	}
	if target != "" {
		repo, arch, err := SplitTarget(target)
		if err != nil {
			return nil, err
		}
		q.Set("repository", repo)
		q.Set("arch", arch)
	}
	return q, nil
}

func buildPath(project, target, pkg, leaf string) (string, error) {
	repo, arch, err := SplitTarget(target)
	if err != nil {
		return "", err
	}
	return "/build/" + project + "/" + repo + "/" +
		arch + "/" + pkg + "/" + leaf, nil
}

func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	rel := &url.URL{Path: path}
	if query != nil {
		rel.RawQuery = query.Encode()
	}
	return c.doURL(ctx, http.MethodGet, rel, dest)
}

func (c *Client) post(ctx context.Context, path string, query url.Values) error {
	_, err := c.raw(ctx, http.MethodPost, &url.URL{Path: path, RawQuery: query.Encode()}, nil)
	return err
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, dest any) error {
	body, err := c.raw(ctx, method, rel, nil)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	if err := xml.Unmarshal(body, dest); err != nil {
		return &ProtocolError{URL: rel.String(), StatusCode: http.StatusOK, Err: err}
	}
	return nil
}

// raw performs one request and returns the response body of a 2xx reply.
// Failures come back as TransportError, NotFoundError or ProtocolError.
func (c *Client) raw(ctx context.Context, method string, rel *url.URL, payload []byte) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	reqURL := c.baseURL.ResolveReference(rel)
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/xml")
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: rel.String(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: rel.String(), Err: err}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{URL: rel.String(), Summary: replySummary(body)}
	}
	if resp.StatusCode >= 300 {
		return nil, &ProtocolError{URL: rel.String(), StatusCode: resp.StatusCode, Summary: replySummary(body)}
	}
	return body, nil
}

func replySummary(body []byte) string {
	var reply statusReply
	if err := xml.Unmarshal(body, &reply); err != nil {
		return ""
	}
	return strings.TrimSpace(reply.Summary)
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, &ValidationError{Field: "api_url", Value: apiURL, Reason: "missing host"}
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// IsTransient reports whether err is a failure worth retrying on the next
// poll rather than a permanent rejection.
func IsTransient(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var pe *ProtocolError
	return errors.As(err, &pe) && pe.StatusCode >= 500
}
