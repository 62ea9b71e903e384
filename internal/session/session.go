// Package session owns the current API endpoint and tells every view when it
// changes.
package session

import (
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/foreman/internal/buildservice"
)

// Listener is a view bound to the current service. EndpointChanged must drop
// cached data from the previous server and return the command that refetches.
type Listener interface {
	EndpointChanged(svc buildservice.Service) tea.Cmd
}

// Factory builds a service for a set of client options.
type Factory func(opts buildservice.Options) (buildservice.Service, error)

// DefaultFactory builds real HTTP clients.
func DefaultFactory(opts buildservice.Options) (buildservice.Service, error) {
	c, err := buildservice.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Session holds the endpoint context shared by all views. It is used from
// the Bubble Tea Update loop only.
type Session struct {
	opts      buildservice.Options
	servers   []string
	factory   Factory
	svc       buildservice.Service
	listeners []Listener
}

// New builds the initial client for opts.APIURL. servers is the list
// NextServer cycles through; opts.APIURL is added to it when missing.
func New(opts buildservice.Options, servers []string, factory Factory) (*Session, error) {
	if factory == nil {
		factory = DefaultFactory
	}
	svc, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", opts.APIURL, err)
	}
	s := &Session{opts: opts, factory: factory, svc: svc}
	for _, srv := range servers {
		s.addServer(srv)
	}
	s.addServer(opts.APIURL)
	return s, nil
}

func (s *Session) addServer(url string) {
	url = strings.TrimSpace(url)
	if url == "" {
		return
	}
	for _, existing := range s.servers {
		if existing == url {
			return
		}
	}
	s.servers = append(s.servers, url)
}

// Register adds a listener. It does not receive the current service; views
// are constructed with it.
func (s *Session) Register(l Listener) {
	if l != nil {
		s.listeners = append(s.listeners, l)
	}
}

// Service returns the client for the current endpoint.
func (s *Session) Service() buildservice.Service {
	return s.svc
}

// URL returns the current API URL.
func (s *Session) URL() string {
	return s.opts.APIURL
}

// User returns the configured account name.
func (s *Session) User() string {
	return s.opts.User
}

// Servers returns the configured API URLs.
func (s *Session) Servers() []string {
	return append([]string(nil), s.servers...)
}

// SetEndpoint switches to url, rebuilding the client and notifying every
// listener. The previous endpoint stays active if the client cannot be built.
func (s *Session) SetEndpoint(url string) (tea.Cmd, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, &buildservice.ValidationError{Field: "api_url", Value: url, Reason: "empty"}
	}
	opts := s.opts
	opts.APIURL = url
	svc, err := s.factory(opts)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", url, err)
	}
	s.opts = opts
	s.svc = svc
	s.addServer(url)
	log.Printf("session: endpoint now %s", url)

	cmds := make([]tea.Cmd, 0, len(s.listeners))
	for _, l := range s.listeners {
		cmds = append(cmds, l.EndpointChanged(svc))
	}
	return tea.Batch(cmds...), nil
}

// NextServer returns the configured server after the current one, wrapping
// around. It returns the current URL when only one server is known.
func (s *Session) NextServer() string {
	if len(s.servers) == 0 {
		return s.opts.APIURL
	}
	for i, srv := range s.servers {
		if srv == s.opts.APIURL {
			return s.servers[(i+1)%len(s.servers)]
		}
	}
	return s.servers[0]
}
