package buildservice

import (
	"errors"
	"fmt"
	"strings"
)

// TransportError wraps a failure to reach the API at all: connection
// refused, DNS, TLS or timeout.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a response the client could not use: a non-2xx
// status or a body that does not parse.
type ProtocolError struct {
	URL        string
	StatusCode int
	Summary    string
	Err        error
}

func (e *ProtocolError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("api %s: decode response: %v", e.URL, e.Err)
	case e.Summary != "":
		return fmt.Sprintf("api %s returned status %d: %s", e.URL, e.StatusCode, e.Summary)
	default:
		return fmt.Sprintf("api %s returned status %d", e.URL, e.StatusCode)
	}
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// NotFoundError reports a project, package or log that no longer exists.
type NotFoundError struct {
	URL     string
	Summary string
}

func (e *NotFoundError) Error() string {
	if e.Summary != "" {
		return fmt.Sprintf("api %s: not found: %s", e.URL, e.Summary)
	}
	return fmt.Sprintf("api %s: not found", e.URL)
}

// ValidationError reports malformed local input, such as a target that is
// not repository/arch.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// CommandError carries the project, package and target a failed command
// was aimed at so the UI can show the full context.
type CommandError struct {
	Op      string
	Project string
	Package string
	Target  string
	Err     error
}

func (e *CommandError) Error() string {
	subject := e.Project
	if e.Package != "" {
		subject += "/" + e.Package
	}
	if e.Target != "" {
		subject += " (" + e.Target + ")"
	}
	return fmt.Sprintf("%s %s failed: %v", e.Op, subject, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// SplitTarget splits "repository/arch" into its parts.
func SplitTarget(target string) (repo, arch string, err error) {
	parts := strings.Split(strings.TrimSpace(target), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &ValidationError{Field: "target", Value: target, Reason: "want repository/arch"}
	}
	return parts[0], parts[1], nil
}
