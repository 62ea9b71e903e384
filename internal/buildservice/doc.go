// Package buildservice provides an HTTP/XML client for the build service API.
//
// # Overview
//
// The client covers the read endpoints foreman polls (projects, result
// matrices, worker status, submit requests, build logs and histories) and the
// few commands it issues (rebuild, abort, watchlist edits).
//
// # Files
//
//   - client.go: Service interface, Client and request handling
//   - types.go: domain types and the XML payloads they are decoded from
//   - errors.go: error taxonomy
//
// # Errors
//
// Every failure is one of:
//
//   - *TransportError: the server could not be reached
//   - *NotFoundError: 404, e.g. a deleted project or a missing log
//   - *ProtocolError: any other non-2xx reply, or a body that does not parse
//   - *ValidationError: bad local input such as a malformed target
//
// Commands additionally wrap the cause in *CommandError so the status bar can
// name the project, package and target that failed. Callers inspect errors
// with errors.As.
//
// # Targets
//
// A target is "repository/arch". Result matrices list targets in the order
// the server reports them and pad packages a target does not know with the
// status "unknown", so every row lines up with the target list.
//
// # Thread Safety
//
// Client is safe for concurrent use.
package buildservice
