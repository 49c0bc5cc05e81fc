// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package session

import "github.com/samber/oops"

// Error codes for session management.
const (
	CodeRequestInFlight = "REQUEST_IN_FLIGHT"
	CodeOriginBlocked   = "ORIGIN_BLOCKED"
	CodeSessionNotFound = "SESSION_NOT_FOUND"
	CodeSessionExists   = "SESSION_EXISTS"
	CodeInvalidSession  = "INVALID_SESSION"
)

// ErrRequestInFlight creates an error for a second concurrent request.
func ErrRequestInFlight(id string) error {
	return oops.Code(CodeRequestInFlight).With("document", id).Errorf("a request is already in progress for %s", id)
}

// ErrOriginBlocked creates an error for a document URL on the block list.
func ErrOriginBlocked(url, pattern string) error {
	return oops.Code(CodeOriginBlocked).
		With("url", url).
		With("pattern", pattern).
		Errorf("cannot modify this page: %s", url)
}

// ErrNotFound creates an error for an unknown session.
func ErrNotFound(id string) error {
	return oops.Code(CodeSessionNotFound).With("document", id).Errorf("no open document %q", id)
}

// ErrExists creates an error for a session id already in use.
func ErrExists(id string) error {
	return oops.Code(CodeSessionExists).With("document", id).Errorf("document %q is already open", id)
}
