package lcu

import (
	"errors"
	"fmt"
)

// Error taxonomy for the bootstrap pipeline. Every error is terminal for the current run.
var (
	// ErrProcessNotFound is returned when no running process matches the name filter.
	ErrProcessNotFound = errors.New("lcu: process not found")
	// ErrAmbiguousProcess is returned when more than one process matches and none was pinned.
	ErrAmbiguousProcess = errors.New("lcu: multiple processes match")
	// ErrLockfileMissing is returned when the lockfile does not exist or cannot be opened.
	ErrLockfileMissing = errors.New("lcu: lockfile missing")
	// ErrMalformedLockfile is returned when the lockfile is not five valid colon-separated fields.
	ErrMalformedLockfile = errors.New("lcu: malformed lockfile")
	// ErrMissingArgument is returned when a required launch argument is absent.
	ErrMissingArgument = errors.New("lcu: missing launch argument")
	// ErrMalformedArgument is returned for duplicate, empty, or unparsable launch arguments.
	ErrMalformedArgument = errors.New("lcu: malformed launch argument")
	// ErrAPIRequestFailed matches every *APIRequestError.
	ErrAPIRequestFailed = errors.New("lcu: api request failed")
	// ErrTrustAnchor is returned when the configured root certificate cannot be loaded.
	ErrTrustAnchor = errors.New("lcu: trust anchor unusable")
	// ErrNonLoopbackHost is returned when a request targets anything but a literal loopback IP.
	ErrNonLoopbackHost = errors.New("lcu: non-loopback host blocked")
)

// APIRequestError reports a non-200 response from a local API endpoint.
type APIRequestError struct {
	StatusCode int
	Path       string
}

func (e *APIRequestError) Error() string {
	return fmt.Sprintf("lcu: %s returned non-200 status code %d", e.Path, e.StatusCode)
}

// Is lets errors.Is(err, ErrAPIRequestFailed) match any status.
func (e *APIRequestError) Is(target error) bool {
	return target == ErrAPIRequestFailed
}
