package service

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is returned when a route requires a bearer token and
// the inbound request carries none.
var ErrMissingCredential = errors.New("missing authorization token")

// ErrMethodNotSupported is returned for verbs outside the forwarding allow-list.
var ErrMethodNotSupported = errors.New("method not supported")

// UnreachableError reports a transport-level failure reaching a backend.
type UnreachableError struct {
	Backend string
	Err     error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("error contacting the %s service: %v", e.Backend, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// BackendError reports a response with status >= 400. Detail is the backend's
// raw body.
type BackendError struct {
	Backend    string
	StatusCode int
	Detail     string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s service responded %d: %s", e.Backend, e.StatusCode, e.Detail)
}
