// Package model defines the forwarding types and the request schemas the
// gateway validates before calling a backend.
package model

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// OutboundCall is a fully resolved request to one backend.
type OutboundCall struct {
	Ctx     context.Context
	Backend string
	Method  string
	URL     string
	Header  http.Header
	Body    io.Reader
}

// BackendReply is the raw backend response. The caller owns Body.
type BackendReply struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// RelayedResponse is what the gateway sends back for a successful backend call.
// Body is nil when the backend answered 204.
type RelayedResponse struct {
	StatusCode int
	Body       json.RawMessage
}

// MessageBody wraps a non-JSON backend body.
type MessageBody struct {
	Message string `json:"message"`
}
