// Package service implements the request forwarder shared by every route group.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"oncoapp-gateway/internal/client"
	"oncoapp-gateway/internal/config"
	"oncoapp-gateway/internal/model"
)

// AuthPolicy states how a route treats the caller's bearer token.
type AuthPolicy int

const (
	// AuthNone never forwards a credential.
	AuthNone AuthPolicy = iota
	// AuthOptional forwards the bearer token when the caller sends one.
	AuthOptional
	// AuthRequired rejects the request without contacting the backend when no
	// bearer token is present.
	AuthRequired
)

func (p AuthPolicy) String() string {
	switch p {
	case AuthNone:
		return "none"
	case AuthOptional:
		return "optional"
	case AuthRequired:
		return "required"
	default:
		return fmt.Sprintf("AuthPolicy(%d)", int(p))
	}
}

// Backend names used in logs, metrics and error messages.
const (
	BackendAuth           = "auth"
	BackendPatient        = "patient"
	BackendRecommendation = "recommendation"
)

// allowedMethods is the forwarding verb allow-list.
var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// droppedRequestHeaders are never copied to the backend. Authorization is
// re-added from the parsed bearer token; Accept-Encoding is left to the
// transport so response bodies arrive decoded.
var droppedRequestHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
	"Host":                true,
	"Content-Length":      true,
	"Accept-Encoding":     true,
	"Authorization":       true,
}

const (
	userAgent               = "oncoapp-gateway/1.0"
	defaultMaxResponseBytes = 10 * 1024 * 1024
)

// Call describes one forwarding request. Body, when non-nil, is sent as JSON.
type Call struct {
	Method   string
	Endpoint string
	Header   http.Header
	Query    url.Values
	Body     any
	Auth     AuthPolicy
}

// Forwarder relays calls to a single backend service.
type Forwarder struct {
	name             string
	baseURL          string
	client           *client.BackendClient
	maxResponseBytes int64
	logger           *slog.Logger
}

// NewForwarder creates a Forwarder for the backend at baseURL.
func NewForwarder(name, baseURL string, c *client.BackendClient, maxResponseBytes int64, logger *slog.Logger) (*Forwarder, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s base_url: %w", name, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s base_url %q must be absolute", name, baseURL)
	}

	if maxResponseBytes <= 0 {
		maxResponseBytes = defaultMaxResponseBytes
	}

	return &Forwarder{
		name:             name,
		baseURL:          strings.TrimRight(baseURL, "/"),
		client:           c,
		maxResponseBytes: maxResponseBytes,
		logger:           logger.With("component", "forwarder", "backend", name),
	}, nil
}

// Name returns the backend name.
func (f *Forwarder) Name() string { return f.name }

// BaseURL returns the backend base URL without a trailing slash.
func (f *Forwarder) BaseURL() string { return f.baseURL }

// Forward issues exactly one call to the backend and returns its relayed
// response. It returns ErrMissingCredential, ErrMethodNotSupported,
// *UnreachableError or *BackendError on the corresponding failure.
func (f *Forwarder) Forward(ctx context.Context, call Call) (*model.RelayedResponse, error) {
	token := BearerToken(call.Header)
	if call.Auth == AuthRequired && token == "" {
		return nil, ErrMissingCredential
	}
	if !allowedMethods[call.Method] {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotSupported, call.Method)
	}

	header := f.outboundHeader(call.Header)
	if token != "" && call.Auth != AuthNone {
		header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	var body io.Reader
	if call.Body != nil {
		data, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request body: %w", f.name, err)
		}
		body = bytes.NewReader(data)
		header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	f.logger.Debug("forwarding request",
		"method", call.Method,
		"endpoint", call.Endpoint,
		"auth", call.Auth.String(),
	)

	reply, err := f.client.Send(&model.OutboundCall{
		Ctx:     ctx,
		Backend: f.name,
		Method:  call.Method,
		URL:     f.buildURL(call.Endpoint, call.Query),
		Header:  header,
		Body:    body,
	})
	if err != nil {
		return nil, &UnreachableError{Backend: f.name, Err: err}
	}
	defer func() { _ = reply.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(reply.Body, f.maxResponseBytes+1))
	if err != nil {
		return nil, &UnreachableError{Backend: f.name, Err: fmt.Errorf("read response body: %w", err)}
	}
	if int64(len(raw)) > f.maxResponseBytes {
		return nil, &UnreachableError{Backend: f.name, Err: fmt.Errorf("backend response exceeds %d bytes", f.maxResponseBytes)}
	}

	if reply.StatusCode >= http.StatusBadRequest {
		return nil, &BackendError{Backend: f.name, StatusCode: reply.StatusCode, Detail: string(raw)}
	}

	return relay(reply.StatusCode, raw)
}

// relay turns a successful backend reply into the body sent to the caller.
func relay(status int, raw []byte) (*model.RelayedResponse, error) {
	if status == http.StatusNoContent {
		return &model.RelayedResponse{StatusCode: status}, nil
	}
	if json.Valid(raw) {
		return &model.RelayedResponse{StatusCode: status, Body: raw}, nil
	}
	wrapped, err := json.Marshal(model.MessageBody{Message: string(raw)})
	if err != nil {
		return nil, fmt.Errorf("wrap non-JSON body: %w", err)
	}
	return &model.RelayedResponse{StatusCode: status, Body: wrapped}, nil
}

func (f *Forwarder) buildURL(endpoint string, query url.Values) string {
	u := f.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (f *Forwarder) outboundHeader(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		if droppedRequestHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		dst[http.CanonicalHeaderKey(key)] = append([]string(nil), vals...)
	}
	// Headers named in Connection are hop-by-hop as well.
	for _, v := range src.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			dst.Del(strings.TrimSpace(name))
		}
	}
	if dst.Get("User-Agent") == "" {
		dst.Set("User-Agent", userAgent)
	}
	return dst
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Any other scheme, or an empty token, yields "".
func BearerToken(h http.Header) string {
	scheme, token, ok := strings.Cut(h.Get(echo.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Forwarders groups the three backend forwarders.
type Forwarders struct {
	Auth           *Forwarder
	Patient        *Forwarder
	Recommendation *Forwarder
}

// NewForwarders builds one Forwarder per configured backend, all sharing c.
func NewForwarders(cfg *config.Config, c *client.BackendClient, logger *slog.Logger) (*Forwarders, error) {
	limit := cfg.Backends.MaxResponseBytes

	auth, err := NewForwarder(BackendAuth, cfg.Backends.Auth.BaseURL, c, limit, logger)
	if err != nil {
		return nil, err
	}
	patient, err := NewForwarder(BackendPatient, cfg.Backends.Patient.BaseURL, c, limit, logger)
	if err != nil {
		return nil, err
	}
	recommendation, err := NewForwarder(BackendRecommendation, cfg.Backends.Recommendation.BaseURL, c, limit, logger)
	if err != nil {
		return nil, err
	}

	return &Forwarders{Auth: auth, Patient: patient, Recommendation: recommendation}, nil
}
