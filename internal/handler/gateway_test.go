package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"oncoapp-gateway/internal/client"
	"oncoapp-gateway/internal/config"
	"oncoapp-gateway/internal/metrics"
	"oncoapp-gateway/internal/service"
	"oncoapp-gateway/internal/validate"
)

// received is one request seen by a backend stub.
type received struct {
	Method   string
	Path     string
	RawPath  string
	RawQuery string
	Header   http.Header
	Body     string
}

// backendStub is an httptest backend answering every request with a fixed
// status and body.
type backendStub struct {
	srv *httptest.Server

	mu       sync.Mutex
	requests []received
	status   int
	body     string
}

func newBackendStub(t *testing.T) *backendStub {
	t.Helper()
	b := &backendStub{status: http.StatusOK, body: `{}`}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)

		b.mu.Lock()
		b.requests = append(b.requests, received{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawPath:  r.URL.EscapedPath(),
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
			Body:     string(data),
		})
		status, body := b.status, b.body
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backendStub) reply(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status, b.body = status, body
}

func (b *backendStub) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func (b *backendStub) last(t *testing.T) received {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		t.Fatal("backend received no requests")
	}
	return b.requests[len(b.requests)-1]
}

// testGateway is a fully routed Echo instance in front of three stubs.
type testGateway struct {
	e              *echo.Echo
	auth           *backendStub
	patient        *backendStub
	recommendation *backendStub
}

func newTestGateway(t *testing.T, opts ...func(*config.Config)) *testGateway {
	t.Helper()

	g := &testGateway{
		auth:           newBackendStub(t),
		patient:        newBackendStub(t),
		recommendation: newBackendStub(t),
	}

	cfg := &config.Config{
		Backends: config.BackendsConfig{
			TimeoutSeconds:  5,
			IdleConnections: 10,
			Auth:            config.BackendConfig{BaseURL: g.auth.srv.URL},
			Patient:         config.PatientBackendConfig{BaseURL: g.patient.srv.URL},
			Recommendation:  config.BackendConfig{BaseURL: g.recommendation.srv.URL},
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	logger := testLogger()
	m := metrics.New()
	fw, err := service.NewForwarders(cfg, client.NewBackendClient(cfg, logger, m), logger)
	if err != nil {
		t.Fatalf("NewForwarders: %v", err)
	}

	e := echo.New()
	e.Validator = validate.New()
	e.HTTPErrorHandler = NewErrorHandler(logger)
	RegisterRoutes(e, cfg, m,
		NewAuthHandler(fw, logger),
		NewPatientHandler(cfg, fw, logger),
		NewRecommendationHandler(fw, logger),
		NewHealthHandler(cfg, "test"),
	)
	g.e = e
	return g
}

// do sends one request through the gateway. A non-empty token is sent as a
// bearer credential.
func (g *testGateway) do(method, target, body, token string) *httptest.ResponseRecorder {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	g.e.ServeHTTP(rec, req)
	return rec
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func boolPtr(b bool) *bool { return &b }
