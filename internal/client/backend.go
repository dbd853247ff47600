// Package client provides the pooled HTTP client shared by all backend forwarders.
package client

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"oncoapp-gateway/internal/config"
	"oncoapp-gateway/internal/metrics"
	"oncoapp-gateway/internal/model"
)

// BackendClient sends requests to the backend services.
type BackendClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewBackendClient creates a BackendClient with connection pooling and timeouts.
// The metrics parameter is optional; pass nil to disable backend metrics recording.
func NewBackendClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *BackendClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Backends.IdleConnections,
		MaxIdleConnsPerHost: cfg.Backends.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &BackendClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Backends.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "backend_client"),
		metrics: m,
	}
}

// Send executes one outbound call and returns the raw reply.
// The caller is responsible for closing the reply body. The call's context
// bounds the request: when it is canceled (e.g. the client disconnects) the
// backend request is canceled too.
func (c *BackendClient) Send(call *model.OutboundCall) (*model.BackendReply, error) {
	req, err := http.NewRequestWithContext(call.Ctx, call.Method, call.URL, call.Body)
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	req.Header = call.Header

	c.logger.Debug("backend request",
		"backend", call.Backend,
		"method", req.Method,
		"path", req.URL.Path,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller via BackendReply
	duration := time.Since(start).Seconds()

	method := metrics.NormalizeMethod(req.Method)

	if err != nil {
		if c.metrics != nil {
			c.metrics.BackendDuration.WithLabelValues(call.Backend, method).Observe(duration)
			c.metrics.BackendFailures.WithLabelValues(call.Backend, method).Inc()
		}
		return nil, err
	}

	if c.metrics != nil {
		status := strconv.Itoa(resp.StatusCode)
		c.metrics.BackendDuration.WithLabelValues(call.Backend, method).Observe(duration)
		c.metrics.BackendResponses.WithLabelValues(call.Backend, method, status).Inc()
	}

	return &model.BackendReply{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}
