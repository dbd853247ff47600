package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"oncoapp-gateway/internal/config"
	"oncoapp-gateway/internal/model"
)

// Version is a string type for dependency injection of the build version.
type Version string

const rootMessage = "OncoApp API Gateway is running"

// HealthHandler serves the gateway's own liveness and status endpoints.
type HealthHandler struct {
	cfg     *config.Config
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v}
}

// Root returns the gateway liveness message.
func (h *HealthHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, model.MessageBody{Message: rootMessage})
}

// Healthz returns a simple OK response for liveness checks.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns gateway status information. Backends are not contacted.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": string(h.version),
		"backends": map[string]string{
			"auth":           h.cfg.Backends.Auth.BaseURL,
			"patient":        h.cfg.Backends.Patient.BaseURL,
			"recommendation": h.cfg.Backends.Recommendation.BaseURL,
		},
		"patient_auth_required": h.cfg.PatientAuthRequired(),
	})
}
