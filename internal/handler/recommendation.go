package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"oncoapp-gateway/internal/model"
	"oncoapp-gateway/internal/service"
	"oncoapp-gateway/internal/validate"
)

// RecommendationHandler serves the treatment recommendation routes.
type RecommendationHandler struct {
	relay relay
}

// NewRecommendationHandler creates a RecommendationHandler.
func NewRecommendationHandler(fw *service.Forwarders, logger *slog.Logger) *RecommendationHandler {
	return &RecommendationHandler{relay: newRelay(fw.Recommendation, logger, "recommendation_handler")}
}

// Root relays the backend's root liveness message.
func (h *RecommendationHandler) Root(c echo.Context) error {
	return h.relay.do(c, service.Call{Method: http.MethodGet, Endpoint: "/", Auth: service.AuthNone})
}

// Health relays the backend's health endpoint.
func (h *RecommendationHandler) Health(c echo.Context) error {
	return h.relay.do(c, service.Call{Method: http.MethodGet, Endpoint: "/health", Auth: service.AuthNone})
}

// PredictAndUpdate asks the backend to predict a treatment for one clinical
// history and write it back.
func (h *RecommendationHandler) PredictAndUpdate(c echo.Context) error {
	var body model.HistoryIDRequest
	if err := validate.Body(c, &body); err != nil {
		return err
	}
	return h.relay.do(c, service.Call{
		Method:   http.MethodPost,
		Endpoint: "/api/v1/predict-and-update",
		Body:     body,
		Auth:     service.AuthRequired,
	})
}
