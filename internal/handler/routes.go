package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"oncoapp-gateway/internal/config"
	"oncoapp-gateway/internal/metrics"
	"oncoapp-gateway/internal/service"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(
	e *echo.Echo,
	cfg *config.Config,
	m *metrics.Metrics,
	auth *AuthHandler,
	patient *PatientHandler,
	rec *RecommendationHandler,
	health *HealthHandler,
) {
	e.GET("/", health.Root)
	e.GET("/healthz", health.Healthz)
	e.GET("/gateway/status", health.Status)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	bearer := requireBearer(service.AuthRequired)
	patientBearer := requireBearer(patient.Policy())

	a := e.Group("/auth")
	a.POST("/register", auth.Register)
	a.POST("/login", auth.Login)
	a.GET("/me", auth.Me, bearer)
	a.GET("/admin/users", auth.ListUsers, bearer)
	a.GET("/admin/medicos", auth.ListMedicos, bearer)
	a.GET("/admin/user-medico/:user_id", auth.GetUserMedico, bearer)
	a.PUT("/admin/user-medico/:user_id", auth.UpdateUserMedico, bearer)
	a.GET("/search", auth.Search, bearer)
	a.GET("/search/flexible", auth.SearchFlexible, bearer)

	for _, p := range []string{"/patients", "/patients/"} {
		e.GET(p, patient.ListPatients, patientBearer)
		e.POST(p, patient.CreatePatient, patientBearer)
	}
	e.GET("/patients/:document_id", patient.GetPatient, patientBearer)
	e.PATCH("/patients/:document_id", patient.UpdatePatient, patientBearer)
	e.DELETE("/patients/:document_id", patient.DeletePatient, patientBearer)

	for _, p := range []string{"/clinical_histories", "/clinical_histories/"} {
		e.POST(p, patient.CreateClinicalHistory, patientBearer)
	}
	e.GET("/clinical_histories/:history_id", patient.GetClinicalHistory, patientBearer)
	e.PATCH("/clinical_histories/:history_id", patient.UpdateClinicalHistory, patientBearer)
	e.DELETE("/clinical_histories/:history_id", patient.DeleteClinicalHistory, patientBearer)
	e.GET("/clinical_histories/document/:document_id", patient.ListHistoriesByDocument, patientBearer)

	// GET / belongs to the gateway itself, so the backend root is served
	// under /recommendation.
	for _, p := range []string{"/recommendation", "/recommendation/"} {
		e.GET(p, rec.Root)
	}
	e.GET("/health", rec.Health)
	e.GET("/recommendation/health", rec.Health)
	e.POST("/api/v1/predict-and-update", rec.PredictAndUpdate, bearer)
}
