package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"oncoapp-gateway/internal/config"
	"oncoapp-gateway/internal/model"
	"oncoapp-gateway/internal/service"
	"oncoapp-gateway/internal/validate"
)

// PatientHandler serves patients and clinical histories. Every route in the
// group shares one auth policy taken from backends.patient.require_auth.
type PatientHandler struct {
	relay  relay
	policy service.AuthPolicy
}

// NewPatientHandler creates a PatientHandler.
func NewPatientHandler(cfg *config.Config, fw *service.Forwarders, logger *slog.Logger) *PatientHandler {
	policy := service.AuthOptional
	if cfg.PatientAuthRequired() {
		policy = service.AuthRequired
	}
	return &PatientHandler{
		relay:  newRelay(fw.Patient, logger, "patient_handler"),
		policy: policy,
	}
}

// Policy reports the auth policy applied to the group.
func (h *PatientHandler) Policy() service.AuthPolicy { return h.policy }

// ListPatients forwards the optional page and page_size parameters.
func (h *PatientHandler) ListPatients(c echo.Context) error {
	var errs validate.Errors
	page := errs.QueryInt(c, "page")
	pageSize := errs.QueryInt(c, "page_size")
	if err := errs.Err(); err != nil {
		return err
	}

	query := url.Values{}
	if page != nil {
		query.Set("page", strconv.Itoa(*page))
	}
	if pageSize != nil {
		query.Set("page_size", strconv.Itoa(*pageSize))
	}

	return h.relay.do(c, h.call(http.MethodGet, "/patients/", query, nil))
}

// CreatePatient validates and forwards a new patient.
func (h *PatientHandler) CreatePatient(c echo.Context) error {
	var body model.PatientCreate
	if err := validate.Body(c, &body); err != nil {
		return err
	}
	return h.relay.do(c, h.call(http.MethodPost, "/patients/", nil, body))
}

// GetPatient fetches one patient by document id.
func (h *PatientHandler) GetPatient(c echo.Context) error {
	return h.relay.do(c, h.call(http.MethodGet, "/patients/"+pathParam(c, "document_id"), nil, nil))
}

// UpdatePatient forwards only the fields present in the request.
func (h *PatientHandler) UpdatePatient(c echo.Context) error {
	var body model.PatientUpdate
	if err := validate.Body(c, &body); err != nil {
		return err
	}
	return h.relay.do(c, h.call(http.MethodPatch, "/patients/"+pathParam(c, "document_id"), nil, body))
}

// DeletePatient removes one patient.
func (h *PatientHandler) DeletePatient(c echo.Context) error {
	return h.relay.do(c, h.call(http.MethodDelete, "/patients/"+pathParam(c, "document_id"), nil, nil))
}

// CreateClinicalHistory validates and forwards a new clinical history.
func (h *PatientHandler) CreateClinicalHistory(c echo.Context) error {
	var body model.ClinicalHistoryCreate
	if err := validate.Body(c, &body); err != nil {
		return err
	}
	return h.relay.do(c, h.call(http.MethodPost, "/clinical_histories/", nil, body))
}

// GetClinicalHistory fetches one clinical history by numeric id.
func (h *PatientHandler) GetClinicalHistory(c echo.Context) error {
	id, err := historyID(c)
	if err != nil {
		return err
	}
	return h.relay.do(c, h.call(http.MethodGet, "/clinical_histories/"+id, nil, nil))
}

// UpdateClinicalHistory forwards only the clinical fields present.
func (h *PatientHandler) UpdateClinicalHistory(c echo.Context) error {
	var errs validate.Errors
	id := errs.PathInt(c, "history_id")

	var body model.ClinicalHistoryUpdate
	if err := validate.Body(c, &body); err != nil {
		var verrs validate.Errors
		if !errors.As(err, &verrs) {
			return err
		}
		errs = append(errs, verrs...)
	}
	if err := errs.Err(); err != nil {
		return err
	}

	return h.relay.do(c, h.call(http.MethodPatch, "/clinical_histories/"+strconv.Itoa(id), nil, body))
}

// DeleteClinicalHistory removes one clinical history.
func (h *PatientHandler) DeleteClinicalHistory(c echo.Context) error {
	id, err := historyID(c)
	if err != nil {
		return err
	}
	return h.relay.do(c, h.call(http.MethodDelete, "/clinical_histories/"+id, nil, nil))
}

// ListHistoriesByDocument returns every clinical history of one patient.
func (h *PatientHandler) ListHistoriesByDocument(c echo.Context) error {
	endpoint := "/clinical_histories/document/" + pathParam(c, "document_id")
	return h.relay.do(c, h.call(http.MethodGet, endpoint, nil, nil))
}

func (h *PatientHandler) call(method, endpoint string, query url.Values, body any) service.Call {
	return service.Call{
		Method:   method,
		Endpoint: endpoint,
		Query:    query,
		Body:     body,
		Auth:     h.policy,
	}
}

func historyID(c echo.Context) (string, error) {
	var errs validate.Errors
	id := errs.PathInt(c, "history_id")
	if err := errs.Err(); err != nil {
		return "", err
	}
	return strconv.Itoa(id), nil
}
