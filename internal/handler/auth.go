package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"oncoapp-gateway/internal/model"
	"oncoapp-gateway/internal/service"
	"oncoapp-gateway/internal/validate"
)

// AuthHandler serves the /auth group. Paths are forwarded without the /auth
// mount prefix.
type AuthHandler struct {
	relay relay
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(fw *service.Forwarders, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{relay: newRelay(fw.Auth, logger, "auth_handler")}
}

// Register forwards a registration payload. Public.
func (h *AuthHandler) Register(c echo.Context) error {
	var body model.JSONObject
	if err := validate.Body(c, &body); err != nil {
		return err
	}
	return h.relay.do(c, service.Call{
		Method:   http.MethodPost,
		Endpoint: "/register",
		Body:     body,
		Auth:     service.AuthNone,
	})
}

// Login forwards credentials and relays the token response. Public. The auth
// service checks the credential fields.
func (h *AuthHandler) Login(c echo.Context) error {
	var body model.JSONObject
	if err := validate.Body(c, &body); err != nil {
		return err
	}
	return h.relay.do(c, service.Call{
		Method:   http.MethodPost,
		Endpoint: "/login",
		Body:     body,
		Auth:     service.AuthNone,
	})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	return h.get(c, "/me")
}

// ListUsers lists all users. Admin only on the backend.
func (h *AuthHandler) ListUsers(c echo.Context) error {
	return h.get(c, "/admin/users")
}

// ListMedicos lists all medicos.
func (h *AuthHandler) ListMedicos(c echo.Context) error {
	return h.get(c, "/admin/medicos")
}

// GetUserMedico returns one user-medico record.
func (h *AuthHandler) GetUserMedico(c echo.Context) error {
	return h.get(c, "/admin/user-medico/"+pathParam(c, "user_id"))
}

// UpdateUserMedico replaces one user-medico record.
func (h *AuthHandler) UpdateUserMedico(c echo.Context) error {
	var body model.JSONObject
	if err := validate.Body(c, &body); err != nil {
		return err
	}
	return h.relay.do(c, service.Call{
		Method:   http.MethodPut,
		Endpoint: "/admin/user-medico/" + pathParam(c, "user_id"),
		Body:     body,
		Auth:     service.AuthRequired,
	})
}

// Search looks up a user-medico by exact criteria.
func (h *AuthHandler) Search(c echo.Context) error {
	return h.get(c, "/search")
}

// SearchFlexible looks up user-medicos by partial criteria.
func (h *AuthHandler) SearchFlexible(c echo.Context) error {
	return h.get(c, "/search/flexible")
}

// get forwards an authenticated GET with the inbound query string.
func (h *AuthHandler) get(c echo.Context, endpoint string) error {
	return h.relay.do(c, service.Call{
		Method:   http.MethodGet,
		Endpoint: endpoint,
		Query:    c.QueryParams(),
		Auth:     service.AuthRequired,
	})
}
