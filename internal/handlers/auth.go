package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/replyhub/admin-gateway/internal/form"
	"github.com/replyhub/admin-gateway/internal/models"
	"github.com/replyhub/admin-gateway/internal/session"
	"github.com/replyhub/admin-gateway/internal/upstream"
	"github.com/rs/zerolog/log"
)

// Registrar records companies seen at login. Satisfied by
// repository.CompanyRepository; nil disables the registry.
type Registrar interface {
	Upsert(ctx context.Context, company *models.Company) error
}

// AuthHandler manages the company session
type AuthHandler struct {
	client    *upstream.Client
	sessions  *session.Store
	registrar Registrar
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(client *upstream.Client, sessions *session.Store, registrar Registrar) *AuthHandler {
	return &AuthHandler{
		client:    client,
		sessions:  sessions,
		registrar: registrar,
	}
}

// Login authenticates against the platform and starts a session
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	values, ok := decodeValues(w, r)
	if !ok {
		return
	}

	fc := form.New(nil,
		form.Required("email"),
		form.Email("email"),
		form.Required("password"),
		form.MinLen("password", 6),
	)
	setFields(fc, values)

	if violations := fc.Validate(); len(violations) > 0 {
		writeFieldErrors(w, violations)
		return
	}

	data, apiErr := fc.Submit(r.Context(), func(ctx context.Context, v map[string]string) (json.RawMessage, *upstream.APIError) {
		return h.client.Login(ctx, v["email"], v["password"])
	})
	if data == nil && apiErr == nil {
		writeError(w, http.StatusConflict, "a login is already in flight")
		return
	}
	if apiErr != nil {
		if apiErr.Kind == upstream.KindBusiness {
			writeError(w, http.StatusUnauthorized, apiErr.Message)
			return
		}
		writeAPIError(w, apiErr)
		return
	}

	var company models.Company
	if err := json.Unmarshal(data, &company); err != nil || company.ID == uuid.Nil {
		log.Error().Err(err).Msg("Login response carried no usable company")
		writeError(w, http.StatusBadGateway, "platform returned an unusable login response")
		return
	}

	if !company.IsActive() {
		writeError(w, http.StatusForbidden, "company account is "+string(company.Status))
		return
	}

	if err := h.sessions.SetCurrent(r.Context(), company); err != nil {
		log.Error().Err(err).Msg("Failed to start session")
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	if h.registrar != nil {
		if err := h.registrar.Upsert(r.Context(), &company); err != nil {
			log.Warn().Err(err).Msg("Failed to record company in registry")
		}
	}

	writeData(w, http.StatusOK, company)
}

// Logout clears the session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(r.Context()); err != nil {
		log.Error().Err(err).Msg("Failed to clear session")
		writeError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"logged_out": true})
}

// Session returns the active company, or 401 when logged out
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	company := h.sessions.Current()
	if company == nil {
		writeError(w, http.StatusUnauthorized, "no active session")
		return
	}
	writeData(w, http.StatusOK, company)
}
