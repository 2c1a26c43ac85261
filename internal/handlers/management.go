package handlers

import (
	"net/http"
	"strconv"

	"github.com/replyhub/admin-gateway/internal/repository"
	"github.com/rs/zerolog/log"
)

// ManagementHandler exposes the gateway's own records: the company
// registry and the mutation audit trail.
type ManagementHandler struct {
	companyRepo *repository.CompanyRepository
	auditRepo   *repository.AuditRepository
}

// NewManagementHandler creates a management handler
func NewManagementHandler(companyRepo *repository.CompanyRepository, auditRepo *repository.AuditRepository) *ManagementHandler {
	return &ManagementHandler{
		companyRepo: companyRepo,
		auditRepo:   auditRepo,
	}
}

// ListCompanies returns the registry of companies seen at login
func (h *ManagementHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	companies, err := h.companyRepo.List(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list companies")
		writeError(w, http.StatusInternalServerError, "failed to list companies")
		return
	}
	writeData(w, http.StatusOK, companies)
}

// ListAuditLogs returns the active company's mutation history
func (h *ManagementHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	company, ok := companyFrom(w, r)
	if !ok {
		return
	}

	limit, offset := 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, _ = strconv.Atoi(v)
	}

	logs, err := h.auditRepo.GetByCompanyID(r.Context(), company.ID, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get audit logs")
		writeError(w, http.StatusInternalServerError, "failed to get audit logs")
		return
	}
	writeData(w, http.StatusOK, logs)
}
