package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/replyhub/admin-gateway/internal/upstream"
)

// The gateway speaks the same {success,data,error} envelope as the
// platform so the dashboard needs a single response decoder.

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}

func writeFieldErrors(w http.ResponseWriter, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "validation failed",
		"fields":  fields,
	})
}

// writeAPIError maps an upstream failure onto the gateway's own status
// codes without hiding the server-supplied message.
func writeAPIError(w http.ResponseWriter, apiErr *upstream.APIError) {
	switch apiErr.Kind {
	case upstream.KindMissingTenant:
		writeError(w, http.StatusUnauthorized, apiErr.Error())
	case upstream.KindBusiness:
		writeError(w, http.StatusBadRequest, apiErr.Message)
	case upstream.KindHTTPStatus:
		writeError(w, http.StatusBadGateway, apiErr.Error())
	default:
		writeError(w, http.StatusBadGateway, apiErr.Error())
	}
}
