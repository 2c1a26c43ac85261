package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/replyhub/admin-gateway/internal/models"
	"github.com/replyhub/admin-gateway/internal/session"
	"github.com/rs/zerolog/log"
)

type contextKey string

const CompanyKey contextKey = "company"

// RequireCompany resolves the active company from the session store and
// rejects requests when no session is active. The company lands in the
// request context; handlers never read the session store directly.
func RequireCompany(sessions *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			company := sessions.Current()
			if company == nil {
				log.Debug().Str("path", r.URL.Path).Msg("Rejected request without session")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"error":   "authentication required",
				})
				return
			}

			ctx := context.WithValue(r.Context(), CompanyKey, company)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCompany extracts the active company from context
func GetCompany(ctx context.Context) (*models.Company, bool) {
	company, ok := ctx.Value(CompanyKey).(*models.Company)
	return company, ok
}
