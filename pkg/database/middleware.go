package database

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProjectHeader carries the tenant identifier on API requests. Session and
// token verification live in the upstream gateway; by the time a request
// reaches the engine the header is authoritative.
const ProjectHeader = "X-Project-ID"

// TenantMiddleware wraps a handler with per-request tenant scoping.
type TenantMiddleware func(http.HandlerFunc) http.HandlerFunc

// WithTenantContext creates middleware that sets up a tenant-scoped DB
// connection for the request's project. The connection is automatically
// cleaned up after the handler returns.
func WithTenantContext(db *DB, logger *zap.Logger) TenantMiddleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(ProjectHeader)
			if header == "" {
				writeError(w, http.StatusBadRequest, "missing_project_id", "Missing "+ProjectHeader+" header")
				return
			}

			projectID, err := uuid.Parse(header)
			if err != nil {
				logger.Error("Invalid project ID format",
					zap.String("project_id", header),
					zap.Error(err))
				writeError(w, http.StatusBadRequest, "invalid_project_id", "Invalid project ID format")
				return
			}

			scope, err := db.WithTenant(r.Context(), projectID)
			if err != nil {
				logger.Error("Failed to acquire tenant connection",
					zap.String("project_id", projectID.String()),
					zap.Error(err))
				writeError(w, http.StatusInternalServerError, "database_error", "Database connection error")
				return
			}
			defer scope.Close()

			ctx := SetTenantScope(r.Context(), scope)
			next(w, r.WithContext(ctx))
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}
