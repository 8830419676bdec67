package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParsePathUUID extracts and validates a UUID path parameter. On failure it
// writes a 400 response and returns ok=false; the handler should return
// immediately.
func ParsePathUUID(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (uuid.UUID, bool) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		logger.Debug("Invalid path parameter",
			zap.String("param", name),
			zap.String("value", raw))
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_"+name, "invalid "+name+" in path"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
