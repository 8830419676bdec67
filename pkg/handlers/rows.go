package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/gridbase-io/gridbase-engine/pkg/database"
	"github.com/gridbase-io/gridbase-engine/pkg/models"
	"github.com/gridbase-io/gridbase-engine/pkg/services"
)

// RowQueryResponse is the payload of a row query.
type RowQueryResponse struct {
	Rows  []*models.Row `json:"rows"`
	Total int           `json:"total"`
}

// RowHandler serves filtered row reads.
type RowHandler struct {
	rowQueryService services.RowQueryService
	logger          *zap.Logger
}

// NewRowHandler creates a new RowHandler.
func NewRowHandler(rowQueryService services.RowQueryService, logger *zap.Logger) *RowHandler {
	return &RowHandler{rowQueryService: rowQueryService, logger: logger}
}

// RegisterRoutes registers the row handler's routes on the given mux.
func (h *RowHandler) RegisterRoutes(mux *http.ServeMux, tenantMiddleware database.TenantMiddleware) {
	mux.HandleFunc("POST /api/tables/{tableID}/rows/query", tenantMiddleware(h.Query))
}

// Query handles POST /api/tables/{tableID}/rows/query.
// The body carries an optional global search term and a list of filters;
// malformed filters are dropped server-side, never rejected.
func (h *RowHandler) Query(w http.ResponseWriter, r *http.Request) {
	tableID, ok := ParsePathUUID(w, r, "tableID", h.logger)
	if !ok {
		return
	}

	var req services.RowQueryRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid request body"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
	}

	rows, err := h.rowQueryService.QueryRows(r.Context(), tableID, &req)
	if err != nil {
		h.logger.Error("Failed to query rows",
			zap.String("table_id", tableID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "query_rows_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := RowQueryResponse{Rows: rows, Total: len(rows)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
