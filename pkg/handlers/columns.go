package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/gridbase-io/gridbase-engine/pkg/database"
	"github.com/gridbase-io/gridbase-engine/pkg/models"
	"github.com/gridbase-io/gridbase-engine/pkg/services"
)

// TypeChangeRequest is the body of a type change execution.
type TypeChangeRequest struct {
	NewType models.ColumnType        `json:"new_type"`
	Options models.TypeChangeOptions `json:"options"`
}

// AnalyzeTypeChangeRequest is the body of a type change analysis.
type AnalyzeTypeChangeRequest struct {
	NewType models.ColumnType `json:"new_type"`
}

// ValidationErrorResponse reports pre-flight validation failures.
type ValidationErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// ColumnHandler serves column type migration endpoints.
type ColumnHandler struct {
	migrationService services.TypeMigrationService
	logger           *zap.Logger
}

// NewColumnHandler creates a new ColumnHandler.
func NewColumnHandler(migrationService services.TypeMigrationService, logger *zap.Logger) *ColumnHandler {
	return &ColumnHandler{migrationService: migrationService, logger: logger}
}

// RegisterRoutes registers the column handler's routes on the given mux.
func (h *ColumnHandler) RegisterRoutes(mux *http.ServeMux, tenantMiddleware database.TenantMiddleware) {
	base := "/api/columns/{columnID}/type-change"

	mux.HandleFunc("POST "+base, tenantMiddleware(h.Execute))
	mux.HandleFunc("POST "+base+"/analyze", tenantMiddleware(h.Analyze))
	mux.HandleFunc("GET "+base+"/estimate", tenantMiddleware(h.Estimate))
}

// Analyze handles POST /api/columns/{columnID}/type-change/analyze.
// Dry-runs the conversion and reports predicted outcomes without touching
// any cell.
func (h *ColumnHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	columnID, ok := ParsePathUUID(w, r, "columnID", h.logger)
	if !ok {
		return
	}

	var req AnalyzeTypeChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	analysis, err := h.migrationService.AnalyzeTypeChange(r.Context(), columnID, req.NewType)
	if err != nil {
		h.logger.Error("Failed to analyze type change",
			zap.String("column_id", columnID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "analyze_type_change_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: analysis}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Execute handles POST /api/columns/{columnID}/type-change.
// Validation runs against a fresh analysis before anything is mutated;
// validation failures return 400 with the full error list.
func (h *ColumnHandler) Execute(w http.ResponseWriter, r *http.Request) {
	columnID, ok := ParsePathUUID(w, r, "columnID", h.logger)
	if !ok {
		return
	}

	var req TypeChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	analysis, err := h.migrationService.AnalyzeTypeChange(r.Context(), columnID, req.NewType)
	if err != nil {
		h.logger.Error("Failed to analyze type change before execution",
			zap.String("column_id", columnID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "analyze_type_change_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if validation := h.migrationService.ValidateTypeChangeOptions(analysis, req.Options); !validation.Valid {
		if err := WriteJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "type_change_validation_failed",
			Message: "type change options do not cover the predicted outcomes",
			Errors:  validation.Errors,
		}); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.migrationService.ExecuteTypeChange(r.Context(), columnID, req.NewType, req.Options)
	if err != nil {
		h.logger.Error("Type change failed",
			zap.String("column_id", columnID.String()),
			zap.String("new_type", string(req.NewType)),
			zap.Error(err))

		var tcErr *services.TypeChangeError
		if errors.As(err, &tcErr) {
			if err := ErrorResponse(w, http.StatusInternalServerError, tcErr.Code, tcErr.Message); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		if err := ErrorResponse(w, http.StatusInternalServerError, "type_change_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Estimate handles GET /api/columns/{columnID}/type-change/estimate?cells=N.
func (h *ColumnHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	if _, ok := ParsePathUUID(w, r, "columnID", h.logger); !ok {
		return
	}

	cells, err := strconv.ParseInt(r.URL.Query().Get("cells"), 10, 64)
	if err != nil || cells < 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_cells", "cells must be a non-negative integer"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	estimate := h.migrationService.EstimateTypeChangeDuration(cells)
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: estimate}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
