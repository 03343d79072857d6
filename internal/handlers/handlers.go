package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"meter-route-planner/internal/database"
	"meter-route-planner/internal/distance"
	"meter-route-planner/internal/geocoding"
	"meter-route-planner/internal/ingest"
	"meter-route-planner/internal/resolver"
	"meter-route-planner/internal/session"
)

// Handler provides common handler utilities and dependencies
type Handler struct {
	DB         database.DataStore
	Normalizer *geocoding.Normalizer
	Builder    *ingest.Builder
	// Searcher may be nil; resolver hints are then always empty
	Searcher geocoding.AddressSearcher
	// Paths may be nil; paths are then straight lines
	Paths    distance.PathService
	Sessions *session.Store
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	h.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// handleNotFound handles 404 errors
func (h *Handler) handleNotFound(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusNotFound, "NOT_FOUND", message, nil)
}

// handleValidationError handles 400 errors
func (h *Handler) handleValidationError(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", message, nil)
}

// handleInternalError handles 500 errors
func (h *Handler) handleInternalError(w http.ResponseWriter, err error) {
	log.Printf("[ERROR] Internal error: %v", err)
	h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An error occurred. Please try again.", nil)
}

// handleSessionError maps session and resolver errors to responses
func (h *Handler) handleSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		h.handleNotFound(w, "Session not found")
	case errors.Is(err, session.ErrStopNotFound):
		h.handleNotFound(w, "Stop not found")
	case errors.Is(err, resolver.ErrInvalidCoordinate):
		h.writeError(w, http.StatusBadRequest, "INVALID_COORDINATE", "Invalid coordinate format. Please try again.", nil)
	case errors.Is(err, resolver.ErrNoPending):
		h.writeError(w, http.StatusConflict, "NOTHING_PENDING", "No stop is waiting for a location", nil)
	case errors.Is(err, session.ErrEmptyRoute):
		h.writeError(w, http.StatusConflict, "EMPTY_ROUTE", "The route has no stops", nil)
	case errors.Is(err, session.ErrOutOfRange):
		h.handleValidationError(w, "Index is outside the route")
	case errors.Is(err, session.ErrNoOrigin):
		h.writeError(w, http.StatusConflict, "NO_ORIGIN", "Current position is unavailable", nil)
	default:
		h.handleInternalError(w, err)
	}
}

// checkNotFound checks if an error is a not found error
func (h *Handler) checkNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}

// HandleHealthCheck handles GET /api/v1/health
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "connected"

	if h.DB == nil {
		dbStatus = "disabled"
	} else if err := h.DB.HealthCheck(r.Context()); err != nil {
		status = "degraded"
		dbStatus = "error"
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   status,
		"version":  "1.0.0",
		"database": dbStatus,
		"sessions": h.Sessions.Len(),
	})
}
