package handlers

import (
	"log"
	"net/http"

	"meter-route-planner/internal/models"
)

// HandleListLocations handles GET /api/v1/locations
func (h *Handler) HandleListLocations(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil {
		h.writeJSON(w, http.StatusOK, []models.SavedLocation{})
		return
	}
	locations, err := h.DB.Locations().List(r.Context())
	if err != nil {
		h.handleInternalError(w, err)
		return
	}

	log.Printf("[HTTP] GET /api/v1/locations: count=%d", len(locations))
	h.writeJSON(w, http.StatusOK, locations)
}

// HandleDeleteLocation handles DELETE /api/v1/locations/{meter}
func (h *Handler) HandleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	meter := r.PathValue("meter")
	if h.DB == nil {
		h.handleNotFound(w, "Saved location not found")
		return
	}
	if err := h.DB.Locations().Delete(r.Context(), meter); err != nil {
		if h.checkNotFound(err) {
			h.handleNotFound(w, "Saved location not found")
			return
		}
		h.handleInternalError(w, err)
		return
	}

	log.Printf("[HTTP] DELETE /api/v1/locations: meter=%s", meter)
	w.WriteHeader(http.StatusNoContent)
}
