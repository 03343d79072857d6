package handlers

import (
	"log"
	"net/http"

	"meter-route-planner/internal/distance"
	"meter-route-planner/internal/models"
)

// HandlePath handles GET /api/v1/path?from=lat,lng&to=lat,lng
func (h *Handler) HandlePath(w http.ResponseWriter, r *http.Request) {
	from := h.Normalizer.NormalizeText(r.URL.Query().Get("from"))
	to := h.Normalizer.NormalizeText(r.URL.Query().Get("to"))
	if !from.Located || !to.Located {
		h.handleValidationError(w, "from and to must be coordinates such as 24.13,55.75")
		return
	}

	h.writeJSON(w, http.StatusOK, h.path(r, from.Point, to.Point))
}

func (h *Handler) path(r *http.Request, from, to models.GeoPoint) *models.Polyline {
	line := distance.PathOrStraight(r.Context(), h.Paths, from, to)
	log.Printf("[HTTP] Path served: from=%s to=%s points=%d fallback=%v", from, to, len(line.Line), line.Fallback)
	return line
}
