package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"meter-route-planner/internal/geocoding"
	"meter-route-planner/internal/ingest"
	"meter-route-planner/internal/models"
	"meter-route-planner/internal/session"
)

const minHintQueryLength = 4

// SubmitRequest carries operator-entered coordinate text
type SubmitRequest struct {
	Text string `json:"text"`
}

// ResolverResponse reports a resolver action and the resulting session
type ResolverResponse struct {
	Stops   []models.Stop    `json:"stops"`
	Session session.Snapshot `json:"session"`
}

// HandleResolverSubmit handles POST /api/v1/sessions/{id}/resolver/submit
func (h *Handler) HandleResolverSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleValidationError(w, "Invalid request body")
		return
	}

	var resp ResolverResponse
	err := h.Sessions.Update(r.PathValue("id"), func(s *session.Session) error {
		stop, err := s.Submit(r.Context(), req.Text)
		if err != nil {
			return err
		}
		resp.Stops = []models.Stop{*stop}
		resp.Session = s.Snapshot()
		return nil
	})
	if err != nil {
		log.Printf("[HTTP] POST resolver/submit rejected: session=%s err=%v", r.PathValue("id"), err)
		h.handleSessionError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleResolverSkip handles POST /api/v1/sessions/{id}/resolver/skip
func (h *Handler) HandleResolverSkip(w http.ResponseWriter, r *http.Request) {
	var resp ResolverResponse
	err := h.Sessions.Update(r.PathValue("id"), func(s *session.Session) error {
		stop, err := s.Skip()
		if err != nil {
			return err
		}
		resp.Stops = []models.Stop{*stop}
		resp.Session = s.Snapshot()
		return nil
	})
	if err != nil {
		h.handleSessionError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleResolverSkipAll handles POST /api/v1/sessions/{id}/resolver/skip-all
func (h *Handler) HandleResolverSkipAll(w http.ResponseWriter, r *http.Request) {
	var resp ResolverResponse
	err := h.Sessions.Update(r.PathValue("id"), func(s *session.Session) error {
		stops, err := s.SkipAll()
		if err != nil {
			return err
		}
		resp.Stops = make([]models.Stop, len(stops))
		for i, stop := range stops {
			resp.Stops[i] = *stop
		}
		resp.Session = s.Snapshot()
		return nil
	})
	if err != nil {
		h.handleSessionError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleResolverHints handles GET /api/v1/sessions/{id}/resolver/hints:
// address search suggestions for the stop awaiting a location
func (h *Handler) HandleResolverHints(w http.ResponseWriter, r *http.Request) {
	var address string
	err := h.Sessions.View(r.PathValue("id"), func(s *session.Session) error {
		if cur := s.Resolver().Current(); cur != nil {
			address = cur.Address
		}
		return nil
	})
	if err != nil {
		h.handleSessionError(w, err)
		return
	}

	if h.Searcher == nil || len(address) < minHintQueryLength || address == ingest.NoAddressProvided {
		h.writeJSON(w, http.StatusOK, []geocoding.Suggestion{})
		return
	}

	suggestions, err := h.Searcher.Search(r.Context(), address, 5)
	if err != nil {
		log.Printf("[ERROR] Failed to search addresses: query=%s err=%v", address, err)
		h.writeJSON(w, http.StatusOK, []geocoding.Suggestion{})
		return
	}

	log.Printf("[HTTP] GET resolver/hints: query=%s results_count=%d", address, len(suggestions))
	h.writeJSON(w, http.StatusOK, suggestions)
}
