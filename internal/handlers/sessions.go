package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"meter-route-planner/internal/ingest"
	"meter-route-planner/internal/models"
	"meter-route-planner/internal/session"
)

const maxUploadBytes = 32 << 20

// CreateSessionRequest carries survey rows keyed by column header
type CreateSessionRequest struct {
	Rows []map[string]any `json:"rows"`
}

// OriginRequest is a position sample; Available false clears the origin.
// Lat and Lng are required otherwise.
type OriginRequest struct {
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	Available *bool    `json:"available,omitempty"`
}

// OriginResponse reports the effect of a position sample
type OriginResponse struct {
	Update  session.OriginUpdate `json:"update"`
	Session session.Snapshot     `json:"session"`
}

// NavigateRequest moves the current stop. DisplayIndex is used by "select".
type NavigateRequest struct {
	Action       string `json:"action"`
	DisplayIndex int    `json:"display_index"`
}

// StatusRequest changes a stop's visit status
type StatusRequest struct {
	Status string `json:"status"`
}

// HandleCreateSession handles POST /api/v1/sessions
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		log.Printf("[HTTP] POST /api/v1/sessions: invalid request body: err=%v", err)
		h.handleValidationError(w, "Invalid request body")
		return
	}

	rows := make([]ingest.Row, len(req.Rows))
	for i, cells := range req.Rows {
		rows[i] = ingest.Row{Index: i, Cells: cells}
	}

	log.Printf("[HTTP] POST /api/v1/sessions: rows=%d", len(rows))
	h.createSession(w, r, rows)
}

// HandleUploadSession handles POST /api/v1/sessions/upload with an xlsx "file" part
func (h *Handler) HandleUploadSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.handleValidationError(w, "Expected a multipart form with a workbook file")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.handleValidationError(w, "Missing workbook file")
		return
	}
	defer file.Close()

	rows, err := ingest.ReadWorkbook(file)
	if err != nil {
		log.Printf("[HTTP] POST /api/v1/sessions/upload: unreadable workbook: name=%s err=%v", header.Filename, err)
		if errors.Is(err, ingest.ErrEmptyWorkbook) {
			h.handleValidationError(w, "The workbook appears to be empty")
			return
		}
		h.handleValidationError(w, "Failed to read the workbook")
		return
	}

	log.Printf("[HTTP] POST /api/v1/sessions/upload: name=%s rows=%d", header.Filename, len(rows))
	h.createSession(w, r, rows)
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request, rows []ingest.Row) {
	stops := h.Builder.BuildStops(rows)
	s := h.Sessions.Create(r.Context(), stops)

	var snap session.Snapshot
	h.Sessions.View(s.ID, func(s *session.Session) error {
		snap = s.Snapshot()
		return nil
	})
	h.writeJSON(w, http.StatusCreated, snap)
}

// HandleGetSession handles GET /api/v1/sessions/{id}
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	var snap session.Snapshot
	err := h.Sessions.View(r.PathValue("id"), func(s *session.Session) error {
		snap = s.Snapshot()
		return nil
	})
	if err != nil {
		h.handleSessionError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

// HandleDeleteSession handles DELETE /api/v1/sessions/{id}
func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Sessions.View(id, func(*session.Session) error { return nil }); err != nil {
		h.handleSessionError(w, err)
		return
	}
	h.Sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// HandleSessionGeoJSON handles GET /api/v1/sessions/{id}/route.geojson
func (h *Handler) HandleSessionGeoJSON(w http.ResponseWriter, r *http.Request) {
	var body []byte
	err := h.Sessions.View(r.PathValue("id"), func(s *session.Session) error {
		var err error
		body, err = s.FeatureCollection().MarshalJSON()
		return err
	})
	if err != nil {
		h.handleSessionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// HandleSessionExport handles GET /api/v1/sessions/{id}/route.xlsx
func (h *Handler) HandleSessionExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := h.Sessions.View(r.PathValue("id"), func(s *session.Session) error {
		return ingest.ExportRoute(&buf, s.Route())
	})
	if err != nil {
		h.handleSessionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="route.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// HandleUpdateOrigin handles POST /api/v1/sessions/{id}/origin
func (h *Handler) HandleUpdateOrigin(w http.ResponseWriter, r *http.Request) {
	var req OriginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleValidationError(w, "Invalid request body")
		return
	}
	clearOrigin := req.Available != nil && !*req.Available
	if !clearOrigin && (req.Lat == nil || req.Lng == nil) {
		h.handleValidationError(w, "lat and lng are required unless available is false")
		return
	}

	var resp OriginResponse
	err := h.Sessions.Update(r.PathValue("id"), func(s *session.Session) error {
		if clearOrigin {
			s.ClearOrigin()
		} else {
			update, err := s.UpdateOrigin(models.GeoPoint{Lat: *req.Lat, Lng: *req.Lng})
			if err != nil {
				return err
			}
			resp.Update = update
		}
		resp.Session = s.Snapshot()
		return nil
	})
	if errors.Is(err, session.ErrNoOrigin) {
		h.handleValidationError(w, "Latitude must be within -90..90 and longitude within -180..180")
		return
	}
	if err != nil {
		h.handleSessionError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleNavigate handles POST /api/v1/sessions/{id}/navigate
func (h *Handler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleValidationError(w, "Invalid request body")
		return
	}

	var snap session.Snapshot
	err := h.Sessions.Update(r.PathValue("id"), func(s *session.Session) error {
		var err error
		switch req.Action {
		case "next":
			_, err = s.Next()
		case "previous":
			_, err = s.Previous()
		case "select":
			_, err = s.Select(req.DisplayIndex - 1)
		default:
			return errUnknownAction
		}
		if err != nil {
			return err
		}
		snap = s.Snapshot()
		return nil
	})
	if errors.Is(err, errUnknownAction) {
		h.handleValidationError(w, "Action must be one of next, previous, select")
		return
	}
	if err != nil {
		h.handleSessionError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, snap)
}

var errUnknownAction = errors.New("unknown navigation action")

// HandleStopStatus handles POST /api/v1/sessions/{id}/stops/{stopID}/status
func (h *Handler) HandleStopStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleValidationError(w, "Invalid request body")
		return
	}
	status, err := models.ParseStopStatus(req.Status)
	if err != nil {
		h.handleValidationError(w, "Status must be one of pending, completed, skipped")
		return
	}

	var stop models.Stop
	err = h.Sessions.Update(r.PathValue("id"), func(s *session.Session) error {
		updated, err := s.MarkStatus(r.PathValue("stopID"), status)
		if err != nil {
			return err
		}
		stop = *updated
		return nil
	})
	if err != nil {
		h.handleSessionError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, stop)
}

// HandleSessionPath handles GET /api/v1/sessions/{id}/path: the display path
// from the current position to the current stop
func (h *Handler) HandleSessionPath(w http.ResponseWriter, r *http.Request) {
	var from, to models.GeoPoint
	err := h.Sessions.View(r.PathValue("id"), func(s *session.Session) error {
		var err error
		from, to, err = s.PathEndpoints()
		return err
	})
	if err != nil {
		h.handleSessionError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, h.path(r, from, to))
}
