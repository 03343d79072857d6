package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"meter-route-planner/internal/database"
	"meter-route-planner/internal/geocoding"
	"meter-route-planner/internal/ingest"
	"meter-route-planner/internal/models"
	"meter-route-planner/internal/resolver"
	"meter-route-planner/internal/routing"
	"meter-route-planner/internal/session"
	"meter-route-planner/internal/testutil"
)

type mockDataStore struct {
	locations *testutil.MockLocationRepository
	paths     *testutil.MockPathCache
	healthErr error
}

func (m *mockDataStore) Close() error                            { return nil }
func (m *mockDataStore) HealthCheck(ctx context.Context) error   { return m.healthErr }
func (m *mockDataStore) Locations() database.LocationRepository  { return m.locations }
func (m *mockDataStore) PathCache() database.PathCacheRepository { return m.paths }

type mockSearcher struct {
	queries []string
	err     error
}

func (m *mockSearcher) Search(ctx context.Context, query string, limit int) ([]geocoding.Suggestion, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	return []geocoding.Suggestion{
		{Coords: models.GeoPoint{Lat: 24.2, Lng: 55.7}, Text: "24.200000,55.700000", DisplayName: query},
	}, nil
}

type testEnv struct {
	h        *Handler
	db       *mockDataStore
	paths    *testutil.MockPathService
	searcher *mockSearcher
}

func setupTestHandler(t *testing.T) *testEnv {
	t.Helper()
	normalizer, err := geocoding.NewNormalizer(40, "N")
	require.NoError(t, err)

	db := &mockDataStore{
		locations: testutil.NewMockLocationRepository(),
		paths:     testutil.NewMockPathCache(),
	}
	paths := &testutil.MockPathService{}
	searcher := &mockSearcher{}

	h := &Handler{
		DB:         db,
		Normalizer: normalizer,
		Builder:    ingest.NewBuilder(normalizer, ingest.DefaultColumns()),
		Searcher:   searcher,
		Paths:      paths,
		Sessions: session.NewStore(session.Deps{
			Planner:    routing.NewClusterPlanner(routing.DefaultClusterRadiusKm, nil),
			Normalizer: normalizer,
			Locations:  db.locations,
		}),
	}
	return &testEnv{h: h, db: db, paths: paths, searcher: searcher}
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorResponse](t, w).Error.Code
}

// surveyRows has two located stops and one unlocated stop
func surveyRows() []map[string]any {
	cols := ingest.DefaultColumns()
	return []map[string]any{
		{cols.Easting: 367000.5, cols.Northing: 2666000.25, cols.Sticker: "111", cols.Address: "Plot 1", cols.Service: "E"},
		{cols.Easting: 368200.0, cols.Northing: 2667100.0, cols.Sticker: "222", cols.Address: "Plot 2", cols.Service: "W"},
		{cols.Sticker: "333", cols.Address: "Plot 3, Al Jimi", cols.Service: "E"},
	}
}

func createSession(t *testing.T, env *testEnv, rows []map[string]any) session.Snapshot {
	t.Helper()
	w := httptest.NewRecorder()
	env.h.HandleCreateSession(w, jsonRequest(t, http.MethodPost, "/api/v1/sessions", CreateSessionRequest{Rows: rows}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[session.Snapshot](t, w)
}

func originAt(lat, lng float64) OriginRequest {
	return OriginRequest{Lat: &lat, Lng: &lng}
}

func withID(req *http.Request, id string) *http.Request {
	req.SetPathValue("id", id)
	return req
}

func TestHealthCheck(t *testing.T) {
	env := setupTestHandler(t)

	w := httptest.NewRecorder()
	env.h.HandleHealthCheck(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "connected", body["database"])

	env.db.healthErr = errors.New("locked")
	w = httptest.NewRecorder()
	env.h.HandleHealthCheck(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	body = decode[map[string]any](t, w)
	assert.Equal(t, "degraded", body["status"])
}

func TestCreateSessionQueuesUnlocated(t *testing.T) {
	env := setupTestHandler(t)

	snap := createSession(t, env, surveyRows())

	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 3, snap.TotalStops)
	assert.Equal(t, 1, snap.Unlocated)
	assert.Equal(t, resolver.StateAwaitingInput, snap.Resolver.State)
	assert.Equal(t, 1, snap.Resolver.Total)
	require.NotNil(t, snap.Resolver.Current)
	assert.Equal(t, "333", snap.Resolver.Current.MeterNumber)
	assert.Equal(t, 1, env.h.Sessions.Len())
}

func TestCreateSessionInvalidBody(t *testing.T) {
	env := setupTestHandler(t)

	w := httptest.NewRecorder()
	env.h.HandleCreateSession(w, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestCreateSessionEmptyRows(t *testing.T) {
	env := setupTestHandler(t)

	snap := createSession(t, env, nil)

	assert.Equal(t, 0, snap.TotalStops)
	assert.Equal(t, resolver.StateDone, snap.Resolver.State)
	require.NotNil(t, snap.Route)
	assert.Empty(t, snap.Route.Stops)
}

func uploadRequest(t *testing.T, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "survey.xlsx")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadSessionWorkbook(t *testing.T) {
	env := setupTestHandler(t)
	cols := ingest.DefaultColumns()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{cols.Easting, cols.Northing, cols.Sticker, cols.Address, cols.Service},
		{367000.5, 2666000.25, "111", "Plot 1", "E"},
		{368200.0, 2667100.0, "222", "Plot 2", "W"},
		{"Total"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	env.h.HandleUploadSession(w, uploadRequest(t, buf.Bytes()))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	snap := decode[session.Snapshot](t, w)
	assert.Equal(t, 2, snap.TotalStops)
	assert.Equal(t, resolver.StateDone, snap.Resolver.State)
	require.NotNil(t, snap.Route)
	assert.Len(t, snap.Route.Stops, 2)
}

func TestUploadSessionRejectsGarbage(t *testing.T) {
	env := setupTestHandler(t)

	w := httptest.NewRecorder()
	env.h.HandleUploadSession(w, uploadRequest(t, []byte("not a workbook")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadSessionMissingFile(t *testing.T) {
	env := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/upload", strings.NewReader("plain"))
	w := httptest.NewRecorder()
	env.h.HandleUploadSession(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAndDeleteSession(t *testing.T) {
	env := setupTestHandler(t)
	snap := createSession(t, env, surveyRows())

	w := httptest.NewRecorder()
	env.h.HandleGetSession(w, withID(httptest.NewRequest(http.MethodGet, "/", nil), snap.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, snap.ID, decode[session.Snapshot](t, w).ID)

	w = httptest.NewRecorder()
	env.h.HandleDeleteSession(w, withID(httptest.NewRequest(http.MethodDelete, "/", nil), snap.ID))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	env.h.HandleGetSession(w, withID(httptest.NewRequest(http.MethodGet, "/", nil), snap.ID))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	env.h.HandleDeleteSession(w, withID(httptest.NewRequest(http.MethodDelete, "/", nil), snap.ID))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResolverSubmitCompletesAndPlans(t *testing.T) {
	env := setupTestHandler(t)
	snap := createSession(t, env, surveyRows())

	// Rejected text keeps the stop pending
	w := httptest.NewRecorder()
	env.h.HandleResolverSubmit(w, withID(jsonRequest(t, http.MethodPost, "/", SubmitRequest{Text: "somewhere"}), snap.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_COORDINATE", errorCode(t, w))

	w = httptest.NewRecorder()
	env.h.HandleResolverSubmit(w, withID(jsonRequest(t, http.MethodPost, "/", SubmitRequest{Text: "24.12, 55.71"}), snap.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[ResolverResponse](t, w)
	require.Len(t, resp.Stops, 1)
	assert.Equal(t, "333", resp.Stops[0].MeterNumber)
	assert.Equal(t, resolver.StateDone, resp.Session.Resolver.State)
	assert.Equal(t, 0, resp.Session.Unlocated)
	require.NotNil(t, resp.Session.Route)
	assert.Len(t, resp.Session.Route.Stops, 3)

	saved, err := env.db.locations.Get(context.Background(), "333")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 24.12, saved.Coords.Lat)

	// Nothing left to resolve
	w = httptest.NewRecorder()
	env.h.HandleResolverSubmit(w, withID(jsonRequest(t, http.MethodPost, "/", SubmitRequest{Text: "24.12,55.71"}), snap.ID))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NOTHING_PENDING", errorCode(t, w))
}

func TestResolverSkip(t *testing.T) {
	env := setupTestHandler(t)
	snap := createSession(t, env, surveyRows())

	w := httptest.NewRecorder()
	env.h.HandleResolverSkip(w, withID(httptest.NewRequest(http.MethodPost, "/", nil), snap.ID))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[ResolverResponse](t, w)
	assert.Equal(t, resolver.StateDone, resp.Session.Resolver.State)
	assert.Equal(t, 1, resp.Session.Resolver.Skipped)
	assert.Len(t, resp.Session.Route.Stops, 2)
}

func TestResolverSkipAll(t *testing.T) {
	env := setupTestHandler(t)
	rows := append(surveyRows(), map[string]any{ingest.DefaultColumns().Sticker: "444", ingest.DefaultColumns().Address: "Plot 4"})
	snap := createSession(t, env, rows)
	require.Equal(t, 2, snap.Resolver.Total)

	w := httptest.NewRecorder()
	env.h.HandleResolverSkipAll(w, withID(httptest.NewRequest(http.MethodPost, "/", nil), snap.ID))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[ResolverResponse](t, w)
	assert.Len(t, resp.Stops, 2)
	assert.Equal(t, resolver.StateDone, resp.Session.Resolver.State)
}

func TestResolverHints(t *testing.T) {
	env := setupTestHandler(t)
	snap := createSession(t, env, surveyRows())

	w := httptest.NewRecorder()
	env.h.HandleResolverHints(w, withID(httptest.NewRequest(http.MethodGet, "/", nil), snap.ID))

	require.Equal(t, http.StatusOK, w.Code)
	hints := decode[[]geocoding.Suggestion](t, w)
	require.Len(t, hints, 1)
	assert.Equal(t, []string{"Plot 3, Al Jimi"}, env.searcher.queries)
}

func TestResolverHintsSearchFailureIsEmpty(t *testing.T) {
	env := setupTestHandler(t)
	env.searcher.err = errors.New("rate limited")
	snap := createSession(t, env, surveyRows())

	w := httptest.NewRecorder()
	env.h.HandleResolverHints(w, withID(httptest.NewRequest(http.MethodGet, "/", nil), snap.ID))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]geocoding.Suggestion](t, w))
}

func TestResolverHintsWithoutSearcher(t *testing.T) {
	env := setupTestHandler(t)
	env.h.Searcher = nil
	snap := createSession(t, env, surveyRows())

	w := httptest.NewRecorder()
	env.h.HandleResolverHints(w, withID(httptest.NewRequest(http.MethodGet, "/", nil), snap.ID))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestUpdateOriginReplansAndClears(t *testing.T) {
	env := setupTestHandler(t)
	rows := surveyRows()[:2]
	snap := createSession(t, env, rows)
	require.True(t, snap.Route.Fallback)

	w := httptest.NewRecorder()
	env.h.HandleUpdateOrigin(w, withID(jsonRequest(t, http.MethodPost, "/", originAt(24.0, 55.0)), snap.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[OriginResponse](t, w)
	assert.True(t, resp.Update.Replanned)
	assert.False(t, resp.Session.Route.Fallback)
	assert.True(t, resp.Session.Origin.Located)

	unavailable := false
	w = httptest.NewRecorder()
	env.h.HandleUpdateOrigin(w, withID(jsonRequest(t, http.MethodPost, "/", OriginRequest{Available: &unavailable}), snap.ID))
	require.Equal(t, http.StatusOK, w.Code)

	resp = decode[OriginResponse](t, w)
	assert.False(t, resp.Session.Origin.Located)
	assert.True(t, resp.Session.Route.Fallback)
}

func TestUpdateOriginRequiresCoordinates(t *testing.T) {
	env := setupTestHandler(t)
	snap := createSession(t, env, surveyRows()[:2])

	bodies := []string{`{}`, `{"latitude":24.1,"longitude":55.7}`, `{"lat":24.1}`, `{"available":true}`}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			req := withID(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), snap.ID)
			w := httptest.NewRecorder()
			env.h.HandleUpdateOrigin(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
		})
	}

	w := httptest.NewRecorder()
	env.h.HandleGetSession(w, withID(httptest.NewRequest(http.MethodGet, "/", nil), snap.ID))
	require.Equal(t, http.StatusOK, w.Code)
	after := decode[session.Snapshot](t, w)
	assert.False(t, after.Origin.Located)
	assert.True(t, after.Route.Fallback)
	assert.Equal(t, snap.Replans, after.Replans)
}

func TestUpdateOriginRejectsOutOfRange(t *testing.T) {
	env := setupTestHandler(t)
	snap := createSession(t, env, surveyRows()[:1])

	w := httptest.NewRecorder()
	env.h.HandleUpdateOrigin(w, withID(jsonRequest(t, http.MethodPost, "/", originAt(91, 55)), snap.ID))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNavigate(t *testing.T) {
	env := setupTestHandler(t)
	snap := createSession(t, env, surveyRows()[:2])
	first := snap.Current.ID

	w := httptest.NewRecorder()
	env.h.HandleNavigate(w, withID(jsonRequest(t, http.MethodPost, "/", NavigateRequest{Action: "next"}), snap.ID))
	require.Equal(t, http.StatusOK, w.Code)
	next := decode[session.Snapshot](t, w)
	assert.Equal(t, 1, next.CurrentIndex)
	assert.NotEqual(t, first, next.Current.ID)

	w = httptest.NewRecorder()
	env.h.HandleNavigate(w, withID(jsonRequest(t, http.MethodPost, "/", NavigateRequest{Action: "select", DisplayIndex: 1}), snap.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first, decode[session.Snapshot](t, w).Current.ID)

	w = httptest.NewRecorder()
	env.h.HandleNavigate(w, withID(jsonRequest(t, http.MethodPost, "/", NavigateRequest{Action: "select", DisplayIndex: 9}), snap.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	env.h.HandleNavigate(w, withID(jsonRequest(t, http.MethodPost, "/", NavigateRequest{Action: "jump"}), snap.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStopStatus(t *testing.T) {
	env := setupTestHandler(t)
	snap := createSession(t, env, surveyRows()[:2])
	stopID := snap.Route.Stops[0].ID

	req := withID(jsonRequest(t, http.MethodPost, "/", StatusRequest{Status: "completed"}), snap.ID)
	req.SetPathValue("stopID", stopID)
	w := httptest.NewRecorder()
	env.h.HandleStopStatus(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusCompleted, decode[models.Stop](t, w).Status)

	req = withID(jsonRequest(t, http.MethodPost, "/", StatusRequest{Status: "done"}), snap.ID)
	req.SetPathValue("stopID", stopID)
	w = httptest.NewRecorder()
	env.h.HandleStopStatus(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = withID(jsonRequest(t, http.MethodPost, "/", StatusRequest{Status: "skipped"}), snap.ID)
	req.SetPathValue("stopID", "nope")
	w = httptest.NewRecorder()
	env.h.HandleStopStatus(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionGeoJSON(t *testing.T) {
	env := setupTestHandler(t)
	snap := createSession(t, env, surveyRows()[:2])

	w := httptest.NewRecorder()
	env.h.HandleSessionGeoJSON(w, withID(httptest.NewRequest(http.MethodGet, "/", nil), snap.ID))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))
	fc := decode[map[string]any](t, w)
	assert.Equal(t, "FeatureCollection", fc["type"])
	assert.Len(t, fc["features"], 2)
}

func TestSessionExport(t *testing.T) {
	env := setupTestHandler(t)
	snap := createSession(t, env, surveyRows()[:2])

	w := httptest.NewRecorder()
	env.h.HandleSessionExport(w, withID(httptest.NewRequest(http.MethodGet, "/", nil), snap.ID))
	require.Equal(t, http.StatusOK, w.Code)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, "Order", rows[0][0])
}

func TestSessionPath(t *testing.T) {
	env := setupTestHandler(t)
	snap := createSession(t, env, surveyRows()[:2])

	w := httptest.NewRecorder()
	env.h.HandleSessionPath(w, withID(httptest.NewRequest(http.MethodGet, "/", nil), snap.ID))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NO_ORIGIN", errorCode(t, w))

	w = httptest.NewRecorder()
	env.h.HandleUpdateOrigin(w, withID(jsonRequest(t, http.MethodPost, "/", originAt(24.0, 55.0)), snap.ID))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	env.h.HandleSessionPath(w, withID(httptest.NewRequest(http.MethodGet, "/", nil), snap.ID))
	require.Equal(t, http.StatusOK, w.Code)

	line := decode[models.Polyline](t, w)
	assert.False(t, line.Fallback)
	assert.Len(t, line.Line, 3)
	assert.Equal(t, 1, env.paths.CallCount())
}

func TestPathFallsBackToStraightLine(t *testing.T) {
	env := setupTestHandler(t)
	env.paths.Err = errors.New("osrm down")

	w := httptest.NewRecorder()
	env.h.HandlePath(w, httptest.NewRequest(http.MethodGet, "/api/v1/path?from=24.1,55.7&to=24.2,55.8", nil))

	require.Equal(t, http.StatusOK, w.Code)
	line := decode[models.Polyline](t, w)
	assert.True(t, line.Fallback)
	assert.Len(t, line.Line, 2)
	assert.Greater(t, line.DistanceMeters, 0.0)
}

func TestPathRejectsBadPoints(t *testing.T) {
	env := setupTestHandler(t)

	w := httptest.NewRecorder()
	env.h.HandlePath(w, httptest.NewRequest(http.MethodGet, "/api/v1/path?from=24.1,55.7&to=nowhere", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, env.paths.CallCount())
}

func TestLocationsListAndDelete(t *testing.T) {
	env := setupTestHandler(t)
	ctx := context.Background()
	require.NoError(t, env.db.locations.Save(ctx, &models.SavedLocation{MeterNumber: "111", Coords: models.GeoPoint{Lat: 24.1, Lng: 55.7}}))

	w := httptest.NewRecorder()
	env.h.HandleListLocations(w, httptest.NewRequest(http.MethodGet, "/api/v1/locations", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.SavedLocation](t, w), 1)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.SetPathValue("meter", "111")
	w = httptest.NewRecorder()
	env.h.HandleDeleteLocation(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	env.h.HandleDeleteLocation(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSavedLocationsApplyToNewSession(t *testing.T) {
	env := setupTestHandler(t)
	require.NoError(t, env.db.locations.Save(context.Background(), &models.SavedLocation{
		MeterNumber: "333",
		Coords:      models.GeoPoint{Lat: 24.12, Lng: 55.71},
	}))

	snap := createSession(t, env, surveyRows())

	assert.Equal(t, 0, snap.Unlocated)
	assert.Equal(t, resolver.StateDone, snap.Resolver.State)
}
