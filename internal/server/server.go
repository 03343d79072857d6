package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"meter-route-planner/internal/config"
	"meter-route-planner/internal/distance"
	"meter-route-planner/internal/geocoding"
	"meter-route-planner/internal/handlers"
	"meter-route-planner/internal/ingest"
	"meter-route-planner/internal/metrics"
	"meter-route-planner/internal/routing"
	"meter-route-planner/internal/session"
	"meter-route-planner/internal/sqlite"
)

// Server wraps the HTTP server and all dependencies
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	db         *sqlite.Store
	listener   net.Listener
	addr       string
}

// New creates and initializes a new server (does not start it)
func New(cfg *config.Config) (*Server, error) {
	log.Printf("Initializing data store...")
	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize data store: %w", err)
	}

	normalizer, err := geocoding.NewNormalizer(cfg.Projection.Zone, cfg.Projection.Hemisphere)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize projection: %w", err)
	}
	log.Printf("Projecting survey coordinates from UTM zone %d%c", normalizer.Zone(), normalizer.Hemisphere())

	var paths distance.PathService
	if !cfg.OSRM.Disabled {
		paths = distance.NewOSRMPathService(cfg.OSRM.BaseURL, cfg.OSRM.Timeout, db.PathCache())
	}

	var searcher geocoding.AddressSearcher
	if !cfg.Nominatim.Disabled {
		searcher = geocoding.NewNominatimSearcher(cfg.Nominatim.BaseURL, cfg.Nominatim.CountryCodes)
	}

	planner := routing.NewClusterPlanner(cfg.Routing.ClusterRadiusKm, nil)
	sessions := session.NewStore(session.Deps{
		Planner:    planner,
		Normalizer: normalizer,
		Locations:  db.Locations(),
		Thresholds: Thresholds(cfg),
	})

	handler := &handlers.Handler{
		DB:         db,
		Normalizer: normalizer,
		Builder:    ingest.NewBuilder(normalizer, cfg.Ingest.Columns),
		Searcher:   searcher,
		Paths:      paths,
		Sessions:   sessions,
	}

	mux := setupRoutes(handler)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      loggingMiddleware(corsMiddleware(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		db:         db,
		addr:       cfg.Server.Addr,
	}, nil
}

// Thresholds converts the routing config into session thresholds
func Thresholds(cfg *config.Config) session.Thresholds {
	return session.Thresholds{
		ReplanThresholdM:  cfg.Routing.ReplanThresholdM,
		ArrivalRadiusM:    cfg.Routing.ArrivalRadiusM,
		CompletionRadiusM: cfg.Routing.CompletionRadiusM,
	}
}

// Start starts the server and returns the actual address (useful for random port)
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener
	actualAddr := listener.Addr().String()
	log.Printf("Starting server on %s", actualAddr)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	return actualAddr, nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return s.db.Close()
}

// setupRoutes configures all HTTP routes
func setupRoutes(handler *handlers.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", handler.HandleHealthCheck)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /api/v1/sessions", handler.HandleCreateSession)
	mux.HandleFunc("POST /api/v1/sessions/upload", handler.HandleUploadSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", handler.HandleGetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", handler.HandleDeleteSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}/route.geojson", handler.HandleSessionGeoJSON)
	mux.HandleFunc("GET /api/v1/sessions/{id}/route.xlsx", handler.HandleSessionExport)
	mux.HandleFunc("GET /api/v1/sessions/{id}/path", handler.HandleSessionPath)
	mux.HandleFunc("POST /api/v1/sessions/{id}/origin", handler.HandleUpdateOrigin)
	mux.HandleFunc("POST /api/v1/sessions/{id}/navigate", handler.HandleNavigate)
	mux.HandleFunc("POST /api/v1/sessions/{id}/stops/{stopID}/status", handler.HandleStopStatus)

	mux.HandleFunc("POST /api/v1/sessions/{id}/resolver/submit", handler.HandleResolverSubmit)
	mux.HandleFunc("POST /api/v1/sessions/{id}/resolver/skip", handler.HandleResolverSkip)
	mux.HandleFunc("POST /api/v1/sessions/{id}/resolver/skip-all", handler.HandleResolverSkipAll)
	mux.HandleFunc("GET /api/v1/sessions/{id}/resolver/hints", handler.HandleResolverHints)

	mux.HandleFunc("GET /api/v1/path", handler.HandlePath)

	mux.HandleFunc("GET /api/v1/locations", handler.HandleListLocations)
	mux.HandleFunc("DELETE /api/v1/locations/{meter}", handler.HandleDeleteLocation)

	return mux
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		log.Printf("%s %s %d %v", r.Method, r.URL.Path, lrw.statusCode, duration)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Only allow localhost origins (local map page and development)
		if origin == "" ||
			strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:") {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
