package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"meter-route-planner/internal/database"
	"meter-route-planner/internal/metrics"
	"meter-route-planner/internal/models"
)

// DefaultOSRMURL is the public OSRM demo server
const DefaultOSRMURL = "https://router.project-osrm.org"

// PathService returns a drivable path between two points for display
type PathService interface {
	Path(ctx context.Context, from, to models.GeoPoint) (*models.Polyline, error)
}

// ErrPathUnavailable is returned when the routing service cannot supply a path
type ErrPathUnavailable struct {
	From   models.GeoPoint
	To     models.GeoPoint
	Reason string
}

func (e *ErrPathUnavailable) Error() string {
	return fmt.Sprintf("path unavailable %s -> %s: %s", e.From, e.To, e.Reason)
}

type osrmPathService struct {
	baseURL    string
	httpClient *http.Client
	cache      database.PathCacheRepository
}

type osrmRouteResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Geometry *geojson.Geometry `json:"geometry"`
		Distance float64           `json:"distance"`
		Duration float64           `json:"duration"`
	} `json:"routes"`
}

// NewOSRMPathService creates an OSRM route client. cache may be nil.
func NewOSRMPathService(baseURL string, timeout time.Duration, cache database.PathCacheRepository) PathService {
	if baseURL == "" {
		baseURL = DefaultOSRMURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &osrmPathService{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache: cache,
	}
}

func (c *osrmPathService) Path(ctx context.Context, from, to models.GeoPoint) (*models.Polyline, error) {
	if models.RoundCoordinate(from.Lat) == models.RoundCoordinate(to.Lat) &&
		models.RoundCoordinate(from.Lng) == models.RoundCoordinate(to.Lng) {
		return &models.Polyline{From: from, To: to, Line: orb.LineString{from.Point(), to.Point()}}, nil
	}

	if c.cache != nil {
		cached, err := c.cache.Get(ctx, from, to)
		if err != nil {
			log.Printf("[ERROR] Path cache lookup failed: from=%s to=%s err=%v", from, to, err)
		} else if cached != nil {
			metrics.PathLookups.WithLabelValues("cached").Inc()
			return &models.Polyline{
				From:           from,
				To:             to,
				Line:           cached.Line,
				DistanceMeters: cached.DistanceMeters,
				DurationSecs:   cached.DurationSecs,
			}, nil
		}
	}

	queryURL := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=geojson",
		c.baseURL, from.Lng, from.Lat, to.Lng, to.Lat)

	req, err := http.NewRequestWithContext(ctx, "GET", queryURL, nil)
	if err != nil {
		return nil, &ErrPathUnavailable{From: from, To: to, Reason: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ErrPathUnavailable{From: from, To: to, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &ErrPathUnavailable{
			From:   from,
			To:     to,
			Reason: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	var osrmResp osrmRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&osrmResp); err != nil {
		return nil, &ErrPathUnavailable{From: from, To: to, Reason: err.Error()}
	}

	if osrmResp.Code != "Ok" || len(osrmResp.Routes) == 0 {
		return nil, &ErrPathUnavailable{From: from, To: to, Reason: fmt.Sprintf("OSRM error: %s %s", osrmResp.Code, osrmResp.Message)}
	}

	route := osrmResp.Routes[0]
	if route.Geometry == nil {
		return nil, &ErrPathUnavailable{From: from, To: to, Reason: "route has no geometry"}
	}
	line, ok := route.Geometry.Geometry().(orb.LineString)
	if !ok || len(line) < 2 {
		return nil, &ErrPathUnavailable{From: from, To: to, Reason: "route geometry is not a line"}
	}

	log.Printf("[OSRM] Path calculated: from=%s to=%s points=%d distance=%.0f", from, to, len(line), route.Distance)
	metrics.PathLookups.WithLabelValues("routed").Inc()

	if c.cache != nil {
		entry := &models.PathCacheEntry{
			Origin:         from,
			Destination:    to,
			Line:           line,
			DistanceMeters: route.Distance,
			DurationSecs:   route.Duration,
		}
		if err := c.cache.Set(ctx, entry); err != nil {
			log.Printf("[ERROR] Path cache write failed: from=%s to=%s err=%v", from, to, err)
		}
	}

	return &models.Polyline{
		From:           from,
		To:             to,
		Line:           line,
		DistanceMeters: route.Distance,
		DurationSecs:   route.Duration,
	}, nil
}

// PathOrStraight asks the routing service for a path and falls back to the
// straight segment between the same endpoints on any failure. It never fails.
func PathOrStraight(ctx context.Context, svc PathService, from, to models.GeoPoint) *models.Polyline {
	if svc != nil {
		line, err := svc.Path(ctx, from, to)
		if err == nil && line != nil {
			return line
		}
		log.Printf("[OSRM] Falling back to straight line: from=%s to=%s err=%v", from, to, err)
	}
	metrics.PathLookups.WithLabelValues("fallback").Inc()

	fallback := models.StraightLine(from, to)
	fallback.DistanceMeters = HaversineMeters(from, to)
	return fallback
}
