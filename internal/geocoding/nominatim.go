package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"meter-route-planner/internal/models"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim endpoint
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// Suggestion is a candidate position for a plot address
type Suggestion struct {
	Coords      models.GeoPoint `json:"coords"`
	DisplayName string          `json:"display_name"`
	// Text is the value an operator can submit to the resolver as-is
	Text string `json:"text"`
}

// AddressSearcher suggests positions for unlocated stops from their address
type AddressSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]Suggestion, error)
}

// ErrGeocodingFailed is returned when an address search cannot be completed
type ErrGeocodingFailed struct {
	Address string
	Reason  string
}

func (e *ErrGeocodingFailed) Error() string {
	return fmt.Sprintf("geocoding failed for address: %s - %s", e.Address, e.Reason)
}

type nominatimSearcher struct {
	baseURL      string
	countryCodes string
	httpClient   *http.Client
	rateLimiter  *time.Ticker
}

type nominatimResponse struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewNominatimSearcher creates a Nominatim address searcher limited to one request per second.
// countryCodes restricts results (e.g. "ae"); empty searches worldwide.
func NewNominatimSearcher(baseURL, countryCodes string) AddressSearcher {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	return &nominatimSearcher{
		baseURL:      baseURL,
		countryCodes: countryCodes,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		rateLimiter: time.NewTicker(1 * time.Second),
	}
}

func (g *nominatimSearcher) Search(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	select {
	case <-g.rateLimiter.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	if g.countryCodes != "" {
		params.Set("countrycodes", g.countryCodes)
	}
	queryURL := fmt.Sprintf("%s/search?%s", g.baseURL, params.Encode())
	log.Printf("[GEOCODING] Search request: query=%s limit=%d", query, limit)

	req, err := http.NewRequestWithContext(ctx, "GET", queryURL, nil)
	if err != nil {
		log.Printf("[ERROR] Failed to create geocoding search request: query=%s err=%v", query, err)
		return nil, &ErrGeocodingFailed{Address: query, Reason: err.Error()}
	}

	req.Header.Set("User-Agent", "MeterRoutePlanner/1.0")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Printf("[ERROR] Geocoding search API request failed: query=%s err=%v", query, err)
		return nil, &ErrGeocodingFailed{Address: query, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("[ERROR] Geocoding search API error: query=%s status=%d body=%s", query, resp.StatusCode, string(body))
		return nil, &ErrGeocodingFailed{
			Address: query,
			Reason:  fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	var results []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		log.Printf("[ERROR] Failed to decode geocoding search response: query=%s err=%v", query, err)
		return nil, &ErrGeocodingFailed{Address: query, Reason: err.Error()}
	}

	log.Printf("[GEOCODING] Search response: query=%s results_count=%d", query, len(results))

	suggestions := make([]Suggestion, 0, len(results))
	for _, result := range results {
		lat, err := strconv.ParseFloat(result.Lat, 64)
		if err != nil {
			log.Printf("[ERROR] Invalid latitude in geocoding search response: query=%s lat=%s err=%v", query, result.Lat, err)
			continue
		}
		lng, err := strconv.ParseFloat(result.Lon, 64)
		if err != nil {
			log.Printf("[ERROR] Invalid longitude in geocoding search response: query=%s lng=%s err=%v", query, result.Lon, err)
			continue
		}

		suggestions = append(suggestions, Suggestion{
			Coords:      models.GeoPoint{Lat: lat, Lng: lng},
			DisplayName: result.DisplayName,
			Text:        strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lng, 'f', 6, 64),
		})
	}

	return suggestions, nil
}
