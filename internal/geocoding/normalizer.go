package geocoding

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/url"
	"strconv"
	"strings"

	"meter-route-planner/internal/metrics"
	"meter-route-planner/internal/models"
)

// maxDegreeMagnitude separates geographic degrees from projected metres in free text
const maxDegreeMagnitude = 180.0

// Normalizer converts surveyed positions into WGS84 locations for one
// configured UTM zone and hemisphere
type Normalizer struct {
	zone       int
	hemisphere byte
}

// NewNormalizer creates a normalizer for the deployment's UTM zone
func NewNormalizer(zone int, hemisphere string) (*Normalizer, error) {
	if zone < minUTMZone || zone > maxUTMZone {
		return nil, fmt.Errorf("invalid UTM zone %d", zone)
	}
	h := strings.ToUpper(strings.TrimSpace(hemisphere))
	if h != string(hemisphereNorth) && h != string(hemisphereSouth) {
		return nil, fmt.Errorf("invalid hemisphere %q", hemisphere)
	}
	return &Normalizer{zone: zone, hemisphere: h[0]}, nil
}

// Zone returns the configured UTM zone
func (n *Normalizer) Zone() int { return n.zone }

// Hemisphere returns 'N' or 'S'
func (n *Normalizer) Hemisphere() byte { return n.hemisphere }

// NormalizeProjected converts a raw easting/northing pair. Values may be
// numbers or numeric strings; missing, zero, or unparsable input is Unlocated.
func (n *Normalizer) NormalizeProjected(easting, northing any) (loc models.Location) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] Projection panicked: easting=%v northing=%v err=%v", easting, northing, r)
			loc = models.Unlocated
		}
		observe(loc)
	}()

	e, ok := parseNumber(easting)
	if !ok {
		return models.Unlocated
	}
	no, ok := parseNumber(northing)
	if !ok {
		return models.Unlocated
	}
	return n.project(e, no)
}

// Project converts a geographic point into this normalizer's projected grid
func (n *Normalizer) Project(p models.GeoPoint) models.ProjectedPoint {
	return GeoToUTM(p, n.zone, n.hemisphere)
}

// NormalizeText interprets free-form input. It first tries a URL carrying
// x (easting) and y (northing) query parameters, then a comma separated
// "northing,easting" pair. Components within degree range are taken as
// latitude/longitude directly; larger magnitudes are projected metres.
func (n *Normalizer) NormalizeText(text string) (loc models.Location) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] Text normalization panicked: text=%q err=%v", text, r)
			loc = models.Unlocated
		}
		observe(loc)
	}()

	text = strings.TrimSpace(text)
	if text == "" {
		return models.Unlocated
	}

	if e, no, ok := pairFromURL(text); ok {
		return n.interpret(no, e)
	}

	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return models.Unlocated
	}
	first, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	second, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return models.Unlocated
	}
	return n.interpret(first, second)
}

// interpret resolves a (northing-ish, easting-ish) pair read from text
func (n *Normalizer) interpret(north, east float64) models.Location {
	if !finite(north) || !finite(east) || (north == 0 && east == 0) {
		return models.Unlocated
	}
	if math.Abs(north) <= maxDegreeMagnitude && math.Abs(east) <= maxDegreeMagnitude {
		return models.LocatedAt(models.GeoPoint{Lat: north, Lng: east})
	}
	if math.Abs(north) > maxDegreeMagnitude && math.Abs(east) > maxDegreeMagnitude {
		return n.project(east, north)
	}
	return models.Unlocated
}

func (n *Normalizer) project(easting, northing float64) models.Location {
	if easting == 0 || northing == 0 || !finite(easting) || !finite(northing) {
		return models.Unlocated
	}
	p := UTMToGeo(models.ProjectedPoint{
		Easting:    easting,
		Northing:   northing,
		Zone:       n.zone,
		Hemisphere: n.hemisphere,
	})
	return models.LocatedAt(p)
}

// pairFromURL extracts the x/y query parameters of a map link
func pairFromURL(text string) (easting, northing float64, ok bool) {
	u, err := url.Parse(text)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return 0, 0, false
	}
	q := u.Query()
	xs, ys := q.Get("x"), q.Get("y")
	if xs == "" || ys == "" {
		return 0, 0, false
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return 0, 0, false
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return 0, 0, false
	}
	return x, y, true
}

func parseNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if f == 0 || !finite(f) {
		return 0, false
	}
	return f, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func observe(loc models.Location) {
	if loc.Located {
		metrics.Normalizations.WithLabelValues("located").Inc()
		return
	}
	metrics.Normalizations.WithLabelValues("unlocated").Inc()
}
