package geocoding

import (
	"math"

	"meter-route-planner/internal/models"
)

// WGS84 ellipsoid and UTM constants
const (
	wgs84A          = 6378137.0
	wgs84F          = 1 / 298.257223563
	utmScale        = 0.9996
	falseEasting    = 500000.0
	falseNorthingS  = 10000000.0
	degreesPerZone  = 6.0
	maxUTMZone      = 60
	minUTMZone      = 1
	hemisphereNorth = 'N'
	hemisphereSouth = 'S'
)

var (
	e2  = wgs84F * (2 - wgs84F)
	ep2 = e2 / (1 - e2)
)

// centralMeridian returns the central meridian of a UTM zone in degrees
func centralMeridian(zone int) float64 {
	return float64(zone-1)*degreesPerZone - 180 + degreesPerZone/2
}

// meridianArc is the distance along the meridian from the equator to phi
func meridianArc(phi float64) float64 {
	e4 := e2 * e2
	e6 := e4 * e2
	return wgs84A * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// UTMToGeo converts a projected point to WGS84 using the Snyder series.
// Accuracy is well under a metre within a zone.
func UTMToGeo(p models.ProjectedPoint) models.GeoPoint {
	x := p.Easting - falseEasting
	y := p.Northing
	if p.Hemisphere == hemisphereSouth {
		y -= falseNorthingS
	}

	e4 := e2 * e2
	e6 := e4 * e2
	m := y / utmScale
	mu := m / (wgs84A * (1 - e2/4 - 3*e4/64 - 5*e6/256))

	sq := math.Sqrt(1 - e2)
	e1 := (1 - sq) / (1 + sq)
	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := math.Tan(phi1)

	n1 := wgs84A / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	t1 := tanPhi1 * tanPhi1
	c1 := ep2 * cosPhi1 * cosPhi1
	r1 := wgs84A * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := x / (n1 * utmScale)

	lat := phi1 - (n1*tanPhi1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*math.Pow(d, 4)/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*math.Pow(d, 6)/720)

	lng := (d - (1+2*t1+c1)*math.Pow(d, 3)/6 +
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*math.Pow(d, 5)/120) / cosPhi1

	return models.GeoPoint{
		Lat: lat * 180 / math.Pi,
		Lng: centralMeridian(p.Zone) + lng*180/math.Pi,
	}
}

// GeoToUTM projects a WGS84 point into the given zone and hemisphere
func GeoToUTM(g models.GeoPoint, zone int, hemisphere byte) models.ProjectedPoint {
	phi := g.Lat * math.Pi / 180
	dLambda := (g.Lng - centralMeridian(zone)) * math.Pi / 180

	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := math.Tan(phi)

	n := wgs84A / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	a := cosPhi * dLambda
	m := meridianArc(phi)

	easting := utmScale*n*(a+
		(1-t+c)*math.Pow(a, 3)/6+
		(5-18*t+t*t+72*c-58*ep2)*math.Pow(a, 5)/120) + falseEasting

	northing := utmScale * (m + n*tanPhi*(a*a/2+
		(5-t+9*c+4*c*c)*math.Pow(a, 4)/24+
		(61-58*t+t*t+600*c-330*ep2)*math.Pow(a, 6)/720))
	if hemisphere == hemisphereSouth {
		northing += falseNorthingS
	}

	return models.ProjectedPoint{
		Easting:    easting,
		Northing:   northing,
		Zone:       zone,
		Hemisphere: hemisphere,
	}
}
