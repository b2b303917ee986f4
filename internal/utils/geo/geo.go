package geo

import "math"

const earthRadiusKm = 6371.0

// BBox is a lat/lng rectangle used as a cheap SQL prefilter before the
// exact distance check. Lat/Lng is the point it was built around.
//
// A box that crosses the antimeridian has LngMin > LngMax: it covers
// [LngMin, 180] and [-180, LngMax].
type BBox struct {
	Lat, Lng       float64
	LatMin, LatMax float64
	LngMin, LngMax float64
}

// CrossesAntimeridian reports whether the longitude range wraps past ±180.
func (b BBox) CrossesAntimeridian() bool { return b.LngMin > b.LngMax }

// LngScale is the squared cosine of the center latitude: multiplying a
// squared longitude delta by it turns degrees into latitude-sized degrees.
func (b BBox) LngScale() float64 {
	c := math.Cos(b.Lat * math.Pi / 180)
	return c * c
}

// HaversineKm is the great-circle distance between two points.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// BBoxFromPoint returns the rectangle enclosing a circle of radiusKm.
func BBoxFromPoint(lat, lng, radiusKm float64) BBox {
	latDelta := radiusKm / 111.0
	cos := math.Cos(lat * math.Pi / 180)
	lngDelta := 180.0
	if cos > 1e-6 {
		lngDelta = radiusKm / (111.0 * cos)
	}
	box := BBox{
		Lat:    lat,
		Lng:    lng,
		LatMin: max(lat-latDelta, -90),
		LatMax: min(lat+latDelta, 90),
		LngMin: -180,
		LngMax: 180,
	}
	if lngDelta < 180 {
		box.LngMin, box.LngMax = wrapLng(lng-lngDelta), wrapLng(lng+lngDelta)
	}
	return box
}

func wrapLng(lng float64) float64 {
	switch {
	case lng < -180:
		return lng + 360
	case lng > 180:
		return lng - 360
	}
	return lng
}

// ValidPoint reports whether lat/lng are inside their ranges.
func ValidPoint(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
