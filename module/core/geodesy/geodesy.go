// Package geodesy holds the distance primitives used by route compliance,
// geofence monitoring and drawing. Everything here is a pure function over
// WGS-84 coordinates in decimal degrees; distances are in meters.
package geodesy

import (
	"math"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
)

const earthRadiusMeters = 6371000

// Distance returns the haversine great-circle distance between a and b.
func Distance(a, b domain.GeoPoint) float64 {
	if a == b {
		return 0
	}
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push h marginally outside [0,1] for antipodal points
	h = math.Min(1, math.Max(0, h))
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// ProjectOntoSegment returns the point of segment [s, e] closest to p using a
// planar approximation in lat/lng space. It is accurate at corridor scale
// (up to a few kilometers) and is the one place to swap in a true geodesic
// projection.
func ProjectOntoSegment(p, s, e domain.GeoPoint) domain.GeoPoint {
	dLat := e.Lat - s.Lat
	dLng := e.Lng - s.Lng
	l2 := dLat*dLat + dLng*dLng
	if l2 == 0 {
		return s
	}
	t := ((p.Lat-s.Lat)*dLat + (p.Lng-s.Lng)*dLng) / l2
	t = math.Max(0, math.Min(1, t))
	return domain.GeoPoint{
		Lat: s.Lat + t*dLat,
		Lng: s.Lng + t*dLng,
	}
}

// PointToSegmentDistance is the haversine distance from p to its projection
// on [s, e].
func PointToSegmentDistance(p, s, e domain.GeoPoint) float64 {
	return Distance(p, ProjectOntoSegment(p, s, e))
}

// NearestIndex returns the index of the polyline vertex closest to p, the
// lowest index on ties, or -1 for an empty polyline.
func NearestIndex(p domain.GeoPoint, line domain.Polyline) int {
	best := -1
	bestDist := math.Inf(1)
	for i, q := range line {
		if d := Distance(p, q); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// DistanceToPolyline is the minimum distance from p to any segment of line.
// It is +Inf when line has fewer than two points; callers must not read that
// as "inside the corridor".
func DistanceToPolyline(p domain.GeoPoint, line domain.Polyline) float64 {
	best := math.Inf(1)
	for i := 1; i < len(line); i++ {
		if d := PointToSegmentDistance(p, line[i-1], line[i]); d < best {
			best = d
		}
	}
	return best
}

// RemainingDistance sums the legs from the vertex nearest to p to the end of
// line. Progress is assumed to be forward only.
func RemainingDistance(p domain.GeoPoint, line domain.Polyline) float64 {
	if len(line) < 2 {
		return 0
	}
	return PathLength(line[NearestIndex(p, line):])
}

// PathLength is the summed haversine length of consecutive legs.
func PathLength(line domain.Polyline) float64 {
	var total float64
	for i := 1; i < len(line); i++ {
		total += Distance(line[i-1], line[i])
	}
	return total
}

// MetersPerPixel is the Web Mercator ground resolution at lat for a 256px
// tile pyramid at the given zoom.
func MetersPerPixel(lat, zoom float64) float64 {
	return 2 * math.Pi * earthRadiusMeters * math.Cos(toRad(lat)) / (256 * math.Pow(2, zoom))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
