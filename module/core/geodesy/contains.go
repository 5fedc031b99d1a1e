package geodesy

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
)

// Contains reports whether p lies inside shape. Circles use the haversine
// radius; polygons use planar ray casting in lng/lat space, which is fine at
// geofence scale away from the antimeridian.
func Contains(shape domain.Shape, p domain.GeoPoint) bool {
	switch s := shape.(type) {
	case domain.Circle:
		return Distance(s.Center, p) <= s.RadiusMeters
	case domain.Polygon:
		if len(s.Vertices) < 3 {
			return false
		}
		return planar.PolygonContains(orb.Polygon{Ring(s.Vertices)}, orb.Point{p.Lng, p.Lat})
	default:
		return false
	}
}

// Ring converts vertices to a closed orb ring (lng, lat order).
func Ring(vertices []domain.GeoPoint) orb.Ring {
	ring := make(orb.Ring, 0, len(vertices)+1)
	for _, v := range vertices {
		ring = append(ring, orb.Point{v.Lng, v.Lat})
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring
}
