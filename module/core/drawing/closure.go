package drawing

import (
	"github.com/nandanugg/fleet-navigator/module/core/domain"
	"github.com/nandanugg/fleet-navigator/module/core/geodesy"
)

// Closure decides whether a click lands close enough to the first polygon
// vertex to close the ring.
type Closure interface {
	Closes(click, first domain.GeoPoint) bool
}

// ScreenClosure closes within Pixels screen pixels of the first vertex at
// the given map zoom, using the ground resolution at the first vertex.
type ScreenClosure struct {
	Pixels float64
	Zoom   float64
}

func (c ScreenClosure) Closes(click, first domain.GeoPoint) bool {
	return geodesy.Distance(click, first) < c.Pixels*geodesy.MetersPerPixel(first.Lat, c.Zoom)
}

// DistanceClosure closes within a fixed number of meters.
type DistanceClosure float64

func (c DistanceClosure) Closes(click, first domain.GeoPoint) bool {
	return geodesy.Distance(click, first) < float64(c)
}
