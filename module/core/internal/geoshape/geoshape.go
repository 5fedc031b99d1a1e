// Package geoshape converts geofence shapes and routes to and from GeoJSON.
// Coordinates are written in GeoJSON (lng, lat) order. A circle is stored as
// a Point feature carrying a radius_meters property.
package geoshape

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
	"github.com/nandanugg/fleet-navigator/module/core/geodesy"
)

const RadiusProperty = "radius_meters"

func ShapeFeature(shape domain.Shape) (*geojson.Feature, error) {
	switch s := shape.(type) {
	case domain.Polygon:
		return geojson.NewFeature(orb.Polygon{geodesy.Ring(s.Vertices)}), nil
	case domain.Circle:
		f := geojson.NewFeature(point(s.Center))
		f.Properties[RadiusProperty] = s.RadiusMeters
		return f, nil
	default:
		return nil, domain.ErrInvalidShape
	}
}

func FeatureShape(f *geojson.Feature) (domain.Shape, error) {
	switch g := f.Geometry.(type) {
	case orb.Polygon:
		if len(g) == 0 {
			return nil, domain.ErrInvalidShape
		}
		ring := g[0]
		if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
			ring = ring[:len(ring)-1]
		}
		vertices := make([]domain.GeoPoint, len(ring))
		for i, p := range ring {
			vertices[i] = geoPoint(p)
		}
		return domain.Polygon{Vertices: vertices}, nil
	case orb.Point:
		radius, ok := f.Properties[RadiusProperty].(float64)
		if !ok {
			return nil, fmt.Errorf("%w: circle without %s", domain.ErrInvalidShape, RadiusProperty)
		}
		return domain.Circle{Center: geoPoint(g), RadiusMeters: radius}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported geometry %T", domain.ErrInvalidShape, f.Geometry)
	}
}

func MarshalShape(shape domain.Shape) ([]byte, error) {
	f, err := ShapeFeature(shape)
	if err != nil {
		return nil, err
	}
	return f.MarshalJSON()
}

func UnmarshalShape(data []byte) (domain.Shape, error) {
	f, err := geojson.UnmarshalFeature(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidShape, err)
	}
	return FeatureShape(f)
}

// GeofenceFeature is the shape feature with the geofence's metadata attached.
func GeofenceFeature(g *domain.Geofence) (*geojson.Feature, error) {
	f, err := ShapeFeature(g.Shape)
	if err != nil {
		return nil, err
	}
	f.ID = g.ID
	f.Properties["name"] = g.Name
	f.Properties["kind"] = string(g.Shape.Kind())
	f.Properties["is_active"] = g.IsActive
	f.Properties["alert_on_enter"] = g.AlertOnEnter
	f.Properties["alert_on_exit"] = g.AlertOnExit
	return f, nil
}

func LineString(l domain.Polyline) orb.LineString {
	ls := make(orb.LineString, len(l))
	for i, p := range l {
		ls[i] = point(p)
	}
	return ls
}

func Polyline(ls orb.LineString) domain.Polyline {
	l := make(domain.Polyline, len(ls))
	for i, p := range ls {
		l[i] = geoPoint(p)
	}
	return l
}

func MarshalPolyline(l domain.Polyline) ([]byte, error) {
	return geojson.NewGeometry(LineString(l)).MarshalJSON()
}

func UnmarshalPolyline(data []byte) (domain.Polyline, error) {
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, err
	}
	ls, ok := g.Geometry().(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("expected LineString, got %s", g.Type)
	}
	return Polyline(ls), nil
}

// RouteFeatureCollection renders a mission as its route line, its
// destination and one line per speed segment.
func RouteFeatureCollection(m *domain.Mission) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	route := geojson.NewFeature(LineString(m.Route))
	route.ID = m.ID
	route.Properties["vehicle_id"] = m.VehicleID
	route.Properties["corridor_width_meters"] = m.CorridorWidthMeters
	route.Properties["status"] = string(m.Status)
	if m.MaxSpeedKmh > 0 {
		route.Properties["max_speed_kmh"] = m.MaxSpeedKmh
	}
	fc.Append(route)

	dest := geojson.NewFeature(point(m.Destination))
	dest.Properties["role"] = "destination"
	fc.Append(dest)

	for _, seg := range m.SpeedSegments {
		if seg.StartIndex >= len(m.Route) {
			continue
		}
		end := min(seg.EndIndex, len(m.Route)-1)
		f := geojson.NewFeature(LineString(m.Route[seg.StartIndex : end+1]))
		f.Properties["role"] = "speed_segment"
		f.Properties["max_speed"] = seg.MaxSpeed
		if seg.RoadName != nil {
			f.Properties["road_name"] = *seg.RoadName
		}
		fc.Append(f)
	}
	return fc
}

func point(p domain.GeoPoint) orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

func geoPoint(p orb.Point) domain.GeoPoint {
	return domain.GeoPoint{Lat: p.Lat(), Lng: p.Lon()}
}
