package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidGeofence = errors.New("invalid geofence")
	ErrInvalidShape    = fmt.Errorf("%w: bad shape", ErrInvalidGeofence)
)

type ShapeKind string

const (
	ShapePolygon ShapeKind = "polygon"
	ShapeCircle  ShapeKind = "circle"
)

// Shape is either a Polygon or a Circle.
type Shape interface {
	Kind() ShapeKind
	Validate() error
	isShape()
}

type Polygon struct {
	Vertices []GeoPoint
}

func (Polygon) Kind() ShapeKind { return ShapePolygon }
func (Polygon) isShape()        {}

func (p Polygon) Validate() error {
	if len(p.Vertices) < 3 {
		return ErrInvalidShape
	}
	for _, v := range p.Vertices {
		if v.Valid() != nil {
			return ErrInvalidShape
		}
	}
	return nil
}

type Circle struct {
	Center       GeoPoint
	RadiusMeters float64
}

func (Circle) Kind() ShapeKind { return ShapeCircle }
func (Circle) isShape()        {}

func (c Circle) Validate() error {
	if c.RadiusMeters <= 0 || c.Center.Valid() != nil {
		return ErrInvalidShape
	}
	return nil
}

type Geofence struct {
	ID           string
	Name         string
	Shape        Shape
	IsActive     bool
	AlertOnEnter bool
	AlertOnExit  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type GeofenceEventType string

const (
	GeofenceEntry GeofenceEventType = "geofence_entry"
	GeofenceExit  GeofenceEventType = "geofence_exit"
)

type GeofenceAlert struct {
	GeofenceID   string            `json:"geofence_id"`
	GeofenceName string            `json:"geofence_name"`
	VehicleID    string            `json:"vehicle_id"`
	Event        GeofenceEventType `json:"event"`
	Position     GeoPoint          `json:"position"`
	Timestamp    int64             `json:"timestamp"`
}
