package domain

import "fmt"

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p GeoPoint) Valid() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("lat: must be between -90 and 90")
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("lng: must be between -180 and 180")
	}
	return nil
}

// Polyline is an ordered path. Distance and deviation computations need at
// least two points.
type Polyline []GeoPoint

func (l Polyline) Valid() error {
	for i, p := range l {
		if err := p.Valid(); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}
	return nil
}
