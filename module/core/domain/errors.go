package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrVehicleNotFound  = fmt.Errorf("vehicle %w", ErrNotFound)
	ErrGeofenceNotFound = fmt.Errorf("geofence %w", ErrNotFound)
	ErrMissionNotFound  = fmt.Errorf("mission %w", ErrNotFound)
)
