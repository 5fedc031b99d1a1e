package database

import (
	"context"
	"time"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
)

type LocationRepository interface {
	Insert(ctx context.Context, s *domain.VehicleSample) error
	GetLatest(ctx context.Context, vehicleID string) (*domain.VehicleSample, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehicleSample, error)
	GetAllVehicles(ctx context.Context) ([]domain.Vehicle, error)
}

type GeofenceRepository interface {
	Create(ctx context.Context, g *domain.Geofence) error
	Update(ctx context.Context, g *domain.Geofence) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Geofence, error)
	List(ctx context.Context) ([]domain.Geofence, error)
}

type MissionRepository interface {
	Create(ctx context.Context, m *domain.Mission) error
	Get(ctx context.Context, id string) (*domain.Mission, error)
	GetActiveByVehicle(ctx context.Context, vehicleID string) (*domain.Mission, error)
	Complete(ctx context.Context, id string, at time.Time) error
}
