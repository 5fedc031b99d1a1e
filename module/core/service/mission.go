package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
	"github.com/nandanugg/fleet-navigator/module/core/internal/repository/database"
)

var (
	ErrMissionConflict = errors.New("vehicle already has an active mission")
	ErrNoRoutePlanner  = errors.New("no route given and no route planner configured")
)

// RoutePlanner produces the route geometry and speed segments between two
// points.
type RoutePlanner interface {
	Plan(ctx context.Context, origin, destination domain.GeoPoint) (*domain.Route, error)
}

type MissionDefaults struct {
	CorridorWidthMeters float64
	MaxSpeedKmh         float64
}

// CreateMissionInput carries either an explicit Route or just a Destination
// for the planner. Origin defaults to the vehicle's latest position.
type CreateMissionInput struct {
	VehicleID           string
	Origin              *domain.GeoPoint
	Destination         *domain.GeoPoint
	Route               domain.Polyline
	SpeedSegments       []domain.SpeedSegment
	CorridorWidthMeters float64
	MaxSpeedKmh         *float64
}

type MissionService struct {
	missions  database.MissionRepository
	locations database.LocationRepository
	planner   RoutePlanner
	defaults  MissionDefaults
	now       func() time.Time
}

// NewMissionService accepts a nil planner; missions then need an explicit route.
func NewMissionService(missions database.MissionRepository, locations database.LocationRepository, planner RoutePlanner, defaults MissionDefaults) *MissionService {
	return &MissionService{
		missions:  missions,
		locations: locations,
		planner:   planner,
		defaults:  defaults,
		now:       time.Now,
	}
}

func (s *MissionService) Create(ctx context.Context, in *CreateMissionInput) (*domain.Mission, error) {
	if in.VehicleID == "" {
		return nil, fmt.Errorf("vehicle_id: required: %w", domain.ErrInvalidMission)
	}

	_, err := s.missions.GetActiveByVehicle(ctx, in.VehicleID)
	switch {
	case err == nil:
		return nil, ErrMissionConflict
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("active mission: %w", err)
	}

	route, segments, err := s.resolveRoute(ctx, in)
	if err != nil {
		return nil, err
	}

	m := &domain.Mission{
		ID:                  uuid.NewString(),
		VehicleID:           in.VehicleID,
		Route:               route,
		SpeedSegments:       segments,
		CorridorWidthMeters: in.CorridorWidthMeters,
		MaxSpeedKmh:         s.defaults.MaxSpeedKmh,
		Status:              domain.MissionActive,
		CreatedAt:           s.now(),
	}
	if m.CorridorWidthMeters <= 0 {
		m.CorridorWidthMeters = s.defaults.CorridorWidthMeters
	}
	if in.MaxSpeedKmh != nil {
		m.MaxSpeedKmh = *in.MaxSpeedKmh
	}
	if len(route) > 0 {
		m.Destination = route[len(route)-1]
	}
	if in.Destination != nil {
		m.Destination = *in.Destination
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := s.missions.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create mission: %w", err)
	}

	slog.Info("mission created",
		"mission_id", m.ID,
		"vehicle_id", m.VehicleID,
		"points", len(m.Route),
		"segments", len(m.SpeedSegments),
	)
	return m, nil
}

func (s *MissionService) resolveRoute(ctx context.Context, in *CreateMissionInput) (domain.Polyline, []domain.SpeedSegment, error) {
	if len(in.Route) > 0 {
		return in.Route, in.SpeedSegments, nil
	}
	if in.Destination == nil {
		return nil, nil, fmt.Errorf("route or destination: required: %w", domain.ErrInvalidMission)
	}
	if s.planner == nil {
		return nil, nil, ErrNoRoutePlanner
	}

	origin := in.Origin
	if origin == nil {
		latest, err := s.locations.GetLatest(ctx, in.VehicleID)
		if err != nil {
			return nil, nil, fmt.Errorf("origin from latest position: %w", err)
		}
		origin = &latest.Position
	}

	planned, err := s.planner.Plan(ctx, *origin, *in.Destination)
	if err != nil {
		return nil, nil, fmt.Errorf("plan route: %w", err)
	}
	return planned.Polyline, planned.SpeedSegments, nil
}

func (s *MissionService) Get(ctx context.Context, id string) (*domain.Mission, error) {
	return s.missions.Get(ctx, id)
}

// Compliance evaluates the mission against its vehicle's latest sample.
func (s *MissionService) Compliance(ctx context.Context, id string) (*domain.ComplianceResult, error) {
	m, err := s.missions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	latest, err := s.locations.GetLatest(ctx, m.VehicleID)
	if err != nil {
		return nil, err
	}
	result := Evaluate(*latest, m)
	return &result, nil
}
