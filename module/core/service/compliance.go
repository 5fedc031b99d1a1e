package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
	"github.com/nandanugg/fleet-navigator/module/core/geodesy"
	"github.com/nandanugg/fleet-navigator/module/core/internal/repository/database"
	"github.com/nandanugg/fleet-navigator/module/core/internal/repository/publisher"
)

const (
	DefaultSpeedLimitKmh = 60
	ArrivalRadiusMeters  = 100

	etaFallbackSpeedKmh = 60
	etaMinSpeedKmh      = 5
)

// Evaluate computes corridor, speed and progress figures for one sample
// against a mission. It keeps no state between calls.
func Evaluate(s domain.VehicleSample, m *domain.Mission) domain.ComplianceResult {
	deviation := geodesy.DistanceToPolyline(s.Position, m.Route)
	limit, road := SpeedLimitAt(geodesy.NearestIndex(s.Position, m.Route), m.SpeedSegments)

	source := domain.ViolationNone
	switch {
	case s.SpeedKmh > limit:
		source = domain.ViolationRoad
	case m.MaxSpeedKmh > 0 && s.SpeedKmh > m.MaxSpeedKmh:
		source = domain.ViolationMission
	}

	remaining := geodesy.RemainingDistance(s.Position, m.Route)

	return domain.ComplianceResult{
		IsDeviated:              deviation > m.CorridorWidthMeters,
		DeviationMeters:         deviation,
		CurrentSpeedLimit:       limit,
		CurrentRoadName:         road,
		IsSpeedViolation:        source != domain.ViolationNone,
		ViolationSource:         source,
		RemainingDistanceMeters: remaining,
		ETASeconds:              ETASeconds(remaining, s.SpeedKmh),
		Arrived:                 geodesy.Distance(s.Position, m.Destination) < ArrivalRadiusMeters,
	}
}

// SpeedLimitAt returns the limit of the first segment covering idx, falling
// back to the last segment and then to DefaultSpeedLimitKmh.
func SpeedLimitAt(idx int, segments []domain.SpeedSegment) (float64, *string) {
	if len(segments) == 0 {
		return DefaultSpeedLimitKmh, nil
	}
	for _, seg := range segments {
		if idx >= seg.StartIndex && idx <= seg.EndIndex {
			return seg.MaxSpeed, seg.RoadName
		}
	}
	last := segments[len(segments)-1]
	return last.MaxSpeed, last.RoadName
}

// ETASeconds assumes a nominal 60 km/h when the vehicle is at or below 5 km/h.
func ETASeconds(remainingMeters, speedKmh float64) float64 {
	effective := speedKmh
	if speedKmh <= etaMinSpeedKmh {
		effective = etaFallbackSpeedKmh
	}
	return remainingMeters / 1000 / effective * 3600
}

// ComplianceMonitor evaluates samples of vehicles with an active mission and
// publishes an alert whenever the mission banner changes or the vehicle
// arrives.
type ComplianceMonitor struct {
	missions  database.MissionRepository
	publisher publisher.AlertPublisher

	mu      sync.Mutex
	banners map[string]domain.Banner
}

func NewComplianceMonitor(missions database.MissionRepository, pub publisher.AlertPublisher) *ComplianceMonitor {
	return &ComplianceMonitor{
		missions:  missions,
		publisher: pub,
		banners:   make(map[string]domain.Banner),
	}
}

// Check returns nil without error when the vehicle has no active mission.
func (c *ComplianceMonitor) Check(ctx context.Context, s *domain.VehicleSample) (*domain.ComplianceResult, error) {
	mission, err := c.missions.GetActiveByVehicle(ctx, s.VehicleID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active mission: %w", err)
	}

	result := Evaluate(*s, mission)
	banner := result.Banner()

	c.mu.Lock()
	prev, seen := c.banners[mission.ID]
	c.mu.Unlock()
	if !seen {
		prev = domain.BannerCompliant
	}

	// State is committed only once its alert is out, so a failed publish is
	// retried on the next sample.
	if banner != prev {
		event := domain.ComplianceViolation
		if banner == domain.BannerCompliant {
			event = domain.ComplianceRestored
		}
		slog.Info("mission banner changed",
			"mission_id", mission.ID,
			"vehicle_id", s.VehicleID,
			"from", prev,
			"to", banner,
		)
		if err := c.publish(ctx, event, banner, mission, s, &result); err != nil {
			return &result, err
		}
		c.mu.Lock()
		c.banners[mission.ID] = banner
		c.mu.Unlock()
	}

	if result.Arrived {
		if err := c.publish(ctx, domain.MissionArrived, banner, mission, s, &result); err != nil {
			return &result, err
		}
		if err := c.missions.Complete(ctx, mission.ID, s.Timestamp); err != nil {
			return &result, fmt.Errorf("complete mission: %w", err)
		}
		c.mu.Lock()
		delete(c.banners, mission.ID)
		c.mu.Unlock()
		slog.Info("mission arrived", "mission_id", mission.ID, "vehicle_id", s.VehicleID)
	}

	return &result, nil
}

func (c *ComplianceMonitor) publish(ctx context.Context, event domain.ComplianceEventType, banner domain.Banner, m *domain.Mission, s *domain.VehicleSample, r *domain.ComplianceResult) error {
	alert := &domain.ComplianceAlert{
		MissionID:  m.ID,
		VehicleID:  s.VehicleID,
		Event:      event,
		Banner:     banner,
		Position:   s.Position,
		SpeedKmh:   s.SpeedKmh,
		SpeedLimit: r.CurrentSpeedLimit,
		RoadName:   r.CurrentRoadName,
		Timestamp:  s.Timestamp.Unix(),
	}
	if err := c.publisher.PublishComplianceAlert(ctx, alert); err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}
	return nil
}
