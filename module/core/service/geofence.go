package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
	"github.com/nandanugg/fleet-navigator/module/core/geodesy"
	"github.com/nandanugg/fleet-navigator/module/core/internal/repository/database"
	"github.com/nandanugg/fleet-navigator/module/core/internal/repository/publisher"
)

type presenceKey struct {
	vehicleID  string
	geofenceID string
}

// GeofenceService keeps the geofence registry and raises entry/exit alerts
// for active geofences as samples arrive.
type GeofenceService struct {
	repo      database.GeofenceRepository
	publisher publisher.AlertPublisher
	now       func() time.Time

	mu        sync.RWMutex
	geofences []domain.Geofence
	inside    map[presenceKey]bool
}

func NewGeofenceService(repo database.GeofenceRepository, pub publisher.AlertPublisher) *GeofenceService {
	return &GeofenceService{
		repo:      repo,
		publisher: pub,
		now:       time.Now,
		inside:    make(map[presenceKey]bool),
	}
}

// Reload refreshes the in-memory snapshot used by CheckAndAlert.
func (s *GeofenceService) Reload(ctx context.Context) error {
	all, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list geofences: %w", err)
	}
	s.mu.Lock()
	s.geofences = all
	s.mu.Unlock()
	return nil
}

func (s *GeofenceService) Create(ctx context.Context, g *domain.Geofence) error {
	if err := validateGeofence(g); err != nil {
		return err
	}
	now := s.now()
	g.ID = uuid.NewString()
	g.CreatedAt = now
	g.UpdatedAt = now
	if err := s.repo.Create(ctx, g); err != nil {
		return fmt.Errorf("create geofence: %w", err)
	}
	slog.Info("geofence created", "geofence_id", g.ID, "kind", g.Shape.Kind())
	return s.Reload(ctx)
}

func (s *GeofenceService) Get(ctx context.Context, id string) (*domain.Geofence, error) {
	return s.repo.Get(ctx, id)
}

func (s *GeofenceService) List(ctx context.Context) ([]domain.Geofence, error) {
	return s.repo.List(ctx)
}

// Replace renames or redraws a geofence. Presence state is reset since the
// old shape no longer applies.
func (s *GeofenceService) Replace(ctx context.Context, g *domain.Geofence) error {
	if err := validateGeofence(g); err != nil {
		return err
	}
	g.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, g); err != nil {
		return fmt.Errorf("update geofence: %w", err)
	}
	s.forget(g.ID)
	return s.Reload(ctx)
}

func (s *GeofenceService) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("set geofence active: %w", err)
	}
	if !active {
		s.forget(id)
	}
	return s.Reload(ctx)
}

func (s *GeofenceService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete geofence: %w", err)
	}
	s.forget(id)
	return s.Reload(ctx)
}

// CheckAndAlert compares the sample against every active geofence. Presence
// is only committed once the alert for the transition is published, so a
// failed publish is retried on the next sample.
func (s *GeofenceService) CheckAndAlert(ctx context.Context, sample *domain.VehicleSample) error {
	s.mu.RLock()
	geofences := s.geofences
	s.mu.RUnlock()

	for _, gf := range geofences {
		if !gf.IsActive {
			continue
		}
		key := presenceKey{vehicleID: sample.VehicleID, geofenceID: gf.ID}
		nowInside := geodesy.Contains(gf.Shape, sample.Position)

		s.mu.RLock()
		wasInside := s.inside[key]
		s.mu.RUnlock()

		if nowInside == wasInside {
			continue
		}

		event := domain.GeofenceExit
		notify := gf.AlertOnExit
		if nowInside {
			event = domain.GeofenceEntry
			notify = gf.AlertOnEnter
		}

		if notify {
			alert := &domain.GeofenceAlert{
				GeofenceID:   gf.ID,
				GeofenceName: gf.Name,
				VehicleID:    sample.VehicleID,
				Event:        event,
				Position:     sample.Position,
				Timestamp:    sample.Timestamp.Unix(),
			}
			if err := s.publisher.PublishGeofenceAlert(ctx, alert); err != nil {
				return err
			}
			slog.Info("geofence transition", "vehicle_id", sample.VehicleID, "geofence", gf.Name, "event", event)
		}

		s.mu.Lock()
		if nowInside {
			s.inside[key] = true
		} else {
			delete(s.inside, key)
		}
		s.mu.Unlock()
	}
	return nil
}

func (s *GeofenceService) forget(geofenceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.inside {
		if k.geofenceID == geofenceID {
			delete(s.inside, k)
		}
	}
}

func validateGeofence(g *domain.Geofence) error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("name: required: %w", domain.ErrInvalidGeofence)
	}
	if g.Shape == nil {
		return domain.ErrInvalidShape
	}
	return g.Shape.Validate()
}
