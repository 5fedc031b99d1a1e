package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
	"github.com/nandanugg/fleet-navigator/module/core/internal/repository/cache"
	"github.com/nandanugg/fleet-navigator/module/core/internal/repository/database"
)

// ErrOutOfOrderSample marks a sample older than the last one accepted for the
// same vehicle. Such samples are rejected, never reordered. Equal timestamps
// pass: the feed reports whole seconds and may send several samples per second.
var ErrOutOfOrderSample = errors.New("out-of-order sample")

type LocationService struct {
	repo       database.LocationRepository
	cache      cache.SampleCache
	staleAfter time.Duration
	now        func() time.Time
}

func NewLocationService(repo database.LocationRepository, c cache.SampleCache, staleAfter time.Duration) *LocationService {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &LocationService{repo: repo, cache: c, staleAfter: staleAfter, now: time.Now}
}

func (s *LocationService) SaveLocation(ctx context.Context, sample *domain.VehicleSample) error {
	last, ok, err := s.cache.LastTimestamp(ctx, sample.VehicleID)
	if err != nil {
		return fmt.Errorf("last timestamp: %w", err)
	}
	if ok && sample.Timestamp.Before(last) {
		return fmt.Errorf("%w: vehicle %s sent %s after %s", ErrOutOfOrderSample,
			sample.VehicleID, sample.Timestamp.Format(time.RFC3339), last.Format(time.RFC3339))
	}

	// Insert ignores a row already stored for this vehicle and second, so a
	// redelivery after a failed guard update is not duplicated.
	if err := s.repo.Insert(ctx, sample); err != nil {
		return err
	}
	if err := s.cache.SetLastTimestamp(ctx, sample.VehicleID, sample.Timestamp); err != nil {
		return fmt.Errorf("remember timestamp: %w", err)
	}
	return nil
}

func (s *LocationService) GetLatest(ctx context.Context, vehicleID string) (*domain.VehicleSample, error) {
	return s.repo.GetLatest(ctx, vehicleID)
}

func (s *LocationService) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehicleSample, error) {
	return s.repo.GetHistory(ctx, query)
}

func (s *LocationService) GetAllVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	return s.repo.GetAllVehicles(ctx)
}

func (s *LocationService) GetStatus(ctx context.Context, vehicleID string) (*domain.VehicleStatus, error) {
	latest, err := s.repo.GetLatest(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	return &domain.VehicleStatus{
		VehicleID: vehicleID,
		Status:    ClassifyWithStaleness(*latest, s.now(), s.staleAfter),
		Sample:    *latest,
	}, nil
}
