package service

import (
	"context"
	"time"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
)

type mockAlertPublisher struct {
	publishGeofenceFn   func(ctx context.Context, alert *domain.GeofenceAlert) error
	publishComplianceFn func(ctx context.Context, alert *domain.ComplianceAlert) error
	geofenceCalls       []*domain.GeofenceAlert
	complianceCalls     []*domain.ComplianceAlert
}

func (m *mockAlertPublisher) PublishGeofenceAlert(ctx context.Context, alert *domain.GeofenceAlert) error {
	m.geofenceCalls = append(m.geofenceCalls, alert)
	if m.publishGeofenceFn != nil {
		return m.publishGeofenceFn(ctx, alert)
	}
	return nil
}

func (m *mockAlertPublisher) PublishComplianceAlert(ctx context.Context, alert *domain.ComplianceAlert) error {
	m.complianceCalls = append(m.complianceCalls, alert)
	if m.publishComplianceFn != nil {
		return m.publishComplianceFn(ctx, alert)
	}
	return nil
}

type mockMissionRepo struct {
	createFn             func(ctx context.Context, m *domain.Mission) error
	getFn                func(ctx context.Context, id string) (*domain.Mission, error)
	getActiveByVehicleFn func(ctx context.Context, vehicleID string) (*domain.Mission, error)
	completeFn           func(ctx context.Context, id string, at time.Time) error
}

func (m *mockMissionRepo) Create(ctx context.Context, mission *domain.Mission) error {
	return m.createFn(ctx, mission)
}

func (m *mockMissionRepo) Get(ctx context.Context, id string) (*domain.Mission, error) {
	return m.getFn(ctx, id)
}

func (m *mockMissionRepo) GetActiveByVehicle(ctx context.Context, vehicleID string) (*domain.Mission, error) {
	return m.getActiveByVehicleFn(ctx, vehicleID)
}

func (m *mockMissionRepo) Complete(ctx context.Context, id string, at time.Time) error {
	return m.completeFn(ctx, id, at)
}

type mockGeofenceRepo struct {
	createFn    func(ctx context.Context, g *domain.Geofence) error
	updateFn    func(ctx context.Context, g *domain.Geofence) error
	setActiveFn func(ctx context.Context, id string, active bool) error
	deleteFn    func(ctx context.Context, id string) error
	getFn       func(ctx context.Context, id string) (*domain.Geofence, error)
	listFn      func(ctx context.Context) ([]domain.Geofence, error)
}

func (m *mockGeofenceRepo) Create(ctx context.Context, g *domain.Geofence) error {
	return m.createFn(ctx, g)
}

func (m *mockGeofenceRepo) Update(ctx context.Context, g *domain.Geofence) error {
	return m.updateFn(ctx, g)
}

func (m *mockGeofenceRepo) SetActive(ctx context.Context, id string, active bool) error {
	return m.setActiveFn(ctx, id, active)
}

func (m *mockGeofenceRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockGeofenceRepo) Get(ctx context.Context, id string) (*domain.Geofence, error) {
	return m.getFn(ctx, id)
}

func (m *mockGeofenceRepo) List(ctx context.Context) ([]domain.Geofence, error) {
	return m.listFn(ctx)
}

// staticGeofences returns a repo whose List serves the given slice.
func staticGeofences(gfs ...domain.Geofence) *mockGeofenceRepo {
	return &mockGeofenceRepo{
		listFn: func(_ context.Context) ([]domain.Geofence, error) { return gfs, nil },
	}
}
