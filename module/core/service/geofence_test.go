package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
)

var monas = domain.GeoPoint{Lat: -6.2088, Lng: 106.8456}

func circleFence(id string, radius float64) domain.Geofence {
	return domain.Geofence{
		ID:           id,
		Name:         "fence-" + id,
		Shape:        domain.Circle{Center: monas, RadiusMeters: radius},
		IsActive:     true,
		AlertOnEnter: true,
		AlertOnExit:  true,
	}
}

func newLoadedGeofenceService(t *testing.T, pub *mockAlertPublisher, gfs ...domain.Geofence) *GeofenceService {
	t.Helper()
	svc := NewGeofenceService(staticGeofences(gfs...), pub)
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	return svc
}

func sampleAtMonas(p domain.GeoPoint) *domain.VehicleSample {
	return &domain.VehicleSample{
		VehicleID: "B1234XYZ",
		Position:  p,
		Timestamp: time.Unix(1715003456, 0),
	}
}

func TestCheckAndAlert_InsideGeofence(t *testing.T) {
	pub := &mockAlertPublisher{}
	svc := newLoadedGeofenceService(t, pub, circleFence("a", 50))

	// exact same point, distance is 0
	err := svc.CheckAndAlert(context.Background(), sampleAtMonas(monas))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.geofenceCalls) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(pub.geofenceCalls))
	}
	alert := pub.geofenceCalls[0]
	if alert.VehicleID != "B1234XYZ" {
		t.Errorf("expected B1234XYZ, got %s", alert.VehicleID)
	}
	if alert.Event != domain.GeofenceEntry {
		t.Errorf("expected geofence_entry, got %s", alert.Event)
	}
	if alert.GeofenceID != "a" || alert.GeofenceName != "fence-a" {
		t.Errorf("unexpected geofence in alert: %s/%s", alert.GeofenceID, alert.GeofenceName)
	}
}

func TestCheckAndAlert_OutsideGeofence(t *testing.T) {
	pub := &mockAlertPublisher{}
	svc := newLoadedGeofenceService(t, pub, circleFence("a", 50))

	err := svc.CheckAndAlert(context.Background(), sampleAtMonas(domain.GeoPoint{Lat: -7.0, Lng: 107.0}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.geofenceCalls) != 0 {
		t.Fatalf("expected 0 alerts, got %d", len(pub.geofenceCalls))
	}
}

func TestCheckAndAlert_EntryThenExit(t *testing.T) {
	pub := &mockAlertPublisher{}
	svc := newLoadedGeofenceService(t, pub, circleFence("a", 50))
	ctx := context.Background()

	path := []domain.GeoPoint{monas, monas, {Lat: -6.2100, Lng: 106.8456}, {Lat: -6.2100, Lng: 106.8456}}
	for _, p := range path {
		if err := svc.CheckAndAlert(ctx, sampleAtMonas(p)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(pub.geofenceCalls) != 2 {
		t.Fatalf("expected entry and exit only, got %d alerts", len(pub.geofenceCalls))
	}
	if pub.geofenceCalls[0].Event != domain.GeofenceEntry || pub.geofenceCalls[1].Event != domain.GeofenceExit {
		t.Errorf("unexpected events: %s, %s", pub.geofenceCalls[0].Event, pub.geofenceCalls[1].Event)
	}
}

func TestCheckAndAlert_RespectsFlags(t *testing.T) {
	exitOnly := circleFence("exit-only", 50)
	exitOnly.AlertOnEnter = false
	inactive := circleFence("inactive", 500)
	inactive.IsActive = false

	pub := &mockAlertPublisher{}
	svc := newLoadedGeofenceService(t, pub, exitOnly, inactive)
	ctx := context.Background()

	_ = svc.CheckAndAlert(ctx, sampleAtMonas(monas))
	if len(pub.geofenceCalls) != 0 {
		t.Fatalf("expected no entry alert, got %d", len(pub.geofenceCalls))
	}

	_ = svc.CheckAndAlert(ctx, sampleAtMonas(domain.GeoPoint{Lat: -7.0, Lng: 107.0}))
	if len(pub.geofenceCalls) != 1 || pub.geofenceCalls[0].GeofenceID != "exit-only" {
		t.Fatalf("expected a single exit alert from exit-only, got %d", len(pub.geofenceCalls))
	}
}

func TestCheckAndAlert_MultipleGeofences(t *testing.T) {
	far := circleFence("far", 50)
	far.Shape = domain.Circle{Center: domain.GeoPoint{Lat: -7.0, Lng: 107.0}, RadiusMeters: 50}
	square := domain.Geofence{
		ID:   "square",
		Name: "square",
		Shape: domain.Polygon{Vertices: []domain.GeoPoint{
			{Lat: -6.21, Lng: 106.84},
			{Lat: -6.21, Lng: 106.85},
			{Lat: -6.20, Lng: 106.85},
			{Lat: -6.20, Lng: 106.84},
		}},
		IsActive:     true,
		AlertOnEnter: true,
	}

	pub := &mockAlertPublisher{}
	svc := newLoadedGeofenceService(t, pub, circleFence("a", 50), circleFence("b", 100), far, square)

	if err := svc.CheckAndAlert(context.Background(), sampleAtMonas(monas)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.geofenceCalls) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(pub.geofenceCalls))
	}
}

func TestCheckAndAlert_PublishErrorRetries(t *testing.T) {
	fail := true
	pub := &mockAlertPublisher{
		publishGeofenceFn: func(_ context.Context, _ *domain.GeofenceAlert) error {
			if fail {
				return errors.New("rabbitmq down")
			}
			return nil
		},
	}
	svc := newLoadedGeofenceService(t, pub, circleFence("a", 50))
	ctx := context.Background()

	if err := svc.CheckAndAlert(ctx, sampleAtMonas(monas)); err == nil {
		t.Fatal("expected error")
	}

	fail = false
	if err := svc.CheckAndAlert(ctx, sampleAtMonas(monas)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.geofenceCalls) != 2 {
		t.Fatalf("expected the entry to be retried, got %d calls", len(pub.geofenceCalls))
	}
}

func TestCheckAndAlert_NoGeofences(t *testing.T) {
	pub := &mockAlertPublisher{}
	svc := newLoadedGeofenceService(t, pub)

	if err := svc.CheckAndAlert(context.Background(), sampleAtMonas(monas)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.geofenceCalls) != 0 {
		t.Fatalf("expected 0 alerts, got %d", len(pub.geofenceCalls))
	}
}

func TestGeofenceCreate(t *testing.T) {
	var created *domain.Geofence
	repo := staticGeofences()
	repo.createFn = func(_ context.Context, g *domain.Geofence) error {
		created = g
		return nil
	}
	svc := NewGeofenceService(repo, &mockAlertPublisher{})
	svc.now = func() time.Time { return time.Unix(1715003456, 0) }

	g := &domain.Geofence{Name: "depot", Shape: domain.Circle{Center: monas, RadiusMeters: 30}, IsActive: true}
	if err := svc.Create(context.Background(), g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil || created.ID == "" {
		t.Fatal("expected repo Create with a generated ID")
	}
	if !created.CreatedAt.Equal(time.Unix(1715003456, 0)) {
		t.Errorf("unexpected CreatedAt %v", created.CreatedAt)
	}
}

func TestGeofenceCreate_Invalid(t *testing.T) {
	svc := NewGeofenceService(staticGeofences(), &mockAlertPublisher{})

	tests := []struct {
		name string
		g    *domain.Geofence
	}{
		{"missing name", &domain.Geofence{Shape: domain.Circle{Center: monas, RadiusMeters: 30}}},
		{"missing shape", &domain.Geofence{Name: "x"}},
		{"zero radius", &domain.Geofence{Name: "x", Shape: domain.Circle{Center: monas}}},
		{"two vertex polygon", &domain.Geofence{Name: "x", Shape: domain.Polygon{Vertices: []domain.GeoPoint{monas, monas}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Create(context.Background(), tt.g)
			if !errors.Is(err, domain.ErrInvalidGeofence) {
				t.Errorf("expected ErrInvalidGeofence, got %v", err)
			}
		})
	}
}

func TestGeofenceSetActive_ResetsPresence(t *testing.T) {
	active := true
	fence := circleFence("a", 50)
	repo := &mockGeofenceRepo{
		listFn: func(_ context.Context) ([]domain.Geofence, error) {
			f := fence
			f.IsActive = active
			return []domain.Geofence{f}, nil
		},
		setActiveFn: func(_ context.Context, id string, a bool) error {
			active = a
			return nil
		},
	}
	pub := &mockAlertPublisher{}
	svc := NewGeofenceService(repo, pub)
	ctx := context.Background()
	_ = svc.Reload(ctx)

	_ = svc.CheckAndAlert(ctx, sampleAtMonas(monas))
	if err := svc.SetActive(ctx, "a", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = svc.CheckAndAlert(ctx, sampleAtMonas(monas))
	if len(pub.geofenceCalls) != 1 {
		t.Fatalf("inactive geofence must stay silent, got %d alerts", len(pub.geofenceCalls))
	}

	_ = svc.SetActive(ctx, "a", true)
	_ = svc.CheckAndAlert(ctx, sampleAtMonas(monas))
	if len(pub.geofenceCalls) != 2 || pub.geofenceCalls[1].Event != domain.GeofenceEntry {
		t.Fatalf("expected a fresh entry after reactivation, got %d alerts", len(pub.geofenceCalls))
	}
}
