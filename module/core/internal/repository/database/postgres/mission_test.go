package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
)

var missionCols = []string{
	"id", "vehicle_id", "route", "speed_segments", "corridor_width_meters", "max_speed_kmh",
	"destination_lat", "destination_lng", "status", "created_at", "completed_at",
}

const routeJSON = `{"type":"LineString","coordinates":[[106.80,-6.20],[106.81,-6.20],[106.82,-6.21]]}`

const segmentsJSON = `[{"start_index":0,"end_index":1,"max_speed":40,"road_name":"Jl. Sudirman"},{"start_index":1,"end_index":2,"max_speed":60}]`

func TestMissionCreate_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	now := time.Unix(1715003456, 0)
	mock.ExpectExec(`INSERT INTO missions`).
		WithArgs("m-1", "B1234XYZ", sqlmock.AnyArg(), sqlmock.AnyArg(), 50.0, 80.0, -6.21, 106.82, "active", now, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewMissionRepo(db)
	err = repo.Create(context.Background(), &domain.Mission{
		ID:                  "m-1",
		VehicleID:           "B1234XYZ",
		Route:               domain.Polyline{{Lat: -6.20, Lng: 106.80}, {Lat: -6.21, Lng: 106.82}},
		CorridorWidthMeters: 50,
		MaxSpeedKmh:         80,
		Destination:         domain.GeoPoint{Lat: -6.21, Lng: 106.82},
		Status:              domain.MissionActive,
		CreatedAt:           now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestMissionGet_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	now := time.Unix(1715003456, 0)
	mock.ExpectQuery(`SELECT (.+) FROM missions WHERE id = (.+)`).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows(missionCols).
			AddRow("m-1", "B1234XYZ", []byte(routeJSON), []byte(segmentsJSON), 50.0, 0.0, -6.21, 106.82, "active", now, nil))

	repo := NewMissionRepo(db)
	m, err := repo.Get(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Route) != 3 {
		t.Fatalf("expected 3 route points, got %d", len(m.Route))
	}
	if m.Route[0] != (domain.GeoPoint{Lat: -6.20, Lng: 106.80}) {
		t.Errorf("unexpected first point %+v", m.Route[0])
	}
	if len(m.SpeedSegments) != 2 || *m.SpeedSegments[0].RoadName != "Jl. Sudirman" {
		t.Errorf("unexpected segments %+v", m.SpeedSegments)
	}
	if m.SpeedSegments[1].RoadName != nil {
		t.Error("expected unnamed second segment")
	}
	if m.Status != domain.MissionActive || m.CompletedAt != nil {
		t.Errorf("expected active mission, got %s / %v", m.Status, m.CompletedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestMissionGetActiveByVehicle_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT (.+) FROM missions WHERE vehicle_id = (.+) AND status = 'active'`).
		WithArgs("B1234XYZ").
		WillReturnRows(sqlmock.NewRows(missionCols))

	repo := NewMissionRepo(db)
	_, err = repo.GetActiveByVehicle(context.Background(), "B1234XYZ")
	if !errors.Is(err, domain.ErrMissionNotFound) {
		t.Fatalf("expected ErrMissionNotFound, got %v", err)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("mission not found should match ErrNotFound")
	}
}

func TestMissionComplete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	at := time.Unix(1715009999, 0)
	mock.ExpectExec(`UPDATE missions SET status = 'completed'`).
		WithArgs("m-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE missions SET status = 'completed'`).
		WithArgs("m-1", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewMissionRepo(db)
	if err := repo.Complete(context.Background(), "m-1", at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Complete(context.Background(), "m-1", at); !errors.Is(err, domain.ErrMissionNotFound) {
		t.Fatalf("expected ErrMissionNotFound on second completion, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestMissionGet_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT (.+) FROM missions`).
		WithArgs("m-1").
		WillReturnError(sqlmock.ErrCancelled)

	repo := NewMissionRepo(db)
	if _, err := repo.Get(context.Background(), "m-1"); err == nil {
		t.Fatal("expected error")
	}
}
