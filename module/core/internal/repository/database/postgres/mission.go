package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
	"github.com/nandanugg/fleet-navigator/module/core/internal/geoshape"
	"github.com/nandanugg/fleet-navigator/module/core/internal/repository/database"
)

var _ database.MissionRepository = (*MissionRepo)(nil)

const missionColumns = `id, vehicle_id, route, speed_segments, corridor_width_meters, max_speed_kmh, destination_lat, destination_lng, status, created_at, completed_at`

// MissionRepo keeps the route as a GeoJSON LineString and the speed
// segments as a JSON array.
type MissionRepo struct {
	db *sql.DB
}

func NewMissionRepo(db *sql.DB) *MissionRepo {
	return &MissionRepo{db: db}
}

func (r *MissionRepo) Create(ctx context.Context, m *domain.Mission) error {
	route, err := geoshape.MarshalPolyline(m.Route)
	if err != nil {
		return fmt.Errorf("encode route: %w", err)
	}
	segments, err := json.Marshal(m.SpeedSegments)
	if err != nil {
		return fmt.Errorf("encode speed segments: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO missions (`+missionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.VehicleID, route, segments, m.CorridorWidthMeters, m.MaxSpeedKmh,
		m.Destination.Lat, m.Destination.Lng, string(m.Status), m.CreatedAt, m.CompletedAt,
	)
	return err
}

func (r *MissionRepo) Get(ctx context.Context, id string) (*domain.Mission, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+missionColumns+` FROM missions WHERE id = $1`,
		id,
	)
	return scanMissionRow(row)
}

func (r *MissionRepo) GetActiveByVehicle(ctx context.Context, vehicleID string) (*domain.Mission, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+missionColumns+` FROM missions WHERE vehicle_id = $1 AND status = 'active' ORDER BY created_at DESC LIMIT 1`,
		vehicleID,
	)
	return scanMissionRow(row)
}

func (r *MissionRepo) Complete(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE missions SET status = 'completed', completed_at = $2 WHERE id = $1 AND status = 'active'`,
		id, at,
	)
	return expectOne(res, err, domain.ErrMissionNotFound)
}

func scanMissionRow(row scanner) (*domain.Mission, error) {
	m, err := scanMission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMissionNotFound
	}
	return m, err
}

func scanMission(row scanner) (*domain.Mission, error) {
	var (
		m         domain.Mission
		route     []byte
		segments  []byte
		status    string
		completed sql.NullTime
	)
	err := row.Scan(&m.ID, &m.VehicleID, &route, &segments, &m.CorridorWidthMeters, &m.MaxSpeedKmh,
		&m.Destination.Lat, &m.Destination.Lng, &status, &m.CreatedAt, &completed)
	if err != nil {
		return nil, err
	}
	m.Status = domain.MissionStatus(status)
	if completed.Valid {
		m.CompletedAt = &completed.Time
	}
	if m.Route, err = geoshape.UnmarshalPolyline(route); err != nil {
		return nil, fmt.Errorf("mission %s route: %w", m.ID, err)
	}
	if len(segments) > 0 {
		if err := json.Unmarshal(segments, &m.SpeedSegments); err != nil {
			return nil, fmt.Errorf("mission %s speed segments: %w", m.ID, err)
		}
	}
	return &m, nil
}
