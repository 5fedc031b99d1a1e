package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
	"github.com/nandanugg/fleet-navigator/module/core/internal/repository/database"
)

var _ database.LocationRepository = (*LocationRepo)(nil)

const sampleColumns = `vehicle_id, latitude, longitude, speed, timestamp, ignition, blocked, alarm_code, offline`

type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

func (r *LocationRepo) Insert(ctx context.Context, s *domain.VehicleSample) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vehicle_locations (`+sampleColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT (vehicle_id, timestamp) DO NOTHING`,
		s.VehicleID, s.Position.Lat, s.Position.Lng, s.SpeedKmh, s.Timestamp,
		nullBool(s.IgnitionOn), nullBool(s.Blocked), nullString(s.AlarmCode), s.FeedOffline,
	)
	return err
}

func (r *LocationRepo) GetLatest(ctx context.Context, vehicleID string) (*domain.VehicleSample, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sampleColumns+` FROM vehicle_locations WHERE vehicle_id = $1 ORDER BY timestamp DESC LIMIT 1`,
		vehicleID,
	)

	s, err := scanSample(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrVehicleNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *LocationRepo) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehicleSample, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sampleColumns+` FROM vehicle_locations WHERE vehicle_id = $1 AND timestamp >= $2 AND timestamp <= $3 ORDER BY timestamp ASC`,
		query.VehicleID, query.Start, query.End,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.VehicleSample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *s)
	}
	return results, rows.Err()
}

func (r *LocationRepo) GetAllVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT vehicle_id FROM vehicle_locations ORDER BY vehicle_id`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.VehicleID); err != nil {
			return nil, err
		}
		results = append(results, v)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSample(row scanner) (*domain.VehicleSample, error) {
	var (
		s        domain.VehicleSample
		ignition sql.NullBool
		blocked  sql.NullBool
		alarm    sql.NullString
	)
	err := row.Scan(&s.VehicleID, &s.Position.Lat, &s.Position.Lng, &s.SpeedKmh, &s.Timestamp,
		&ignition, &blocked, &alarm, &s.FeedOffline)
	if err != nil {
		return nil, err
	}
	if ignition.Valid {
		s.IgnitionOn = &ignition.Bool
	}
	if blocked.Valid {
		s.Blocked = &blocked.Bool
	}
	if alarm.Valid {
		s.AlarmCode = &alarm.String
	}
	return &s, nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
