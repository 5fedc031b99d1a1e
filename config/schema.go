package config

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS vehicle_locations (
		vehicle_id TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		speed DOUBLE PRECISION NOT NULL DEFAULT 0,
		timestamp TIMESTAMPTZ NOT NULL,
		ignition BOOLEAN,
		blocked BOOLEAN,
		alarm_code TEXT,
		offline BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS vehicle_locations_vehicle_ts_key ON vehicle_locations (vehicle_id, timestamp)`,
	`CREATE TABLE IF NOT EXISTS geofences (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		shape JSONB NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		alert_on_enter BOOLEAN NOT NULL DEFAULT FALSE,
		alert_on_exit BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS missions (
		id TEXT PRIMARY KEY,
		vehicle_id TEXT NOT NULL,
		route JSONB NOT NULL,
		speed_segments JSONB NOT NULL DEFAULT '[]',
		corridor_width_meters DOUBLE PRECISION NOT NULL,
		max_speed_kmh DOUBLE PRECISION NOT NULL DEFAULT 0,
		destination_lat DOUBLE PRECISION NOT NULL,
		destination_lng DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS missions_one_active ON missions (vehicle_id) WHERE status = 'active'`,
}

// EnsureSchema creates the tables the repositories use when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
