package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
	"github.com/nandanugg/fleet-navigator/module/core/internal/geoshape"
	"github.com/nandanugg/fleet-navigator/module/core/internal/repository/database"
)

var _ database.GeofenceRepository = (*GeofenceRepo)(nil)

const geofenceColumns = `id, name, shape, is_active, alert_on_enter, alert_on_exit, created_at, updated_at`

// GeofenceRepo stores each shape as a GeoJSON feature in a jsonb column.
type GeofenceRepo struct {
	db *sql.DB
}

func NewGeofenceRepo(db *sql.DB) *GeofenceRepo {
	return &GeofenceRepo{db: db}
}

func (r *GeofenceRepo) Create(ctx context.Context, g *domain.Geofence) error {
	shape, err := geoshape.MarshalShape(g.Shape)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO geofences (`+geofenceColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		g.ID, g.Name, shape, g.IsActive, g.AlertOnEnter, g.AlertOnExit, g.CreatedAt, g.UpdatedAt,
	)
	return err
}

func (r *GeofenceRepo) Update(ctx context.Context, g *domain.Geofence) error {
	shape, err := geoshape.MarshalShape(g.Shape)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE geofences SET name = $2, shape = $3, is_active = $4, alert_on_enter = $5, alert_on_exit = $6, updated_at = $7 WHERE id = $1`,
		g.ID, g.Name, shape, g.IsActive, g.AlertOnEnter, g.AlertOnExit, g.UpdatedAt,
	)
	return expectOne(res, err, domain.ErrGeofenceNotFound)
}

func (r *GeofenceRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE geofences SET is_active = $2, updated_at = now() WHERE id = $1`,
		id, active,
	)
	return expectOne(res, err, domain.ErrGeofenceNotFound)
}

func (r *GeofenceRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM geofences WHERE id = $1`, id)
	return expectOne(res, err, domain.ErrGeofenceNotFound)
}

func (r *GeofenceRepo) Get(ctx context.Context, id string) (*domain.Geofence, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+geofenceColumns+` FROM geofences WHERE id = $1`,
		id,
	)
	g, err := scanGeofence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrGeofenceNotFound
	}
	return g, err
}

func (r *GeofenceRepo) List(ctx context.Context) ([]domain.Geofence, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+geofenceColumns+` FROM geofences ORDER BY created_at`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Geofence
	for rows.Next() {
		g, err := scanGeofence(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *g)
	}
	return results, rows.Err()
}

func scanGeofence(row scanner) (*domain.Geofence, error) {
	var (
		g     domain.Geofence
		shape []byte
	)
	err := row.Scan(&g.ID, &g.Name, &shape, &g.IsActive, &g.AlertOnEnter, &g.AlertOnExit, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.Shape, err = geoshape.UnmarshalShape(shape)
	if err != nil {
		return nil, fmt.Errorf("geofence %s: %w", g.ID, err)
	}
	return &g, nil
}

func expectOne(res sql.Result, err error, notFound error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
