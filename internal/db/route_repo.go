package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"ridewise/internal/types"
)

// RouteRepository provides data access for the routes table. Only the stored
// columns are read and written; hydrated fields are left to the service.
type RouteRepository struct {
	db DBTX
}

// NewRouteRepository creates a repository backed by a pool or transaction.
func NewRouteRepository(db DBTX) *RouteRepository {
	return &RouteRepository{db: db}
}

const routeColumns = `id, name, waypoint_ids, created_at, updated_at`

func scanRoute(row pgx.Row) (*types.Route, error) {
	var rt types.Route
	if err := row.Scan(&rt.ID, &rt.Name, &rt.WaypointIDs, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		return nil, err
	}
	if rt.WaypointIDs == nil {
		rt.WaypointIDs = []string{}
	}
	return &rt, nil
}

// Create inserts a route.
func (r *RouteRepository) Create(ctx context.Context, rt *types.Route) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO routes (`+routeColumns+`)
		VALUES ($1, $2, $3, $4, $5)`,
		rt.ID, rt.Name, rt.WaypointIDs, rt.CreatedAt, rt.UpdatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create route", err)
	}
	return nil
}

// GetByID returns a route or not_found_route.
func (r *RouteRepository) GetByID(ctx context.Context, id string) (*types.Route, error) {
	rt, err := scanRoute(r.db.QueryRow(ctx, `SELECT `+routeColumns+` FROM routes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundRoute, "route not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve route", err)
	}
	return rt, nil
}

// List returns routes newest first.
func (r *RouteRepository) List(ctx context.Context, limit int) ([]*types.Route, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+routeColumns+` FROM routes
		ORDER BY created_at DESC, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list routes", err)
	}
	defer rows.Close()

	out := []*types.Route{}
	for rows.Next() {
		rt, err := scanRoute(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan route", err)
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate routes", err)
	}
	return out, nil
}

// Update overwrites the route name and stop list.
func (r *RouteRepository) Update(ctx context.Context, rt *types.Route) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE routes SET name = $2, waypoint_ids = $3, updated_at = $4
		WHERE id = $1`,
		rt.ID, rt.Name, rt.WaypointIDs, rt.UpdatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update route", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundRoute, "route not found", nil)
	}
	return nil
}

// Delete removes a route.
func (r *RouteRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM routes WHERE id = $1`, id)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete route", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundRoute, "route not found", nil)
	}
	return nil
}

// CountReferencing returns how many routes include waypointID.
func (r *RouteRepository) CountReferencing(ctx context.Context, waypointID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM routes WHERE $1 = ANY(waypoint_ids)`, waypointID).Scan(&n)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to check route references", err)
	}
	return n, nil
}
