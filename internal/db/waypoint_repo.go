package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"ridewise/internal/types"
)

// DefaultListLimit bounds list queries when the caller passes no limit.
const DefaultListLimit = 100

// WaypointRepository provides data access for the waypoints table.
type WaypointRepository struct {
	db DBTX
}

// NewWaypointRepository creates a repository backed by a pool or transaction.
func NewWaypointRepository(db DBTX) *WaypointRepository {
	return &WaypointRepository{db: db}
}

const waypointColumns = `id, name, lat, lon, display_name, notes, created_at, updated_at`

// scanWaypoint reads one row in waypointColumns order. pgx.Rows satisfies
// pgx.Row so this serves both QueryRow and Query.
func scanWaypoint(row pgx.Row) (*types.Waypoint, error) {
	var wp types.Waypoint
	var displayName, notes *string

	err := row.Scan(
		&wp.ID,
		&wp.Name,
		&wp.Location.Lat,
		&wp.Location.Lon,
		&displayName,
		&notes,
		&wp.CreatedAt,
		&wp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if displayName != nil {
		wp.Location.DisplayName = *displayName
	}
	if notes != nil {
		wp.Notes = *notes
	}
	return &wp, nil
}

// Create inserts a waypoint. ID and timestamps are set by the caller.
func (r *WaypointRepository) Create(ctx context.Context, wp *types.Waypoint) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO waypoints (`+waypointColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		wp.ID,
		wp.Name,
		wp.Location.Lat,
		wp.Location.Lon,
		nullableString(wp.Location.DisplayName),
		nullableString(wp.Notes),
		wp.CreatedAt,
		wp.UpdatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create waypoint", err)
	}
	return nil
}

// GetByID returns a waypoint or not_found_waypoint.
func (r *WaypointRepository) GetByID(ctx context.Context, id string) (*types.Waypoint, error) {
	row := r.db.QueryRow(ctx, `SELECT `+waypointColumns+` FROM waypoints WHERE id = $1`, id)
	wp, err := scanWaypoint(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundWaypoint, "waypoint not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve waypoint", err)
	}
	return wp, nil
}

// GetByIDs returns the waypoints whose IDs appear in ids, keyed by ID.
// Missing IDs are simply absent from the map.
func (r *WaypointRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*types.Waypoint, error) {
	out := make(map[string]*types.Waypoint, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, `SELECT `+waypointColumns+` FROM waypoints WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve waypoints", err)
	}
	defer rows.Close()

	for rows.Next() {
		wp, err := scanWaypoint(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan waypoint", err)
		}
		out[wp.ID] = wp
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate waypoints", err)
	}
	return out, nil
}

// List returns waypoints newest first.
func (r *WaypointRepository) List(ctx context.Context, limit int) ([]*types.Waypoint, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+waypointColumns+` FROM waypoints
		ORDER BY created_at DESC, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list waypoints", err)
	}
	defer rows.Close()

	out := []*types.Waypoint{}
	for rows.Next() {
		wp, err := scanWaypoint(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan waypoint", err)
		}
		out = append(out, wp)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate waypoints", err)
	}
	return out, nil
}

// Update overwrites the mutable fields of a waypoint.
func (r *WaypointRepository) Update(ctx context.Context, wp *types.Waypoint) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE waypoints
		SET name = $2, lat = $3, lon = $4, display_name = $5, notes = $6, updated_at = $7
		WHERE id = $1`,
		wp.ID,
		wp.Name,
		wp.Location.Lat,
		wp.Location.Lon,
		nullableString(wp.Location.DisplayName),
		nullableString(wp.Notes),
		wp.UpdatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update waypoint", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundWaypoint, "waypoint not found", nil)
	}
	return nil
}

// Delete removes a waypoint. Callers check route references first.
func (r *WaypointRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM waypoints WHERE id = $1`, id)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete waypoint", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundWaypoint, "waypoint not found", nil)
	}
	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
