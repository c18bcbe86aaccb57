package db

import (
	"context"
	"fmt"
)

// migrations are applied in order. Each statement is idempotent so Migrate
// can run on every start.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS waypoints (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		lat          DOUBLE PRECISION NOT NULL CHECK (lat BETWEEN -90 AND 90),
		lon          DOUBLE PRECISION NOT NULL CHECK (lon BETWEEN -180 AND 180),
		display_name TEXT,
		notes        TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_waypoints_created_at ON waypoints (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS routes (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		waypoint_ids TEXT[] NOT NULL DEFAULT '{}',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_routes_waypoint_ids ON routes USING GIN (waypoint_ids)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, db DBTX) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
