package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS parking_lots (
		lot_id VARCHAR(50) PRIMARY KEY,
		location TEXT NOT NULL,
		capacity INTEGER NOT NULL CHECK (capacity >= 1),
		occupied_spaces INTEGER NOT NULL DEFAULT 0,
		cost_per_minute NUMERIC(10, 2) NOT NULL CHECK (cost_per_minute > 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT parking_lots_occupancy_bounds CHECK (occupied_spaces >= 0 AND occupied_spaces <= capacity)
	)`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		license_plate VARCHAR(50) PRIMARY KEY,
		type VARCHAR(16) NOT NULL,
		owner_name TEXT NOT NULL,
		current_lot_id VARCHAR(50) REFERENCES parking_lots (lot_id),
		check_in_time TIMESTAMPTZ,
		check_out_time TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT vehicles_session_coherent CHECK ((current_lot_id IS NULL) = (check_in_time IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS vehicles_current_lot_idx ON vehicles (current_lot_id) WHERE current_lot_id IS NOT NULL`,
}

// EnsureSchema creates the tables used by the Postgres stores when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return tx.Commit()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
