package repository

import (
	"context"
	"database/sql"
	"errors"

	"smartpark/backend/services/parking-service/internal/models"
)

// LotRepository stores parking lots in Postgres.
type LotRepository struct {
	db *sql.DB
}

// NewLotRepository returns repository.
func NewLotRepository(db *sql.DB) *LotRepository {
	return &LotRepository{db: db}
}

// GetLot fetches one lot by id.
func (r *LotRepository) GetLot(ctx context.Context, lotID string) (*models.ParkingLot, error) {
	const query = `
		SELECT lot_id, location, capacity, occupied_spaces, cost_per_minute, created_at, updated_at
		FROM parking_lots
		WHERE lot_id = $1
	`
	var lot models.ParkingLot
	err := r.db.QueryRowContext(ctx, query, lotID).Scan(
		&lot.LotID,
		&lot.Location,
		&lot.Capacity,
		&lot.OccupiedSpaces,
		&lot.CostPerMinute,
		&lot.CreatedAt,
		&lot.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lot, nil
}

// PutLot inserts the lot or overwrites its mutable columns. Capacity and rate are
// fixed at creation and never updated here.
func (r *LotRepository) PutLot(ctx context.Context, lot *models.ParkingLot) error {
	const query = `
		INSERT INTO parking_lots (lot_id, location, capacity, occupied_spaces, cost_per_minute, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (lot_id) DO UPDATE SET
			location = EXCLUDED.location,
			occupied_spaces = EXCLUDED.occupied_spaces,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		lot.LotID,
		lot.Location,
		lot.Capacity,
		lot.OccupiedSpaces,
		lot.CostPerMinute,
	).Scan(&lot.CreatedAt, &lot.UpdatedAt)
}

// ListLots returns all lots ordered by id.
func (r *LotRepository) ListLots(ctx context.Context) ([]models.ParkingLot, error) {
	const query = `
		SELECT lot_id, location, capacity, occupied_spaces, cost_per_minute, created_at, updated_at
		FROM parking_lots
		ORDER BY lot_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lots := []models.ParkingLot{}
	for rows.Next() {
		var lot models.ParkingLot
		if err := rows.Scan(
			&lot.LotID,
			&lot.Location,
			&lot.Capacity,
			&lot.OccupiedSpaces,
			&lot.CostPerMinute,
			&lot.CreatedAt,
			&lot.UpdatedAt,
		); err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lots, nil
}
