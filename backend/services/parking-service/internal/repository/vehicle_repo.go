package repository

import (
	"context"
	"database/sql"
	"errors"

	"smartpark/backend/services/parking-service/internal/models"
)

// VehicleRepository stores vehicles and their session columns in Postgres.
type VehicleRepository struct {
	db *sql.DB
}

// NewVehicleRepository returns repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

const vehicleColumns = `license_plate, type, owner_name, current_lot_id, check_in_time, check_out_time, created_at, updated_at`

// GetVehicle fetches one vehicle by plate.
func (r *VehicleRepository) GetVehicle(ctx context.Context, licensePlate string) (*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE license_plate = $1`
	v, err := scanVehicle(r.db.QueryRowContext(ctx, query, licensePlate))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

// PutVehicle inserts the vehicle or overwrites owner and all session columns in one statement.
func (r *VehicleRepository) PutVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	const query = `
		INSERT INTO vehicles (license_plate, type, owner_name, current_lot_id, check_in_time, check_out_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (license_plate) DO UPDATE SET
			owner_name = EXCLUDED.owner_name,
			current_lot_id = EXCLUDED.current_lot_id,
			check_in_time = EXCLUDED.check_in_time,
			check_out_time = EXCLUDED.check_out_time,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		vehicle.LicensePlate,
		string(vehicle.Type),
		vehicle.OwnerName,
		nullString(vehicle.CurrentLotID),
		nullTime(vehicle.CheckInTime),
		nullTime(vehicle.CheckOutTime),
	).Scan(&vehicle.CreatedAt, &vehicle.UpdatedAt)
}

// ListVehicles returns all vehicles ordered by plate.
func (r *VehicleRepository) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY license_plate`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicles := []models.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vehicles, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (*models.Vehicle, error) {
	var (
		v        models.Vehicle
		vType    string
		lotID    sql.NullString
		checkIn  sql.NullTime
		checkOut sql.NullTime
	)
	if err := row.Scan(
		&v.LicensePlate,
		&vType,
		&v.OwnerName,
		&lotID,
		&checkIn,
		&checkOut,
		&v.CreatedAt,
		&v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	v.Type = models.VehicleType(vType)
	if lotID.Valid {
		v.CurrentLotID = &lotID.String
	}
	if checkIn.Valid {
		t := checkIn.Time.UTC()
		v.CheckInTime = &t
	}
	if checkOut.Valid {
		t := checkOut.Time.UTC()
		v.CheckOutTime = &t
	}
	return &v, nil
}
