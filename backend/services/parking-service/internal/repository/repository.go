package repository

import (
	"context"
	"errors"

	"smartpark/backend/services/parking-service/internal/models"
)

// ErrNotFound indicates a missing row.
var ErrNotFound = errors.New("record not found")

// LotStore persists parking lots keyed by lot id.
type LotStore interface {
	GetLot(ctx context.Context, lotID string) (*models.ParkingLot, error)
	PutLot(ctx context.Context, lot *models.ParkingLot) error
	ListLots(ctx context.Context) ([]models.ParkingLot, error)
}

// VehicleStore persists vehicles keyed by license plate.
type VehicleStore interface {
	GetVehicle(ctx context.Context, licensePlate string) (*models.Vehicle, error)
	PutVehicle(ctx context.Context, vehicle *models.Vehicle) error
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)
}
