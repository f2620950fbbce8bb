package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"smartpark/backend/services/parking-service/internal/models"
	"smartpark/backend/services/parking-service/internal/repository"
)

// VehicleRegistry owns vehicle records and their session fields.
type VehicleRegistry struct {
	mu     sync.Mutex
	store  repository.VehicleStore
	clock  Clock
	logger *zap.Logger
}

// NewVehicleRegistry builds registry over the given store.
func NewVehicleRegistry(store repository.VehicleStore, clock Clock, logger *zap.Logger) *VehicleRegistry {
	return &VehicleRegistry{store: store, clock: clock, logger: logger}
}

// Register creates an unparked vehicle.
func (r *VehicleRegistry) Register(ctx context.Context, input VehicleInput) (*models.Vehicle, error) {
	input, vType, err := input.Normalize()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.store.GetVehicle(ctx, input.LicensePlate); err == nil {
		return nil, fmt.Errorf("%w: vehicle %s", ErrAlreadyExists, input.LicensePlate)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := r.clock.Now()
	vehicle := &models.Vehicle{
		LicensePlate: input.LicensePlate,
		Type:         vType,
		OwnerName:    input.OwnerName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.store.PutVehicle(ctx, vehicle); err != nil {
		return nil, err
	}

	r.logger.Info("vehicle registered",
		zap.String("license_plate", vehicle.LicensePlate),
		zap.String("type", string(vehicle.Type)),
	)
	return vehicle, nil
}

// Get returns the vehicle or ErrNotFound.
func (r *VehicleRegistry) Get(ctx context.Context, licensePlate string) (*models.Vehicle, error) {
	vehicle, err := r.store.GetVehicle(ctx, licensePlate)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, licensePlate)
		}
		return nil, err
	}
	return vehicle, nil
}

// SetSession replaces the three session fields of a vehicle in a single store write.
func (r *VehicleRegistry) SetSession(ctx context.Context, licensePlate string, session models.SessionState) (*models.Vehicle, error) {
	if !session.Coherent() {
		return nil, invalidArgument("incoherent session state for vehicle %s", licensePlate)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	vehicle, err := r.Get(ctx, licensePlate)
	if err != nil {
		return nil, err
	}
	vehicle.ApplySession(session)
	vehicle.UpdatedAt = r.clock.Now()
	if err := r.store.PutVehicle(ctx, vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// List returns every vehicle at call time.
func (r *VehicleRegistry) List(ctx context.Context) ([]models.Vehicle, error) {
	return r.store.ListVehicles(ctx)
}

// ListParked returns vehicles currently parked in lotID.
func (r *VehicleRegistry) ListParked(ctx context.Context, lotID string) ([]models.Vehicle, error) {
	return r.filter(ctx, func(v *models.Vehicle) bool {
		return v.IsParked() && v.LotID() == lotID
	})
}

// ListOverstayed returns parked vehicles that checked in before cutoff.
func (r *VehicleRegistry) ListOverstayed(ctx context.Context, cutoff time.Time) ([]models.Vehicle, error) {
	return r.filter(ctx, func(v *models.Vehicle) bool {
		return overstayed(v, cutoff)
	})
}

func (r *VehicleRegistry) filter(ctx context.Context, keep func(*models.Vehicle) bool) ([]models.Vehicle, error) {
	all, err := r.store.ListVehicles(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]models.Vehicle, 0, len(all))
	for i := range all {
		if keep(&all[i]) {
			result = append(result, all[i])
		}
	}
	return result, nil
}

func overstayed(v *models.Vehicle, cutoff time.Time) bool {
	return v.IsParked() && v.CheckInTime.Before(cutoff)
}
