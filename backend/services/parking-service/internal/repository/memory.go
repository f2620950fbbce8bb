package repository

import (
	"context"
	"sort"
	"sync"

	"smartpark/backend/services/parking-service/internal/models"
)

// MemoryLotStore keeps lots in process memory. Values are copied on the way in and out.
type MemoryLotStore struct {
	mu   sync.RWMutex
	lots map[string]models.ParkingLot
}

// NewMemoryLotStore returns an empty store.
func NewMemoryLotStore() *MemoryLotStore {
	return &MemoryLotStore{lots: make(map[string]models.ParkingLot)}
}

// GetLot returns a copy of the lot.
func (s *MemoryLotStore) GetLot(_ context.Context, lotID string) (*models.ParkingLot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lot, ok := s.lots[lotID]
	if !ok {
		return nil, ErrNotFound
	}
	return &lot, nil
}

// PutLot inserts or replaces the lot.
func (s *MemoryLotStore) PutLot(_ context.Context, lot *models.ParkingLot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots[lot.LotID] = *lot
	return nil
}

// ListLots returns a snapshot ordered by lot id.
func (s *MemoryLotStore) ListLots(_ context.Context) ([]models.ParkingLot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.ParkingLot, 0, len(s.lots))
	for _, lot := range s.lots {
		result = append(result, lot)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LotID < result[j].LotID })
	return result, nil
}

// MemoryVehicleStore keeps vehicles in process memory with deep copies.
type MemoryVehicleStore struct {
	mu       sync.RWMutex
	vehicles map[string]*models.Vehicle
}

// NewMemoryVehicleStore returns an empty store.
func NewMemoryVehicleStore() *MemoryVehicleStore {
	return &MemoryVehicleStore{vehicles: make(map[string]*models.Vehicle)}
}

// GetVehicle returns a copy of the vehicle.
func (s *MemoryVehicleStore) GetVehicle(_ context.Context, licensePlate string) (*models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[licensePlate]
	if !ok {
		return nil, ErrNotFound
	}
	return v.Clone(), nil
}

// PutVehicle inserts or replaces the vehicle.
func (s *MemoryVehicleStore) PutVehicle(_ context.Context, vehicle *models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[vehicle.LicensePlate] = vehicle.Clone()
	return nil
}

// ListVehicles returns a snapshot ordered by license plate.
func (s *MemoryVehicleStore) ListVehicles(_ context.Context) ([]models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		result = append(result, *v.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LicensePlate < result[j].LicensePlate })
	return result, nil
}
