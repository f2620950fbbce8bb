package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"smartpark/backend/services/parking-service/internal/models"
	"smartpark/backend/services/parking-service/internal/repository"
)

// LotRegistry owns parking lot records and their occupancy counters.
type LotRegistry struct {
	mu     sync.Mutex
	store  repository.LotStore
	clock  Clock
	logger *zap.Logger
}

// NewLotRegistry builds registry over the given store.
func NewLotRegistry(store repository.LotStore, clock Clock, logger *zap.Logger) *LotRegistry {
	return &LotRegistry{store: store, clock: clock, logger: logger}
}

// Register creates a lot with zero occupancy.
func (r *LotRegistry) Register(ctx context.Context, input LotInput) (*models.ParkingLot, error) {
	input, err := input.Normalize()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.store.GetLot(ctx, input.LotID); err == nil {
		return nil, fmt.Errorf("%w: parking lot %s", ErrAlreadyExists, input.LotID)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := r.clock.Now()
	lot := &models.ParkingLot{
		LotID:         input.LotID,
		Location:      input.Location,
		Capacity:      input.Capacity,
		CostPerMinute: input.CostPerMinute,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.store.PutLot(ctx, lot); err != nil {
		return nil, err
	}

	r.logger.Info("parking lot registered",
		zap.String("lot_id", lot.LotID),
		zap.Int("capacity", lot.Capacity),
		zap.String("cost_per_minute", lot.CostPerMinute.StringFixed(models.MoneyScale)),
	)
	return lot, nil
}

// Get returns the lot or ErrNotFound.
func (r *LotRegistry) Get(ctx context.Context, lotID string) (*models.ParkingLot, error) {
	lot, err := r.store.GetLot(ctx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: parking lot %s", ErrNotFound, lotID)
		}
		return nil, err
	}
	return lot, nil
}

// Status returns the occupancy summary of a lot.
func (r *LotRegistry) Status(ctx context.Context, lotID string) (models.LotStatus, error) {
	lot, err := r.Get(ctx, lotID)
	if err != nil {
		return models.LotStatus{}, err
	}
	return lot.Status(), nil
}

// List returns every lot at call time.
func (r *LotRegistry) List(ctx context.Context) ([]models.ParkingLot, error) {
	return r.store.ListLots(ctx)
}

// AdjustOccupancy applies delta (+1 or -1) to the lot occupancy. A change that would
// leave [0, capacity] is skipped and the lot is returned unchanged.
func (r *LotRegistry) AdjustOccupancy(ctx context.Context, lotID string, delta int) (*models.ParkingLot, error) {
	lot, _, err := r.adjust(ctx, lotID, delta)
	return lot, err
}

func (r *LotRegistry) adjust(ctx context.Context, lotID string, delta int) (*models.ParkingLot, bool, error) {
	if delta != 1 && delta != -1 {
		return nil, false, invalidArgument("occupancy delta must be +1 or -1, got %d", delta)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lot, err := r.Get(ctx, lotID)
	if err != nil {
		return nil, false, err
	}

	var applied bool
	if delta > 0 {
		applied = lot.Occupy()
	} else {
		applied = lot.Vacate()
	}
	if !applied {
		r.logger.Warn("occupancy change clamped",
			zap.String("lot_id", lotID),
			zap.Int("delta", delta),
			zap.Int("occupied_spaces", lot.OccupiedSpaces),
			zap.Int("capacity", lot.Capacity),
		)
		return lot, false, nil
	}

	lot.UpdatedAt = r.clock.Now()
	if err := r.store.PutLot(ctx, lot); err != nil {
		return nil, false, err
	}
	return lot, true, nil
}
