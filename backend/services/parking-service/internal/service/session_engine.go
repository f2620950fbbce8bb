package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"smartpark/backend/services/parking-service/internal/metrics"
	"smartpark/backend/services/parking-service/internal/models"
	redisstore "smartpark/backend/services/parking-service/internal/redis"
)

// SessionCache mirrors parked sessions into a fast lookup store.
type SessionCache interface {
	Save(ctx context.Context, session redisstore.ActiveSession) error
	Delete(ctx context.Context, licensePlate string) error
}

// EventPublisher receives committed occupancy changes.
type EventPublisher interface {
	Publish(event models.OccupancyEvent)
}

// DefaultCacheTimeout bounds each active session cache call.
const DefaultCacheTimeout = time.Second

type cacheSlot struct {
	mu     sync.Mutex
	latest atomic.Uint64
}

type cacheTicket struct {
	slot         *cacheSlot
	seq          uint64
	licensePlate string
}

// SessionEngine runs check-in, check-out and eviction as single transactions
// across the lot and vehicle registries.
type SessionEngine struct {
	// mu serializes every mutating session operation.
	mu       sync.Mutex
	lots     *LotRegistry
	vehicles *VehicleRegistry
	clock    Clock
	cache    SessionCache
	events   EventPublisher
	logger   *zap.Logger

	// Cache and event delivery happen after mu is released.
	cacheTimeout time.Duration
	cacheMu      sync.Mutex
	cacheSlots   map[string]*cacheSlot
}

// NewSessionEngine builds engine. cache and events may be nil.
func NewSessionEngine(
	lots *LotRegistry,
	vehicles *VehicleRegistry,
	clock Clock,
	cache SessionCache,
	events EventPublisher,
	logger *zap.Logger,
) *SessionEngine {
	return &SessionEngine{
		lots:     lots,
		vehicles: vehicles,
		clock:    clock,
		cache:    cache,
		events:   events,
		logger:   logger,

		cacheTimeout: DefaultCacheTimeout,
		cacheSlots:   make(map[string]*cacheSlot),
	}
}

// CheckIn parks the vehicle in the lot.
func (e *SessionEngine) CheckIn(ctx context.Context, licensePlate, lotID string) (*models.Vehicle, error) {
	vehicle, lot, ticket, err := e.checkIn(ctx, licensePlate, lotID)
	if err != nil {
		return nil, err
	}
	e.syncCache(ctx, ticket, &redisstore.ActiveSession{
		LicensePlate: licensePlate,
		LotID:        lotID,
		CheckInTime:  *vehicle.CheckInTime,
	})
	e.publish(models.EventCheckIn, lot, licensePlate, *vehicle.CheckInTime)
	return vehicle, nil
}

func (e *SessionEngine) checkIn(ctx context.Context, licensePlate, lotID string) (*models.Vehicle, *models.ParkingLot, cacheTicket, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	vehicle, err := e.vehicles.Get(ctx, licensePlate)
	if err != nil {
		return nil, nil, cacheTicket{}, err
	}
	if vehicle.IsParked() {
		metrics.RecordCheckInRejected(metrics.ReasonAlreadyParked)
		return nil, nil, cacheTicket{}, fmt.Errorf("%w in %s", ErrAlreadyParked, vehicle.LotID())
	}

	lot, err := e.lots.Get(ctx, lotID)
	if err != nil {
		return nil, nil, cacheTicket{}, err
	}
	if lot.IsFull() {
		metrics.RecordCheckInRejected(metrics.ReasonLotFull)
		return nil, nil, cacheTicket{}, ErrLotFull
	}

	now := e.clock.Now()
	lot, applied, err := e.lots.adjust(ctx, lotID, 1)
	if err != nil {
		return nil, nil, cacheTicket{}, err
	}
	if !applied {
		metrics.RecordCheckInRejected(metrics.ReasonLotFull)
		return nil, nil, cacheTicket{}, ErrLotFull
	}

	updated, err := e.vehicles.SetSession(ctx, licensePlate, models.ParkedSession(lotID, now))
	if err != nil {
		e.rollbackOccupancy(ctx, lotID, -1, err)
		return nil, nil, cacheTicket{}, err
	}

	metrics.RecordCheckIn(lotID)
	e.logger.Info("vehicle checked in",
		zap.String("license_plate", licensePlate),
		zap.String("lot_id", lotID),
		zap.Int("occupied_spaces", lot.OccupiedSpaces),
	)
	return updated, lot, e.issueCacheTicket(licensePlate), nil
}

// CheckOut releases the vehicle and returns the bill for the session.
func (e *SessionEngine) CheckOut(ctx context.Context, licensePlate string) (*models.CheckOutReceipt, error) {
	receipt, lot, ticket, err := e.checkOut(ctx, licensePlate)
	if err != nil {
		return nil, err
	}
	e.syncCache(ctx, ticket, nil)
	e.publish(models.EventCheckOut, lot, licensePlate, receipt.CheckOutTime)
	return receipt, nil
}

func (e *SessionEngine) checkOut(ctx context.Context, licensePlate string) (*models.CheckOutReceipt, *models.ParkingLot, cacheTicket, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	vehicle, err := e.vehicles.Get(ctx, licensePlate)
	if err != nil {
		return nil, nil, cacheTicket{}, err
	}
	if !vehicle.IsParked() {
		return nil, nil, cacheTicket{}, ErrNotParked
	}

	receipt, lot, ticket, err := e.release(ctx, vehicle, e.clock.Now())
	if err != nil {
		return nil, nil, cacheTicket{}, err
	}

	metrics.RecordCheckOut(receipt.LotID)
	e.logger.Info("vehicle checked out",
		zap.String("license_plate", licensePlate),
		zap.String("lot_id", receipt.LotID),
		zap.Int64("minutes_parked", receipt.MinutesParked),
		zap.String("cost", receipt.Cost.StringFixed(models.MoneyScale)),
	)
	return receipt, lot, ticket, nil
}

// Evict force-releases a vehicle whose session started before cutoff. It reports
// false without touching any state when the vehicle is no longer parked or no
// longer overstayed.
func (e *SessionEngine) Evict(ctx context.Context, licensePlate string, cutoff time.Time) (*models.CheckOutReceipt, bool, error) {
	receipt, lot, ticket, err := e.evict(ctx, licensePlate, cutoff)
	if err != nil || receipt == nil {
		return nil, false, err
	}
	e.syncCache(ctx, ticket, nil)
	e.publish(models.EventEviction, lot, licensePlate, receipt.CheckOutTime)
	return receipt, true, nil
}

func (e *SessionEngine) evict(ctx context.Context, licensePlate string, cutoff time.Time) (*models.CheckOutReceipt, *models.ParkingLot, cacheTicket, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	vehicle, err := e.vehicles.Get(ctx, licensePlate)
	if err != nil {
		return nil, nil, cacheTicket{}, err
	}
	if !overstayed(vehicle, cutoff) {
		return nil, nil, cacheTicket{}, nil
	}

	receipt, lot, ticket, err := e.release(ctx, vehicle, e.clock.Now())
	if err != nil {
		return nil, nil, cacheTicket{}, err
	}
	metrics.RecordEviction(receipt.LotID)
	return receipt, lot, ticket, nil
}

// VehiclesInLot lists vehicles parked in an existing lot.
func (e *SessionEngine) VehiclesInLot(ctx context.Context, lotID string) ([]models.Vehicle, error) {
	if _, err := e.lots.Get(ctx, lotID); err != nil {
		return nil, err
	}
	return e.vehicles.ListParked(ctx, lotID)
}

// release decrements the lot and clears the session. Callers hold e.mu and have
// checked that vehicle is parked.
func (e *SessionEngine) release(ctx context.Context, vehicle *models.Vehicle, at time.Time) (*models.CheckOutReceipt, *models.ParkingLot, cacheTicket, error) {
	lotID := vehicle.LotID()
	checkIn := *vehicle.CheckInTime

	lot, err := e.lots.Get(ctx, lotID)
	if err != nil {
		return nil, nil, cacheTicket{}, err
	}
	minutes := models.WholeMinutes(checkIn, at)
	cost := models.ParkingCost(lot.CostPerMinute, minutes)

	lot, applied, err := e.lots.adjust(ctx, lotID, -1)
	if err != nil {
		return nil, nil, cacheTicket{}, err
	}
	if _, err := e.vehicles.SetSession(ctx, vehicle.LicensePlate, models.SessionState{}); err != nil {
		if applied {
			e.rollbackOccupancy(ctx, lotID, 1, err)
		}
		return nil, nil, cacheTicket{}, err
	}
	return &models.CheckOutReceipt{
		LicensePlate:  vehicle.LicensePlate,
		LotID:         lotID,
		CheckInTime:   checkIn,
		CheckOutTime:  at,
		MinutesParked: minutes,
		Cost:          cost,
	}, lot, e.issueCacheTicket(vehicle.LicensePlate), nil
}

// rollbackOccupancy undoes an occupancy change whose paired session write failed.
func (e *SessionEngine) rollbackOccupancy(ctx context.Context, lotID string, delta int, cause error) {
	if _, _, err := e.lots.adjust(context.WithoutCancel(ctx), lotID, delta); err != nil {
		e.logger.Error("failed to roll back occupancy",
			zap.String("lot_id", lotID),
			zap.Int("delta", delta),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return
	}
	e.logger.Warn("occupancy rolled back after session write failure",
		zap.String("lot_id", lotID),
		zap.Error(cause),
	)
}

// issueCacheTicket orders cache writes for a plate by commit order. Callers hold e.mu.
func (e *SessionEngine) issueCacheTicket(licensePlate string) cacheTicket {
	if e.cache == nil {
		return cacheTicket{}
	}
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	slot, ok := e.cacheSlots[licensePlate]
	if !ok {
		slot = &cacheSlot{}
		e.cacheSlots[licensePlate] = slot
	}
	return cacheTicket{slot: slot, seq: slot.latest.Add(1), licensePlate: licensePlate}
}

// syncCache saves session, or deletes the entry when session is nil. It runs
// outside e.mu and does nothing once a later commit for the same plate has
// taken a ticket, so a slow Save cannot land after a newer Delete.
func (e *SessionEngine) syncCache(ctx context.Context, ticket cacheTicket, session *redisstore.ActiveSession) {
	if ticket.slot == nil {
		return
	}
	ticket.slot.mu.Lock()
	defer ticket.slot.mu.Unlock()
	if ticket.slot.latest.Load() != ticket.seq {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cacheTimeout)
	defer cancel()

	if session != nil {
		if err := e.cache.Save(ctx, *session); err != nil {
			e.logger.Warn("failed to cache active session", zap.String("license_plate", session.LicensePlate), zap.Error(err))
		}
		return
	}
	licensePlate := ticket.licensePlate
	if err := e.cache.Delete(ctx, licensePlate); err != nil && !errors.Is(err, redis.Nil) {
		e.logger.Warn("failed to delete active session cache", zap.String("license_plate", licensePlate), zap.Error(err))
	}
}

func (e *SessionEngine) publish(eventType models.EventType, lot *models.ParkingLot, licensePlate string, at time.Time) {
	if e.events == nil {
		return
	}
	e.events.Publish(models.OccupancyEvent{
		ID:              uuid.NewString(),
		Type:            eventType,
		LotID:           lot.LotID,
		LicensePlate:    licensePlate,
		OccupiedSpaces:  lot.OccupiedSpaces,
		AvailableSpaces: lot.AvailableSpaces(),
		At:              at,
	})
}
