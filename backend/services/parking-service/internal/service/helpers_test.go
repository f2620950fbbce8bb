package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartpark/backend/services/parking-service/internal/models"
	redisstore "smartpark/backend/services/parking-service/internal/redis"
	"smartpark/backend/services/parking-service/internal/repository"
)

var errStoreDown = errors.New("store unavailable")

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(at time.Time) *fakeClock {
	return &fakeClock{now: at}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type flakyVehicleStore struct {
	*repository.MemoryVehicleStore
	failPut  atomic.Bool
	failList atomic.Bool
}

func (s *flakyVehicleStore) PutVehicle(ctx context.Context, v *models.Vehicle) error {
	if s.failPut.Load() {
		return errStoreDown
	}
	return s.MemoryVehicleStore.PutVehicle(ctx, v)
}

func (s *flakyVehicleStore) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	if s.failList.Load() {
		return nil, errStoreDown
	}
	return s.MemoryVehicleStore.ListVehicles(ctx)
}

type recordingCache struct {
	mu      sync.Mutex
	saved   map[string]redisstore.ActiveSession
	deleted []string
	saveErr error
}

func newRecordingCache() *recordingCache {
	return &recordingCache{saved: map[string]redisstore.ActiveSession{}}
}

func (c *recordingCache) Save(_ context.Context, session redisstore.ActiveSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveErr != nil {
		return c.saveErr
	}
	c.saved[session.LicensePlate] = session
	return nil
}

func (c *recordingCache) Delete(_ context.Context, licensePlate string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.saved, licensePlate)
	c.deleted = append(c.deleted, licensePlate)
	return nil
}

func (c *recordingCache) has(licensePlate string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.saved[licensePlate]
	return ok
}

// blockingCache holds Save for one plate until release is closed or ctx expires.
type blockingCache struct {
	*recordingCache
	plate   string
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingCache(plate string) *blockingCache {
	return &blockingCache{
		recordingCache: newRecordingCache(),
		plate:          plate,
		started:        make(chan struct{}),
		release:        make(chan struct{}),
	}
}

func (c *blockingCache) Save(ctx context.Context, session redisstore.ActiveSession) error {
	if session.LicensePlate == c.plate {
		c.once.Do(func() { close(c.started) })
		select {
		case <-c.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return c.recordingCache.Save(ctx, session)
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for signal")
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.OccupancyEvent
}

func (p *recordingPublisher) Publish(event models.OccupancyEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Events() []models.OccupancyEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.OccupancyEvent(nil), p.events...)
}

type testEnv struct {
	clock     *fakeClock
	lotStore  *repository.MemoryLotStore
	vehStore  *flakyVehicleStore
	lots      *LotRegistry
	vehicles  *VehicleRegistry
	engine    *SessionEngine
	cache     *recordingCache
	publisher *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithLogger(t, zap.NewNop())
}

func newTestEnvWithLogger(t *testing.T, logger *zap.Logger) *testEnv {
	t.Helper()
	env := &testEnv{
		clock:     newFakeClock(t0),
		lotStore:  repository.NewMemoryLotStore(),
		vehStore:  &flakyVehicleStore{MemoryVehicleStore: repository.NewMemoryVehicleStore()},
		cache:     newRecordingCache(),
		publisher: &recordingPublisher{},
	}
	env.lots = NewLotRegistry(env.lotStore, env.clock, logger)
	env.vehicles = NewVehicleRegistry(env.vehStore, env.clock, logger)
	env.engine = NewSessionEngine(env.lots, env.vehicles, env.clock, env.cache, env.publisher, logger)
	return env
}

func (e *testEnv) addLot(t *testing.T, lotID string, capacity int, cost string) {
	t.Helper()
	_, err := e.lots.Register(context.Background(), LotInput{
		LotID:         lotID,
		Location:      "Main Street",
		Capacity:      capacity,
		CostPerMinute: decimal.RequireFromString(cost),
	})
	require.NoError(t, err)
}

func (e *testEnv) addVehicle(t *testing.T, plate string) {
	t.Helper()
	_, err := e.vehicles.Register(context.Background(), VehicleInput{
		LicensePlate: plate,
		Type:         "car",
		OwnerName:    "Test Owner",
	})
	require.NoError(t, err)
}

func (e *testEnv) occupancy(t *testing.T, lotID string) int {
	t.Helper()
	status, err := e.lots.Status(context.Background(), lotID)
	require.NoError(t, err)
	return status.OccupiedSpaces
}
