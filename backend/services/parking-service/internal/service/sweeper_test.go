package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartpark/backend/services/parking-service/internal/models"
)

func newTestSweeper(env *testEnv) *Sweeper {
	return NewSweeper(env.engine, env.vehicles, env.clock, SweeperConfig{
		Interval:    time.Second,
		MaxDuration: 15 * time.Minute,
	}, zap.NewNop())
}

func TestSweepEvictsOverstayedVehicle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addLot(t, "LOT-A", 2, "1.00")
	env.addVehicle(t, "V1")
	env.addVehicle(t, "V2")
	sweeper := newTestSweeper(env)

	_, err := env.engine.CheckIn(ctx, "V1", "LOT-A")
	require.NoError(t, err)
	env.clock.Advance(10 * time.Minute)
	_, err = env.engine.CheckIn(ctx, "V2", "LOT-A")
	require.NoError(t, err)

	env.clock.Advance(6 * time.Minute)
	report, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Minute), report.Cutoff)
	assert.Equal(t, 1, report.Candidates)
	assert.Equal(t, 1, report.Evicted)
	assert.Equal(t, 1, env.occupancy(t, "LOT-A"))

	v1, err := env.vehicles.Get(ctx, "V1")
	require.NoError(t, err)
	assert.True(t, v1.Session().IsZero())

	_, err = env.engine.CheckOut(ctx, "V1")
	assert.ErrorIs(t, err, ErrNotParked)

	v2, err := env.vehicles.Get(ctx, "V2")
	require.NoError(t, err)
	assert.True(t, v2.IsParked())

	events := env.publisher.Events()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, models.EventEviction, last.Type)
	assert.Equal(t, "V1", last.LicensePlate)
	assert.Contains(t, env.cache.deleted, "V1")
}

func TestSweepIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addLot(t, "LOT-A", 2, "1.00")
	env.addLot(t, "LOT-B", 2, "1.00")
	env.addVehicle(t, "V1")
	env.addVehicle(t, "V2")
	sweeper := newTestSweeper(env)

	_, err := env.engine.CheckIn(ctx, "V1", "LOT-A")
	require.NoError(t, err)
	_, err = env.engine.CheckIn(ctx, "V2", "LOT-B")
	require.NoError(t, err)
	env.clock.Advance(16 * time.Minute)

	first, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Evicted)

	second, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Candidates)
	assert.Equal(t, 0, second.Evicted)

	assert.Equal(t, 0, env.occupancy(t, "LOT-A"))
	assert.Equal(t, 0, env.occupancy(t, "LOT-B"))
}

func TestEvictSkipsVehicleReleasedAfterSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addLot(t, "LOT-A", 2, "1.00")
	env.addVehicle(t, "V1")
	env.addVehicle(t, "V2")

	_, err := env.engine.CheckIn(ctx, "V1", "LOT-A")
	require.NoError(t, err)
	env.clock.Advance(16 * time.Minute)
	cutoff := env.clock.Now().Add(-15 * time.Minute)

	snapshot, err := env.vehicles.ListOverstayed(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)

	// checked out between the snapshot and the eviction
	_, err = env.engine.CheckOut(ctx, "V1")
	require.NoError(t, err)
	_, err = env.engine.CheckIn(ctx, "V2", "LOT-A")
	require.NoError(t, err)

	_, evicted, err := env.engine.Evict(ctx, "V1", cutoff)
	require.NoError(t, err)
	assert.False(t, evicted)
	assert.Equal(t, 1, env.occupancy(t, "LOT-A"))

	// parked again, but recently
	_, err = env.engine.CheckIn(ctx, "V1", "LOT-A")
	require.NoError(t, err)
	_, evicted, err = env.engine.Evict(ctx, "V1", cutoff)
	require.NoError(t, err)
	assert.False(t, evicted)
	assert.Equal(t, 2, env.occupancy(t, "LOT-A"))
}

func TestSweepContinuesPastFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addLot(t, "LOT-A", 2, "1.00")
	env.addVehicle(t, "V1")
	env.addVehicle(t, "ORPHAN")
	sweeper := newTestSweeper(env)

	_, err := env.engine.CheckIn(ctx, "V1", "LOT-A")
	require.NoError(t, err)
	// parked in a lot that does not exist
	_, err = env.vehicles.SetSession(ctx, "ORPHAN", models.ParkedSession("LOT-GONE", t0))
	require.NoError(t, err)

	env.clock.Advance(20 * time.Minute)
	report, err := sweeper.Sweep(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "evict ORPHAN")
	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, 1, report.Evicted)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, env.occupancy(t, "LOT-A"))

	orphan, err := env.vehicles.Get(ctx, "ORPHAN")
	require.NoError(t, err)
	assert.True(t, orphan.IsParked())
}

func TestSweepReportsListFailure(t *testing.T) {
	env := newTestEnv(t)
	sweeper := newTestSweeper(env)

	env.vehStore.failList.Store(true)
	_, err := sweeper.Sweep(context.Background())
	assert.ErrorIs(t, err, errStoreDown)
}

func TestSweeperRunsOnSchedule(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.addLot(t, "LOT-A", 1, "1.00")
	env.addVehicle(t, "V1")
	sweeper := newTestSweeper(env)

	_, err := env.engine.CheckIn(ctx, "V1", "LOT-A")
	require.NoError(t, err)
	env.clock.Advance(30 * time.Minute)

	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	require.Eventually(t, func() bool {
		v, err := env.vehicles.Get(context.Background(), "V1")
		return err == nil && !v.IsParked()
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, 0, env.occupancy(t, "LOT-A"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeperStopIsSafeWhenNotStarted(t *testing.T) {
	env := newTestEnv(t)
	sweeper := NewSweeper(env.engine, env.vehicles, env.clock, SweeperConfig{}, zap.NewNop())
	assert.Equal(t, DefaultSweepInterval, sweeper.cfg.Interval)
	assert.Equal(t, DefaultMaxDuration, sweeper.cfg.MaxDuration)
	sweeper.Stop()
}

func TestSweepRacingCheckOutReleasesEachVehicleOnce(t *testing.T) {
	const vehicles = 24
	for round := 0; round < 20; round++ {
		env := newTestEnv(t)
		ctx := context.Background()
		env.addLot(t, "LOT-A", vehicles, "1.00")
		plates := make([]string, vehicles)
		for i := range plates {
			plates[i] = fmt.Sprintf("V%02d", i)
			env.addVehicle(t, plates[i])
			_, err := env.engine.CheckIn(ctx, plates[i], "LOT-A")
			require.NoError(t, err)
		}
		env.clock.Advance(16 * time.Minute)
		sweeper := newTestSweeper(env)

		var (
			wg         sync.WaitGroup
			checkedOut atomic.Int32
			report     SweepReport
			sweepErr   error
		)
		start := make(chan struct{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			report, sweepErr = sweeper.Sweep(ctx)
		}()
		for _, plate := range plates {
			wg.Add(1)
			go func(plate string) {
				defer wg.Done()
				<-start
				_, err := env.engine.CheckOut(ctx, plate)
				switch {
				case err == nil:
					checkedOut.Add(1)
				case errors.Is(err, ErrNotParked):
				default:
					t.Errorf("check-out %s: %v", plate, err)
				}
			}(plate)
		}
		close(start)
		wg.Wait()

		require.NoError(t, sweepErr)
		assert.Equal(t, 0, report.Failed)
		assert.Equal(t, vehicles, int(checkedOut.Load())+report.Evicted, "round %d", round)
		assert.Equal(t, report.Candidates, report.Evicted+report.Skipped)
		assert.Equal(t, 0, env.occupancy(t, "LOT-A"))

		releases := 0
		for _, event := range env.publisher.Events() {
			if event.Type != models.EventCheckIn {
				releases++
				assert.GreaterOrEqual(t, event.OccupiedSpaces, 0)
			}
		}
		assert.Equal(t, vehicles, releases)
	}
}
