package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"smartpark/backend/services/parking-service/internal/metrics"
	"smartpark/backend/services/parking-service/internal/models"
)

// Sweeper defaults.
const (
	DefaultSweepInterval = 60 * time.Second
	DefaultMaxDuration   = 15 * time.Minute
)

// SweeperConfig parameterizes the eviction schedule.
type SweeperConfig struct {
	Interval    time.Duration
	MaxDuration time.Duration
}

// SweepReport summarizes one sweep run.
type SweepReport struct {
	Cutoff     time.Time
	Candidates int
	Evicted    int
	Skipped    int
	Failed     int
}

// Sweeper periodically evicts vehicles parked longer than the max duration.
type Sweeper struct {
	engine   *SessionEngine
	vehicles *VehicleRegistry
	clock    Clock
	cfg      SweeperConfig
	logger   *zap.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewSweeper builds a stopped sweeper. Zero config values fall back to the defaults.
func NewSweeper(engine *SessionEngine, vehicles *VehicleRegistry, clock Clock, cfg SweeperConfig, logger *zap.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSweepInterval
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = DefaultMaxDuration
	}
	return &Sweeper{
		engine:   engine,
		vehicles: vehicles,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start schedules sweeps every interval until Stop. Jobs run with ctx.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	log := cronLogger{logger: s.logger.Sugar()}
	s.cron = cron.New(
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	s.cron.Schedule(cron.Every(s.cfg.Interval), cron.FuncJob(func() {
		s.runOnce(ctx)
	}))
	s.cron.Start()
	s.running = true

	s.logger.Info("eviction sweeper started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Duration("max_duration", s.cfg.MaxDuration),
	)
}

// Stop cancels the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	c := s.cron
	s.running = false
	s.mu.Unlock()

	<-c.Stop().Done()
	s.logger.Info("eviction sweeper stopped")
}

// Run starts the sweeper and blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	s.Start(ctx)
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Sweeper) runOnce(ctx context.Context) {
	report, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error("eviction sweep finished with errors",
			zap.Int("candidates", report.Candidates),
			zap.Int("evicted", report.Evicted),
			zap.Int("failed", report.Failed),
			zap.Error(err),
		)
		return
	}
	if report.Candidates > 0 {
		s.logger.Info("eviction sweep finished",
			zap.Int("candidates", report.Candidates),
			zap.Int("evicted", report.Evicted),
			zap.Int("skipped", report.Skipped),
		)
	}
}

// Sweep evicts every vehicle checked in before now minus the max duration.
// A failure on one vehicle does not stop the others; all failures are returned together.
func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	started := time.Now()
	report := SweepReport{Cutoff: s.clock.Now().Add(-s.cfg.MaxDuration)}

	candidates, err := s.vehicles.ListOverstayed(ctx, report.Cutoff)
	if err != nil {
		metrics.RecordSweep(time.Since(started), true)
		return report, fmt.Errorf("list overstayed vehicles: %w", err)
	}
	report.Candidates = len(candidates)

	var errs error
	for _, candidate := range candidates {
		receipt, evicted, err := s.engine.Evict(ctx, candidate.LicensePlate, report.Cutoff)
		switch {
		case err != nil:
			report.Failed++
			errs = multierr.Append(errs, fmt.Errorf("evict %s: %w", candidate.LicensePlate, err))
			s.logger.Warn("failed to evict vehicle",
				zap.String("license_plate", candidate.LicensePlate),
				zap.String("lot_id", candidate.LotID()),
				zap.Error(err),
			)
		case !evicted:
			report.Skipped++
		default:
			report.Evicted++
			s.logger.Info("vehicle evicted",
				zap.String("license_plate", receipt.LicensePlate),
				zap.String("lot_id", receipt.LotID),
				zap.Int64("minutes_parked", receipt.MinutesParked),
				zap.String("cost", receipt.Cost.StringFixed(models.MoneyScale)),
			)
		}
	}

	metrics.RecordSweep(time.Since(started), errs != nil)
	return report, errs
}

// cronLogger routes cron scheduler logs to zap.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
