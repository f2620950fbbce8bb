package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	libdb "smartpark/backend/libs/db"
	libredis "smartpark/backend/libs/redis"
	"smartpark/backend/services/parking-service/internal/auth"
	"smartpark/backend/services/parking-service/internal/config"
	httpserver "smartpark/backend/services/parking-service/internal/http"
	"smartpark/backend/services/parking-service/internal/http/handlers"
	"smartpark/backend/services/parking-service/internal/http/middleware"
	"smartpark/backend/services/parking-service/internal/metrics"
	redisstore "smartpark/backend/services/parking-service/internal/redis"
	"smartpark/backend/services/parking-service/internal/repository"
	"smartpark/backend/services/parking-service/internal/seed"
	"smartpark/backend/services/parking-service/internal/service"
	"smartpark/backend/services/parking-service/internal/ws"
)

const startupTimeout = 30 * time.Second

// App wires parking-service dependencies.
type App struct {
	server      *httpserver.Server
	handler     http.Handler
	hub         *ws.Hub
	sweeper     *service.Sweeper
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	lotStore, vehicleStore, err := a.openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var (
		cache  service.SessionCache
		reader handlers.ActiveSessionReader
	)
	if cfg.Redis.Enabled {
		a.redisClient, err = libredis.NewRedisClient(libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		store := redisstore.NewStore(a.redisClient, cfg.Redis.TTL)
		cache, reader = store, store
	}

	clock := service.SystemClock{}
	lots := service.NewLotRegistry(lotStore, clock, logger)
	vehicles := service.NewVehicleRegistry(vehicleStore, clock, logger)

	a.hub = ws.NewHub(cfg.WebSocket.PingInterval, cfg.WebSocket.WriteTimeout, logger)
	engine := service.NewSessionEngine(lots, vehicles, clock, cache, a.hub, logger)
	a.sweeper = service.NewSweeper(engine, vehicles, clock, service.SweeperConfig{
		Interval:    cfg.Sweeper.Interval,
		MaxDuration: cfg.Sweeper.MaxDuration,
	}, logger)

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService, err := auth.NewAuthService(cfg.Auth.Username, cfg.Auth.Password, auth.NewBcryptHasher(0), tokens, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Seed.Enabled {
		if _, err := seed.Run(ctx, lots, vehicles, logger); err != nil {
			return nil, err
		}
	}

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics.Register(reg, lots)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	checks := map[string]handlers.HealthCheck{}
	if a.db != nil {
		checks["database"] = a.db.PingContext
	}
	if a.redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redisClient.Ping(ctx).Err() }
	}

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Login:           handlers.NewLoginHandler(authService, logger),
		Health:          handlers.NewHealthHandler(checks),
		RegisterLot:     handlers.NewRegisterLotHandler(lots, logger),
		ListLots:        handlers.NewListLotsHandler(lots, logger),
		GetLot:          handlers.NewGetLotHandler(lots, logger),
		LotStatus:       handlers.NewLotStatusHandler(lots, logger),
		LotVehicles:     handlers.NewLotVehiclesHandler(engine, clock, logger),
		RegisterVehicle: handlers.NewRegisterVehicleHandler(vehicles, clock, logger),
		ListVehicles:    handlers.NewListVehiclesHandler(vehicles, clock, logger),
		GetVehicle:      handlers.NewGetVehicleHandler(vehicles, clock, logger),
		CheckIn:         handlers.NewCheckInHandler(engine, clock, logger),
		CheckOut:        handlers.NewCheckOutHandler(engine, logger),
		ActiveSession:   handlers.NewActiveSessionHandler(reader, vehicles, logger),
		Metrics:         metricsHandler,
		Occupancy:       ws.NewServer(a.hub, logger).HandleWS,
	}, middleware.Auth(tokens))

	a.handler = middleware.Chain(router, middleware.RequestLogger(logger))
	a.server = httpserver.NewServer(cfg.HTTPAddress(), a.handler, httpserver.Timeouts{
		Read:     cfg.HTTP.ReadTimeout,
		Write:    cfg.HTTP.WriteTimeout,
		Idle:     cfg.HTTP.IdleTimeout,
		Shutdown: cfg.HTTP.ShutdownTimeout,
	}, logger)

	ok = true
	return a, nil
}

func (a *App) openStores(ctx context.Context, cfg *config.Config) (repository.LotStore, repository.VehicleStore, error) {
	if cfg.Storage.Driver != config.StoragePostgres {
		a.logger.Info("using in-memory storage")
		return repository.NewMemoryLotStore(), repository.NewMemoryVehicleStore(), nil
	}

	sqlDB, err := libdb.NewPostgresDB(cfg.Storage.DSN, libdb.PoolOptions{})
	if err != nil {
		return nil, nil, err
	}
	a.db = sqlDB
	if err := repository.EnsureSchema(ctx, sqlDB); err != nil {
		return nil, nil, err
	}
	a.logger.Info("using postgres storage")
	return repository.NewLotRepository(sqlDB), repository.NewVehicleRepository(sqlDB), nil
}

// Handler returns the full HTTP handler chain.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP, the occupancy feed and the eviction sweeper until ctx is done
// or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.server.Run(ctx) })
	g.Go(func() error { return a.hub.Run(ctx) })
	g.Go(func() error { return a.sweeper.Run(ctx) })
	return g.Wait()
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
