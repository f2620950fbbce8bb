package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "smartpark/backend/libs/config"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Port            string        `yaml:"port" env:"PARKING_HTTP_PORT"`
	ReadTimeout     time.Duration `yaml:"readTimeout" env:"PARKING_HTTP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" env:"PARKING_HTTP_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idleTimeout" env:"PARKING_HTTP_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"PARKING_HTTP_SHUTDOWN_TIMEOUT"`
}

// StorageConfig selects the record store.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"PARKING_STORAGE_DRIVER"`
	DSN    string `yaml:"dsn" env:"PARKING_POSTGRES_DSN"`
}

// RedisConfig configures the optional active session cache.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" env:"PARKING_REDIS_ENABLED"`
	Addr     string        `yaml:"addr" env:"PARKING_REDIS_ADDR"`
	Password string        `yaml:"password" env:"PARKING_REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"PARKING_REDIS_DB"`
	TTL      time.Duration `yaml:"ttl" env:"PARKING_REDIS_TTL"`
}

// AuthConfig holds the operator account and token settings.
type AuthConfig struct {
	Username  string        `yaml:"username" env:"PARKING_AUTH_USERNAME"`
	Password  string        `yaml:"password" env:"PARKING_AUTH_PASSWORD"`
	JWTSecret string        `yaml:"jwtSecret" env:"PARKING_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"tokenTtl" env:"PARKING_JWT_TTL"`
}

// SweeperConfig configures overstay eviction.
type SweeperConfig struct {
	Interval    time.Duration `yaml:"interval" env:"PARKING_SWEEP_INTERVAL"`
	MaxDuration time.Duration `yaml:"maxDuration" env:"PARKING_MAX_DURATION"`
}

// WebSocketConfig configures the occupancy feed.
type WebSocketConfig struct {
	PingInterval time.Duration `yaml:"pingInterval" env:"PARKING_WS_PING_INTERVAL"`
	WriteTimeout time.Duration `yaml:"writeTimeout" env:"PARKING_WS_WRITE_TIMEOUT"`
}

// Config defines parking service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Sweeper   SweeperConfig   `yaml:"sweeper"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Metrics   struct {
		Enabled bool `yaml:"enabled" env:"PARKING_METRICS_ENABLED"`
	} `yaml:"metrics"`
	Seed struct {
		Enabled bool `yaml:"enabled" env:"PARKING_SEED_ENABLED"`
	} `yaml:"seed"`
	Log struct {
		Level       string `yaml:"level" env:"LOG_LEVEL"`
		Development bool   `yaml:"development" env:"LOG_DEVELOPMENT"`
	} `yaml:"log"`
}

// Default returns configuration used when nothing overrides it.
func Default() *Config {
	cfg := &Config{
		HTTP: HTTPConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{Driver: StorageMemory},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  24 * time.Hour,
		},
		Auth: AuthConfig{
			Username: "admin",
			TokenTTL: time.Hour,
		},
		Sweeper: SweeperConfig{
			Interval:    60 * time.Second,
			MaxDuration: 15 * time.Minute,
		},
		WebSocket: WebSocketConfig{
			PingInterval: 30 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
	cfg.Metrics.Enabled = true
	cfg.Seed.Enabled = true
	cfg.Log.Level = "info"
	return cfg
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := Default()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return errors.New("config: postgres dsn required")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}

	if c.Redis.Enabled && strings.TrimSpace(c.Redis.Addr) == "" {
		return errors.New("config: redis addr required")
	}
	if strings.TrimSpace(c.Auth.Username) == "" || c.Auth.Password == "" {
		return errors.New("config: auth username and password required")
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("config: jwt secret required")
	}
	if c.Sweeper.Interval < time.Second {
		return errors.New("config: sweep interval must be at least 1s")
	}
	if c.Sweeper.MaxDuration <= 0 {
		return errors.New("config: max parking duration must be positive")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
