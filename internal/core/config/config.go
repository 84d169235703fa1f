package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/vietddude/slmhealth/internal/health"
	redisclient "github.com/vietddude/slmhealth/internal/infra/redis"
	"github.com/vietddude/slmhealth/internal/infra/storage/postgres"
	"github.com/vietddude/slmhealth/internal/slm"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	Storage  StorageConfig      `yaml:"storage"`
	Database postgres.Config    `yaml:"database"`
	Redis    redisclient.Config `yaml:"redis"`
	Health   HealthConfig       `yaml:"health"`
}

// ServerConfig holds HTTP and gRPC listener settings.
type ServerConfig struct {
	Port     int `yaml:"port"`
	GRPCPort int `yaml:"grpc_port"` // 0 = disabled
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// StorageConfig selects where lifecycle metadata is read from.
type StorageConfig struct {
	Backend   string `yaml:"backend"`    // memory, postgres, redis
	StateFile string `yaml:"state_file"` // memory only, optional
}

// HealthConfig holds health evaluation settings.
type HealthConfig struct {
	PollInterval  time.Duration  `yaml:"poll_interval"`
	CacheInterval time.Duration  `yaml:"cache_interval"`
	CheckTimeout  time.Duration  `yaml:"check_timeout"`
	SLM           slm.Thresholds `yaml:"slm"`
}

// Monitor returns the monitor settings.
func (h HealthConfig) Monitor() health.MonitorConfig {
	return health.MonitorConfig{
		CacheInterval: h.CacheInterval,
		CheckTimeout:  h.CheckTimeout,
	}
}

// Validate checks the log format, listener ports and backend connection settings.
func (cfg *AppConfig) Validate() error {
	return validation.Errors{
		"logging.format":   validation.Validate(cfg.Logging.Format, validation.In("json", "text")),
		"server.port":      validation.Validate(cfg.Server.Port, validation.Min(1), validation.Max(65535)),
		"server.grpc_port": validation.Validate(cfg.Server.GRPCPort, validation.Min(0), validation.Max(65535)),
		"database.url": validation.Validate(cfg.Database.URL,
			validation.When(cfg.Storage.Backend == BackendPostgres, validation.Required)),
		"database.driver": validation.Validate(cfg.Database.Driver, validation.In("postgres", "pgx")),
		"redis.url": validation.Validate(cfg.Redis.URL,
			validation.When(cfg.Storage.Backend == BackendRedis, validation.Required)),
	}.Filter()
}
