package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/slmhealth/internal/slm"
)

// ErrUnknownBackend is returned for an unsupported storage backend.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	var cfg AppConfig
	_ = cfg.applyDefaults()
	return &cfg
}

func (cfg *AppConfig) applyDefaults() error {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	switch cfg.Storage.Backend {
	case "":
		cfg.Storage.Backend = BackendMemory
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Storage.Backend)
	}

	if cfg.Health.PollInterval <= 0 {
		cfg.Health.PollInterval = 30 * time.Second
	}
	if cfg.Health.CacheInterval <= 0 {
		cfg.Health.CacheInterval = 10 * time.Second
	}
	if cfg.Health.CheckTimeout <= 0 {
		cfg.Health.CheckTimeout = 5 * time.Second
	}

	th := cfg.Health.SLM.WithDefaults()
	if err := th.Validate(); err != nil {
		slog.Warn("Invalid SLM thresholds, using defaults", "error", err)
		th = slm.DefaultThresholds()
	}
	cfg.Health.SLM = th
	return nil
}

// LogLevel maps the configured level name to a slog level.
func (l LoggingConfig) LogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
