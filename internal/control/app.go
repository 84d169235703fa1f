package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vietddude/slmhealth/internal/core/config"
	"github.com/vietddude/slmhealth/internal/core/worker"
	"github.com/vietddude/slmhealth/internal/health"
	"github.com/vietddude/slmhealth/internal/slm"
)

const storageHelpURL = "https://ela.st/fix-slm"

// App wires the lifecycle store, health monitor and servers together.
type App struct {
	cfg          *config.AppConfig
	store        *Store
	monitor      *health.Monitor
	healthServer *health.Server
	grpcServer   *health.GRPCServer
	poller       *worker.Poller
	log          *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApp opens the configured store and registers the health indicators.
func NewApp(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app, err := newApp(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func newApp(cfg *config.AppConfig, store *Store) (*App, error) {
	monitor, err := NewMonitor(cfg, store)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:          cfg,
		store:        store,
		monitor:      monitor,
		healthServer: health.NewServer(monitor, cfg.Server.Port),
		log:          slog.With("component", "app"),
	}

	observers := []worker.Observer{}
	if cfg.Server.GRPCPort > 0 {
		app.grpcServer = health.NewGRPCServer(cfg.Server.GRPCPort)
		observers = append(observers, app.grpcServer.Apply)
	}
	app.poller = worker.NewPoller(monitor, cfg.Health.PollInterval, observers...)

	return app, nil
}

// NewMonitor builds a monitor with the SLM indicator and a reachability
// indicator for persistent backends.
func NewMonitor(cfg *config.AppConfig, store *Store) (*health.Monitor, error) {
	monitor := health.NewMonitor(cfg.Health.Monitor())

	if err := monitor.Register(slm.NewIndicator(store, cfg.Health.SLM)); err != nil {
		return nil, fmt.Errorf("failed to register slm indicator: %w", err)
	}

	if store.Backend() != config.BackendMemory {
		ping := health.NewPingIndicator(store.Backend(), "storage", storageHelpURL, store)
		if err := monitor.Register(ping); err != nil {
			return nil, fmt.Errorf("failed to register %s indicator: %w", store.Backend(), err)
		}
	}
	return monitor, nil
}

// Monitor returns the health monitor.
func (a *App) Monitor() *health.Monitor { return a.monitor }

// Start starts the servers and background workers. It does not block.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	// Start Health Server
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("Health server failed", "error", err)
		}
	}()

	if a.grpcServer != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.grpcServer.Start(); err != nil {
				a.log.Error("gRPC health server failed", "error", err)
			}
		}()
	}

	// Start DB Metrics Collector
	if db := a.store.DB(); db != nil {
		db.StartMetricsCollector(ctx)
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.poller.Start(ctx)
	}()

	a.log.Info("SLM health service started",
		"port", a.cfg.Server.Port,
		"grpc_port", a.cfg.Server.GRPCPort,
		"backend", a.store.Backend(),
		"red_threshold", a.cfg.Health.SLM.Red,
		"yellow_threshold", a.cfg.Health.SLM.Yellow,
	)
	return nil
}

// Stop shuts down servers and workers, then closes the store.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping SLM health service...")

	if a.cancel != nil {
		a.cancel()
	}

	var errs []error
	if err := a.healthServer.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop health server: %w", err))
	}
	if a.grpcServer != nil {
		if err := a.grpcServer.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop grpc server: %w", err))
		}
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}

	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close store: %w", err))
	}
	return errors.Join(errs...)
}
