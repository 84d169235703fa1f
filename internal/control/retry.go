package control

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// RetryConfig defines how store connections are retried at startup.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig retries for roughly half a minute.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     5,
	InitialDelay:    1 * time.Second,
	MaxDelay:        15 * time.Second,
	BackoffMultiple: 2.0,
}

// connectWithRetry runs connect with exponential backoff until it succeeds,
// attempts run out or ctx is done.
func connectWithRetry(ctx context.Context, name string, cfg RetryConfig, connect func(ctx context.Context) error) error {
	attempts := max(cfg.MaxAttempts, 1)
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		err := connect(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		delay := calculateBackoff(attempt, cfg)
		slog.Warn("Store connection failed, retrying", "backend", name, "attempt", attempt+1, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

func calculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffMultiple, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}
