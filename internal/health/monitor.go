package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/slmhealth/internal/metrics"
)

// ErrIndicatorExists is returned when registering a second indicator with the same name.
var ErrIndicatorExists = errors.New("indicator already registered")

// ErrIndicatorNotFound is returned when an unknown indicator is requested.
var ErrIndicatorNotFound = errors.New("indicator not found")

// IndicatorReport is one indicator's entry in a Report.
type IndicatorReport struct {
	Component string `json:"component"`
	Result
}

// Report contains the full system health report.
type Report struct {
	ID         string                     `json:"report_id"`
	Status     Status                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Indicators map[string]IndicatorReport `json:"indicators"`
}

// MonitorConfig holds monitor tuning.
type MonitorConfig struct {
	// CacheInterval is the minimum time between two non-explain evaluations.
	CacheInterval time.Duration
	// CheckTimeout bounds a single indicator evaluation.
	CheckTimeout time.Duration
}

// DefaultMonitorConfig returns the default monitor configuration.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		CacheInterval: 10 * time.Second,
		CheckTimeout:  5 * time.Second,
	}
}

// Monitor aggregates health status from registered indicators.
type Monitor struct {
	cfg        MonitorConfig
	indicators map[string]Indicator
	lastCheck  time.Time
	lastReport *Report
	mu         sync.RWMutex
	now        func() time.Time
}

// NewMonitor creates a new health monitor.
func NewMonitor(cfg MonitorConfig) *Monitor {
	def := DefaultMonitorConfig()
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = def.CheckTimeout
	}
	if cfg.CacheInterval < 0 {
		cfg.CacheInterval = 0
	}
	return &Monitor{
		cfg:        cfg,
		indicators: make(map[string]Indicator),
		now:        time.Now,
	}
}

// Register adds an indicator to the monitor.
func (m *Monitor) Register(ind Indicator) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.indicators[ind.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrIndicatorExists, ind.Name())
	}
	m.indicators[ind.Name()] = ind
	m.lastReport = nil
	return nil
}

// Names returns the registered indicator names in lexicographic order.
func (m *Monitor) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedNames()
}

func (m *Monitor) sortedNames() []string {
	names := make([]string, 0, len(m.indicators))
	for name := range m.indicators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckHealth evaluates every registered indicator.
//
// Non-explain reports are cached for CacheInterval so frequent polling does not
// hammer the state backends. Explain reports are always computed fresh.
func (m *Monitor) CheckHealth(ctx context.Context, explain bool) *Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !explain && m.lastReport != nil && m.now().Sub(m.lastCheck) < m.cfg.CacheInterval {
		return m.lastReport
	}

	report := &Report{
		ID:         uuid.NewString(),
		Status:     StatusGreen,
		Timestamp:  m.now(),
		Indicators: make(map[string]IndicatorReport, len(m.indicators)),
	}

	for _, name := range m.sortedNames() {
		ind := m.indicators[name]
		res := m.evaluate(ctx, ind, explain)
		report.Indicators[name] = IndicatorReport{Component: ind.Component(), Result: res}
		report.Status = report.Status.Worse(res.Status)
	}

	if !explain {
		m.lastCheck = report.Timestamp
		m.lastReport = report
	}
	return report
}

// CheckIndicator evaluates a single indicator, bypassing the cache.
func (m *Monitor) CheckIndicator(ctx context.Context, name string, explain bool) (IndicatorReport, error) {
	m.mu.RLock()
	ind, ok := m.indicators[name]
	m.mu.RUnlock()
	if !ok {
		return IndicatorReport{}, fmt.Errorf("%w: %s", ErrIndicatorNotFound, name)
	}
	return IndicatorReport{Component: ind.Component(), Result: m.evaluate(ctx, ind, explain)}, nil
}

func (m *Monitor) evaluate(ctx context.Context, ind Indicator, explain bool) Result {
	name := ind.Name()
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, m.cfg.CheckTimeout)
	defer cancel()

	res, err := ind.Calculate(checkCtx, explain)
	metrics.IndicatorLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		slog.Warn("Health indicator failed to evaluate", "indicator", name, "error", err)
		metrics.IndicatorErrors.WithLabelValues(name).Inc()
		res = Result{
			Status:  StatusUnknown,
			Summary: fmt.Sprintf("Could not determine %s health: %v", name, err),
		}
	}
	res.Name = name
	if res.HelpURL == "" {
		res.HelpURL = ind.HelpURL()
	}

	metrics.IndicatorEvaluations.WithLabelValues(name, string(res.Status)).Inc()
	metrics.IndicatorStatus.WithLabelValues(name).Set(float64(res.Status.Severity()))
	return res
}
