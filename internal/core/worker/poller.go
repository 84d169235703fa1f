package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/slmhealth/internal/health"
)

// Checker produces health reports.
type Checker interface {
	CheckHealth(ctx context.Context, explain bool) *health.Report
}

// Observer receives every report the poller produces.
type Observer func(report *health.Report)

// Poller periodically evaluates health and logs status transitions.
type Poller struct {
	checker   Checker
	interval  time.Duration
	observers []Observer
	last      map[string]health.Status
	overall   health.Status
}

// NewPoller creates a new Poller worker.
func NewPoller(checker Checker, interval time.Duration, observers ...Observer) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		checker:   checker,
		interval:  interval,
		observers: observers,
		last:      make(map[string]health.Status),
	}
}

// Start runs the poller loop until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Initial poll
	p.Poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll runs a single evaluation. It is not safe for concurrent use.
func (p *Poller) Poll(ctx context.Context) *health.Report {
	report := p.checker.CheckHealth(ctx, false)
	if report == nil {
		return nil
	}

	for name, ind := range report.Indicators {
		p.transition(name, p.last[name], ind.Status, ind.Summary)
		p.last[name] = ind.Status
	}
	if p.overall != "" && p.overall != report.Status {
		slog.Info("Overall health changed", "from", p.overall, "to", report.Status, "report_id", report.ID)
	}
	p.overall = report.Status

	for _, obs := range p.observers {
		obs(report)
	}
	return report
}

func (p *Poller) transition(name string, from, to health.Status, summary string) {
	switch {
	case from == "":
		if to != health.StatusGreen {
			slog.Warn("Health indicator not healthy", "indicator", name, "status", to, "summary", summary)
		}
	case from == to:
		return
	case to.Severity() > from.Severity():
		slog.Warn("Health indicator degraded", "indicator", name, "from", from, "to", to, "summary", summary)
	default:
		slog.Info("Health indicator recovered", "indicator", name, "from", from, "to", to, "summary", summary)
	}
}
