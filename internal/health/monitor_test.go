package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// Mocks
// =============================================================================

type stubIndicator struct {
	name   string
	status Status
	err    error
	calls  atomic.Int32
}

func (s *stubIndicator) Name() string      { return s.name }
func (s *stubIndicator) Component() string { return "test" }
func (s *stubIndicator) HelpURL() string   { return "https://example.com/" + s.name }

func (s *stubIndicator) Calculate(ctx context.Context, explain bool) (Result, error) {
	s.calls.Add(1)
	if s.err != nil {
		return Result{}, s.err
	}
	res := Result{Status: s.status, Summary: s.name + " is " + string(s.status)}
	if explain {
		res.Details = map[string]any{"explained": true}
	}
	return res, nil
}

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(ctx context.Context) error { return p.err }

// =============================================================================
// Tests
// =============================================================================

func TestMonitor_AggregateWorstWins(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"no indicators", nil, StatusGreen},
		{"all green", []Status{StatusGreen, StatusGreen}, StatusGreen},
		{"one yellow", []Status{StatusGreen, StatusYellow}, StatusYellow},
		{"red beats yellow", []Status{StatusYellow, StatusRed, StatusGreen}, StatusRed},
		{"yellow beats unknown", []Status{StatusUnknown, StatusYellow}, StatusYellow},
		{"unknown beats green", []Status{StatusGreen, StatusUnknown}, StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(MonitorConfig{})
			for i, st := range tt.statuses {
				if err := m.Register(&stubIndicator{name: string(rune('a' + i)), status: st}); err != nil {
					t.Fatalf("Register failed: %v", err)
				}
			}

			report := m.CheckHealth(context.Background(), false)
			if report.Status != tt.want {
				t.Errorf("expected %s, got %s", tt.want, report.Status)
			}
			if len(report.Indicators) != len(tt.statuses) {
				t.Errorf("expected %d indicators, got %d", len(tt.statuses), len(report.Indicators))
			}
			if report.ID == "" {
				t.Error("expected a report id")
			}
		})
	}
}

func TestMonitor_RegisterDuplicate(t *testing.T) {
	m := NewMonitor(MonitorConfig{})
	if err := m.Register(&stubIndicator{name: "slm"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := m.Register(&stubIndicator{name: "slm"}); !errors.Is(err, ErrIndicatorExists) {
		t.Errorf("expected ErrIndicatorExists, got %v", err)
	}
}

func TestMonitor_IndicatorErrorIsUnknown(t *testing.T) {
	m := NewMonitor(MonitorConfig{})
	_ = m.Register(&stubIndicator{name: "slm", err: errors.New("state unavailable")})

	report := m.CheckHealth(context.Background(), false)
	rep := report.Indicators["slm"]

	if rep.Status != StatusUnknown {
		t.Errorf("expected unknown, got %s", rep.Status)
	}
	if rep.HelpURL != "https://example.com/slm" {
		t.Errorf("expected help url from indicator, got %q", rep.HelpURL)
	}
	if report.Status != StatusUnknown {
		t.Errorf("expected overall unknown, got %s", report.Status)
	}
}

func TestMonitor_CachesNonExplainReports(t *testing.T) {
	ind := &stubIndicator{name: "slm", status: StatusGreen}
	m := NewMonitor(MonitorConfig{CacheInterval: time.Minute})
	_ = m.Register(ind)

	now := time.Now()
	m.now = func() time.Time { return now }

	first := m.CheckHealth(context.Background(), false)
	second := m.CheckHealth(context.Background(), false)
	if first != second || ind.calls.Load() != 1 {
		t.Errorf("expected cached report, calls = %d", ind.calls.Load())
	}

	// Explain requests always evaluate fresh.
	verbose := m.CheckHealth(context.Background(), true)
	if ind.calls.Load() != 2 {
		t.Errorf("explain should bypass cache, calls = %d", ind.calls.Load())
	}
	if verbose.Indicators["slm"].Details["explained"] != true {
		t.Error("expected details in explain report")
	}

	now = now.Add(2 * time.Minute)
	third := m.CheckHealth(context.Background(), false)
	if third == first || ind.calls.Load() != 3 {
		t.Errorf("expected fresh report after cache interval, calls = %d", ind.calls.Load())
	}
}

func TestMonitor_CheckIndicator(t *testing.T) {
	m := NewMonitor(MonitorConfig{})
	_ = m.Register(&stubIndicator{name: "slm", status: StatusYellow})

	rep, err := m.CheckIndicator(context.Background(), "slm", true)
	if err != nil {
		t.Fatalf("CheckIndicator failed: %v", err)
	}
	if rep.Status != StatusYellow || rep.Component != "test" {
		t.Errorf("unexpected report %+v", rep)
	}

	if _, err := m.CheckIndicator(context.Background(), "nope", false); !errors.Is(err, ErrIndicatorNotFound) {
		t.Errorf("expected ErrIndicatorNotFound, got %v", err)
	}
}

func TestPingIndicator(t *testing.T) {
	ok := NewPingIndicator("postgres", "storage", "https://example.com/pg", &stubPinger{})
	res, err := ok.Calculate(context.Background(), true)
	if err != nil || res.Status != StatusGreen {
		t.Errorf("expected green, got %s (%v)", res.Status, err)
	}

	down := NewPingIndicator("postgres", "storage", "https://example.com/pg", &stubPinger{err: errors.New("dial tcp: refused")})
	res, err = down.Calculate(context.Background(), true)
	if err != nil {
		t.Fatalf("ping failures must not be errors: %v", err)
	}
	if res.Status != StatusRed {
		t.Errorf("expected red, got %s", res.Status)
	}
	if len(res.Actions) != 1 || res.Actions[0].Definition.ID != "postgres-unreachable" {
		t.Errorf("unexpected actions %+v", res.Actions)
	}
	if res.Details["error"] != "dial tcp: refused" {
		t.Errorf("expected error in details, got %v", res.Details)
	}
}

func TestStatus_Ordering(t *testing.T) {
	if StatusGreen.Worse(StatusRed) != StatusRed {
		t.Error("red should be worse than green")
	}
	if StatusRed.Worse(StatusYellow) != StatusRed {
		t.Error("red should stay red")
	}
	if StatusYellow.Label() != "degraded" || StatusRed.Label() != "critical" || StatusGreen.Label() != "healthy" {
		t.Error("unexpected labels")
	}
}

func TestStatus_UnmarshalJSON(t *testing.T) {
	var s Status
	if err := s.UnmarshalJSON([]byte(`"RED"`)); err != nil || s != StatusRed {
		t.Errorf("expected red, got %s (%v)", s, err)
	}
	if err := s.UnmarshalJSON([]byte(`"purple"`)); err == nil {
		t.Error("expected error for invalid status")
	}
}
