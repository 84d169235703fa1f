package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/vietddude/slmhealth/internal/health"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubChecker struct {
	mu      sync.Mutex
	reports []*health.Report
	calls   int
}

func (s *stubChecker) CheckHealth(ctx context.Context, explain bool) *health.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.reports[min(s.calls, len(s.reports)-1)]
	s.calls++
	return r
}

func (s *stubChecker) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func report(status health.Status) *health.Report {
	return &health.Report{
		Status: status,
		Indicators: map[string]health.IndicatorReport{
			"slm": {Result: health.Result{Status: status}},
		},
	}
}

func TestPoller_PollNotifiesObservers(t *testing.T) {
	checker := &stubChecker{reports: []*health.Report{
		report(health.StatusGreen),
		report(health.StatusRed),
		report(health.StatusGreen),
	}}

	var seen []health.Status
	p := NewPoller(checker, time.Hour, func(r *health.Report) { seen = append(seen, r.Status) })

	for i := 0; i < 3; i++ {
		p.Poll(context.Background())
	}

	want := []health.Status{health.StatusGreen, health.StatusRed, health.StatusGreen}
	if len(seen) != len(want) {
		t.Fatalf("expected %d observations, got %d", len(want), len(seen))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("observation %d: expected %s, got %s", i, want[i], seen[i])
		}
	}
	if p.last["slm"] != health.StatusGreen {
		t.Errorf("expected last status green, got %s", p.last["slm"])
	}
}

func TestPoller_StartStopsOnCancel(t *testing.T) {
	checker := &stubChecker{reports: []*health.Report{report(health.StatusYellow)}}
	p := NewPoller(checker, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for checker.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}
	if checker.count() < 2 {
		t.Errorf("expected at least 2 polls, got %d", checker.count())
	}
}

func TestNewPoller_DefaultInterval(t *testing.T) {
	p := NewPoller(&stubChecker{}, 0)
	if p.interval != 30*time.Second {
		t.Errorf("expected 30s default, got %s", p.interval)
	}
}
