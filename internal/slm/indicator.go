// Package slm reports the health of snapshot lifecycle management.
//
// The indicator is YELLOW when SLM is not running while policies are configured,
// since data might not be backed up timely. It is YELLOW or RED when a policy's
// last failure trails its last success by more than the configured thresholds.
package slm

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/slmhealth/internal/core/domain"
	"github.com/vietddude/slmhealth/internal/health"
	"github.com/vietddude/slmhealth/internal/metrics"
)

// StateProvider returns a point-in-time view of the lifecycle metadata.
// Implementations must return a state the caller may read without locking.
type StateProvider interface {
	State(ctx context.Context) (*domain.LifecycleState, error)
}

// Indicator is the SLM health indicator.
type Indicator struct {
	provider   StateProvider
	thresholds Thresholds
}

// NewIndicator creates the SLM indicator. Zero thresholds take the defaults.
func NewIndicator(provider StateProvider, thresholds Thresholds) *Indicator {
	return &Indicator{
		provider:   provider,
		thresholds: thresholds.WithDefaults(),
	}
}

func (i *Indicator) Name() string      { return Name }
func (i *Indicator) Component() string { return Component }
func (i *Indicator) HelpURL() string   { return HelpURL }

// Thresholds returns the thresholds the indicator evaluates with.
func (i *Indicator) Thresholds() Thresholds { return i.thresholds }

// Calculate reads the current state and evaluates it.
func (i *Indicator) Calculate(ctx context.Context, explain bool) (health.Result, error) {
	state, err := i.provider.State(ctx)
	if err != nil {
		return health.Result{}, fmt.Errorf("failed to read lifecycle state: %w", err)
	}

	observe(state)
	return Evaluate(state, explain, i.thresholds), nil
}

// observe exports per-policy gauges. It only reads state. Series for policies
// that were deleted or lost a timestamp are dropped.
func observe(state *domain.LifecycleState) {
	metrics.PolicyFailureGap.Reset()
	if state == nil {
		metrics.PoliciesConfigured.Set(0)
		return
	}

	metrics.PoliciesConfigured.Set(float64(len(state.Policies)))
	for name, p := range state.Policies {
		if p.LastSuccess == nil || p.LastFailure == nil {
			continue
		}
		gap := time.Duration(p.LastFailure.Timestamp-p.LastSuccess.Timestamp) * time.Millisecond
		metrics.PolicyFailureGap.WithLabelValues(name).Set(gap.Seconds())
	}
}

var _ health.Indicator = (*Indicator)(nil)
