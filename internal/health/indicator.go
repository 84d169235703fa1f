package health

import (
	"context"
	"fmt"
)

// Indicator is a named, polled status check contributing to the aggregate health view.
type Indicator interface {
	// Name is the stable identifier of the indicator, e.g. "slm".
	Name() string

	// Component is the logical grouping the indicator belongs to, e.g. "snapshot".
	Component() string

	// HelpURL points operators at documentation for fixing the indicator.
	HelpURL() string

	// Calculate evaluates the indicator. An error means the input could not be
	// obtained; the facility reports such indicators as unknown.
	Calculate(ctx context.Context, explain bool) (Result, error)
}

// Pinger is anything with a connectivity check, such as a database or Redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingIndicator reports red when its backend cannot be reached.
type PingIndicator struct {
	name      string
	component string
	helpURL   string
	pinger    Pinger
}

// NewPingIndicator creates an indicator backed by a connectivity check.
func NewPingIndicator(name, component, helpURL string, pinger Pinger) *PingIndicator {
	return &PingIndicator{
		name:      name,
		component: component,
		helpURL:   helpURL,
		pinger:    pinger,
	}
}

func (p *PingIndicator) Name() string      { return p.name }
func (p *PingIndicator) Component() string { return p.component }
func (p *PingIndicator) HelpURL() string   { return p.helpURL }

// Calculate pings the backend. A failed ping is a red result, not an error:
// the indicator's job is to report reachability.
func (p *PingIndicator) Calculate(ctx context.Context, explain bool) (Result, error) {
	err := p.pinger.Ping(ctx)
	if err == nil {
		return Result{
			Name:    p.name,
			Status:  StatusGreen,
			Summary: fmt.Sprintf("%s is reachable", p.name),
			HelpURL: p.helpURL,
		}, nil
	}

	res := Result{
		Name:    p.name,
		Status:  StatusRed,
		Summary: fmt.Sprintf("%s is unreachable", p.name),
		HelpURL: p.helpURL,
		Impacts: []Impact{{
			Severity:    1,
			Description: "Snapshot lifecycle state cannot be read. Backup health cannot be determined.",
			Areas:       []ImpactArea{AreaBackup},
		}},
		Actions: []Action{{
			Definition: ActionDefinition{
				ID:      p.name + "-unreachable",
				Cause:   fmt.Sprintf("The %s backend did not answer a ping.", p.name),
				Action:  fmt.Sprintf("Check connectivity and credentials for %s.", p.name),
				HelpURL: p.helpURL,
			},
		}},
	}
	if explain {
		res.Details = map[string]any{"error": err.Error()}
	}
	return res, nil
}
