// Package health provides health indicators and the reporting facility that polls them.
package health

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status represents the health state of an indicator or of the whole system.
type Status string

const (
	StatusGreen   Status = "green"
	StatusUnknown Status = "unknown"
	StatusYellow  Status = "yellow"
	StatusRed     Status = "red"
)

// Severity orders statuses: green < unknown < yellow < red.
func (s Status) Severity() int {
	switch s {
	case StatusGreen:
		return 0
	case StatusUnknown:
		return 1
	case StatusYellow:
		return 2
	case StatusRed:
		return 3
	default:
		return 1
	}
}

// Worse returns the more severe of s and other.
func (s Status) Worse(other Status) Status {
	if other.Severity() > s.Severity() {
		return other
	}
	return s
}

// Label returns the conventional healthy/degraded/critical naming of the status.
func (s Status) Label() string {
	switch s {
	case StatusGreen:
		return "healthy"
	case StatusYellow:
		return "degraded"
	case StatusRed:
		return "critical"
	default:
		return "unknown"
	}
}

// UnmarshalJSON accepts statuses in any letter case.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st := Status(strings.ToLower(raw))
	switch st {
	case StatusGreen, StatusUnknown, StatusYellow, StatusRed:
		*s = st
		return nil
	}
	return fmt.Errorf("invalid health status %q", raw)
}

// ImpactArea is the functional area an impact affects.
type ImpactArea string

const (
	AreaSearch               ImpactArea = "search"
	AreaIngest               ImpactArea = "ingest"
	AreaBackup               ImpactArea = "backup"
	AreaDeploymentManagement ImpactArea = "deployment_management"
)

// Impact describes an operational consequence of an unhealthy indicator.
// Severity 1 is the most severe.
type Impact struct {
	Severity    int          `json:"severity"`
	Description string       `json:"description"`
	Areas       []ImpactArea `json:"impact_areas"`
}

// ActionDefinition is a stable, documented remediation step.
type ActionDefinition struct {
	ID      string `json:"id"`
	Cause   string `json:"cause,omitempty"`
	Action  string `json:"action"`
	HelpURL string `json:"help_url"`
}

// Action is a remediation suggestion, optionally scoped to affected resources.
type Action struct {
	Definition        ActionDefinition `json:"definition"`
	AffectedResources []string         `json:"affected_resources,omitempty"`
}

// Result is what an indicator produces for a single evaluation.
type Result struct {
	Name    string         `json:"-"`
	Status  Status         `json:"status"`
	Summary string         `json:"symptom"`
	Details map[string]any `json:"details,omitempty"`
	Impacts []Impact       `json:"impacts,omitempty"`
	Actions []Action       `json:"diagnosis,omitempty"`
	HelpURL string         `json:"help_url,omitempty"`
}
