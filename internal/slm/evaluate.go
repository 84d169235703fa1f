package slm

import (
	"fmt"
	"strings"

	"github.com/vietddude/slmhealth/internal/core/domain"
	"github.com/vietddude/slmhealth/internal/health"
)

const (
	// Name is the stable identifier of the SLM indicator.
	Name = "slm"

	// Component groups the indicator with other snapshot indicators.
	Component = "snapshot"

	// HelpURL is where operators find remediation documentation.
	HelpURL = "https://ela.st/fix-slm"

	ActionNotRunningID  = "slm-not-running"
	ActionCheckPolicyID = "slm-check-policy"
)

// NotRunningAction tells operators to start the scheduler.
var NotRunningAction = health.Action{
	Definition: health.ActionDefinition{
		ID:      ActionNotRunningID,
		Cause:   "Snapshot Lifecycle Management is not running.",
		Action:  "Start SLM using [POST /_slm/start].",
		HelpURL: HelpURL,
	},
}

func notRunningImpact() health.Impact {
	return health.Impact{
		Severity:    3,
		Description: "Scheduled snapshots are not running. New backup snapshots will not be created automatically.",
		Areas:       []health.ImpactArea{health.AreaBackup},
	}
}

// breach is a policy whose last failure trails its last success by more than a threshold.
type breach struct {
	name   string
	status health.Status
	gap    int64
	policy domain.PolicyStatus
}

// Evaluate derives the SLM health result from a point-in-time lifecycle state.
//
// It is a pure function of its arguments: it neither mutates state nor keeps
// anything between calls. Invalid thresholds fall back to DefaultThresholds.
func Evaluate(state *domain.LifecycleState, explain bool, th Thresholds) health.Result {
	if th.Validate() != nil {
		th = DefaultThresholds()
	}

	if state == nil || len(state.Policies) == 0 {
		return newResult(health.StatusGreen, "No SLM policies configured", details(explain, state, nil), nil, nil)
	}

	if effectiveMode(state) != domain.OperationModeRunning {
		return newResult(
			health.StatusYellow,
			"SLM is not running",
			details(explain, state, nil),
			[]health.Impact{notRunningImpact()},
			[]health.Action{NotRunningAction},
		)
	}

	breaches := findBreaches(state, th)
	if len(breaches) == 0 {
		return newResult(health.StatusGreen, "SLM is running", details(explain, state, nil), nil, nil)
	}

	status := health.StatusGreen
	for _, b := range breaches {
		status = status.Worse(b.status)
	}

	return newResult(
		status,
		summarize(breaches, status, th),
		details(explain, state, breaches),
		impacts(breaches),
		[]health.Action{checkPolicyAction(breaches)},
	)
}

// effectiveMode treats a missing mode as RUNNING, the scheduler default.
func effectiveMode(state *domain.LifecycleState) domain.OperationMode {
	if state == nil || state.OperationMode == "" {
		return domain.OperationModeRunning
	}
	return state.OperationMode
}

// findBreaches visits policies in name order and collects every threshold breach.
// Policies missing either timestamp are skipped; a non-positive gap is healthy.
func findBreaches(state *domain.LifecycleState, th Thresholds) []breach {
	red := th.Red.Milliseconds()
	yellow := th.Yellow.Milliseconds()

	var out []breach
	for _, name := range state.PolicyNames() {
		p := state.Policies[name]
		if p.LastSuccess == nil || p.LastFailure == nil {
			continue
		}

		gap := p.LastFailure.Timestamp - p.LastSuccess.Timestamp
		switch {
		case gap > red:
			out = append(out, breach{name: name, status: health.StatusRed, gap: gap, policy: p})
		case gap > yellow:
			out = append(out, breach{name: name, status: health.StatusYellow, gap: gap, policy: p})
		}
	}
	return out
}

func summarize(breaches []breach, status health.Status, th Thresholds) string {
	threshold := th.Yellow
	if status == health.StatusRed {
		threshold = th.Red
	}

	names := namesWithStatus(breaches, status)
	if len(names) == 1 {
		return fmt.Sprintf(
			"The following configured snapshot policy's last success time exceeds the threshold of %d milliseconds: %s",
			threshold.Milliseconds(), names[0],
		)
	}
	return fmt.Sprintf(
		"The following configured snapshot policies' last success time exceeds the threshold of %d milliseconds: %s",
		threshold.Milliseconds(), strings.Join(names, ", "),
	)
}

func impacts(breaches []breach) []health.Impact {
	var out []health.Impact

	if red := namesWithStatus(breaches, health.StatusRed); len(red) > 0 {
		out = append(out, health.Impact{
			Severity: 2,
			Description: fmt.Sprintf(
				"Automated snapshots for policies [%s] have not succeeded for a long time. Restoring from these snapshots may lose a significant amount of data.",
				strings.Join(red, ", "),
			),
			Areas: []health.ImpactArea{health.AreaBackup},
		})
	}
	if yellow := namesWithStatus(breaches, health.StatusYellow); len(yellow) > 0 {
		out = append(out, health.Impact{
			Severity: 3,
			Description: fmt.Sprintf(
				"Automated snapshots for policies [%s] have not succeeded recently. The latest snapshots may not contain recent changes.",
				strings.Join(yellow, ", "),
			),
			Areas: []health.ImpactArea{health.AreaBackup},
		})
	}
	return out
}

func checkPolicyAction(breaches []breach) health.Action {
	names := make([]string, 0, len(breaches))
	for _, b := range breaches {
		names = append(names, b.name)
	}
	return health.Action{
		Definition: health.ActionDefinition{
			ID:      ActionCheckPolicyID,
			Cause:   "Automated snapshots are failing for some snapshot lifecycle policies.",
			Action:  "Check the last failure of the affected policies using [GET /_slm/policy/<policy_id>?human] and fix its cause.",
			HelpURL: HelpURL,
		},
		AffectedResources: names,
	}
}

func namesWithStatus(breaches []breach, status health.Status) []string {
	var names []string
	for _, b := range breaches {
		if b.status == status {
			names = append(names, b.name)
		}
	}
	return names
}

func details(explain bool, state *domain.LifecycleState, breaches []breach) map[string]any {
	if !explain {
		return nil
	}

	count := 0
	if state != nil {
		count = len(state.Policies)
	}
	d := map[string]any{
		"operation_mode": string(effectiveMode(state)),
		"policy_count":   count,
	}

	if len(breaches) > 0 {
		unhealthy := make([]map[string]any, 0, len(breaches))
		for _, b := range breaches {
			entry := map[string]any{
				"policy":       b.name,
				"status":       string(b.status),
				"last_success": b.policy.LastSuccess.Timestamp,
				"last_failure": b.policy.LastFailure.Timestamp,
				"gap_millis":   b.gap,
			}
			if b.policy.LastFailure.SnapshotName != "" {
				entry["snapshot"] = b.policy.LastFailure.SnapshotName
			}
			if b.policy.LastFailure.Details != "" {
				entry["failure"] = b.policy.LastFailure.Details
			}
			unhealthy = append(unhealthy, entry)
		}
		d["unhealthy_policies"] = unhealthy
	}
	return d
}

func newResult(
	status health.Status,
	summary string,
	det map[string]any,
	imps []health.Impact,
	acts []health.Action,
) health.Result {
	return health.Result{
		Name:    Name,
		Status:  status,
		Summary: summary,
		Details: det,
		Impacts: imps,
		Actions: acts,
		HelpURL: HelpURL,
	}
}
