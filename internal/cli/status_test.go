package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vietddude/slmhealth/internal/core/domain"
	"github.com/vietddude/slmhealth/internal/health"
)

func TestPrintReport(t *testing.T) {
	report := &health.Report{
		Status: health.StatusRed,
		Indicators: map[string]health.IndicatorReport{
			"slm": {
				Component: "snapshot",
				Result: health.Result{
					Status:  health.StatusRed,
					Summary: "An automated snapshot policy is unhealthy",
					Details: map[string]any{"policy_count": 1},
					Impacts: []health.Impact{{Severity: 2, Description: "Backups are failing"}},
					Actions: []health.Action{{
						Definition:        health.ActionDefinition{ID: "slm-check-policy", Cause: "Failing.", Action: "Check."},
						AffectedResources: []string{"daily"},
					}},
				},
			},
		},
	}

	var buf bytes.Buffer
	printReport(&buf, report, false)
	out := buf.String()
	if !strings.Contains(out, "slm") || !strings.Contains(out, "RED") {
		t.Errorf("expected indicator row, got:\n%s", out)
	}
	if strings.Contains(out, "slm-check-policy") {
		t.Error("diagnosis should only be printed with explain")
	}

	buf.Reset()
	printReport(&buf, report, true)
	out = buf.String()
	for _, want := range []string{"policy_count", "severity 2", "slm-check-policy", "affected: daily"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestFormatInvocation(t *testing.T) {
	if got := formatInvocation(nil); got != "-" {
		t.Errorf("expected -, got %q", got)
	}
	if got := formatInvocation(&domain.SnapshotInvocation{Timestamp: 5}); got != "5" {
		t.Errorf("expected 5, got %q", got)
	}
	if got := formatInvocation(&domain.SnapshotInvocation{Timestamp: 5, SnapshotName: "s"}); got != "5 (s)" {
		t.Errorf("expected 5 (s), got %q", got)
	}
}
