package opmode

import (
	"errors"
	"testing"

	"github.com/vietddude/slmhealth/internal/core/domain"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     Mode
		to       Mode
		expected bool
	}{
		{"running to stopping", domain.OperationModeRunning, domain.OperationModeStopping, true},
		{"running to stopped", domain.OperationModeRunning, domain.OperationModeStopped, false},
		{"stopping to stopped", domain.OperationModeStopping, domain.OperationModeStopped, true},
		{"stopping to running", domain.OperationModeStopping, domain.OperationModeRunning, true},
		{"stopped to running", domain.OperationModeStopped, domain.OperationModeRunning, true},
		{"stopped to stopping", domain.OperationModeStopped, domain.OperationModeStopping, false},
		{"running to running", domain.OperationModeRunning, domain.OperationModeRunning, true},
		{"unknown to running", "PAUSED", domain.OperationModeRunning, false},
		{"unknown to unknown", "PAUSED", "PAUSED", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	if err := Check("", domain.OperationModeStopping); err != nil {
		t.Errorf("empty mode should behave as running, got %v", err)
	}

	err := Check(domain.OperationModeRunning, domain.OperationModeStopped)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"running", domain.OperationModeRunning, false},
		{"RUNNING", domain.OperationModeRunning, false},
		{"start", domain.OperationModeRunning, false},
		{" Stopping ", domain.OperationModeStopping, false},
		{"stop", domain.OperationModeStopped, false},
		{"stopped", domain.OperationModeStopped, false},
		{"paused", "", true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownMode) {
				t.Errorf("Parse(%q) expected ErrUnknownMode, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Parse(%q) = %s, %v; want %s", tt.in, got, err, tt.want)
		}
	}
}

func TestTransition_IsValid(t *testing.T) {
	tr := NewTransition(domain.OperationModeRunning, domain.OperationModeStopping, "maintenance")
	if !tr.IsValid() {
		t.Error("expected running -> stopping to be valid")
	}
	if tr.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}

	bad := NewTransition(domain.OperationModeStopped, domain.OperationModeStopping, "")
	if bad.IsValid() {
		t.Error("expected stopped -> stopping to be invalid")
	}
}

func TestDescribe(t *testing.T) {
	if Describe(domain.OperationModeStopped) == Describe(domain.OperationModeRunning) {
		t.Error("expected distinct descriptions")
	}
	if Describe("bogus") != "Unknown mode" {
		t.Errorf("unexpected description for unknown mode: %s", Describe("bogus"))
	}
}
