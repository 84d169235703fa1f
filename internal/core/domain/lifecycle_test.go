package domain

import (
	"reflect"
	"testing"
)

func TestLifecycleState_PolicyNamesSorted(t *testing.T) {
	s := &LifecycleState{
		Policies: map[string]PolicyStatus{
			"weekly":  {Name: "weekly"},
			"daily":   {Name: "daily"},
			"monthly": {Name: "monthly"},
		},
	}

	got := s.PolicyNames()
	want := []string{"daily", "monthly", "weekly"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PolicyNames() = %v, want %v", got, want)
	}

	var nilState *LifecycleState
	if names := nilState.PolicyNames(); len(names) != 0 {
		t.Errorf("expected no names for nil state, got %v", names)
	}
}

func TestLifecycleState_CloneIsDeep(t *testing.T) {
	orig := &LifecycleState{
		OperationMode: OperationModeRunning,
		Policies: map[string]PolicyStatus{
			"daily": {
				Name:        "daily",
				LastSuccess: &SnapshotInvocation{SnapshotName: "snap-1", Timestamp: 100},
				LastFailure: &SnapshotInvocation{SnapshotName: "snap-2", Timestamp: 200},
			},
		},
	}

	c := orig.Clone()
	c.OperationMode = OperationModeStopped
	c.Policies["daily"].LastSuccess.Timestamp = 999
	c.Policies["hourly"] = PolicyStatus{Name: "hourly"}

	if orig.OperationMode != OperationModeRunning {
		t.Errorf("operation mode leaked into original: %s", orig.OperationMode)
	}
	if orig.Policies["daily"].LastSuccess.Timestamp != 100 {
		t.Errorf("invocation leaked into original: %d", orig.Policies["daily"].LastSuccess.Timestamp)
	}
	if _, ok := orig.Policies["hourly"]; ok {
		t.Error("policy map shared between clone and original")
	}
}

func TestOperationMode_IsValid(t *testing.T) {
	tests := []struct {
		mode OperationMode
		want bool
	}{
		{OperationModeRunning, true},
		{OperationModeStopping, true},
		{OperationModeStopped, true},
		{"", false},
		{"running", false},
	}

	for _, tt := range tests {
		if got := tt.mode.IsValid(); got != tt.want {
			t.Errorf("%q.IsValid() = %v, want %v", tt.mode, got, tt.want)
		}
	}
}
