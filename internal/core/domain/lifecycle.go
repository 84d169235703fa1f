package domain

import "sort"

// OperationMode is the run mode of the snapshot lifecycle scheduler.
type OperationMode string

const (
	OperationModeRunning  OperationMode = "RUNNING"
	OperationModeStopping OperationMode = "STOPPING"
	OperationModeStopped  OperationMode = "STOPPED"
)

// IsValid reports whether m is one of the known modes.
func (m OperationMode) IsValid() bool {
	switch m {
	case OperationModeRunning, OperationModeStopping, OperationModeStopped:
		return true
	}
	return false
}

// SnapshotInvocation records a single snapshot attempt made by a policy.
type SnapshotInvocation struct {
	SnapshotName string `json:"snapshot_name"           yaml:"snapshot_name"`
	Timestamp    int64  `json:"timestamp"               yaml:"timestamp"` // epoch millis
	Details      string `json:"details,omitempty"       yaml:"details,omitempty"`
}

// PolicyStatus is the execution record of a snapshot lifecycle policy.
//
// LastSuccess carries the start time of the last successful snapshot,
// LastFailure the finish time of the last failed one. Either may be nil.
type PolicyStatus struct {
	Name        string              `json:"name"                   yaml:"name"`
	LastSuccess *SnapshotInvocation `json:"last_success,omitempty" yaml:"last_success,omitempty"`
	LastFailure *SnapshotInvocation `json:"last_failure,omitempty" yaml:"last_failure,omitempty"`
}

// Clone returns a deep copy of the policy status.
func (p PolicyStatus) Clone() PolicyStatus {
	c := PolicyStatus{Name: p.Name}
	if p.LastSuccess != nil {
		s := *p.LastSuccess
		c.LastSuccess = &s
	}
	if p.LastFailure != nil {
		f := *p.LastFailure
		c.LastFailure = &f
	}
	return c
}

// LifecycleState is a point-in-time view of the snapshot lifecycle metadata.
type LifecycleState struct {
	OperationMode OperationMode           `json:"operation_mode" yaml:"operation_mode"`
	Policies      map[string]PolicyStatus `json:"policies"       yaml:"policies"`
}

// PolicyNames returns the configured policy names in lexicographic order.
func (s *LifecycleState) PolicyNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Policies))
	for name := range s.Policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy that shares nothing with s.
func (s *LifecycleState) Clone() *LifecycleState {
	if s == nil {
		return nil
	}
	c := &LifecycleState{
		OperationMode: s.OperationMode,
		Policies:      make(map[string]PolicyStatus, len(s.Policies)),
	}
	for name, p := range s.Policies {
		c.Policies[name] = p.Clone()
	}
	return c
}
