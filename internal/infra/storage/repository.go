package storage

import (
	"context"
	"errors"

	"github.com/vietddude/slmhealth/internal/core/domain"
)

var (
	// ErrPolicyNotFound is returned when a policy doesn't exist
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrInvalidPolicy is returned when a policy cannot be stored
	ErrInvalidPolicy = errors.New("invalid policy")
)

// LifecycleRepository stores snapshot lifecycle metadata.
//
// The scheduler writes into it; health indicators only call State.
type LifecycleRepository interface {
	// State returns a point-in-time copy of the metadata
	State(ctx context.Context) (*domain.LifecycleState, error)

	// SetOperationMode changes the scheduler mode (validates transition)
	SetOperationMode(ctx context.Context, mode domain.OperationMode) error

	// PutPolicy creates or replaces a policy record
	PutPolicy(ctx context.Context, policy domain.PolicyStatus) error

	// DeletePolicy removes a policy
	DeletePolicy(ctx context.Context, name string) error

	// RecordSuccess stores the latest successful invocation of a policy
	RecordSuccess(ctx context.Context, name string, inv domain.SnapshotInvocation) error

	// RecordFailure stores the latest failed invocation of a policy
	RecordFailure(ctx context.Context, name string, inv domain.SnapshotInvocation) error

	// Ping checks the backend is reachable
	Ping(ctx context.Context) error

	// Close releases backend resources
	Close() error
}
