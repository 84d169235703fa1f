package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/slmhealth/internal/core/domain"
	"github.com/vietddude/slmhealth/internal/core/opmode"
	"github.com/vietddude/slmhealth/internal/infra/storage"
)

// LifecycleRepo keeps lifecycle metadata in process memory.
type LifecycleRepo struct {
	state *domain.LifecycleState
	mu    sync.RWMutex
}

func NewLifecycleRepo() *LifecycleRepo {
	return &LifecycleRepo{
		state: &domain.LifecycleState{
			OperationMode: domain.OperationModeRunning,
			Policies:      make(map[string]domain.PolicyStatus),
		},
	}
}

// seedFile is the on-disk layout of a state file.
type seedFile struct {
	OperationMode domain.OperationMode  `yaml:"operation_mode"`
	Policies      []domain.PolicyStatus `yaml:"policies"`
}

// LoadStateFile creates a repository seeded from a YAML state file.
func LoadStateFile(path string) (*LifecycleRepo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &seed); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	r := NewLifecycleRepo()
	if seed.OperationMode != "" {
		if !seed.OperationMode.IsValid() {
			return nil, fmt.Errorf("state file: %w: %q", opmode.ErrUnknownMode, seed.OperationMode)
		}
		r.state.OperationMode = seed.OperationMode
	}
	for _, p := range seed.Policies {
		if p.Name == "" {
			return nil, fmt.Errorf("state file: %w: policy without name", storage.ErrInvalidPolicy)
		}
		r.state.Policies[p.Name] = p.Clone()
	}
	return r, nil
}

// SaveStateFile writes the current state to path in the LoadStateFile layout.
func (r *LifecycleRepo) SaveStateFile(path string) error {
	r.mu.RLock()
	seed := seedFile{OperationMode: r.state.OperationMode}
	for _, name := range r.state.PolicyNames() {
		seed.Policies = append(seed.Policies, r.state.Policies[name].Clone())
	}
	r.mu.RUnlock()

	data, err := yaml.Marshal(seed)
	if err != nil {
		return fmt.Errorf("failed to marshal state file: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

func (r *LifecycleRepo) State(ctx context.Context) (*domain.LifecycleState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Clone(), nil
}

func (r *LifecycleRepo) SetOperationMode(ctx context.Context, mode domain.OperationMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := opmode.Check(r.state.OperationMode, mode); err != nil {
		return err
	}
	r.state.OperationMode = mode
	return nil
}

func (r *LifecycleRepo) PutPolicy(ctx context.Context, policy domain.PolicyStatus) error {
	if policy.Name == "" {
		return fmt.Errorf("%w: empty name", storage.ErrInvalidPolicy)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Policies[policy.Name] = policy.Clone()
	return nil
}

func (r *LifecycleRepo) DeletePolicy(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.state.Policies[name]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrPolicyNotFound, name)
	}
	delete(r.state.Policies, name)
	return nil
}

func (r *LifecycleRepo) RecordSuccess(ctx context.Context, name string, inv domain.SnapshotInvocation) error {
	return r.update(name, func(p *domain.PolicyStatus) { p.LastSuccess = &inv })
}

func (r *LifecycleRepo) RecordFailure(ctx context.Context, name string, inv domain.SnapshotInvocation) error {
	return r.update(name, func(p *domain.PolicyStatus) { p.LastFailure = &inv })
}

func (r *LifecycleRepo) update(name string, fn func(p *domain.PolicyStatus)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state.Policies[name]
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrPolicyNotFound, name)
	}
	fn(&p)
	r.state.Policies[name] = p
	return nil
}

func (r *LifecycleRepo) Ping(ctx context.Context) error { return nil }

func (r *LifecycleRepo) Close() error { return nil }

var _ storage.LifecycleRepository = (*LifecycleRepo)(nil)
