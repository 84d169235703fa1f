package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/slmhealth/internal/core/domain"
	"github.com/vietddude/slmhealth/internal/core/opmode"
	"github.com/vietddude/slmhealth/internal/infra/storage"
)

// LifecycleRepo implements storage.LifecycleRepository using Redis.
//
// The operation mode lives in a string key; policies live in a hash of
// name -> JSON-encoded domain.PolicyStatus.
type LifecycleRepo struct {
	client *Client
}

// NewLifecycleRepo creates a new Redis-backed lifecycle repository.
func NewLifecycleRepo(client *Client) *LifecycleRepo {
	return &LifecycleRepo{client: client}
}

// State reads mode and policies inside one MULTI block.
func (r *LifecycleRepo) State(ctx context.Context) (*domain.LifecycleState, error) {
	var modeCmd *redis.StringCmd
	var policiesCmd *redis.MapStringStringCmd

	_, err := r.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		modeCmd = pipe.Get(ctx, r.client.modeKey())
		policiesCmd = pipe.HGetAll(ctx, r.client.policiesKey())
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read lifecycle state: %w", err)
	}

	mode, err := modeCmd.Result()
	if errors.Is(err, redis.Nil) {
		mode = string(domain.OperationModeRunning)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get operation mode: %w", err)
	}

	raw, err := policiesCmd.Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get policies: %w", err)
	}

	state := &domain.LifecycleState{
		OperationMode: domain.OperationMode(mode),
		Policies:      make(map[string]domain.PolicyStatus, len(raw)),
	}
	for name, data := range raw {
		var p domain.PolicyStatus
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			// Unreadable entries carry no usable timestamps.
			p = domain.PolicyStatus{}
		}
		p.Name = name
		state.Policies[name] = p
	}
	return state, nil
}

// SetOperationMode updates the mode under WATCH; a concurrent change aborts the update.
func (r *LifecycleRepo) SetOperationMode(ctx context.Context, mode domain.OperationMode) error {
	key := r.client.modeKey()
	err := r.client.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to get operation mode: %w", err)
		}
		if err := opmode.Check(domain.OperationMode(current), mode); err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, string(mode), 0)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("operation mode changed concurrently: %w", err)
	}
	return err
}

// PutPolicy creates or replaces a policy record.
func (r *LifecycleRepo) PutPolicy(ctx context.Context, policy domain.PolicyStatus) error {
	if policy.Name == "" {
		return fmt.Errorf("%w: empty name", storage.ErrInvalidPolicy)
	}

	data, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to marshal policy: %w", err)
	}
	if err := r.client.rdb.HSet(ctx, r.client.policiesKey(), policy.Name, data).Err(); err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	return nil
}

// DeletePolicy removes a policy.
func (r *LifecycleRepo) DeletePolicy(ctx context.Context, name string) error {
	n, err := r.client.rdb.HDel(ctx, r.client.policiesKey(), name).Result()
	if err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrPolicyNotFound, name)
	}
	return nil
}

// RecordSuccess stores the latest successful invocation of a policy.
func (r *LifecycleRepo) RecordSuccess(ctx context.Context, name string, inv domain.SnapshotInvocation) error {
	return r.update(ctx, name, func(p *domain.PolicyStatus) { p.LastSuccess = &inv })
}

// RecordFailure stores the latest failed invocation of a policy.
func (r *LifecycleRepo) RecordFailure(ctx context.Context, name string, inv domain.SnapshotInvocation) error {
	return r.update(ctx, name, func(p *domain.PolicyStatus) { p.LastFailure = &inv })
}

func (r *LifecycleRepo) update(ctx context.Context, name string, fn func(p *domain.PolicyStatus)) error {
	key := r.client.policiesKey()
	return r.client.rdb.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.HGet(ctx, key, name).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s", storage.ErrPolicyNotFound, name)
		}
		if err != nil {
			return fmt.Errorf("failed to get policy: %w", err)
		}

		var p domain.PolicyStatus
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("failed to unmarshal policy: %w", err)
		}
		p.Name = name
		fn(&p)

		newData, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal policy: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, name, newData)
			return nil
		})
		return err
	}, key)
}

func (r *LifecycleRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

func (r *LifecycleRepo) Close() error {
	return r.client.Close()
}

var _ storage.LifecycleRepository = (*LifecycleRepo)(nil)
