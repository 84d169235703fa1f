package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vietddude/slmhealth/internal/core/domain"
	"github.com/vietddude/slmhealth/internal/core/opmode"
	"github.com/vietddude/slmhealth/internal/infra/storage"
)

// LifecycleRepo implements storage.LifecycleRepository using PostgreSQL.
type LifecycleRepo struct {
	db *DB
}

// NewLifecycleRepo creates a new PostgreSQL lifecycle repository.
func NewLifecycleRepo(db *DB) *LifecycleRepo {
	return &LifecycleRepo{db: db}
}

type policyRow struct {
	Name                string         `db:"name"`
	LastSuccessSnapshot sql.NullString `db:"last_success_snapshot"`
	LastSuccessAt       sql.NullInt64  `db:"last_success_at"`
	LastFailureSnapshot sql.NullString `db:"last_failure_snapshot"`
	LastFailureAt       sql.NullInt64  `db:"last_failure_at"`
	LastFailureDetails  sql.NullString `db:"last_failure_details"`
}

func (r policyRow) toDomain() domain.PolicyStatus {
	p := domain.PolicyStatus{Name: r.Name}
	if r.LastSuccessAt.Valid {
		p.LastSuccess = &domain.SnapshotInvocation{
			SnapshotName: r.LastSuccessSnapshot.String,
			Timestamp:    r.LastSuccessAt.Int64,
		}
	}
	if r.LastFailureAt.Valid {
		p.LastFailure = &domain.SnapshotInvocation{
			SnapshotName: r.LastFailureSnapshot.String,
			Timestamp:    r.LastFailureAt.Int64,
			Details:      r.LastFailureDetails.String,
		}
	}
	return p
}

// State reads mode and policies in one read-only repeatable-read transaction,
// so both come from the same snapshot.
func (r *LifecycleRepo) State(ctx context.Context) (*domain.LifecycleState, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var mode string
	err = tx.GetContext(ctx, &mode, "SELECT operation_mode FROM slm_metadata WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		mode = string(domain.OperationModeRunning)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get operation mode: %w", err)
	}

	var rows []policyRow
	err = tx.SelectContext(ctx, &rows, `
		SELECT name, last_success_snapshot, last_success_at,
		       last_failure_snapshot, last_failure_at, last_failure_details
		FROM slm_policies`)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}

	state := &domain.LifecycleState{
		OperationMode: domain.OperationMode(mode),
		Policies:      make(map[string]domain.PolicyStatus, len(rows)),
	}
	for _, row := range rows {
		state.Policies[row.Name] = row.toDomain()
	}
	return state, nil
}

// SetOperationMode updates the mode under a row lock.
func (r *LifecycleRepo) SetOperationMode(ctx context.Context, mode domain.OperationMode) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		var current string
		err := tx.GetContext(ctx, &current, "SELECT operation_mode FROM slm_metadata WHERE id = 1 FOR UPDATE")
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to get operation mode: %w", err)
		}
		if err := opmode.Check(domain.OperationMode(current), mode); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO slm_metadata (id, operation_mode, updated_at) VALUES (1, $1, $2)
			ON CONFLICT (id) DO UPDATE SET operation_mode = EXCLUDED.operation_mode, updated_at = EXCLUDED.updated_at`,
			string(mode), time.Now().UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to set operation mode: %w", err)
		}
		return nil
	})
}

// PutPolicy creates or replaces a policy record.
func (r *LifecycleRepo) PutPolicy(ctx context.Context, policy domain.PolicyStatus) error {
	if policy.Name == "" {
		return fmt.Errorf("%w: empty name", storage.ErrInvalidPolicy)
	}

	row := map[string]any{
		"name":                  policy.Name,
		"last_success_snapshot": nil,
		"last_success_at":       nil,
		"last_failure_snapshot": nil,
		"last_failure_at":       nil,
		"last_failure_details":  nil,
		"updated_at":            time.Now().UnixMilli(),
	}
	if s := policy.LastSuccess; s != nil {
		row["last_success_snapshot"] = s.SnapshotName
		row["last_success_at"] = s.Timestamp
	}
	if f := policy.LastFailure; f != nil {
		row["last_failure_snapshot"] = f.SnapshotName
		row["last_failure_at"] = f.Timestamp
		row["last_failure_details"] = f.Details
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO slm_policies (name, last_success_snapshot, last_success_at,
		                          last_failure_snapshot, last_failure_at, last_failure_details, updated_at)
		VALUES (:name, :last_success_snapshot, :last_success_at,
		        :last_failure_snapshot, :last_failure_at, :last_failure_details, :updated_at)
		ON CONFLICT (name) DO UPDATE SET
			last_success_snapshot = EXCLUDED.last_success_snapshot,
			last_success_at       = EXCLUDED.last_success_at,
			last_failure_snapshot = EXCLUDED.last_failure_snapshot,
			last_failure_at       = EXCLUDED.last_failure_at,
			last_failure_details  = EXCLUDED.last_failure_details,
			updated_at            = EXCLUDED.updated_at`, row)
	if err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	return nil
}

// DeletePolicy removes a policy.
func (r *LifecycleRepo) DeletePolicy(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM slm_policies WHERE name = $1", name)
	if err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}
	return expectOne(res, name)
}

// RecordSuccess stores the latest successful invocation of a policy.
func (r *LifecycleRepo) RecordSuccess(ctx context.Context, name string, inv domain.SnapshotInvocation) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE slm_policies
		SET last_success_snapshot = $2, last_success_at = $3, updated_at = $4
		WHERE name = $1`,
		name, inv.SnapshotName, inv.Timestamp, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record success: %w", err)
	}
	return expectOne(res, name)
}

// RecordFailure stores the latest failed invocation of a policy.
func (r *LifecycleRepo) RecordFailure(ctx context.Context, name string, inv domain.SnapshotInvocation) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE slm_policies
		SET last_failure_snapshot = $2, last_failure_at = $3, last_failure_details = $4, updated_at = $5
		WHERE name = $1`,
		name, inv.SnapshotName, inv.Timestamp, inv.Details, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record failure: %w", err)
	}
	return expectOne(res, name)
}

func (r *LifecycleRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *LifecycleRepo) Close() error {
	return r.db.Close()
}

func (r *LifecycleRepo) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func expectOne(res sql.Result, name string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrPolicyNotFound, name)
	}
	return nil
}

var _ storage.LifecycleRepository = (*LifecycleRepo)(nil)
