package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/slmhealth/internal/core/domain"
	"github.com/vietddude/slmhealth/internal/core/opmode"
	"github.com/vietddude/slmhealth/internal/infra/storage"
)

// newTestRepo connects to SLM_TEST_DATABASE_URL, skipping when it is unset.
func newTestRepo(t *testing.T) *LifecycleRepo {
	t.Helper()

	url := os.Getenv("SLM_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SLM_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := NewDB(ctx, Config{URL: url, Driver: os.Getenv("SLM_TEST_DATABASE_DRIVER")})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))

	_, err = db.ExecContext(ctx, "DELETE FROM slm_policies")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "UPDATE slm_metadata SET operation_mode = 'RUNNING' WHERE id = 1")
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })
	return NewLifecycleRepo(db)
}

func TestLifecycleRepo_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.PutPolicy(ctx, domain.PolicyStatus{Name: "daily"}))
	require.NoError(t, repo.RecordSuccess(ctx, "daily", domain.SnapshotInvocation{SnapshotName: "daily-1", Timestamp: 1000}))
	require.NoError(t, repo.RecordFailure(ctx, "daily", domain.SnapshotInvocation{
		SnapshotName: "daily-2",
		Timestamp:    5000,
		Details:      "repository missing",
	}))
	require.NoError(t, repo.PutPolicy(ctx, domain.PolicyStatus{Name: "weekly"}))

	state, err := repo.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.OperationModeRunning, state.OperationMode)
	require.Len(t, state.Policies, 2)

	daily := state.Policies["daily"]
	require.NotNil(t, daily.LastSuccess)
	require.NotNil(t, daily.LastFailure)
	assert.Equal(t, int64(1000), daily.LastSuccess.Timestamp)
	assert.Equal(t, "daily-2", daily.LastFailure.SnapshotName)
	assert.Equal(t, "repository missing", daily.LastFailure.Details)

	weekly := state.Policies["weekly"]
	assert.Nil(t, weekly.LastSuccess)
	assert.Nil(t, weekly.LastFailure)
}

func TestLifecycleRepo_UnknownPolicy(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.RecordSuccess(ctx, "missing", domain.SnapshotInvocation{Timestamp: 1})
	assert.ErrorIs(t, err, storage.ErrPolicyNotFound)
	assert.ErrorIs(t, repo.DeletePolicy(ctx, "missing"), storage.ErrPolicyNotFound)
}

func TestLifecycleRepo_OperationMode(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assert.ErrorIs(t, repo.SetOperationMode(ctx, domain.OperationModeStopped), opmode.ErrInvalidTransition)
	require.NoError(t, repo.SetOperationMode(ctx, domain.OperationModeStopping))
	require.NoError(t, repo.SetOperationMode(ctx, domain.OperationModeStopped))

	state, err := repo.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.OperationModeStopped, state.OperationMode)
}
