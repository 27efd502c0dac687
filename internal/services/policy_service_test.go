package services

import (
	"context"
	"testing"
	"time"

	"insurance-core/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuePolicy(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	policy := f.issuePolicy(t, 1000, 100)

	assert.Equal(t, models.PolicyActive, policy.Status)
	assert.Equal(t, holderActor.ID, policy.Holder)
	assert.Equal(t, policy.StartTime+30*86400, policy.EndTime)

	// 500 bps of the 100 premium lands in the treasury.
	state, err := f.treasury.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), state.Balance)
	assert.Equal(t, int64(5), state.TotalFeesCollected)

	assert.Contains(t, f.pub.actions(), "policy-ledger/issue")
	assert.Contains(t, f.pub.actions(), "treasury/deposit_fee")
}

func TestIssuePolicyValidation(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.IssuePolicyRequest
		want error
	}{
		{"zero coverage", models.IssuePolicyRequest{CoverageAmount: 0, PremiumAmount: 10, DurationDays: 30}, models.ErrInvalidAmount},
		{"negative coverage", models.IssuePolicyRequest{CoverageAmount: -5, PremiumAmount: 10, DurationDays: 30}, models.ErrInvalidAmount},
		{"zero premium", models.IssuePolicyRequest{CoverageAmount: 1000, PremiumAmount: 0, DurationDays: 30}, models.ErrInvalidPremium},
		{"zero duration", models.IssuePolicyRequest{CoverageAmount: 1000, PremiumAmount: 10, DurationDays: 0}, models.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.policy.IssuePolicy(ctx, holderActor, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// No fee was collected by any rejected issue.
	state, err := f.treasury.GetState(ctx)
	require.NoError(t, err)
	assert.Zero(t, state.Balance)
}

func TestIssuePolicyFeeFailureRollsBackPolicy(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	// A paused treasury refuses the fee deposit; the policy insert must not
	// survive on its own.
	require.NoError(t, f.treasury.SetPause(ctx, adminActor, true))

	_, err := f.policy.IssuePolicy(ctx, holderActor, models.IssuePolicyRequest{
		CoverageAmount: 1000,
		PremiumAmount:  100,
		DurationDays:   30,
	})
	assert.ErrorIs(t, err, models.ErrPaused)

	policies, err := f.policy.GetPoliciesByHolder(ctx, holderActor.ID)
	require.NoError(t, err)
	assert.Empty(t, policies)
}

func TestCancelPolicy(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	policy := f.issuePolicy(t, 1000, 100)

	t.Run("stranger cannot cancel", func(t *testing.T) {
		err := f.policy.CancelPolicy(ctx, strangerActor, policy.ID)
		assert.ErrorIs(t, err, models.ErrUnauthorized)

		status, err := f.policy.GetPolicyState(ctx, policy.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PolicyActive, status)
	})

	t.Run("holder cancels", func(t *testing.T) {
		require.NoError(t, f.policy.CancelPolicy(ctx, holderActor, policy.ID))

		status, err := f.policy.GetPolicyState(ctx, policy.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PolicyCancelled, status)
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		err := f.policy.CancelPolicy(ctx, holderActor, policy.ID)
		assert.ErrorIs(t, err, models.ErrInvalidPolicyState)
	})
}

func TestExpirePolicy(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	policy := f.issuePolicy(t, 1000, 100)

	t.Run("requires admin", func(t *testing.T) {
		err := f.policy.ExpirePolicy(ctx, holderActor, policy.ID)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("before end_time", func(t *testing.T) {
		err := f.policy.ExpirePolicy(ctx, adminActor, policy.ID)
		assert.ErrorIs(t, err, models.ErrInvalidState)

		status, err := f.policy.GetPolicyState(ctx, policy.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PolicyActive, status)
	})

	t.Run("after end_time", func(t *testing.T) {
		f.advance(31 * 24 * time.Hour)
		require.NoError(t, f.policy.ExpirePolicy(ctx, adminActor, policy.ID))

		status, err := f.policy.GetPolicyState(ctx, policy.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PolicyExpired, status)
	})

	t.Run("expired cannot be cancelled", func(t *testing.T) {
		err := f.policy.CancelPolicy(ctx, holderActor, policy.ID)
		assert.ErrorIs(t, err, models.ErrInvalidPolicyState)
	})
}

func TestGetPolicyNotFound(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)

	_, err := f.policy.GetPolicy(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPolicyStats(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	f.issuePolicy(t, 1000, 100)
	f.issuePolicy(t, 2000, 200)

	stats, err := f.policy.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.PolicyCount)
	assert.Equal(t, int64(300), stats.TotalPremiums)
	assert.Equal(t, int64(3000), stats.TotalCoverage)
}
