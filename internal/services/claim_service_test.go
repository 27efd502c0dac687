package services

import (
	"context"
	"testing"
	"time"

	"insurance-core/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitClaim(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	f.depositLiquidity(t, 1000)
	policy := f.issuePolicy(t, 1000, 100)

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := f.claims.SubmitClaim(ctx, holderActor, models.SubmitClaimRequest{
			PolicyID: policy.ID, ClaimAmount: 0,
		})
		assert.ErrorIs(t, err, models.ErrInvalidAmount)
	})

	t.Run("rejects claim above coverage", func(t *testing.T) {
		_, err := f.claims.SubmitClaim(ctx, holderActor, models.SubmitClaimRequest{
			PolicyID: policy.ID, ClaimAmount: 1500,
		})
		assert.ErrorIs(t, err, models.ErrCoverageExceeded)
	})

	t.Run("rejects non-holder", func(t *testing.T) {
		_, err := f.claims.SubmitClaim(ctx, strangerActor, models.SubmitClaimRequest{
			PolicyID: policy.ID, ClaimAmount: 600,
		})
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("accepts claim within coverage", func(t *testing.T) {
		claim, err := f.claims.SubmitClaim(ctx, holderActor, models.SubmitClaimRequest{
			PolicyID:    policy.ID,
			ClaimAmount: 600,
			Description: "hail damage",
		})
		require.NoError(t, err)
		assert.Equal(t, models.ClaimSubmitted, claim.Status)
		assert.Equal(t, holderActor.ID, claim.Claimant)
	})

	t.Run("rejects claim on cancelled policy", func(t *testing.T) {
		cancelled := f.issuePolicy(t, 500, 50)
		require.NoError(t, f.policy.CancelPolicy(ctx, holderActor, cancelled.ID))

		_, err := f.claims.SubmitClaim(ctx, holderActor, models.SubmitClaimRequest{
			PolicyID: cancelled.ID, ClaimAmount: 100,
		})
		assert.ErrorIs(t, err, models.ErrInvalidState)
	})
}

func TestSubmitClaimOnExpiredPolicy(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	f.depositLiquidity(t, 1000)
	policy := f.issuePolicy(t, 1000, 100)

	f.advance(31 * 24 * time.Hour)
	require.NoError(t, f.policy.ExpirePolicy(ctx, adminActor, policy.ID))

	// Grace-period claims against expired coverage stay legal.
	claim, err := f.claims.SubmitClaim(ctx, holderActor, models.SubmitClaimRequest{
		PolicyID: policy.ID, ClaimAmount: 400,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ClaimSubmitted, claim.Status)
}

func TestClaimEvidence(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	f.depositLiquidity(t, 1000)
	policy := f.issuePolicy(t, 1000, 100)

	payload := []byte("photo-of-damage")
	claim, err := f.claims.SubmitClaim(ctx, holderActor, models.SubmitClaimRequest{
		PolicyID:    policy.ID,
		ClaimAmount: 300,
		Evidence:    payload,
	})
	require.NoError(t, err)
	require.NotNil(t, claim.EvidenceKey)

	got, err := f.claims.GetEvidence(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	t.Run("claim without evidence", func(t *testing.T) {
		bare, err := f.claims.SubmitClaim(ctx, holderActor, models.SubmitClaimRequest{
			PolicyID: policy.ID, ClaimAmount: 100,
		})
		require.NoError(t, err)

		_, err = f.claims.GetEvidence(ctx, bare.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestClaimLifecycle(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	f.depositLiquidity(t, 1000)
	policy := f.issuePolicy(t, 1000, 100)

	claim, err := f.claims.SubmitClaim(ctx, holderActor, models.SubmitClaimRequest{
		PolicyID: policy.ID, ClaimAmount: 600,
	})
	require.NoError(t, err)

	t.Run("approve before review is rejected", func(t *testing.T) {
		err := f.claims.ApproveClaim(ctx, processorActor, claim.ID)
		assert.ErrorIs(t, err, models.ErrInvalidClaimState)
	})

	t.Run("settle before approval is rejected", func(t *testing.T) {
		err := f.claims.SettleClaim(ctx, processorActor, claim.ID)
		assert.ErrorIs(t, err, models.ErrInvalidClaimState)
	})

	t.Run("review requires claim-processor", func(t *testing.T) {
		err := f.claims.StartReview(ctx, holderActor, claim.ID)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	require.NoError(t, f.claims.StartReview(ctx, processorActor, claim.ID))

	t.Run("approval reserves the claim amount", func(t *testing.T) {
		require.NoError(t, f.claims.ApproveClaim(ctx, processorActor, claim.ID))

		ledger, err := f.pool.GetLedger(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), ledger.TotalLiquidity)
		assert.Equal(t, int64(600), ledger.ReservedForClaims)
	})

	t.Run("settlement pays out and claims the policy", func(t *testing.T) {
		require.NoError(t, f.claims.SettleClaim(ctx, processorActor, claim.ID))

		settled, err := f.claims.GetClaim(ctx, claim.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ClaimSettled, settled.Status)
		require.NotNil(t, settled.SettledAt)

		ledger, err := f.pool.GetLedger(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(400), ledger.TotalLiquidity)
		assert.Zero(t, ledger.ReservedForClaims)

		status, err := f.policy.GetPolicyState(ctx, policy.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PolicyClaimed, status)
	})

	t.Run("settled is terminal", func(t *testing.T) {
		err := f.claims.SettleClaim(ctx, processorActor, claim.ID)
		assert.ErrorIs(t, err, models.ErrInvalidClaimState)
		err = f.claims.RejectClaim(ctx, processorActor, claim.ID)
		assert.ErrorIs(t, err, models.ErrInvalidClaimState)
	})
}

func TestApproveClaimWithoutBackingLiquidity(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	f.depositLiquidity(t, 500)
	policy := f.issuePolicy(t, 1000, 100)

	claim, err := f.claims.SubmitClaim(ctx, holderActor, models.SubmitClaimRequest{
		PolicyID: policy.ID, ClaimAmount: 600,
	})
	require.NoError(t, err)
	require.NoError(t, f.claims.StartReview(ctx, processorActor, claim.ID))

	eventsBefore := len(f.pub.events)
	err = f.claims.ApproveClaim(ctx, processorActor, claim.ID)
	assert.ErrorIs(t, err, models.ErrLiquidityViolation)

	// The failed approval mutated nothing and published nothing: claim still
	// under review, nothing reserved.
	assert.Len(t, f.pub.events, eventsBefore)
	got, err := f.claims.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimUnderReview, got.Status)

	ledger, err := f.pool.GetLedger(ctx)
	require.NoError(t, err)
	assert.Zero(t, ledger.ReservedForClaims)
}

func TestRejectClaimChargesPenalty(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	f.depositLiquidity(t, 1000)
	policy := f.issuePolicy(t, 1000, 100)

	stateBefore, err := f.treasury.GetState(ctx)
	require.NoError(t, err)

	claim, err := f.claims.SubmitClaim(ctx, holderActor, models.SubmitClaimRequest{
		PolicyID: policy.ID, ClaimAmount: 600,
	})
	require.NoError(t, err)
	require.NoError(t, f.claims.StartReview(ctx, processorActor, claim.ID))
	require.NoError(t, f.claims.RejectClaim(ctx, processorActor, claim.ID))

	got, err := f.claims.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimRejected, got.Status)

	// 10% of 600 lands in the treasury as a penalty fee.
	stateAfter, err := f.treasury.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, stateBefore.Balance+60, stateAfter.Balance)

	t.Run("rejected is terminal", func(t *testing.T) {
		err := f.claims.ApproveClaim(ctx, processorActor, claim.ID)
		assert.ErrorIs(t, err, models.ErrInvalidClaimState)
	})
}

func TestClaimStats(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	f.depositLiquidity(t, 1000)
	policy := f.issuePolicy(t, 1000, 100)

	claim, err := f.claims.SubmitClaim(ctx, holderActor, models.SubmitClaimRequest{
		PolicyID: policy.ID, ClaimAmount: 600,
	})
	require.NoError(t, err)
	require.NoError(t, f.claims.StartReview(ctx, processorActor, claim.ID))
	require.NoError(t, f.claims.ApproveClaim(ctx, processorActor, claim.ID))
	require.NoError(t, f.claims.SettleClaim(ctx, processorActor, claim.ID))

	stats, err := f.claims.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ClaimCount)
	assert.Equal(t, int64(600), stats.TotalClaimed)
	assert.Equal(t, int64(600), stats.TotalSettled)
}
