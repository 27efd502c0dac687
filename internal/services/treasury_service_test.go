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

func TestTreasuryInitialize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("requires admin", func(t *testing.T) {
		err := f.treasury.Initialize(ctx, holderActor, 500, nil)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("rejects out-of-range fee", func(t *testing.T) {
		err := f.treasury.Initialize(ctx, adminActor, 10001, nil)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	require.NoError(t, f.treasury.Initialize(ctx, adminActor, 500, []models.FeeSource{models.SourcePolicyLedger}))

	t.Run("second call fails", func(t *testing.T) {
		err := f.treasury.Initialize(ctx, adminActor, 500, nil)
		assert.ErrorIs(t, err, models.ErrAlreadyInitialized)
	})
}

func TestDepositFee(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	t.Run("rejects non-positive amount", func(t *testing.T) {
		err := f.treasury.DepositFee(ctx, adminActor, models.DepositFeeRequest{
			Source: models.SourcePolicyLedger, Amount: 0, FeeType: models.FeePremium,
		})
		assert.ErrorIs(t, err, models.ErrInvalidAmount)
	})

	t.Run("rejects untrusted source", func(t *testing.T) {
		err := f.treasury.DepositFee(ctx, adminActor, models.DepositFeeRequest{
			Source: "rogue-contract", Amount: 100, FeeType: models.FeePremium,
		})
		assert.ErrorIs(t, err, models.ErrNotTrustedContract)

		balance, err := f.treasury.GetBalance(ctx)
		require.NoError(t, err)
		assert.Zero(t, balance)
	})

	t.Run("credits balance and fee counter", func(t *testing.T) {
		require.NoError(t, f.treasury.DepositFee(ctx, adminActor, models.DepositFeeRequest{
			Source: models.SourceSlashing, Amount: 250, FeeType: models.FeeSlashing,
		}))

		state, err := f.treasury.GetState(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(250), state.Balance)
		assert.Equal(t, int64(250), state.TotalFeesCollected)
	})

	t.Run("paused treasury refuses fees", func(t *testing.T) {
		require.NoError(t, f.treasury.SetPause(ctx, adminActor, true))
		err := f.treasury.DepositFee(ctx, adminActor, models.DepositFeeRequest{
			Source: models.SourcePolicyLedger, Amount: 100, FeeType: models.FeePremium,
		})
		assert.ErrorIs(t, err, models.ErrPaused)
		require.NoError(t, f.treasury.SetPause(ctx, adminActor, false))
	})

	t.Run("newly registered source can deposit", func(t *testing.T) {
		fresh := newFixture(t)
		require.NoError(t, fresh.treasury.Initialize(ctx, adminActor, 500, nil))

		err := fresh.treasury.DepositFee(ctx, adminActor, models.DepositFeeRequest{
			Source: models.SourceClaimsProcessor, Amount: 50, FeeType: models.FeeClaimPenalty,
		})
		assert.ErrorIs(t, err, models.ErrNotTrustedContract)

		require.NoError(t, fresh.treasury.RegisterTrustedSource(ctx, adminActor, models.SourceClaimsProcessor))
		assert.NoError(t, fresh.treasury.DepositFee(ctx, adminActor, models.DepositFeeRequest{
			Source: models.SourceClaimsProcessor, Amount: 50, FeeType: models.FeeClaimPenalty,
		}))
	})
}

func fundTreasury(t *testing.T, f *fixture, amount int64) {
	t.Helper()
	require.NoError(t, f.treasury.DepositFee(context.Background(), adminActor, models.DepositFeeRequest{
		Source: models.SourceSlashing, Amount: amount, FeeType: models.FeeSlashing,
	}))
}

func TestProposeWithdrawal(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	fundTreasury(t, f, 300)

	t.Run("requires admin", func(t *testing.T) {
		_, err := f.treasury.ProposeWithdrawal(ctx, holderActor, models.ProposeWithdrawalRequest{
			Recipient: "0xabc", Amount: 100, Purpose: models.PurposeAuditFunding,
		})
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("rejects unknown purpose", func(t *testing.T) {
		_, err := f.treasury.ProposeWithdrawal(ctx, adminActor, models.ProposeWithdrawalRequest{
			Recipient: "0xabc", Amount: 100, Purpose: "yacht_fund",
		})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("rejects amount above balance", func(t *testing.T) {
		_, err := f.treasury.ProposeWithdrawal(ctx, adminActor, models.ProposeWithdrawalRequest{
			Recipient: "0xabc", Amount: 500, Purpose: models.PurposeAuditFunding,
		})
		assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	})

	t.Run("opens with seven day window", func(t *testing.T) {
		proposal, err := f.treasury.ProposeWithdrawal(ctx, adminActor, models.ProposeWithdrawalRequest{
			Recipient:   "0xabc",
			Amount:      200,
			Purpose:     models.PurposeAuditFunding,
			Description: "annual audit",
		})
		require.NoError(t, err)
		assert.Equal(t, models.ProposalActive, proposal.Status)
		assert.Equal(t, proposal.CreatedAt+int64(VotingPeriod/time.Second), proposal.VotingEndsAt)
		assert.False(t, proposal.Executed)
	})
}

func TestProposalDecisions(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	fundTreasury(t, f, 300)

	propose := func(amount int64) *models.WithdrawalProposal {
		proposal, err := f.treasury.ProposeWithdrawal(ctx, adminActor, models.ProposeWithdrawalRequest{
			Recipient: "0xabc", Amount: amount, Purpose: models.PurposeDevelopmentGrants,
		})
		require.NoError(t, err)
		return proposal
	}

	t.Run("no decision inside the voting window", func(t *testing.T) {
		proposal := propose(100)
		assert.ErrorIs(t, f.treasury.ApproveProposal(ctx, adminActor, proposal.ID), models.ErrVotingPeriodNotEnded)
		assert.ErrorIs(t, f.treasury.RejectProposal(ctx, adminActor, proposal.ID), models.ErrVotingPeriodNotEnded)

		got, err := f.treasury.GetProposal(ctx, proposal.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ProposalActive, got.Status)
	})

	t.Run("approve after the window records the allocation", func(t *testing.T) {
		proposal := propose(100)
		f.advance(VotingPeriod + time.Hour)

		require.NoError(t, f.treasury.ApproveProposal(ctx, adminActor, proposal.ID))

		got, err := f.treasury.GetProposal(ctx, proposal.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ProposalApproved, got.Status)

		record, err := f.treasury.GetAllocation(ctx, models.PurposeDevelopmentGrants)
		require.NoError(t, err)
		assert.Equal(t, int64(100), record.TotalAllocated)
		assert.Equal(t, int64(1), record.AllocationCount)
		assert.Zero(t, record.TotalWithdrawn)
	})

	t.Run("reject after the window", func(t *testing.T) {
		proposal := propose(50)
		f.advance(VotingPeriod + time.Hour)

		require.NoError(t, f.treasury.RejectProposal(ctx, adminActor, proposal.ID))

		got, err := f.treasury.GetProposal(ctx, proposal.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ProposalRejected, got.Status)
	})

	t.Run("decided proposals cannot be decided again", func(t *testing.T) {
		proposal := propose(50)
		f.advance(VotingPeriod + time.Hour)
		require.NoError(t, f.treasury.ApproveProposal(ctx, adminActor, proposal.ID))

		assert.ErrorIs(t, f.treasury.ApproveProposal(ctx, adminActor, proposal.ID), models.ErrInvalidState)
		assert.ErrorIs(t, f.treasury.RejectProposal(ctx, adminActor, proposal.ID), models.ErrInvalidState)
	})

	t.Run("unknown proposal", func(t *testing.T) {
		assert.ErrorIs(t, f.treasury.ApproveProposal(ctx, adminActor, uuid.New()), models.ErrNotFound)
	})
}

func TestExecuteProposal(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	fundTreasury(t, f, 300)

	proposal, err := f.treasury.ProposeWithdrawal(ctx, adminActor, models.ProposeWithdrawalRequest{
		Recipient: "0xabc", Amount: 200, Purpose: models.PurposeDaoOperations,
	})
	require.NoError(t, err)

	t.Run("active proposal cannot execute", func(t *testing.T) {
		err := f.treasury.ExecuteProposal(ctx, adminActor, proposal.ID)
		assert.ErrorIs(t, err, models.ErrProposalNotApproved)
	})

	f.advance(VotingPeriod + time.Hour)
	require.NoError(t, f.treasury.ApproveProposal(ctx, adminActor, proposal.ID))

	t.Run("paused treasury refuses execution", func(t *testing.T) {
		require.NoError(t, f.treasury.SetPause(ctx, adminActor, true))
		err := f.treasury.ExecuteProposal(ctx, adminActor, proposal.ID)
		assert.ErrorIs(t, err, models.ErrPaused)
		require.NoError(t, f.treasury.SetPause(ctx, adminActor, false))
	})

	t.Run("execution pays out once", func(t *testing.T) {
		require.NoError(t, f.treasury.ExecuteProposal(ctx, adminActor, proposal.ID))

		state, err := f.treasury.GetState(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(100), state.Balance)
		assert.Equal(t, int64(200), state.TotalWithdrawn)

		got, err := f.treasury.GetProposal(ctx, proposal.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ProposalExecuted, got.Status)
		assert.True(t, got.Executed)

		record, err := f.treasury.GetAllocation(ctx, models.PurposeDaoOperations)
		require.NoError(t, err)
		assert.Equal(t, int64(200), record.TotalWithdrawn)
	})

	t.Run("second execution fails", func(t *testing.T) {
		err := f.treasury.ExecuteProposal(ctx, adminActor, proposal.ID)
		assert.ErrorIs(t, err, models.ErrInvalidState)

		state, err := f.treasury.GetState(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(100), state.Balance)
	})
}

func TestExecuteProposalBalanceRecheck(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	fundTreasury(t, f, 300)

	// Two approved proposals together exceed the balance; the second execution
	// must fail on the re-check.
	first, err := f.treasury.ProposeWithdrawal(ctx, adminActor, models.ProposeWithdrawalRequest{
		Recipient: "0xabc", Amount: 200, Purpose: models.PurposeCommunityIncentives,
	})
	require.NoError(t, err)
	second, err := f.treasury.ProposeWithdrawal(ctx, adminActor, models.ProposeWithdrawalRequest{
		Recipient: "0xdef", Amount: 200, Purpose: models.PurposeCommunityIncentives,
	})
	require.NoError(t, err)

	f.advance(VotingPeriod + time.Hour)
	require.NoError(t, f.treasury.ApproveProposal(ctx, adminActor, first.ID))
	require.NoError(t, f.treasury.ApproveProposal(ctx, adminActor, second.ID))

	require.NoError(t, f.treasury.ExecuteProposal(ctx, adminActor, first.ID))

	err = f.treasury.ExecuteProposal(ctx, adminActor, second.ID)
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	state, err := f.treasury.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), state.Balance)

	got, err := f.treasury.GetProposal(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalApproved, got.Status)
	assert.False(t, got.Executed)
}

func TestUpdateFeePercentage(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	t.Run("rejects out-of-range", func(t *testing.T) {
		assert.ErrorIs(t, f.treasury.UpdateFeePercentage(ctx, adminActor, -1), models.ErrInvalidInput)
		assert.ErrorIs(t, f.treasury.UpdateFeePercentage(ctx, adminActor, 10001), models.ErrInvalidInput)
	})

	t.Run("new rate applies to issued policies", func(t *testing.T) {
		require.NoError(t, f.treasury.UpdateFeePercentage(ctx, adminActor, 1000))

		f.issuePolicy(t, 1000, 100)

		state, err := f.treasury.GetState(ctx)
		require.NoError(t, err)
		// 10% of the 100 premium.
		assert.Equal(t, int64(10), state.Balance)
	})
}
