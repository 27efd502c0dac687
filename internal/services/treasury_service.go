package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"insurance-core/internal/event"
	"insurance-core/internal/guard"
	"insurance-core/internal/metrics"
	"insurance-core/internal/models"
	"insurance-core/internal/storage"

	"github.com/google/uuid"
)

// VotingPeriod is how long a withdrawal proposal stays open before governance
// may decide it. Decisions are only valid after the window closes.
const VotingPeriod = 7 * 24 * time.Hour

// feeBpsDenominator: fee_bps is expressed in basis points of the premium.
const feeBpsDenominator = 10000

// TreasuryService owns protocol fee accounting and governance-gated
// withdrawals. Fees arrive only from registered trusted sources; funds leave
// only through an approved proposal executed after its voting window.
type TreasuryService struct {
	store     storage.Store
	publisher event.Publisher
	clock     func() time.Time
}

func NewTreasuryService(store storage.Store, publisher event.Publisher) *TreasuryService {
	return &TreasuryService{
		store:     store,
		publisher: publisher,
		clock:     time.Now,
	}
}

// Initialize writes the singleton treasury row and registers the initial
// trusted fee sources. A second call fails.
func (s *TreasuryService) Initialize(ctx context.Context, actor models.Actor, feeBps int64, trustedSources []models.FeeSource) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentTreasury, "initialize", err) }()

	if !actor.IsAdmin() {
		return models.ErrUnauthorized.Wrap("treasury initialize requires admin")
	}
	if feeBps < 0 || feeBps > feeBpsDenominator {
		return models.ErrInvalidInput.Wrap("fee_bps %d out of range", feeBps)
	}

	now := s.clock()
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		_, err := tx.Treasury().GetState(ctx)
		if err == nil {
			return models.ErrAlreadyInitialized.Wrap("treasury")
		}
		if !errors.Is(err, models.ErrNotInitialized) {
			return err
		}
		if err := tx.Treasury().InsertState(ctx, &models.TreasuryState{
			FeeBps:    feeBps,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
		for _, source := range trustedSources {
			if err := tx.Treasury().AddTrustedSource(ctx, source); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentTreasury,
		Action:    "initialize",
		Actor:     actor.ID,
		Details:   map[string]any{"fee_bps": feeBps},
		Timestamp: now.Unix(),
	})
	return nil
}

// DepositFee credits a fee from a trusted source. The source identity comes
// from the request, not the actor: internal components deposit on behalf of
// their own ledgers.
func (s *TreasuryService) DepositFee(ctx context.Context, actor models.Actor, req models.DepositFeeRequest) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentTreasury, "deposit_fee", err) }()

	var evt *event.AuditEvent
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		evt, err = s.depositFee(ctx, tx, req.Source, req.Amount, req.FeeType)
		return err
	})
	if err != nil {
		return err
	}

	s.publish(ctx, *evt)
	return nil
}

// depositFee is the tx-level fee credit shared with the policy and claims
// services. It validates the source against the trusted registry, honors the
// pause flag, and returns the audit event for the caller to publish after
// commit.
func (s *TreasuryService) depositFee(ctx context.Context, tx storage.Tx, source models.FeeSource, amount int64, feeType models.FeeType) (*event.AuditEvent, error) {
	if err := guard.ValidateAmount(amount); err != nil {
		return nil, err
	}

	state, err := tx.Treasury().GetState(ctx)
	if err != nil {
		return nil, err
	}
	if state.Paused {
		return nil, models.ErrPaused
	}

	trusted, err := tx.Treasury().IsTrustedSource(ctx, source)
	if err != nil {
		return nil, err
	}
	if !trusted {
		return nil, models.ErrNotTrustedContract.Wrap("source %s", source)
	}

	state.Balance, err = guard.CheckedAdd(state.Balance, amount)
	if err != nil {
		return nil, err
	}
	state.TotalFeesCollected, err = guard.CheckedAdd(state.TotalFeesCollected, amount)
	if err != nil {
		return nil, err
	}
	state.UpdatedAt = s.clock()
	if err := tx.Treasury().UpdateState(ctx, state); err != nil {
		return nil, err
	}

	return &event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentTreasury,
		Action:    "deposit_fee",
		Actor:     string(source),
		Amount:    amount,
		Details:   map[string]any{"fee_type": feeType},
		Timestamp: s.clock().Unix(),
	}, nil
}

// premiumFee computes the protocol's cut of a premium at the current fee rate.
func (s *TreasuryService) premiumFee(ctx context.Context, tx storage.Tx, premium int64) (int64, error) {
	state, err := tx.Treasury().GetState(ctx)
	if err != nil {
		return 0, err
	}
	product, err := guard.CheckedMul(premium, state.FeeBps)
	if err != nil {
		return 0, err
	}
	return product / feeBpsDenominator, nil
}

// ProposeWithdrawal opens a withdrawal proposal. The requested amount must be
// covered by the current balance; the real check happens again at execution.
func (s *TreasuryService) ProposeWithdrawal(ctx context.Context, actor models.Actor, req models.ProposeWithdrawalRequest) (proposal *models.WithdrawalProposal, err error) {
	defer func() { metrics.RecordOperation(event.ComponentTreasury, "propose_withdrawal", err) }()

	if !actor.IsAdmin() {
		return nil, models.ErrUnauthorized.Wrap("propose_withdrawal requires admin")
	}
	if err = guard.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	if !models.ValidPurpose(req.Purpose) {
		return nil, models.ErrInvalidInput.Wrap("purpose %s", req.Purpose)
	}
	if req.Recipient == "" {
		return nil, models.ErrInvalidInput.Wrap("recipient is required")
	}

	now := s.clock()
	proposal = &models.WithdrawalProposal{
		ID:           uuid.New(),
		Recipient:    req.Recipient,
		Amount:       req.Amount,
		Purpose:      req.Purpose,
		Proposer:     actor.ID,
		Description:  req.Description,
		Status:       models.ProposalActive,
		CreatedAt:    now.Unix(),
		VotingEndsAt: now.Add(VotingPeriod).Unix(),
	}

	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		state, err := tx.Treasury().GetState(ctx)
		if err != nil {
			return err
		}
		if req.Amount > state.Balance {
			return models.ErrInsufficientFunds.Wrap("balance %d, requested %d", state.Balance, req.Amount)
		}
		return tx.Treasury().InsertProposal(ctx, proposal)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentTreasury,
		Action:    "propose_withdrawal",
		EntityID:  proposal.ID.String(),
		Actor:     actor.ID,
		Amount:    proposal.Amount,
		Details:   map[string]any{"purpose": proposal.Purpose, "recipient": proposal.Recipient},
		Timestamp: now.Unix(),
	})
	return proposal, nil
}

// ApproveProposal marks an active proposal approved once its voting window has
// closed, and records the allocation against the proposal's purpose.
func (s *TreasuryService) ApproveProposal(ctx context.Context, actor models.Actor, id uuid.UUID) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentTreasury, "approve_proposal", err) }()
	return s.decideProposal(ctx, actor, id, models.ProposalApproved)
}

// RejectProposal marks an active proposal rejected once its voting window has
// closed.
func (s *TreasuryService) RejectProposal(ctx context.Context, actor models.Actor, id uuid.UUID) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentTreasury, "reject_proposal", err) }()
	return s.decideProposal(ctx, actor, id, models.ProposalRejected)
}

func (s *TreasuryService) decideProposal(ctx context.Context, actor models.Actor, id uuid.UUID, decision models.ProposalStatus) error {
	if !actor.IsAdmin() {
		return models.ErrUnauthorized.Wrap("proposal decisions require admin")
	}

	now := s.clock()
	err := s.store.WithinTx(ctx, func(tx storage.Tx) error {
		proposal, err := tx.Treasury().GetProposal(ctx, id)
		if err != nil {
			return err
		}
		if proposal.Status != models.ProposalActive {
			return models.ErrInvalidState.Wrap("proposal %s is %s", id, proposal.Status)
		}
		if now.Unix() < proposal.VotingEndsAt {
			return models.ErrVotingPeriodNotEnded.Wrap("proposal %s open until %d", id, proposal.VotingEndsAt)
		}

		proposal.Status = decision
		if err := tx.Treasury().UpdateProposal(ctx, proposal); err != nil {
			return err
		}

		if decision == models.ProposalApproved {
			return s.recordAllocation(ctx, tx, proposal.Purpose, proposal.Amount, now)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentTreasury,
		Action:    "decide_proposal",
		EntityID:  id.String(),
		Actor:     actor.ID,
		Details:   map[string]any{"decision": decision},
		Timestamp: now.Unix(),
	})
	return nil
}

func (s *TreasuryService) recordAllocation(ctx context.Context, tx storage.Tx, purpose models.AllocationPurpose, amount int64, now time.Time) error {
	record, err := tx.Treasury().GetAllocation(ctx, purpose)
	switch {
	case errors.Is(err, models.ErrNotFound):
		record = &models.AllocationRecord{Purpose: purpose}
	case err != nil:
		return err
	}

	record.TotalAllocated, err = guard.CheckedAdd(record.TotalAllocated, amount)
	if err != nil {
		return err
	}
	record.AllocationCount++
	record.UpdatedAt = now
	return tx.Treasury().UpsertAllocation(ctx, record)
}

// ExecuteProposal pays out an approved proposal, exactly once. The balance is
// re-checked at execution time because fees and other executions may have
// moved it since approval.
func (s *TreasuryService) ExecuteProposal(ctx context.Context, actor models.Actor, id uuid.UUID) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentTreasury, "execute_proposal", err) }()

	if !actor.IsAdmin() {
		return models.ErrUnauthorized.Wrap("execute_proposal requires admin")
	}

	now := s.clock()
	var amount int64
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		state, err := tx.Treasury().GetState(ctx)
		if err != nil {
			return err
		}
		if state.Paused {
			return models.ErrPaused
		}

		proposal, err := tx.Treasury().GetProposal(ctx, id)
		if err != nil {
			return err
		}
		if proposal.Executed || proposal.Status == models.ProposalExecuted {
			return models.ErrInvalidState.Wrap("proposal %s already executed", id)
		}
		if proposal.Status != models.ProposalApproved {
			return models.ErrProposalNotApproved.Wrap("proposal %s is %s", id, proposal.Status)
		}
		if proposal.Amount > state.Balance {
			return models.ErrInsufficientFunds.Wrap("balance %d, proposal %d", state.Balance, proposal.Amount)
		}

		state.Balance, err = guard.CheckedSub(state.Balance, proposal.Amount)
		if err != nil {
			return err
		}
		state.TotalWithdrawn, err = guard.CheckedAdd(state.TotalWithdrawn, proposal.Amount)
		if err != nil {
			return err
		}
		state.UpdatedAt = now
		if err := tx.Treasury().UpdateState(ctx, state); err != nil {
			return err
		}

		proposal.Status = models.ProposalExecuted
		proposal.Executed = true
		if err := tx.Treasury().UpdateProposal(ctx, proposal); err != nil {
			return err
		}

		record, err := tx.Treasury().GetAllocation(ctx, proposal.Purpose)
		if err != nil {
			return err
		}
		record.TotalWithdrawn, err = guard.CheckedAdd(record.TotalWithdrawn, proposal.Amount)
		if err != nil {
			return err
		}
		record.UpdatedAt = now
		if err := tx.Treasury().UpsertAllocation(ctx, record); err != nil {
			return err
		}

		amount = proposal.Amount
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentTreasury,
		Action:    "execute_proposal",
		EntityID:  id.String(),
		Actor:     actor.ID,
		Amount:    amount,
		Timestamp: now.Unix(),
	})
	return nil
}

// SetPause gates fee deposits and proposal execution. Admin only.
func (s *TreasuryService) SetPause(ctx context.Context, actor models.Actor, paused bool) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentTreasury, "set_pause", err) }()

	if !actor.IsAdmin() {
		return models.ErrUnauthorized.Wrap("set_pause requires admin")
	}

	now := s.clock()
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		state, err := tx.Treasury().GetState(ctx)
		if err != nil {
			return err
		}
		state.Paused = paused
		state.UpdatedAt = now
		return tx.Treasury().UpdateState(ctx, state)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentTreasury,
		Action:    "set_pause",
		Actor:     actor.ID,
		Details:   map[string]any{"paused": paused},
		Timestamp: now.Unix(),
	})
	return nil
}

// UpdateFeePercentage changes the premium fee rate in basis points.
func (s *TreasuryService) UpdateFeePercentage(ctx context.Context, actor models.Actor, feeBps int64) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentTreasury, "update_fee", err) }()

	if !actor.IsAdmin() {
		return models.ErrUnauthorized.Wrap("update_fee requires admin")
	}
	if feeBps < 0 || feeBps > feeBpsDenominator {
		return models.ErrInvalidInput.Wrap("fee_bps %d out of range", feeBps)
	}

	now := s.clock()
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		state, err := tx.Treasury().GetState(ctx)
		if err != nil {
			return err
		}
		state.FeeBps = feeBps
		state.UpdatedAt = now
		return tx.Treasury().UpdateState(ctx, state)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentTreasury,
		Action:    "update_fee",
		Actor:     actor.ID,
		Details:   map[string]any{"fee_bps": feeBps},
		Timestamp: now.Unix(),
	})
	return nil
}

// RegisterTrustedSource adds a fee source to the trusted registry.
func (s *TreasuryService) RegisterTrustedSource(ctx context.Context, actor models.Actor, source models.FeeSource) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentTreasury, "register_trusted_source", err) }()

	if !actor.IsAdmin() {
		return models.ErrUnauthorized.Wrap("register_trusted_source requires admin")
	}
	if source == "" {
		return models.ErrInvalidInput.Wrap("source is required")
	}

	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.Treasury().GetState(ctx); err != nil {
			return err
		}
		return tx.Treasury().AddTrustedSource(ctx, source)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentTreasury,
		Action:    "register_trusted_source",
		Actor:     actor.ID,
		Details:   map[string]any{"source": source},
		Timestamp: s.clock().Unix(),
	})
	return nil
}

func (s *TreasuryService) GetState(ctx context.Context) (*models.TreasuryState, error) {
	return s.store.Treasury().GetState(ctx)
}

func (s *TreasuryService) GetBalance(ctx context.Context) (int64, error) {
	state, err := s.store.Treasury().GetState(ctx)
	if err != nil {
		return 0, err
	}
	return state.Balance, nil
}

func (s *TreasuryService) GetProposal(ctx context.Context, id uuid.UUID) (*models.WithdrawalProposal, error) {
	return s.store.Treasury().GetProposal(ctx, id)
}

func (s *TreasuryService) ListProposals(ctx context.Context) ([]models.WithdrawalProposal, error) {
	return s.store.Treasury().ListProposals(ctx)
}

func (s *TreasuryService) GetAllocation(ctx context.Context, purpose models.AllocationPurpose) (*models.AllocationRecord, error) {
	return s.store.Treasury().GetAllocation(ctx, purpose)
}

func (s *TreasuryService) publish(ctx context.Context, evt event.AuditEvent) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		slog.Error("failed to publish treasury event", "action", evt.Action, "entity_id", evt.EntityID, "error", err)
	}
}
