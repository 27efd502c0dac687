package services

import (
	"context"
	"log/slog"
	"time"

	"insurance-core/internal/database/minio"
	"insurance-core/internal/event"
	"insurance-core/internal/guard"
	"insurance-core/internal/metrics"
	"insurance-core/internal/models"
	"insurance-core/internal/storage"

	"github.com/google/uuid"
)

// rejectionPenaltyBps is the share of a rejected claim's amount charged as a
// penalty fee into the treasury.
const rejectionPenaltyBps = 1000

// ClaimService drives claims through submitted -> under_review ->
// {approved -> settled | rejected}. Approval reserves pool liquidity and
// settlement pays the reservation out while marking the policy claimed, each
// pair inside one transaction so a claim can never be approved without backing
// funds or settled without consuming its policy.
type ClaimService struct {
	store     storage.Store
	publisher event.Publisher
	evidence  minio.EvidenceStore
	policy    *PolicyService
	pool      *RiskPoolService
	treasury  *TreasuryService
	clock     func() time.Time
}

func NewClaimService(store storage.Store, publisher event.Publisher, evidence minio.EvidenceStore,
	policy *PolicyService, pool *RiskPoolService, treasury *TreasuryService) *ClaimService {
	return &ClaimService{
		store:     store,
		publisher: publisher,
		evidence:  evidence,
		policy:    policy,
		pool:      pool,
		treasury:  treasury,
		clock:     time.Now,
	}
}

// SubmitClaim files a claim against an Active or Expired policy. Expired is
// allowed so holders can claim for incidents inside the coverage window after
// it lapses. The evidence payload is uploaded before the transaction; an
// orphaned object from a failed submit is garbage, not corruption.
func (s *ClaimService) SubmitClaim(ctx context.Context, actor models.Actor, req models.SubmitClaimRequest) (claim *models.Claim, err error) {
	defer func() { metrics.RecordOperation(event.ComponentClaims, "submit", err) }()

	if err = guard.ValidateAmount(req.ClaimAmount); err != nil {
		return nil, err
	}

	policy, err := s.store.Policies().Get(ctx, req.PolicyID)
	if err != nil {
		return nil, err
	}
	if actor.ID != policy.Holder && !actor.IsAdmin() {
		return nil, models.ErrUnauthorized.Wrap("caller %s is not the holder of policy %s", actor.ID, req.PolicyID)
	}
	if policy.Status != models.PolicyActive && policy.Status != models.PolicyExpired {
		return nil, models.ErrInvalidState.Wrap("policy %s is %s", req.PolicyID, policy.Status)
	}
	if err = guard.CoverageOK(req.ClaimAmount, policy.CoverageAmount); err != nil {
		return nil, err
	}

	now := s.clock()
	claim = &models.Claim{
		ID:          uuid.New(),
		PolicyID:    req.PolicyID,
		Claimant:    policy.Holder,
		ClaimAmount: req.ClaimAmount,
		Status:      models.ClaimSubmitted,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if len(req.Evidence) > 0 {
		key, err := s.evidence.StoreEvidence(ctx, claim.ID, req.Evidence)
		if err != nil {
			return nil, err
		}
		claim.EvidenceKey = &key
	}

	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		// Policy state can move between the read above and this write.
		policy, err := tx.Policies().Get(ctx, req.PolicyID)
		if err != nil {
			return err
		}
		if policy.Status != models.PolicyActive && policy.Status != models.PolicyExpired {
			return models.ErrInvalidState.Wrap("policy %s is %s", req.PolicyID, policy.Status)
		}
		return tx.Claims().Insert(ctx, claim)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentClaims,
		Action:    "submit",
		EntityID:  claim.ID.String(),
		Actor:     actor.ID,
		Amount:    claim.ClaimAmount,
		Details:   map[string]any{"policy_id": claim.PolicyID},
		Timestamp: now.Unix(),
	})
	return claim, nil
}

// StartReview moves a submitted claim under review.
func (s *ClaimService) StartReview(ctx context.Context, actor models.Actor, id uuid.UUID) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentClaims, "start_review", err) }()

	if !actor.HasRole(models.RoleClaimProcessor) {
		return models.ErrUnauthorized.Wrap("start_review requires claim-processor")
	}

	now := s.clock()
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		claim, err := tx.Claims().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := guard.CheckClaimTransition(claim.Status, models.ClaimUnderReview); err != nil {
			return err
		}
		return tx.Claims().UpdateStatus(ctx, id, models.ClaimUnderReview, now, nil)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentClaims,
		Action:    "start_review",
		EntityID:  id.String(),
		Actor:     actor.ID,
		Timestamp: now.Unix(),
	})
	return nil
}

// ApproveClaim approves a claim under review and reserves the claim amount in
// the risk pool within the same transaction. If the pool cannot back the
// claim, the approval does not happen.
func (s *ClaimService) ApproveClaim(ctx context.Context, actor models.Actor, id uuid.UUID) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentClaims, "approve", err) }()

	if !actor.HasRole(models.RoleClaimProcessor) {
		return models.ErrUnauthorized.Wrap("approve requires claim-processor")
	}

	now := s.clock()
	var amount int64
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		claim, err := tx.Claims().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := guard.CheckClaimTransition(claim.Status, models.ClaimApproved); err != nil {
			return err
		}
		if err := s.pool.reserve(ctx, tx, claim.ClaimAmount); err != nil {
			return err
		}
		amount = claim.ClaimAmount
		return tx.Claims().UpdateStatus(ctx, id, models.ClaimApproved, now, nil)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentClaims,
		Action:    "approve",
		EntityID:  id.String(),
		Actor:     actor.ID,
		Amount:    amount,
		Timestamp: now.Unix(),
	})
	return nil
}

// RejectClaim rejects a claim under review and charges the rejection penalty
// fee into the treasury.
func (s *ClaimService) RejectClaim(ctx context.Context, actor models.Actor, id uuid.UUID) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentClaims, "reject", err) }()

	if !actor.HasRole(models.RoleClaimProcessor) {
		return models.ErrUnauthorized.Wrap("reject requires claim-processor")
	}

	now := s.clock()
	var feeEvent *event.AuditEvent
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		claim, err := tx.Claims().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := guard.CheckClaimTransition(claim.Status, models.ClaimRejected); err != nil {
			return err
		}

		penalty, err := guard.CheckedMul(claim.ClaimAmount, rejectionPenaltyBps)
		if err != nil {
			return err
		}
		penalty /= 10000
		if penalty > 0 {
			feeEvent, err = s.treasury.depositFee(ctx, tx, models.SourceClaimsProcessor, penalty, models.FeeClaimPenalty)
			if err != nil {
				return err
			}
		}
		return tx.Claims().UpdateStatus(ctx, id, models.ClaimRejected, now, nil)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentClaims,
		Action:    "reject",
		EntityID:  id.String(),
		Actor:     actor.ID,
		Timestamp: now.Unix(),
	})
	if feeEvent != nil {
		s.publish(ctx, *feeEvent)
	}
	return nil
}

// SettleClaim pays an approved claim out of its pool reservation and marks the
// policy claimed, all in one transaction.
func (s *ClaimService) SettleClaim(ctx context.Context, actor models.Actor, id uuid.UUID) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentClaims, "settle", err) }()

	if !actor.HasRole(models.RoleClaimProcessor) {
		return models.ErrUnauthorized.Wrap("settle requires claim-processor")
	}

	now := s.clock()
	var amount int64
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		claim, err := tx.Claims().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := guard.CheckClaimTransition(claim.Status, models.ClaimSettled); err != nil {
			return err
		}
		if err := s.pool.payoutReserved(ctx, tx, claim.ClaimAmount); err != nil {
			return err
		}
		if err := s.policy.markClaimed(ctx, tx, claim.PolicyID, now); err != nil {
			return err
		}
		amount = claim.ClaimAmount
		return tx.Claims().UpdateStatus(ctx, id, models.ClaimSettled, now, &now)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentClaims,
		Action:    "settle",
		EntityID:  id.String(),
		Actor:     actor.ID,
		Amount:    amount,
		Timestamp: now.Unix(),
	})
	return nil
}

func (s *ClaimService) GetClaim(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	return s.store.Claims().Get(ctx, id)
}

func (s *ClaimService) GetClaimsByPolicy(ctx context.Context, policyID uuid.UUID) ([]models.Claim, error) {
	return s.store.Claims().ListByPolicy(ctx, policyID)
}

// GetEvidence downloads the stored evidence payload for a claim.
func (s *ClaimService) GetEvidence(ctx context.Context, id uuid.UUID) ([]byte, error) {
	claim, err := s.store.Claims().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if claim.EvidenceKey == nil {
		return nil, models.ErrNotFound.Wrap("claim %s has no evidence", id)
	}
	return s.evidence.FetchEvidence(ctx, *claim.EvidenceKey)
}

func (s *ClaimService) GetStats(ctx context.Context) (*models.ClaimStats, error) {
	return s.store.Claims().Stats(ctx)
}

func (s *ClaimService) publish(ctx context.Context, evt event.AuditEvent) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		slog.Error("failed to publish claim event", "action", evt.Action, "entity_id", evt.EntityID, "error", err)
	}
}
