package services

import (
	"context"
	"log/slog"
	"time"

	"insurance-core/internal/event"
	"insurance-core/internal/guard"
	"insurance-core/internal/metrics"
	"insurance-core/internal/models"
	"insurance-core/internal/storage"

	"github.com/google/uuid"
)

// PolicyService owns policy records and their lifecycle. Status moves only
// through the guarded transition methods below; the protocol fee cut of each
// premium lands in the treasury inside the issuing transaction.
type PolicyService struct {
	store     storage.Store
	publisher event.Publisher
	treasury  *TreasuryService
	clock     func() time.Time
}

func NewPolicyService(store storage.Store, publisher event.Publisher, treasury *TreasuryService) *PolicyService {
	return &PolicyService{
		store:     store,
		publisher: publisher,
		treasury:  treasury,
		clock:     time.Now,
	}
}

// IssuePolicy validates the amounts, creates an Active policy and deposits the
// protocol fee share of the premium into the treasury, all in one transaction.
func (s *PolicyService) IssuePolicy(ctx context.Context, actor models.Actor, req models.IssuePolicyRequest) (policy *models.Policy, err error) {
	defer func() { metrics.RecordOperation(event.ComponentPolicy, "issue", err) }()

	if err = guard.ValidateAmount(req.CoverageAmount); err != nil {
		return nil, models.ErrInvalidAmount.Wrap("coverage_amount %d", req.CoverageAmount)
	}
	if req.PremiumAmount <= 0 {
		return nil, models.ErrInvalidPremium.Wrap("premium_amount %d", req.PremiumAmount)
	}
	if req.DurationDays <= 0 {
		return nil, models.ErrInvalidInput.Wrap("duration_days %d", req.DurationDays)
	}
	holder := req.Holder
	if holder == "" {
		holder = actor.ID
	}
	if holder == "" {
		return nil, models.ErrInvalidInput.Wrap("holder is required")
	}

	now := s.clock()
	policy = &models.Policy{
		ID:             uuid.New(),
		Holder:         holder,
		CoverageAmount: req.CoverageAmount,
		PremiumAmount:  req.PremiumAmount,
		PolicyType:     req.PolicyType,
		StartTime:      now.Unix(),
		EndTime:        now.Unix() + req.DurationDays*86400,
		Status:         models.PolicyActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var feeEvent *event.AuditEvent
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		if err := tx.Policies().Insert(ctx, policy); err != nil {
			return err
		}

		fee, err := s.treasury.premiumFee(ctx, tx, req.PremiumAmount)
		if err != nil {
			return err
		}
		if fee > 0 {
			feeEvent, err = s.treasury.depositFee(ctx, tx, models.SourcePolicyLedger, fee, models.FeePremium)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentPolicy,
		Action:    "issue",
		EntityID:  policy.ID.String(),
		Actor:     actor.ID,
		Amount:    policy.PremiumAmount,
		Details:   map[string]any{"coverage_amount": policy.CoverageAmount, "end_time": policy.EndTime},
		Timestamp: now.Unix(),
	})
	if feeEvent != nil {
		s.publish(ctx, *feeEvent)
	}

	return policy, nil
}

// CancelPolicy moves an Active policy to Cancelled. Allowed for the holder or
// an admin.
func (s *PolicyService) CancelPolicy(ctx context.Context, actor models.Actor, id uuid.UUID) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentPolicy, "cancel", err) }()

	now := s.clock()
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		policy, err := tx.Policies().Get(ctx, id)
		if err != nil {
			return err
		}
		if actor.ID != policy.Holder && !actor.IsAdmin() {
			return models.ErrUnauthorized.Wrap("caller %s cannot cancel policy %s", actor.ID, id)
		}
		if err := guard.CheckPolicyTransition(policy.Status, models.PolicyCancelled); err != nil {
			return err
		}
		return tx.Policies().UpdateStatus(ctx, id, models.PolicyCancelled, now)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentPolicy,
		Action:    "cancel",
		EntityID:  id.String(),
		Actor:     actor.ID,
		Timestamp: now.Unix(),
	})
	return nil
}

// ExpirePolicy moves an Active policy to Expired. Admin only, and only once
// the coverage window has actually passed. All expiry goes through this entry
// point, including the sweep worker.
func (s *PolicyService) ExpirePolicy(ctx context.Context, actor models.Actor, id uuid.UUID) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentPolicy, "expire", err) }()

	if !actor.IsAdmin() {
		return models.ErrUnauthorized.Wrap("expire requires admin")
	}

	now := s.clock()
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		policy, err := tx.Policies().Get(ctx, id)
		if err != nil {
			return err
		}
		if now.Unix() <= policy.EndTime {
			return models.ErrInvalidState.Wrap("policy %s has not reached end_time", id)
		}
		if err := guard.CheckPolicyTransition(policy.Status, models.PolicyExpired); err != nil {
			return err
		}
		return tx.Policies().UpdateStatus(ctx, id, models.PolicyExpired, now)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentPolicy,
		Action:    "expire",
		EntityID:  id.String(),
		Actor:     actor.ID,
		Timestamp: now.Unix(),
	})
	return nil
}

// ExpireOverduePolicies expires every active policy whose coverage window has
// passed. Returns how many were expired; a failure on one policy stops the
// sweep so the next run retries from a clean read.
func (s *PolicyService) ExpireOverduePolicies(ctx context.Context, actor models.Actor) (int, error) {
	overdue, err := s.store.Policies().ListExpirable(ctx, s.clock().Unix())
	if err != nil {
		return 0, err
	}

	for i, policy := range overdue {
		if err := s.ExpirePolicy(ctx, actor, policy.ID); err != nil {
			return i, err
		}
	}
	return len(overdue), nil
}

// markClaimed is invoked by the claims processor on settlement, inside the
// settlement transaction. Legal from Active or Expired (grace-period claims).
func (s *PolicyService) markClaimed(ctx context.Context, tx storage.Tx, id uuid.UUID, now time.Time) error {
	policy, err := tx.Policies().Get(ctx, id)
	if err != nil {
		return err
	}
	if err := guard.CheckPolicyTransition(policy.Status, models.PolicyClaimed); err != nil {
		return err
	}
	return tx.Policies().UpdateStatus(ctx, id, models.PolicyClaimed, now)
}

func (s *PolicyService) GetPolicy(ctx context.Context, id uuid.UUID) (*models.Policy, error) {
	return s.store.Policies().Get(ctx, id)
}

func (s *PolicyService) GetPolicyState(ctx context.Context, id uuid.UUID) (models.PolicyStatus, error) {
	policy, err := s.store.Policies().Get(ctx, id)
	if err != nil {
		return "", err
	}
	return policy.Status, nil
}

func (s *PolicyService) GetPoliciesByHolder(ctx context.Context, holder string) ([]models.Policy, error) {
	return s.store.Policies().ListByHolder(ctx, holder)
}

func (s *PolicyService) GetStats(ctx context.Context) (*models.PolicyStats, error) {
	return s.store.Policies().Stats(ctx)
}

func (s *PolicyService) publish(ctx context.Context, evt event.AuditEvent) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		slog.Error("failed to publish policy event", "action", evt.Action, "entity_id", evt.EntityID, "error", err)
	}
}
