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

// RiskPoolService owns the pool ledger: aggregate liquidity, the
// reserved-for-claims counter, and per-provider stakes. Its entry points are
// the only sanctioned mutators of those counters; the claims processor goes
// through the tx-level helpers, never through storage directly. Every mutation
// re-asserts the solvency invariant after the write, inside the same
// transaction, so a violating write can never commit.
type RiskPoolService struct {
	store     storage.Store
	publisher event.Publisher
	clock     func() time.Time
}

func NewRiskPoolService(store storage.Store, publisher event.Publisher) *RiskPoolService {
	return &RiskPoolService{
		store:     store,
		publisher: publisher,
		clock:     time.Now,
	}
}

// Initialize writes the singleton ledger row. A second call fails.
func (s *RiskPoolService) Initialize(ctx context.Context, actor models.Actor, minProviderStake int64) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentPool, "initialize", err) }()

	if !actor.IsAdmin() {
		return models.ErrUnauthorized.Wrap("pool initialize requires admin")
	}
	if minProviderStake < 0 {
		return models.ErrInvalidInput.Wrap("min_provider_stake %d", minProviderStake)
	}

	now := s.clock()
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		_, err := tx.Pool().GetLedger(ctx)
		if err == nil {
			return models.ErrAlreadyInitialized.Wrap("risk pool")
		}
		if !errors.Is(err, models.ErrNotInitialized) {
			return err
		}
		return tx.Pool().InsertLedger(ctx, &models.PoolLedger{
			MinProviderStake: minProviderStake,
			UpdatedAt:        now,
		})
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentPool,
		Action:    "initialize",
		Actor:     actor.ID,
		Timestamp: now.Unix(),
	})
	return nil
}

// Deposit adds liquidity from a provider, growing both the pool total and the
// provider's stake.
func (s *RiskPoolService) Deposit(ctx context.Context, actor models.Actor, amount int64) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentPool, "deposit", err) }()

	if err = guard.ValidateAmount(amount); err != nil {
		return err
	}

	now := s.clock()
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		ledger, err := tx.Pool().GetLedger(ctx)
		if err != nil {
			return err
		}
		if ledger.Paused {
			return models.ErrPaused
		}
		if amount < ledger.MinProviderStake {
			return models.ErrInvalidInput.Wrap("stake %d below minimum %d", amount, ledger.MinProviderStake)
		}

		ledger.TotalLiquidity, err = guard.CheckedAdd(ledger.TotalLiquidity, amount)
		if err != nil {
			return err
		}

		provider, err := tx.Pool().GetProvider(ctx, actor.ID)
		switch {
		case errors.Is(err, models.ErrNotFound):
			provider = &models.PoolProvider{
				Provider:         actor.ID,
				StakeAmount:      amount,
				ContributionTime: now.Unix(),
				UpdatedAt:        now,
			}
			ledger.ProviderCount++
		case err != nil:
			return err
		default:
			provider.StakeAmount, err = guard.CheckedAdd(provider.StakeAmount, amount)
			if err != nil {
				return err
			}
			provider.UpdatedAt = now
		}

		if err := tx.Pool().UpsertProvider(ctx, provider); err != nil {
			return err
		}
		ledger.UpdatedAt = now
		if err := tx.Pool().UpdateLedger(ctx, ledger); err != nil {
			return err
		}
		return s.assertSolvency(ctx, tx)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentPool,
		Action:    "deposit",
		EntityID:  actor.ID,
		Actor:     actor.ID,
		Amount:    amount,
		Timestamp: now.Unix(),
	})
	return nil
}

// Withdraw returns stake to a provider. Fails if the amount exceeds the
// provider's stake or would leave the pool unable to cover reserved claims.
func (s *RiskPoolService) Withdraw(ctx context.Context, actor models.Actor, amount int64) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentPool, "withdraw", err) }()

	if err = guard.ValidateAmount(amount); err != nil {
		return err
	}

	now := s.clock()
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		ledger, err := tx.Pool().GetLedger(ctx)
		if err != nil {
			return err
		}
		if ledger.Paused {
			return models.ErrPaused
		}

		provider, err := tx.Pool().GetProvider(ctx, actor.ID)
		if err != nil {
			return err
		}
		if amount > provider.StakeAmount {
			return models.ErrInsufficientFunds.Wrap("stake %d, requested %d", provider.StakeAmount, amount)
		}

		remaining, err := guard.CheckedSub(ledger.TotalLiquidity, amount)
		if err != nil {
			return err
		}
		if err := guard.LiquidityOK(remaining, ledger.ReservedForClaims); err != nil {
			metrics.InvariantViolationsTotal.WithLabelValues(event.ComponentPool, "liquidity").Inc()
			return models.ErrInsufficientFunds.Wrap("withdrawal would break claim reservations")
		}

		provider.StakeAmount, err = guard.CheckedSub(provider.StakeAmount, amount)
		if err != nil {
			return err
		}
		if provider.StakeAmount == 0 {
			if err := tx.Pool().DeleteProvider(ctx, actor.ID); err != nil {
				return err
			}
			ledger.ProviderCount--
		} else {
			provider.UpdatedAt = now
			if err := tx.Pool().UpsertProvider(ctx, provider); err != nil {
				return err
			}
		}

		ledger.TotalLiquidity = remaining
		ledger.UpdatedAt = now
		if err := tx.Pool().UpdateLedger(ctx, ledger); err != nil {
			return err
		}
		return s.assertSolvency(ctx, tx)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentPool,
		Action:    "withdraw",
		EntityID:  actor.ID,
		Actor:     actor.ID,
		Amount:    amount,
		Timestamp: now.Unix(),
	})
	return nil
}

// Reserve earmarks liquidity for a pending claim. Manager entry point; the
// claims processor uses the tx-level helper inside its approval transaction.
func (s *RiskPoolService) Reserve(ctx context.Context, actor models.Actor, amount int64) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentPool, "reserve", err) }()

	if !actor.HasRole(models.RoleRiskPoolManager) {
		return models.ErrUnauthorized.Wrap("reserve requires risk-pool-manager")
	}
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		return s.reserve(ctx, tx, amount)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentPool,
		Action:    "reserve",
		Actor:     actor.ID,
		Amount:    amount,
		Timestamp: s.clock().Unix(),
	})
	return nil
}

// Release frees a reservation without paying it out.
func (s *RiskPoolService) Release(ctx context.Context, actor models.Actor, amount int64) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentPool, "release", err) }()

	if !actor.HasRole(models.RoleRiskPoolManager) {
		return models.ErrUnauthorized.Wrap("release requires risk-pool-manager")
	}
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		return s.release(ctx, tx, amount)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentPool,
		Action:    "release",
		Actor:     actor.ID,
		Amount:    amount,
		Timestamp: s.clock().Unix(),
	})
	return nil
}

// reserve checked-adds to reserved_for_claims; fails when the resulting
// reservation exceeds total liquidity.
func (s *RiskPoolService) reserve(ctx context.Context, tx storage.Tx, amount int64) error {
	if err := guard.ValidateAmount(amount); err != nil {
		return err
	}
	ledger, err := tx.Pool().GetLedger(ctx)
	if err != nil {
		return err
	}

	reserved, err := guard.CheckedAdd(ledger.ReservedForClaims, amount)
	if err != nil {
		return err
	}
	if err := guard.LiquidityOK(ledger.TotalLiquidity, reserved); err != nil {
		metrics.InvariantViolationsTotal.WithLabelValues(event.ComponentPool, "liquidity").Inc()
		return err
	}

	ledger.ReservedForClaims = reserved
	ledger.UpdatedAt = s.clock()
	if err := tx.Pool().UpdateLedger(ctx, ledger); err != nil {
		return err
	}
	return s.assertSolvency(ctx, tx)
}

// release checked-subs reserved_for_claims without touching total liquidity.
func (s *RiskPoolService) release(ctx context.Context, tx storage.Tx, amount int64) error {
	if err := guard.ValidateAmount(amount); err != nil {
		return err
	}
	ledger, err := tx.Pool().GetLedger(ctx)
	if err != nil {
		return err
	}
	if amount > ledger.ReservedForClaims {
		return models.ErrInvalidState.Wrap("cannot release %d, only %d reserved", amount, ledger.ReservedForClaims)
	}

	ledger.ReservedForClaims, err = guard.CheckedSub(ledger.ReservedForClaims, amount)
	if err != nil {
		return err
	}
	ledger.UpdatedAt = s.clock()
	if err := tx.Pool().UpdateLedger(ctx, ledger); err != nil {
		return err
	}
	return s.assertSolvency(ctx, tx)
}

// payoutReserved consumes a reservation: both the reserved counter and total
// liquidity shrink by the paid amount.
func (s *RiskPoolService) payoutReserved(ctx context.Context, tx storage.Tx, amount int64) error {
	if err := guard.ValidateAmount(amount); err != nil {
		return err
	}
	ledger, err := tx.Pool().GetLedger(ctx)
	if err != nil {
		return err
	}
	if amount > ledger.ReservedForClaims {
		return models.ErrInvalidState.Wrap("cannot pay out %d, only %d reserved", amount, ledger.ReservedForClaims)
	}

	ledger.ReservedForClaims, err = guard.CheckedSub(ledger.ReservedForClaims, amount)
	if err != nil {
		return err
	}
	ledger.TotalLiquidity, err = guard.CheckedSub(ledger.TotalLiquidity, amount)
	if err != nil {
		return err
	}
	if err := guard.LiquidityOK(ledger.TotalLiquidity, ledger.ReservedForClaims); err != nil {
		metrics.InvariantViolationsTotal.WithLabelValues(event.ComponentPool, "liquidity").Inc()
		return err
	}

	ledger.UpdatedAt = s.clock()
	if err := tx.Pool().UpdateLedger(ctx, ledger); err != nil {
		return err
	}
	return s.assertSolvency(ctx, tx)
}

// SetPause gates deposit and withdraw. Admin only.
func (s *RiskPoolService) SetPause(ctx context.Context, actor models.Actor, paused bool) (err error) {
	defer func() { metrics.RecordOperation(event.ComponentPool, "set_pause", err) }()

	if !actor.IsAdmin() {
		return models.ErrUnauthorized.Wrap("set_pause requires admin")
	}

	now := s.clock()
	err = s.store.WithinTx(ctx, func(tx storage.Tx) error {
		ledger, err := tx.Pool().GetLedger(ctx)
		if err != nil {
			return err
		}
		ledger.Paused = paused
		ledger.UpdatedAt = now
		return tx.Pool().UpdateLedger(ctx, ledger)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event.AuditEvent{
		ID:        uuid.NewString(),
		Component: event.ComponentPool,
		Action:    "set_pause",
		Actor:     actor.ID,
		Details:   map[string]any{"paused": paused},
		Timestamp: now.Unix(),
	})
	return nil
}

// assertSolvency is the post-write re-check of the solvency invariant. The
// checks before the write should make this unreachable; it exists to catch
// arithmetic mistakes in callers before they commit.
func (s *RiskPoolService) assertSolvency(ctx context.Context, tx storage.Tx) error {
	ledger, err := tx.Pool().GetLedger(ctx)
	if err != nil {
		return err
	}
	if err := guard.LiquidityOK(ledger.TotalLiquidity, ledger.ReservedForClaims); err != nil {
		metrics.InvariantViolationsTotal.WithLabelValues(event.ComponentPool, "liquidity").Inc()
		slog.Error("pool solvency violated after write",
			"total_liquidity", ledger.TotalLiquidity,
			"reserved_for_claims", ledger.ReservedForClaims)
		return err
	}
	if ledger.ReservedForClaims < 0 || ledger.TotalLiquidity < 0 {
		metrics.InvariantViolationsTotal.WithLabelValues(event.ComponentPool, "non_negative").Inc()
		return models.ErrLiquidityViolation.Wrap("negative pool counter")
	}
	return nil
}

func (s *RiskPoolService) GetLedger(ctx context.Context) (*models.PoolLedger, error) {
	return s.store.Pool().GetLedger(ctx)
}

func (s *RiskPoolService) GetProvider(ctx context.Context, provider string) (*models.PoolProvider, error) {
	return s.store.Pool().GetProvider(ctx, provider)
}

func (s *RiskPoolService) publish(ctx context.Context, evt event.AuditEvent) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		slog.Error("failed to publish pool event", "action", evt.Action, "error", err)
	}
}
