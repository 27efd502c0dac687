package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"insurance-core/internal/models"

	"github.com/jmoiron/sqlx"
)

// PoolRepository persists the singleton risk pool ledger row and the
// per-provider stake records. The ledger row always has id 1.
type PoolRepository struct {
	ext sqlx.ExtContext
}

func NewPoolRepository(ext sqlx.ExtContext) *PoolRepository {
	return &PoolRepository{ext: ext}
}

func (r *PoolRepository) InsertLedger(ctx context.Context, ledger *models.PoolLedger) error {
	query := `
		INSERT INTO risk_pool (id, total_liquidity, reserved_for_claims, provider_count,
		                       min_provider_stake, paused, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6)
	`

	_, err := r.ext.ExecContext(ctx, query,
		ledger.TotalLiquidity, ledger.ReservedForClaims, ledger.ProviderCount,
		ledger.MinProviderStake, ledger.Paused, ledger.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert pool ledger: %w", err)
	}

	return nil
}

func (r *PoolRepository) GetLedger(ctx context.Context) (*models.PoolLedger, error) {
	var ledger models.PoolLedger
	query := `
		SELECT total_liquidity, reserved_for_claims, provider_count,
		       min_provider_stake, paused, updated_at
		FROM risk_pool
		WHERE id = 1
	`

	err := sqlx.GetContext(ctx, r.ext, &ledger, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotInitialized.Wrap("risk pool")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pool ledger: %w", err)
	}

	return &ledger, nil
}

func (r *PoolRepository) UpdateLedger(ctx context.Context, ledger *models.PoolLedger) error {
	query := `
		UPDATE risk_pool
		SET total_liquidity = $1, reserved_for_claims = $2, provider_count = $3,
		    min_provider_stake = $4, paused = $5, updated_at = $6
		WHERE id = 1
	`

	result, err := r.ext.ExecContext(ctx, query,
		ledger.TotalLiquidity, ledger.ReservedForClaims, ledger.ProviderCount,
		ledger.MinProviderStake, ledger.Paused, ledger.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update pool ledger: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotInitialized.Wrap("risk pool")
	}

	return nil
}

func (r *PoolRepository) GetProvider(ctx context.Context, provider string) (*models.PoolProvider, error) {
	var record models.PoolProvider
	query := `
		SELECT provider, stake_amount, contribution_time, updated_at
		FROM pool_provider
		WHERE provider = $1
	`

	err := sqlx.GetContext(ctx, r.ext, &record, query, provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound.Wrap("provider %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pool provider: %w", err)
	}

	return &record, nil
}

func (r *PoolRepository) UpsertProvider(ctx context.Context, provider *models.PoolProvider) error {
	query := `
		INSERT INTO pool_provider (provider, stake_amount, contribution_time, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider)
		DO UPDATE SET stake_amount = EXCLUDED.stake_amount, updated_at = EXCLUDED.updated_at
	`

	_, err := r.ext.ExecContext(ctx, query,
		provider.Provider, provider.StakeAmount, provider.ContributionTime,
		provider.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert pool provider: %w", err)
	}

	return nil
}

func (r *PoolRepository) DeleteProvider(ctx context.Context, provider string) error {
	query := `DELETE FROM pool_provider WHERE provider = $1`

	_, err := r.ext.ExecContext(ctx, query, provider)
	if err != nil {
		return fmt.Errorf("failed to delete pool provider: %w", err)
	}

	return nil
}
