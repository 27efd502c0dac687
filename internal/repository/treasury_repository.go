package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"insurance-core/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TreasuryRepository persists the singleton treasury row (id 1), the trusted
// source registry, withdrawal proposals, and per-purpose allocation records.
type TreasuryRepository struct {
	ext sqlx.ExtContext
}

func NewTreasuryRepository(ext sqlx.ExtContext) *TreasuryRepository {
	return &TreasuryRepository{ext: ext}
}

func (r *TreasuryRepository) InsertState(ctx context.Context, state *models.TreasuryState) error {
	query := `
		INSERT INTO treasury (id, balance, total_fees_collected, total_withdrawn,
		                      fee_bps, paused, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6)
	`

	_, err := r.ext.ExecContext(ctx, query,
		state.Balance, state.TotalFeesCollected, state.TotalWithdrawn,
		state.FeeBps, state.Paused, state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert treasury state: %w", err)
	}

	return nil
}

func (r *TreasuryRepository) GetState(ctx context.Context) (*models.TreasuryState, error) {
	var state models.TreasuryState
	query := `
		SELECT balance, total_fees_collected, total_withdrawn, fee_bps, paused, updated_at
		FROM treasury
		WHERE id = 1
	`

	err := sqlx.GetContext(ctx, r.ext, &state, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotInitialized.Wrap("treasury")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get treasury state: %w", err)
	}

	return &state, nil
}

func (r *TreasuryRepository) UpdateState(ctx context.Context, state *models.TreasuryState) error {
	query := `
		UPDATE treasury
		SET balance = $1, total_fees_collected = $2, total_withdrawn = $3,
		    fee_bps = $4, paused = $5, updated_at = $6
		WHERE id = 1
	`

	result, err := r.ext.ExecContext(ctx, query,
		state.Balance, state.TotalFeesCollected, state.TotalWithdrawn,
		state.FeeBps, state.Paused, state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update treasury state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotInitialized.Wrap("treasury")
	}

	return nil
}

func (r *TreasuryRepository) IsTrustedSource(ctx context.Context, source models.FeeSource) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM treasury_trusted_source WHERE source = $1)`

	err := sqlx.GetContext(ctx, r.ext, &exists, query, source)
	if err != nil {
		return false, fmt.Errorf("failed to check trusted source: %w", err)
	}

	return exists, nil
}

func (r *TreasuryRepository) AddTrustedSource(ctx context.Context, source models.FeeSource) error {
	query := `INSERT INTO treasury_trusted_source (source) VALUES ($1) ON CONFLICT DO NOTHING`

	_, err := r.ext.ExecContext(ctx, query, source)
	if err != nil {
		return fmt.Errorf("failed to add trusted source: %w", err)
	}

	return nil
}

func (r *TreasuryRepository) InsertProposal(ctx context.Context, proposal *models.WithdrawalProposal) error {
	query := `
		INSERT INTO withdrawal_proposal (id, recipient, amount, purpose, proposer,
		                                 description, status, executed, created_at, voting_ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.ext.ExecContext(ctx, query,
		proposal.ID, proposal.Recipient, proposal.Amount, proposal.Purpose,
		proposal.Proposer, proposal.Description, proposal.Status, proposal.Executed,
		proposal.CreatedAt, proposal.VotingEndsAt)
	if err != nil {
		return fmt.Errorf("failed to insert proposal: %w", err)
	}

	return nil
}

func (r *TreasuryRepository) GetProposal(ctx context.Context, id uuid.UUID) (*models.WithdrawalProposal, error) {
	var proposal models.WithdrawalProposal
	query := `
		SELECT id, recipient, amount, purpose, proposer, description,
		       status, executed, created_at, voting_ends_at
		FROM withdrawal_proposal
		WHERE id = $1
	`

	err := sqlx.GetContext(ctx, r.ext, &proposal, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound.Wrap("proposal %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal by id: %w", err)
	}

	return &proposal, nil
}

func (r *TreasuryRepository) UpdateProposal(ctx context.Context, proposal *models.WithdrawalProposal) error {
	query := `
		UPDATE withdrawal_proposal
		SET status = $1, executed = $2
		WHERE id = $3
	`

	result, err := r.ext.ExecContext(ctx, query, proposal.Status, proposal.Executed, proposal.ID)
	if err != nil {
		return fmt.Errorf("failed to update proposal: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotFound.Wrap("proposal %s", proposal.ID)
	}

	return nil
}

func (r *TreasuryRepository) ListProposals(ctx context.Context) ([]models.WithdrawalProposal, error) {
	var proposals []models.WithdrawalProposal
	query := `
		SELECT id, recipient, amount, purpose, proposer, description,
		       status, executed, created_at, voting_ends_at
		FROM withdrawal_proposal
		ORDER BY created_at DESC
	`

	err := sqlx.SelectContext(ctx, r.ext, &proposals, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	return proposals, nil
}

func (r *TreasuryRepository) GetAllocation(ctx context.Context, purpose models.AllocationPurpose) (*models.AllocationRecord, error) {
	var record models.AllocationRecord
	query := `
		SELECT purpose, total_allocated, total_withdrawn, allocation_count, updated_at
		FROM allocation_record
		WHERE purpose = $1
	`

	err := sqlx.GetContext(ctx, r.ext, &record, query, purpose)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound.Wrap("allocation %s", purpose)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get allocation record: %w", err)
	}

	return &record, nil
}

func (r *TreasuryRepository) UpsertAllocation(ctx context.Context, record *models.AllocationRecord) error {
	query := `
		INSERT INTO allocation_record (purpose, total_allocated, total_withdrawn,
		                               allocation_count, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (purpose)
		DO UPDATE SET total_allocated = EXCLUDED.total_allocated,
		              total_withdrawn = EXCLUDED.total_withdrawn,
		              allocation_count = EXCLUDED.allocation_count,
		              updated_at = EXCLUDED.updated_at
	`

	_, err := r.ext.ExecContext(ctx, query,
		record.Purpose, record.TotalAllocated, record.TotalWithdrawn,
		record.AllocationCount, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert allocation record: %w", err)
	}

	return nil
}
