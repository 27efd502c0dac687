package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"insurance-core/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ClaimRepository struct {
	ext sqlx.ExtContext
}

func NewClaimRepository(ext sqlx.ExtContext) *ClaimRepository {
	return &ClaimRepository{ext: ext}
}

func (r *ClaimRepository) Insert(ctx context.Context, claim *models.Claim) error {
	query := `
		INSERT INTO claim (id, policy_id, claimant, claim_amount, status,
		                   description, evidence_key, created_at, updated_at, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.ext.ExecContext(ctx, query,
		claim.ID, claim.PolicyID, claim.Claimant, claim.ClaimAmount, claim.Status,
		claim.Description, claim.EvidenceKey, claim.CreatedAt, claim.UpdatedAt,
		claim.SettledAt)
	if err != nil {
		return fmt.Errorf("failed to insert claim: %w", err)
	}

	return nil
}

func (r *ClaimRepository) Get(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	var claim models.Claim
	query := `
		SELECT id, policy_id, claimant, claim_amount, status,
		       description, evidence_key, created_at, updated_at, settled_at
		FROM claim
		WHERE id = $1
	`

	err := sqlx.GetContext(ctx, r.ext, &claim, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound.Wrap("claim %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim by id: %w", err)
	}

	return &claim, nil
}

func (r *ClaimRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ClaimStatus, updatedAt time.Time, settledAt *time.Time) error {
	query := `UPDATE claim SET status = $1, updated_at = $2, settled_at = $3 WHERE id = $4`

	result, err := r.ext.ExecContext(ctx, query, status, updatedAt, settledAt, id)
	if err != nil {
		return fmt.Errorf("failed to update claim status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotFound.Wrap("claim %s", id)
	}

	return nil
}

func (r *ClaimRepository) ListByPolicy(ctx context.Context, policyID uuid.UUID) ([]models.Claim, error) {
	var claims []models.Claim
	query := `
		SELECT id, policy_id, claimant, claim_amount, status,
		       description, evidence_key, created_at, updated_at, settled_at
		FROM claim
		WHERE policy_id = $1
		ORDER BY created_at DESC
	`

	err := sqlx.SelectContext(ctx, r.ext, &claims, query, policyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims by policy: %w", err)
	}

	return claims, nil
}

func (r *ClaimRepository) Stats(ctx context.Context) (*models.ClaimStats, error) {
	var stats models.ClaimStats
	query := `
		SELECT COUNT(*) AS claim_count,
		       COALESCE(SUM(claim_amount), 0) AS total_claimed,
		       COALESCE(SUM(claim_amount) FILTER (WHERE status = 'settled'), 0) AS total_settled
		FROM claim
	`

	err := sqlx.GetContext(ctx, r.ext, &stats, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim stats: %w", err)
	}

	return &stats, nil
}
