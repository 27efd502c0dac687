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

// PolicyRepository persists policies. It runs over sqlx.ExtContext so the same
// code serves both *sqlx.DB and *sqlx.Tx.
type PolicyRepository struct {
	ext sqlx.ExtContext
}

func NewPolicyRepository(ext sqlx.ExtContext) *PolicyRepository {
	return &PolicyRepository{ext: ext}
}

func (r *PolicyRepository) Insert(ctx context.Context, policy *models.Policy) error {
	query := `
		INSERT INTO policy (id, holder, coverage_amount, premium_amount, policy_type,
		                    start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.ext.ExecContext(ctx, query,
		policy.ID, policy.Holder, policy.CoverageAmount, policy.PremiumAmount,
		policy.PolicyType, policy.StartTime, policy.EndTime, policy.Status,
		policy.CreatedAt, policy.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert policy: %w", err)
	}

	return nil
}

func (r *PolicyRepository) Get(ctx context.Context, id uuid.UUID) (*models.Policy, error) {
	var policy models.Policy
	query := `
		SELECT id, holder, coverage_amount, premium_amount, policy_type,
		       start_time, end_time, status, created_at, updated_at
		FROM policy
		WHERE id = $1
	`

	err := sqlx.GetContext(ctx, r.ext, &policy, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound.Wrap("policy %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get policy by id: %w", err)
	}

	return &policy, nil
}

func (r *PolicyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PolicyStatus, updatedAt time.Time) error {
	query := `UPDATE policy SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.ext.ExecContext(ctx, query, status, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update policy status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotFound.Wrap("policy %s", id)
	}

	return nil
}

func (r *PolicyRepository) ListByHolder(ctx context.Context, holder string) ([]models.Policy, error) {
	var policies []models.Policy
	query := `
		SELECT id, holder, coverage_amount, premium_amount, policy_type,
		       start_time, end_time, status, created_at, updated_at
		FROM policy
		WHERE holder = $1
		ORDER BY created_at DESC
	`

	err := sqlx.SelectContext(ctx, r.ext, &policies, query, holder)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies by holder: %w", err)
	}

	return policies, nil
}

func (r *PolicyRepository) ListExpirable(ctx context.Context, asOf int64) ([]models.Policy, error) {
	var policies []models.Policy
	query := `
		SELECT id, holder, coverage_amount, premium_amount, policy_type,
		       start_time, end_time, status, created_at, updated_at
		FROM policy
		WHERE status = $1 AND end_time < $2
		ORDER BY end_time
	`

	err := sqlx.SelectContext(ctx, r.ext, &policies, query, models.PolicyActive, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list expirable policies: %w", err)
	}

	return policies, nil
}

func (r *PolicyRepository) Stats(ctx context.Context) (*models.PolicyStats, error) {
	var stats models.PolicyStats
	query := `
		SELECT COUNT(*) AS policy_count,
		       COALESCE(SUM(premium_amount), 0) AS total_premiums,
		       COALESCE(SUM(coverage_amount), 0) AS total_coverage
		FROM policy
	`

	err := sqlx.GetContext(ctx, r.ext, &stats, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get policy stats: %w", err)
	}

	return &stats, nil
}
