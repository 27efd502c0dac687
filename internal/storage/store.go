// Package storage defines the persistence boundary of the protocol core. Every
// state-mutating operation runs inside a single WithinTx call: either all of
// its writes commit or none do, including nested cross-component steps like
// reserving pool liquidity while approving a claim.
package storage

import (
	"context"
	"time"

	"insurance-core/internal/models"

	"github.com/google/uuid"
)

type PolicyRepository interface {
	Insert(ctx context.Context, policy *models.Policy) error
	// Get returns models.ErrNotFound when no policy has the given id.
	Get(ctx context.Context, id uuid.UUID) (*models.Policy, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.PolicyStatus, updatedAt time.Time) error
	ListByHolder(ctx context.Context, holder string) ([]models.Policy, error)
	// ListExpirable returns active policies whose end_time is before asOf.
	ListExpirable(ctx context.Context, asOf int64) ([]models.Policy, error)
	Stats(ctx context.Context) (*models.PolicyStats, error)
}

type ClaimRepository interface {
	Insert(ctx context.Context, claim *models.Claim) error
	Get(ctx context.Context, id uuid.UUID) (*models.Claim, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ClaimStatus, updatedAt time.Time, settledAt *time.Time) error
	ListByPolicy(ctx context.Context, policyID uuid.UUID) ([]models.Claim, error)
	Stats(ctx context.Context) (*models.ClaimStats, error)
}

type PoolRepository interface {
	InsertLedger(ctx context.Context, ledger *models.PoolLedger) error
	// GetLedger returns models.ErrNotInitialized when the pool row is absent.
	GetLedger(ctx context.Context) (*models.PoolLedger, error)
	UpdateLedger(ctx context.Context, ledger *models.PoolLedger) error
	GetProvider(ctx context.Context, provider string) (*models.PoolProvider, error)
	UpsertProvider(ctx context.Context, provider *models.PoolProvider) error
	DeleteProvider(ctx context.Context, provider string) error
}

type TreasuryRepository interface {
	InsertState(ctx context.Context, state *models.TreasuryState) error
	// GetState returns models.ErrNotInitialized when the treasury row is absent.
	GetState(ctx context.Context) (*models.TreasuryState, error)
	UpdateState(ctx context.Context, state *models.TreasuryState) error
	IsTrustedSource(ctx context.Context, source models.FeeSource) (bool, error)
	AddTrustedSource(ctx context.Context, source models.FeeSource) error
	InsertProposal(ctx context.Context, proposal *models.WithdrawalProposal) error
	GetProposal(ctx context.Context, id uuid.UUID) (*models.WithdrawalProposal, error)
	UpdateProposal(ctx context.Context, proposal *models.WithdrawalProposal) error
	ListProposals(ctx context.Context) ([]models.WithdrawalProposal, error)
	GetAllocation(ctx context.Context, purpose models.AllocationPurpose) (*models.AllocationRecord, error)
	UpsertAllocation(ctx context.Context, record *models.AllocationRecord) error
}

// Tx is the repository set bound to one transaction.
type Tx interface {
	Policies() PolicyRepository
	Claims() ClaimRepository
	Pool() PoolRepository
	Treasury() TreasuryRepository
}

// Store is the transaction-capable root. Reads outside a transaction use the
// repository accessors directly.
type Store interface {
	Tx
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
