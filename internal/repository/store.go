package repository

import (
	"context"
	"fmt"

	"insurance-core/internal/storage"

	"github.com/jmoiron/sqlx"
)

// Store is the Postgres-backed storage.Store. WithinTx binds the repository
// set to a single sqlx transaction so a failure anywhere inside the callback
// rolls back every write the call performed.
type Store struct {
	db *sqlx.DB
	repoSet
}

type repoSet struct {
	policies *PolicyRepository
	claims   *ClaimRepository
	pool     *PoolRepository
	treasury *TreasuryRepository
}

func newRepoSet(ext sqlx.ExtContext) repoSet {
	return repoSet{
		policies: NewPolicyRepository(ext),
		claims:   NewClaimRepository(ext),
		pool:     NewPoolRepository(ext),
		treasury: NewTreasuryRepository(ext),
	}
}

func (s repoSet) Policies() storage.PolicyRepository { return s.policies }
func (s repoSet) Claims() storage.ClaimRepository    { return s.claims }
func (s repoSet) Pool() storage.PoolRepository       { return s.pool }
func (s repoSet) Treasury() storage.TreasuryRepository {
	return s.treasury
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, repoSet: newRepoSet(db)}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(newRepoSet(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
