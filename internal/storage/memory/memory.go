// Package memory provides an in-memory storage.Store. It mirrors the Postgres
// store's semantics — including transaction rollback via state snapshots — and
// backs the service-layer tests.
package memory

import (
	"context"
	"sync"
	"time"

	"insurance-core/internal/models"
	"insurance-core/internal/storage"

	"github.com/google/uuid"
)

type state struct {
	policies    map[uuid.UUID]models.Policy
	claims      map[uuid.UUID]models.Claim
	ledger      *models.PoolLedger
	providers   map[string]models.PoolProvider
	treasury    *models.TreasuryState
	trusted     map[models.FeeSource]bool
	proposals   map[uuid.UUID]models.WithdrawalProposal
	allocations map[models.AllocationPurpose]models.AllocationRecord
}

func newState() state {
	return state{
		policies:    make(map[uuid.UUID]models.Policy),
		claims:      make(map[uuid.UUID]models.Claim),
		providers:   make(map[string]models.PoolProvider),
		trusted:     make(map[models.FeeSource]bool),
		proposals:   make(map[uuid.UUID]models.WithdrawalProposal),
		allocations: make(map[models.AllocationPurpose]models.AllocationRecord),
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.policies {
		c.policies[k] = v
	}
	for k, v := range s.claims {
		c.claims[k] = v
	}
	for k, v := range s.providers {
		c.providers[k] = v
	}
	for k, v := range s.trusted {
		c.trusted[k] = v
	}
	for k, v := range s.proposals {
		c.proposals[k] = v
	}
	for k, v := range s.allocations {
		c.allocations[k] = v
	}
	if s.ledger != nil {
		ledger := *s.ledger
		c.ledger = &ledger
	}
	if s.treasury != nil {
		treasury := *s.treasury
		c.treasury = &treasury
	}
	return c
}

type Store struct {
	mu    sync.Mutex
	state state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) Policies() storage.PolicyRepository   { return policies{s} }
func (s *Store) Claims() storage.ClaimRepository      { return claims{s} }
func (s *Store) Pool() storage.PoolRepository         { return pool{s} }
func (s *Store) Treasury() storage.TreasuryRepository { return treasury{s} }

// WithinTx snapshots the state and restores it if fn fails, matching the
// all-or-nothing commit semantics of the SQL store.
func (s *Store) WithinTx(_ context.Context, fn func(tx storage.Tx) error) error {
	s.mu.Lock()
	snapshot := s.state.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

type policies struct{ s *Store }

func (p policies) Insert(_ context.Context, policy *models.Policy) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	p.s.state.policies[policy.ID] = *policy
	return nil
}

func (p policies) Get(_ context.Context, id uuid.UUID) (*models.Policy, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	policy, ok := p.s.state.policies[id]
	if !ok {
		return nil, models.ErrNotFound.Wrap("policy %s", id)
	}
	return &policy, nil
}

func (p policies) UpdateStatus(_ context.Context, id uuid.UUID, status models.PolicyStatus, updatedAt time.Time) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	policy, ok := p.s.state.policies[id]
	if !ok {
		return models.ErrNotFound.Wrap("policy %s", id)
	}
	policy.Status = status
	policy.UpdatedAt = updatedAt
	p.s.state.policies[id] = policy
	return nil
}

func (p policies) ListByHolder(_ context.Context, holder string) ([]models.Policy, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	var out []models.Policy
	for _, policy := range p.s.state.policies {
		if policy.Holder == holder {
			out = append(out, policy)
		}
	}
	return out, nil
}

func (p policies) ListExpirable(_ context.Context, asOf int64) ([]models.Policy, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	var out []models.Policy
	for _, policy := range p.s.state.policies {
		if policy.Status == models.PolicyActive && policy.EndTime < asOf {
			out = append(out, policy)
		}
	}
	return out, nil
}

func (p policies) Stats(_ context.Context) (*models.PolicyStats, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	stats := models.PolicyStats{}
	for _, policy := range p.s.state.policies {
		stats.PolicyCount++
		stats.TotalPremiums += policy.PremiumAmount
		stats.TotalCoverage += policy.CoverageAmount
	}
	return &stats, nil
}

type claims struct{ s *Store }

func (c claims) Insert(_ context.Context, claim *models.Claim) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.state.claims[claim.ID] = *claim
	return nil
}

func (c claims) Get(_ context.Context, id uuid.UUID) (*models.Claim, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	claim, ok := c.s.state.claims[id]
	if !ok {
		return nil, models.ErrNotFound.Wrap("claim %s", id)
	}
	return &claim, nil
}

func (c claims) UpdateStatus(_ context.Context, id uuid.UUID, status models.ClaimStatus, updatedAt time.Time, settledAt *time.Time) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	claim, ok := c.s.state.claims[id]
	if !ok {
		return models.ErrNotFound.Wrap("claim %s", id)
	}
	claim.Status = status
	claim.UpdatedAt = updatedAt
	claim.SettledAt = settledAt
	c.s.state.claims[id] = claim
	return nil
}

func (c claims) ListByPolicy(_ context.Context, policyID uuid.UUID) ([]models.Claim, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	var out []models.Claim
	for _, claim := range c.s.state.claims {
		if claim.PolicyID == policyID {
			out = append(out, claim)
		}
	}
	return out, nil
}

func (c claims) Stats(_ context.Context) (*models.ClaimStats, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	stats := models.ClaimStats{}
	for _, claim := range c.s.state.claims {
		stats.ClaimCount++
		stats.TotalClaimed += claim.ClaimAmount
		if claim.Status == models.ClaimSettled {
			stats.TotalSettled += claim.ClaimAmount
		}
	}
	return &stats, nil
}

type pool struct{ s *Store }

func (p pool) InsertLedger(_ context.Context, ledger *models.PoolLedger) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	stored := *ledger
	p.s.state.ledger = &stored
	return nil
}

func (p pool) GetLedger(_ context.Context) (*models.PoolLedger, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if p.s.state.ledger == nil {
		return nil, models.ErrNotInitialized.Wrap("risk pool")
	}
	ledger := *p.s.state.ledger
	return &ledger, nil
}

func (p pool) UpdateLedger(_ context.Context, ledger *models.PoolLedger) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if p.s.state.ledger == nil {
		return models.ErrNotInitialized.Wrap("risk pool")
	}
	stored := *ledger
	p.s.state.ledger = &stored
	return nil
}

func (p pool) GetProvider(_ context.Context, provider string) (*models.PoolProvider, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	record, ok := p.s.state.providers[provider]
	if !ok {
		return nil, models.ErrNotFound.Wrap("provider %s", provider)
	}
	return &record, nil
}

func (p pool) UpsertProvider(_ context.Context, provider *models.PoolProvider) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	p.s.state.providers[provider.Provider] = *provider
	return nil
}

func (p pool) DeleteProvider(_ context.Context, provider string) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	delete(p.s.state.providers, provider)
	return nil
}

type treasury struct{ s *Store }

func (t treasury) InsertState(_ context.Context, state *models.TreasuryState) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	stored := *state
	t.s.state.treasury = &stored
	return nil
}

func (t treasury) GetState(_ context.Context) (*models.TreasuryState, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.state.treasury == nil {
		return nil, models.ErrNotInitialized.Wrap("treasury")
	}
	state := *t.s.state.treasury
	return &state, nil
}

func (t treasury) UpdateState(_ context.Context, state *models.TreasuryState) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.state.treasury == nil {
		return models.ErrNotInitialized.Wrap("treasury")
	}
	stored := *state
	t.s.state.treasury = &stored
	return nil
}

func (t treasury) IsTrustedSource(_ context.Context, source models.FeeSource) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.state.trusted[source], nil
}

func (t treasury) AddTrustedSource(_ context.Context, source models.FeeSource) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.state.trusted[source] = true
	return nil
}

func (t treasury) InsertProposal(_ context.Context, proposal *models.WithdrawalProposal) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.state.proposals[proposal.ID] = *proposal
	return nil
}

func (t treasury) GetProposal(_ context.Context, id uuid.UUID) (*models.WithdrawalProposal, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	proposal, ok := t.s.state.proposals[id]
	if !ok {
		return nil, models.ErrNotFound.Wrap("proposal %s", id)
	}
	return &proposal, nil
}

func (t treasury) UpdateProposal(_ context.Context, proposal *models.WithdrawalProposal) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.state.proposals[proposal.ID]; !ok {
		return models.ErrNotFound.Wrap("proposal %s", proposal.ID)
	}
	t.s.state.proposals[proposal.ID] = *proposal
	return nil
}

func (t treasury) ListProposals(_ context.Context) ([]models.WithdrawalProposal, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var out []models.WithdrawalProposal
	for _, proposal := range t.s.state.proposals {
		out = append(out, proposal)
	}
	return out, nil
}

func (t treasury) GetAllocation(_ context.Context, purpose models.AllocationPurpose) (*models.AllocationRecord, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	record, ok := t.s.state.allocations[purpose]
	if !ok {
		return nil, models.ErrNotFound.Wrap("allocation %s", purpose)
	}
	return &record, nil
}

func (t treasury) UpsertAllocation(_ context.Context, record *models.AllocationRecord) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.state.allocations[record.Purpose] = *record
	return nil
}
