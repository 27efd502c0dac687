package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"insurance-core/internal/event"
	"insurance-core/internal/models"
	"insurance-core/internal/storage/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	adminActor     = models.Actor{ID: "admin-1", Roles: []models.Role{models.RoleAdmin}}
	holderActor    = models.Actor{ID: "holder-1", Roles: []models.Role{models.RoleUser}}
	processorActor = models.Actor{ID: "processor-1", Roles: []models.Role{models.RoleClaimProcessor}}
	providerActor  = models.Actor{ID: "provider-1", Roles: []models.Role{models.RoleUser}}
	strangerActor  = models.Actor{ID: "stranger-1", Roles: []models.Role{models.RoleUser}}
)

// recordingPublisher captures published audit events in order.
type recordingPublisher struct {
	events []event.AuditEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt event.AuditEvent) error {
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) actions() []string {
	out := make([]string, 0, len(p.events))
	for _, evt := range p.events {
		out = append(out, evt.Component+"/"+evt.Action)
	}
	return out
}

// fakeEvidenceStore keeps evidence payloads in a map.
type fakeEvidenceStore struct {
	objects map[string][]byte
}

func newFakeEvidenceStore() *fakeEvidenceStore {
	return &fakeEvidenceStore{objects: make(map[string][]byte)}
}

func (f *fakeEvidenceStore) StoreEvidence(_ context.Context, claimID uuid.UUID, payload []byte) (string, error) {
	key := fmt.Sprintf("claims/%s/%s", claimID, uuid.New())
	f.objects[key] = payload
	return key, nil
}

func (f *fakeEvidenceStore) FetchEvidence(_ context.Context, key string) ([]byte, error) {
	payload, ok := f.objects[key]
	if !ok {
		return nil, models.ErrNotFound.Wrap("evidence %s", key)
	}
	return payload, nil
}

// fixture wires all four services over one in-memory store with a controllable
// clock.
type fixture struct {
	store    *memory.Store
	pub      *recordingPublisher
	evidence *fakeEvidenceStore

	policy   *PolicyService
	claims   *ClaimService
	pool     *RiskPoolService
	treasury *TreasuryService

	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    memory.NewStore(),
		pub:      &recordingPublisher{},
		evidence: newFakeEvidenceStore(),
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	f.treasury = NewTreasuryService(f.store, f.pub)
	f.treasury.clock = clock
	f.pool = NewRiskPoolService(f.store, f.pub)
	f.pool.clock = clock
	f.policy = NewPolicyService(f.store, f.pub, f.treasury)
	f.policy.clock = clock
	f.claims = NewClaimService(f.store, f.pub, f.evidence, f.policy, f.pool, f.treasury)
	f.claims.clock = clock

	return f
}

// initAll initializes treasury (500 bps fee, all internal sources trusted) and
// the pool (min stake 10).
func (f *fixture) initAll(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.treasury.Initialize(ctx, adminActor, 500, []models.FeeSource{
		models.SourcePolicyLedger,
		models.SourceClaimsProcessor,
		models.SourceSlashing,
	}))
	require.NoError(t, f.pool.Initialize(ctx, adminActor, 10))
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// issuePolicy creates an active policy for holderActor.
func (f *fixture) issuePolicy(t *testing.T, coverage, premium int64) *models.Policy {
	t.Helper()
	policy, err := f.policy.IssuePolicy(context.Background(), holderActor, models.IssuePolicyRequest{
		CoverageAmount: coverage,
		PremiumAmount:  premium,
		PolicyType:     "crop",
		DurationDays:   30,
	})
	require.NoError(t, err)
	return policy
}

// depositLiquidity stakes amount from providerActor.
func (f *fixture) depositLiquidity(t *testing.T, amount int64) {
	t.Helper()
	require.NoError(t, f.pool.Deposit(context.Background(), providerActor, amount))
}
