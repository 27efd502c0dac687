// Package worker runs the background jobs of the core service: a periodic
// stats-cache refresh and an optional policy expiry sweep. Jobs are plain
// ticker loops; shutdown flows through the context.
package worker

import (
	"context"
	"log/slog"
	"time"

	"insurance-core/internal/config"
	"insurance-core/internal/database/redis"
	"insurance-core/internal/models"
	"insurance-core/internal/services"
)

const (
	statsCacheTTL = 5 * time.Minute

	PolicyStatsKey   = "core:stats:policies"
	ClaimStatsKey    = "core:stats:claims"
	PoolLedgerKey    = "core:stats:pool"
	TreasuryStateKey = "core:stats:treasury"
)

// sweepActor drives the admin-gated expiry entry point on behalf of the
// scheduler.
var sweepActor = models.Actor{ID: "expiry-sweep", Roles: []models.Role{models.RoleAdmin}}

type Manager struct {
	cache    *redis.Client
	policy   *services.PolicyService
	claims   *services.ClaimService
	pool     *services.RiskPoolService
	treasury *services.TreasuryService
	cfg      config.WorkerConfig
}

func NewManager(cache *redis.Client, policy *services.PolicyService, claims *services.ClaimService,
	pool *services.RiskPoolService, treasury *services.TreasuryService, cfg config.WorkerConfig) *Manager {
	return &Manager{
		cache:    cache,
		policy:   policy,
		claims:   claims,
		pool:     pool,
		treasury: treasury,
		cfg:      cfg,
	}
}

// Run starts the job loops and blocks until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	go m.loop(ctx, "stats-refresh", time.Duration(m.cfg.StatsRefreshSeconds)*time.Second, m.refreshStats)

	if m.cfg.ExpirySweepEnabled {
		go m.loop(ctx, "expiry-sweep", time.Duration(m.cfg.ExpirySweepSeconds)*time.Second, m.sweepExpired)
	}

	<-ctx.Done()
}

func (m *Manager) loop(ctx context.Context, name string, interval time.Duration, job func(context.Context) error) {
	slog.Info("worker job started", "job", name, "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := job(ctx); err != nil {
				slog.Error("worker job failed", "job", name, "error", err)
			}
		case <-ctx.Done():
			slog.Info("worker job stopped", "job", name)
			return
		}
	}
}

// refreshStats caches the aggregate views read-heavy dashboards poll for, so
// they never hit Postgres on the hot path.
func (m *Manager) refreshStats(ctx context.Context) error {
	policyStats, err := m.policy.GetStats(ctx)
	if err != nil {
		return err
	}
	if err := m.cache.SetJSON(ctx, PolicyStatsKey, policyStats, statsCacheTTL); err != nil {
		return err
	}

	claimStats, err := m.claims.GetStats(ctx)
	if err != nil {
		return err
	}
	if err := m.cache.SetJSON(ctx, ClaimStatsKey, claimStats, statsCacheTTL); err != nil {
		return err
	}

	ledger, err := m.pool.GetLedger(ctx)
	if err == nil {
		if err := m.cache.SetJSON(ctx, PoolLedgerKey, ledger, statsCacheTTL); err != nil {
			return err
		}
	}

	state, err := m.treasury.GetState(ctx)
	if err == nil {
		if err := m.cache.SetJSON(ctx, TreasuryStateKey, state, statsCacheTTL); err != nil {
			return err
		}
	}

	return nil
}

func (m *Manager) sweepExpired(ctx context.Context) error {
	expired, err := m.policy.ExpireOverduePolicies(ctx, sweepActor)
	if expired > 0 {
		slog.Info("expiry sweep completed", "expired", expired)
	}
	return err
}
