package services

import (
	"context"
	"math"
	"testing"

	"insurance-core/internal/models"
	"insurance-core/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolInitialize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("requires admin", func(t *testing.T) {
		err := f.pool.Initialize(ctx, providerActor, 10)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	require.NoError(t, f.pool.Initialize(ctx, adminActor, 10))

	t.Run("second call fails", func(t *testing.T) {
		err := f.pool.Initialize(ctx, adminActor, 10)
		assert.ErrorIs(t, err, models.ErrAlreadyInitialized)
	})

	t.Run("deposit before init fails", func(t *testing.T) {
		fresh := newFixture(t)
		err := fresh.pool.Deposit(ctx, providerActor, 100)
		assert.ErrorIs(t, err, models.ErrNotInitialized)
	})
}

func TestPoolDeposit(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		assert.ErrorIs(t, f.pool.Deposit(ctx, providerActor, 0), models.ErrInvalidAmount)
		assert.ErrorIs(t, f.pool.Deposit(ctx, providerActor, -50), models.ErrInvalidAmount)
	})

	t.Run("rejects stake below minimum", func(t *testing.T) {
		assert.ErrorIs(t, f.pool.Deposit(ctx, providerActor, 5), models.ErrInvalidInput)
	})

	t.Run("credits pool and provider", func(t *testing.T) {
		require.NoError(t, f.pool.Deposit(ctx, providerActor, 100))
		require.NoError(t, f.pool.Deposit(ctx, providerActor, 50))

		ledger, err := f.pool.GetLedger(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(150), ledger.TotalLiquidity)
		assert.Equal(t, int64(1), ledger.ProviderCount)

		provider, err := f.pool.GetProvider(ctx, providerActor.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(150), provider.StakeAmount)
	})

	t.Run("overflow leaves ledger unchanged", func(t *testing.T) {
		other := models.Actor{ID: "whale", Roles: []models.Role{models.RoleUser}}
		err := f.pool.Deposit(ctx, other, math.MaxInt64)
		assert.ErrorIs(t, err, models.ErrOverflow)

		ledger, err := f.pool.GetLedger(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(150), ledger.TotalLiquidity)
		assert.Equal(t, int64(1), ledger.ProviderCount)
		_, err = f.pool.GetProvider(ctx, other.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestPoolWithdraw(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	f.depositLiquidity(t, 1000)

	t.Run("more than stake", func(t *testing.T) {
		err := f.pool.Withdraw(ctx, providerActor, 1500)
		assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	})

	t.Run("unknown provider", func(t *testing.T) {
		err := f.pool.Withdraw(ctx, strangerActor, 10)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("partial withdrawal", func(t *testing.T) {
		require.NoError(t, f.pool.Withdraw(ctx, providerActor, 400))

		ledger, err := f.pool.GetLedger(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(600), ledger.TotalLiquidity)

		provider, err := f.pool.GetProvider(ctx, providerActor.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(600), provider.StakeAmount)
	})

	t.Run("cannot break claim reservations", func(t *testing.T) {
		poolManager := models.Actor{ID: "pm-1", Roles: []models.Role{models.RoleRiskPoolManager}}
		require.NoError(t, f.pool.Reserve(ctx, poolManager, 500))

		err := f.pool.Withdraw(ctx, providerActor, 200)
		assert.ErrorIs(t, err, models.ErrInsufficientFunds)

		ledger, err := f.pool.GetLedger(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(600), ledger.TotalLiquidity)
		assert.Equal(t, int64(500), ledger.ReservedForClaims)

		// Withdrawing within the free portion still works.
		require.NoError(t, f.pool.Withdraw(ctx, providerActor, 100))
		ledger, err = f.pool.GetLedger(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(500), ledger.TotalLiquidity)
	})

	t.Run("full withdrawal removes provider", func(t *testing.T) {
		fresh := newFixture(t)
		fresh.initAll(t)
		fresh.depositLiquidity(t, 300)

		require.NoError(t, fresh.pool.Withdraw(ctx, providerActor, 300))

		_, err := fresh.pool.GetProvider(ctx, providerActor.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		ledger, err := fresh.pool.GetLedger(ctx)
		require.NoError(t, err)
		assert.Zero(t, ledger.TotalLiquidity)
		assert.Zero(t, ledger.ProviderCount)
	})
}

func TestPoolReserveReleasePayout(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()
	poolManager := models.Actor{ID: "pm-1", Roles: []models.Role{models.RoleRiskPoolManager}}

	f.depositLiquidity(t, 1000)

	t.Run("reserve requires role", func(t *testing.T) {
		err := f.pool.Reserve(ctx, providerActor, 100)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("reserve beyond liquidity", func(t *testing.T) {
		err := f.pool.Reserve(ctx, poolManager, 1500)
		assert.ErrorIs(t, err, models.ErrLiquidityViolation)

		ledger, err := f.pool.GetLedger(ctx)
		require.NoError(t, err)
		assert.Zero(t, ledger.ReservedForClaims)
	})

	t.Run("reserve then release", func(t *testing.T) {
		require.NoError(t, f.pool.Reserve(ctx, poolManager, 600))
		require.NoError(t, f.pool.Release(ctx, poolManager, 200))

		ledger, err := f.pool.GetLedger(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), ledger.TotalLiquidity)
		assert.Equal(t, int64(400), ledger.ReservedForClaims)
	})

	t.Run("release beyond reserved", func(t *testing.T) {
		err := f.pool.Release(ctx, poolManager, 500)
		assert.ErrorIs(t, err, models.ErrInvalidState)
	})
}

func TestPoolPayoutReserved(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()
	poolManager := models.Actor{ID: "pm-1", Roles: []models.Role{models.RoleRiskPoolManager}}

	f.depositLiquidity(t, 1000)
	require.NoError(t, f.pool.Reserve(ctx, poolManager, 400))

	t.Run("payout beyond reserved", func(t *testing.T) {
		err := f.store.WithinTx(ctx, func(tx storage.Tx) error {
			return f.pool.payoutReserved(ctx, tx, 500)
		})
		assert.ErrorIs(t, err, models.ErrInvalidState)
	})

	t.Run("payout shrinks both counters", func(t *testing.T) {
		err := f.store.WithinTx(ctx, func(tx storage.Tx) error {
			return f.pool.payoutReserved(ctx, tx, 400)
		})
		require.NoError(t, err)

		ledger, err := f.pool.GetLedger(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(600), ledger.TotalLiquidity)
		assert.Zero(t, ledger.ReservedForClaims)
	})
}

func TestPoolPause(t *testing.T) {
	f := newFixture(t)
	f.initAll(t)
	ctx := context.Background()

	f.depositLiquidity(t, 100)
	require.NoError(t, f.pool.SetPause(ctx, adminActor, true))

	assert.ErrorIs(t, f.pool.Deposit(ctx, providerActor, 100), models.ErrPaused)
	assert.ErrorIs(t, f.pool.Withdraw(ctx, providerActor, 50), models.ErrPaused)

	require.NoError(t, f.pool.SetPause(ctx, adminActor, false))
	assert.NoError(t, f.pool.Deposit(ctx, providerActor, 100))
}
