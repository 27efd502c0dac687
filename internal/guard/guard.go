// Package guard holds the invariant layer shared by every component: checked
// arithmetic, amount validation, state transition tables, and the coverage and
// liquidity constraints. All functions are pure; callers run the relevant
// checks before persisting anything, so a failing check leaves state untouched.
package guard

import (
	"math"

	"insurance-core/internal/models"
)

// ValidateAmount rejects zero and negative financial amounts.
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return models.ErrInvalidAmount
	}
	return nil
}

// CheckedAdd returns a+b, failing instead of wrapping on overflow. Every
// balance mutation in the module goes through the checked operations; raw
// operators on financial quantities are not allowed.
func CheckedAdd(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, models.ErrOverflow
	}
	return a + b, nil
}

// CheckedSub returns a-b, failing on underflow.
func CheckedSub(a, b int64) (int64, error) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, models.ErrOverflow
	}
	return a - b, nil
}

// CheckedMul returns a*b, failing on overflow.
func CheckedMul(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if (a == math.MinInt64 && b == -1) || (b == math.MinInt64 && a == -1) {
		return 0, models.ErrOverflow
	}
	result := a * b
	if result/b != a {
		return 0, models.ErrOverflow
	}
	return result, nil
}

// CoverageOK enforces claim_amount <= coverage_amount.
func CoverageOK(claimAmount, coverageAmount int64) error {
	if claimAmount > coverageAmount {
		return models.ErrCoverageExceeded
	}
	return nil
}

// LiquidityOK enforces the pool solvency invariant
// total_liquidity >= reserved_for_claims.
func LiquidityOK(totalLiquidity, reservedForClaims int64) error {
	if totalLiquidity < reservedForClaims {
		return models.ErrLiquidityViolation
	}
	return nil
}
