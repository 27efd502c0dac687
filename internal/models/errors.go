package models

import "fmt"

// CodedError is the closed error taxonomy of the protocol core. Every failure a
// state-mutating operation can return maps to exactly one of the sentinels
// below; callers match with errors.Is and handlers map Code to an HTTP status.
type CodedError struct {
	Code    string
	Message string
}

func (e *CodedError) Error() string {
	return e.Message
}

// Wrap attaches call-site detail while keeping errors.Is(err, sentinel) true.
func (e *CodedError) Wrap(format string, args ...any) error {
	return fmt.Errorf("%w: %s", e, fmt.Sprintf(format, args...))
}

var (
	ErrUnauthorized         = &CodedError{"UNAUTHORIZED", "caller is not authorized"}
	ErrPaused               = &CodedError{"PAUSED", "operations are paused"}
	ErrInvalidInput         = &CodedError{"INVALID_INPUT", "invalid input"}
	ErrInvalidAmount        = &CodedError{"INVALID_AMOUNT", "amount must be positive"}
	ErrInvalidPremium       = &CodedError{"INVALID_PREMIUM", "premium must be positive"}
	ErrInsufficientFunds    = &CodedError{"INSUFFICIENT_FUNDS", "insufficient funds"}
	ErrNotFound             = &CodedError{"NOT_FOUND", "record not found"}
	ErrInvalidState         = &CodedError{"INVALID_STATE", "operation not allowed in current state"}
	ErrInvalidPolicyState   = &CodedError{"INVALID_POLICY_STATE", "invalid policy state transition"}
	ErrInvalidClaimState    = &CodedError{"INVALID_CLAIM_STATE", "invalid claim state transition"}
	ErrNotInitialized       = &CodedError{"NOT_INITIALIZED", "component is not initialized"}
	ErrAlreadyInitialized   = &CodedError{"ALREADY_INITIALIZED", "component is already initialized"}
	ErrNotTrustedContract   = &CodedError{"NOT_TRUSTED_CONTRACT", "source is not a registered trusted contract"}
	ErrCoverageExceeded     = &CodedError{"COVERAGE_EXCEEDED", "claim amount exceeds policy coverage"}
	ErrLiquidityViolation   = &CodedError{"LIQUIDITY_VIOLATION", "pool liquidity below reserved claims"}
	ErrProposalNotApproved  = &CodedError{"PROPOSAL_NOT_APPROVED", "proposal is not approved"}
	ErrVotingPeriodEnded    = &CodedError{"VOTING_PERIOD_ENDED", "voting period has ended"}
	ErrVotingPeriodNotEnded = &CodedError{"VOTING_PERIOD_NOT_ENDED", "voting period has not ended yet"}
	ErrOverflow             = &CodedError{"OVERFLOW", "arithmetic overflow"}
)
