package models

import "github.com/google/uuid"

type IssuePolicyRequest struct {
	Holder         string `json:"holder"`
	CoverageAmount int64  `json:"coverage_amount"`
	PremiumAmount  int64  `json:"premium_amount"`
	PolicyType     string `json:"policy_type"`
	DurationDays   int64  `json:"duration_days"`
}

type SubmitClaimRequest struct {
	PolicyID    uuid.UUID `json:"policy_id"`
	ClaimAmount int64     `json:"claim_amount"`
	Description string    `json:"description"`
	// Evidence is an opaque payload stored in the document store; the claim
	// record keeps only the resulting object key.
	Evidence []byte `json:"evidence,omitempty"`
}

type PoolDepositRequest struct {
	Amount int64 `json:"amount"`
}

type PoolWithdrawRequest struct {
	Amount int64 `json:"amount"`
}

type DepositFeeRequest struct {
	Source  FeeSource `json:"source"`
	Amount  int64     `json:"amount"`
	FeeType FeeType   `json:"fee_type"`
}

type ProposeWithdrawalRequest struct {
	Recipient   string            `json:"recipient"`
	Amount      int64             `json:"amount"`
	Purpose     AllocationPurpose `json:"purpose"`
	Description string            `json:"description"`
}

type SetPauseRequest struct {
	Paused bool `json:"paused"`
}

type UpdateFeeRequest struct {
	FeeBps int64 `json:"fee_bps"`
}

type RegisterTrustedSourceRequest struct {
	Source FeeSource `json:"source"`
}
