package models

import (
	"time"

	"github.com/google/uuid"
)

// TreasuryState is the singleton treasury accounting row.
type TreasuryState struct {
	Balance            int64     `json:"balance" db:"balance"`
	TotalFeesCollected int64     `json:"total_fees_collected" db:"total_fees_collected"`
	TotalWithdrawn     int64     `json:"total_withdrawn" db:"total_withdrawn"`
	FeeBps             int64     `json:"fee_bps" db:"fee_bps"`
	Paused             bool      `json:"paused" db:"paused"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

type WithdrawalProposal struct {
	ID           uuid.UUID         `json:"id" db:"id"`
	Recipient    string            `json:"recipient" db:"recipient"`
	Amount       int64             `json:"amount" db:"amount"`
	Purpose      AllocationPurpose `json:"purpose" db:"purpose"`
	Proposer     string            `json:"proposer" db:"proposer"`
	Description  string            `json:"description" db:"description"`
	Status       ProposalStatus    `json:"status" db:"status"`
	Executed     bool              `json:"executed" db:"executed"`
	CreatedAt    int64             `json:"created_at" db:"created_at"`
	VotingEndsAt int64             `json:"voting_ends_at" db:"voting_ends_at"`
}

// AllocationRecord accumulates per-purpose withdrawal bookkeeping. It is
// derived state, not independently authoritative.
type AllocationRecord struct {
	Purpose         AllocationPurpose `json:"purpose" db:"purpose"`
	TotalAllocated  int64             `json:"total_allocated" db:"total_allocated"`
	TotalWithdrawn  int64             `json:"total_withdrawn" db:"total_withdrawn"`
	AllocationCount int64             `json:"allocation_count" db:"allocation_count"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}
