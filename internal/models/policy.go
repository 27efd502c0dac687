package models

import (
	"time"

	"github.com/google/uuid"
)

// Policy is owned by the policy ledger. Status is only ever written through the
// ledger's guarded transition methods.
type Policy struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	Holder         string       `json:"holder" db:"holder"`
	CoverageAmount int64        `json:"coverage_amount" db:"coverage_amount"`
	PremiumAmount  int64        `json:"premium_amount" db:"premium_amount"`
	PolicyType     string       `json:"policy_type" db:"policy_type"`
	StartTime      int64        `json:"start_time" db:"start_time"`
	EndTime        int64        `json:"end_time" db:"end_time"`
	Status         PolicyStatus `json:"status" db:"status"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
}

type PolicyStats struct {
	PolicyCount   int64 `json:"policy_count" db:"policy_count"`
	TotalPremiums int64 `json:"total_premiums" db:"total_premiums"`
	TotalCoverage int64 `json:"total_coverage" db:"total_coverage"`
}
