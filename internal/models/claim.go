package models

import (
	"time"

	"github.com/google/uuid"
)

type Claim struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	PolicyID    uuid.UUID   `json:"policy_id" db:"policy_id"`
	Claimant    string      `json:"claimant" db:"claimant"`
	ClaimAmount int64       `json:"claim_amount" db:"claim_amount"`
	Status      ClaimStatus `json:"status" db:"status"`
	Description string      `json:"description" db:"description"`
	// EvidenceKey is the object key of the evidence payload in the document store.
	EvidenceKey *string    `json:"evidence_key,omitempty" db:"evidence_key"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	SettledAt   *time.Time `json:"settled_at,omitempty" db:"settled_at"`
}

type ClaimStats struct {
	ClaimCount   int64 `json:"claim_count" db:"claim_count"`
	TotalClaimed int64 `json:"total_claimed" db:"total_claimed"`
	TotalSettled int64 `json:"total_settled" db:"total_settled"`
}
