package models

type PolicyStatus string

const (
	PolicyActive    PolicyStatus = "active"
	PolicyExpired   PolicyStatus = "expired"
	PolicyCancelled PolicyStatus = "cancelled"
	PolicyClaimed   PolicyStatus = "claimed"
)

type ClaimStatus string

const (
	ClaimSubmitted   ClaimStatus = "submitted"
	ClaimUnderReview ClaimStatus = "under_review"
	ClaimApproved    ClaimStatus = "approved"
	ClaimRejected    ClaimStatus = "rejected"
	ClaimSettled     ClaimStatus = "settled"
)

type ProposalStatus string

const (
	ProposalActive   ProposalStatus = "active"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
	ProposalExecuted ProposalStatus = "executed"
)

// AllocationPurpose is the closed set of treasury withdrawal purposes.
type AllocationPurpose string

const (
	PurposeAuditFunding        AllocationPurpose = "audit_funding"
	PurposeDevelopmentGrants   AllocationPurpose = "development_grants"
	PurposeInsuranceReserves   AllocationPurpose = "insurance_reserves"
	PurposeDaoOperations       AllocationPurpose = "dao_operations"
	PurposeCommunityIncentives AllocationPurpose = "community_incentives"
)

// ValidPurpose reports whether p is one of the five allocation purposes.
func ValidPurpose(p AllocationPurpose) bool {
	switch p {
	case PurposeAuditFunding, PurposeDevelopmentGrants, PurposeInsuranceReserves,
		PurposeDaoOperations, PurposeCommunityIncentives:
		return true
	}
	return false
}

type FeeType string

const (
	FeePremium      FeeType = "premium"
	FeeClaimPenalty FeeType = "claim_penalty"
	FeeSlashing     FeeType = "slashing"
)

// FeeSource identifies a trusted contract allowed to deposit fees.
type FeeSource string

const (
	SourcePolicyLedger    FeeSource = "policy-ledger"
	SourceClaimsProcessor FeeSource = "claims-processor"
	SourceSlashing        FeeSource = "slashing"
)

type Role string

const (
	RoleAdmin           Role = "admin"
	RolePolicyManager   Role = "policy-manager"
	RoleClaimProcessor  Role = "claim-processor"
	RoleRiskPoolManager Role = "risk-pool-manager"
	RoleUser            Role = "user"
)
