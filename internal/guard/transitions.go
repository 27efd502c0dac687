package guard

import "insurance-core/internal/models"

// Policy transition closure:
//
//	Active  -> Expired | Cancelled | Claimed
//	Expired -> Claimed          (grace-period settlement)
//
// Cancelled and Claimed are terminal. Self and backward transitions are never
// allowed.
var policyTransitions = map[models.PolicyStatus][]models.PolicyStatus{
	models.PolicyActive:  {models.PolicyExpired, models.PolicyCancelled, models.PolicyClaimed},
	models.PolicyExpired: {models.PolicyClaimed},
}

// Claim transition closure:
//
//	Submitted   -> UnderReview
//	UnderReview -> Approved | Rejected
//	Approved    -> Settled
//
// Rejected and Settled are terminal; no skips, no backward moves.
var claimTransitions = map[models.ClaimStatus][]models.ClaimStatus{
	models.ClaimSubmitted:   {models.ClaimUnderReview},
	models.ClaimUnderReview: {models.ClaimApproved, models.ClaimRejected},
	models.ClaimApproved:    {models.ClaimSettled},
}

// PolicyTransitionAllowed reports whether from -> to is a legal policy move.
// Unknown states return false.
func PolicyTransitionAllowed(from, to models.PolicyStatus) bool {
	for _, next := range policyTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ClaimTransitionAllowed reports whether from -> to is a legal claim move.
func ClaimTransitionAllowed(from, to models.ClaimStatus) bool {
	for _, next := range claimTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckPolicyTransition is PolicyTransitionAllowed with the taxonomy error.
func CheckPolicyTransition(from, to models.PolicyStatus) error {
	if !PolicyTransitionAllowed(from, to) {
		return models.ErrInvalidPolicyState
	}
	return nil
}

// CheckClaimTransition is ClaimTransitionAllowed with the taxonomy error.
func CheckClaimTransition(from, to models.ClaimStatus) error {
	if !ClaimTransitionAllowed(from, to) {
		return models.ErrInvalidClaimState
	}
	return nil
}
