package models

import "time"

// PoolLedger is the singleton risk pool accounting row. The invariant
// TotalLiquidity >= ReservedForClaims holds after every committed operation.
type PoolLedger struct {
	TotalLiquidity    int64     `json:"total_liquidity" db:"total_liquidity"`
	ReservedForClaims int64     `json:"reserved_for_claims" db:"reserved_for_claims"`
	ProviderCount     int64     `json:"provider_count" db:"provider_count"`
	MinProviderStake  int64     `json:"min_provider_stake" db:"min_provider_stake"`
	Paused            bool      `json:"paused" db:"paused"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

type PoolProvider struct {
	Provider         string    `json:"provider" db:"provider"`
	StakeAmount      int64     `json:"stake_amount" db:"stake_amount"`
	ContributionTime int64     `json:"contribution_time" db:"contribution_time"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
