package model

import "time"

type RewardCode struct {
	ID         int64      `json:"id"`
	Code       string     `json:"code"`
	IssuedBy   int64      `json:"issued_by"`
	IssuedAt   time.Time  `json:"issued_at"`
	RedeemedBy *int64     `json:"redeemed_by"`
	RedeemedAt *time.Time `json:"redeemed_at"`
	PointValue int        `json:"point_value"`
}

// Redeemed reports whether the code has already been consumed.
func (c *RewardCode) Redeemed() bool {
	return c.RedeemedBy != nil
}

// CodeListing is a RewardCode enriched with the redeemer's email for the
// ledger view. RedeemerEmail is empty when the code is unredeemed or the
// redeeming user no longer resolves.
type CodeListing struct {
	RewardCode
	RedeemerEmail string `json:"redeemer_email,omitempty"`
}

// RedemptionResult reports the outcome of a successful redemption.
type RedemptionResult struct {
	PointsEarned  int `json:"pointsEarned"`
	CurrentPoints int `json:"currentPoints"`
}
