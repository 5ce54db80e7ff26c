package models

// Redemption counts how many times a user redeemed a deal. One row per
// (UserID, DealID) pair; Uses only ever grows.
type Redemption struct {
	UserID string
	DealID string
	Uses   int32
}
