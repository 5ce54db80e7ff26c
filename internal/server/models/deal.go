package models

// Deal is a catalog entry. The redemption ledger only reads ID and
// UsageCap; the rest is opaque content. UsageCap == nil means the deal
// can be redeemed an unlimited number of times per user.
type Deal struct {
	ID          string
	Title       string
	Description string
	UsageCap    *int32
}
