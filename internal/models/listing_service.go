package models

// ListingService is a flat-fee catalog item (listing boosts, verification
// badges, photo shoots). The Payment Initiator looks amounts up here by
// code; callers never supply the price.
type ListingService struct {
	ID     int    `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Amount int64  `json:"amount"` // minor units
	Active bool   `json:"active"`
}
