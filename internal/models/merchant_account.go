package models

import "time"

// MerchantAccountStatus is derived from the gateway capability flags
type MerchantAccountStatus string

const (
	MerchantStatusActive     MerchantAccountStatus = "active"
	MerchantStatusRestricted MerchantAccountStatus = "restricted"
	MerchantStatusPending    MerchantAccountStatus = "pending"
)

// MerchantAccount mirrors a connected gateway account for an owner who
// collects rent directly. Capability flags are mirrored from
// account.updated events; deauthorization clears the linkage.
type MerchantAccount struct {
	ID                int                   `json:"id"`
	OwnerUserID       int                   `json:"owner_user_id"`
	ProviderAccountID string                `json:"provider_account_id,omitempty"`
	ChargesEnabled    bool                  `json:"charges_enabled"`
	PayoutsEnabled    bool                  `json:"payouts_enabled"`
	Status            MerchantAccountStatus `json:"status"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// DeriveMerchantStatus computes the coarse status from capability flags
func DeriveMerchantStatus(chargesEnabled, payoutsEnabled bool) MerchantAccountStatus {
	switch {
	case chargesEnabled && payoutsEnabled:
		return MerchantStatusActive
	case chargesEnabled || payoutsEnabled:
		return MerchantStatusRestricted
	default:
		return MerchantStatusPending
	}
}
